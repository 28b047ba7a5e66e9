package replicate

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/nmoreau/storesync-backend/pkg/db/models"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
)

// LinkRepository persists sync links. Links span tenants, so tenancy is
// explicit in arguments rather than read from the context.
type LinkRepository interface {
	GetLink(ctx context.Context, sourceTenantID, sourceProductID, targetTenantID int64) (*models.SyncLink, error)
	ListLinksForProduct(ctx context.Context, sourceTenantID, sourceProductID int64) ([]models.SyncLink, error)
	ListLinksBySourceTenant(ctx context.Context, sourceTenantID int64) ([]models.SyncLink, error)
	CreateLink(ctx context.Context, link *models.SyncLink) (*models.SyncLink, error)
	TouchLink(ctx context.Context, id int64, syncedAt time.Time) error
	DeleteLink(ctx context.Context, id int64) error
}

// Repository backs sync link persistence with GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// GetLink returns nil without error when no link exists for the triple.
func (r *Repository) GetLink(ctx context.Context, sourceTenantID, sourceProductID, targetTenantID int64) (*models.SyncLink, error) {
	var link models.SyncLink
	err := r.db.WithContext(ctx).
		Where("source_tenant_id = ? AND source_product_id = ? AND target_tenant_id = ?",
			sourceTenantID, sourceProductID, targetTenantID).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading sync link")
	}
	return &link, nil
}

func (r *Repository) ListLinksForProduct(ctx context.Context, sourceTenantID, sourceProductID int64) ([]models.SyncLink, error) {
	var links []models.SyncLink
	err := r.db.WithContext(ctx).
		Where("source_tenant_id = ? AND source_product_id = ?", sourceTenantID, sourceProductID).
		Order("target_tenant_id ASC").
		Find(&links).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing sync links for product")
	}
	return links, nil
}

func (r *Repository) ListLinksBySourceTenant(ctx context.Context, sourceTenantID int64) ([]models.SyncLink, error) {
	var links []models.SyncLink
	err := r.db.WithContext(ctx).
		Where("source_tenant_id = ?", sourceTenantID).
		Order("source_product_id ASC, target_tenant_id ASC").
		Find(&links).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing sync links for tenant")
	}
	return links, nil
}

func (r *Repository) CreateLink(ctx context.Context, link *models.SyncLink) (*models.SyncLink, error) {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating sync link")
	}
	return link, nil
}

func (r *Repository) TouchLink(ctx context.Context, id int64, syncedAt time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.SyncLink{}).
		Where("id = ?", id).
		Update("last_synced_at", syncedAt).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touching sync link")
	}
	return nil
}

func (r *Repository) DeleteLink(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.SyncLink{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting sync link")
	}
	return nil
}
