package taxonomy

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/nmoreau/storesync-backend/internal/tenancy"
	"github.com/nmoreau/storesync-backend/pkg/db/models"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
)

// TermRepository defines persistence operations for taxonomy terms.
type TermRepository interface {
	GetTerm(ctx context.Context, id int64) (*models.Term, error)
	FindBySlug(ctx context.Context, taxonomy, slug string) (*models.Term, error)
	ListTermsByIDs(ctx context.Context, ids []int64) ([]models.Term, error)
	CreateTerm(ctx context.Context, term *models.Term) (*models.Term, error)
}

// Repository backs term persistence with GORM.
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

func tenantScope(ctx context.Context) (int64, error) {
	tenantID, ok := tenancy.Current(ctx)
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "no tenant scope on context")
	}
	return tenantID, nil
}

func (r *Repository) GetTerm(ctx context.Context, id int64) (*models.Term, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	var term models.Term
	err = r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&term).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "term not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading term")
	}
	return &term, nil
}

// FindBySlug returns nil without error when no term matches.
func (r *Repository) FindBySlug(ctx context.Context, taxonomy, slug string) (*models.Term, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	var term models.Term
	err = r.db.WithContext(ctx).
		Where("tenant_id = ? AND taxonomy = ? AND slug = ?", tenantID, taxonomy, slug).
		First(&term).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up term by slug")
	}
	return &term, nil
}

func (r *Repository) ListTermsByIDs(ctx context.Context, ids []int64) ([]models.Term, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	var terms []models.Term
	err = r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("id ASC").
		Find(&terms).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing terms")
	}
	return terms, nil
}

func (r *Repository) CreateTerm(ctx context.Context, term *models.Term) (*models.Term, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	term.TenantID = tenantID
	if err := r.db.WithContext(ctx).Create(term).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating term")
	}
	return term, nil
}
