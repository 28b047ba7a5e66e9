package media

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/nmoreau/storesync-backend/internal/tenancy"
	"github.com/nmoreau/storesync-backend/pkg/db/models"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
)

// AttachmentRepository defines persistence operations for media rows.
type AttachmentRepository interface {
	GetAttachment(ctx context.Context, id int64) (*models.Attachment, error)
	FindByPath(ctx context.Context, filePath string) (*models.Attachment, error)
	CreateAttachment(ctx context.Context, attachment *models.Attachment) (*models.Attachment, error)
	UpdateAttachment(ctx context.Context, attachment *models.Attachment) (*models.Attachment, error)
	DeleteAttachment(ctx context.Context, id int64) error
}

// Repository backs attachment persistence with GORM.
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

// GetAttachment loads one attachment on the current tenant.
func (r *Repository) GetAttachment(ctx context.Context, id int64) (*models.Attachment, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	var attachment models.Attachment
	err = r.db.WithContext(ctx).
		First(&attachment, "id = ? AND tenant_id = ?", id, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "attachment not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading attachment")
	}
	return &attachment, nil
}

// FindByPath resolves an attachment by its relative file path on the current
// tenant. A nil result without error means no attachment exists there.
func (r *Repository) FindByPath(ctx context.Context, filePath string) (*models.Attachment, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	var attachment models.Attachment
	err = r.db.WithContext(ctx).
		First(&attachment, "tenant_id = ? AND file_path = ?", tenantID, filePath).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving attachment by path")
	}
	return &attachment, nil
}

// CreateAttachment inserts an attachment row on the current tenant.
func (r *Repository) CreateAttachment(ctx context.Context, attachment *models.Attachment) (*models.Attachment, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	attachment.TenantID = tenantID
	if err := r.db.WithContext(ctx).Create(attachment).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inserting attachment")
	}
	return attachment, nil
}

// UpdateAttachment saves the attachment row.
func (r *Repository) UpdateAttachment(ctx context.Context, attachment *models.Attachment) (*models.Attachment, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	if attachment.TenantID != tenantID {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "attachment belongs to another tenant")
	}
	if err := r.db.WithContext(ctx).Save(attachment).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating attachment")
	}
	return attachment, nil
}

// DeleteAttachment removes the attachment row on the current tenant.
func (r *Repository) DeleteAttachment(ctx context.Context, id int64) error {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&models.Attachment{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting attachment")
	}
	return nil
}
