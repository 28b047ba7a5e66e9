package activity

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nmoreau/storesync-backend/pkg/db/models"
	"github.com/nmoreau/storesync-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
	"github.com/nmoreau/storesync-backend/pkg/pagination"
)

// Filters narrows an activity query. Zero values match everything.
type Filters struct {
	Action         enums.ActivityAction
	ActorID        int64
	SourceTenantID int64
	TargetTenantID int64
	From           time.Time
	To             time.Time
}

// ActivityRepository persists the capped audit trail.
type ActivityRepository interface {
	Append(ctx context.Context, record *models.ActivityRecord) (*models.ActivityRecord, error)
	Prune(ctx context.Context, cap int) error
	Query(ctx context.Context, filters Filters, page pagination.Params) ([]models.ActivityRecord, int64, error)
	CountByDay(ctx context.Context, since time.Time) ([]DayCount, error)
}

// DayCount is one day's create/update totals. Day is the calendar date in
// YYYY-MM-DD form.
type DayCount struct {
	Day     string `gorm:"column:day" json:"day"`
	Creates int64  `gorm:"column:creates" json:"creates"`
	Updates int64  `gorm:"column:updates" json:"updates"`
}

// Repository backs the audit trail with GORM.
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

func (r *Repository) Append(ctx context.Context, record *models.ActivityRecord) (*models.ActivityRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "appending activity record")
	}
	return record, nil
}

// Prune deletes the oldest records beyond the cap.
func (r *Repository) Prune(ctx context.Context, cap int) error {
	if cap <= 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Exec(`DELETE FROM activity_records WHERE id NOT IN (
			SELECT id FROM activity_records ORDER BY created_at DESC, id DESC LIMIT ?
		)`, cap).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pruning activity records")
	}
	return nil
}

func (r *Repository) Query(ctx context.Context, filters Filters, page pagination.Params) ([]models.ActivityRecord, int64, error) {
	page = page.Normalize()
	query := r.db.WithContext(ctx).Model(&models.ActivityRecord{})

	if filters.Action != "" {
		query = query.Where("action = ?", filters.Action)
	}
	if filters.ActorID > 0 {
		query = query.Where("actor_id = ?", filters.ActorID)
	}
	if filters.SourceTenantID > 0 {
		query = query.Where("source_tenant_id = ?", filters.SourceTenantID)
	}
	if filters.TargetTenantID > 0 {
		query = query.Where("target_tenant_id = ?", filters.TargetTenantID)
	}
	if !filters.From.IsZero() {
		query = query.Where("created_at >= ?", filters.From)
	}
	if !filters.To.IsZero() {
		query = query.Where("created_at <= ?", filters.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting activity records")
	}

	var records []models.ActivityRecord
	err := query.
		Order("created_at DESC, id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&records).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "querying activity records")
	}
	return records, total, nil
}

// CountByDay aggregates create/update totals per calendar day since the given
// time, oldest day first.
func (r *Repository) CountByDay(ctx context.Context, since time.Time) ([]DayCount, error) {
	var counts []DayCount
	err := r.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Select(`DATE(created_at) AS day,
			SUM(CASE WHEN action = 'create' THEN 1 ELSE 0 END) AS creates,
			SUM(CASE WHEN action = 'update' THEN 1 ELSE 0 END) AS updates`).
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregating activity by day")
	}
	return counts, nil
}
