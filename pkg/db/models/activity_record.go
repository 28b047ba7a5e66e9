package models

import (
	"time"

	"github.com/nmoreau/storesync-backend/pkg/enums"
)

// ActivityRecord is one line of the replication audit trail. The table is
// capped; the recorder evicts the oldest rows past the configured limit.
type ActivityRecord struct {
	ID              int64                `gorm:"column:id;primaryKey;autoIncrement"`
	Action          enums.ActivityAction `gorm:"column:action;not null"`
	SourceTenantID  int64                `gorm:"column:source_tenant_id;not null"`
	SourceProductID int64                `gorm:"column:source_product_id;not null"`
	TargetTenantID  int64                `gorm:"column:target_tenant_id;not null"`
	TargetProductID int64                `gorm:"column:target_product_id;not null"`
	ProductTitle    string               `gorm:"column:product_title"`
	ActorID         int64                `gorm:"column:actor_id;not null"`
	ActorEmail      string               `gorm:"column:actor_email"`
	Status          string               `gorm:"column:status;not null;default:success"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime;index:idx_activity_records_created"`
}
