package models

import "time"

// SyncLink records that a source product has a replicated counterpart on a
// target tenant. One row serves both lookup directions.
type SyncLink struct {
	ID              int64      `gorm:"column:id;primaryKey;autoIncrement"`
	SourceTenantID  int64      `gorm:"column:source_tenant_id;not null;uniqueIndex:uq_sync_links_source_target"`
	SourceProductID int64      `gorm:"column:source_product_id;not null;uniqueIndex:uq_sync_links_source_target"`
	TargetTenantID  int64      `gorm:"column:target_tenant_id;not null;uniqueIndex:uq_sync_links_source_target"`
	TargetProductID int64      `gorm:"column:target_product_id;not null"`
	LastSyncedAt    *time.Time `gorm:"column:last_synced_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
