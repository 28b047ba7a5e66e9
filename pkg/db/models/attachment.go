package models

import (
	"time"

	"github.com/nmoreau/storesync-backend/pkg/types"
)

// Attachment is one media library entry. FilePath is the path relative to
// the tenant's uploads directory and is the dedup key replication matches on.
type Attachment struct {
	ID        int64         `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID  int64         `gorm:"column:tenant_id;not null;uniqueIndex:uq_attachments_tenant_path"`
	FilePath  string        `gorm:"column:file_path;not null;uniqueIndex:uq_attachments_tenant_path"`
	Title     string        `gorm:"column:title"`
	AltText   string        `gorm:"column:alt_text"`
	MimeType  string        `gorm:"column:mime_type;not null"`
	SizeBytes int64         `gorm:"column:size_bytes;not null;default:0"`
	Variants  types.JSONMap `gorm:"column:variants;type:jsonb"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
}
