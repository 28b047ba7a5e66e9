package models

import "time"

// Tenant is one site in the network. Its ID scopes every catalog row and
// names the per-site subtree under the uploads root.
type Tenant struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Slug      string    `gorm:"column:slug;not null;unique"`
	Name      string    `gorm:"column:name;not null"`
	BaseURL   string    `gorm:"column:base_url;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
