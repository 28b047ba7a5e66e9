package models

import (
	"github.com/lib/pq"

	"github.com/nmoreau/storesync-backend/pkg/enums"
)

// ProductAttribute is one attribute row on a variable product. Taxonomy
// attributes reference term rows and keep options empty; custom attributes
// carry their literal values pipe-joined in options.
type ProductAttribute struct {
	ID                int64               `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID          int64               `gorm:"column:tenant_id;not null"`
	ProductID         int64               `gorm:"column:product_id;not null;index:idx_product_attributes_product"`
	Name              string              `gorm:"column:name;not null"`
	Kind              enums.AttributeKind `gorm:"column:kind;not null"`
	Options           string              `gorm:"column:options;not null;default:''"`
	TermIDs           pq.Int64Array       `gorm:"column:term_ids;type:bigint[]"`
	Position          int                 `gorm:"column:position;not null;default:0"`
	IsVisible         bool                `gorm:"column:is_visible;not null;default:true"`
	UsedForVariations bool                `gorm:"column:used_for_variations;not null;default:false"`
}
