package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/nmoreau/storesync-backend/pkg/enums"
	"github.com/nmoreau/storesync-backend/pkg/types"
)

// Product is one catalog listing scoped to a tenant. The featured image is
// carried twice, as the featured_image_id column and as a _thumbnail_id meta
// row, and the two must always agree.
type Product struct {
	ID               int64                `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID         int64                `gorm:"column:tenant_id;not null;index:idx_products_tenant"`
	Kind             enums.ProductKind    `gorm:"column:kind;not null"`
	Status           enums.ProductStatus  `gorm:"column:status;not null;default:draft"`
	Title            string               `gorm:"column:title;not null"`
	Slug             string               `gorm:"column:slug;not null"`
	Description      string               `gorm:"column:description"`
	ShortDescription string               `gorm:"column:short_description"`
	SKU              string               `gorm:"column:sku"`
	RegularPrice     decimal.NullDecimal  `gorm:"column:regular_price;type:numeric(12,2)"`
	SalePrice        decimal.NullDecimal  `gorm:"column:sale_price;type:numeric(12,2)"`
	Weight           decimal.NullDecimal  `gorm:"column:weight;type:numeric(10,3)"`
	StockStatus      enums.StockStatus    `gorm:"column:stock_status;not null;default:instock"`
	Backorders       enums.BackorderPolicy `gorm:"column:backorders;not null;default:no"`
	ManageStock      bool                 `gorm:"column:manage_stock;not null;default:false"`
	StockQuantity    *int                 `gorm:"column:stock_quantity"`
	LowStockAmount   *int                 `gorm:"column:low_stock_amount"`
	FeaturedImageID  *int64               `gorm:"column:featured_image_id"`
	GalleryImageIDs  pq.Int64Array        `gorm:"column:gallery_image_ids;type:bigint[]"`
	VideoGallery     types.VideoGallery   `gorm:"column:video_gallery;type:jsonb"`
	Meta             []ProductMeta        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Attributes       []ProductAttribute   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Variations       []Variation          `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
