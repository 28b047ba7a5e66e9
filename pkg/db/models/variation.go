package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nmoreau/storesync-backend/pkg/enums"
	"github.com/nmoreau/storesync-backend/pkg/types"
)

// Variation is one purchasable combination under a variable product. Its
// identity across tenants is the sorted attribute assignment key, never the
// row ID.
type Variation struct {
	ID             int64                    `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID       int64                    `gorm:"column:tenant_id;not null"`
	ProductID      int64                    `gorm:"column:product_id;not null;index:idx_variations_product"`
	SKU            string                   `gorm:"column:sku"`
	GTIN           *string                  `gorm:"column:gtin"`
	Status         enums.ProductStatus      `gorm:"column:status;not null;default:publish"`
	RegularPrice   decimal.NullDecimal      `gorm:"column:regular_price;type:numeric(12,2)"`
	SalePrice      decimal.NullDecimal      `gorm:"column:sale_price;type:numeric(12,2)"`
	SaleStartAt    *time.Time               `gorm:"column:sale_start_at"`
	SaleEndAt      *time.Time               `gorm:"column:sale_end_at"`
	StockStatus    enums.StockStatus        `gorm:"column:stock_status;not null;default:instock"`
	Backorders     enums.BackorderPolicy    `gorm:"column:backorders;not null;default:no"`
	ManageStock    bool                     `gorm:"column:manage_stock;not null;default:false"`
	StockQuantity  *int                     `gorm:"column:stock_quantity"`
	LowStockAmount *int                     `gorm:"column:low_stock_amount"`
	Assignments    types.AttributeSelection `gorm:"column:assignments;type:jsonb;not null"`
	ImageID        *int64                   `gorm:"column:image_id"`
	CreatedAt      time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
