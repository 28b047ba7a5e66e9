package models

// ProductMeta is a free-form key/value row attached to a product. Keys the
// engine itself writes include _thumbnail_id, _wpm_gtin_code and the
// _wpc_source_product back-reference on replicated targets.
type ProductMeta struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID  int64  `gorm:"column:tenant_id;not null"`
	ProductID int64  `gorm:"column:product_id;not null;index:idx_product_meta_product"`
	Key       string `gorm:"column:key;not null"`
	Value     string `gorm:"column:value"`
}

// TableName keeps the uncountable table name.
func (ProductMeta) TableName() string {
	return "product_meta"
}
