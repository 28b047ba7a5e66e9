package models

// Term is one taxonomy term scoped to a tenant. Cross-tenant identity is the
// (taxonomy, slug) pair; the row ID never travels between tenants.
type Term struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID    int64  `gorm:"column:tenant_id;not null;uniqueIndex:uq_terms_tenant_taxonomy_slug"`
	Taxonomy    string `gorm:"column:taxonomy;not null;uniqueIndex:uq_terms_tenant_taxonomy_slug"`
	Slug        string `gorm:"column:slug;not null;uniqueIndex:uq_terms_tenant_taxonomy_slug"`
	Name        string `gorm:"column:name;not null"`
	Description string `gorm:"column:description;not null;default:''"`
	ParentID    *int64 `gorm:"column:parent_id"`
}

// ProductTerm links a product to a term within the same tenant.
type ProductTerm struct {
	ID        int64 `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID  int64 `gorm:"column:tenant_id;not null"`
	ProductID int64 `gorm:"column:product_id;not null;uniqueIndex:uq_product_terms_product_term"`
	TermID    int64 `gorm:"column:term_id;not null;uniqueIndex:uq_product_terms_product_term"`
}
