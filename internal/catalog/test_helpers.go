package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nmoreau/storesync-backend/internal/tenancy"
	"github.com/nmoreau/storesync-backend/pkg/db/models"
	"github.com/nmoreau/storesync-backend/pkg/enums"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  tenant_id INTEGER NOT NULL,
  kind TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  title TEXT NOT NULL,
  slug TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  short_description TEXT NOT NULL DEFAULT '',
  sku TEXT NOT NULL DEFAULT '',
  regular_price NUMERIC,
  sale_price NUMERIC,
  weight NUMERIC,
  stock_status TEXT NOT NULL DEFAULT 'instock',
  backorders TEXT NOT NULL DEFAULT 'no',
  manage_stock INTEGER NOT NULL DEFAULT 0,
  stock_quantity INTEGER,
  low_stock_amount INTEGER,
  featured_image_id INTEGER,
  gallery_image_ids TEXT NOT NULL DEFAULT '{}',
  video_gallery TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	productMeta := `
CREATE TABLE IF NOT EXISTS product_meta (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  tenant_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL,
  key TEXT NOT NULL,
  value TEXT NOT NULL DEFAULT ''
);`
	productAttributes := `
CREATE TABLE IF NOT EXISTS product_attributes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  tenant_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL,
  name TEXT NOT NULL,
  kind TEXT NOT NULL,
  options TEXT NOT NULL DEFAULT '',
  term_ids TEXT NOT NULL DEFAULT '{}',
  position INTEGER NOT NULL DEFAULT 0,
  is_visible INTEGER NOT NULL DEFAULT 1,
  used_for_variations INTEGER NOT NULL DEFAULT 0
);`
	variations := `
CREATE TABLE IF NOT EXISTS variations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  tenant_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL,
  sku TEXT NOT NULL DEFAULT '',
  gtin TEXT,
  status TEXT NOT NULL DEFAULT 'publish',
  regular_price NUMERIC,
  sale_price NUMERIC,
  sale_start_at DATETIME,
  sale_end_at DATETIME,
  stock_status TEXT NOT NULL DEFAULT 'instock',
  backorders TEXT NOT NULL DEFAULT 'no',
  manage_stock INTEGER NOT NULL DEFAULT 0,
  stock_quantity INTEGER,
  low_stock_amount INTEGER,
  assignments TEXT NOT NULL DEFAULT '{}',
  image_id INTEGER,
  created_at DATETIME,
  updated_at DATETIME
);`
	terms := `
CREATE TABLE IF NOT EXISTS terms (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  tenant_id INTEGER NOT NULL,
  taxonomy TEXT NOT NULL,
  slug TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  parent_id INTEGER
);`
	productTerms := `
CREATE TABLE IF NOT EXISTS product_terms (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  tenant_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL,
  term_id INTEGER NOT NULL
);`

	for _, ddl := range []string{products, productMeta, productAttributes, variations, terms, productTerms} {
		require.NoError(t, db.Exec(ddl).Error)
	}

	t.Cleanup(func() {
		for _, table := range []string{"product_terms", "terms", "variations", "product_attributes", "product_meta", "products"} {
			db.Exec("DELETE FROM " + table)
		}
	})

	return db
}

func tenantCtx(tenantID int64) context.Context {
	return tenancy.With(context.Background(), tenantID)
}

func mustCreateProduct(t *testing.T, db *gorm.DB, tenantID int64, title, slug string) *models.Product {
	t.Helper()
	product := &models.Product{
		TenantID: tenantID,
		Kind:     enums.ProductKindVariable,
		Status:   enums.ProductStatusPublish,
		Title:    title,
		Slug:     slug,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func mustDecimal(t *testing.T, value string) decimal.NullDecimal {
	t.Helper()
	parsed, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return decimal.NullDecimal{Decimal: parsed, Valid: true}
}

func mustCreateTerm(t *testing.T, db *gorm.DB, tenantID int64, taxonomy, slug string) *models.Term {
	t.Helper()
	term := &models.Term{
		TenantID: tenantID,
		Taxonomy: taxonomy,
		Slug:     slug,
		Name:     slug,
	}
	require.NoError(t, db.Create(term).Error)
	return term
}
