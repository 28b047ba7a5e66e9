package catalog

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/nmoreau/storesync-backend/internal/tenancy"
	"github.com/nmoreau/storesync-backend/pkg/db/models"
	"github.com/nmoreau/storesync-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
	"github.com/nmoreau/storesync-backend/pkg/pagination"
)

// Store defines the catalog persistence surface the replication engine works
// against. Every operation is scoped to the tenant carried on the context.
type Store interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetAggregate(ctx context.Context, id int64) (*Aggregate, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)

	GetMeta(ctx context.Context, productID int64, key string) (string, bool, error)
	SetMeta(ctx context.Context, productID int64, key, value string) error
	DeleteMeta(ctx context.Context, productID int64, key string) error

	SetFeaturedImage(ctx context.Context, productID int64, attachmentID *int64) error
	SetGallery(ctx context.Context, productID int64, attachmentIDs []int64) error

	ReplaceAttributes(ctx context.Context, productID int64, attrs []models.ProductAttribute) error
	ListAttributes(ctx context.Context, productID int64) ([]models.ProductAttribute, error)
	RegenerateAttributeLookup(ctx context.Context, productID int64) error

	CreateVariation(ctx context.Context, variation *models.Variation) (*models.Variation, error)
	UpdateVariation(ctx context.Context, variation *models.Variation) (*models.Variation, error)
	ListVariations(ctx context.Context, productID int64) ([]models.Variation, error)
	SyncVariableProduct(ctx context.Context, productID int64) error

	ReplaceProductTerms(ctx context.Context, productID int64, termIDs []int64) error
	ListProductTerms(ctx context.Context, productID int64) ([]models.Term, error)

	FindProductsReferencingImage(ctx context.Context, attachmentID, excludeProductID int64) ([]int64, error)
}

// Repository backs the catalog store with GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Aggregate is the full snapshot of one product: row, meta bag, attribute
// table, variations and assigned terms.
type Aggregate struct {
	Product    models.Product
	Meta       map[string]string
	Attributes []models.ProductAttribute
	Variations []models.Variation
	Terms      []models.Term
}

func tenantScope(ctx context.Context) (int64, error) {
	tenantID, ok := tenancy.Current(ctx)
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "no tenant scope on context")
	}
	return tenantID, nil
}

// GetProduct loads one product row on the current tenant.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	var product models.Product
	err = r.db.WithContext(ctx).
		First(&product, "id = ? AND tenant_id = ?", id, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return &product, nil
}

// ListProductsByKind pages through products of one kind on the current
// tenant, oldest id first, returning the page and the total count.
func (r *Repository) ListProductsByKind(ctx context.Context, kind enums.ProductKind, page pagination.Params) ([]models.Product, int64, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return nil, 0, err
	}
	page = page.Normalize()

	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("tenant_id = ? AND kind = ?", tenantID, kind)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting products")
	}

	var products []models.Product
	err = query.
		Order("id ASC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&products).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	return products, total, nil
}

// GetAggregate loads the product with its meta, attributes, variations and terms.
func (r *Repository) GetAggregate(ctx context.Context, id int64) (*Aggregate, error) {
	product, err := r.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	agg := &Aggregate{Product: *product, Meta: map[string]string{}}

	var metaRows []models.ProductMeta
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", id).
		Find(&metaRows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product meta")
	}
	for _, row := range metaRows {
		agg.Meta[row.Key] = row.Value
	}

	if agg.Attributes, err = r.ListAttributes(ctx, id); err != nil {
		return nil, err
	}
	if agg.Variations, err = r.ListVariations(ctx, id); err != nil {
		return nil, err
	}
	if agg.Terms, err = r.ListProductTerms(ctx, id); err != nil {
		return nil, err
	}
	return agg, nil
}

// CreateProduct inserts a product row on the current tenant.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	product.TenantID = tenantID
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inserting product")
	}
	return product, nil
}

// UpdateProduct saves the product row. The row must belong to the current tenant.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	if product.TenantID != tenantID {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product belongs to another tenant")
	}
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating product")
	}
	return product, nil
}

// SlugExists reports whether another product on the tenant already uses slug.
func (r *Repository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return false, err
	}
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("tenant_id = ? AND slug = ?", tenantID, slug)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking slug")
	}
	return count > 0, nil
}

// GetMeta reads one meta value for the product.
func (r *Repository) GetMeta(ctx context.Context, productID int64, key string) (string, bool, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return "", false, err
	}
	var row models.ProductMeta
	err = r.db.WithContext(ctx).
		First(&row, "tenant_id = ? AND product_id = ? AND key = ?", tenantID, productID, key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product meta value")
	}
	return row.Value, true, nil
}

// SetMeta upserts one meta value for the product.
func (r *Repository) SetMeta(ctx context.Context, productID int64, key, value string) error {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return err
	}
	var row models.ProductMeta
	err = r.db.WithContext(ctx).
		First(&row, "tenant_id = ? AND product_id = ? AND key = ?", tenantID, productID, key).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.ProductMeta{TenantID: tenantID, ProductID: productID, Key: key, Value: value}
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inserting product meta")
		}
		return nil
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product meta value")
	default:
		row.Value = value
		if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating product meta")
		}
		return nil
	}
}

// DeleteMeta removes one meta key from the product.
func (r *Repository) DeleteMeta(ctx context.Context, productID int64, key string) error {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND key = ?", tenantID, productID, key).
		Delete(&models.ProductMeta{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product meta")
	}
	return nil
}

// SetFeaturedImage writes the featured image through both representations:
// the structured column and the raw thumbnail meta row. They must never diverge.
func (r *Repository) SetFeaturedImage(ctx context.Context, productID int64, attachmentID *int64) error {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND tenant_id = ?", productID, tenantID).
		Update("featured_image_id", attachmentID).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating featured image")
	}
	if attachmentID == nil {
		return r.DeleteMeta(ctx, productID, MetaThumbnailID)
	}
	return r.SetMeta(ctx, productID, MetaThumbnailID, strconv.FormatInt(*attachmentID, 10))
}

// SetGallery writes the gallery through both representations: the array
// column and the raw CSV meta row.
func (r *Repository) SetGallery(ctx context.Context, productID int64, attachmentIDs []int64) error {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND tenant_id = ?", productID, tenantID).
		Update("gallery_image_ids", pq.Int64Array(attachmentIDs)).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating gallery")
	}
	if len(attachmentIDs) == 0 {
		return r.DeleteMeta(ctx, productID, MetaImageGallery)
	}
	return r.SetMeta(ctx, productID, MetaImageGallery, joinIDs(attachmentIDs))
}

// ReplaceAttributes swaps the product's attribute rows for attrs.
func (r *Repository) ReplaceAttributes(ctx context.Context, productID int64, attrs []models.ProductAttribute) error {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Delete(&models.ProductAttribute{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing attributes")
	}
	for i := range attrs {
		attrs[i].ID = 0
		attrs[i].TenantID = tenantID
		attrs[i].ProductID = productID
	}
	if len(attrs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&attrs).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inserting attributes")
	}
	return nil
}

// ListAttributes returns the product's attribute rows ordered by position.
func (r *Repository) ListAttributes(ctx context.Context, productID int64) ([]models.ProductAttribute, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	var attrs []models.ProductAttribute
	err = r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Order("position ASC, id ASC").
		Find(&attrs).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing attributes")
	}
	return attrs, nil
}

// RegenerateAttributeLookup rebuilds the derived attribute meta value from
// the attribute table rows.
func (r *Repository) RegenerateAttributeLookup(ctx context.Context, productID int64) error {
	attrs, err := r.ListAttributes(ctx, productID)
	if err != nil {
		return err
	}
	if len(attrs) == 0 {
		return r.DeleteMeta(ctx, productID, MetaAttributeLookup)
	}
	lookup, err := BuildAttributeLookup(attrs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building attribute lookup")
	}
	return r.SetMeta(ctx, productID, MetaAttributeLookup, lookup)
}

// CreateVariation inserts a variation under the product on the current tenant.
func (r *Repository) CreateVariation(ctx context.Context, variation *models.Variation) (*models.Variation, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	variation.TenantID = tenantID
	if err := r.db.WithContext(ctx).Create(variation).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inserting variation")
	}
	return variation, nil
}

// UpdateVariation saves the variation row.
func (r *Repository) UpdateVariation(ctx context.Context, variation *models.Variation) (*models.Variation, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	if variation.TenantID != tenantID {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "variation belongs to another tenant")
	}
	if err := r.db.WithContext(ctx).Save(variation).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating variation")
	}
	return variation, nil
}

// ListVariations returns the product's variations ordered by ID.
func (r *Repository) ListVariations(ctx context.Context, productID int64) ([]models.Variation, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	var variations []models.Variation
	err = r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Order("id ASC").
		Find(&variations).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing variations")
	}
	return variations, nil
}

// SyncVariableProduct recomputes parent-level aggregates from the live
// variations: stock status and the price range floor.
func (r *Repository) SyncVariableProduct(ctx context.Context, productID int64) error {
	product, err := r.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product.Kind != enums.ProductKindVariable {
		return nil
	}
	variations, err := r.ListVariations(ctx, productID)
	if err != nil {
		return err
	}

	stock := enums.StockStatusOutOfStock
	minRegular := product.RegularPrice
	minRegular.Valid = false
	minSale := product.SalePrice
	minSale.Valid = false
	for _, variation := range variations {
		if variation.StockStatus == enums.StockStatusInStock {
			stock = enums.StockStatusInStock
		}
		if variation.RegularPrice.Valid &&
			(!minRegular.Valid || variation.RegularPrice.Decimal.LessThan(minRegular.Decimal)) {
			minRegular = variation.RegularPrice
		}
		if variation.SalePrice.Valid &&
			(!minSale.Valid || variation.SalePrice.Decimal.LessThan(minSale.Decimal)) {
			minSale = variation.SalePrice
		}
	}

	product.StockStatus = stock
	product.RegularPrice = minRegular
	product.SalePrice = minSale
	_, err = r.UpdateProduct(ctx, product)
	return err
}

// ReplaceProductTerms swaps the product's term assignments for termIDs.
func (r *Repository) ReplaceProductTerms(ctx context.Context, productID int64, termIDs []int64) error {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Delete(&models.ProductTerm{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing product terms")
	}
	if len(termIDs) == 0 {
		return nil
	}
	rows := make([]models.ProductTerm, 0, len(termIDs))
	for _, termID := range termIDs {
		rows = append(rows, models.ProductTerm{
			TenantID:  tenantID,
			ProductID: productID,
			TermID:    termID,
		})
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inserting product terms")
	}
	return nil
}

// ListProductTerms returns the terms assigned to the product.
func (r *Repository) ListProductTerms(ctx context.Context, productID int64) ([]models.Term, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	var terms []models.Term
	err = r.db.WithContext(ctx).
		Joins("JOIN product_terms pt ON pt.term_id = terms.id").
		Where("pt.tenant_id = ? AND pt.product_id = ?", tenantID, productID).
		Order("terms.id ASC").
		Find(&terms).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing product terms")
	}
	return terms, nil
}

// FindProductsReferencingImage returns IDs of products on the current tenant,
// excluding excludeProductID, that still reference the attachment as featured
// image, gallery entry or variation image.
func (r *Repository) FindProductsReferencingImage(ctx context.Context, attachmentID, excludeProductID int64) ([]int64, error) {
	tenantID, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}

	ids := map[int64]struct{}{}

	var featured []int64
	err = r.db.WithContext(ctx).Model(&models.Product{}).
		Where("tenant_id = ? AND id <> ? AND featured_image_id = ?", tenantID, excludeProductID, attachmentID).
		Pluck("id", &featured).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "scanning featured references")
	}
	for _, id := range featured {
		ids[id] = struct{}{}
	}

	var withGalleries []models.Product
	err = r.db.WithContext(ctx).
		Select("id", "gallery_image_ids").
		Where("tenant_id = ? AND id <> ?", tenantID, excludeProductID).
		Find(&withGalleries).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "scanning gallery references")
	}
	for _, product := range withGalleries {
		for _, imageID := range product.GalleryImageIDs {
			if imageID == attachmentID {
				ids[product.ID] = struct{}{}
				break
			}
		}
	}

	var variations []int64
	err = r.db.WithContext(ctx).Model(&models.Variation{}).
		Where("tenant_id = ? AND product_id <> ? AND image_id = ?", tenantID, excludeProductID, attachmentID).
		Pluck("product_id", &variations).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "scanning variation references")
	}
	for _, id := range variations {
		ids[id] = struct{}{}
	}

	out := make([]int64, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}
