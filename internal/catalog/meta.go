package catalog

// Meta keys the engine reads and writes. The underscore-prefixed names match
// the upstream storefront conventions so replicated rows stay compatible with
// existing integrations.
const (
	MetaThumbnailID     = "_thumbnail_id"
	MetaImageGallery    = "_product_image_gallery"
	MetaAttributeLookup = "_product_attributes"
	MetaSourceProduct   = "_wpc_source_product"
	MetaLastSync        = "_wpc_last_sync"
	MetaGTIN            = "_wpm_gtin_code"
)
