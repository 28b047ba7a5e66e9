package replicate

import (
	"context"
	"strconv"
	"strings"

	"github.com/nmoreau/storesync-backend/internal/catalog"
	"github.com/nmoreau/storesync-backend/internal/taxonomy"
	"github.com/nmoreau/storesync-backend/pkg/db/models"
	"github.com/nmoreau/storesync-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
	"github.com/nmoreau/storesync-backend/pkg/types"
)

// snapshot is the full source-side read of one product, taken under the
// source tenant before any target write happens.
type snapshot struct {
	product    models.Product
	meta       map[string]string
	attrs      []catalog.Attribute
	variations []models.Variation
	terms      []models.Term
	featuredID *int64
	galleryIDs []int64
}

// managedMetaKeys are written through dedicated paths and never copied as
// part of the free-form meta bag.
var managedMetaKeys = map[string]struct{}{
	catalog.MetaThumbnailID:     {},
	catalog.MetaImageGallery:    {},
	catalog.MetaAttributeLookup: {},
	catalog.MetaSourceProduct:   {},
	catalog.MetaLastSync:        {},
}

// takeSnapshot reads the aggregate and resolves image linkage with the
// raw-meta fallback: either representation may be the authoritative one.
func (e *engine) takeSnapshot(ctx context.Context, productID int64) (*snapshot, error) {
	agg, err := e.store.GetAggregate(ctx, productID)
	if err != nil {
		return nil, err
	}

	snap := &snapshot{
		product:    agg.Product,
		meta:       agg.Meta,
		variations: agg.Variations,
		terms:      agg.Terms,
	}
	for _, row := range agg.Attributes {
		snap.attrs = append(snap.attrs, catalog.FromModel(row))
	}

	snap.featuredID = agg.Product.FeaturedImageID
	if snap.featuredID == nil {
		if raw, ok := agg.Meta[catalog.MetaThumbnailID]; ok {
			if id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && id > 0 {
				snap.featuredID = &id
			}
		}
	}

	snap.galleryIDs = []int64(agg.Product.GalleryImageIDs)
	if len(snap.galleryIDs) == 0 {
		if raw, ok := agg.Meta[catalog.MetaImageGallery]; ok {
			snap.galleryIDs = parseIDList(raw)
		}
	}
	return snap, nil
}

func (s *snapshot) requireVariable() error {
	if s.product.Kind != enums.ProductKindVariable {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is not variable")
	}
	return nil
}

func parseIDList(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// attributeKinds indexes the snapshot's attributes by name so variation
// assignments know which values are vocabulary slugs.
func attributeKinds(attrs []catalog.Attribute) map[string]enums.AttributeKind {
	kinds := make(map[string]enums.AttributeKind, len(attrs))
	for _, attr := range attrs {
		kinds[attr.Name] = attr.Kind
	}
	return kinds
}

// rewriteAssignments re-points taxonomy assignment values through the slug
// map. Custom assignment values pass through verbatim.
func rewriteAssignments(assignments types.AttributeSelection, kinds map[string]enums.AttributeKind, slugMap taxonomy.SlugMap) types.AttributeSelection {
	out := make(types.AttributeSelection, len(assignments))
	for name, value := range assignments {
		if kinds[name] == enums.AttributeKindTaxonomy && value != "" {
			out[name] = slugMap.Rewrite(name, value)
			continue
		}
		out[name] = value
	}
	return out
}

// videoGalleryFor applies the gallery convention: the first source entry with
// a video URL survives, keyed onto the second replicated gallery image. Fewer
// than two images leaves the gallery unset.
func videoGalleryFor(source types.VideoGallery, galleryIDs []int64) types.VideoGallery {
	if len(source) == 0 || len(galleryIDs) < 2 {
		return nil
	}
	_, entry, ok := source.FirstWithVideo()
	if !ok {
		return nil
	}
	return types.VideoGallery{strconv.FormatInt(galleryIDs[1], 10): entry}
}
