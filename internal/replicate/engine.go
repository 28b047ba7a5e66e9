package replicate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/multierr"

	"github.com/nmoreau/storesync-backend/internal/catalog"
	"github.com/nmoreau/storesync-backend/internal/events"
	"github.com/nmoreau/storesync-backend/internal/media"
	"github.com/nmoreau/storesync-backend/internal/taxonomy"
	"github.com/nmoreau/storesync-backend/internal/tenancy"
	"github.com/nmoreau/storesync-backend/pkg/auth"
	"github.com/nmoreau/storesync-backend/pkg/db/models"
	"github.com/nmoreau/storesync-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
	"github.com/nmoreau/storesync-backend/pkg/logger"
	"github.com/nmoreau/storesync-backend/pkg/metrics"
)

// Engine replicates variable products from the source tenant onto targets.
// Item-level failures (one image, one term, one variation) log and skip;
// product-level failures abort. No transaction spans tenants: target writes
// committed before an abort survive it.
type Engine interface {
	Create(ctx context.Context, sourceProductID, targetTenantID int64) (int64, error)
	Update(ctx context.Context, sourceProductID, targetTenantID, targetProductID int64) error
}

type engine struct {
	store          catalog.Store
	media          media.Service
	translator     taxonomy.Translator
	links          LinkRepository
	switcher       *tenancy.Switcher
	bus            *events.Bus
	logg           *logger.Logger
	metrics        *metrics.ReplicationMetrics
	sourceTenantID int64
}

// NewEngine constructs the replication engine.
func NewEngine(
	store catalog.Store,
	mediaService media.Service,
	translator taxonomy.Translator,
	links LinkRepository,
	switcher *tenancy.Switcher,
	bus *events.Bus,
	logg *logger.Logger,
	replicationMetrics *metrics.ReplicationMetrics,
	sourceTenantID int64,
) (Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog store required")
	}
	if mediaService == nil {
		return nil, fmt.Errorf("media service required")
	}
	if translator == nil {
		return nil, fmt.Errorf("taxonomy translator required")
	}
	if links == nil {
		return nil, fmt.Errorf("link repository required")
	}
	if switcher == nil {
		return nil, fmt.Errorf("tenant switcher required")
	}
	if bus == nil {
		return nil, fmt.Errorf("event bus required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if sourceTenantID <= 0 {
		return nil, fmt.Errorf("source tenant id required")
	}
	return &engine{
		store:          store,
		media:          mediaService,
		translator:     translator,
		links:          links,
		switcher:       switcher,
		bus:            bus,
		logg:           logg,
		metrics:        replicationMetrics,
		sourceTenantID: sourceTenantID,
	}, nil
}

// Create replicates the source product onto the target tenant as a new draft
// product and records the sync link. Returns the new target product id.
func (e *engine) Create(ctx context.Context, sourceProductID, targetTenantID int64) (int64, error) {
	start := time.Now()
	targetID, err := e.create(ctx, sourceProductID, targetTenantID)
	e.metrics.ObserveDuration("create", time.Since(start))
	if err != nil {
		e.metrics.IncProduct("create", "failure")
		return 0, err
	}
	e.metrics.IncProduct("create", "success")
	return targetID, nil
}

func (e *engine) create(ctx context.Context, sourceProductID, targetTenantID int64) (int64, error) {
	if err := e.validateTarget(targetTenantID); err != nil {
		return 0, err
	}
	ctx = e.logg.WithFields(ctx, map[string]any{
		"source_product_id": sourceProductID,
		"target_tenant_id":  targetTenantID,
	})

	if err := e.ensureUnlinked(ctx, sourceProductID, targetTenantID); err != nil {
		return 0, err
	}

	snap, err := e.snapshotSource(ctx, sourceProductID)
	if err != nil {
		return 0, err
	}

	var targetID int64
	err = e.switcher.RunAs(ctx, targetTenantID, func(ctx context.Context) error {
		slug, err := e.availableSlug(ctx, snap.product.Slug, 0)
		if err != nil {
			return err
		}
		shell := &models.Product{
			Kind:             enums.ProductKindVariable,
			Status:           enums.ProductStatusDraft,
			Title:            snap.product.Title,
			Slug:             slug,
			Description:      snap.product.Description,
			ShortDescription: snap.product.ShortDescription,
			SKU:              snap.product.SKU,
			Weight:           snap.product.Weight,
		}
		created, err := e.store.CreateProduct(ctx, shell)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating target product shell")
		}
		targetID = created.ID

		for key, value := range snap.meta {
			if _, managed := managedMetaKeys[key]; managed || value == "" {
				continue
			}
			if err := e.store.SetMeta(ctx, targetID, key, value); err != nil {
				e.logg.Warn(e.logg.WithField(ctx, "meta_key", key), "skipping failed meta copy")
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slugMap, err := e.applyTaxonomies(ctx, snap, targetTenantID, targetID)
	if err != nil {
		return 0, err
	}

	galleryIDs := e.applyImages(ctx, snap, targetTenantID, targetID, media.ReplicateOptions{})
	e.applyVideoGallery(ctx, snap, targetTenantID, targetID, galleryIDs)
	e.createVariations(ctx, snap, slugMap, targetTenantID, targetID)

	now := time.Now().UTC()
	err = e.switcher.RunAs(ctx, targetTenantID, func(ctx context.Context) error {
		if err := e.store.SyncVariableProduct(ctx, targetID); err != nil {
			return err
		}
		if err := e.store.RegenerateAttributeLookup(ctx, targetID); err != nil {
			return err
		}
		if err := e.store.SetMeta(ctx, targetID, catalog.MetaSourceProduct, backReference(e.sourceTenantID, sourceProductID)); err != nil {
			return err
		}
		return e.store.SetMeta(ctx, targetID, catalog.MetaLastSync, now.Format(time.RFC3339))
	})
	if err != nil {
		return 0, err
	}

	if _, err := e.links.CreateLink(ctx, &models.SyncLink{
		SourceTenantID:  e.sourceTenantID,
		SourceProductID: sourceProductID,
		TargetTenantID:  targetTenantID,
		TargetProductID: targetID,
		LastSyncedAt:    &now,
	}); err != nil {
		return 0, err
	}

	e.publish(ctx, enums.ActivityActionCreate, snap.product.Title, sourceProductID, targetTenantID, targetID, now)
	return targetID, nil
}

// Update refreshes a previously replicated product in place. Media assets are
// recreated with fresh ids each run while scalar fields stay idempotent.
func (e *engine) Update(ctx context.Context, sourceProductID, targetTenantID, targetProductID int64) error {
	start := time.Now()
	err := e.update(ctx, sourceProductID, targetTenantID, targetProductID)
	e.metrics.ObserveDuration("update", time.Since(start))
	if err != nil {
		e.metrics.IncProduct("update", "failure")
		return err
	}
	e.metrics.IncProduct("update", "success")
	return nil
}

func (e *engine) update(ctx context.Context, sourceProductID, targetTenantID, targetProductID int64) error {
	if err := e.validateTarget(targetTenantID); err != nil {
		return err
	}
	ctx = e.logg.WithFields(ctx, map[string]any{
		"source_product_id": sourceProductID,
		"target_tenant_id":  targetTenantID,
		"target_product_id": targetProductID,
	})

	snap, err := e.snapshotSource(ctx, sourceProductID)
	if err != nil {
		return err
	}

	var oldImages []int64
	err = e.switcher.RunAs(ctx, targetTenantID, func(ctx context.Context) error {
		target, err := e.store.GetProduct(ctx, targetProductID)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "target product missing")
			}
			return err
		}

		if target.FeaturedImageID != nil {
			oldImages = append(oldImages, *target.FeaturedImageID)
		}
		oldImages = append(oldImages, []int64(target.GalleryImageIDs)...)

		target.Title = snap.product.Title
		target.Description = snap.product.Description
		target.ShortDescription = snap.product.ShortDescription
		target.SKU = snap.product.SKU
		target.Weight = snap.product.Weight
		if snap.product.Slug != "" {
			target.Slug = snap.product.Slug
		}
		_, err = e.store.UpdateProduct(ctx, target)
		return err
	})
	if err != nil {
		return err
	}

	slugMap, err := e.applyTaxonomies(ctx, snap, targetTenantID, targetProductID)
	if err != nil {
		return err
	}

	opts := media.ReplicateOptions{Force: true, ReuseIfFeaturedFor: targetProductID}
	galleryIDs := e.applyImages(ctx, snap, targetTenantID, targetProductID, opts)
	e.applyVideoGallery(ctx, snap, targetTenantID, targetProductID, galleryIDs)
	e.reconcileVariations(ctx, snap, slugMap, targetTenantID, targetProductID)

	now := time.Now().UTC()
	err = e.switcher.RunAs(ctx, targetTenantID, func(ctx context.Context) error {
		if err := e.store.SyncVariableProduct(ctx, targetProductID); err != nil {
			return err
		}
		if err := e.store.RegenerateAttributeLookup(ctx, targetProductID); err != nil {
			return err
		}
		e.cleanupOrphanedImages(ctx, targetProductID, oldImages)
		if err := e.store.SetMeta(ctx, targetProductID, catalog.MetaSourceProduct, backReference(e.sourceTenantID, sourceProductID)); err != nil {
			return err
		}
		return e.store.SetMeta(ctx, targetProductID, catalog.MetaLastSync, now.Format(time.RFC3339))
	})
	if err != nil {
		return err
	}

	if err := e.touchLink(ctx, sourceProductID, targetTenantID, targetProductID, now); err != nil {
		return err
	}

	e.publish(ctx, enums.ActivityActionUpdate, snap.product.Title, sourceProductID, targetTenantID, targetProductID, now)
	return nil
}

func (e *engine) validateTarget(targetTenantID int64) error {
	if targetTenantID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "target tenant id required")
	}
	if targetTenantID == e.sourceTenantID {
		return pkgerrors.New(pkgerrors.CodeValidation, "target tenant must differ from source")
	}
	return nil
}

// ensureUnlinked rejects a second create for the same (product, target) pair
// while the earlier target product still exists. A stale link whose target
// vanished is dropped so the create can proceed.
func (e *engine) ensureUnlinked(ctx context.Context, sourceProductID, targetTenantID int64) error {
	link, err := e.links.GetLink(ctx, e.sourceTenantID, sourceProductID, targetTenantID)
	if err != nil {
		return err
	}
	if link == nil {
		return nil
	}

	var targetExists bool
	err = e.switcher.RunAs(ctx, targetTenantID, func(ctx context.Context) error {
		_, err := e.store.GetProduct(ctx, link.TargetProductID)
		if err == nil {
			targetExists = true
			return nil
		}
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	if targetExists {
		return pkgerrors.New(pkgerrors.CodeConflict, "product already replicated to target tenant")
	}
	return e.links.DeleteLink(ctx, link.ID)
}

func (e *engine) snapshotSource(ctx context.Context, sourceProductID int64) (*snapshot, error) {
	var snap *snapshot
	err := e.switcher.RunAs(ctx, e.sourceTenantID, func(ctx context.Context) error {
		var err error
		snap, err = e.takeSnapshot(ctx, sourceProductID)
		if err != nil {
			return err
		}
		return snap.requireVariable()
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// availableSlug probes for a free slug, suffixing -2, -3, ... on collision.
func (e *engine) availableSlug(ctx context.Context, slug string, excludeID int64) (string, error) {
	candidate := slug
	for attempt := 2; attempt <= 50; attempt++ {
		taken, err := e.store.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", slug, attempt)
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "no available slug for replicated product")
}

// applyTaxonomies translates categories and attributes onto the target
// product, persisting attributes in both the structured set and the
// attribute-table rows.
func (e *engine) applyTaxonomies(ctx context.Context, snap *snapshot, targetTenantID, targetProductID int64) (taxonomy.SlugMap, error) {
	categoryIDs, err := e.translator.TranslateCategories(ctx, snap.terms, e.sourceTenantID, targetTenantID)
	if err != nil {
		return nil, err
	}
	translated, slugMap, err := e.translator.TranslateAttributes(ctx, snap.attrs, e.sourceTenantID, targetTenantID)
	if err != nil {
		return nil, err
	}

	err = e.switcher.RunAs(ctx, targetTenantID, func(ctx context.Context) error {
		if err := e.store.ReplaceProductTerms(ctx, targetProductID, categoryIDs); err != nil {
			return err
		}
		rows := make([]models.ProductAttribute, 0, len(translated))
		for _, attr := range translated {
			rows = append(rows, attr.ToModel(targetTenantID, targetProductID))
		}
		return e.store.ReplaceAttributes(ctx, targetProductID, rows)
	})
	if err != nil {
		return nil, err
	}
	return slugMap, nil
}

// applyImages replicates the featured image and gallery, writing both image
// representations on the target. The gallery is replaced, never merged: a
// source without a featured image or gallery clears the target's. Failed
// images log and skip. Returns the ids of the replicated gallery images, in
// source order.
func (e *engine) applyImages(ctx context.Context, snap *snapshot, targetTenantID, targetProductID int64, opts media.ReplicateOptions) []int64 {
	if snap.featuredID == nil {
		clearErr := e.switcher.RunAs(ctx, targetTenantID, func(ctx context.Context) error {
			return e.store.SetFeaturedImage(ctx, targetProductID, nil)
		})
		if clearErr != nil {
			e.logg.Warn(ctx, "failed to clear featured image")
		}
	} else {
		replicated, err := e.media.Replicate(ctx, *snap.featuredID, e.sourceTenantID, targetTenantID, opts)
		if err != nil {
			e.logg.Warn(e.logg.WithField(ctx, "attachment_id", *snap.featuredID), "skipping failed featured image")
		} else {
			setErr := e.switcher.RunAs(ctx, targetTenantID, func(ctx context.Context) error {
				return e.store.SetFeaturedImage(ctx, targetProductID, &replicated.ID)
			})
			if setErr != nil {
				e.logg.Warn(ctx, "failed to link featured image")
			}
		}
	}

	if len(snap.galleryIDs) == 0 {
		clearErr := e.switcher.RunAs(ctx, targetTenantID, func(ctx context.Context) error {
			return e.store.SetGallery(ctx, targetProductID, nil)
		})
		if clearErr != nil {
			e.logg.Warn(ctx, "failed to clear gallery")
		}
		return nil
	}
	replicas, err := e.media.ReplicateMany(ctx, snap.galleryIDs, e.sourceTenantID, targetTenantID, opts)
	if err != nil {
		e.logg.Warn(ctx, "gallery replication failed")
		return nil
	}
	galleryIDs := make([]int64, 0, len(replicas))
	for _, replica := range replicas {
		galleryIDs = append(galleryIDs, replica.Attachment.ID)
	}
	setErr := e.switcher.RunAs(ctx, targetTenantID, func(ctx context.Context) error {
		return e.store.SetGallery(ctx, targetProductID, galleryIDs)
	})
	if setErr != nil {
		e.logg.Warn(ctx, "failed to link gallery images")
	}
	return galleryIDs
}

func (e *engine) applyVideoGallery(ctx context.Context, snap *snapshot, targetTenantID, targetProductID int64, galleryIDs []int64) {
	gallery := videoGalleryFor(snap.product.VideoGallery, galleryIDs)
	if gallery == nil {
		return
	}
	err := e.switcher.RunAs(ctx, targetTenantID, func(ctx context.Context) error {
		target, err := e.store.GetProduct(ctx, targetProductID)
		if err != nil {
			return err
		}
		target.VideoGallery = gallery
		_, err = e.store.UpdateProduct(ctx, target)
		return err
	})
	if err != nil {
		e.logg.Warn(ctx, "failed to write video gallery")
	}
}

func (e *engine) createVariations(ctx context.Context, snap *snapshot, slugMap taxonomy.SlugMap, targetTenantID, targetProductID int64) {
	kinds := attributeKinds(snap.attrs)
	err := e.switcher.RunAs(ctx, targetTenantID, func(ctx context.Context) error {
		for _, source := range snap.variations {
			variation := &models.Variation{
				ProductID:      targetProductID,
				SKU:            source.SKU,
				GTIN:           source.GTIN,
				Status:         source.Status,
				RegularPrice:   source.RegularPrice,
				SalePrice:      source.SalePrice,
				SaleStartAt:    source.SaleStartAt,
				SaleEndAt:      source.SaleEndAt,
				StockStatus:    source.StockStatus,
				Backorders:     source.Backorders,
				ManageStock:    source.ManageStock,
				StockQuantity:  source.StockQuantity,
				LowStockAmount: source.LowStockAmount,
				Assignments:    rewriteAssignments(source.Assignments, kinds, slugMap),
			}
			if _, err := e.store.CreateVariation(ctx, variation); err != nil {
				e.logg.Warn(e.logg.WithField(ctx, "variation_id", source.ID), "skipping failed variation")
			}
		}
		return nil
	})
	if err != nil {
		e.logg.Warn(ctx, "variation replication aborted")
	}
}

// reconcileVariations refreshes target variations matched by the attribute
// assignment natural key. Unmatched source variations are skipped, never
// created.
func (e *engine) reconcileVariations(ctx context.Context, snap *snapshot, slugMap taxonomy.SlugMap, targetTenantID, targetProductID int64) {
	kinds := attributeKinds(snap.attrs)
	err := e.switcher.RunAs(ctx, targetTenantID, func(ctx context.Context) error {
		existing, err := e.store.ListVariations(ctx, targetProductID)
		if err != nil {
			return err
		}
		byKey := make(map[string]*models.Variation, len(existing))
		for i := range existing {
			byKey[existing[i].Assignments.Key()] = &existing[i]
		}

		for _, source := range snap.variations {
			key := rewriteAssignments(source.Assignments, kinds, slugMap).Key()
			target, ok := byKey[key]
			if !ok {
				e.logg.Warn(e.logg.WithField(ctx, "variation_id", source.ID), "no target variation matches assignment key")
				continue
			}
			target.RegularPrice = source.RegularPrice
			target.SalePrice = source.SalePrice
			target.SaleStartAt = source.SaleStartAt
			target.SaleEndAt = source.SaleEndAt
			target.StockStatus = source.StockStatus
			target.Backorders = source.Backorders
			target.ManageStock = source.ManageStock
			target.StockQuantity = source.StockQuantity
			target.LowStockAmount = source.LowStockAmount
			target.GTIN = source.GTIN
			if _, err := e.store.UpdateVariation(ctx, target); err != nil {
				e.logg.Warn(e.logg.WithField(ctx, "variation_id", target.ID), "skipping failed variation refresh")
			}
		}
		return nil
	})
	if err != nil {
		e.logg.Warn(ctx, "variation reconciliation aborted")
	}
}

// cleanupOrphanedImages removes previously attached images no longer
// referenced by the updated product or any other product on the tenant.
// Best effort: failures log, never abort the update.
func (e *engine) cleanupOrphanedImages(ctx context.Context, targetProductID int64, oldImages []int64) {
	if len(oldImages) == 0 {
		return
	}
	current, err := e.store.GetProduct(ctx, targetProductID)
	if err != nil {
		e.logg.Warn(ctx, "skipping image cleanup, cannot reload product")
		return
	}
	live := make(map[int64]struct{})
	if current.FeaturedImageID != nil {
		live[*current.FeaturedImageID] = struct{}{}
	}
	for _, id := range current.GalleryImageIDs {
		live[id] = struct{}{}
	}

	var cleanupErr error
	seen := make(map[int64]struct{}, len(oldImages))
	for _, imageID := range oldImages {
		if _, dup := seen[imageID]; dup {
			continue
		}
		seen[imageID] = struct{}{}
		if _, stillLive := live[imageID]; stillLive {
			continue
		}
		refs, err := e.store.FindProductsReferencingImage(ctx, imageID, targetProductID)
		if err != nil {
			cleanupErr = multierr.Append(cleanupErr, err)
			continue
		}
		if len(refs) > 0 {
			continue
		}
		if err := e.media.Remove(ctx, imageID); err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			cleanupErr = multierr.Append(cleanupErr, err)
		}
	}
	if cleanupErr != nil {
		e.logg.Error(ctx, "orphaned image cleanup incomplete", cleanupErr)
	}
}

func (e *engine) touchLink(ctx context.Context, sourceProductID, targetTenantID, targetProductID int64, syncedAt time.Time) error {
	link, err := e.links.GetLink(ctx, e.sourceTenantID, sourceProductID, targetTenantID)
	if err != nil {
		return err
	}
	if link == nil {
		_, err := e.links.CreateLink(ctx, &models.SyncLink{
			SourceTenantID:  e.sourceTenantID,
			SourceProductID: sourceProductID,
			TargetTenantID:  targetTenantID,
			TargetProductID: targetProductID,
			LastSyncedAt:    &syncedAt,
		})
		return err
	}
	return e.links.TouchLink(ctx, link.ID, syncedAt)
}

func (e *engine) publish(ctx context.Context, action enums.ActivityAction, title string, sourceProductID, targetTenantID, targetProductID int64, at time.Time) {
	event := events.ProductEvent{
		Action:          action,
		SourceTenantID:  e.sourceTenantID,
		SourceProductID: sourceProductID,
		TargetTenantID:  targetTenantID,
		TargetProductID: targetProductID,
		ProductTitle:    title,
		OccurredAt:      at,
	}
	if actor, ok := auth.ActorFromContext(ctx); ok {
		event.ActorID = actor.ID
		event.ActorEmail = actor.Email
	}
	e.bus.Publish(ctx, event)
}

func backReference(tenantID, productID int64) string {
	return strconv.FormatInt(tenantID, 10) + ":" + strconv.FormatInt(productID, 10)
}
