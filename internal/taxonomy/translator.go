package taxonomy

import (
	"context"
	"fmt"

	"github.com/nmoreau/storesync-backend/internal/catalog"
	"github.com/nmoreau/storesync-backend/internal/tenancy"
	"github.com/nmoreau/storesync-backend/pkg/db/models"
	"github.com/nmoreau/storesync-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
	"github.com/nmoreau/storesync-backend/pkg/logger"
)

// TaxonomyProductCategory is the category vocabulary shared by every tenant.
const TaxonomyProductCategory = "product_cat"

// maxParentDepth bounds parent recursion against cyclic term rows.
const maxParentDepth = 10

// SlugMap accumulates taxonomy → source slug → target slug rewrites produced
// while translating attributes. Variation replication consumes it to re-point
// attribute assignments at target vocabulary values.
type SlugMap map[string]map[string]string

// Rewrite maps a source slug to its target counterpart, falling back to the
// source value when no mapping was recorded.
func (m SlugMap) Rewrite(taxonomy, sourceSlug string) string {
	if byTaxonomy, ok := m[taxonomy]; ok {
		if target, ok := byTaxonomy[sourceSlug]; ok {
			return target
		}
	}
	return sourceSlug
}

func (m SlugMap) record(taxonomy, sourceSlug, targetSlug string) {
	if _, ok := m[taxonomy]; !ok {
		m[taxonomy] = map[string]string{}
	}
	m[taxonomy][sourceSlug] = targetSlug
}

// Translator maps tenant-local term identifiers across tenants. Matching is
// always by (taxonomy, slug); numeric ids never travel between tenants.
type Translator interface {
	TranslateCategories(ctx context.Context, sourceProductTerms []models.Term, sourceTenantID, targetTenantID int64) ([]int64, error)
	TranslateAttributes(ctx context.Context, attrs []catalog.Attribute, sourceTenantID, targetTenantID int64) ([]catalog.Attribute, SlugMap, error)
}

type translator struct {
	terms    TermRepository
	switcher *tenancy.Switcher
	logg     *logger.Logger
}

// NewTranslator constructs the reference translator.
func NewTranslator(terms TermRepository, switcher *tenancy.Switcher, logg *logger.Logger) (Translator, error) {
	if terms == nil {
		return nil, fmt.Errorf("term repository required")
	}
	if switcher == nil {
		return nil, fmt.Errorf("tenant switcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &translator{terms: terms, switcher: switcher, logg: logg}, nil
}

// TranslateCategories resolves each source category term to its target-tenant
// equivalent, creating missing terms with their ancestry. A term that cannot
// be resolved is logged and skipped.
func (t *translator) TranslateCategories(ctx context.Context, sourceProductTerms []models.Term, sourceTenantID, targetTenantID int64) ([]int64, error) {
	targetIDs := make([]int64, 0, len(sourceProductTerms))
	for _, term := range sourceProductTerms {
		if term.Taxonomy != TaxonomyProductCategory {
			continue
		}
		resolved, err := t.resolveTerm(ctx, term, sourceTenantID, targetTenantID, 0)
		if err != nil {
			scoped := t.logg.WithFields(ctx, map[string]any{
				"taxonomy": term.Taxonomy,
				"slug":     term.Slug,
			})
			t.logg.Warn(scoped, "skipping untranslatable category term")
			continue
		}
		targetIDs = append(targetIDs, resolved.ID)
	}
	return targetIDs, nil
}

// TranslateAttributes re-points taxonomy attributes at target term ids and
// copies custom attributes verbatim, accumulating slug rewrites along the way.
func (t *translator) TranslateAttributes(ctx context.Context, attrs []catalog.Attribute, sourceTenantID, targetTenantID int64) ([]catalog.Attribute, SlugMap, error) {
	translated := make([]catalog.Attribute, 0, len(attrs))
	slugMap := SlugMap{}

	for _, attr := range attrs {
		if attr.Kind == enums.AttributeKindCustom {
			translated = append(translated, attr)
			continue
		}

		var sourceTerms []models.Term
		err := t.switcher.RunAs(ctx, sourceTenantID, func(ctx context.Context) error {
			var err error
			sourceTerms, err = t.terms.ListTermsByIDs(ctx, attr.TermIDs)
			return err
		})
		if err != nil {
			return nil, nil, err
		}

		targetIDs := make([]int64, 0, len(sourceTerms))
		for _, term := range sourceTerms {
			resolved, err := t.resolveTerm(ctx, term, sourceTenantID, targetTenantID, 0)
			if err != nil {
				scoped := t.logg.WithFields(ctx, map[string]any{
					"taxonomy": term.Taxonomy,
					"slug":     term.Slug,
				})
				t.logg.Warn(scoped, "skipping untranslatable attribute term")
				continue
			}
			targetIDs = append(targetIDs, resolved.ID)
			slugMap.record(term.Taxonomy, term.Slug, resolved.Slug)
		}

		attr.TermIDs = targetIDs
		attr.Options = nil
		translated = append(translated, attr)
	}

	return translated, slugMap, nil
}

// resolveTerm finds or creates the target-tenant equivalent of one source
// term, resolving parents first so created terms keep their hierarchy.
func (t *translator) resolveTerm(ctx context.Context, source models.Term, sourceTenantID, targetTenantID int64, depth int) (*models.Term, error) {
	if depth >= maxParentDepth {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "term hierarchy too deep")
	}

	var resolved *models.Term
	err := t.switcher.RunAs(ctx, targetTenantID, func(ctx context.Context) error {
		existing, err := t.terms.FindBySlug(ctx, source.Taxonomy, source.Slug)
		if err != nil {
			return err
		}
		resolved = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	if resolved != nil {
		return resolved, nil
	}

	var parentID *int64
	if source.ParentID != nil {
		var sourceParent *models.Term
		err := t.switcher.RunAs(ctx, sourceTenantID, func(ctx context.Context) error {
			var err error
			sourceParent, err = t.terms.GetTerm(ctx, *source.ParentID)
			return err
		})
		if err != nil {
			if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return nil, err
			}
			// dangling parent reference, create the term at the root
		} else {
			targetParent, err := t.resolveTerm(ctx, *sourceParent, sourceTenantID, targetTenantID, depth+1)
			if err != nil {
				return nil, err
			}
			parentID = &targetParent.ID
		}
	}

	err = t.switcher.RunAs(ctx, targetTenantID, func(ctx context.Context) error {
		created, err := t.terms.CreateTerm(ctx, &models.Term{
			Taxonomy:    source.Taxonomy,
			Slug:        source.Slug,
			Name:        source.Name,
			Description: source.Description,
			ParentID:    parentID,
		})
		if err != nil {
			return err
		}
		resolved = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}
