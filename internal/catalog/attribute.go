package catalog

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/nmoreau/storesync-backend/pkg/db/models"
	"github.com/nmoreau/storesync-backend/pkg/enums"
)

// optionSeparator joins custom attribute literals inside the options column.
const optionSeparator = " | "

// Attribute is the tagged domain view of one product attribute row. Taxonomy
// attributes resolve through term rows; custom attributes carry literals.
type Attribute struct {
	Name      string
	Kind      enums.AttributeKind
	Options   []string
	TermIDs   []int64
	Position  int
	Visible   bool
	Variation bool
}

// JoinOptions renders literals the way the options column stores them.
func JoinOptions(options []string) string {
	return strings.Join(options, optionSeparator)
}

// SplitOptions parses the options column back into literals.
func SplitOptions(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, optionSeparator)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

// FromModel converts a persisted attribute row to the domain view.
func FromModel(row models.ProductAttribute) Attribute {
	attr := Attribute{
		Name:      row.Name,
		Kind:      row.Kind,
		TermIDs:   row.TermIDs,
		Position:  row.Position,
		Visible:   row.IsVisible,
		Variation: row.UsedForVariations,
	}
	if row.Kind == enums.AttributeKindCustom {
		attr.Options = SplitOptions(row.Options)
	}
	return attr
}

// ToModel converts the domain view to a persisted row for the given product.
func (a Attribute) ToModel(tenantID, productID int64) models.ProductAttribute {
	row := models.ProductAttribute{
		TenantID:          tenantID,
		ProductID:         productID,
		Name:              a.Name,
		Kind:              a.Kind,
		TermIDs:           a.TermIDs,
		Position:          a.Position,
		IsVisible:         a.Visible,
		UsedForVariations: a.Variation,
	}
	if a.Kind == enums.AttributeKindCustom {
		row.Options = JoinOptions(a.Options)
	}
	return row
}

type attributeLookupEntry struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Value     string `json:"value"`
	Position  int    `json:"position"`
	Visible   bool   `json:"is_visible"`
	Variation bool   `json:"is_variation"`
}

// BuildAttributeLookup renders the derived lookup value stored under the
// product's attribute meta key. Taxonomy attributes keep an empty value;
// custom attributes keep their pipe-joined literals.
func BuildAttributeLookup(rows []models.ProductAttribute) (string, error) {
	entries := make([]attributeLookupEntry, 0, len(rows))
	for _, row := range rows {
		value := ""
		if row.Kind == enums.AttributeKindCustom {
			value = row.Options
		}
		entries = append(entries, attributeLookupEntry{
			Name:      row.Name,
			Kind:      string(row.Kind),
			Value:     value,
			Position:  row.Position,
			Visible:   row.IsVisible,
			Variation: row.UsedForVariations,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Position < entries[j].Position
	})
	raw, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
