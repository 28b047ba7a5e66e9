package enums

import "fmt"

// AttributeKind distinguishes network-wide taxonomy attributes from
// per-product custom attributes.
type AttributeKind string

const (
	AttributeKindTaxonomy AttributeKind = "taxonomy"
	AttributeKindCustom   AttributeKind = "custom"
)

var validAttributeKinds = []AttributeKind{
	AttributeKindTaxonomy,
	AttributeKindCustom,
}

// IsValid reports whether the value matches the canonical attribute kind enum.
func (a AttributeKind) IsValid() bool {
	for _, candidate := range validAttributeKinds {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAttributeKind converts the raw string to AttributeKind.
func ParseAttributeKind(value string) (AttributeKind, error) {
	for _, candidate := range validAttributeKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid attribute kind %q", value)
}
