package enums

import "fmt"

// ProductKind describes the allowed values for the `kind` column in products.
type ProductKind string

const (
	ProductKindSimple   ProductKind = "simple"
	ProductKindVariable ProductKind = "variable"
)

var validProductKinds = []ProductKind{
	ProductKindSimple,
	ProductKindVariable,
}

// IsValid reports whether the value matches the canonical product kind enum.
func (p ProductKind) IsValid() bool {
	for _, candidate := range validProductKinds {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductKind converts the raw string to ProductKind.
func ParseProductKind(value string) (ProductKind, error) {
	for _, candidate := range validProductKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product kind %q", value)
}

// ProductStatus is the publish state carried over when a product is replicated.
type ProductStatus string

const (
	ProductStatusDraft   ProductStatus = "draft"
	ProductStatusPublish ProductStatus = "publish"
	ProductStatusPending ProductStatus = "pending"
	ProductStatusPrivate ProductStatus = "private"
)

var validProductStatuses = []ProductStatus{
	ProductStatusDraft,
	ProductStatusPublish,
	ProductStatusPending,
	ProductStatusPrivate,
}

// IsValid reports whether the value is a known ProductStatus.
func (p ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}
