package enums

import "fmt"

// BulkKind describes the allowed values for the `kind` field of a bulk operation.
type BulkKind string

const (
	BulkKindCopy   BulkKind = "copy"
	BulkKindUpdate BulkKind = "update"
)

var validBulkKinds = []BulkKind{
	BulkKindCopy,
	BulkKindUpdate,
}

// IsValid reports whether the value matches the canonical bulk kind enum.
func (b BulkKind) IsValid() bool {
	for _, candidate := range validBulkKinds {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBulkKind converts the raw string to BulkKind.
func ParseBulkKind(value string) (BulkKind, error) {
	for _, candidate := range validBulkKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bulk kind %q", value)
}

// BulkStatus describes the lifecycle state of a bulk operation.
type BulkStatus string

const (
	BulkStatusPending  BulkStatus = "pending"
	BulkStatusComplete BulkStatus = "complete"
)

var validBulkStatuses = []BulkStatus{
	BulkStatusPending,
	BulkStatusComplete,
}

// IsValid reports whether the value is a known BulkStatus.
func (b BulkStatus) IsValid() bool {
	for _, candidate := range validBulkStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}
