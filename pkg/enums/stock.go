package enums

import "fmt"

// StockStatus describes the allowed values for stock_status on products and variations.
type StockStatus string

const (
	StockStatusInStock     StockStatus = "instock"
	StockStatusOutOfStock  StockStatus = "outofstock"
	StockStatusOnBackorder StockStatus = "onbackorder"
)

var validStockStatuses = []StockStatus{
	StockStatusInStock,
	StockStatusOutOfStock,
	StockStatusOnBackorder,
}

// IsValid reports whether the value matches the canonical stock status enum.
func (s StockStatus) IsValid() bool {
	for _, candidate := range validStockStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockStatus converts the raw string to StockStatus.
func ParseStockStatus(value string) (StockStatus, error) {
	for _, candidate := range validStockStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock status %q", value)
}

// BackorderPolicy describes whether a product accepts orders past available stock.
type BackorderPolicy string

const (
	BackorderPolicyNo     BackorderPolicy = "no"
	BackorderPolicyNotify BackorderPolicy = "notify"
	BackorderPolicyYes    BackorderPolicy = "yes"
)

var validBackorderPolicies = []BackorderPolicy{
	BackorderPolicyNo,
	BackorderPolicyNotify,
	BackorderPolicyYes,
}

// IsValid reports whether the value is a known BackorderPolicy.
func (b BackorderPolicy) IsValid() bool {
	for _, candidate := range validBackorderPolicies {
		if candidate == b {
			return true
		}
	}
	return false
}
