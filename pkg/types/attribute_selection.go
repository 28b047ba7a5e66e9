package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// AttributeSelection maps an attribute name to the option value a variation
// is pinned to. "Any" selections are stored as empty strings.
type AttributeSelection map[string]string

// Value marshals the selection into jsonb.
func (s AttributeSelection) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

// Scan decodes the jsonb payload.
func (s *AttributeSelection) Scan(value interface{}) error {
	if value == nil {
		*s = AttributeSelection{}
		return nil
	}
	raw, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("attribute selection: %w", err)
	}
	return json.Unmarshal(raw, s)
}

// Key builds the order-independent identity of a variation: each name:value
// pair sorted by name and joined with "|". Two variations with the same
// selection produce the same key regardless of map iteration order.
func (s AttributeSelection) Key() string {
	if len(s) == 0 {
		return ""
	}
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+":"+s[name])
	}
	return strings.Join(pairs, "|")
}
