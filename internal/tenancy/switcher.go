package tenancy

import (
	"context"
	"fmt"

	"github.com/nmoreau/storesync-backend/pkg/logger"
)

// Switcher runs callbacks scoped to another tenant. The scope lives on the
// derived context, so the caller's tenant is restored the moment RunAs
// returns, panics included.
type Switcher struct {
	logg *logger.Logger
}

// NewSwitcher constructs a tenant switcher.
func NewSwitcher(logg *logger.Logger) (*Switcher, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Switcher{logg: logg}, nil
}

// RunAs executes fn with the context scoped to tenantID. Switches nest:
// fn may itself call RunAs, and each level unwinds independently.
func (s *Switcher) RunAs(ctx context.Context, tenantID int64, fn func(ctx context.Context) error) error {
	if tenantID <= 0 {
		return fmt.Errorf("tenant id must be positive")
	}
	if fn == nil {
		return fmt.Errorf("callback required")
	}

	scoped := With(ctx, tenantID)
	scoped = s.logg.WithTenantID(scoped, tenantID)
	if Depth(scoped) > 1 {
		s.logg.Debug(scoped, "nested tenant switch")
	}
	return fn(scoped)
}
