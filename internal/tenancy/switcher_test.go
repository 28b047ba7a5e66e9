package tenancy

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/nmoreau/storesync-backend/pkg/logger"
)

func newTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "tenancy-test", Level: zerolog.Disabled})
}

func TestRunAsScopesCallback(t *testing.T) {
	t.Parallel()

	switcher, err := NewSwitcher(newTestLogger())
	if err != nil {
		t.Fatalf("new switcher: %v", err)
	}

	base := With(context.Background(), 1)
	var seen int64
	if err := switcher.RunAs(base, 4, func(ctx context.Context) error {
		seen, _ = Current(ctx)
		return nil
	}); err != nil {
		t.Fatalf("run as: %v", err)
	}
	if seen != 4 {
		t.Fatalf("callback saw tenant %d, want 4", seen)
	}
	if id, _ := Current(base); id != 1 {
		t.Fatalf("caller context changed, got %d", id)
	}
}

func TestRunAsNests(t *testing.T) {
	t.Parallel()

	switcher, _ := NewSwitcher(newTestLogger())
	base := With(context.Background(), 1)

	var inner int64
	var innerDepth int
	err := switcher.RunAs(base, 2, func(ctx context.Context) error {
		return switcher.RunAs(ctx, 3, func(ctx context.Context) error {
			inner, _ = Current(ctx)
			innerDepth = Depth(ctx)
			return nil
		})
	})
	if err != nil {
		t.Fatalf("nested run as: %v", err)
	}
	if inner != 3 || innerDepth != 3 {
		t.Fatalf("expected tenant 3 at depth 3, got %d at %d", inner, innerDepth)
	}
}

func TestRunAsRestoresAfterPanic(t *testing.T) {
	t.Parallel()

	switcher, _ := NewSwitcher(newTestLogger())
	base := With(context.Background(), 1)

	func() {
		defer func() { _ = recover() }()
		_ = switcher.RunAs(base, 9, func(ctx context.Context) error {
			panic("boom")
		})
	}()

	if id, _ := Current(base); id != 1 {
		t.Fatalf("expected tenant 1 after panic, got %d", id)
	}
}

func TestRunAsPropagatesError(t *testing.T) {
	t.Parallel()

	switcher, _ := NewSwitcher(newTestLogger())
	want := errors.New("copy failed")
	got := switcher.RunAs(context.Background(), 2, func(ctx context.Context) error {
		return want
	})
	if !errors.Is(got, want) {
		t.Fatalf("expected callback error, got %v", got)
	}
}

func TestRunAsRejectsBadInput(t *testing.T) {
	t.Parallel()

	switcher, _ := NewSwitcher(newTestLogger())
	if err := switcher.RunAs(context.Background(), 0, func(ctx context.Context) error { return nil }); err == nil {
		t.Fatal("expected error for non-positive tenant id")
	}
	if err := switcher.RunAs(context.Background(), 1, nil); err == nil {
		t.Fatal("expected error for nil callback")
	}
}
