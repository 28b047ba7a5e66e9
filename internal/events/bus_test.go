package events

import (
	"context"
	"testing"

	"github.com/nmoreau/storesync-backend/pkg/enums"
)

func TestPublishDeliversInOrder(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var order []string
	bus.Subscribe(func(ctx context.Context, event ProductEvent) {
		order = append(order, "first")
	})
	bus.Subscribe(func(ctx context.Context, event ProductEvent) {
		order = append(order, "second")
	})

	bus.Publish(context.Background(), ProductEvent{Action: enums.ActivityActionCreate})
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("unexpected delivery order: %v", order)
	}
}

func TestPublishStampsOccurredAt(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var seen ProductEvent
	bus.Subscribe(func(ctx context.Context, event ProductEvent) {
		seen = event
	})

	bus.Publish(context.Background(), ProductEvent{Action: enums.ActivityActionUpdate})
	if seen.OccurredAt.IsZero() {
		t.Fatal("occurred-at not stamped")
	}
}

func TestSubscribeIgnoresNilHandler(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	bus.Subscribe(nil)
	bus.Publish(context.Background(), ProductEvent{})
}
