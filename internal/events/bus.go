package events

import (
	"context"
	"sync"
	"time"

	"github.com/nmoreau/storesync-backend/pkg/enums"
)

// ProductEvent announces one completed replication operation.
type ProductEvent struct {
	Action          enums.ActivityAction
	SourceTenantID  int64
	SourceProductID int64
	TargetTenantID  int64
	TargetProductID int64
	ProductTitle    string
	ActorID         int64
	ActorEmail      string
	OccurredAt      time.Time
}

// Handler consumes one event. Handlers run synchronously on the publishing
// goroutine, in subscription order.
type Handler func(ctx context.Context, event ProductEvent)

// Bus is an in-process synchronous dispatcher for replication events.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish delivers the event to every subscriber before returning. A zero
// OccurredAt is stamped with the current time.
func (b *Bus) Publish(ctx context.Context, event ProductEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(ctx, event)
	}
}
