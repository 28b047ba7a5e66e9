package auth

import (
	"context"

	"github.com/nmoreau/storesync-backend/pkg/enums"
)

// Actor is the authenticated identity carried on the request context.
type Actor struct {
	ID    int64
	Email string
	Role  enums.ActorRole
}

type actorCtxKey struct{}

// WithActor attaches the authenticated actor to the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, actor)
}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorCtxKey{}).(Actor)
	return actor, ok
}
