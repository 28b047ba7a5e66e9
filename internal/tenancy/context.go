package tenancy

import "context"

type ctxKey struct{}

// frame is one entry of the tenant stack carried on the context. Nested
// switches push frames; leaving a switch is just dropping back to the parent
// context, so the stack can never be left unbalanced.
type frame struct {
	tenantID int64
	parent   *frame
}

// With returns a context scoped to tenantID, pushed on top of any tenant the
// context is already scoped to.
func With(ctx context.Context, tenantID int64) context.Context {
	parent, _ := ctx.Value(ctxKey{}).(*frame)
	return context.WithValue(ctx, ctxKey{}, &frame{tenantID: tenantID, parent: parent})
}

// Current returns the tenant the context is scoped to.
func Current(ctx context.Context) (int64, bool) {
	if f, ok := ctx.Value(ctxKey{}).(*frame); ok {
		return f.tenantID, true
	}
	return 0, false
}

// Depth reports how many tenant switches are active on the context.
func Depth(ctx context.Context) int {
	depth := 0
	for f, _ := ctx.Value(ctxKey{}).(*frame); f != nil; f = f.parent {
		depth++
	}
	return depth
}

// Switched reports whether the context is scoped to a tenant other than the
// one it started from.
func Switched(ctx context.Context) bool {
	f, ok := ctx.Value(ctxKey{}).(*frame)
	if !ok || f.parent == nil {
		return false
	}
	return f.tenantID != rootTenant(f)
}

func rootTenant(f *frame) int64 {
	for f.parent != nil {
		f = f.parent
	}
	return f.tenantID
}
