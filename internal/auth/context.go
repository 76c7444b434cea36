// internal/auth/context.go
//
// Request-scoped access to the browser's Controller.  acl.Attach stores it;
// component handlers read it with FromContext.

package auth

import "context"

type ctxKey struct{}

// WithController returns a child context carrying c.
func WithController(ctx context.Context, c *Controller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the Controller stored by WithController, or nil.
func FromContext(ctx context.Context) *Controller {
	c, _ := ctx.Value(ctxKey{}).(*Controller)
	return c
}
