package session

import "context"

// Storage keys shared with the browser.
const (
	TokenKey    = "token"
	DeviceIDKey = "deviceId"
)

// Context is the per-request session handed to handlers in place of ad hoc
// reads from browser storage.
type Context struct {
	Token    string
	DeviceID string
	Claims   *Claims
}

func (c *Context) Plan() Plan {
	if c == nil || c.Claims == nil {
		return PlanUnset
	}
	return c.Claims.Plan
}

type contextKey struct{}

func WithContext(ctx context.Context, sc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, sc)
}

// FromContext returns nil when no session middleware ran.
func FromContext(ctx context.Context) *Context {
	sc, _ := ctx.Value(contextKey{}).(*Context)
	return sc
}
