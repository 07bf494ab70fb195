package clock

import (
	"context"
	"time"
)

type Clock interface {
	Now(ctx context.Context) time.Time
}

type nowKey struct{}

// WithNow pins the clock for everything downstream of ctx. Used by the
// anchor preview endpoint and by tests.
func WithNow(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, nowKey{}, t)
}

func fromContext(ctx context.Context) (time.Time, bool) {
	if ctx == nil {
		return time.Time{}, false
	}
	t, ok := ctx.Value(nowKey{}).(time.Time)
	return t, ok
}
