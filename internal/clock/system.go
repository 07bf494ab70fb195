package clock

import (
	"context"
	"time"

	"go.uber.org/fx"
)

var Module = fx.Module("clock",
	fx.Provide(func() Clock { return SystemClock{} }),
)

type SystemClock struct{}

func (SystemClock) Now(ctx context.Context) time.Time {
	if t, ok := fromContext(ctx); ok {
		return t
	}
	return time.Now().UTC()
}
