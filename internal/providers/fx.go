package providers

import (
	"github.com/railzwaylabs/subscribe/internal/config"
	plandomain "github.com/railzwaylabs/subscribe/internal/plan/domain"
	"github.com/railzwaylabs/subscribe/internal/providers/lago"
	"github.com/railzwaylabs/subscribe/internal/providers/local"
	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
	"go.uber.org/fx"
)

// Module binds the plan Source and subscription Upserter to the
// configured backend.
func Module(backend string) fx.Option {
	switch backend {
	case config.BackendLago:
		return fx.Module("providers.lago",
			fx.Provide(fx.Annotate(
				lago.New,
				fx.As(new(plandomain.Source)),
				fx.As(new(subscriptiondomain.Upserter)),
			)),
		)
	default:
		return fx.Module("providers.local",
			fx.Provide(fx.Annotate(
				local.New,
				fx.As(new(plandomain.Source)),
				fx.As(new(subscriptiondomain.Upserter)),
			)),
		)
	}
}
