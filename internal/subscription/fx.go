package subscription

import (
	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
	"github.com/railzwaylabs/subscribe/internal/subscription/repository"
	"github.com/railzwaylabs/subscribe/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Provide(func(c *service.Coordinator) subscriptiondomain.Submitter { return c }),
)
