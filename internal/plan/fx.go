package plan

import (
	"github.com/railzwaylabs/subscribe/internal/plan/repository"
	"github.com/railzwaylabs/subscribe/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

// CreatorModule needs a database and is only wired for the local backend.
var CreatorModule = fx.Module("plan.creator",
	fx.Provide(service.NewCreator),
)
