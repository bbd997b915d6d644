package subscription

import (
	"github.com/sitescope/sitescope/internal/subscription/repository"
	"github.com/sitescope/sitescope/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
