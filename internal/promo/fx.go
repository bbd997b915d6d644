package promo

import (
	"github.com/sitescope/sitescope/internal/promo/repository"
	"github.com/sitescope/sitescope/internal/promo/service"
	"go.uber.org/fx"
)

var Module = fx.Module("promo.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
