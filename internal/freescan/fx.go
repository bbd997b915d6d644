package freescan

import (
	"github.com/sitescope/sitescope/internal/freescan/repository"
	"github.com/sitescope/sitescope/internal/freescan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("freescan.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
