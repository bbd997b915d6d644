package user

import (
	"github.com/sitescope/sitescope/internal/user/repository"
	"github.com/sitescope/sitescope/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
