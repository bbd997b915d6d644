package payment

import (
	"github.com/sitescope/sitescope/internal/payment/repository"
	"github.com/sitescope/sitescope/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
