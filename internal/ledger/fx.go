package ledger

import (
	"github.com/sitescope/sitescope/internal/ledger/repository"
	"github.com/sitescope/sitescope/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
