package scan

import (
	"github.com/sitescope/sitescope/internal/scan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("scan.service",
	fx.Provide(service.NewNoopAnalyzer),
	fx.Provide(service.New),
)
