package pricing

import (
	"github.com/smallbiznis/parkpro/internal/pricing/repository"
	"github.com/smallbiznis/parkpro/internal/pricing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
