package parking

import (
	"github.com/smallbiznis/parkpro/internal/parking/liveevents"
	"github.com/smallbiznis/parkpro/internal/parking/repository"
	"github.com/smallbiznis/parkpro/internal/parking/service"
	"go.uber.org/fx"
)

var Module = fx.Module("parking.service",
	liveevents.Module,
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
