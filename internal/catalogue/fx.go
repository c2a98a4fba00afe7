package catalogue

import (
	"github.com/perkhub/perkstore/internal/catalogue/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalogue.service",
	fx.Provide(service.NewService),
)
