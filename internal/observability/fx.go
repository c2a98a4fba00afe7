package observability

import (
	"github.com/perkhub/perkstore/internal/config"
	"github.com/perkhub/perkstore/internal/observability/metrics"
	"github.com/perkhub/perkstore/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const serviceName = "perkstore"

var Module = fx.Module("observability",
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) error {
		_, err := tracing.NewProvider(lc, tracing.Config{
			Enabled:          cfg.Tracing.Enabled,
			ServiceName:      serviceName,
			ServiceVersion:   "dev",
			Environment:      cfg.Environment,
			ExporterEndpoint: cfg.Tracing.ExporterEndpoint,
			ExporterProtocol: cfg.Tracing.ExporterProtocol,
			SamplingRatio:    cfg.Tracing.SamplingRatio,
		}, log)
		return err
	}),
	fx.Provide(func() (*metrics.HTTPMetrics, error) {
		return metrics.NewHTTPMetrics(serviceName)
	}),
)
