package observability

import (
	"context"

	"github.com/railzwaylabs/subscribe/internal/config"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Module = fx.Module("observability",
	fx.Provide(
		NewLogger,
		NewRegistry,
		NewMetrics,
		NewTracerProvider,
	),
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
	fx.Invoke(func(lc fx.Lifecycle, log *zap.Logger) {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				_ = log.Sync()
				return nil
			},
		})
	}),
)

func NewLogger(cfg config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	log, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return log.With(zap.String("env", cfg.Environment)), nil
}
