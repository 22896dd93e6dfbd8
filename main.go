package main

import (
	"net/http"
	"os"
	"time"

	"github.com/fiffu/seatwatch/app"
	"github.com/fiffu/seatwatch/config"
	"github.com/fiffu/seatwatch/lib/watcher"
	"github.com/fiffu/seatwatch/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func main() {
	fx.New(
		fx.Provide(config.NewConfig),
		fx.Provide(NewLogger),

		fx.Provide(app.NewTransport),
		fx.Provide(senders.NewSenderRegistry),
		fx.Provide(senders.NewSender),

		fx.Provide(app.NewDatabase),
		fx.Provide(app.NewStore),
		fx.Provide(app.NewMetricsRegistry),
		fx.Provide(app.NewWatcherMetrics),
		fx.Provide(app.NewFetcher),
		fx.Provide(app.NewNotifier),
		fx.Provide(app.NewWatcher),
		fx.Provide(app.NewScheduler),
		fx.Provide(app.NewService),
		fx.Provide(app.NewAPI),

		fx.Invoke(func(*http.Server, *watcher.Scheduler) {}),
	).Run()
}
