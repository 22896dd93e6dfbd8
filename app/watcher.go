package app

import (
	"context"
	"net/http"

	"github.com/fiffu/seatwatch/config"
	"github.com/fiffu/seatwatch/lib/catalog"
	"github.com/fiffu/seatwatch/lib/store"
	"github.com/fiffu/seatwatch/lib/watcher"
	"github.com/fiffu/seatwatch/senders"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewWatcherMetrics(reg *prometheus.Registry) *watcher.Metrics {
	return watcher.NewMetrics(reg)
}

func NewFetcher(cfg *config.Config, log *zap.Logger, transport http.RoundTripper) *catalog.Fetcher {
	return catalog.NewFetcher(log, transport, catalog.FetcherOptions{
		BaseURL:  cfg.Catalog.URL,
		TermID:   cfg.Catalog.TermID,
		Timeout:  cfg.CatalogTimeout(),
		Attempts: cfg.Catalog.FetchAttempts,
	})
}

func NewNotifier(cfg *config.Config, log *zap.Logger, sender senders.Sender) *watcher.Notifier {
	return watcher.NewNotifier(log, sender, cfg.MailTimeout())
}

func NewWatcher(
	cfg *config.Config, log *zap.Logger, st *store.Store,
	fetcher *catalog.Fetcher, notifier *watcher.Notifier, metrics *watcher.Metrics,
) (*watcher.Watcher, error) {
	trigger, err := watcher.ParseTrigger(cfg.Scraper.NotifyTrigger)
	if err != nil {
		return nil, err
	}
	return watcher.New(
		log, st, st,
		fetcher, catalog.NewExtractor(log),
		watcher.NewMatcher(trigger), notifier, metrics,
	), nil
}

func NewScheduler(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, w *watcher.Watcher, metrics *watcher.Metrics) (*watcher.Scheduler, error) {
	window, err := watcher.ParseWindow(cfg.Scraper.StartTime, cfg.Scraper.EndTime, cfg.Scraper.Timezone)
	if err != nil {
		return nil, err
	}
	scheduler := watcher.NewScheduler(log, window, cfg.Interval(), w, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				scheduler.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			log.Sugar().Info("Trying to stop scheduler")
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
	return scheduler, nil
}
