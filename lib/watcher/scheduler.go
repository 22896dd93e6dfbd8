package watcher

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const MinInterval = time.Minute

type CycleRunner interface {
	RunCycle(ctx context.Context)
}

type Scheduler struct {
	log      *zap.Logger
	window   *Window
	interval time.Duration
	runner   CycleRunner
	metrics  *Metrics

	ticks func(ctx context.Context) <-chan time.Time
}

func NewScheduler(log *zap.Logger, window *Window, interval time.Duration, runner CycleRunner, metrics *Metrics) *Scheduler {
	if interval < MinInterval {
		interval = MinInterval
	}
	s := &Scheduler{log: log, window: window, interval: interval, runner: runner, metrics: metrics}
	s.ticks = s.tickerWithImmediateTick
	return s
}

// Run ticks until ctx is cancelled. A tick that arrives while a cycle is still running is
// dropped by the ticker, so cycles never overlap.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Sugar().Infow("Scheduler started", "interval", s.interval.String(), "window", s.window.String())
	ticks := s.ticks(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Sugar().Info("Scheduler stopped")
			return

		case t, ok := <-ticks:
			if !ok {
				return
			}
			s.Tick(ctx, t)
		}
	}
}

// Tick runs one cycle if t is inside the window. It reports whether a cycle ran.
func (s *Scheduler) Tick(ctx context.Context, t time.Time) (ran bool) {
	if !s.window.Contains(t) {
		s.metrics.cycles.WithLabelValues("skipped").Inc()
		s.log.Sugar().Debugw("Outside scraping window", "local_time", t.In(s.window.Location()).Format(time.Kitchen))
		return false
	}

	ran = true
	s.metrics.cycles.WithLabelValues("ran").Inc()
	defer func() {
		if r := recover(); r != nil {
			s.log.Sugar().Errorw("Cycle panicked", "panic", r)
		}
	}()
	s.runner.RunCycle(ctx)
	return ran
}

func (s *Scheduler) tickerWithImmediateTick(ctx context.Context) <-chan time.Time {
	c := make(chan time.Time, 1)
	c <- time.Now()

	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				select {
				case c <- t:
				default:
				}
			}
		}
	}()
	return c
}
