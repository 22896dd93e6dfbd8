package watcher

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fiffu/seatwatch/lib/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingRunner struct {
	runs  atomic.Int32
	panic bool
}

func (r *countingRunner) RunCycle(ctx context.Context) {
	r.runs.Add(1)
	if r.panic {
		panic("boom")
	}
}

func newTestScheduler(t *testing.T, runner CycleRunner) (*Scheduler, *Metrics) {
	t.Helper()
	window, err := ParseWindow("04:35", "19:35", "US/Pacific")
	require.NoError(t, err)
	metrics := NewMetrics(prometheus.NewRegistry())
	return NewScheduler(zaptest.NewLogger(t), window, time.Hour, runner, metrics), metrics
}

func pacific(t *testing.T, h, m int) time.Time {
	loc, err := time.LoadLocation("US/Pacific")
	require.NoError(t, err)
	return time.Date(2024, 9, 3, h, m, 0, 0, loc)
}

func TestTickOutsideWindowSkips(t *testing.T) {
	runner := &countingRunner{}
	s, metrics := newTestScheduler(t, runner)

	assert.False(t, s.Tick(context.Background(), pacific(t, 23, 0)))
	assert.Zero(t, runner.runs.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cycles.WithLabelValues("skipped")))
}

func TestTickInsideWindowRuns(t *testing.T) {
	runner := &countingRunner{}
	s, metrics := newTestScheduler(t, runner)

	assert.True(t, s.Tick(context.Background(), pacific(t, 10, 0)))
	assert.EqualValues(t, 1, runner.runs.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cycles.WithLabelValues("ran")))
}

func TestTickRecoversPanic(t *testing.T) {
	runner := &countingRunner{panic: true}
	s, _ := newTestScheduler(t, runner)

	assert.NotPanics(t, func() {
		assert.True(t, s.Tick(context.Background(), pacific(t, 10, 0)))
	})
	assert.True(t, s.Tick(context.Background(), pacific(t, 11, 0)))
	assert.EqualValues(t, 2, runner.runs.Load())
}

func TestNewSchedulerClampsInterval(t *testing.T) {
	s, _ := newTestScheduler(t, &countingRunner{})
	assert.Equal(t, time.Hour, s.interval)

	window, err := ParseWindow("00:00", "23:59", "UTC")
	require.NoError(t, err)
	s = NewScheduler(zaptest.NewLogger(t), window, time.Second, &countingRunner{}, NewMetrics(prometheus.NewRegistry()))
	assert.Equal(t, MinInterval, s.interval)
}

func TestRunConsumesTicksUntilCancelled(t *testing.T) {
	runner := &countingRunner{}
	s, metrics := newTestScheduler(t, runner)

	ticks := make(chan time.Time)
	s.ticks = func(context.Context) <-chan time.Time { return ticks }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	ticks <- pacific(t, 3, 0)
	ticks <- pacific(t, 9, 0)
	ticks <- pacific(t, 12, 0)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.EqualValues(t, 2, runner.runs.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cycles.WithLabelValues("skipped")))
}

func TestTickerFiresImmediately(t *testing.T) {
	s, _ := newTestScheduler(t, &countingRunner{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	select {
	case <-s.tickerWithImmediateTick(ctx):
	case <-time.After(time.Second):
		t.Fatal("no immediate tick")
	}
}

func TestTickOutsideWindowDoesNotFetch(t *testing.T) {
	h := newHarness(t, TriggerLevel, pref("a@umd.edu", "CMSC216"))
	h.catalog.sections["CMSC216"] = []models.SectionRecord{section("0102", "B", 5)}
	s, _ := newTestScheduler(t, h.w)

	s.Tick(context.Background(), pacific(t, 2, 0))

	assert.Empty(t, h.catalog.fetches)
	assert.Empty(t, h.notifier.events)
}
