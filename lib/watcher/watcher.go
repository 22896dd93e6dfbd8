// Package watcher runs the poll, match and notify cycle over active preferences.
package watcher

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/fiffu/seatwatch/lib/catalog"
	"github.com/fiffu/seatwatch/lib/models"
	"github.com/fiffu/seatwatch/lib/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PageFetcher interface {
	Fetch(ctx context.Context, courseID string) (*catalog.PageContent, error)
}

type SectionExtractor interface {
	Extract(page *catalog.PageContent) iter.Seq[models.SectionRecord]
}

type SeatNotifier interface {
	Notify(ctx context.Context, evt *models.NotificationEvent) bool
}

type Watcher struct {
	log       *zap.Logger
	prefs     store.Preferences
	statuses  store.Statuses
	fetcher   PageFetcher
	extractor SectionExtractor
	matcher   Matcher
	notifier  SeatNotifier
	metrics   *Metrics

	// lastFetched holds the start of the last cycle that fetched each course. Cycles never
	// overlap, so it is only touched from one goroutine at a time.
	lastFetched map[string]time.Time

	now func() time.Time
}

func New(
	log *zap.Logger,
	prefs store.Preferences, statuses store.Statuses,
	fetcher PageFetcher, extractor SectionExtractor,
	matcher Matcher, notifier SeatNotifier, metrics *Metrics,
) *Watcher {
	return &Watcher{
		log, prefs, statuses,
		fetcher, extractor,
		matcher, notifier, metrics,
		make(map[string]time.Time),
		func() time.Time { return time.Now().UTC() },
	}
}

// cycle is the state of one RunCycle call. Courses are fetched at most once per cycle.
type cycle struct {
	log       *zap.SugaredLogger
	startedAt time.Time
	courses   map[string]*courseState
	m         cycleMetrics
}

type courseState struct {
	sections []models.SectionRecord
	baseline Baseline
	err      error
}

// RunCycle evaluates every active preference once. Failures are logged and scoped to the
// preference or course that hit them.
func (w *Watcher) RunCycle(ctx context.Context) {
	c := &cycle{
		log:       w.log.Sugar().With("cycle_id", uuid.NewString()),
		startedAt: w.now(),
		courses:   make(map[string]*courseState),
	}

	prefs, err := w.prefs.ListActivePreferences(ctx)
	if err != nil {
		c.m.storeErrored++
		c.log.Errorw("Failed to list active preferences", "err", err)
		return
	}
	c.m.preferences = len(prefs)

	for i := range prefs {
		if ctx.Err() != nil {
			c.log.Infow("Cycle interrupted", "remaining", len(prefs)-i)
			break
		}
		w.processPreference(ctx, c, &prefs[i])
	}

	elapsed := w.now().Sub(c.startedAt)
	w.metrics.cycleSeconds.Observe(elapsed.Seconds())
	c.log.Infow(
		fmt.Sprintf("Processed %d preferences", c.m.preferences),
		append(c.m.logArgs(), "elapsed_msecs", elapsed.Milliseconds())...,
	)
}

func (w *Watcher) processPreference(ctx context.Context, c *cycle, pref *models.Preference) {
	course := w.loadCourse(ctx, c, pref.CourseID)
	if course.err != nil {
		c.log.Infow("Skipping preference for this cycle", "email", pref.Email, "course_id", pref.CourseID)
		return
	}

	for cand := range w.matcher.Match(pref, slices.Values(course.sections), course.baseline) {
		c.m.candidates++
		w.metrics.candidates.Inc()

		if cand.ShouldNotify {
			w.notify(ctx, c, pref, cand.Section)
		}
	}
}

func (w *Watcher) loadCourse(ctx context.Context, c *cycle, courseID string) *courseState {
	if course, ok := c.courses[courseID]; ok {
		return course
	}
	course := &courseState{baseline: Baseline{}}
	c.courses[courseID] = course

	page, err := w.fetcher.Fetch(ctx, courseID)
	if err != nil {
		course.err = err
		c.m.fetchErrored++
		w.metrics.fetchErrors.Inc()
		c.log.Errorw("Failed to fetch catalog page", "course_id", courseID, "err", err)
		return course
	}
	c.m.fetched++
	course.sections = slices.Collect(w.extractor.Extract(page))

	prevFetch, fetchedBefore := w.lastFetched[courseID]
	w.lastFetched[courseID] = c.startedAt

	// Read before any write for this course so every preference sees the same baseline.
	statuses, err := w.statuses.CourseStatuses(ctx, courseID)
	if err != nil {
		c.m.storeErrored++
		c.log.Errorw("Failed to read course statuses", "course_id", courseID, "err", err)
	} else {
		course.baseline = statuses.BySection()
		if fetchedBefore {
			course.baseline.closeAbsent(prevFetch)
		}
	}

	w.recordSections(ctx, c, course)
	return course
}

// recordSections upserts every section of the page that has an id and a seat count. Sections
// missing from the page are left untouched.
func (w *Watcher) recordSections(ctx context.Context, c *cycle, course *courseState) {
	recorded := make(map[string]bool, len(course.sections))
	for _, sec := range course.sections {
		if sec.SectionID == "" || !sec.SeatsAvailable.Valid || recorded[sec.SectionID] {
			continue
		}
		recorded[sec.SectionID] = true

		w.writeStatus(ctx, c, &models.CourseStatus{
			CourseID:       sec.CourseID,
			SectionID:      sec.SectionID,
			Instructor:     sec.Instructor,
			SeatsAvailable: int(sec.SeatsAvailable.Int64),
			LastUpdated:    c.startedAt,
		})
	}
}

func (w *Watcher) writeStatus(ctx context.Context, c *cycle, status *models.CourseStatus) {
	if err := w.statuses.UpsertStatus(ctx, status); err != nil {
		c.m.storeErrored++
		w.metrics.statusWrites.WithLabelValues("error").Inc()
		c.log.Errorw("Failed to update course status",
			"course_id", status.CourseID, "section_id", status.SectionID, "err", err)
		return
	}
	w.metrics.statusWrites.WithLabelValues("ok").Inc()
}

func (w *Watcher) notify(ctx context.Context, c *cycle, pref *models.Preference, sec models.SectionRecord) {
	evt := &models.NotificationEvent{
		Email:          pref.Email,
		CourseID:       sec.CourseID,
		SectionID:      sec.SectionID,
		Instructor:     sec.Instructor,
		SeatsAvailable: int(sec.SeatsAvailable.Int64),
		SentAt:         w.now(),
	}
	if w.notifier.Notify(ctx, evt) {
		c.m.notified++
		w.metrics.notifications.WithLabelValues("sent").Inc()
	} else {
		c.m.sendFailed++
		w.metrics.notifications.WithLabelValues("failed").Inc()
	}
}
