package watcher

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"slices"
	"sync"

	"github.com/fiffu/seatwatch/lib/catalog"
	"github.com/fiffu/seatwatch/lib/models"
)

type fakePreferences struct {
	prefs models.Preferences
	err   error
}

func (f *fakePreferences) UpsertPreference(ctx context.Context, email string, instructors []string, courseID string, sectionID sql.NullString) (*models.Preference, error) {
	return nil, errors.New("not used")
}

func (f *fakePreferences) ListActivePreferences(ctx context.Context) (models.Preferences, error) {
	return f.prefs, f.err
}

func (f *fakePreferences) ListPreferences(ctx context.Context, email string) (models.Preferences, error) {
	return nil, errors.New("not used")
}

func (f *fakePreferences) Deactivate(ctx context.Context, email, courseID string) (bool, error) {
	return false, errors.New("not used")
}

type fakeStatuses struct {
	rows     map[string]models.CourseStatus
	writes   []models.CourseStatus
	writeErr error
	readErr  error
}

func newFakeStatuses(rows ...models.CourseStatus) *fakeStatuses {
	f := &fakeStatuses{rows: make(map[string]models.CourseStatus)}
	for _, r := range rows {
		f.rows[r.CourseID+"/"+r.SectionID] = r
	}
	return f
}

func (f *fakeStatuses) UpsertStatus(ctx context.Context, status *models.CourseStatus) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, *status)
	f.rows[status.CourseID+"/"+status.SectionID] = *status
	return nil
}

func (f *fakeStatuses) CourseStatuses(ctx context.Context, courseID string) (models.CourseStatuses, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out models.CourseStatuses
	for _, r := range f.rows {
		if r.CourseID == courseID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStatuses) get(courseID, sectionID string) (models.CourseStatus, bool) {
	r, ok := f.rows[courseID+"/"+sectionID]
	return r, ok
}

// fakeCatalog serves as both fetcher and extractor. Pages carry only the course id.
type fakeCatalog struct {
	sections map[string][]models.SectionRecord
	failing  map[string]error
	fetches  map[string]int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		sections: make(map[string][]models.SectionRecord),
		failing:  make(map[string]error),
		fetches:  make(map[string]int),
	}
}

func (f *fakeCatalog) Fetch(ctx context.Context, courseID string) (*catalog.PageContent, error) {
	f.fetches[courseID]++
	if err := f.failing[courseID]; err != nil {
		return nil, err
	}
	return &catalog.PageContent{CourseID: courseID}, nil
}

func (f *fakeCatalog) Extract(page *catalog.PageContent) iter.Seq[models.SectionRecord] {
	return slices.Values(f.sections[page.CourseID])
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []models.NotificationEvent
	fail   bool
}

func (f *fakeNotifier) Notify(ctx context.Context, evt *models.NotificationEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *evt)
	return !f.fail
}

type fakeSender struct {
	subject, body, recipient string
	err                      error
	deadline                 bool
}

func (f *fakeSender) Send(ctx context.Context, subject, body, recipient string) (string, error) {
	f.subject, f.body, f.recipient = subject, body, recipient
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}
