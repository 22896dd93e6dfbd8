package watcher

import (
	"fmt"
	"time"
	_ "time/tzdata" // zone names like US/Pacific must resolve in minimal containers
)

// Window is a daily time-of-day range in one location, bounds inclusive. A window whose start
// is after its end runs past midnight.
type Window struct {
	start, end time.Duration // Offsets from local midnight
	loc        *time.Location
}

func ParseWindow(start, end, timezone string) (*Window, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", timezone, err)
	}
	s, err := parseClock(start)
	if err != nil {
		return nil, err
	}
	e, err := parseClock(end)
	if err != nil {
		return nil, err
	}
	return &Window{s, e, loc}, nil
}

func parseClock(hhmm string) (time.Duration, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("time of day %q, want HH:MM: %w", hhmm, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func (w *Window) Contains(t time.Time) bool {
	local := t.In(w.loc)
	tod := time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second +
		time.Duration(local.Nanosecond())

	if w.start <= w.end {
		return w.start <= tod && tod <= w.end
	}
	return tod >= w.start || tod <= w.end
}

func (w *Window) Location() *time.Location { return w.loc }

func (w *Window) String() string {
	return fmt.Sprintf("%s-%s %s", clock(w.start), clock(w.end), w.loc)
}

func clock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
