package watcher

import (
	"fmt"
	"iter"
	"time"

	"github.com/fiffu/seatwatch/lib/models"
)

// Trigger decides how a section that stays open across cycles is treated.
type Trigger string

const (
	// TriggerEdge notifies when seats appear relative to the stored status.
	TriggerEdge Trigger = "edge"
	// TriggerLevel notifies on every cycle that sees open seats.
	TriggerLevel Trigger = "level"
)

func ParseTrigger(s string) (Trigger, error) {
	switch t := Trigger(s); t {
	case TriggerEdge, TriggerLevel:
		return t, nil
	case "":
		return TriggerEdge, nil
	default:
		return "", fmt.Errorf("unknown notify trigger %q, want %q or %q", s, TriggerEdge, TriggerLevel)
	}
}

// Baseline holds the stored statuses of one course keyed by section id, as they were before the
// current cycle wrote anything for that course.
type Baseline map[string]models.CourseStatus

// closeAbsent treats stored open sections that were not refreshed by the fetch at prevFetch as
// closed. The catalog lists open sections only, so a section that fills up drops off the page
// instead of showing 0, and its row keeps the time it was last seen.
func (b Baseline) closeAbsent(prevFetch time.Time) {
	for id, prior := range b {
		if prior.SeatsAvailable > 0 && prior.LastUpdated.Before(prevFetch) {
			prior.SeatsAvailable = 0
			b[id] = prior
		}
	}
}

type Candidate struct {
	Section      models.SectionRecord
	ShouldNotify bool
}

type Matcher struct {
	trigger Trigger
}

func NewMatcher(trigger Trigger) Matcher {
	return Matcher{trigger}
}

// Match yields the sections pref cares about that have a known seat count, in input order.
// The sequence ends right after the first candidate that should notify.
func (m Matcher) Match(pref *models.Preference, sections iter.Seq[models.SectionRecord], baseline Baseline) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		for sec := range sections {
			if !pref.WantsSection(sec.SectionID) {
				continue
			}
			if !pref.WantsInstructor(sec.Instructor) {
				continue
			}
			if !sec.SeatsAvailable.Valid {
				continue
			}

			c := Candidate{Section: sec, ShouldNotify: m.shouldNotify(pref, sec, baseline)}
			if !yield(c) || c.ShouldNotify {
				return
			}
		}
	}
}

func (m Matcher) shouldNotify(pref *models.Preference, sec models.SectionRecord, baseline Baseline) bool {
	if sec.SeatsAvailable.Int64 <= 0 {
		return false
	}
	if m.trigger == TriggerLevel {
		return true
	}

	prior, seen := baseline[sec.SectionID]
	switch {
	case !seen:
		return true
	case prior.SeatsAvailable <= 0:
		return true
	case prior.LastUpdated.Before(pref.UpdatedAt):
		// Seats were already open when this preference was created or edited.
		return true
	default:
		return false
	}
}
