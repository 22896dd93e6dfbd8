package models

import (
	"database/sql"
	"time"
)

const UnknownInstructor = "unknown"

// SectionRecord is one section block observed on a catalog page. It only lives for one cycle.
type SectionRecord struct {
	CourseID       string
	SectionID      string
	Instructor     string
	SeatsAvailable sql.NullInt64 // Invalid when the page has no usable count
}

type NotificationEvent struct {
	Email          string
	CourseID       string
	SectionID      string
	Instructor     string
	SeatsAvailable int
	SentAt         time.Time
}
