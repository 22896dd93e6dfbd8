package models

import "time"

type CourseStatus struct {
	CourseID       string `gorm:"primaryKey"`
	SectionID      string `gorm:"primaryKey"`
	Instructor     string
	SeatsAvailable int
	LastUpdated    time.Time
}

type CourseStatuses []CourseStatus

// BySection indexes statuses of one course on their section id.
func (cs CourseStatuses) BySection() map[string]CourseStatus {
	out := make(map[string]CourseStatus, len(cs))
	for _, s := range cs {
		out[s.SectionID] = s
	}
	return out
}
