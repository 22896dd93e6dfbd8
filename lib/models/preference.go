package models

import (
	"database/sql"
	"slices"
	"strings"

	"gorm.io/gorm"
)

type Preference struct {
	gorm.Model
	Email                string         `gorm:"uniqueIndex:idx_email_course;not null"` // Composite unique index on email & course
	CourseID             string         `gorm:"uniqueIndex:idx_email_course;not null"`
	SectionID            sql.NullString // Absent means any section
	PreferredInstructors []string       `gorm:"serializer:json"` // Empty means any instructor
	Active               bool           `gorm:"index"`
}

type Preferences []Preference

// WantsSection reports whether the preference is narrowed to another section.
func (p *Preference) WantsSection(sectionID string) bool {
	if !p.SectionID.Valid || p.SectionID.String == "" {
		return true
	}
	return p.SectionID.String == sectionID
}

func (p *Preference) WantsInstructor(instructor string) bool {
	if len(p.PreferredInstructors) == 0 {
		return true
	}
	return slices.Contains(p.PreferredInstructors, instructor)
}

// NormalizeInstructors trims names and drops empties and repeats, keeping input order.
func NormalizeInstructors(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}
