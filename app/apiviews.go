package app

import (
	"time"

	"github.com/fiffu/seatwatch/lib/models"
)

type PreferenceView struct {
	Email                string   `json:"email"`
	CourseID             string   `json:"course_id"`
	SectionID            *string  `json:"section_id"`
	PreferredInstructors []string `json:"preferred_instructors"`
	Active               bool     `json:"active"`
	UpdatedAt            string   `json:"updated_at"`
}

type CourseStatusView struct {
	CourseID       string `json:"course_id"`
	SectionID      string `json:"section_id"`
	Instructor     string `json:"instructor"`
	SeatsAvailable int    `json:"seats_available"`
	LastUpdated    string `json:"last_updated"`
}

func (view PreferenceView) From(entity models.Preference) PreferenceView {
	var sectionID *string
	if entity.SectionID.Valid {
		sectionID = &entity.SectionID.String
	}
	instructors := entity.PreferredInstructors
	if instructors == nil {
		instructors = []string{}
	}
	return PreferenceView{
		Email:                entity.Email,
		CourseID:             entity.CourseID,
		SectionID:            sectionID,
		PreferredInstructors: instructors,
		Active:               entity.Active,
		UpdatedAt:            isoformat(entity.UpdatedAt),
	}
}

func (view CourseStatusView) From(entity models.CourseStatus) CourseStatusView {
	return CourseStatusView{
		CourseID:       entity.CourseID,
		SectionID:      entity.SectionID,
		Instructor:     entity.Instructor,
		SeatsAvailable: entity.SeatsAvailable,
		LastUpdated:    isoformat(entity.LastUpdated),
	}
}

type Fromable[Entity any, Repr any] interface {
	From(Entity) Repr
}

func FromMany[T any, U Fromable[T, U]](elems []T) []U {
	out := make([]U, len(elems))
	for i, t := range elems {
		var u U
		out[i] = u.From(t)
	}
	return out
}

func isoformat(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
