package lib

import (
	"context"
	"database/sql"
	"fmt"
	"net/mail"
	"strings"

	"github.com/fiffu/seatwatch/lib/models"
	"github.com/fiffu/seatwatch/lib/store"
	"go.uber.org/zap"
)

type TrackRequest struct {
	Email                string
	CourseID             string
	SectionID            string
	PreferredInstructors []string
}

type trackCourse struct {
	log   *zap.Logger
	prefs store.Preferences
}

// TrackCourse creates or replaces the preference for (email, course) and marks it active.
func (svc *trackCourse) TrackCourse(ctx context.Context, req TrackRequest) (*models.Preference, error) {
	email := normalizeEmail(req.Email)
	courseID := normalizeCourseID(req.CourseID)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidPreference)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email %q is not an address", ErrInvalidPreference, req.Email)
	}
	if courseID == "" {
		return nil, fmt.Errorf("%w: course_id is required", ErrInvalidPreference)
	}

	var sectionID sql.NullString
	if s := strings.TrimSpace(req.SectionID); s != "" {
		sectionID = sql.NullString{String: s, Valid: true}
	}
	instructors := models.NormalizeInstructors(req.PreferredInstructors)

	pref, err := svc.prefs.UpsertPreference(ctx, email, instructors, courseID, sectionID)
	if err != nil {
		return nil, err
	}
	svc.log.Sugar().Infow("Tracking course",
		"email", email, "course_id", courseID,
		"section_id", sectionID.String, "instructors", instructors,
	)
	return pref, nil
}
