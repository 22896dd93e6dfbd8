package lib

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fiffu/seatwatch/lib/models"
	"github.com/fiffu/seatwatch/lib/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidPreference = errors.New("invalid preference")

type Service struct {
	log      *zap.Logger
	prefs    store.Preferences
	statuses store.Statuses

	*trackCourse
}

func NewService(lc fx.Lifecycle, log *zap.Logger, prefs store.Preferences, statuses store.Statuses) *Service {
	return &Service{
		log, prefs, statuses,
		&trackCourse{log, prefs},
	}
}

func (svc *Service) Unsubscribe(ctx context.Context, email, courseID string) (bool, error) {
	email, courseID = normalizeEmail(email), normalizeCourseID(courseID)
	if email == "" || courseID == "" {
		return false, fmt.Errorf("%w: email and course_id are required", ErrInvalidPreference)
	}

	found, err := svc.prefs.Deactivate(ctx, email, courseID)
	if err != nil {
		return false, err
	}
	if found {
		svc.log.Sugar().Infow("Preference deactivated", "email", email, "course_id", courseID)
	}
	return found, nil
}

func (svc *Service) ListPreferences(ctx context.Context, email string) (models.Preferences, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidPreference)
	}
	return svc.prefs.ListPreferences(ctx, email)
}

func (svc *Service) CourseStatus(ctx context.Context, courseID string) (models.CourseStatuses, error) {
	return svc.statuses.CourseStatuses(ctx, normalizeCourseID(courseID))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeCourseID(courseID string) string {
	return strings.ToUpper(strings.TrimSpace(courseID))
}
