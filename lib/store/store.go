// Package store persists watch preferences and the last observed seat counts.
package store

import (
	"context"
	"database/sql"

	"github.com/fiffu/seatwatch/lib/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Preferences interface {
	UpsertPreference(ctx context.Context, email string, instructors []string, courseID string, sectionID sql.NullString) (*models.Preference, error)
	ListActivePreferences(ctx context.Context) (models.Preferences, error)
	ListPreferences(ctx context.Context, email string) (models.Preferences, error)
	Deactivate(ctx context.Context, email, courseID string) (bool, error)
}

type Statuses interface {
	UpsertStatus(ctx context.Context, status *models.CourseStatus) error
	CourseStatuses(ctx context.Context, courseID string) (models.CourseStatuses, error)
}

// Store implements both Preferences and Statuses on one gorm handle.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db}
}

func (s *Store) UpsertPreference(ctx context.Context, email string, instructors []string, courseID string, sectionID sql.NullString) (*models.Preference, error) {
	pref := &models.Preference{
		Email:                email,
		CourseID:             courseID,
		SectionID:            sectionID,
		PreferredInstructors: instructors,
		Active:               true,
	}
	tx := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}, {Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"section_id", "preferred_instructors", "active", "updated_at", "deleted_at"}),
		}).
		Create(pref)
	if err := tx.Error; err != nil {
		return nil, wrap("upsert_preference", err)
	}

	// The row id is not reliable after an upsert that hit the conflict path, so read it back.
	stored := &models.Preference{}
	tx = s.db.WithContext(ctx).
		Where("email = ? AND course_id = ?", email, courseID).
		First(stored)
	if err := tx.Error; err != nil {
		return nil, wrap("upsert_preference", err)
	}
	return stored, nil
}

func (s *Store) ListActivePreferences(ctx context.Context) (models.Preferences, error) {
	var prefs models.Preferences
	tx := s.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&prefs)
	if err := tx.Error; err != nil {
		return nil, wrap("list_active_preferences", err)
	}
	return prefs, nil
}

func (s *Store) ListPreferences(ctx context.Context, email string) (models.Preferences, error) {
	var prefs models.Preferences
	tx := s.db.WithContext(ctx).Where("email = ?", email).Order("course_id").Find(&prefs)
	if err := tx.Error; err != nil {
		return nil, wrap("list_preferences", err)
	}
	return prefs, nil
}

// Deactivate reports whether a preference for (email, courseID) existed.
func (s *Store) Deactivate(ctx context.Context, email, courseID string) (bool, error) {
	tx := s.db.WithContext(ctx).
		Model(&models.Preference{}).
		Where("email = ? AND course_id = ?", email, courseID).
		Update("active", false)
	if err := tx.Error; err != nil {
		return false, wrap("deactivate", err)
	}
	return tx.RowsAffected > 0, nil
}

func (s *Store) UpsertStatus(ctx context.Context, status *models.CourseStatus) error {
	tx := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}, {Name: "section_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"instructor", "seats_available", "last_updated"}),
		}).
		Create(status)
	return wrap("upsert_status", tx.Error)
}

func (s *Store) CourseStatuses(ctx context.Context, courseID string) (models.CourseStatuses, error) {
	var statuses models.CourseStatuses
	tx := s.db.WithContext(ctx).Where("course_id = ?", courseID).Order("section_id").Find(&statuses)
	if err := tx.Error; err != nil {
		return nil, wrap("course_statuses", err)
	}
	return statuses, nil
}
