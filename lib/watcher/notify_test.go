package watcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fiffu/seatwatch/lib/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func seatEvent() *models.NotificationEvent {
	return &models.NotificationEvent{
		Email:          "student@umd.edu",
		CourseID:       "CMSC216",
		SectionID:      "0102",
		Instructor:     "Nelson Padua-Perez",
		SeatsAvailable: 5,
		SentAt:         cycleStart,
	}
}

func TestNotifySends(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(zap.NewNop(), sender, 5*time.Second)

	assert.True(t, n.Notify(context.Background(), seatEvent()))
	assert.Equal(t, "student@umd.edu", sender.recipient)
	assert.Equal(t, "Course Seat Available: CMSC216 Section 0102", sender.subject)
	assert.Contains(t, sender.body, "Nelson Padua-Perez")
	assert.True(t, sender.deadline)
}

func TestNotifyFailureReturnsFalse(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	sender := &fakeSender{err: errors.New("connection refused")}
	n := NewNotifier(zap.New(core), sender, 0)

	assert.False(t, n.Notify(context.Background(), seatEvent()))
	assert.False(t, sender.deadline)

	entries := logs.FilterMessage("Failed to send seat notification").All()
	if assert.Len(t, entries, 1) {
		err, ok := entries[0].ContextMap()["err"]
		assert.True(t, ok)
		assert.Contains(t, err, "connection refused")
	}
}
