package watcher

import (
	"context"
	"time"

	"github.com/fiffu/seatwatch/lib/models"
	"github.com/fiffu/seatwatch/senders"
	"github.com/fiffu/seatwatch/senders/email"
	"go.uber.org/zap"
)

type Notifier struct {
	log     *zap.Logger
	sender  senders.Sender
	timeout time.Duration
}

func NewNotifier(log *zap.Logger, sender senders.Sender, timeout time.Duration) *Notifier {
	return &Notifier{log, sender, timeout}
}

// Notify makes one delivery attempt and reports whether the transport accepted it.
func (n *Notifier) Notify(ctx context.Context, evt *models.NotificationEvent) bool {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	format := &email.SeatAvailableFormat{Event: evt}
	id, err := n.sender.Send(ctx, format.Subject(), format.Body(), evt.Email)
	if err != nil {
		n.log.Sugar().Errorw("Failed to send seat notification",
			"err", &NotificationSendError{evt.Email, evt.CourseID, evt.SectionID, err})
		return false
	}

	n.log.Sugar().Infow("Sent seat notification to "+evt.Email,
		"course_id", evt.CourseID,
		"section_id", evt.SectionID,
		"instructor", evt.Instructor,
		"seats_available", evt.SeatsAvailable,
		"message_id", id,
	)
	return true
}
