package watcher

import "fmt"

type NotificationSendError struct {
	Email     string
	CourseID  string
	SectionID string
	Err       error
}

func (e *NotificationSendError) Error() string {
	return fmt.Sprintf("notify %s about %s-%s: %v", e.Email, e.CourseID, e.SectionID, e.Err)
}

func (e *NotificationSendError) Unwrap() error { return e.Err }
