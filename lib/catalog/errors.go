package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

// FetchError is returned for transport failures, timeouts and non-2xx responses.
type FetchError struct {
	CourseID   string
	URL        string
	StatusCode int // Zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.CourseID, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.CourseID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable holds for transport errors and server-side failures.
func (e *FetchError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= http.StatusInternalServerError
}

func IsFetchError(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr)
}

// ExtractionWarning flags a section block missing one of its sub-fields.
type ExtractionWarning struct {
	CourseID  string
	SectionID string
	Field     string
}

func (w *ExtractionWarning) Error() string {
	return fmt.Sprintf("section %s-%s: missing %s", w.CourseID, w.SectionID, w.Field)
}

// ParseValueError flags a seat count that is not a non-negative integer.
type ParseValueError struct {
	CourseID  string
	SectionID string
	Value     string
	Err       error
}

func (e *ParseValueError) Error() string {
	return fmt.Sprintf("section %s-%s: bad seat count %q: %v", e.CourseID, e.SectionID, e.Value, e.Err)
}

func (e *ParseValueError) Unwrap() error { return e.Err }
