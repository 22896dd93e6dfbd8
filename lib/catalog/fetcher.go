// Package catalog fetches course search pages and extracts their section blocks.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://app.testudo.umd.edu/soc/search"
	DefaultTimeout = 10 * time.Second
	userAgent      = "seatwatch/1.0 (+course seat notifier)"
)

type PageContent struct {
	CourseID  string
	URL       string
	Body      string
	FetchedAt time.Time
}

type FetcherOptions struct {
	BaseURL    string
	TermID     string
	Timeout    time.Duration // Per attempt
	Attempts   uint
	RetryDelay time.Duration
}

type Fetcher struct {
	log       *zap.Logger
	transport http.RoundTripper
	opts      FetcherOptions
}

func NewFetcher(log *zap.Logger, transport http.RoundTripper, opts FetcherOptions) *Fetcher {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Attempts < 1 {
		// retry treats zero attempts as unlimited
		opts.Attempts = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	return &Fetcher{log, transport, opts}
}

// searchParams mirrors the catalog search form: open sections only, every delivery mode and
// every weekday, no credit, level or time filters.
func (f *Fetcher) searchParams(courseID string) url.Values {
	return url.Values{
		"courseId":           {courseID},
		"sectionId":          {""},
		"termId":             {f.opts.TermID},
		"_openSectionsOnly":  {"on"},
		"creditCompare":      {""},
		"credits":            {""},
		"courseLevelFilter":  {"ALL"},
		"instructor":         {""},
		"_facetoface":        {"on"},
		"_blended":           {"on"},
		"_online":            {"on"},
		"courseStartCompare": {""},
		"courseStartHour":    {""},
		"courseStartMin":     {""},
		"courseStartAM":      {""},
		"courseEndHour":      {""},
		"courseEndMin":       {""},
		"courseEndAM":        {""},
		"teachingCenter":     {"ALL"},
		"_classDay1":         {"on"},
		"_classDay2":         {"on"},
		"_classDay3":         {"on"},
		"_classDay4":         {"on"},
		"_classDay5":         {"on"},
	}
}

func (f *Fetcher) SearchURL(courseID string) string {
	return f.opts.BaseURL + "?" + f.searchParams(courseID).Encode()
}

// Fetch performs the catalog GET for one course. Every failure comes back as *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, courseID string) (*PageContent, error) {
	courseID = strings.TrimSpace(courseID)
	pageURL := f.SearchURL(courseID)

	var body string
	var lastErr *FetchError
	err := retry.Do(
		func() error {
			lastErr = f.fetchOnce(ctx, courseID, pageURL, &body)
			if lastErr == nil {
				return nil
			}
			if !lastErr.Retryable() {
				return retry.Unrecoverable(lastErr)
			}
			return lastErr
		},
		retry.Attempts(f.opts.Attempts),
		retry.Delay(f.opts.RetryDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			f.log.Sugar().Infow("Retrying catalog fetch", "course_id", courseID, "attempt", n+1, "err", err)
		}),
	)
	if err != nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, &FetchError{CourseID: courseID, URL: pageURL, Err: err}
	}

	return &PageContent{
		CourseID:  courseID,
		URL:       pageURL,
		Body:      body,
		FetchedAt: time.Now().UTC(),
	}, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, courseID, pageURL string, body *string) *FetchError {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	start := time.Now()
	var status int
	rb := requests.URL(f.opts.BaseURL)
	for key, values := range f.searchParams(courseID) {
		rb.Param(key, values...)
	}
	err := rb.
		Transport(f.transport).
		UserAgent(userAgent).
		Accept("text/html").
		AddValidator(func(res *http.Response) error {
			status = res.StatusCode
			if res.StatusCode < 200 || res.StatusCode > 299 {
				return fmt.Errorf("unexpected status %d", res.StatusCode)
			}
			return nil
		}).
		ToString(body).
		Fetch(ctx)

	f.log.Sugar().Debugw("Catalog request completed",
		"course_id", courseID, "status_code", status, "elapsed_msecs", time.Since(start).Milliseconds())

	if err == nil {
		return nil
	}
	fetchErr := &FetchError{CourseID: courseID, URL: pageURL, Err: err}
	if status != 0 && (status < 200 || status > 299) {
		fetchErr.StatusCode = status
	}
	return fetchErr
}
