package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestFetcher(t *testing.T, srv *httptest.Server, opts FetcherOptions) *Fetcher {
	t.Helper()
	opts.BaseURL = srv.URL + "/soc/search"
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Millisecond
	}
	return NewFetcher(zaptest.NewLogger(t), http.DefaultTransport, opts)
}

func TestFetchBuildsSearchQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/soc/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "CMSC216", q.Get("courseId"))
		assert.Equal(t, "202408", q.Get("termId"))
		assert.Equal(t, "on", q.Get("_openSectionsOnly"))
		for _, flag := range []string{"_facetoface", "_blended", "_online", "_classDay1", "_classDay5"} {
			assert.Equal(t, "on", q.Get(flag), flag)
		}
		assert.True(t, q.Has("sectionId"))
		w.Write([]byte(`<div class="section"></div>`))
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv, FetcherOptions{TermID: "202408"})
	page, err := f.Fetch(context.Background(), " CMSC216 ")
	require.NoError(t, err)
	assert.Equal(t, "CMSC216", page.CourseID)
	assert.Equal(t, `<div class="section"></div>`, page.Body)
	assert.Contains(t, page.URL, "courseId=CMSC216")
	assert.False(t, page.FetchedAt.IsZero())
}

func TestFetchNon2xxIsFetchError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv, FetcherOptions{})
	_, err := f.Fetch(context.Background(), "CMSC216")
	require.Error(t, err)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)
	assert.Equal(t, "CMSC216", fetchErr.CourseID)
	assert.EqualValues(t, 1, calls.Load(), "a single attempt by default")
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv, FetcherOptions{Attempts: 3})
	page, err := f.Fetch(context.Background(), "CMSC216")
	require.NoError(t, err)
	assert.Equal(t, "ok", page.Body)
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv, FetcherOptions{Attempts: 3})
	_, err := f.Fetch(context.Background(), "CMSC216")

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.False(t, fetchErr.Retryable())
	assert.EqualValues(t, 1, calls.Load())
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := newTestFetcher(t, srv, FetcherOptions{Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := f.Fetch(context.Background(), "CMSC216")

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.StatusCode)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}
