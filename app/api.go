package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/fiffu/seatwatch/config"
	"github.com/fiffu/seatwatch/lib"
	"github.com/fiffu/seatwatch/lib/models"
	"github.com/fiffu/seatwatch/lib/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewService(lc fx.Lifecycle, log *zap.Logger, st *store.Store) *lib.Service {
	return lib.NewService(lc, log, st, st)
}

func NewAPI(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc *lib.Service, reg *prometheus.Registry) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(log, svc, reg)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Sugar().Errorw("HTTP server failed", "err", err)
				}
			}()
			log.Sugar().Infow("HTTP server listening", "addr", addr)
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(log *zap.Logger, svc *lib.Service, reg *prometheus.Registry) http.Handler {
	ctrl := &controller{log, svc}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/preferences", func(r chi.Router) {
			r.Get("/", ctrl.listPreferences)
			r.Post("/", ctrl.trackCourse)
			r.Post("/unsubscribe", ctrl.unsubscribe)
		})
		r.Get("/courses/{course_id}/status", ctrl.courseStatus)
	})

	return r
}

type controller struct {
	log *zap.Logger
	svc *lib.Service
}

func (ctrl *controller) reject(w http.ResponseWriter, status int, err error) {
	if err != nil {
		http.Error(w, err.Error(), status)
	} else {
		w.WriteHeader(status)
	}
}

// fail maps service errors onto status codes.
func (ctrl *controller) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, lib.ErrInvalidPreference) {
		ctrl.reject(w, http.StatusBadRequest, err)
		return
	}
	ctrl.log.Sugar().Errorw("Request failed", "err", err)
	ctrl.reject(w, http.StatusInternalServerError, errors.New("internal error"))
}

func (ctrl *controller) resolve(w http.ResponseWriter, status int, body any) {
	if b, err := json.Marshal(body); err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		ctrl.log.Sugar().Errorw("Request failed", "err", err)
		return
	} else {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if b != nil {
			w.Write(b)
		}
	}
}

// preferenceForm accepts preferred_instructors as a list or as one comma-separated string.
type preferenceForm struct {
	Email                string          `json:"email"`
	CourseID             string          `json:"course_id"`
	SectionID            string          `json:"section_id"`
	PreferredInstructors json.RawMessage `json:"preferred_instructors"`
}

func (f *preferenceForm) instructors() ([]string, error) {
	raw := strings.TrimSpace(string(f.PreferredInstructors))
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(f.PreferredInstructors, &list); err == nil {
		return list, nil
	}
	var joined string
	if err := json.Unmarshal(f.PreferredInstructors, &joined); err != nil {
		return nil, fmt.Errorf("%w: preferred_instructors must be a string or a list of strings", lib.ErrInvalidPreference)
	}
	return strings.Split(joined, ","), nil
}

func isJSON(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

func (ctrl *controller) trackCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req lib.TrackRequest
	if isJSON(r) {
		var form preferenceForm
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			ctrl.reject(w, http.StatusBadRequest, fmt.Errorf("malformed body: %w", err))
			return
		}
		instructors, err := form.instructors()
		if err != nil {
			ctrl.fail(w, err)
			return
		}
		req = lib.TrackRequest{Email: form.Email, CourseID: form.CourseID, SectionID: form.SectionID, PreferredInstructors: instructors}
	} else {
		req = lib.TrackRequest{
			Email:                r.FormValue("email"),
			CourseID:             r.FormValue("course_id"),
			SectionID:            r.FormValue("section_id"),
			PreferredInstructors: strings.Split(r.FormValue("preferred_instructors"), ","),
		}
	}

	pref, err := ctrl.svc.TrackCourse(ctx, req)
	if err != nil {
		ctrl.fail(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, PreferenceView{}.From(*pref))
}

func (ctrl *controller) listPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := ctrl.svc.ListPreferences(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		ctrl.fail(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[models.Preference, PreferenceView](prefs))
}

func (ctrl *controller) unsubscribe(w http.ResponseWriter, r *http.Request) {
	email, courseID := r.FormValue("email"), r.FormValue("course_id")
	if isJSON(r) {
		var form preferenceForm
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			ctrl.reject(w, http.StatusBadRequest, fmt.Errorf("malformed body: %w", err))
			return
		}
		email, courseID = form.Email, form.CourseID
	}

	found, err := ctrl.svc.Unsubscribe(r.Context(), email, courseID)
	if err != nil {
		ctrl.fail(w, err)
		return
	}
	if !found {
		ctrl.reject(w, http.StatusNotFound, errors.New("no such preference"))
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"unsubscribed": true})
}

func (ctrl *controller) courseStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := ctrl.svc.CourseStatus(r.Context(), chi.URLParam(r, "course_id"))
	if err != nil {
		ctrl.fail(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[models.CourseStatus, CourseStatusView](statuses))
}
