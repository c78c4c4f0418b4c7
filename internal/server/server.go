// Package server is the HTTP surface of the artworks browser.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/artic-browser/internal/app"
	"github.com/Sternrassler/artic-browser/internal/view"
	"github.com/Sternrassler/artic-browser/pkg/bulk"
	"github.com/Sternrassler/artic-browser/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// readyTimeout bounds the readiness probe.
const readyTimeout = 2 * time.Second

// Server routes browser actions to session controllers.
type Server struct {
	sessions *app.Sessions
	renderer *view.Renderer
	ready    Pinger
	logger   zerolog.Logger
}

// New creates a server. ready backs /ready.
func New(sessions *app.Sessions, renderer *view.Renderer, ready Pinger, logger zerolog.Logger) *Server {
	return &Server{
		sessions: sessions,
		renderer: renderer,
		ready:    ready,
		logger:   logger,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/", s.handleIndex)
		r.Get("/api/state", s.handleState)

		r.Post("/page", s.handlePage)
		r.Post("/rows/all", s.handleToggleAll)
		r.Post("/rows/{id}", s.handleToggleRow)
		r.Post("/selection/clear", s.handleClear)
		r.Post("/selection/bulk", s.handleBulk)
		r.Post("/panel/summary", s.handleToggleSummary)
		r.Post("/panel/bulk", s.handleToggleBulkForm)
		r.Post("/panel/bulk/cancel", s.handleCloseBulkForm)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.ready.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Readiness check failed")
		http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	c := controllerFrom(r.Context())
	c.LoadInitial(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.renderer.Render(w, view.Build(c.Snapshot())); err != nil {
		s.logger.Error().Err(err).Msg("Render failed")
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(controllerFrom(r.Context()).Snapshot()); err != nil {
		s.logger.Warn().Err(err).Msg("Encode state failed")
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.PostFormValue("page"))
	if err != nil {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}

	if err := controllerFrom(r.Context()).ChangePage(r.Context(), page); err != nil {
		if errors.Is(err, app.ErrPageOutOfRange) {
			s.logger.Warn().Err(err).Int("page", page).Msg("Navigation rejected")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "page change failed", http.StatusInternalServerError)
		return
	}
	backToIndex(w, r)
}

func (s *Server) handleToggleRow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid row id", http.StatusBadRequest)
		return
	}
	selected, ok := formBool(w, r, "selected")
	if !ok {
		return
	}

	if _, err := controllerFrom(r.Context()).ToggleRow(id, selected); err != nil {
		s.logger.Warn().Err(err).Msg("Row toggle rejected")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	backToIndex(w, r)
}

func (s *Server) handleToggleAll(w http.ResponseWriter, r *http.Request) {
	selected, ok := formBool(w, r, "selected")
	if !ok {
		return
	}
	controllerFrom(r.Context()).ToggleAllOnCurrentPage(selected)
	backToIndex(w, r)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	controllerFrom(r.Context()).ClearAll()
	backToIndex(w, r)
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	count, err := strconv.Atoi(r.PostFormValue("count"))
	if err != nil {
		http.Error(w, "invalid count", http.StatusBadRequest)
		return
	}
	strategy, err := bulk.ParseStrategy(r.PostFormValue("strategy"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	controllerFrom(r.Context()).ApplyBulkSelection(bulk.ClampCount(count), strategy)
	backToIndex(w, r)
}

func (s *Server) handleToggleSummary(w http.ResponseWriter, r *http.Request) {
	controllerFrom(r.Context()).ToggleSummary()
	backToIndex(w, r)
}

func (s *Server) handleToggleBulkForm(w http.ResponseWriter, r *http.Request) {
	controllerFrom(r.Context()).ToggleBulkForm()
	backToIndex(w, r)
}

func (s *Server) handleCloseBulkForm(w http.ResponseWriter, r *http.Request) {
	controllerFrom(r.Context()).CloseBulkForm()
	backToIndex(w, r)
}

func backToIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// formBool parses a boolean form field and answers 400 when it is not one.
func formBool(w http.ResponseWriter, r *http.Request, name string) (bool, bool) {
	v, err := strconv.ParseBool(r.PostFormValue(name))
	if err != nil {
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		return false, false
	}
	return v, true
}
