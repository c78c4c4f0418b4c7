package app

import (
	"context"
	"sync"
	"time"

	"github.com/Sternrassler/artic-browser/pkg/pagination"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "artic_active_sessions",
	Help: "Browser sessions held in memory",
})

// Sessions maps session ids to controllers. Nothing is persisted.
type Sessions struct {
	mu      sync.RWMutex
	byID    map[string]*Controller
	fetcher pagination.PageFetcher
	logger  zerolog.Logger
}

// NewSessions creates an empty registry whose controllers load pages through fetcher.
func NewSessions(fetcher pagination.PageFetcher, logger zerolog.Logger) *Sessions {
	return &Sessions{
		byID:    make(map[string]*Controller),
		fetcher: fetcher,
		logger:  logger,
	}
}

// Get returns the controller of a known session.
func (s *Sessions) Get(id string) (*Controller, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	return c, ok
}

// Create starts a session with a random id.
func (s *Sessions) Create() (string, *Controller) {
	id := uuid.NewString()
	c := NewController(s.fetcher, s.logger.With().Str("session", id).Logger())

	s.mu.Lock()
	s.byID[id] = c
	n := len(s.byID)
	s.mu.Unlock()

	activeSessions.Set(float64(n))
	s.logger.Debug().Str("session", id).Msg("Session created")
	return id, c
}

// Len is the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Sweep drops sessions idle for at least maxIdle and returns how many went.
func (s *Sessions) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	removed := 0
	for id, c := range s.byID {
		if time.Since(c.LastUsed()) >= maxIdle {
			delete(s.byID, id)
			removed++
		}
	}
	n := len(s.byID)
	s.mu.Unlock()

	activeSessions.Set(float64(n))
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Int("active", n).Msg("Idle sessions swept")
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Sessions) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(maxIdle)
		}
	}
}
