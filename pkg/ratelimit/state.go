// Package ratelimit keeps outbound requests to the artworks API inside the
// public per-minute budget. The count lives in Redis so every process
// sharing that Redis draws from the same budget.
package ratelimit

import (
	"time"
)

// Redis keys for rate limit state storage.
const (
	// RedisKeyWindowPrefix prefixes the per-window request counter; the window start (unix seconds) is appended.
	RedisKeyWindowPrefix = "artic:rate_limit:window"

	// RedisKeyRemoteRemaining stores the last X-RateLimit-Remaining reported by the API.
	RedisKeyRemoteRemaining = "artic:rate_limit:remote_remaining"

	// RedisKeyRemoteReset stores when the API's own window resets (unix seconds).
	RedisKeyRemoteReset = "artic:rate_limit:remote_reset"
)

const (
	// DefaultRequestsPerMinute is the anonymous budget the API documents.
	DefaultRequestsPerMinute = 60

	// ThrottleThreshold slows requests down once fewer requests than this remain.
	ThrottleThreshold = 5

	// HealthyThreshold marks the state healthy at or above this many remaining requests.
	HealthyThreshold = 10
)

// WindowState is the request budget as seen before the next request.
type WindowState struct {
	// Limit is the number of requests allowed per window.
	Limit int `json:"limit"`

	// Used is the number of requests already sent in the current window.
	Used int `json:"used"`

	// Remaining is the number of requests still allowed. It is the stricter of
	// the local count and the API's own report.
	Remaining int `json:"remaining"`

	ResetAt    time.Time `json:"reset_at"`
	LastUpdate time.Time `json:"last_update"`
	IsHealthy  bool      `json:"is_healthy"`
}

// IsStale returns true if the state is older than maxAge.
func (s *WindowState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsBlock returns true when the budget is spent.
func (s *WindowState) NeedsBlock() bool {
	return s.Remaining <= 0
}

// NeedsThrottling returns true when the budget is nearly spent but not exhausted.
func (s *WindowState) NeedsThrottling() bool {
	return s.Remaining < ThrottleThreshold && !s.NeedsBlock()
}

// TimeUntilReset returns the duration until the window resets, or 0.
func (s *WindowState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates IsHealthy from Remaining.
func (s *WindowState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= HealthyThreshold
}
