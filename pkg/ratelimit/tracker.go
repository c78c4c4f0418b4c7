package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "artic_rate_limit_remaining",
		Help: "Requests remaining in the current artworks API window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artic_rate_limit_blocks_total",
		Help: "Total number of requests blocked because the window budget was spent",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artic_rate_limit_throttles_total",
		Help: "Total number of requests delayed because the window budget was nearly spent",
	})
)

// Window is the length of one rate limit window.
const Window = time.Minute

// throttleDelay is how long a throttled request waits.
var throttleDelay = 1 * time.Second

// Tracker counts outbound requests per window and gates them.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
	limit  int
}

// NewTracker creates a tracker allowing limit requests per Window.
// A non-positive limit falls back to DefaultRequestsPerMinute.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger, limit int) *Tracker {
	if limit <= 0 {
		limit = DefaultRequestsPerMinute
	}
	return &Tracker{
		redis:  redisClient,
		logger: logger,
		limit:  limit,
	}
}

// Limit returns the per-window budget.
func (t *Tracker) Limit() int {
	return t.limit
}

func windowKey(now time.Time) (string, time.Time) {
	start := now.Truncate(Window)
	return fmt.Sprintf("%s:%d", RedisKeyWindowPrefix, start.Unix()), start.Add(Window)
}

// GetState reads the current window without counting a request.
func (t *Tracker) GetState(ctx context.Context) (*WindowState, error) {
	now := time.Now()
	key, resetAt := windowKey(now)

	used, err := t.redis.Get(ctx, key).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get window count: %w", err)
	}

	state := &WindowState{
		Limit:      t.limit,
		Used:       used,
		Remaining:  t.limit - used,
		ResetAt:    resetAt,
		LastUpdate: now,
	}

	if err := t.mergeRemote(ctx, state); err != nil {
		return nil, err
	}
	state.UpdateHealth()
	return state, nil
}

// mergeRemote lowers Remaining to the API's own report while that report is current.
func (t *Tracker) mergeRemote(ctx context.Context, state *WindowState) error {
	remote, err := t.redis.Get(ctx, RedisKeyRemoteRemaining).Int()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get remote remaining: %w", err)
	}

	reset, err := t.redis.Get(ctx, RedisKeyRemoteReset).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("get remote reset: %w", err)
	}
	if reset > 0 && time.Unix(reset, 0).Before(time.Now()) {
		return nil
	}

	if remote < state.Remaining {
		state.Remaining = remote
		if reset > 0 {
			state.ResetAt = time.Unix(reset, 0)
		}
	}
	return nil
}

// UpdateFromHeaders records the API's X-RateLimit-Remaining and
// X-RateLimit-Reset (seconds until reset) headers. Responses without them
// leave the state untouched.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get("X-RateLimit-Remaining")
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse X-RateLimit-Remaining header: %w", err)
	}

	resetSeconds := int(Window / time.Second)
	if resetStr := headers.Get("X-RateLimit-Reset"); resetStr != "" {
		resetSeconds, err = strconv.Atoi(resetStr)
		if err != nil {
			return fmt.Errorf("parse X-RateLimit-Reset header: %w", err)
		}
	}

	resetAt := time.Now().Add(time.Duration(resetSeconds) * time.Second)
	ttl := time.Until(resetAt)
	if ttl <= 0 {
		ttl = time.Second
	}

	pipe := t.redis.TxPipeline()
	pipe.Set(ctx, RedisKeyRemoteRemaining, remain, ttl)
	pipe.Set(ctx, RedisKeyRemoteReset, resetAt.Unix(), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store remote rate limit in redis: %w", err)
	}

	rateLimitRemaining.Set(float64(remain))

	t.logger.Debug().
		Int("remaining", remain).
		Time("reset_at", resetAt).
		Msg("API rate limit headers recorded")

	return nil
}

// ShouldAllowRequest counts one request against the current window.
// It returns false when the budget is spent, and waits throttleDelay first
// when the budget is nearly spent.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	now := time.Now()
	key, resetAt := windowKey(now)

	pipe := t.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("count request: %w", err)
	}

	used := int(incr.Val()) - 1
	state := &WindowState{
		Limit:      t.limit,
		Used:       used,
		Remaining:  t.limit - used,
		ResetAt:    resetAt,
		LastUpdate: now,
	}
	if err := t.mergeRemote(ctx, state); err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}
	state.UpdateHealth()
	rateLimitRemaining.Set(float64(state.Remaining))

	if state.NeedsBlock() {
		// Blocked requests never reach the API; give the slot back.
		if err := t.redis.Decr(ctx, key).Err(); err != nil {
			t.logger.Warn().Err(err).Msg("Failed to release rate limit slot")
		}
		t.logger.Error().
			Int("used", state.Used).
			Int("limit", state.Limit).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("API request budget spent - blocking request")

		rateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("API request budget nearly spent - throttling request")

		rateLimitThrottlesTotal.Inc()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(throttleDelay):
		}
	}

	return true, nil
}
