package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/artic-browser/pkg/bulk"
	"github.com/Sternrassler/artic-browser/pkg/pagination"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	selectionOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artic_selection_operations_total",
		Help: "Selection transitions by operation",
	}, []string{"op"})

	pageFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artic_page_fetch_failures_total",
		Help: "Page loads that failed and kept the previous page",
	})
)

var (
	// ErrPageOutOfRange is returned for pages outside the loaded descriptor.
	ErrPageOutOfRange = errors.New("page out of range")

	// ErrUnknownRow is returned when toggling an id this session never rendered.
	ErrUnknownRow = errors.New("unknown row")
)

// Controller owns the State of one session.
type Controller struct {
	mu       sync.Mutex
	state    State
	inflight int
	lastUsed time.Time

	fetcher pagination.PageFetcher
	logger  zerolog.Logger
}

// NewController creates a controller with a fresh State.
func NewController(fetcher pagination.PageFetcher, logger zerolog.Logger) *Controller {
	return &Controller{
		state:    NewState(),
		lastUsed: time.Now(),
		fetcher:  fetcher,
		logger:   logger,
	}
}

// Snapshot returns the current State.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastUsed is the time of the most recent action.
func (c *Controller) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// apply swaps in fn(state) under the lock. c.mu must not be held.
func (c *Controller) apply(fn func(State) State) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = fn(c.state)
	c.lastUsed = time.Now()
	return c.state
}

// ChangePage loads page and makes it current. The lock is released while the
// fetch runs. In-flight fetches are neither cancelled nor ordered: whichever
// response arrives last is shown. A failed fetch is logged and leaves the
// previous page in place; only an out-of-range page is reported as an error.
// Until a page has loaded, only page 1 is in range.
func (c *Controller) ChangePage(ctx context.Context, page int) error {
	c.mu.Lock()
	if !c.inRange(page) {
		total := c.state.Pagination.TotalPages
		c.mu.Unlock()
		return fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, page, total)
	}
	c.startFetch(page)
	c.mu.Unlock()

	c.load(ctx, page)
	return nil
}

// LoadInitial fetches page 1 when nothing has been loaded yet and no load is running.
func (c *Controller) LoadInitial(ctx context.Context) {
	c.mu.Lock()
	if c.state.Pagination.Known() || c.inflight > 0 {
		c.mu.Unlock()
		return
	}
	c.startFetch(1)
	c.mu.Unlock()

	c.load(ctx, 1)
}

func (c *Controller) inRange(page int) bool {
	if !c.state.Pagination.Known() {
		return page == 1
	}
	return c.state.Pagination.Contains(page)
}

// startFetch reserves an in-flight slot. c.mu must be held.
func (c *Controller) startFetch(page int) {
	c.state = c.state.SetPage(page)
	c.inflight++
	c.lastUsed = time.Now()
}

func (c *Controller) load(ctx context.Context, page int) {
	done := State.FetchFailed
	defer func() { c.finishFetch(done) }()

	// The load outlives the request that asked for it.
	result, err := c.fetcher.FetchPage(context.WithoutCancel(ctx), page)
	if err != nil {
		pageFetchFailures.Inc()
		c.logger.Error().Err(err).Int("page", page).Msg("Page load failed, keeping previous page")
		return
	}

	done = func(s State) State { return s.SetFetchResult(result) }
	c.logger.Info().
		Int("page", result.Descriptor.CurrentPage).
		Int("records", len(result.Records)).
		Int("total", result.Descriptor.Total).
		Msg("Page loaded")
}

// finishFetch applies the outcome and releases the in-flight slot in one step.
// Loading stays set while another fetch is still running.
func (c *Controller) finishFetch(outcome func(State) State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = outcome(c.state)
	c.inflight--
	c.state.Loading = c.inflight > 0
	c.lastUsed = time.Now()
}

// ToggleRow sets one row's selection. Only ids rendered to this session are accepted.
func (c *Controller) ToggleRow(id int, selected bool) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Seen.Has(id) {
		return c.state, fmt.Errorf("%w: %d", ErrUnknownRow, id)
	}
	c.state = c.state.ToggleRow(id, selected)
	c.lastUsed = time.Now()
	selectionOps.WithLabelValues("toggle_row").Inc()
	c.logger.Debug().Int("id", id).Bool("selected", selected).Int("selected_count", c.state.CountSelected()).Msg("Row toggled")
	return c.state, nil
}

func (c *Controller) ToggleAllOnCurrentPage(selected bool) State {
	s := c.apply(func(s State) State { return s.ToggleAllOnCurrentPage(selected) })
	selectionOps.WithLabelValues("toggle_page").Inc()
	c.logger.Debug().Bool("selected", selected).Int("selected_count", s.CountSelected()).Msg("Page toggled")
	return s
}

func (c *Controller) ClearAll() State {
	s := c.apply(State.ClearAll)
	selectionOps.WithLabelValues("clear").Inc()
	c.logger.Debug().Msg("Selection cleared")
	return s
}

// ApplyBulkSelection replaces the selection. count is used as given.
func (c *Controller) ApplyBulkSelection(count int, strategy bulk.Strategy) State {
	s := c.apply(func(s State) State { return s.ApplyBulkSelection(count, strategy) })
	selectionOps.WithLabelValues("bulk").Inc()
	c.logger.Info().
		Str("strategy", string(strategy)).
		Int("count", count).
		Int("selected_count", s.CountSelected()).
		Msg("Bulk selection applied")
	return s
}

func (c *Controller) ToggleSummary() State {
	return c.apply(State.ToggleSummary)
}

func (c *Controller) ToggleBulkForm() State {
	return c.apply(State.ToggleBulkForm)
}

func (c *Controller) CloseBulkForm() State {
	return c.apply(State.CloseBulkForm)
}
