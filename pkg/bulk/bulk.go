// Package bulk computes a whole new selection in one step.
//
// Three strategies are offered. StrategyFromAll is labelled "From All Pages"
// but only ever sees the loaded page, so it yields the same ids as
// StrategyFromCurrent. Sampling across the server-side result set would need
// extra page fetches and it is not clear that was ever wanted.
package bulk

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/Sternrassler/artic-browser/pkg/pagination"
)

// Strategy names a bulk selection rule.
type Strategy string

const (
	// StrategyFromCurrent picks the first k ids in display order.
	StrategyFromCurrent Strategy = "from-current"

	// StrategyFromAll is meant to cover every page; it currently behaves like StrategyFromCurrent.
	StrategyFromAll Strategy = "from-all"

	// StrategyRandom draws k ids uniformly without replacement.
	StrategyRandom Strategy = "random"
)

// DefaultCount is the count preset in the bulk form.
const DefaultCount = 5

// ErrUnknownStrategy is returned by ParseStrategy.
var ErrUnknownStrategy = errors.New("unknown selection strategy")

// Option is one entry of the strategy dropdown.
type Option struct {
	Label string
	Value Strategy
}

// Options lists the strategies in dropdown order.
func Options() []Option {
	return []Option{
		{Label: "From Current Page", Value: StrategyFromCurrent},
		{Label: "From All Pages", Value: StrategyFromAll},
		{Label: "Random Selection", Value: StrategyRandom},
	}
}

// ParseStrategy validates a form value.
func ParseStrategy(v string) (Strategy, error) {
	switch s := Strategy(v); s {
	case StrategyFromCurrent, StrategyFromAll, StrategyRandom:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, v)
	}
}

// ClampCount bounds a requested count to [1, PageSize], as the count input does.
func ClampCount(k int) int {
	if k < 1 {
		return 1
	}
	if k > pagination.PageSize {
		return pagination.PageSize
	}
	return k
}

// Select returns min(k, len(ids)) ids from the current page according to s.
// The result is meant to replace the selection, not extend it.
// k is not clamped here beyond the page length.
func Select(ids []int, k int, s Strategy) []int {
	n := k
	if n > len(ids) {
		n = len(ids)
	}
	if n <= 0 {
		return nil
	}

	switch s {
	case StrategyRandom:
		picked := make([]int, len(ids))
		copy(picked, ids)
		rand.Shuffle(len(picked), func(i, j int) {
			picked[i], picked[j] = picked[j], picked[i]
		})
		return picked[:n]
	case StrategyFromCurrent, StrategyFromAll:
		out := make([]int, n)
		copy(out, ids[:n])
		return out
	default:
		return nil
	}
}
