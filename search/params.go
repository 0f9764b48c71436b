package search

import (
	"fmt"
	"math"

	"github.com/poiesic/capsearch/core"
)

const (
	// DefaultThreshold is the score a result must exceed.
	DefaultThreshold = 0.2
	// DefaultLimit is the maximum number of results.
	DefaultLimit = 8
	// NoThreshold disables score filtering: every document is ranked,
	// including those scoring zero.
	NoThreshold = -1.0
)

// Params controls result filtering.
type Params struct {
	// Threshold is the score a result must strictly exceed, at most 1.
	// A negative threshold disables filtering (see NoThreshold).
	Threshold float64
	// Limit is the maximum number of results; 0 means unlimited.
	Limit int
}

// DefaultParams returns the default threshold and limit.
func DefaultParams() Params {
	return Params{Threshold: DefaultThreshold, Limit: DefaultLimit}
}

// Validate checks that the parameters are in range.
func (p Params) Validate() error {
	if math.IsNaN(p.Threshold) || p.Threshold > 1 {
		return fmt.Errorf("%w: %w: threshold %v above 1", core.ErrInvalidInput, ErrInvalidParams, p.Threshold)
	}
	if p.Limit < 0 {
		return fmt.Errorf("%w: %w: negative limit %d", core.ErrInvalidInput, ErrInvalidParams, p.Limit)
	}
	return nil
}

// Filtered reports whether results are cut at Threshold.
func (p Params) Filtered() bool {
	return p.Threshold >= 0
}
