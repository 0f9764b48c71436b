// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package similarity

import (
	"errors"
	"log/slog"
	"math"
	"runtime"

	"github.com/panjf2000/ants/v2"
)

const (
	// DefaultThreshold is the cosine a pair must exceed to be kept.
	DefaultThreshold = 0.0
	// DefaultExponent sharpens similarities; 2 squares the cosine.
	DefaultExponent = 2.0
	// DefaultNonzeroLimit bounds off-diagonal entries per row.
	DefaultNonzeroLimit = 100
)

var (
	// ErrInvalidExponent is returned for non-positive exponents.
	ErrInvalidExponent = errors.New("exponent must be greater than 0")

	// ErrInvalidThreshold is returned for thresholds outside [0, 1).
	ErrInvalidThreshold = errors.New("threshold must be in [0, 1)")

	// ErrInvalidNonzeroLimit is returned for negative limits.
	ErrInvalidNonzeroLimit = errors.New("nonzero limit must not be negative")

	// ErrMissingInput is returned when the table, dictionary or model is nil.
	ErrMissingInput = errors.New("embedding table, dictionary and tfidf model are required")
)

type config struct {
	threshold    float64
	exponent     float64
	nonzeroLimit int
	poolSize     int
	pool         *ants.Pool
	logger       *slog.Logger
}

func defaultConfig() *config {
	return &config{
		threshold:    DefaultThreshold,
		exponent:     DefaultExponent,
		nonzeroLimit: DefaultNonzeroLimit,
		poolSize:     max(runtime.NumCPU()/2, 1),
		logger:       slog.Default(),
	}
}

// Option configures Build.
type Option func(*config) error

// WithThreshold sets the cosine a pair must exceed to be kept. Pairs with a
// non-positive cosine are never kept, so the threshold is in [0, 1).
func WithThreshold(threshold float64) Option {
	return func(c *config) error {
		if math.IsNaN(threshold) || threshold < 0 || threshold >= 1 {
			return ErrInvalidThreshold
		}
		c.threshold = threshold
		return nil
	}
}

// WithExponent sets the power the cosine is raised to.
func WithExponent(exponent float64) Option {
	return func(c *config) error {
		if exponent <= 0 {
			return ErrInvalidExponent
		}
		c.exponent = exponent
		return nil
	}
}

// WithNonzeroLimit bounds the off-diagonal entries of each row.
func WithNonzeroLimit(limit int) Option {
	return func(c *config) error {
		if limit < 0 {
			return ErrInvalidNonzeroLimit
		}
		c.nonzeroLimit = limit
		return nil
	}
}

// WithPoolSize sets the worker count of the pool Build creates.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(c *config) error {
		c.poolSize = max(size, 1)
		return nil
	}
}

// WithPool runs row computation on a caller-owned pool instead of a
// temporary one. The pool is not released by Build.
func WithPool(pool *ants.Pool) Option {
	return func(c *config) error {
		c.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}
