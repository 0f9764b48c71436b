package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/capsearch/core"
	"github.com/poiesic/capsearch/storage"
	"github.com/poiesic/capsearch/text"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of engines a Searcher keeps loaded.
const DefaultCacheSize = 64

// Searcher answers queries for stored indexes. It never builds an index; a
// key without one yields core.ErrNotFound.
type Searcher struct {
	repo        storage.IndexRepository
	normalizers map[text.Mode]*text.Normalizer
	params      Params
	logger      *slog.Logger

	cacheSize int
	group     singleflight.Group
	mu        sync.Mutex
	engines   *lru.Cache[string, *Engine]
	gen       uint64 // bumped by Invalidate so in-flight loads are not cached
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithNormalizer registers a normalizer for indexes built in its mode.
func WithNormalizer(normalizer *text.Normalizer) Option {
	return func(s *Searcher) error {
		if normalizer == nil {
			return ErrNormalizerRequired
		}
		s.normalizers[normalizer.Mode()] = normalizer
		return nil
	}
}

// WithParams sets the parameters used when a query passes none.
func WithParams(params Params) Option {
	return func(s *Searcher) error {
		if err := params.Validate(); err != nil {
			return err
		}
		s.params = params
		return nil
	}
}

// WithCacheSize bounds how many engines stay loaded; the least recently
// queried one is dropped first. Default is DefaultCacheSize.
func WithCacheSize(size int) Option {
	return func(s *Searcher) error {
		if size < 1 {
			return fmt.Errorf("%w: cache size %d", ErrInvalidCacheSize, size)
		}
		s.cacheSize = size
		return nil
	}
}

// NewSearcher creates a new searcher. At least one normalizer is required.
func NewSearcher(repo storage.IndexRepository, opts ...Option) (*Searcher, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}

	s := &Searcher{
		repo:        repo,
		normalizers: make(map[text.Mode]*text.Normalizer),
		params:      DefaultParams(),
		logger:      slog.Default(),
		cacheSize:   DefaultCacheSize,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if len(s.normalizers) == 0 {
		return nil, ErrNormalizerRequired
	}
	s.logger = s.logger.With("component", "searcher")

	engines, err := lru.NewWithEvict(s.cacheSize, func(key string, _ *Engine) {
		s.logger.Debug("engine evicted", "key", key)
	})
	if err != nil {
		return nil, err
	}
	s.engines = engines

	return s, nil
}

// Query ranks the caption lines of the corpus at key. A nil params uses the
// searcher's defaults.
func (s *Searcher) Query(ctx context.Context, key, query string, params *Params) ([]core.Result, error) {
	return s.QueryWithMonitor(ctx, key, query, params, nil)
}

// QueryWithMonitor ranks caption lines with monitoring.
// The monitor receives callbacks at each stage of the query.
func (s *Searcher) QueryWithMonitor(ctx context.Context, key, query string, params *Params, monitor QueryMonitor) ([]core.Result, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	p := s.params
	if params != nil {
		p = *params
	}

	monitor.Start(key, query)
	start := time.Now()

	engine, err := s.Engine(ctx, key)
	if err != nil {
		return nil, err
	}

	results, err := engine.score(query, p, monitor)
	if err != nil {
		return nil, err
	}
	monitor.Finish(results)

	s.logger.Debug("query answered",
		"key", engine.state.Key,
		"results", len(results),
		"elapsed", time.Since(start).Round(time.Microsecond))
	return results, nil
}

// Engine returns the engine for key, loading the index on first use.
// Concurrent loads of the same key share one repository read.
func (s *Searcher) Engine(ctx context.Context, key string) (*Engine, error) {
	normalized, err := core.NormalizeKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}

	if engine, ok := s.engines.Get(normalized); ok {
		return engine, nil
	}

	v, err, _ := s.group.Do(normalized, func() (any, error) {
		s.mu.Lock()
		gen := s.gen
		s.mu.Unlock()

		state, err := s.repo.LoadIndex(ctx, normalized)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, normalized)
		}
		if err != nil {
			return nil, err
		}

		normalizer, ok := s.normalizers[text.Mode(state.Tokenizer)]
		if !ok {
			return nil, fmt.Errorf("%w: %w: %q", core.ErrResourceUnavailable, ErrTokenizerMismatch, state.Tokenizer)
		}
		engine, err := NewEngine(state, normalizer)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.gen == gen {
			s.engines.Add(normalized, engine)
		}
		s.mu.Unlock()
		s.logger.Debug("engine loaded", "key", normalized, "documents", len(state.Documents))
		return engine, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Engine), nil
}

// Invalidate drops the cached engine for key, so the next query reloads it.
// A load already in flight is neither cached nor shared with later callers.
func (s *Searcher) Invalidate(key string) {
	normalized, err := core.NormalizeKey(key)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.engines.Remove(normalized)
	s.gen++
	s.group.Forget(normalized)
	s.mu.Unlock()
}

// Cached reports how many engines are held.
func (s *Searcher) Cached() int {
	return s.engines.Len()
}
