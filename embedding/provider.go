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

package embedding

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/poiesic/capsearch/core"
	"github.com/poiesic/capsearch/resources"
	"github.com/poiesic/capsearch/text"
	"golang.org/x/sync/singleflight"
)

// Resources are the process-wide, read-only inputs to index builds and queries.
type Resources struct {
	Stopwords text.StopwordSet
	Table     *Table
}

// Provider loads Resources once and memoizes them. Concurrent callers share
// a single in-flight load; a failed load caches nothing and can be retried.
type Provider struct {
	cachePath     string
	stopwordsPath string
	source        Source
	logger        *slog.Logger

	group  singleflight.Group
	mu     sync.RWMutex
	loaded *Resources
}

// Option configures a Provider.
type Option func(*Provider) error

// WithCachePath sets the embedding cache location: a cache file, or a
// directory of split chunks.
func WithCachePath(path string) Option {
	return func(p *Provider) error {
		p.cachePath = path
		return nil
	}
}

// WithSource sets the source used when the cache is missing or corrupt.
func WithSource(source Source) Option {
	return func(p *Provider) error {
		p.source = source
		return nil
	}
}

// WithStopwordsPath loads stopwords from path instead of the bundled list.
func WithStopwordsPath(path string) Option {
	return func(p *Provider) error {
		p.stopwordsPath = path
		return nil
	}
}

// WithLogger sets the logger for the provider.
// If not provided, slog.Default() will be used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewProvider creates a provider. At least one of a cache path or a source
// must eventually yield a table, but that is only checked on Load.
func NewProvider(opts ...Option) (*Provider, error) {
	p := &Provider{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "embedding-provider")
	return p, nil
}

// NewStaticProvider returns a provider that always yields res. Useful for
// tests and for callers that build tables themselves.
func NewStaticProvider(res *Resources) *Provider {
	return &Provider{logger: slog.Default(), loaded: res}
}

// Loaded reports whether resources have been loaded.
func (p *Provider) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded != nil
}

// Load returns the resources, loading them on first use.
func (p *Provider) Load(ctx context.Context) (*Resources, error) {
	p.mu.RLock()
	res := p.loaded
	p.mu.RUnlock()
	if res != nil {
		return res, nil
	}

	ch := p.group.DoChan("load", func() (any, error) {
		p.mu.RLock()
		res := p.loaded
		p.mu.RUnlock()
		if res != nil {
			return res, nil
		}

		res, err := p.load(ctx)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.loaded = res
		p.mu.Unlock()
		return res, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Resources), nil
	}
}

func (p *Provider) load(ctx context.Context) (*Resources, error) {
	start := time.Now()

	stopwords, err := text.LoadStopwordsFile(p.stopwordsPath)
	if err != nil {
		return nil, err
	}

	table, err := p.loadTable(ctx)
	if err != nil {
		return nil, err
	}

	p.logger.Info("embedding resources loaded",
		"terms", table.Len(),
		"dim", table.Dim(),
		"stopwords", len(stopwords),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return &Resources{Stopwords: stopwords, Table: table}, nil
}

func (p *Provider) loadTable(ctx context.Context) (*Table, error) {
	cacheIsDir := false
	if p.cachePath != "" {
		table, isDir, err := p.readCache()
		switch {
		case err == nil:
			return table, nil
		case errors.Is(err, fs.ErrNotExist):
			p.logger.Debug("no embedding cache", "path", p.cachePath)
		case p.source != nil:
			p.logger.Warn("embedding cache unusable, rebuilding", "path", p.cachePath, "err", err)
		default:
			return nil, fmt.Errorf("%w: %w", core.ErrResourceUnavailable, err)
		}
		cacheIsDir = isDir
	}

	if p.source == nil {
		return nil, fmt.Errorf("%w: %w", core.ErrResourceUnavailable, ErrNoSource)
	}

	p.logger.Info("building embedding table", "source", p.source.Describe())
	table, err := p.source.Build(ctx)
	if err != nil {
		return nil, err
	}

	if p.cachePath != "" && !cacheIsDir {
		if err := resources.WriteFileAtomic(p.cachePath, EncodeCache(table)); err != nil {
			p.logger.Warn("failed to persist embedding cache", "path", p.cachePath, "err", err)
		} else {
			p.logger.Info("embedding cache written", "path", p.cachePath)
		}
	}
	return table, nil
}

func (p *Provider) readCache() (*Table, bool, error) {
	info, err := os.Stat(p.cachePath)
	if err != nil {
		return nil, false, err
	}
	data, err := resources.ReadPath(p.cachePath)
	if err != nil {
		return nil, info.IsDir(), err
	}
	table, err := DecodeCache(data)
	return table, info.IsDir(), err
}
