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

package capsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/capsearch/ai"
	"github.com/poiesic/capsearch/ai/openai"
	"github.com/poiesic/capsearch/config"
	"github.com/poiesic/capsearch/core"
	"github.com/poiesic/capsearch/embedding"
	"github.com/poiesic/capsearch/ingestion"
	"github.com/poiesic/capsearch/search"
	"github.com/poiesic/capsearch/similarity"
	"github.com/poiesic/capsearch/storage"
	"github.com/poiesic/capsearch/storage/badger"
	"github.com/poiesic/capsearch/text"
)

// Config is the immutable process configuration of a Service.
type Config struct {
	DBPath   string
	InMemory bool

	EmbeddingsPath string // Embedding cache file or chunk directory
	VectorsPath    string // word2vec text vectors used when the cache is missing
	VectorsLimit   int
	VocabularyPath string // Word list embedded through AI when no vectors are given
	StopwordsPath  string // Empty uses the bundled English list
	AI             *ai.Config

	Tokenizer           text.Mode
	MergeSeconds        float64
	SimilarityThreshold float64
	Exponent            float64
	NonzeroLimit        int
	PoolSize            int

	Search    search.Params
	CacheSize int // Indexes kept loaded by the service's searcher; 0 uses search.DefaultCacheSize
}

// DefaultConfig mirrors config.Default.
func DefaultConfig() *Config {
	cfg, err := ConfigFromFile(config.Default())
	if err != nil {
		panic(err)
	}
	return cfg
}

// ConfigFromFile converts a configuration file into a Config.
func ConfigFromFile(f *config.File) (*Config, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	mode, err := text.ParseMode(f.Index.Tokenizer)
	if err != nil {
		return nil, err
	}
	return &Config{
		DBPath:         f.Database.Path,
		InMemory:       f.Database.InMemory,
		EmbeddingsPath: f.Resources.Embeddings,
		VectorsPath:    f.Resources.Vectors,
		VectorsLimit:   f.Resources.VectorsLimit,
		VocabularyPath: f.Resources.Vocabulary,
		StopwordsPath:  f.Resources.Stopwords,
		AI: ai.NewConfig(
			ai.WithEmbeddingHost(f.Embedding.Host),
			ai.WithEmbeddingModel(f.Embedding.Model),
			ai.WithToken(f.Embedding.Token),
			ai.WithBatchSize(f.Embedding.BatchSize),
		),
		Tokenizer:           mode,
		MergeSeconds:        f.Index.MergeSeconds,
		SimilarityThreshold: f.Index.SimilarityThreshold,
		Exponent:            f.Index.Exponent,
		NonzeroLimit:        f.Index.NonzeroLimit,
		PoolSize:            f.Index.PoolSize,
		Search:              search.Params{Threshold: f.Search.Threshold, Limit: f.Search.Limit},
		CacheSize:           f.Search.CacheSize,
	}, nil
}

// Option configures a Service.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	resources *embedding.Resources
	provider  ai.AIProvider
	progress  io.Writer
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithResources supplies already loaded resources, skipping the embedding load.
func WithResources(res *embedding.Resources) Option {
	return func(o *options) {
		o.resources = res
	}
}

// WithAIProvider replaces the OpenAI-compatible provider used to embed a vocabulary.
func WithAIProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithProgress reports vocabulary embedding progress to w.
func WithProgress(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

func applyOptions(opts []Option) *options {
	o := &options{logger: slog.Default(), progress: io.Discard}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ResourceLoader owns the embedding provider and, when a vocabulary is
// embedded through a service, the AI provider behind it.
type ResourceLoader struct {
	*embedding.Provider
	ai ai.AIProvider
}

// Close releases the AI provider, if one was opened.
func (l *ResourceLoader) Close() error {
	if l.ai == nil {
		return nil
	}
	return l.ai.Close()
}

// NewResourceLoader builds the embedding provider described by cfg. Vectors
// take precedence over a vocabulary when both are configured.
func NewResourceLoader(cfg *Config, opts ...Option) (*ResourceLoader, error) {
	o := applyOptions(opts)
	loader := &ResourceLoader{}

	providerOpts := []embedding.Option{
		embedding.WithCachePath(cfg.EmbeddingsPath),
		embedding.WithStopwordsPath(cfg.StopwordsPath),
		embedding.WithLogger(o.logger),
	}
	switch {
	case cfg.VectorsPath != "":
		providerOpts = append(providerOpts, embedding.WithSource(&embedding.TextVectorsSource{
			Path:  cfg.VectorsPath,
			Limit: cfg.VectorsLimit,
		}))
	case cfg.VocabularyPath != "":
		vocabulary, err := embedding.LoadVocabularyFile(cfg.VocabularyPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrResourceUnavailable, err)
		}
		provider := o.provider
		if provider == nil {
			provider, err = openai.NewProvider(cfg.AI)
			if err != nil {
				return nil, err
			}
			loader.ai = provider
		}
		serviceConfig := embedding.DefaultServiceConfig()
		if cfg.AI != nil {
			serviceConfig.BatchSize = cfg.AI.BatchSize
		}
		providerOpts = append(providerOpts, embedding.WithSource(
			embedding.NewServiceSource(provider.Embedder(), vocabulary, serviceConfig, o.progress)))
	}

	provider, err := embedding.NewProvider(providerOpts...)
	if err != nil {
		loader.Close()
		return nil, err
	}
	loader.Provider = provider
	return loader, nil
}

// Service is a caption search database: it builds indexes into a badger
// store and answers queries against them.
type Service struct {
	cfg       *Config
	backend   *badger.Backend
	repo      storage.IndexRepository
	resources *embedding.Resources
	builder   *text.Normalizer
	simple    *text.Normalizer
	lemma     *text.Normalizer
	pipeline  *ingestion.Pipeline
	searcher  *search.Searcher
	logger    *slog.Logger
}

// Open loads resources and opens the store described by cfg.
func Open(ctx context.Context, cfg *Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Search.Validate(); err != nil {
		return nil, err
	}
	o := applyOptions(opts)

	res := o.resources
	if res == nil {
		loader, err := NewResourceLoader(cfg, opts...)
		if err != nil {
			return nil, err
		}
		res, err = loader.Load(ctx)
		loader.Close()
		if err != nil {
			return nil, err
		}
	}
	if res.Table == nil {
		return nil, fmt.Errorf("%w: %w", core.ErrResourceUnavailable, embedding.ErrNoSource)
	}

	// Open backend
	backend, err := badger.OpenBackend(cfg.DBPath, cfg.InMemory)
	if err != nil {
		return nil, err
	}

	// Create index repository
	repo, err := badger.NewIndexRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	s := &Service{
		cfg:       cfg,
		backend:   backend,
		repo:      repo,
		resources: res,
		logger:    o.logger.With("component", "capsearch"),
	}
	if err := s.init(o.logger); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) init(logger *slog.Logger) error {
	var err error
	s.simple, err = text.New(s.resources.Stopwords)
	if err != nil {
		return err
	}
	s.lemma, err = text.New(s.resources.Stopwords, text.WithLemmatizer(s.resources.Table))
	if err != nil {
		return err
	}
	s.builder = s.simple
	if s.cfg.Tokenizer == text.ModeLemma {
		s.builder = s.lemma
	}

	s.pipeline, err = s.NewPipeline(ingestion.WithLogger(logger))
	if err != nil {
		return err
	}
	s.searcher, err = s.NewSearcher(search.WithLogger(logger))
	return err
}

// Close releases the pipeline, the repository and the backend.
func (s *Service) Close() error {
	if s.pipeline != nil {
		s.pipeline.Release()
	}

	var errs []error
	if err := s.repo.Close(); err != nil {
		s.logger.Error("error closing index repository", "err", err)
		errs = append(errs, err)
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Build indexes captions under key. A nil opts uses the configured merge window.
func (s *Service) Build(ctx context.Context, key string, captions []core.Caption, opts *ingestion.BuildOptions) (*ingestion.BuildReport, error) {
	if opts == nil {
		opts = &ingestion.BuildOptions{MergeSeconds: s.cfg.MergeSeconds}
	}
	report, err := s.pipeline.Build(ctx, key, captions, opts)
	if err != nil {
		return nil, err
	}
	if !report.Reused {
		s.searcher.Invalidate(report.Key)
	}
	return report, nil
}

// Query ranks the caption lines indexed under key. A nil params uses the
// configured defaults.
func (s *Service) Query(ctx context.Context, key, query string, params *search.Params) ([]core.Result, error) {
	return s.searcher.Query(ctx, key, query, params)
}

// HasIndex reports whether an index exists for key.
func (s *Service) HasIndex(ctx context.Context, key string) (bool, error) {
	return s.repo.HasIndex(ctx, key)
}

// Info returns the manifest of the index stored for key.
func (s *Service) Info(ctx context.Context, key string) (*core.IndexInfo, error) {
	info, err := s.repo.GetIndexInfo(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	return info, err
}

// Delete removes the index stored for key.
func (s *Service) Delete(ctx context.Context, key string) error {
	err := s.repo.DeleteIndex(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	if err != nil {
		return err
	}
	s.searcher.Invalidate(key)
	return nil
}

// List returns the manifests of every stored index, ordered by key.
func (s *Service) List(ctx context.Context) ([]*core.IndexInfo, error) {
	return s.repo.ListIndexes(ctx)
}

// Resources returns the loaded embedding table and stopwords.
func (s *Service) Resources() *embedding.Resources {
	return s.resources
}

// IndexRepository returns the underlying index store.
func (s *Service) IndexRepository() storage.IndexRepository {
	return s.repo
}

// NewPipeline creates a build pipeline over the service's store, using the
// configured tokenizer and matrix settings. The caller must Release it.
func (s *Service) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{
		ingestion.WithMatrixOptions(
			similarity.WithThreshold(s.cfg.SimilarityThreshold),
			similarity.WithExponent(s.cfg.Exponent),
			similarity.WithNonzeroLimit(s.cfg.NonzeroLimit),
		),
	}
	if s.cfg.PoolSize > 0 {
		base = append(base, ingestion.WithPoolSize(s.cfg.PoolSize))
	}
	return ingestion.NewPipeline(s.repo, s.resources.Table, s.builder, append(base, opts...)...)
}

// NewSearcher creates a searcher over the service's store that understands
// both tokenizer modes. Its engine cache is independent of the service's.
func (s *Service) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{
		search.WithNormalizer(s.simple),
		search.WithNormalizer(s.lemma),
		search.WithParams(s.cfg.Search),
	}
	if s.cfg.CacheSize > 0 {
		base = append(base, search.WithCacheSize(s.cfg.CacheSize))
	}
	return search.NewSearcher(s.repo, append(base, opts...)...)
}
