package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/capsearch/core"
	"github.com/poiesic/capsearch/corpus"
	"github.com/poiesic/capsearch/embedding"
	"github.com/poiesic/capsearch/similarity"
	"github.com/poiesic/capsearch/storage"
	"github.com/poiesic/capsearch/text"
)

// Pipeline builds caption indexes and publishes them to a repository.
// Builds of different keys share only read-only resources and the worker
// pool, so a Pipeline may be used from several goroutines.
type Pipeline struct {
	repository storage.IndexRepository
	table      *embedding.Table
	normalizer *text.Normalizer
	pool       *ants.Pool
	tokenizer  *tokenizer
	matrixOpts []similarity.Option
	baseLogger *slog.Logger
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for normalization and matrix rows.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMatrixOptions passes options through to similarity.Build.
func WithMatrixOptions(opts ...similarity.Option) Option {
	return func(p *Pipeline) error {
		p.matrixOpts = append(p.matrixOpts, opts...)
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	repository storage.IndexRepository,
	table *embedding.Table,
	normalizer *text.Normalizer,
	opts ...Option,
) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if table == nil {
		return nil, ErrTableRequired
	}
	if normalizer == nil {
		return nil, ErrNormalizerRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository: repository,
		table:      table,
		normalizer: normalizer,
		pool:       pool,
		logger:     slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.baseLogger = p.logger
	p.logger = p.logger.With("component", "ingestion")
	p.tokenizer = newTokenizer(p.pool, normalizer, p.logger)

	return p, nil
}

// BuildOptions holds optional parameters for a build.
type BuildOptions struct {
	Rebuild      bool    // Replace an existing index instead of reusing it
	MergeSeconds float64 // Merge captions into windows of at least this length; 0 disables
}

// BuildReport describes the outcome of a build.
type BuildReport struct {
	Key       string
	Reused    bool // An existing index was kept and nothing was built
	Documents int
	Terms     int
	NonZero   int // Stored entries of the similarity matrix
	Elapsed   time.Duration
	Info      *core.IndexInfo
}

// Build indexes captions under key. If an index already exists for key it is
// reused unless opts.Rebuild is set. The index is published only once it is
// complete.
func (p *Pipeline) Build(ctx context.Context, key string, captions []core.Caption, opts *BuildOptions) (*BuildReport, error) {
	if opts == nil {
		opts = &BuildOptions{}
	}
	start := time.Now()

	normalized, err := core.NormalizeKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	for i := range captions {
		if err := core.ValidateCaption(&captions[i]); err != nil {
			return nil, fmt.Errorf("caption %d: %w", i, err)
		}
	}
	if opts.MergeSeconds < 0 {
		return nil, fmt.Errorf("%w: negative merge window %v", core.ErrInvalidInput, opts.MergeSeconds)
	}

	if !opts.Rebuild {
		info, err := p.repository.GetIndexInfo(ctx, normalized)
		if err == nil {
			p.logger.Info("reusing existing index", "key", normalized, "documents", info.Documents)
			return &BuildReport{
				Key:       normalized,
				Reused:    true,
				Documents: info.Documents,
				Terms:     info.Terms,
				Elapsed:   time.Since(start),
				Info:      info,
			}, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}

	state, err := p.BuildState(ctx, normalized, MergeCaptions(captions, opts.MergeSeconds))
	if err != nil {
		return nil, err
	}

	info, err := p.repository.SaveIndex(ctx, normalized, state)
	if err != nil {
		return nil, err
	}

	report := &BuildReport{
		Key:       normalized,
		Documents: len(state.Documents),
		Terms:     state.Dictionary.Len(),
		NonZero:   state.Matrix.NonZero(),
		Elapsed:   time.Since(start),
		Info:      info,
	}
	p.logger.Info("index built",
		"key", normalized,
		"documents", report.Documents,
		"terms", report.Terms,
		"nonzero", report.NonZero,
		"elapsed", report.Elapsed.Round(time.Millisecond))
	return report, nil
}

// BuildState computes a complete index for captions without storing it.
func (p *Pipeline) BuildState(ctx context.Context, key string, captions []core.Caption) (*core.IndexState, error) {
	tokens, err := p.tokenizer.process(ctx, captions)
	if err != nil {
		return nil, err
	}

	dict, tfidf := corpus.Build(tokens)

	opts := append([]similarity.Option{
		similarity.WithPool(p.pool),
		similarity.WithLogger(p.baseLogger),
	}, p.matrixOpts...)
	matrix, err := similarity.Build(ctx, p.table, dict, tfidf, opts...)
	if err != nil {
		return nil, err
	}

	documents := make([]core.Document, len(captions))
	for i, c := range captions {
		documents[i] = core.Document{
			Index:    i,
			Text:     c.Text,
			Start:    c.Start,
			Duration: c.Duration,
			Vector:   tfidf.Vectorize(dict, tokens[i]),
		}
	}

	return &core.IndexState{
		Key:        key,
		Tokenizer:  string(p.normalizer.Mode()),
		Dictionary: dict,
		Documents:  documents,
		Matrix:     matrix,
		BuiltAt:    time.Now().UTC(),
	}, nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
