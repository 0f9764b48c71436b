package ingestion

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/capsearch/core"
	"github.com/poiesic/capsearch/text"
)

// tokenizer normalizes caption text on a worker pool.
type tokenizer struct {
	pool       *ants.Pool
	normalizer *text.Normalizer
	logger     *slog.Logger
}

func newTokenizer(pool *ants.Pool, normalizer *text.Normalizer, logger *slog.Logger) *tokenizer {
	return &tokenizer{
		pool:       pool,
		normalizer: normalizer,
		logger:     logger.With("stage", "normalize"),
	}
}

// process returns the normalized terms of every caption, by position.
func (t *tokenizer) process(ctx context.Context, captions []core.Caption) ([][]string, error) {
	t.logger.Debug("normalizing captions", "captions", len(captions))

	tokens := make([][]string, len(captions))
	var wg sync.WaitGroup
	for i := range captions {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		err := t.pool.Submit(func() {
			defer wg.Done()
			tokens[i] = t.normalizer.Normalize(captions[i].Text)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, err
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}
