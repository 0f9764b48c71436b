package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/capsearch/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	// ErrEmptyEmbedding is returned when the service answers without a vector.
	ErrEmptyEmbedding = errors.New("service returned no embedding")

	// ErrBatchMismatch is returned when a batch response does not line up
	// with the words that were sent.
	ErrBatchMismatch = errors.New("embedding batch mismatch")
)

// Embedder implements ai.Embedder over an OpenAI-compatible /embeddings
// endpoint. Every vector of a batch must share one dimension.
type Embedder struct {
	client embeddings.Embedder
	model  string
	logger *slog.Logger
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	llm, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.Token),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}

	client, err := embeddings.NewEmbedder(llm,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(config.BatchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return wrapEmbedder(client, config.EmbeddingModel), nil
}

func wrapEmbedder(client embeddings.Embedder, model string) *Embedder {
	return &Embedder{
		client: client,
		model:  model,
		logger: slog.Default().With("component", "openai-embedder", "model", model),
	}
}

// NewEmbedder creates an embedder for config.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText embeds a single word or phrase.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts in order. An empty input makes no request.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := e.client.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Warn("embedding request failed", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d texts, received %d vectors", ErrBatchMismatch, len(texts), len(vectors))
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrEmptyEmbedding, texts[i])
		}
		if len(v) != dim {
			return nil, fmt.Errorf("%w: %q has dimension %d, expected %d", ErrBatchMismatch, texts[i], len(v), dim)
		}
	}

	e.logger.Debug("embedded batch", "count", len(texts), "dimension", dim)
	return vectors, nil
}
