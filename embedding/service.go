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
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/capsearch/ai"
	"github.com/poiesic/capsearch/core"
)

// ServiceConfig holds configuration for embedding a vocabulary through a service.
type ServiceConfig struct {
	// BatchSize is the number of words sent per request
	BatchSize int

	// ReportInterval is how often to report progress (number of words)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultServiceConfig returns a ServiceConfig with sensible defaults.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		BatchSize:      256,
		ReportInterval: 1000,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// ServiceSource builds a table by embedding every vocabulary word with an
// ai.Embedder.
type ServiceSource struct {
	embedder   ai.Embedder
	vocabulary []string
	config     *ServiceConfig
	progress   io.Writer
	logger     *slog.Logger
}

// NewServiceSource creates a source over vocabulary.
// progress: where to write progress output (typically os.Stderr), nil discards
func NewServiceSource(embedder ai.Embedder, vocabulary []string, config *ServiceConfig, progress io.Writer) *ServiceSource {
	if config == nil {
		config = DefaultServiceConfig()
	}
	return &ServiceSource{
		embedder:   embedder,
		vocabulary: vocabulary,
		config:     config,
		progress:   progress,
		logger:     slog.Default().With("component", "embedding-service-source"),
	}
}

// Describe implements Source.
func (s *ServiceSource) Describe() string {
	return fmt.Sprintf("service:%d words", len(s.vocabulary))
}

// Build implements Source.
func (s *ServiceSource) Build(ctx context.Context) (*Table, error) {
	if len(s.vocabulary) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", core.ErrResourceUnavailable)
	}
	batchSize := max(s.config.BatchSize, 1)

	tracker := NewProgressTracker(s.progress, len(s.vocabulary), s.config.ReportInterval)

	vectors := make([][]float32, 0, len(s.vocabulary))
	for start := 0; start < len(s.vocabulary); start += batchSize {
		end := min(start+batchSize, len(s.vocabulary))
		batch, attempts, err := s.embedBatch(ctx, s.vocabulary[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
		tracker.Batch(len(batch), attempts-1)
	}
	stats := tracker.Finish()

	s.logger.Info("embedded vocabulary",
		"words", stats.Words,
		"batches", stats.Batches,
		"retries", stats.Retries,
		"elapsed", stats.Elapsed.Round(time.Millisecond))
	return NewTable(s.vocabulary, vectors)
}

// embedBatch returns the vectors for words and the number of attempts it took.
func (s *ServiceSource) embedBatch(ctx context.Context, words []string) ([][]float32, int, error) {
	var vectors [][]float32
	attempts := 0
	err := RetryWithBackoff(ctx, s.logger, func(ctx context.Context) error {
		attempts++
		var err error
		vectors, err = s.embedder.EmbedTexts(ctx, words)
		return err
	}, s.config.MaxRetries, s.config.RetryDelay)
	if err != nil {
		return nil, attempts, fmt.Errorf("%w: failed to embed vocabulary after %d attempts: %w",
			core.ErrResourceUnavailable, attempts, err)
	}
	if len(vectors) != len(words) {
		return nil, attempts, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(words), len(vectors))
	}
	return vectors, attempts, nil
}
