package search

import (
	"cmp"
	"math"
	"slices"

	"github.com/poiesic/capsearch/core"
	"github.com/poiesic/capsearch/corpus"
	"github.com/poiesic/capsearch/text"
)

// Engine scores queries against one built index. It is immutable and safe
// for concurrent use.
type Engine struct {
	state      *core.IndexState
	normalizer *text.Normalizer
	tfidf      *corpus.TfidfModel
	docNorms   []float64 // sqrt(dᵀSd) per document
	params     Params
}

// EngineOption configures an Engine.
type EngineOption func(*Engine) error

// WithThreshold sets the default minimum score.
func WithThreshold(threshold float64) EngineOption {
	return func(e *Engine) error {
		p := e.params
		p.Threshold = threshold
		if err := p.Validate(); err != nil {
			return err
		}
		e.params = p
		return nil
	}
}

// WithLimit sets the default maximum number of results.
func WithLimit(limit int) EngineOption {
	return func(e *Engine) error {
		p := e.params
		p.Limit = limit
		if err := p.Validate(); err != nil {
			return err
		}
		e.params = p
		return nil
	}
}

// NewEngine prepares state for querying. The normalizer must be the one the
// index was built with.
func NewEngine(state *core.IndexState, normalizer *text.Normalizer, opts ...EngineOption) (*Engine, error) {
	if normalizer == nil {
		return nil, ErrNormalizerRequired
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	if string(normalizer.Mode()) != state.Tokenizer {
		return nil, ErrTokenizerMismatch
	}

	e := &Engine{
		state:      state,
		normalizer: normalizer,
		tfidf:      corpus.NewTfidf(state.Dictionary),
		params:     DefaultParams(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	acc := make([]float64, state.Dictionary.Len())
	e.docNorms = make([]float64, len(state.Documents))
	for i, doc := range state.Documents {
		e.docNorms[i] = math.Sqrt(quadratic(state.Matrix, doc.Vector, acc))
	}
	return e, nil
}

// State returns the index the engine scores against.
func (e *Engine) State() *core.IndexState {
	return e.state
}

// Params returns the engine's default parameters.
func (e *Engine) Params() Params {
	return e.params
}

// Score ranks documents with the engine's default parameters.
func (e *Engine) Score(query string) ([]core.Result, error) {
	return e.ScoreWith(query, e.params)
}

// ScoreWith ranks documents with explicit parameters.
func (e *Engine) ScoreWith(query string, params Params) ([]core.Result, error) {
	return e.score(query, params, &noopMonitor{})
}

// ScoreAll returns the soft-cosine score of every document, by position.
func (e *Engine) ScoreAll(query string) []float64 {
	return e.scoreTokens(e.normalizer.Normalize(query))
}

func (e *Engine) score(query string, params Params, monitor QueryMonitor) ([]core.Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	tokens := e.normalizer.Normalize(query)
	monitor.AfterNormalize(tokens)

	scores := e.scoreTokens(tokens)
	monitor.AfterScoring(scores)

	return e.rank(scores, params), nil
}

// scoreTokens computes soft-cosine scores for a normalized query.
func (e *Engine) scoreTokens(tokens []string) []float64 {
	scores := make([]float64, len(e.state.Documents))
	query := e.tfidf.Vectorize(e.state.Dictionary, tokens)
	if query.IsZero() {
		return scores
	}

	// sq = S·q, shared by the numerator and the query norm.
	sq := make([]float64, e.state.Dictionary.Len())
	for _, w := range query {
		for _, s := range e.state.Matrix.Row(w.ID) {
			sq[s.ID] += float64(w.Value) * float64(s.Value)
		}
	}
	var qq float64
	for _, w := range query {
		qq += float64(w.Value) * sq[w.ID]
	}
	if qq <= 0 {
		return scores
	}
	queryNorm := math.Sqrt(qq)

	for i, doc := range e.state.Documents {
		if e.docNorms[i] == 0 {
			continue
		}
		var dot float64
		for _, w := range doc.Vector {
			dot += float64(w.Value) * sq[w.ID]
		}
		scores[i] = clamp(dot / (queryNorm * e.docNorms[i]))
	}
	return scores
}

func (e *Engine) rank(scores []float64, params Params) []core.Result {
	order := make([]int, 0, len(scores))
	for i, s := range scores {
		if !params.Filtered() || s > params.Threshold {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(scores[b], scores[a])
	})
	if params.Limit > 0 && len(order) > params.Limit {
		order = order[:params.Limit]
	}

	results := make([]core.Result, len(order))
	for i, idx := range order {
		doc := e.state.Documents[idx]
		results[i] = core.Result{
			DocumentIndex: idx,
			Score:         scores[idx],
			Text:          doc.Text,
			Start:         doc.Start,
			Duration:      doc.Duration,
		}
	}
	return results
}

// quadratic returns vᵀSv, using acc as scratch space of dictionary length.
func quadratic(m *core.SimilarityMatrix, v core.SparseVector, acc []float64) float64 {
	for _, w := range v {
		for _, s := range m.Row(w.ID) {
			acc[s.ID] += float64(w.Value) * float64(s.Value)
		}
	}
	var sum float64
	for _, w := range v {
		sum += float64(w.Value) * acc[w.ID]
	}
	for _, w := range v {
		for _, s := range m.Row(w.ID) {
			acc[s.ID] = 0
		}
	}
	return sum
}

func clamp(score float64) float64 {
	switch {
	case math.IsNaN(score) || score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}
