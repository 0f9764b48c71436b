package similarity

import (
	"cmp"
	"context"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/capsearch/core"
	"github.com/poiesic/capsearch/corpus"
	"github.com/poiesic/capsearch/embedding"
)

// neighbor is a candidate off-diagonal entry.
type neighbor struct {
	id    core.TermID
	value float64
}

// Build computes the term similarity matrix for dict.
func Build(ctx context.Context, table *embedding.Table, dict *core.Dictionary, tfidf *corpus.TfidfModel, opts ...Option) (*core.SimilarityMatrix, error) {
	if table == nil || dict == nil || tfidf == nil {
		return nil, ErrMissingInput
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	logger := cfg.logger.With("component", "similarity")
	start := time.Now()

	vectors := make([][]float32, dict.Len())
	var embedded []core.TermID
	for i := range vectors {
		if v, ok := table.Vector(dict.Term(core.TermID(i))); ok {
			vectors[i] = v
			embedded = append(embedded, core.TermID(i))
		}
	}

	candidates, err := computeCandidates(ctx, cfg, vectors, embedded)
	if err != nil {
		return nil, err
	}

	rows := assemble(dict.Len(), tfidf, candidates, cfg.nonzeroLimit)
	matrix, err := core.NewSimilarityMatrix(rows)
	if err != nil {
		return nil, err
	}

	logger.Debug("similarity matrix built",
		"terms", dict.Len(),
		"embedded", len(embedded),
		"nonzero", matrix.NonZero(),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return matrix, nil
}

// computeCandidates finds, for every embedded term, its best neighbours in
// descending similarity order (ties by ID), at most nonzeroLimit of them.
func computeCandidates(ctx context.Context, cfg *config, vectors [][]float32, embedded []core.TermID) ([][]neighbor, error) {
	candidates := make([][]neighbor, len(vectors))
	if cfg.nonzeroLimit == 0 || len(embedded) < 2 {
		return candidates, nil
	}

	pool := cfg.pool
	if pool == nil {
		p, err := ants.NewPool(cfg.poolSize)
		if err != nil {
			return nil, err
		}
		defer p.Release()
		pool = p
	}

	var wg sync.WaitGroup
	for _, id := range embedded {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			candidates[id] = nearest(cfg, vectors, embedded, id)
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
	return candidates, nil
}

func nearest(cfg *config, vectors [][]float32, embedded []core.TermID, id core.TermID) []neighbor {
	var out []neighbor
	for _, other := range embedded {
		if other == id {
			continue
		}
		cos := embedding.Dot(vectors[id], vectors[other])
		if cos <= cfg.threshold {
			continue
		}
		out = append(out, neighbor{id: other, value: math.Pow(min(cos, 1), cfg.exponent)})
	}
	slices.SortFunc(out, func(a, b neighbor) int {
		if c := cmp.Compare(b.value, a.value); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	if len(out) > cfg.nonzeroLimit {
		out = out[:cfg.nonzeroLimit]
	}
	return out
}

// assemble places candidate pairs symmetrically, visiting terms by
// decreasing IDF (ties by ID) and skipping pairs that would push either row
// past limit.
func assemble(n int, tfidf *corpus.TfidfModel, candidates [][]neighbor, limit int) [][]core.Weight {
	order := make([]core.TermID, n)
	for i := range order {
		order[i] = core.TermID(i)
	}
	slices.SortStableFunc(order, func(a, b core.TermID) int {
		return cmp.Compare(tfidf.IDF(b), tfidf.IDF(a))
	})

	entries := make([]map[core.TermID]float32, n)
	for i := range entries {
		entries[i] = map[core.TermID]float32{core.TermID(i): 1}
	}
	counts := make([]int, n)

	for _, t1 := range order {
		for _, cand := range candidates[t1] {
			if counts[t1] >= limit {
				break
			}
			t2 := cand.id
			if _, exists := entries[t1][t2]; exists {
				continue
			}
			if counts[t2] >= limit {
				continue
			}
			v := float32(cand.value)
			entries[t1][t2] = v
			entries[t2][t1] = v
			counts[t1]++
			counts[t2]++
		}
	}

	rows := make([][]core.Weight, n)
	for i, m := range entries {
		row := make([]core.Weight, 0, len(m))
		for id, v := range m {
			row = append(row, core.Weight{ID: id, Value: v})
		}
		slices.SortFunc(row, func(a, b core.Weight) int { return cmp.Compare(a.ID, b.ID) })
		rows[i] = row
	}
	return rows
}
