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

package corpus

import (
	"math"

	"github.com/poiesic/capsearch/core"
)

// weightEpsilon is the magnitude below which normalized weights are dropped.
const weightEpsilon = 1e-12

// TfidfModel holds one inverse document frequency per dictionary term.
// It is immutable and safe for concurrent use.
type TfidfModel struct {
	idf []float64
}

// Build creates the dictionary and TF-IDF model for a sequence of normalized
// documents. Empty documents count toward N but add no terms.
func Build(documents [][]string) (*core.Dictionary, *TfidfModel) {
	builder := core.NewDictionaryBuilder()
	for _, doc := range documents {
		builder.Add(doc)
	}
	dict := builder.Dictionary()
	return dict, NewTfidf(dict)
}

// NewTfidf derives the model from a dictionary's document frequencies.
func NewTfidf(dict *core.Dictionary) *TfidfModel {
	n := float64(dict.NumDocs())
	idf := make([]float64, dict.Len())
	for i := range idf {
		df := float64(dict.DocFreq(core.TermID(i)))
		if df > 0 && n > 0 {
			idf[i] = math.Log2(n / df)
		}
	}
	return &TfidfModel{idf: idf}
}

// Len returns the number of terms the model covers.
func (m *TfidfModel) Len() int {
	return len(m.idf)
}

// IDF returns the inverse document frequency of id, or 0 for unknown IDs.
func (m *TfidfModel) IDF(id core.TermID) float64 {
	if id < 0 || int(id) >= len(m.idf) {
		return 0
	}
	return m.idf[id]
}

// Weight converts a bag of words into a unit-length TF-IDF vector. Terms
// present in every document weigh zero and are omitted, so the result may be
// empty even when bow is not.
func (m *TfidfModel) Weight(bow core.BagOfWords) core.SparseVector {
	raw := make([]float64, len(bow))
	var sum float64
	for i, tc := range bow {
		w := float64(tc.Count) * m.IDF(tc.ID)
		raw[i] = w
		sum += w * w
	}
	if sum == 0 {
		return core.SparseVector{}
	}

	norm := math.Sqrt(sum)
	vec := make(core.SparseVector, 0, len(bow))
	for i, tc := range bow {
		w := raw[i] / norm
		if math.Abs(w) <= weightEpsilon {
			continue
		}
		vec = append(vec, core.Weight{ID: tc.ID, Value: float32(w)})
	}
	return vec
}

// Vectorize projects normalized tokens through dict and weighs them.
func (m *TfidfModel) Vectorize(dict *core.Dictionary, tokens []string) core.SparseVector {
	return m.Weight(dict.Doc2Bow(tokens))
}
