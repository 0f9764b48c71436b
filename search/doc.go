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

// Package search ranks the caption lines of an indexed corpus against a
// natural-language query using soft-cosine similarity.
//
// An Engine scores one built index:
//
//	score(q, d) = qᵀSd / (sqrt(qᵀSq) * sqrt(dᵀSd))
//
// where q and d are TF-IDF weighted bag-of-words vectors and S is the term
// similarity matrix stored with the index. Unlike plain cosine, two lines can
// match without sharing a word when their words are close in embedding space.
//
// Results are ordered by descending score (ties by caption position), filtered
// by a minimum score and truncated to a maximum count.
//
// A Searcher serves queries for many corpora out of a storage.IndexRepository,
// keeping a built Engine per corpus key until the index is replaced.
package search
