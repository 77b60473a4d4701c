// Package index implements the brute-force inner-product similarity index
// used by the flat driver, plus its on-disk snapshot format.
package index

import (
	"fmt"
	"sort"

	"github.com/cricketmind/cricketmind/internal/domain"
)

// Hit is one search result: the ordinal position of a stored vector and its
// inner-product score against the query.
type Hit struct {
	Ordinal int
	Score   float32
}

// Flat is an exact inner-product index. Vectors are expected to be
// L2-normalized by the caller, which makes inner product equal cosine
// similarity. Safe for concurrent reads once built; Add is build-time only.
type Flat struct {
	dim     int
	vectors [][]float32
}

// NewFlat creates an empty index for vectors of the given dimension.
func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	return &Flat{dim: dim}, nil
}

// Add appends vectors in order. Ordinal positions are assigned by insertion
// order and never change afterwards.
func (f *Flat) Add(vecs ...[]float32) error {
	for i, v := range vecs {
		if len(v) != f.dim {
			return fmt.Errorf("vector %d has dimension %d, index has %d: %w",
				i, len(v), f.dim, domain.ErrDimensionMismatch)
		}
	}
	f.vectors = append(f.vectors, vecs...)
	return nil
}

// Len returns the number of stored vectors.
func (f *Flat) Len() int { return len(f.vectors) }

// Dim returns the vector dimension.
func (f *Flat) Dim() int { return f.dim }

// Search returns the k stored vectors with the highest inner product against
// query, ordered by descending score with ordinal as tiebreak. k greater than
// the corpus returns every vector; k <= 0 returns nil.
func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("query has dimension %d, index has %d: %w",
			len(query), f.dim, domain.ErrDimensionMismatch)
	}
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil
	}
	if k > len(f.vectors) {
		k = len(f.vectors)
	}

	hits := make([]Hit, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = Hit{Ordinal: i, Score: dot(v, query)}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Ordinal < hits[j].Ordinal
	})
	return hits[:k], nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
