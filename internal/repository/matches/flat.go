// Package matches implements match searchers over the two index drivers: the
// file-backed flat index and a Redis FT index.
package matches

import (
	"context"
	"fmt"

	"github.com/cricketmind/cricketmind/internal/domain"
	"github.com/cricketmind/cricketmind/internal/index"
	"github.com/cricketmind/cricketmind/internal/metadata"
)

// FlatRepo joins flat index hits to metadata rows by ordinal position. The
// ordinal is the only key between the two artifacts, so the constructor
// refuses to build a repo whose stores disagree.
type FlatRepo struct {
	flat *index.Flat
	meta *metadata.Store
}

// NewFlat verifies the index snapshot and metadata table are aligned and
// returns the repo. snapshotIDs is the match_id column recorded in the index
// snapshot, in ordinal order.
func NewFlat(flat *index.Flat, snapshotIDs []string, meta *metadata.Store) (*FlatRepo, error) {
	if flat.Len() != meta.Len() {
		return nil, fmt.Errorf("index has %d vectors, metadata has %d rows: %w",
			flat.Len(), meta.Len(), domain.ErrIndexMisaligned)
	}
	for i, id := range snapshotIDs {
		row, err := meta.Row(i)
		if err != nil {
			return nil, fmt.Errorf("metadata row %d: %w", i, err)
		}
		if row.MatchID != id {
			return nil, fmt.Errorf("row %d: index has match %q, metadata has %q: %w",
				i, id, row.MatchID, domain.ErrIndexMisaligned)
		}
	}
	return &FlatRepo{flat: flat, meta: meta}, nil
}

// Len returns the corpus size.
func (r *FlatRepo) Len() int { return r.flat.Len() }

// Dim returns the index vector dimension.
func (r *FlatRepo) Dim() int { return r.flat.Dim() }

// Search returns the top-k matches for an L2-normalized query vector, ordered
// by descending similarity.
func (r *FlatRepo) Search(_ context.Context, vector []float32, k int) ([]domain.RetrievedMatch, error) {
	hits, err := r.flat.Search(vector, k)
	if err != nil {
		return nil, fmt.Errorf("flat search: %w", err)
	}

	results := make([]domain.RetrievedMatch, 0, len(hits))
	for _, h := range hits {
		row, err := r.meta.Row(h.Ordinal)
		if err != nil {
			return nil, fmt.Errorf("lookup hit ordinal %d: %w", h.Ordinal, err)
		}
		results = append(results, domain.RetrievedMatch{
			MatchID:  row.MatchID,
			TextRepr: row.TextRepr,
			Score:    h.Score,
		})
	}
	return results, nil
}
