package matches

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cricketmind/cricketmind/internal/db"
	"github.com/cricketmind/cricketmind/internal/domain"
	"github.com/cricketmind/cricketmind/internal/metadata"
)

const (
	keyPrefix  = "cricketmind:match:"
	indexName  = "cricketmind:matches:idx"
	ingestSize = 100 // hashes per pipelined HSET round-trip
)

// redisStore is the consumer interface for the redis driver (ISP).
type redisStore interface {
	db.HashStore
	db.IndexManager
	db.Searcher
}

// RedisRepo stores match documents as hashes {match_id, text_repr, vector}
// under a FLAT cosine FT index and searches them with FT.SEARCH KNN.
type RedisRepo struct {
	store redisStore
	dim   int
	size  int
}

// NewRedis creates a redis-backed match repository for vectors of the given
// dimension. corpusSize is used for top-k clamping; pass the document count
// reported by ReplaceAll or counted at startup.
func NewRedis(store redisStore, dim, corpusSize int) *RedisRepo {
	return &RedisRepo{store: store, dim: dim, size: corpusSize}
}

// Len returns the corpus size.
func (r *RedisRepo) Len() int { return r.size }

// Dim returns the vector dimension the index was created with.
func (r *RedisRepo) Dim() int { return r.dim }

// Search runs FT.SEARCH KNN and maps entries back to retrieved matches.
func (r *RedisRepo) Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievedMatch, error) {
	if len(vector) != r.dim {
		return nil, fmt.Errorf("query has dimension %d, index has %d: %w",
			len(vector), r.dim, domain.ErrDimensionMismatch)
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"match_id", "text_repr"},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}

	results := make([]domain.RetrievedMatch, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		results = append(results, domain.RetrievedMatch{
			MatchID:  e.Fields["match_id"],
			TextRepr: e.Fields["text_repr"],
			Score:    float32(e.Score),
		})
	}
	return results, nil
}

// ReplaceAll rebuilds the redis index from scratch: drops the old index and
// documents, writes the new documents in pipelined batches, then recreates
// the index. Row order is preserved for parity with the flat artifacts even
// though redis joins by document key rather than ordinal.
func (r *RedisRepo) ReplaceAll(ctx context.Context, rows []metadata.Row, vectors [][]float32) error {
	if len(rows) != len(vectors) {
		return fmt.Errorf("%d rows, %d vectors: %w", len(rows), len(vectors), domain.ErrIndexMisaligned)
	}

	if err := r.store.DropIndex(ctx, indexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index: %w", err)
	}
	stale, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("scan stale docs: %w", err)
	}
	for _, key := range stale {
		if err := r.store.Del(ctx, key); err != nil {
			return fmt.Errorf("delete stale doc %s: %w", key, err)
		}
	}

	items := make([]db.HashSetItem, 0, ingestSize)
	for i, row := range rows {
		if len(vectors[i]) != r.dim {
			return fmt.Errorf("vector %d has dimension %d, index has %d: %w",
				i, len(vectors[i]), r.dim, domain.ErrDimensionMismatch)
		}
		items = append(items, db.HashSetItem{
			Key: keyPrefix + row.MatchID,
			Fields: map[string]string{
				"match_id":  row.MatchID,
				"text_repr": row.TextRepr,
				"vector":    encodeVector(vectors[i]),
			},
		})
		if len(items) == ingestSize {
			if err := r.store.HSetMulti(ctx, items); err != nil {
				return fmt.Errorf("ingest batch at row %d: %w", i, err)
			}
			items = items[:0]
		}
	}
	if len(items) > 0 {
		if err := r.store.HSetMulti(ctx, items); err != nil {
			return fmt.Errorf("ingest final batch: %w", err)
		}
	}

	def := &db.IndexDefinition{
		Name:     indexName,
		Prefixes: []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: "match_id", Type: db.IndexFieldTag},
			{Name: "text_repr", Type: db.IndexFieldText},
			{Name: "vector", Type: db.IndexFieldVector, VectorDim: r.dim},
		},
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	r.size = len(rows)
	return nil
}

// LoadSize discovers the corpus size by scanning document keys. Called at
// startup when the index was built by an earlier process.
func (r *RedisRepo) LoadSize(ctx context.Context) error {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("scan docs: %w", err)
	}
	r.size = len(keys)
	return nil
}

func encodeVector(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
