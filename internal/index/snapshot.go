package index

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/cricketmind/cricketmind/internal/domain"
)

// SnapshotRow is one persisted index entry. The match_id column duplicates the
// metadata table's join key so a loader can verify ordinal alignment instead
// of trusting build-time discipline.
type SnapshotRow struct {
	Ordinal int64     `parquet:"ordinal"`
	MatchID string    `parquet:"match_id"`
	Vector  []float32 `parquet:"vector"`
}

// WriteSnapshot persists the index as a parquet file, one row per vector in
// insertion order. The file is written to a temp name and renamed so a crashed
// build never leaves a truncated snapshot behind.
func WriteSnapshot(path string, matchIDs []string, vectors [][]float32) error {
	if len(matchIDs) != len(vectors) {
		return fmt.Errorf("write snapshot: %d ids, %d vectors: %w",
			len(matchIDs), len(vectors), domain.ErrIndexMisaligned)
	}

	rows := make([]SnapshotRow, len(vectors))
	for i, v := range vectors {
		rows[i] = SnapshotRow{Ordinal: int64(i), MatchID: matchIDs[i], Vector: v}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.parquet")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := parquet.NewGenericWriter[SnapshotRow](tmp)
	if _, err := w.Write(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot rows: %w", err)
	}
	if err := w.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("close snapshot writer: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads a snapshot and rebuilds the flat index. Returns the index
// and the match_id column in ordinal order for alignment checks.
func ReadSnapshot(path string) (*Flat, []string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("snapshot %s: %w", path, domain.ErrIndexNotFound)
	}

	rows, err := parquet.ReadFile[SnapshotRow](path)
	if err != nil {
		return nil, nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("snapshot %s is empty", path)
	}

	dim := len(rows[0].Vector)
	flat, err := NewFlat(dim)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot %s: %w", path, err)
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		if row.Ordinal != int64(i) {
			return nil, nil, fmt.Errorf("snapshot %s: row %d has ordinal %d: %w",
				path, i, row.Ordinal, domain.ErrIndexMisaligned)
		}
		if err := flat.Add(row.Vector); err != nil {
			return nil, nil, fmt.Errorf("snapshot %s row %d: %w", path, i, err)
		}
		ids[i] = row.MatchID
	}
	return flat, ids, nil
}
