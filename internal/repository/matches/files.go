package matches

import (
	"context"
	"fmt"

	"github.com/cricketmind/cricketmind/internal/domain"
	"github.com/cricketmind/cricketmind/internal/index"
	"github.com/cricketmind/cricketmind/internal/metadata"
)

// FileSink persists the index snapshot and the metadata file as a pair.
// The snapshot is written first so a crash between the two writes leaves the
// old metadata alongside the new snapshot, which the loader rejects via its
// alignment check instead of silently serving mismatched rows.
type FileSink struct {
	snapshotPath string
	metadataPath string
}

// NewFileSink creates a sink writing to the given artifact paths.
func NewFileSink(snapshotPath, metadataPath string) *FileSink {
	return &FileSink{snapshotPath: snapshotPath, metadataPath: metadataPath}
}

// ReplaceAll writes vectors and metadata in lockstep order.
func (s *FileSink) ReplaceAll(_ context.Context, rows []metadata.Row, vectors [][]float32) error {
	if len(rows) != len(vectors) {
		return fmt.Errorf("sink %d rows, %d vectors: %w", len(rows), len(vectors), domain.ErrIndexMisaligned)
	}

	matchIDs := make([]string, len(rows))
	for i, row := range rows {
		matchIDs[i] = row.MatchID
	}

	if err := index.WriteSnapshot(s.snapshotPath, matchIDs, vectors); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := metadata.WriteFile(s.metadataPath, rows); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}
