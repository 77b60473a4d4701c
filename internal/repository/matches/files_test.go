package matches

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/cricketmind/cricketmind/internal/domain"
	"github.com/cricketmind/cricketmind/internal/index"
	"github.com/cricketmind/cricketmind/internal/metadata"
)

func TestFileSink_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	snapshotPath := filepath.Join(dir, "index.parquet")
	metadataPath := filepath.Join(dir, "metadata.csv")

	rows := []metadata.Row{
		{MatchID: "1001", TextRepr: "first summary"},
		{MatchID: "1002", TextRepr: "second summary"},
	}
	vectors := [][]float32{{1, 0}, {0, 1}}

	sink := NewFileSink(snapshotPath, metadataPath)
	if err := sink.ReplaceAll(context.Background(), rows, vectors); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	flat, ids, err := index.ReadSnapshot(snapshotPath)
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	store, err := metadata.LoadFile(metadataPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	repo, err := NewFlat(flat, ids, store)
	if err != nil {
		t.Fatalf("NewFlat failed: %v", err)
	}
	if repo.Len() != 2 {
		t.Errorf("Len = %d, expected 2", repo.Len())
	}

	got, err := repo.Search(context.Background(), []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 || got[0].MatchID != "1001" {
		t.Errorf("Search = %+v, expected match 1001", got)
	}
}

func TestFileSink_MisalignedInput(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(filepath.Join(dir, "i.parquet"), filepath.Join(dir, "m.csv"))

	rows := []metadata.Row{{MatchID: "1", TextRepr: "a"}}
	err := sink.ReplaceAll(context.Background(), rows, [][]float32{{1}, {2}})
	if !errors.Is(err, domain.ErrIndexMisaligned) {
		t.Fatalf("expected ErrIndexMisaligned, got %v", err)
	}
}
