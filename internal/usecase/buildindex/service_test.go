package buildindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/cricketmind/cricketmind/internal/domain"
	"github.com/cricketmind/cricketmind/internal/metadata"
)

type mockBatchEmbedder struct {
	dim     int
	err     error
	batches [][]string
}

func (m *mockBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batches = append(m.batches, texts)
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, m.dim)
		v[0] = float32(len(texts[i])) // arbitrary non-unit vector
		v[1] = 2
		embeddings[i] = v
	}
	return domain.BatchEmbeddingResult{
		Embeddings:  embeddings,
		TotalTokens: len(texts) * 10,
	}, nil
}

type mockSink struct {
	err        error
	gotRows    []metadata.Row
	gotVectors [][]float32
	calls      int
}

func (m *mockSink) ReplaceAll(_ context.Context, rows []metadata.Row, vectors [][]float32) error {
	m.calls++
	m.gotRows = rows
	m.gotVectors = vectors
	return m.err
}

func validRecord(id string) domain.MatchRecord {
	return domain.MatchRecord{
		MatchID:       id,
		Date:          "2024-05-01",
		City:          "Mumbai",
		Venue:         "Wankhede Stadium",
		Season:        "2024",
		MatchType:     "T20",
		Gender:        "male",
		Team1:         "India",
		Team2:         "Australia",
		Winner:        "India",
		PlayerOfMatch: "Kohli",
	}
}

func TestBuild_HappyPath(t *testing.T) {
	emb := &mockBatchEmbedder{dim: 4}
	sink := &mockSink{}
	svc := New(emb, sink, zap.NewNop())

	records := []domain.MatchRecord{validRecord("1"), validRecord("2"), validRecord("3")}

	stats, err := svc.Build(context.Background(), records)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if stats.Indexed != 3 || stats.Skipped != 0 {
		t.Errorf("stats = %+v, expected 3 indexed, 0 skipped", stats)
	}
	if stats.Dim != 4 {
		t.Errorf("Dim = %d, expected 4", stats.Dim)
	}
	if sink.calls != 1 {
		t.Fatalf("sink calls = %d, expected 1", sink.calls)
	}
	if len(sink.gotRows) != 3 || len(sink.gotVectors) != 3 {
		t.Fatalf("sink received %d rows, %d vectors", len(sink.gotRows), len(sink.gotVectors))
	}
	for i, row := range sink.gotRows {
		if row.MatchID != records[i].MatchID {
			t.Errorf("row[%d].MatchID = %q, expected %q", i, row.MatchID, records[i].MatchID)
		}
	}
}

func TestBuild_VectorsAreNormalized(t *testing.T) {
	emb := &mockBatchEmbedder{dim: 3}
	sink := &mockSink{}
	svc := New(emb, sink, zap.NewNop())

	if _, err := svc.Build(context.Background(), []domain.MatchRecord{validRecord("1")}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for i, v := range sink.gotVectors {
		var norm float64
		for _, x := range v {
			norm += float64(x) * float64(x)
		}
		if math.Abs(norm-1.0) > 1e-5 {
			t.Errorf("vector %d norm^2 = %f, expected 1.0", i, norm)
		}
	}
}

func TestBuild_SkipsMalformedRecords(t *testing.T) {
	emb := &mockBatchEmbedder{dim: 2}
	sink := &mockSink{}
	svc := New(emb, sink, zap.NewNop())

	bad := validRecord("2")
	bad.Venue = ""

	stats, err := svc.Build(context.Background(), []domain.MatchRecord{
		validRecord("1"), bad, validRecord("3"),
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if stats.Indexed != 2 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, expected 2 indexed, 1 skipped", stats)
	}
	if len(sink.gotRows) != 2 {
		t.Fatalf("sink received %d rows, expected 2", len(sink.gotRows))
	}
	if sink.gotRows[0].MatchID != "1" || sink.gotRows[1].MatchID != "3" {
		t.Errorf("sink rows = %+v, expected match IDs 1 and 3", sink.gotRows)
	}
}

func TestBuild_AllRecordsMalformed(t *testing.T) {
	bad := validRecord("1")
	bad.Winner = ""

	svc := New(&mockBatchEmbedder{dim: 2}, &mockSink{}, zap.NewNop())

	_, err := svc.Build(context.Background(), []domain.MatchRecord{bad})
	if err == nil {
		t.Fatal("expected error when no records are indexable")
	}
}

func TestBuild_BatchesLargeCorpus(t *testing.T) {
	emb := &mockBatchEmbedder{dim: 2}
	sink := &mockSink{}
	svc := New(emb, sink, zap.NewNop())

	records := make([]domain.MatchRecord, 150)
	for i := range records {
		records[i] = validRecord(fmt.Sprintf("%d", i))
	}

	stats, err := svc.Build(context.Background(), records)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(emb.batches) != 3 {
		t.Fatalf("embedder saw %d batches, expected 3", len(emb.batches))
	}
	if len(emb.batches[0]) != 64 || len(emb.batches[1]) != 64 || len(emb.batches[2]) != 22 {
		t.Errorf("batch sizes = %d/%d/%d, expected 64/64/22",
			len(emb.batches[0]), len(emb.batches[1]), len(emb.batches[2]))
	}
	if stats.Indexed != 150 {
		t.Errorf("Indexed = %d, expected 150", stats.Indexed)
	}
	if stats.TotalTokens != 1500 {
		t.Errorf("TotalTokens = %d, expected 1500", stats.TotalTokens)
	}
}

func TestBuild_EmbedderErrorAborts(t *testing.T) {
	wantErr := errors.New("provider down")
	sink := &mockSink{}
	svc := New(&mockBatchEmbedder{err: wantErr}, sink, zap.NewNop())

	_, err := svc.Build(context.Background(), []domain.MatchRecord{validRecord("1")})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped embedder error, got %v", err)
	}
	if sink.calls != 0 {
		t.Errorf("sink called %d times after embed failure, expected 0", sink.calls)
	}
}

func TestBuild_SinkErrorPropagates(t *testing.T) {
	wantErr := errors.New("disk full")
	svc := New(&mockBatchEmbedder{dim: 2}, &mockSink{err: wantErr}, zap.NewNop())

	_, err := svc.Build(context.Background(), []domain.MatchRecord{validRecord("1")})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped sink error, got %v", err)
	}
}
