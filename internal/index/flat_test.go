package index

import (
	"errors"
	"testing"

	"github.com/cricketmind/cricketmind/internal/domain"
)

func buildIndex(t *testing.T, vecs ...[]float32) *Flat {
	t.Helper()
	f, err := NewFlat(len(vecs[0]))
	if err != nil {
		t.Fatalf("NewFlat: %v", err)
	}
	if err := f.Add(vecs...); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return f
}

func TestFlatSearch_Ordering(t *testing.T) {
	f := buildIndex(t,
		[]float32{1, 0},
		[]float32{0, 1},
		[]float32{0.707, 0.707},
	)

	hits, err := f.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	wantOrder := []int{0, 2, 1}
	for i, want := range wantOrder {
		if hits[i].Ordinal != want {
			t.Errorf("hit %d: got ordinal %d, want %d", i, hits[i].Ordinal, want)
		}
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("scores not descending: %v", hits)
		}
	}
}

func TestFlatSearch_Deterministic(t *testing.T) {
	f := buildIndex(t,
		[]float32{0.6, 0.8},
		[]float32{0.8, 0.6},
		[]float32{1, 0},
		[]float32{0, 1},
	)
	query := []float32{0.5, 0.5}

	first, err := f.Search(query, 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	second, err := f.Search(query, 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("results differ between identical searches:\n%v\n%v", first, second)
		}
	}
}

func TestFlatSearch_TiesBreakByOrdinal(t *testing.T) {
	f := buildIndex(t,
		[]float32{1, 0},
		[]float32{1, 0},
	)
	hits, err := f.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits[0].Ordinal != 0 || hits[1].Ordinal != 1 {
		t.Errorf("equal scores must rank by ordinal, got %v", hits)
	}
}

func TestFlatSearch_TopKBeyondCorpus(t *testing.T) {
	f := buildIndex(t, []float32{1, 0}, []float32{0, 1})
	hits, err := f.Search([]float32{1, 0}, 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected corpus-size results, got %d", len(hits))
	}
}

func TestFlatSearch_NonPositiveK(t *testing.T) {
	f := buildIndex(t, []float32{1, 0})
	hits, err := f.Search([]float32{1, 0}, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits != nil {
		t.Errorf("expected no hits for k=0, got %v", hits)
	}
}

func TestFlat_DimensionMismatch(t *testing.T) {
	f := buildIndex(t, []float32{1, 0})

	if err := f.Add([]float32{1, 2, 3}); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("Add: expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := f.Search([]float32{1}, 1); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("Search: expected ErrDimensionMismatch, got %v", err)
	}
}

func TestNewFlat_InvalidDim(t *testing.T) {
	if _, err := NewFlat(0); err == nil {
		t.Error("expected error for zero dimension")
	}
}
