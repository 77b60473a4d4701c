package metadata

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches_metadata.csv")
	rows := []Row{
		{MatchID: "m1", TextRepr: "Match between India and Australia at MCG, on 2023-03-10."},
		{MatchID: "m2", TextRepr: "Text with, comma and \"quotes\""},
	}
	if err := WriteFile(path, rows); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", s.Len())
	}
	for i, want := range rows {
		got, err := s.Row(i)
		if err != nil {
			t.Fatalf("Row(%d): %v", i, err)
		}
		if got != want {
			t.Errorf("row %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestStore_RowOutOfRange(t *testing.T) {
	s := New([]Row{{MatchID: "m1", TextRepr: "t"}})
	if _, err := s.Row(1); err == nil {
		t.Error("expected error for out-of-range row")
	}
	if _, err := s.Row(-1); err == nil {
		t.Error("expected error for negative row")
	}
}

func TestLoadFile_BadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("id,text\nm1,t\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for unexpected header")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestStore_MatchIDs(t *testing.T) {
	s := New([]Row{{MatchID: "a"}, {MatchID: "b"}})
	ids := s.MatchIDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("unexpected ids: %v", ids)
	}
}
