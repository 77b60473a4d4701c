// Package metadata implements the CSV metadata table that accompanies the
// vector index. Row i of the table describes the i-th indexed vector; that
// ordinal correspondence is the only join key between the two artifacts.
package metadata

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// Row is one metadata table entry.
type Row struct {
	MatchID  string
	TextRepr string
}

// Store is an immutable, position-addressed metadata table.
type Store struct {
	rows []Row
}

// New wraps rows in a store. The slice is not copied; callers hand over ownership.
func New(rows []Row) *Store { return &Store{rows: rows} }

// Len returns the number of rows.
func (s *Store) Len() int { return len(s.rows) }

// Row returns the row at ordinal position i.
func (s *Store) Row(i int) (Row, error) {
	if i < 0 || i >= len(s.rows) {
		return Row{}, fmt.Errorf("metadata row %d out of range [0,%d)", i, len(s.rows))
	}
	return s.rows[i], nil
}

// MatchIDs returns the match_id column in row order.
func (s *Store) MatchIDs() []string {
	ids := make([]string, len(s.rows))
	for i, r := range s.rows {
		ids[i] = r.MatchID
	}
	return ids
}

// WriteFile persists rows as a CSV with a match_id,text_repr header, written
// via temp file + rename so the table and the index snapshot can be replaced
// in lockstep without a torn intermediate state.
func WriteFile(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".metadata-*.csv")
	if err != nil {
		return fmt.Errorf("create temp metadata: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{"match_id", "text_repr"}); err != nil {
		tmp.Close()
		return fmt.Errorf("write metadata header: %w", err)
	}
	for i, r := range rows {
		if err := w.Write([]string{r.MatchID, r.TextRepr}); err != nil {
			tmp.Close()
			return fmt.Errorf("write metadata row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp metadata: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename metadata: %w", err)
	}
	return nil
}

// LoadFile reads a metadata CSV written by WriteFile.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open metadata %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read metadata %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("metadata %s is empty", path)
	}
	if records[0][0] != "match_id" || records[0][1] != "text_repr" {
		return nil, fmt.Errorf("metadata %s: unexpected header %v", path, records[0])
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, Row{MatchID: rec[0], TextRepr: rec[1]})
	}
	return New(rows), nil
}
