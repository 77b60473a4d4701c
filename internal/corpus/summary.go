package corpus

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cricketmind/cricketmind/internal/domain"
)

// summaryHeader is the column order of the summary table. The text_repr
// column is derived at write time so downstream consumers never re-derive it
// with a drifted template.
var summaryHeader = []string{
	"match_id", "date", "city", "venue", "season", "event_name",
	"match_type", "gender", "team1", "team2", "toss_winner",
	"toss_decision", "winner", "overs", "player_of_match",
	"first_innings_runs", "text_repr",
}

// WriteSummary persists records as the summary CSV, one row per match in
// input order, with the computed text representation as the last column.
func WriteSummary(path string, records []domain.MatchRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create summary dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".summary-*.csv")
	if err != nil {
		return fmt.Errorf("create temp summary: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(summaryHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write summary header: %w", err)
	}
	for _, rec := range records {
		textRepr, err := domain.Summarize(rec)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("write summary: %w", err)
		}
		runs := ""
		if rec.FirstInningsRuns != nil {
			runs = strconv.Itoa(*rec.FirstInningsRuns)
		}
		row := []string{
			rec.MatchID, rec.Date, rec.City, rec.Venue, rec.Season, rec.EventName,
			rec.MatchType, rec.Gender, rec.Team1, rec.Team2, rec.TossWinner,
			rec.TossDecision, rec.Winner, strconv.Itoa(rec.Overs), rec.PlayerOfMatch,
			runs, textRepr,
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("write summary row %s: %w", rec.MatchID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush summary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp summary: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename summary: %w", err)
	}
	return nil
}

// LoadSummary reads a summary CSV written by WriteSummary back into records.
// The stored text_repr column is ignored; Summarize is the source of truth.
func LoadSummary(path string) ([]domain.MatchRecord, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open summary %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(summaryHeader)

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read summary %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("summary %s is empty", path)
	}
	for i, col := range summaryHeader {
		if rows[0][i] != col {
			return nil, fmt.Errorf("summary %s: column %d is %q, want %q", path, i, rows[0][i], col)
		}
	}

	records := make([]domain.MatchRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		overs, err := strconv.Atoi(row[13])
		if err != nil {
			return nil, fmt.Errorf("summary %s row %d: overs %q: %w", path, i+1, row[13], err)
		}
		rec := domain.MatchRecord{
			MatchID: row[0], Date: row[1], City: row[2], Venue: row[3],
			Season: row[4], EventName: row[5], MatchType: row[6], Gender: row[7],
			Team1: row[8], Team2: row[9], TossWinner: row[10], TossDecision: row[11],
			Winner: row[12], Overs: overs, PlayerOfMatch: row[14],
		}
		if row[15] != "" {
			runs, err := strconv.Atoi(row[15])
			if err != nil {
				return nil, fmt.Errorf("summary %s row %d: first_innings_runs %q: %w",
					path, i+1, row[15], err)
			}
			rec.FirstInningsRuns = &runs
		}
		records = append(records, rec)
	}
	return records, nil
}
