// Package corpus implements the offline preprocessing pass: it flattens
// per-match JSON files into match records and persists them as the summary
// table consumed by the index build.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cricketmind/cricketmind/internal/domain"
)

// matchFile mirrors the subset of the per-match JSON layout we read.
type matchFile struct {
	Info struct {
		MatchID   string `json:"match_id"`
		City      string `json:"city"`
		Dates     []string `json:"dates"`
		Venue     string `json:"venue"`
		Season    json.RawMessage `json:"season"`
		MatchType string `json:"match_type"`
		Gender    string `json:"gender"`
		Overs     int    `json:"overs"`
		Teams     []string `json:"teams"`
		Event     struct {
			Name string `json:"name"`
		} `json:"event"`
		Toss struct {
			Winner   string `json:"winner"`
			Decision string `json:"decision"`
		} `json:"toss"`
		Outcome struct {
			Winner string `json:"winner"`
		} `json:"outcome"`
		PlayerOfMatch []string `json:"player_of_match"`
	} `json:"info"`
	Innings []struct {
		Overs []struct {
			Deliveries []struct {
				Runs struct {
					Total int `json:"total"`
				} `json:"runs"`
			} `json:"deliveries"`
		} `json:"overs"`
	} `json:"innings"`
}

// LoadDir reads every .json file under dir into match records. Unreadable or
// malformed files are skipped with a warning; the pass completes for all
// valid files.
func LoadDir(dir string, logger *zap.Logger) ([]domain.MatchRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("no .json match files in %s", dir)
	}

	records := make([]domain.MatchRecord, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name)) //nolint:gosec // paths come from ReadDir
		if err != nil {
			logger.Warn("skipping unreadable match file", zap.String("file", name), zap.Error(err))
			continue
		}
		rec, err := ParseMatch(data, strings.TrimSuffix(name, ".json"))
		if err != nil {
			logger.Warn("skipping malformed match file", zap.String("file", name), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no valid match records in %s", dir)
	}
	return records, nil
}

// ParseMatch decodes one per-match JSON document into a record. fallbackID is
// used when the file carries no match_id (the file stem, by convention).
// Absent fields are normalized to the Unknown sentinel rather than rejected:
// drawn, tied and abandoned matches carry no outcome.winner and still belong
// in the corpus.
func ParseMatch(data []byte, fallbackID string) (domain.MatchRecord, error) {
	var mf matchFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return domain.MatchRecord{}, fmt.Errorf("decode match json: %w", err)
	}

	rec := domain.MatchRecord{
		MatchID:      orUnknown(mf.Info.MatchID),
		City:         orUnknown(mf.Info.City),
		Venue:        orUnknown(mf.Info.Venue),
		Season:       decodeSeason(mf.Info.Season),
		EventName:    orUnknown(mf.Info.Event.Name),
		MatchType:    orUnknown(mf.Info.MatchType),
		Gender:       orUnknown(mf.Info.Gender),
		TossWinner:   orUnknown(mf.Info.Toss.Winner),
		TossDecision: orUnknown(mf.Info.Toss.Decision),
		Winner:       orUnknown(mf.Info.Outcome.Winner),
		Overs:        mf.Info.Overs,
	}
	if rec.MatchID == domain.Unknown {
		rec.MatchID = fallbackID
	}
	if len(mf.Info.Dates) > 0 {
		rec.Date = mf.Info.Dates[0]
	}
	rec.Date = orUnknown(rec.Date)
	if len(mf.Info.Teams) > 0 {
		rec.Team1 = mf.Info.Teams[0]
	}
	if len(mf.Info.Teams) > 1 {
		rec.Team2 = mf.Info.Teams[1]
	}
	rec.Team1 = orUnknown(rec.Team1)
	rec.Team2 = orUnknown(rec.Team2)
	if len(mf.Info.PlayerOfMatch) > 0 {
		rec.PlayerOfMatch = strings.Join(mf.Info.PlayerOfMatch, ", ")
	}
	rec.PlayerOfMatch = orUnknown(rec.PlayerOfMatch)

	if len(mf.Innings) > 0 {
		runs := 0
		for _, over := range mf.Innings[0].Overs {
			for _, d := range over.Deliveries {
				runs += d.Runs.Total
			}
		}
		rec.FirstInningsRuns = &runs
	}

	return rec, nil
}

// decodeSeason tolerates both string ("2023/24") and numeric (2023) seasons.
func decodeSeason(raw json.RawMessage) string {
	if len(raw) == 0 {
		return domain.Unknown
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return orUnknown(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return domain.Unknown
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return domain.Unknown
	}
	return s
}
