package domain

import "fmt"

// Unknown is the sentinel value preprocessing substitutes for absent optional fields.
const Unknown = "Unknown"

// MatchRecord is one structured cricket match, produced once by offline
// preprocessing and immutable afterwards.
type MatchRecord struct {
	MatchID          string
	Date             string
	City             string
	Venue            string
	Season           string
	EventName        string
	MatchType        string
	Gender           string
	Team1            string
	Team2            string
	TossWinner       string
	TossDecision     string
	Winner           string
	Overs            int
	PlayerOfMatch    string
	FirstInningsRuns *int // nil when the innings could not be scored
}

// RetrievedMatch is one retrieval result: a metadata row plus its similarity score.
type RetrievedMatch struct {
	MatchID  string
	TextRepr string
	Score    float32
}

// summaryField names a template slot and the record value bound to it.
type summaryField struct {
	name  string
	value string
}

// Summarize derives the text representation of a match record. Pure: the same
// record always yields the same string. Callers normalize absent optional
// fields to Unknown upstream; a field that is still empty here is an error.
func Summarize(rec MatchRecord) (string, error) {
	fields := []summaryField{
		{"team1", rec.Team1},
		{"team2", rec.Team2},
		{"venue", rec.Venue},
		{"date", rec.Date},
		{"winner", rec.Winner},
		{"player_of_match", rec.PlayerOfMatch},
		{"match_type", rec.MatchType},
		{"gender", rec.Gender},
		{"season", rec.Season},
		{"city", rec.City},
	}
	for _, f := range fields {
		if f.value == "" {
			return "", fmt.Errorf("summarize %s: %s: %w", rec.MatchID, f.name, ErrMissingField)
		}
	}

	return fmt.Sprintf(
		"Match between %s and %s at %s, on %s. Winner: %s. Player of match: %s. "+
			"Type: %s, Gender: %s, Season: %s, City: %s.",
		rec.Team1, rec.Team2, rec.Venue, rec.Date, rec.Winner,
		rec.PlayerOfMatch, rec.MatchType, rec.Gender, rec.Season, rec.City,
	), nil
}
