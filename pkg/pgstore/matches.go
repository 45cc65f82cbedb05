package pgstore

import (
	"github.com/dmitrymomot/leagueflow/pkg/match"
)

const matchesTable = "matches"

// MatchStore persists matches in the matches table.
type MatchStore struct {
	*table[*match.Match]
}

var _ match.Store = (*MatchStore)(nil)

// NewMatchStore returns a match store over db.
func NewMatchStore(db DB) *MatchStore {
	return &MatchStore{newTable(db, matchesTable, false,
		func() *match.Match { return new(match.Match) },
		func(m *match.Match) columns {
			return columns{seasonID: m.SeasonID, status: m.Status.Name()}
		},
	)}
}
