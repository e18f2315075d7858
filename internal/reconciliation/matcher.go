package reconciliation

import (
	"sort"
	"strings"
	"unicode"

	"github.com/fortuna/stintstats/internal/pbp"
)

// MatchKind says how a play-by-play name was found on the roster.
type MatchKind string

const (
	MatchExact MatchKind = "exact"
	MatchLoose MatchKind = "loose"
	MatchNone  MatchKind = "none"
)

// PlayerMatch is the roster lookup of one distinct play-by-play name.
type PlayerMatch struct {
	Team   int       `json:"tno"`
	Name   string    `json:"name"`
	Roster string    `json:"roster,omitempty"`
	Kind   MatchKind `json:"kind"`
}

// Matcher resolves play-by-play player names against team rosters
type Matcher struct {
	exact [2]map[string]bool
	loose [2]map[string]string // normalized name -> roster name
}

// NewMatcher indexes both rosters of a game
func NewMatcher(game *pbp.Game) *Matcher {
	m := &Matcher{}
	for i := range game.Teams {
		m.exact[i] = make(map[string]bool)
		m.loose[i] = make(map[string]string)
		for _, p := range game.Teams[i].Players {
			m.exact[i][p.Name] = true
			m.loose[i][normalizeName(p.Name)] = p.Name
		}
	}
	return m
}

// Match looks a name up on a team's roster
func (m *Matcher) Match(team int, name string) PlayerMatch {
	out := PlayerMatch{Team: team, Name: name, Kind: MatchNone}
	if team != 1 && team != 2 {
		return out
	}
	i := team - 1
	if m.exact[i][name] {
		out.Roster = name
		out.Kind = MatchExact
		return out
	}
	if roster, ok := m.loose[i][normalizeName(name)]; ok {
		out.Roster = roster
		out.Kind = MatchLoose
	}
	return out
}

// MatchEvents returns the non-exact matches among the distinct (team, player)
// pairs of an event log, sorted by team then name.
func (m *Matcher) MatchEvents(events []pbp.Event) []PlayerMatch {
	type key struct {
		team int
		name string
	}
	seen := make(map[key]bool)
	var out []PlayerMatch
	for _, e := range events {
		if e.Player == "" {
			continue
		}
		k := key{e.Team, e.Player}
		if seen[k] {
			continue
		}
		seen[k] = true
		if match := m.Match(e.Team, e.Player); match.Kind != MatchExact {
			out = append(out, match)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Team != out[j].Team {
			return out[i].Team < out[j].Team
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// normalizeName lowercases and keeps letters only, so "O'Neil-Smith  J." and
// "oneilsmith j" compare equal.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
