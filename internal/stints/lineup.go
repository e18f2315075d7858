package stints

import (
	"sort"
	"strings"
)

// Lineup is the sorted set of players on court for one team.
type Lineup []string

// NewLineup builds a Lineup from players in any order, dropping duplicates.
func NewLineup(players []string) Lineup {
	seen := make(map[string]bool, len(players))
	l := make(Lineup, 0, len(players))
	for _, p := range players {
		if seen[p] {
			continue
		}
		seen[p] = true
		l = append(l, p)
	}
	sort.Strings(l)
	return l
}

// Key is the canonical identity of the lineup, usable as a map key.
func (l Lineup) Key() string {
	return strings.Join(l, "\x1f")
}

// Contains reports whether player is part of the lineup.
func (l Lineup) Contains(player string) bool {
	i := sort.SearchStrings(l, player)
	return i < len(l) && l[i] == player
}

// Equal reports set equality.
func (l Lineup) Equal(other Lineup) bool {
	return l.Key() == other.Key()
}

func (l Lineup) String() string {
	return strings.Join(l, ", ")
}

// court is the mutable on-court set used while replaying substitutions.
type court map[string]bool

func newCourt(players []string) court {
	c := make(court, len(players))
	for _, p := range players {
		c[p] = true
	}
	return c
}

func (c court) lineup() Lineup {
	players := make([]string, 0, len(c))
	for p := range c {
		players = append(players, p)
	}
	return NewLineup(players)
}
