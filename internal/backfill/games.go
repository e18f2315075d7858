package backfill

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ParseGames reads a games list: one "game_id,round" record per line. The
// round may be omitted (round 0), blank lines and lines starting with '#'
// are ignored, and a leading "game_id,round" header is skipped.
func ParseGames(r io.Reader) ([]GameRef, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	var refs []GameRef
	seen := make(map[string]bool)
	for n := 1; ; n++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("games list: %w", err)
		}

		id := strings.TrimSpace(rec[0])
		if id == "" {
			continue
		}
		if n == 1 && strings.EqualFold(id, "game_id") {
			continue
		}

		ref := GameRef{GameID: id}
		if len(rec) > 1 && strings.TrimSpace(rec[1]) != "" {
			round, err := strconv.Atoi(strings.TrimSpace(rec[1]))
			if err != nil {
				return nil, fmt.Errorf("games list record %d: invalid round %q", n, rec[1])
			}
			ref.Round = round
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		refs = append(refs, ref)
	}
	return refs, nil
}

// ReadGamesFile parses a games list file.
func ReadGamesFile(path string) ([]GameRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseGames(f)
}

// SortByRound orders games by round, keeping list order within a round.
func SortByRound(games []GameRef) {
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].Round < games[j].Round
	})
}

// groupByRound splits round-sorted games into consecutive same-round runs.
func groupByRound(games []GameRef) [][]GameRef {
	var groups [][]GameRef
	for i := 0; i < len(games); {
		j := i + 1
		for j < len(games) && games[j].Round == games[i].Round {
			j++
		}
		groups = append(groups, games[i:j])
		i = j
	}
	return groups
}
