// Package pipeline runs one game through segmentation, tagging and the stint
// box score, producing the games, stints, stint stats, players and tagged
// play-by-play tables.
package pipeline

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/stintstats/internal/boxscore"
	"github.com/fortuna/stintstats/internal/pbp"
	"github.com/fortuna/stintstats/internal/stints"
)

// ErrNoEvents is returned for a game record without play-by-play.
var ErrNoEvents = errors.New("game has no play-by-play events")

// Options carries the per-game context that does not come from the feed.
type Options struct {
	GameID string
	Round  int
	Venue  sql.NullString
	Date   sql.NullTime

	Boundary stints.BoundaryPolicy
	// Warnings receives substitution diagnostics; nil discards them.
	Warnings stints.WarningSink
}

// Process computes every output table of a normalized game. It is a pure
// function of its inputs and safe to run concurrently for different games.
func Process(game *pbp.Game, opts Options) (*Result, error) {
	if game == nil || len(game.Events) == 0 {
		return nil, ErrNoEvents
	}

	sink := opts.Warnings
	if sink == nil {
		sink = stints.Discard
	}
	sink = stints.WithGameID(opts.GameID, sink)

	events := make([]pbp.Event, len(game.Events))
	copy(events, game.Events)
	pbp.SortEvents(events)

	periods := game.PeriodCount()

	res := &Result{
		Game:    gameRecord(game, opts),
		Players: playerRecords(game, opts.GameID),
	}

	var tags [2][]int
	for _, team := range []int{1, 2} {
		set := stints.Extract(events, game.Starters(team), team, periods, sink)
		res.Sets[team-1] = set
		tags[team-1] = stints.Tag(events, set, opts.Boundary)
	}

	res.Events = make([]TaggedEvent, len(events))
	for i, e := range events {
		res.Events[i] = TaggedEvent{Event: e, Stint1: tags[0][i], Stint2: tags[1][i]}
	}

	for _, team := range []int{1, 2} {
		set := res.Sets[team-1]
		name := game.Team(team).Name

		for _, seg := range set.Segments {
			res.Stints = append(res.Stints, stintRecord(opts.GameID, name, seg))
		}

		rows, err := boxscore.BuildRows(events, tags[team-1], team)
		if err != nil {
			return nil, fmt.Errorf("building stint stats for team %d: %w", team, err)
		}
		for _, row := range rows {
			seg := set.Get(row.Stint)
			if seg == nil {
				// events outside every interval have no stint metadata to join
				continue
			}
			res.Stats = append(res.Stats, StatRecord{
				StintRecord: stintRecord(opts.GameID, name, seg),
				Row:         row,
			})
		}
	}

	return res, nil
}

func stintRecord(gameID, teamName string, seg *stints.Segment) StintRecord {
	return StintRecord{
		GameID:    gameID,
		Team:      seg.Team,
		TeamName:  teamName,
		Stint:     seg.ID,
		Lineup:    seg.Lineup,
		Intervals: seg.Intervals,
		Minutes:   seg.Minutes(),
	}
}

func gameRecord(game *pbp.Game, opts Options) GameRecord {
	return GameRecord{
		GameID: opts.GameID,
		Date:   opts.Date,
		Round:  opts.Round,
		Team1:  game.Teams[0].Name,
		Team2:  game.Teams[1].Name,
		S1:     game.Teams[0].Score,
		S2:     game.Teams[1].Score,
		Winner: game.Winner(),
		Venue:  opts.Venue,
	}
}

// playerRecords lists the players of both teams who spent time on court.
func playerRecords(game *pbp.Game, gameID string) []PlayerRecord {
	var out []PlayerRecord
	for _, t := range game.Teams {
		for _, p := range t.Players {
			if p.Minutes <= 0 {
				continue
			}
			out = append(out, PlayerRecord{GameID: gameID, TeamName: t.Name, Player: p})
		}
	}
	return out
}

// TeamPoints sums the points a team scored in the tagged play-by-play.
func TeamPoints(events []TaggedEvent, team int) int {
	pts := 0
	for _, e := range events {
		if e.Team != team || !e.Success {
			continue
		}
		switch e.ActionType {
		case "2pt":
			pts += 2
		case "3pt":
			pts += 3
		case "freethrow":
			pts++
		}
	}
	return pts
}

// StintPoints sums a team's points over its stint rows.
func StintPoints(stats []StatRecord, team int) int {
	pts := 0
	for _, s := range stats {
		if s.Team == team {
			pts += s.Row.Own.PTS
		}
	}
	return pts
}
