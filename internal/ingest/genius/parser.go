package genius

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fortuna/stintstats/internal/pbp"
)

// MalformedFeedError reports a feed that cannot be normalized: a missing
// team or player field, or an unparseable clock.
type MalformedFeedError struct {
	Field string
	Err   error
}

func (e *MalformedFeedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed feed: %s", e.Field)
	}
	return fmt.Sprintf("malformed feed: %s: %v", e.Field, e.Err)
}

func (e *MalformedFeedError) Unwrap() error {
	return e.Err
}

func malformed(field string, err error) error {
	return &MalformedFeedError{Field: field, Err: err}
}

// ParseFeed decodes a data.json payload.
func ParseFeed(data []byte) (*Feed, error) {
	var feed Feed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, malformed("json", err)
	}
	return &feed, nil
}

// Ended reports whether the feed describes a finished game: the newest
// play-by-play record is the end-of-game marker.
func Ended(feed *Feed) bool {
	return feed != nil && len(feed.PBP) > 0 && feed.PBP[0].ActionType == pbp.ActionGame
}

// PlayerName builds the canonical player identity: the international first and
// family names, falling back to the local ones when both are empty.
func PlayerName(first, family, intlFirst, intlFamily string) string {
	if strings.TrimSpace(intlFirst) == "" && strings.TrimSpace(intlFamily) == "" {
		intlFirst, intlFamily = first, family
	}
	if strings.TrimSpace(intlFirst) == "" && strings.TrimSpace(intlFamily) == "" {
		return ""
	}
	return intlFirst + " " + intlFamily
}

// Normalize converts a raw feed into a game record with events in play order.
func Normalize(feed *Feed) (*pbp.Game, error) {
	if feed == nil {
		return nil, malformed("feed", nil)
	}

	game := &pbp.Game{}
	for n := 1; n <= 2; n++ {
		key := strconv.Itoa(n)
		raw, ok := feed.Teams[key]
		if !ok || raw == nil {
			return nil, malformed("tm."+key, nil)
		}
		team, err := normalizeTeam(n, raw)
		if err != nil {
			return nil, err
		}
		game.Teams[n-1] = team
	}

	game.Events = make([]pbp.Event, 0, len(feed.PBP))
	for i, a := range feed.PBP {
		e, err := normalizeAction(a, game)
		if err != nil {
			return nil, fmt.Errorf("pbp[%d]: %w", i, err)
		}
		game.Events = append(game.Events, e)
	}
	pbp.SortEvents(game.Events)

	return game, nil
}

func normalizeTeam(n int, raw *FeedTeam) (pbp.Team, error) {
	prefix := fmt.Sprintf("tm.%d", n)
	if strings.TrimSpace(raw.Name) == "" {
		return pbp.Team{}, malformed(prefix+".name", nil)
	}
	if raw.Players == nil {
		return pbp.Team{}, malformed(prefix+".pl", nil)
	}

	score := int(raw.FullScore)
	if score == 0 {
		score = int(raw.Score)
	}

	team := pbp.Team{
		Number:    n,
		Name:      raw.Name,
		ShortName: raw.ShortName,
		Code:      raw.Code,
		Score:     score,
	}

	for _, key := range sortedPlayerKeys(raw.Players) {
		p := raw.Players[key]
		if p == nil {
			continue
		}
		name := PlayerName(p.FirstName, p.FamilyName, p.InternationalFirstName, p.InternationalFamilyName)
		if name == "" {
			return pbp.Team{}, malformed(fmt.Sprintf("%s.pl.%s.name", prefix, key), nil)
		}

		var minutes pbp.Clock
		if strings.TrimSpace(p.Minutes) != "" {
			m, err := pbp.ParseClock(p.Minutes)
			if err != nil {
				return pbp.Team{}, malformed(fmt.Sprintf("%s.pl.%s.sMinutes", prefix, key), err)
			}
			minutes = m
		}

		team.Players = append(team.Players, pbp.Player{
			Team:        n,
			Name:        name,
			ShirtNumber: string(p.ShirtNumber),
			Position:    p.PlayingPosition,
			Starter:     p.Starter == 1,
			Captain:     p.Captain == 1,
			Minutes:     minutes,
			Stats: pbp.PlayerStats{
				Points:                 int(p.Points),
				FieldGoalsMade:         int(p.FieldGoalsMade),
				FieldGoalsAttempted:    int(p.FieldGoalsAttempted),
				ThreePointersMade:      int(p.ThreePointersMade),
				ThreePointersAttempted: int(p.ThreePointersAttempted),
				TwoPointersMade:        int(p.TwoPointersMade),
				TwoPointersAttempted:   int(p.TwoPointersAttempted),
				FreeThrowsMade:         int(p.FreeThrowsMade),
				FreeThrowsAttempted:    int(p.FreeThrowsAttempted),
				ReboundsDefensive:      int(p.ReboundsDefensive),
				ReboundsOffensive:      int(p.ReboundsOffensive),
				ReboundsTotal:          int(p.ReboundsTotal),
				Assists:                int(p.Assists),
				Turnovers:              int(p.Turnovers),
				Steals:                 int(p.Steals),
				Blocks:                 int(p.Blocks),
				BlocksReceived:         int(p.BlocksReceived),
				FoulsPersonal:          int(p.FoulsPersonal),
				FoulsOn:                int(p.FoulsOn),
				PlusMinusPoints:        int(p.PlusMinusPoints),
			},
		})
	}
	return team, nil
}

// sortedPlayerKeys orders roster keys numerically so rosters are deterministic.
func sortedPlayerKeys(players map[string]*FeedPlayer) []string {
	keys := make([]string, 0, len(players))
	for k := range players {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil && a != b {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}

func normalizeAction(a FeedAction, game *pbp.Game) (pbp.Event, error) {
	clock, err := pbp.ParseClock(a.Clock)
	if err != nil {
		return pbp.Event{}, malformed("clock", err)
	}

	period := int(a.Period)
	if a.PeriodType == pbp.PeriodTypeOvertime {
		period += pbp.RegulationPeriods
	}

	player := PlayerName(a.FirstName, a.FamilyName, a.InternationalFirstName, a.InternationalFamilyName)
	if a.ActionType == pbp.ActionSubstitution && player == "" {
		return pbp.Event{}, malformed("player", nil)
	}

	e := pbp.Event{
		Team:           int(a.Team),
		Period:         period,
		PeriodType:     a.PeriodType,
		Clock:          clock,
		ActionType:     a.ActionType,
		SubType:        a.SubType,
		Success:        a.Success == 1,
		Player:         player,
		PlayerNumber:   int(a.PlayerNumber),
		Sequence:       int(a.ActionNumber),
		PreviousAction: int(a.PreviousAction),
		Qualifiers:     []string(a.Qualifier),
		Scoring:        a.Scoring == 1,
		Score1:         int(a.S1),
		Score2:         int(a.S2),
		Lead:           int(a.Lead),
	}
	if t := game.Team(e.Team); t != nil {
		e.TeamName = t.Name
		e.TeamShortName = t.ShortName
	}
	return e, nil
}
