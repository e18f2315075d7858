package pbp

import "sort"

// Action types and sub types the stint engine and the aggregator care about.
const (
	ActionSubstitution = "substitution"
	ActionGame         = "game"
	ActionPeriod       = "period"

	SubTypeIn  = "in"
	SubTypeOut = "out"

	PeriodTypeOvertime = "OVERTIME"
)

// Event is one normalized play-by-play record.
type Event struct {
	Team           int      `json:"tno"`
	TeamName       string   `json:"team_name,omitempty"`
	TeamShortName  string   `json:"team_short_name,omitempty"`
	Period         int      `json:"period"`
	PeriodType     string   `json:"period_type"`
	Clock          Clock    `json:"clock"`
	ActionType     string   `json:"action_type"`
	SubType        string   `json:"sub_type,omitempty"`
	Success        bool     `json:"success"`
	Player         string   `json:"player,omitempty"`
	PlayerNumber   int      `json:"pno,omitempty"`
	Sequence       int      `json:"action_number"`
	PreviousAction int      `json:"previous_action,omitempty"`
	Qualifiers     []string `json:"qualifier,omitempty"`
	Scoring        bool     `json:"scoring"`
	Score1         int      `json:"s1"`
	Score2         int      `json:"s2"`
	Lead           int      `json:"lead"`
}

// IsSubstitution reports whether the event is a substitution record.
func (e Event) IsSubstitution() bool {
	return e.ActionType == ActionSubstitution
}

// Less orders events by period ascending, clock descending, sequence ascending.
func Less(a, b Event) bool {
	if a.Period != b.Period {
		return a.Period < b.Period
	}
	if a.Clock != b.Clock {
		return a.Clock > b.Clock
	}
	return a.Sequence < b.Sequence
}

// SortEvents sorts in place into play order. The sort is stable.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return Less(events[i], events[j])
	})
}

// Opponent returns the other team number.
func Opponent(team int) int {
	if team == 1 {
		return 2
	}
	return 1
}
