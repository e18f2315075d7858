package pbp

// PlayerStats holds the box-score counters the feed reports per player.
type PlayerStats struct {
	Points                 int `json:"pts"`
	FieldGoalsMade         int `json:"fgm"`
	FieldGoalsAttempted    int `json:"fga"`
	ThreePointersMade      int `json:"3ptm"`
	ThreePointersAttempted int `json:"3pta"`
	TwoPointersMade        int `json:"2ptm"`
	TwoPointersAttempted   int `json:"2pta"`
	FreeThrowsMade         int `json:"ftm"`
	FreeThrowsAttempted    int `json:"fta"`
	ReboundsDefensive      int `json:"dreb"`
	ReboundsOffensive      int `json:"oreb"`
	ReboundsTotal          int `json:"reb"`
	Assists                int `json:"ast"`
	Turnovers              int `json:"tov"`
	Steals                 int `json:"stl"`
	Blocks                 int `json:"blk"`
	BlocksReceived         int `json:"blk_received"`
	FoulsPersonal          int `json:"pf"`
	FoulsOn                int `json:"fouls_drawn"`
	PlusMinusPoints        int `json:"plus_minus"`
}

// Player is one roster entry of a team.
type Player struct {
	Team        int         `json:"tno"`
	Name        string      `json:"player"`
	ShirtNumber string      `json:"shirt_number"`
	Position    string      `json:"position,omitempty"`
	Starter     bool        `json:"starter"`
	Captain     bool        `json:"captain"`
	Minutes     Clock       `json:"minutes"`
	Stats       PlayerStats `json:"stats"`
}

// Team is the per-team header of a game.
type Team struct {
	Number    int      `json:"tno"`
	Name      string   `json:"name"`
	ShortName string   `json:"short_name"`
	Code      string   `json:"code,omitempty"`
	Score     int      `json:"score"`
	Players   []Player `json:"players"`
}

// Game is a normalized game record: both teams and the ordered event log.
type Game struct {
	Teams  [2]Team `json:"teams"`
	Events []Event `json:"events"`
}

// Team returns the team with number 1 or 2, or nil.
func (g *Game) Team(number int) *Team {
	if number != 1 && number != 2 {
		return nil
	}
	return &g.Teams[number-1]
}

// Starters returns the names of a team's starting five in roster order.
func (g *Game) Starters(team int) []string {
	t := g.Team(team)
	if t == nil {
		return nil
	}
	var names []string
	for _, p := range t.Players {
		if p.Starter {
			names = append(names, p.Name)
		}
	}
	return names
}

// PeriodCount returns the last period observed in the event log.
func (g *Game) PeriodCount() int {
	max := 0
	for _, e := range g.Events {
		if e.Period > max {
			max = e.Period
		}
	}
	return max
}

// Overtimes returns the renumbered overtime periods that occur in the game.
func (g *Game) Overtimes() []int {
	seen := make(map[int]bool)
	var periods []int
	for _, e := range g.Events {
		if e.PeriodType == PeriodTypeOvertime && !seen[e.Period] {
			seen[e.Period] = true
			periods = append(periods, e.Period)
		}
	}
	return periods
}

// Winner returns 1 when team 1 outscored team 2, otherwise 2.
func (g *Game) Winner() int {
	if g.Teams[0].Score > g.Teams[1].Score {
		return 1
	}
	return 2
}
