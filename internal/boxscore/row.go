package boxscore

import (
	"database/sql"
	"strings"
)

// Cross holds the metrics that need both sides of a stint.
type Cross struct {
	DRtg          sql.NullFloat64
	NRtg          sql.NullFloat64
	DRebC         sql.NullInt64
	DRebP         sql.NullFloat64
	ORebC         sql.NullInt64
	ORebP         sql.NullFloat64
	TRBR          sql.NullFloat64
	OppFGABlocked sql.NullFloat64
}

// CrossMetrics computes self's cross metrics against other. Either side may
// be nil; metrics that need a missing side are left undefined.
func CrossMetrics(self, other *Line) Cross {
	var c Cross
	if other != nil {
		c.DRtg = Percent(float64(other.PTS), other.Poss)
	}
	if self == nil || other == nil {
		return c
	}

	c.NRtg = subNull(self.ORtg, c.DRtg)

	c.DRebC = nullInt(self.DREB + other.OREB)
	c.DRebP = percentInt(self.DREB, self.DREB+other.OREB)
	c.ORebC = nullInt(self.OREB + other.DREB)
	c.ORebP = percentInt(self.OREB, self.OREB+other.DREB)
	c.TRBR = percentInt(self.TRB, self.OREB+self.DREB+other.OREB+other.DREB)
	c.OppFGABlocked = percentInt(self.BLK, other.FGA)
	return c
}

func (c Cross) value(column string) (interface{}, bool) {
	switch column {
	case "drtg":
		return nullable(c.DRtg), true
	case "nrtg":
		return nullable(c.NRtg), true
	case "drebc":
		return nullableInt(c.DRebC), true
	case "drebp":
		return nullable(c.DRebP), true
	case "odrec":
		return nullableInt(c.ORebC), true
	case "orebp":
		return nullable(c.ORebP), true
	case "trbr":
		return nullable(c.TRBR), true
	case "opp_fga_blocked":
		return nullable(c.OppFGABlocked), true
	}
	return nil, false
}

// Row is one (team, stint) statistics row with both perspectives.
type Row struct {
	Team  int
	Stint int

	Own *Line
	// Opp is nil when the opponent recorded no events during the stint.
	Opp *Line

	Cross    Cross
	OppCross Cross
}

// NewRow joins a team line with its time-aligned opponent line.
func NewRow(team int, own, opp *Line) *Row {
	return &Row{
		Team:     team,
		Stint:    own.Stint,
		Own:      own,
		Opp:      opp,
		Cross:    CrossMetrics(own, opp),
		OppCross: CrossMetrics(opp, own),
	}
}

// Value returns a column by name (see StatColumns): an int, int64, float64,
// or nil when the value is undefined.
func (r *Row) Value(column string) interface{} {
	line, cross := r.Own, r.Cross
	if strings.HasSuffix(column, OppSuffix) {
		column = strings.TrimSuffix(column, OppSuffix)
		line, cross = r.Opp, r.OppCross
	}

	if v, ok := cross.value(column); ok {
		return v
	}
	if line == nil {
		return nil
	}
	v, _ := line.value(column)
	return v
}

// Values returns the row's StatColumns in order.
func (r *Row) Values() []interface{} {
	cols := StatColumns()
	out := make([]interface{}, len(cols))
	for i, c := range cols {
		out[i] = r.Value(c)
	}
	return out
}
