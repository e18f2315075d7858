package boxscore

import (
	"database/sql"
	"encoding/json"
)

// Tally is the raw count of one catalogue stat within a stint.
type Tally struct {
	Attempts int
	Makes    int
}

// Line is one team's core box score during one stint.
type Line struct {
	Stint int

	AST   int
	FG2A  int
	FG2M  int
	FG2P  sql.NullFloat64
	PATRA int
	PATRM int
	PATRP sql.NullFloat64
	FG3A  int
	FG3M  int
	FG3P  sql.NullFloat64
	FTA   int
	FTM   int
	FTP   sql.NullFloat64

	REB   int
	OREB  int
	ODREB int
	DREB  int
	STL   int
	BLK   int

	TOV              int
	TOVBallHandling  int
	TOVBadPass       int
	TOVOffensiveFoul int
	TOV3Sec          int
	TOV8Sec          int
	TOV24Sec         int

	PTS     int
	FGA     int
	FGM     int
	FGP     sql.NullFloat64
	Poss    float64
	ORtg    sql.NullFloat64
	FGMAstP sql.NullFloat64
	TRB     int
	BLKR    sql.NullFloat64
	STLR    sql.NullFloat64
	ASTR    sql.NullFloat64
	TOVR    sql.NullFloat64
	TSP     sql.NullFloat64
}

// newLine fills counts from tallies indexed like Catalogue, then derives the rest.
func newLine(stint int, t [statCount]Tally) *Line {
	l := &Line{
		Stint: stint,

		AST:   t[statAST].Attempts,
		FG2A:  t[stat2PT].Attempts,
		FG2M:  t[stat2PT].Makes,
		PATRA: t[statPATR].Attempts,
		PATRM: t[statPATR].Makes,
		FG3A:  t[stat3PT].Attempts,
		FG3M:  t[stat3PT].Makes,
		FTA:   t[statFT].Attempts,
		FTM:   t[statFT].Makes,

		REB:   t[statREB].Attempts,
		OREB:  t[statOREB].Attempts,
		ODREB: t[statODREB].Attempts,
		DREB:  t[statDREB].Attempts,
		STL:   t[statSTL].Attempts,
		BLK:   t[statBLK].Attempts,

		TOV:              t[statTOV].Attempts,
		TOVBallHandling:  t[statTOVBallHandling].Attempts,
		TOVBadPass:       t[statTOVBadPass].Attempts,
		TOVOffensiveFoul: t[statTOVOffensiveFoul].Attempts,
		TOV3Sec:          t[statTOV3Sec].Attempts,
		TOV8Sec:          t[statTOV8Sec].Attempts,
		TOV24Sec:         t[statTOV24Sec].Attempts,
	}
	l.FG2P = percentInt(l.FG2M, l.FG2A)
	l.PATRP = percentInt(l.PATRM, l.PATRA)
	l.FG3P = percentInt(l.FG3M, l.FG3A)
	l.FTP = percentInt(l.FTM, l.FTA)

	l.derive()
	return l
}

func (l *Line) derive() {
	l.PTS = 2*l.FG2M + 3*l.FG3M + l.FTM
	l.FGA = l.FG2A + l.FG3A
	l.FGM = l.FG2M + l.FG3M
	l.FGP = percentInt(l.FGM, l.FGA)

	l.Poss = Possessions(l.FG2A, l.FG3A, l.FTA, l.TOV, l.OREB)
	l.ORtg = Percent(float64(l.PTS), l.Poss)

	l.FGMAstP = percentInt(l.AST, l.FG2M+l.FG3M)
	l.TRB = l.DREB + l.OREB

	l.BLKR = Percent(float64(l.BLK), l.Poss)
	l.STLR = Percent(float64(l.STL), l.Poss)
	l.ASTR = Percent(float64(l.AST), l.Poss)
	l.TOVR = Percent(float64(l.TOV), l.Poss)

	l.TSP = Percent(float64(l.PTS), 2*(float64(l.FGA)+0.44*float64(l.FTA)))
}

// Possessions estimates possessions, clamped at zero.
func Possessions(fg2a, fg3a, fta, tov, oreb int) float64 {
	poss := float64(fg2a) + float64(fg3a)
	poss += 0.44 * float64(fta)
	poss += float64(tov)
	poss -= float64(oreb)
	if poss < 0 {
		return 0
	}
	return poss
}

// value returns a column of the line by name: int, float64, or nil when undefined.
func (l *Line) value(column string) (interface{}, bool) {
	switch column {
	case "poss":
		return l.Poss, true
	case "ortg":
		return nullable(l.ORtg), true
	case "fga":
		return l.FGA, true
	case "fgm":
		return l.FGM, true
	case "fgp":
		return nullable(l.FGP), true
	case "pts":
		return l.PTS, true
	case "patra":
		return l.PATRA, true
	case "patrm":
		return l.PATRM, true
	case "patrp":
		return nullable(l.PATRP), true
	case "3pt_fga":
		return l.FG3A, true
	case "3pt_fgm":
		return l.FG3M, true
	case "3pt_fgp":
		return nullable(l.FG3P), true
	case "2pt_fga":
		return l.FG2A, true
	case "2pt_fgm":
		return l.FG2M, true
	case "2pt_fgp":
		return nullable(l.FG2P), true
	case "fta":
		return l.FTA, true
	case "ftm":
		return l.FTM, true
	case "ftp":
		return nullable(l.FTP), true
	case "tsp":
		return nullable(l.TSP), true
	case "ast":
		return l.AST, true
	case "astr":
		return nullable(l.ASTR), true
	case "fgm_astp":
		return nullable(l.FGMAstP), true
	case "stl":
		return l.STL, true
	case "stlr":
		return nullable(l.STLR), true
	case "blk":
		return l.BLK, true
	case "blkr":
		return nullable(l.BLKR), true
	case "tov":
		return l.TOV, true
	case "tovr":
		return nullable(l.TOVR), true
	case "reb":
		return l.REB, true
	case "dreb":
		return l.DREB, true
	case "oreb":
		return l.OREB, true
	case "odreb":
		return l.ODREB, true
	case "trb":
		return l.TRB, true
	case "tov_bh":
		return l.TOVBallHandling, true
	case "tov_bp":
		return l.TOVBadPass, true
	case "tov_ofoul":
		return l.TOVOffensiveFoul, true
	case "tov_3sec":
		return l.TOV3Sec, true
	case "tov_8sec":
		return l.TOV8Sec, true
	case "tov_24sec":
		return l.TOV24Sec, true
	}
	return nil, false
}

// MarshalJSON renders the line keyed by column name with nulls for undefined rates.
func (l *Line) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{"stint": l.Stint}
	for _, col := range lineColumns {
		v, _ := l.value(col)
		out[col] = v
	}
	return json.Marshal(out)
}

func nullable(v sql.NullFloat64) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Float64
}

func nullableInt(v sql.NullInt64) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Int64
}
