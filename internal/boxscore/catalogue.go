package boxscore

import "github.com/fortuna/stintstats/internal/pbp"

// Stat is one counted statistic. Rate stats also track makes and a percentage.
type Stat struct {
	Name  string
	Rate  bool
	Match func(e pbp.Event) bool
}

const (
	statAST = iota
	stat2PT
	statPATR
	stat3PT
	statFT
	statREB
	statOREB
	statODREB
	statDREB
	statSTL
	statBLK
	statTOV
	statTOVBallHandling
	statTOVBadPass
	statTOVOffensiveFoul
	statTOV3Sec
	statTOV8Sec
	statTOV24Sec
	statCount
)

func action(actionType string) func(pbp.Event) bool {
	return func(e pbp.Event) bool { return e.ActionType == actionType }
}

func actionSub(actionType string, subTypes ...string) func(pbp.Event) bool {
	return func(e pbp.Event) bool {
		if e.ActionType != actionType {
			return false
		}
		for _, s := range subTypes {
			if e.SubType == s {
				return true
			}
		}
		return false
	}
}

func subTypeIn(subTypes ...string) func(pbp.Event) bool {
	return func(e pbp.Event) bool {
		for _, s := range subTypes {
			if e.SubType == s {
				return true
			}
		}
		return false
	}
}

// Catalogue lists the counted statistics in evaluation order.
var Catalogue = [statCount]Stat{
	statAST:  {Name: "ast", Match: action("assist")},
	stat2PT:  {Name: "2pt_fg", Rate: true, Match: action("2pt")},
	statPATR: {Name: "patr", Rate: true, Match: subTypeIn("layup", "drivinglayup", "dunk")},
	stat3PT:  {Name: "3pt_fg", Rate: true, Match: action("3pt")},
	statFT:   {Name: "ft", Rate: true, Match: action("freethrow")},

	statREB:   {Name: "reb", Match: action("rebound")},
	statOREB:  {Name: "oreb", Match: actionSub("rebound", "offensive")},
	statODREB: {Name: "odreb", Match: actionSub("rebound", "offensivedeadball")},
	statDREB:  {Name: "dreb", Match: actionSub("rebound", "defensive")},
	statSTL:   {Name: "stl", Match: action("steal")},
	statBLK:   {Name: "blk", Match: action("block")},

	statTOV:              {Name: "tov", Match: action("turnover")},
	statTOVBallHandling:  {Name: "tov_bh", Match: actionSub("turnover", "ballhandling", "doubledribble", "travel")},
	statTOVBadPass:       {Name: "tov_bp", Match: actionSub("turnover", "badpass")},
	statTOVOffensiveFoul: {Name: "tov_ofoul", Match: actionSub("turnover", "offensive")},
	statTOV3Sec:          {Name: "tov_3sec", Match: actionSub("turnover", "3sec")},
	statTOV8Sec:          {Name: "tov_8sec", Match: actionSub("turnover", "8sec")},
	statTOV24Sec:         {Name: "tov_24sec", Match: actionSub("turnover", "24sec")},
}
