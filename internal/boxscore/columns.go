package boxscore

// OppSuffix marks the opponent-side copy of a column.
const OppSuffix = "_opp"

// DataColumns is the reported column order for one side of a stint row.
var DataColumns = []string{
	"poss", "ortg", "drtg", "nrtg",
	"fga", "fgm", "fgp", "pts",
	"patra", "patrm", "patrp",
	"3pt_fga", "3pt_fgm", "3pt_fgp",
	"2pt_fga", "2pt_fgm", "2pt_fgp",
	"fta", "ftm", "ftp",
	"tsp",
	"ast", "astr", "fgm_astp",
	"stl", "stlr",
	"blk", "blkr",
	"tov", "tovr",
	"reb",
	"dreb", "drebc", "drebp",
	"oreb", "odrec", "orebp",
	"trb", "trbr",
	"tov_bh", "tov_bp",
	"tov_ofoul",
	"tov_3sec", "tov_8sec", "tov_24sec",
	"opp_fga_blocked",
}

// StatColumns returns DataColumns followed by their opponent-side copies.
func StatColumns() []string {
	cols := make([]string, 0, 2*len(DataColumns))
	cols = append(cols, DataColumns...)
	for _, c := range DataColumns {
		cols = append(cols, c+OppSuffix)
	}
	return cols
}

// lineColumns are the columns a single Line answers on its own.
var lineColumns = []string{
	"poss", "ortg",
	"fga", "fgm", "fgp", "pts",
	"patra", "patrm", "patrp",
	"3pt_fga", "3pt_fgm", "3pt_fgp",
	"2pt_fga", "2pt_fgm", "2pt_fgp",
	"fta", "ftm", "ftp",
	"tsp",
	"ast", "astr", "fgm_astp",
	"stl", "stlr",
	"blk", "blkr",
	"tov", "tovr",
	"reb", "dreb", "oreb", "odreb", "trb",
	"tov_bh", "tov_bp", "tov_ofoul", "tov_3sec", "tov_8sec", "tov_24sec",
}
