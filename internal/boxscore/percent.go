package boxscore

import (
	"database/sql"
	"math"
)

// Percent returns 100*part/whole rounded half-to-even to two decimals.
// A zero (or undefined) denominator yields an invalid value, never 0.
func Percent(part, whole float64) sql.NullFloat64 {
	if whole == 0 || math.IsNaN(whole) || math.IsNaN(part) {
		return sql.NullFloat64{}
	}
	v := 100 * (part / whole)
	return sql.NullFloat64{Float64: math.RoundToEven(v*100) / 100, Valid: true}
}

func percentInt(part, whole int) sql.NullFloat64 {
	return Percent(float64(part), float64(whole))
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: true}
}

func subNull(a, b sql.NullFloat64) sql.NullFloat64 {
	if !a.Valid || !b.Valid {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: a.Float64 - b.Float64, Valid: true}
}
