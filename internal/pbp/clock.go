package pbp

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is the game clock: time remaining in the period.
type Clock time.Duration

const (
	RegulationPeriods = 4

	RegulationLength = Clock(10 * time.Minute)
	OvertimeLength   = Clock(5 * time.Minute)
)

// PeriodLength returns the starting clock of a period.
func PeriodLength(period int) Clock {
	if period > RegulationPeriods {
		return OvertimeLength
	}
	return RegulationLength
}

// ParseClock parses "MM:SS:ff" (fraction digits, right padded like %f) or "MM:SS".
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock %q", s)
	}

	minutes, err := parseClockField(parts[0], 59)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: minutes: %w", s, err)
	}
	seconds, err := parseClockField(parts[1], 59)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: seconds: %w", s, err)
	}

	d := time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second

	if len(parts) == 3 {
		frac := parts[2]
		if frac == "" || len(frac) > 6 || !allDigits(frac) {
			return 0, fmt.Errorf("invalid clock %q: fraction", s)
		}
		micros, _ := strconv.Atoi(frac + strings.Repeat("0", 6-len(frac)))
		d += time.Duration(micros) * time.Microsecond
	}

	return Clock(d), nil
}

func parseClockField(field string, max int) (int, error) {
	if field == "" || len(field) > 2 || !allDigits(field) {
		return 0, fmt.Errorf("%q is not a 1-2 digit number", field)
	}
	n, _ := strconv.Atoi(field)
	if n > max {
		return 0, fmt.Errorf("%d out of range", n)
	}
	return n, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Duration returns the clock as a time.Duration.
func (c Clock) Duration() time.Duration {
	return time.Duration(c)
}

// String renders MM:SS with a trimmed fraction when present, e.g. "09:45.5".
func (c Clock) String() string {
	d := time.Duration(c)
	neg := d < 0
	if neg {
		d = -d
	}

	minutes := int(d / time.Minute)
	seconds := int((d % time.Minute) / time.Second)
	micros := int((d % time.Second) / time.Microsecond)

	out := fmt.Sprintf("%02d:%02d", minutes, seconds)
	if micros > 0 {
		out += "." + strings.TrimRight(fmt.Sprintf("%06d", micros), "0")
	}
	if neg {
		out = "-" + out
	}
	return out
}

// MarshalText implements encoding.TextMarshaler.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
