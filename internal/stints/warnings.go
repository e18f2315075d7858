package stints

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/fortuna/stintstats/internal/pbp"
)

// WarningKind classifies substitution inconsistencies.
type WarningKind string

const (
	IncomingOnCourt  WarningKind = "incoming_on_court"
	OutgoingOffCourt WarningKind = "outgoing_off_court"
	UnbalancedSwap   WarningKind = "unbalanced_swap"
	// SwapRepaired is informational: clipping turned an inconsistent record into a 1-to-1 swap.
	SwapRepaired WarningKind = "swap_repaired"
)

// Informational reports whether the kind is a notice rather than a warning.
func (k WarningKind) Informational() bool {
	return k == SwapRepaired
}

// Warning is a non-fatal diagnostic raised while replaying substitutions.
type Warning struct {
	GameID  string      `json:"game_id,omitempty"`
	Team    int         `json:"tno"`
	Period  int         `json:"period"`
	Clock   pbp.Clock   `json:"clock"`
	Kind    WarningKind `json:"kind"`
	Players []string    `json:"players,omitempty"`
	In      int         `json:"in"`
	Out     int         `json:"out"`
}

func (w Warning) String() string {
	switch w.Kind {
	case IncomingOnCourt:
		return fmt.Sprintf("sub team %d @ %s in period %d: incoming players already on court: %s",
			w.Team, w.Clock, w.Period, strings.Join(w.Players, ", "))
	case OutgoingOffCourt:
		return fmt.Sprintf("sub team %d @ %s in period %d: outgoing players not on court: %s",
			w.Team, w.Clock, w.Period, strings.Join(w.Players, ", "))
	case UnbalancedSwap:
		return fmt.Sprintf("sub team %d @ %s in period %d: number of in-subs (%d) different from out-subs (%d)",
			w.Team, w.Clock, w.Period, w.In, w.Out)
	default:
		return fmt.Sprintf("sub team %d @ %s in period %d: inconsistent substitution repaired", w.Team, w.Clock, w.Period)
	}
}

// WarningSink receives substitution diagnostics. Implementations must not fail.
type WarningSink interface {
	Warn(w Warning)
}

// WarningSinkFunc adapts a function to WarningSink.
type WarningSinkFunc func(w Warning)

func (f WarningSinkFunc) Warn(w Warning) { f(w) }

// Discard drops every warning.
var Discard WarningSink = WarningSinkFunc(func(Warning) {})

// SlogSink writes warnings to a structured logger.
type SlogSink struct {
	Logger *slog.Logger
}

// NewSlogSink returns a sink that logs through logger (slog.Default when nil).
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{Logger: logger}
}

func (s *SlogSink) Warn(w Warning) {
	level := slog.LevelWarn
	if w.Kind.Informational() {
		level = slog.LevelInfo
	}
	s.Logger.Log(context.Background(), level, w.String(),
		"game_id", w.GameID,
		"tno", w.Team,
		"period", w.Period,
		"clock", w.Clock.String(),
		"kind", string(w.Kind),
	)
}

// Collector keeps every warning in memory. Safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	warnings []Warning
}

func (c *Collector) Warn(w Warning) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, w)
}

// Warnings returns a copy of the collected warnings.
func (c *Collector) Warnings() []Warning {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Warning, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// Count returns how many warnings of kind were collected.
func (c *Collector) Count(kind WarningKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, w := range c.warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// MultiSink fans a warning out to several sinks.
type MultiSink []WarningSink

func (m MultiSink) Warn(w Warning) {
	for _, s := range m {
		if s != nil {
			s.Warn(w)
		}
	}
}

// WithGameID stamps every warning with gameID before forwarding it.
func WithGameID(gameID string, next WarningSink) WarningSink {
	return WarningSinkFunc(func(w Warning) {
		w.GameID = gameID
		next.Warn(w)
	})
}
