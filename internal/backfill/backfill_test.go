package backfill

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fortuna/stintstats/internal/ingest/genius"
	"github.com/fortuna/stintstats/internal/pbp"
	"github.com/fortuna/stintstats/internal/pipeline"
	"github.com/fortuna/stintstats/internal/stints"
)

type fakeProcessor struct {
	mu       sync.Mutex
	notReady map[string]bool
	failing  map[string]bool
	calls    []string
	replace  []bool
}

func (f *fakeProcessor) ProcessGame(_ context.Context, ref GameRef, replace bool) GameResult {
	f.mu.Lock()
	f.calls = append(f.calls, ref.GameID)
	f.replace = append(f.replace, replace)
	f.mu.Unlock()

	switch {
	case f.notReady[ref.GameID]:
		return GameResult{Ref: ref, Outcome: OutcomeNotReady, Err: genius.ErrGameNotReady}
	case f.failing[ref.GameID]:
		return GameResult{Ref: ref, Outcome: OutcomeFailed, Err: errors.New("boom")}
	}
	return GameResult{Ref: ref, Outcome: OutcomeProcessed, Result: &pipeline.Result{Game: pipeline.GameRecord{GameID: ref.GameID}}}
}

func (f *fakeProcessor) called(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == id {
			return true
		}
	}
	return false
}

type recordingReporter struct {
	rounds   []int
	games    []string
	complete *Summary
}

func (r *recordingReporter) OnJobStart(JobSpec)                { r.rounds = nil }
func (r *recordingReporter) OnRoundStart(round int, games int) { r.rounds = append(r.rounds, round) }
func (r *recordingReporter) OnGameProcessed(res GameResult) {
	r.games = append(r.games, res.Ref.GameID)
}
func (r *recordingReporter) OnProgress(string, int, int) {}
func (r *recordingReporter) OnJobComplete(s *Summary)    { r.complete = s }
func (r *recordingReporter) OnJobError(error)            {}

func refs(pairs ...interface{}) []GameRef {
	var out []GameRef
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, GameRef{GameID: pairs[i].(string), Round: pairs[i+1].(int)})
	}
	return out
}

func TestRunStopsAfterRoundWithUnreadyGame(t *testing.T) {
	proc := &fakeProcessor{notReady: map[string]bool{"b": true}}
	rep := &recordingReporter{}
	games := refs("d", 3, "a", 1, "b", 2, "c", 2, "e", 2)

	summary, err := NewRunner(proc, nil, 2).Run(context.Background(), JobSpec{Games: games}, rep)
	if err != nil {
		t.Fatal(err)
	}

	if summary.StopRound != 2 {
		t.Errorf("StopRound = %d, want 2", summary.StopRound)
	}
	if proc.called("d") {
		t.Errorf("round 3 should not run after a not-ready game in round 2")
	}
	for _, id := range []string{"a", "c", "e"} {
		if !proc.called(id) {
			t.Errorf("game %s was not processed", id)
		}
	}
	if summary.Processed != 3 || summary.NotReady != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if got := strings.Join(rep.games, ","); got != "a,b,c,e" {
		t.Errorf("results in order %s, want a,b,c,e", got)
	}
	if fmt.Sprint(rep.rounds) != "[1 2]" {
		t.Errorf("rounds = %v", rep.rounds)
	}
	if rep.complete != summary {
		t.Errorf("OnJobComplete not given the summary")
	}
}

func TestRunSkipsStoredGamesUnlessReloading(t *testing.T) {
	games := refs("a", 1, "b", 1)
	stored := StoredSet{"a": true}

	proc := &fakeProcessor{}
	summary, err := NewRunner(proc, stored, 1).Run(context.Background(), JobSpec{Games: games}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if proc.called("a") || !proc.called("b") {
		t.Errorf("calls = %v", proc.calls)
	}
	if summary.Skipped != 1 || summary.Processed != 1 || len(summary.Results) != 1 {
		t.Errorf("summary = %+v", summary)
	}

	proc = &fakeProcessor{}
	summary, err = NewRunner(proc, stored, 1).Run(context.Background(), JobSpec{Games: games, Reload: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Processed != 2 || summary.Skipped != 0 {
		t.Errorf("reload summary = %+v", summary)
	}
	for _, r := range proc.replace {
		if !r {
			t.Errorf("reload should replace stored results")
		}
	}
}

func TestRunContinuesPastFailures(t *testing.T) {
	proc := &fakeProcessor{failing: map[string]bool{"a": true}}
	summary, err := NewRunner(proc, nil, 4).Run(context.Background(), JobSpec{Games: refs("a", 1, "b", 2)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Failed != 1 || summary.Processed != 1 || summary.StopRound != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if got := summary.ProcessedResults(); len(got) != 1 || got[0].Game.GameID != "b" {
		t.Errorf("processed results = %+v", got)
	}
}

func TestRunCatalogError(t *testing.T) {
	catalog := CatalogFunc(func(context.Context, string) (bool, error) {
		return false, errors.New("redis down")
	})
	if _, err := NewRunner(&fakeProcessor{}, catalog, 1).Run(context.Background(), JobSpec{Games: refs("a", 1)}, nil); err == nil {
		t.Fatal("expected catalog error")
	}
}

func TestAnyCatalog(t *testing.T) {
	c := AnyCatalog{StoredSet{"a": true}, StoredSet{"b": true}}
	for id, want := range map[string]bool{"a": true, "b": true, "c": false} {
		got, err := c.Exists(context.Background(), id)
		if err != nil || got != want {
			t.Errorf("Exists(%s) = %v, %v", id, got, err)
		}
	}
}

func TestParseGames(t *testing.T) {
	input := `game_id,round
# preseason
100,2
101, 1

102
100,5
`
	games, err := ParseGames(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	want := refs("100", 2, "101", 1, "102", 0)
	if len(games) != len(want) {
		t.Fatalf("got %+v", games)
	}
	for i := range want {
		if games[i] != want[i] {
			t.Errorf("game %d = %+v, want %+v", i, games[i], want[i])
		}
	}

	if _, err := ParseGames(strings.NewReader("100,x\n")); err == nil {
		t.Errorf("expected invalid round error")
	}
}

func TestJobGames(t *testing.T) {
	job := &Job{GameIDs: []string{"1", "2"}, Rounds: []int64{4}}
	got := job.Games()
	if len(got) != 2 || got[0] != (GameRef{"1", 4}) || got[1] != (GameRef{"2", 0}) {
		t.Errorf("Games() = %+v", got)
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"empty", Request{}, true},
		{"blank id", Request{Games: refs(" ", 1)}, true},
		{"negative round", Request{Games: refs("1", -1)}, true},
		{"ok", Request{Games: refs("1", 1, "2", 0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

type fakeLoader struct {
	games map[string]*pbp.Game
	info  *genius.GameInfo
}

func (f *fakeLoader) LoadGame(_ context.Context, id string) (*pbp.Game, error) {
	g, ok := f.games[id]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", id, genius.ErrGameNotReady)
	}
	return g, nil
}

func (f *fakeLoader) LoadInfo(context.Context, string) *genius.GameInfo {
	return f.info
}

type fakeSaver struct {
	saved []string
	err   error
}

func (f *fakeSaver) Save(_ context.Context, res *pipeline.Result, _ bool) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, res.Game.GameID)
	return nil
}

type fakeMarker struct{ ids []string }

func (f *fakeMarker) MarkProcessed(_ context.Context, ids ...string) error {
	f.ids = append(f.ids, ids...)
	return errors.New("marker down")
}

func clk(min, sec int) pbp.Clock {
	return pbp.Clock(time.Duration(min)*time.Minute + time.Duration(sec)*time.Second)
}

func tinyGame() *pbp.Game {
	team := func(n int, names ...string) pbp.Team {
		t := pbp.Team{Number: n, Name: fmt.Sprintf("Team %d", n)}
		for _, name := range names {
			t.Players = append(t.Players, pbp.Player{Team: n, Name: name, Starter: true, Minutes: clk(10, 0)})
		}
		return t
	}
	g := &pbp.Game{
		Teams: [2]pbp.Team{
			team(1, "A", "B", "C", "D", "E"),
			team(2, "V", "W", "X", "Y", "Z"),
		},
		Events: []pbp.Event{
			{Period: 1, Clock: clk(10, 0), ActionType: "period", SubType: "start", Sequence: 1},
			{Team: 1, Period: 1, Clock: clk(9, 0), ActionType: "2pt", Player: "A", Success: true, Sequence: 2, Score1: 2},
		},
	}
	g.Teams[0].Score = 2
	g.Teams[0].Players[0].Stats.Points = 2
	return g
}

func TestProcessorProcessGame(t *testing.T) {
	date := time.Date(2024, 10, 5, 0, 0, 0, 0, time.UTC)
	saver := &fakeSaver{}
	marker := &fakeMarker{}
	var warned int
	p := &Processor{
		Loader:   &fakeLoader{games: map[string]*pbp.Game{"7": tinyGame()}, info: &genius.GameInfo{Venue: "Arena", Date: date}},
		Results:  saver,
		Marker:   marker,
		Warnings: stints.WarningSinkFunc(func(stints.Warning) { warned++ }),
	}

	res := p.ProcessGame(context.Background(), GameRef{GameID: "7", Round: 3}, false)
	if res.Outcome != OutcomeProcessed {
		t.Fatalf("outcome = %s (%v)", res.Outcome, res.Err)
	}
	if len(saver.saved) != 1 || saver.saved[0] != "7" {
		t.Errorf("saved = %v", saver.saved)
	}
	if len(marker.ids) != 1 {
		t.Errorf("marker failures should not fail the game and the id should still be marked")
	}
	game := res.Result.Game
	if game.Round != 3 || game.Venue.String != "Arena" || !game.Date.Time.Equal(date) {
		t.Errorf("game record = %+v", game)
	}
	if res.Report == nil {
		t.Errorf("missing reconciliation report")
	}
	if warned != res.Warnings {
		t.Errorf("warning sink saw %d, result counts %d", warned, res.Warnings)
	}

	if res := p.ProcessGame(context.Background(), GameRef{GameID: "8"}, false); res.Outcome != OutcomeNotReady {
		t.Errorf("missing feed outcome = %s", res.Outcome)
	}

	saver.err = errors.New("db down")
	if res := p.ProcessGame(context.Background(), GameRef{GameID: "7"}, false); res.Outcome != OutcomeFailed {
		t.Errorf("save failure outcome = %s", res.Outcome)
	}
}
