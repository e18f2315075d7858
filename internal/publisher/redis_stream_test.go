package publisher

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/fortuna/stintstats/internal/pipeline"
	"github.com/fortuna/stintstats/internal/reconciliation"
)

func TestNewGameProcessed(t *testing.T) {
	res := &pipeline.Result{Game: pipeline.GameRecord{GameID: "2301", Team1: "Home", Team2: "Away", S1: 90, S2: 88, Winner: 1}}
	report := &reconciliation.Report{Status: reconciliation.StatusMismatch}

	ev := NewGameProcessed(res, report, 3)
	if ev.Type != EventGameProcessed || ev.Reconciliation != "mismatch" || ev.Warnings != 3 {
		t.Errorf("event = %+v", ev)
	}
	if ev.Stints != [2]int{0, 0} {
		t.Errorf("nil sets should count zero stints, got %v", ev.Stints)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"type":"game.processed"`, `"game_id":"2301"`, `"venue":null`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("%s missing from %s", want, data)
		}
	}

	if ev := NewGameProcessed(res, nil, 0); ev.Reconciliation != "" {
		t.Errorf("no report should leave reconciliation empty")
	}
}
