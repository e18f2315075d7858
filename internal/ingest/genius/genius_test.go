package genius

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fortuna/stintstats/internal/pbp"
)

const endedFeed = `{
  "tm": {
    "1": {
      "name": "Perth Wildcats", "shortName": "Perth", "code": "PER", "full_score": 88,
      "pl": {
        "10": {"firstName": "Local", "familyName": "Only", "internationalFirstName": "", "internationalFamilyName": "",
               "shirtNumber": 5, "starter": 0, "sMinutes": "00:00"},
        "2": {"firstName": "Bryce", "familyName": "Cotton", "internationalFirstName": "Bryce",
              "internationalFamilyName": "Cotton", "shirtNumber": "11", "starter": 1, "captain": 1,
              "sMinutes": "34:12", "sPoints": "30", "sAssists": 4}
      }
    },
    "2": {"name": "Sydney Kings", "shortName": "Sydney", "score": "80", "pl": {}}
  },
  "pbp": [
    {"clock": "00:00:00", "tno": 0, "period": 1, "periodType": "OVERTIME", "actionType": "game", "subType": "end", "actionNumber": 900},
    {"clock": "04:31:50", "tno": 2, "period": 1, "periodType": "OVERTIME", "actionType": "3pt", "subType": "jumpshot",
     "success": 1, "scoring": 1, "actionNumber": 850, "internationalFirstName": "Xavier", "internationalFamilyName": "Cooks",
     "qualifier": "fastbreak", "s1": "80", "s2": "83", "lead": -3},
    {"clock": "09:12:00", "tno": 1, "period": 1, "periodType": "REGULAR", "actionType": "substitution", "subType": "in",
     "actionNumber": 12, "internationalFirstName": "Bryce", "internationalFamilyName": "Cotton", "qualifier": [],
     "previousAction": ""}
  ]
}`

const liveFeed = `{"tm": {}, "pbp": [{"clock": "05:00:00", "actionType": "2pt", "period": 2}]}`

func TestNormalize(t *testing.T) {
	feed, err := ParseFeed([]byte(endedFeed))
	if err != nil {
		t.Fatal(err)
	}
	if !Ended(feed) {
		t.Fatalf("feed should be ended")
	}

	game, err := Normalize(feed)
	if err != nil {
		t.Fatal(err)
	}

	if game.Teams[0].Score != 88 || game.Teams[1].Score != 80 {
		t.Errorf("scores = %d/%d", game.Teams[0].Score, game.Teams[1].Score)
	}

	players := game.Teams[0].Players
	if len(players) != 2 {
		t.Fatalf("players = %d", len(players))
	}
	cotton := players[0]
	if cotton.Name != "Bryce Cotton" || !cotton.Starter || !cotton.Captain || cotton.ShirtNumber != "11" {
		t.Errorf("first player = %+v", cotton)
	}
	if cotton.Minutes != pbp.Clock(34*time.Minute+12*time.Second) || cotton.Stats.Points != 30 || cotton.Stats.Assists != 4 {
		t.Errorf("first player stats = %+v minutes %s", cotton.Stats, cotton.Minutes)
	}
	if players[1].Name != "Local Only" || players[1].ShirtNumber != "5" || players[1].Minutes != 0 {
		t.Errorf("fallback player = %+v", players[1])
	}
	if got := game.Starters(1); len(got) != 1 || got[0] != "Bryce Cotton" {
		t.Errorf("starters = %v", got)
	}

	if len(game.Events) != 3 {
		t.Fatalf("events = %d", len(game.Events))
	}
	sub, shot, end := game.Events[0], game.Events[1], game.Events[2]
	if !sub.IsSubstitution() || sub.Period != 1 || sub.TeamName != "Perth Wildcats" || sub.Player != "Bryce Cotton" {
		t.Errorf("substitution = %+v", sub)
	}
	if shot.Period != 5 || !shot.Success || !shot.Scoring || shot.Player != "Xavier Cooks" || shot.Lead != -3 {
		t.Errorf("overtime shot = %+v", shot)
	}
	if shot.Clock != pbp.Clock(4*time.Minute+31*time.Second+500*time.Millisecond) {
		t.Errorf("shot clock = %s", shot.Clock)
	}
	if len(shot.Qualifiers) != 1 || shot.Qualifiers[0] != "fastbreak" {
		t.Errorf("qualifiers = %v", shot.Qualifiers)
	}
	if end.ActionType != pbp.ActionGame || end.Player != "" {
		t.Errorf("last event = %+v", end)
	}
	if game.PeriodCount() != 5 {
		t.Errorf("period count = %d", game.PeriodCount())
	}
}

func TestNormalizeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		feed  string
		field string
	}{
		{"missing team", `{"tm": {"1": {"name": "A", "pl": {}}}, "pbp": []}`, "tm.2"},
		{"team without name", `{"tm": {"1": {"name": "", "pl": {}}, "2": {"name": "B", "pl": {}}}, "pbp": []}`, "tm.1.name"},
		{
			"bad clock",
			`{"tm": {"1": {"name": "A", "pl": {}}, "2": {"name": "B", "pl": {}}},
			  "pbp": [{"clock": "9:xx:00", "actionType": "2pt", "period": 1}]}`,
			"clock",
		},
		{
			"nameless substitution",
			`{"tm": {"1": {"name": "A", "pl": {}}, "2": {"name": "B", "pl": {}}},
			  "pbp": [{"clock": "09:00:00", "actionType": "substitution", "subType": "in", "tno": 1, "period": 1}]}`,
			"player",
		},
		{
			"nameless roster player",
			`{"tm": {"1": {"name": "A", "pl": {"1": {"sMinutes": "10:00"}}}, "2": {"name": "B", "pl": {}}}, "pbp": []}`,
			"tm.1.pl.1.name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed, err := ParseFeed([]byte(tt.feed))
			if err != nil {
				t.Fatal(err)
			}
			_, err = Normalize(feed)
			var mf *MalformedFeedError
			if !errors.As(err, &mf) {
				t.Fatalf("err = %v, want MalformedFeedError", err)
			}
			if mf.Field != tt.field {
				t.Errorf("field = %q, want %q", mf.Field, tt.field)
			}
		})
	}
}

func TestFlexInt(t *testing.T) {
	var v struct {
		A, B, C, D, E FlexInt
	}
	err := json.Unmarshal([]byte(`{"A": 3, "B": "12", "C": "", "D": null, "E": true}`), &v)
	if err != nil {
		t.Fatal(err)
	}
	if v.A != 3 || v.B != 12 || v.C != 0 || v.D != 0 || v.E != 1 {
		t.Errorf("decoded %+v", v)
	}
}

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient(srv.URL, srv.Client())
	c.InitialInterval = time.Millisecond
	c.MaxRetries = 3
	return c
}

func TestClientFetchFeed(t *testing.T) {
	var calls [5]int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/1/data.json":
			atomic.AddInt32(&calls[1], 1)
			http.NotFound(w, r)
		case "/2/data.json":
			if atomic.AddInt32(&calls[2], 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(endedFeed))
		case "/3/data.json":
			atomic.AddInt32(&calls[3], 1)
			w.Write([]byte(liveFeed))
		case "/4/data.json":
			atomic.AddInt32(&calls[4], 1)
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv)
	ctx := context.Background()

	if _, _, err := c.FetchFeed(ctx, "1"); !errors.Is(err, ErrGameNotReady) {
		t.Errorf("404: err = %v, want ErrGameNotReady", err)
	}
	if atomic.LoadInt32(&calls[1]) != 1 {
		t.Errorf("404 should not be retried, got %d calls", calls[1])
	}

	feed, raw, err := c.FetchFeed(ctx, "2")
	if err != nil {
		t.Fatalf("retry after 503: %v", err)
	}
	if !Ended(feed) || len(raw) == 0 || atomic.LoadInt32(&calls[2]) != 2 {
		t.Errorf("feed ended=%v raw=%d calls=%d", Ended(feed), len(raw), atomic.LoadInt32(&calls[2]))
	}

	if _, _, err := c.FetchFeed(ctx, "3"); !errors.Is(err, ErrGameNotReady) {
		t.Errorf("live game: err = %v, want ErrGameNotReady", err)
	}

	_, _, err = c.FetchFeed(ctx, "4")
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadRequest || errors.Is(err, ErrGameNotReady) {
		t.Errorf("400: err = %v", err)
	}
	if atomic.LoadInt32(&calls[4]) != 1 {
		t.Errorf("400 should not be retried, got %d calls", calls[4])
	}
}

func TestClientGivesUpOnPersistentFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.FetchRaw(context.Background(), "9")
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadGateway {
		t.Fatalf("err = %v", err)
	}
	if atomic.LoadInt32(&calls) != 4 {
		t.Errorf("calls = %d, want 1 + 3 retries", calls)
	}
}

const matchPage = `<html><body>
<div class="matchDetail">Round 3</div>
<div class="matchDetail">
  Venue:
Stadium
RAC Arena, Perth
</div>
<div class="matchDetail">Tip‑off: 14/10/23 19:30</div>
</body></html>`

func TestParseGameInfo(t *testing.T) {
	info, err := ParseGameInfo(strings.NewReader(matchPage))
	if err != nil {
		t.Fatal(err)
	}
	if info.Venue != "RAC Arena, Perth" {
		t.Errorf("venue = %q", info.Venue)
	}
	if !info.Date.Equal(time.Date(2023, 10, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %s", info.Date)
	}

	if _, err := ParseGameInfo(strings.NewReader(`<div class="matchDetail">x</div>`)); err == nil {
		t.Errorf("expected error for missing blocks")
	}
}

func TestInfoScraperOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/u/NBL/42/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(matchPage))
	}))
	defer srv.Close()

	s := NewInfoScraper(srv.URL+"/u/NBL", &HTTPFetcher{Client: srv.Client()})
	info, err := s.FetchGameInfo(context.Background(), "42")
	if err != nil {
		t.Fatal(err)
	}
	if info.Venue != "RAC Arena, Perth" {
		t.Errorf("venue = %q", info.Venue)
	}

	if _, err := s.FetchGameInfo(context.Background(), "43"); err == nil {
		t.Errorf("expected error for missing page")
	}
}

type memFeeds map[string][]byte

func (m memFeeds) Name() string { return "mem" }

func (m memFeeds) GetFeed(_ context.Context, id string) ([]byte, bool, error) {
	d, ok := m[id]
	return d, ok, nil
}

func (m memFeeds) PutFeed(_ context.Context, id string, data []byte) error {
	m[id] = data
	return nil
}

func TestIngesterUsesCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Path {
		case "/5/data.json":
			w.Write([]byte(endedFeed))
		default:
			w.Write([]byte(liveFeed))
		}
	}))
	defer srv.Close()

	feeds := memFeeds{"4": []byte(endedFeed)}
	ing := NewIngester(newTestClient(srv), feeds, nil)
	ctx := context.Background()

	if _, err := ing.LoadGame(ctx, "4"); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("cached game hit the network")
	}

	if _, err := ing.LoadGame(ctx, "5"); err != nil {
		t.Fatal(err)
	}
	if _, ok := feeds["5"]; !ok {
		t.Errorf("fetched feed was not cached")
	}

	if _, err := ing.LoadGame(ctx, "6"); !errors.Is(err, ErrGameNotReady) {
		t.Errorf("err = %v, want ErrGameNotReady", err)
	}
	if _, ok := feeds["6"]; ok {
		t.Errorf("unfinished game was cached")
	}

	if ing.LoadInfo(ctx, "5") != nil {
		t.Errorf("no scraper configured, info should be nil")
	}
}
