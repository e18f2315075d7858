package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fortuna/stintstats/internal/stints"
)

func scrape(t *testing.T, m *Metrics, update func()) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler(update).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestCountersAppearInScrape(t *testing.T) {
	m := New()
	m.IncGame(OutcomeProcessed)
	m.IncGame(OutcomeProcessed)
	m.IncGame(OutcomeNotReady)
	m.IncReconciliationMismatch()

	sink := m.WarningSink()
	sink.Warn(stints.Warning{Kind: stints.IncomingOnCourt})

	body := scrape(t, m, func() { m.SetWebsocketClients(3) })
	for _, want := range []string{
		`stintstats_games_total{outcome="processed"} 2`,
		`stintstats_games_total{outcome="not_ready"} 1`,
		`stintstats_reconciliation_mismatches_total 1`,
		`stintstats_substitution_warnings_total{kind="` + string(stints.IncomingOnCourt) + `"} 1`,
		`stintstats_websocket_clients 3`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}

func TestRequestMiddleware(t *testing.T) {
	m := New()
	h := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	}))

	for _, p := range []string{"/a", "/b", "/missing"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	body := scrape(t, m, nil)
	if !strings.Contains(body, `stintstats_http_requests_total{class="2xx"} 2`) ||
		!strings.Contains(body, `stintstats_http_requests_total{class="4xx"} 1`) {
		t.Errorf("request counters missing:\n%s", body)
	}
}
