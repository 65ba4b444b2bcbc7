package telemetry

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestCounters(t *testing.T) {
	m := New()
	m.Transition(models.StatusApproved)
	m.Transition(models.StatusApproved)
	m.RowsSkipped("markdown", 3)
	m.ChatStream("openai", "error")
	m.ObserveRequest("GET", "", 404, 0.01)

	out := scrape(t, m)
	for _, want := range []string{
		`recommendation_transitions_total{status="approved"} 2`,
		`ingest_rows_skipped_total{source="markdown"} 3`,
		`chat_streams_total{outcome="error",provider="openai"} 1`,
		`http_requests_total{method="GET",route="unmatched",status="404"} 1`,
		`http_request_duration_seconds_count{route="unmatched"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Transition(models.StatusRejected)
	if strings.Contains(scrape(t, b), `recommendation_transitions_total{status="rejected"}`) {
		t.Fatal("collectors leaked across registries")
	}
}
