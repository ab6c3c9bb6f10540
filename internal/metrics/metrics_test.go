package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.GroupJoin(JoinOK)
	m.ExpenseCreated()
	m.PaymentStatusChanged("paid")
	m.BroadcastDropped()
	m.EmailSent("welcome", nil)
	m.ObserveRPC("/x", "ok", time.Millisecond)
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	return rec.Body.String()
}

func TestCounters(t *testing.T) {
	m := New()

	m.GroupJoin(JoinOK)
	m.GroupJoin(JoinOK)
	m.GroupJoin(JoinFull)
	m.EmailSent("reminder", errors.New("boom"))

	body := scrape(t, m)
	for _, want := range []string{
		`splitmate_group_joins_total{outcome="ok"} 2`,
		`splitmate_group_joins_total{outcome="full"} 1`,
		`splitmate_emails_total{result="error",template="reminder"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %q in output", want)
		}
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ExpenseCreated()

	if !strings.Contains(scrape(t, m), "splitmate_expenses_created_total 1") {
		t.Errorf("Expected expenses counter in output")
	}
}
