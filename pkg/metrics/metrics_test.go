package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.RecordHTTPRequest("GET", "/health", 200, 0.01)
	m.RecordSubmission()
	m.RecordTransition("APPROVED")
	m.RecordProvisioned()
	m.RecordCredentialChange("reset")
	m.RecordNotification("SENT")
}

func TestCollectorsAreRegistered(t *testing.T) {
	m := New("distributor")
	m.RecordSubmission()
	m.RecordTransition("APPROVED")
	m.RecordNotification("FAILED")

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"distributorhub_distributor_applications_submitted_total",
		"distributorhub_distributor_status_transitions_total",
		"distributorhub_distributor_notifications_total",
	} {
		if !names[want] {
			t.Fatalf("expected %s to be gathered", want)
		}
	}
}

func TestHandlerServesExposition(t *testing.T) {
	m := New("distributor")
	m.RecordProvisioned()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "distributorhub_distributor_accounts_provisioned_total 1") {
		t.Fatalf("expected provisioned counter in output")
	}
}
