package tests

import (
	"net/http/httptest"
	"strings"
	"testing"

	"insurance_platform/dashboard/schema"
)

func emailRequest(recipient string) map[string]interface{} {
	return map[string]interface{}{
		"email": recipient,
		"prediction": map[string]float64{
			"prediction": 24500.0,
			"confidence": 0.85,
		},
		"patient_data": predictRequest(),
	}
}

func TestSendPredictionEmail(t *testing.T) {
	env := setupTestEnv(t)
	user := env.userClient(t)

	var result struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := user.Post("/send-prediction-email").Json(emailRequest("patient@mail.com")).Do(&result); err != nil {
		t.Fatal(err)
	}

	if !result.Success {
		t.Fatalf("delivery through the outbox sink should succeed: %v", result.Message)
	}

	outbox, err := env.storage.List("outbox")
	if err != nil {
		t.Fatal(err)
	}
	if len(outbox) != 1 {
		t.Fatalf("expected 1 report in outbox, got %d", len(outbox))
	}

	var report schema.EmailReport
	if result := env.db.First(&report); result.Error != nil {
		t.Fatal(result.Error)
	}
	if report.Status != schema.DeliverySent || report.Recipient != "patient@mail.com" {
		t.Fatalf("unexpected audit row %+v", report)
	}
}

func TestSendPredictionEmailRejectsInvalidRecipients(t *testing.T) {
	env := setupTestEnv(t)
	user := env.userClient(t)

	for _, recipient := range []string{"invalid-email", "@gmail.com", "test@", ""} {
		err := user.Post("/send-prediction-email").Json(emailRequest(recipient)).Do(nil)
		if err == nil {
			t.Fatalf("recipient %q should be rejected", recipient)
		}
		if !strings.Contains(err.Error(), "400") {
			t.Fatalf("expected 400 for recipient %q, got %v", recipient, err)
		}
	}

	// Rejections show up in the delivery metric alongside the relay outcomes.
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	env.api.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), `dashboard_email_deliveries_total{status="rejected"}`) {
		t.Fatal("rejected email requests should be counted")
	}
}

func TestSendPredictionEmailRequiresAuth(t *testing.T) {
	env := setupTestEnv(t)
	client := env.newClient()

	if err := client.Post("/send-prediction-email").Json(emailRequest("patient@mail.com")).Do(nil); err == nil {
		t.Fatal("expected unauthorized")
	}
}
