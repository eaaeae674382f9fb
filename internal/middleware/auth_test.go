package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestTriggerAuthRejectsMissingSecret(t *testing.T) {
	handler := TriggerAuth("s3cret")(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/v1/stages/generate", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestTriggerAuthRejectsWrongSecret(t *testing.T) {
	handler := TriggerAuth("s3cret")(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/v1/stages/generate", nil)
	req.Header.Set("X-Trigger-Secret", "wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestTriggerAuthAcceptsMatchingSecret(t *testing.T) {
	handler := TriggerAuth("s3cret")(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/v1/stages/generate", nil)
	req.Header.Set("X-Trigger-Secret", "s3cret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestTriggerAuthDisabledWhenSecretEmpty(t *testing.T) {
	handler := TriggerAuth("")(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/v1/stages/generate", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with auth disabled", rec.Code)
	}
}
