package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDKeepsCallerID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/stages/generate", nil)
	req.Header.Set(HeaderRequestID, "sched-run-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "sched-run-42" {
		t.Fatalf("context id = %q, want %q", seen, "sched-run-42")
	}
	if got := rec.Header().Get(HeaderRequestID); got != "sched-run-42" {
		t.Fatalf("echoed id = %q, want %q", got, "sched-run-42")
	}
}

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen == "" {
		t.Fatalf("expected a generated request id")
	}
	if got := rec.Header().Get(HeaderRequestID); got != seen {
		t.Fatalf("echoed id = %q, context id = %q, want equal", got, seen)
	}
}
