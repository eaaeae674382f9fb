package render

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"quizforge/internal/domain"
)

func renderJob() *domain.Job {
	return &domain.Job{
		ID:      "job-1",
		Persona: "brain_teaser",
		Payload: domain.Payload{
			Layout:  "classic_card",
			Content: &domain.Content{Kind: domain.KindQuiz, Quiz: &domain.QuizContent{Question: "Q", Answer: "A"}},
		},
	}
}

func TestRenderReturnsFrameURLs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("request not json: %v", err)
		}
		if req["layout"] != "classic_card" {
			t.Errorf("layout = %v, want classic_card", req["layout"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"frames": []string{"http://frames/1.png", "http://frames/2.png"},
		})
	}))
	defer server.Close()

	client, err := NewClient(Options{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	frames, err := client.Render(context.Background(), renderJob())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("frames = %v, want 2 urls", frames)
	}
}

func TestRenderSurfacesWorkerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "font not found"})
	}))
	defer server.Close()

	client, err := NewClient(Options{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Render(context.Background(), renderJob()); err == nil {
		t.Fatalf("expected worker error to surface")
	}
}
