package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"quizforge/internal/domain"
)

type stubJobRepo struct {
	inserted []*domain.Job
	byID     map[string]*domain.Job
}

func (s *stubJobRepo) Insert(ctx context.Context, job *domain.Job) error {
	job.ID = "11111111-1111-1111-1111-111111111111"
	job.CreatedAt = time.Now().UTC()
	job.UpdatedAt = job.CreatedAt
	s.inserted = append(s.inserted, job)
	return nil
}

func (s *stubJobRepo) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	if job, ok := s.byID[jobID]; ok {
		return job, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubJobRepo) ClaimOldestPending(ctx context.Context, step domain.Step, accountID string) (*domain.Job, error) {
	return nil, domain.ErrNoJobAvailable
}

func (s *stubJobRepo) ClaimPendingBatch(ctx context.Context, step domain.Step, limit int, accountID string) ([]domain.Job, error) {
	return nil, nil
}

func (s *stubJobRepo) Advance(ctx context.Context, jobID string, step domain.Step, status domain.JobStatus, payload domain.Payload) error {
	return nil
}

func (s *stubJobRepo) MarkFailed(ctx context.Context, jobID string, reason string) error {
	return nil
}

func (s *stubJobRepo) ResetFailed(ctx context.Context) (int, error) {
	return 0, nil
}

func (s *stubJobRepo) CountRecentByContentHash(ctx context.Context, accountID, persona, hash string, since time.Time) (int, error) {
	return 0, nil
}

func testApp(repo *stubJobRepo) *App {
	return &App{Jobs: repo, Logger: zerolog.Nop()}
}

func TestJobsCreateValidatesRequiredFields(t *testing.T) {
	app := testApp(&stubJobRepo{})

	cases := []string{
		`{"persona":"brain_teaser","topic":"space"}`,
		`{"account_id":"acct-1","topic":"space"}`,
		`{"account_id":"acct-1","persona":"brain_teaser"}`,
		`{"account_id":"  ","persona":"brain_teaser","topic":"space"}`,
		`not json`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/v1/jobs", strings.NewReader(body))
		rec := httptest.NewRecorder()
		app.JobsCreate(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestJobsCreateEnqueuesAtGenerateStep(t *testing.T) {
	repo := &stubJobRepo{}
	app := testApp(repo)

	body := `{"account_id":"acct-1","persona":"brain_teaser","topic":"space","layout":"split_reveal"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	app.JobsCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("inserted %d jobs, want 1", len(repo.inserted))
	}
	job := repo.inserted[0]
	if job.Step != domain.StepGenerate || job.Status != domain.StatusPending {
		t.Fatalf("job enqueued at (%d, %q), want (1, pending)", job.Step, job.Status)
	}
	if job.MaxAttempts != domain.DefaultMaxAttempts {
		t.Fatalf("max_attempts = %d, want default %d", job.MaxAttempts, domain.DefaultMaxAttempts)
	}
	if job.Payload.Layout != "split_reveal" {
		t.Fatalf("layout override not recorded: %+v", job.Payload)
	}

	var view struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if view.ID == "" || view.Status != "pending" {
		t.Fatalf("response = %+v", view)
	}
}

func TestJobGetNotFound(t *testing.T) {
	app := testApp(&stubJobRepo{})
	r := chi.NewRouter()
	r.Get("/v1/jobs/{id}", app.JobGet)

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/unknown", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestJobGetReturnsJob(t *testing.T) {
	job := &domain.Job{
		ID:        "job-1",
		AccountID: "acct-1",
		Persona:   "brain_teaser",
		Topic:     "space",
		Step:      domain.StepRender,
		Status:    domain.StatusFramesPending,
		Payload:   domain.Payload{ContentHash: "abc123", Layout: "classic_card"},
	}
	app := testApp(&stubJobRepo{byID: map[string]*domain.Job{"job-1": job}})
	r := chi.NewRouter()
	r.Get("/v1/jobs/{id}", app.JobGet)

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/job-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var view struct {
		Step    int `json:"step"`
		Payload *struct {
			ContentHash string `json:"content_hash"`
		} `json:"payload"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if view.Step != 2 || view.Payload == nil || view.Payload.ContentHash != "abc123" {
		t.Fatalf("view = %+v", view)
	}
}
