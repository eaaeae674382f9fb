package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"quizforge/internal/domain"
)

type CreateJobReq struct {
	AccountID   string `json:"account_id"`
	Persona     string `json:"persona"`
	Topic       string `json:"topic"`
	Layout      string `json:"layout,omitempty"`       // optional explicit layout override
	MaxAttempts int    `json:"max_attempts,omitempty"` // 0 means the default
}

type jobView struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"account_id"`
	Persona      string          `json:"persona"`
	Topic        string          `json:"topic"`
	Step         int             `json:"step"`
	Status       string          `json:"status"`
	Payload      *domain.Payload `json:"payload,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Attempts     int             `json:"attempts"`
	MaxAttempts  int             `json:"max_attempts"`
	NextRetryAt  *time.Time      `json:"next_retry_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func viewOf(job *domain.Job) jobView {
	v := jobView{
		ID:           job.ID,
		AccountID:    job.AccountID,
		Persona:      job.Persona,
		Topic:        job.Topic,
		Step:         int(job.Step),
		Status:       string(job.Status),
		ErrorMessage: job.ErrorMessage,
		Attempts:     job.Attempts,
		MaxAttempts:  job.MaxAttempts,
		NextRetryAt:  job.NextRetryAt,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
	if !job.Payload.IsEmpty() {
		payload := job.Payload
		v.Payload = &payload
	}
	return v
}

// JobsCreate enqueues a new job at the generation step. The job carries its
// whole lifecycle in the row; nothing runs until a stage trigger fires.
func (a *App) JobsCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateJobReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.AccountID = strings.TrimSpace(req.AccountID)
	req.Persona = strings.TrimSpace(req.Persona)
	req.Topic = strings.TrimSpace(req.Topic)
	if req.AccountID == "" || req.Persona == "" || req.Topic == "" {
		a.error(w, http.StatusBadRequest, "account_id, persona and topic are required")
		return
	}
	if req.MaxAttempts < 0 {
		a.error(w, http.StatusBadRequest, "max_attempts must not be negative")
		return
	}

	job := &domain.Job{
		AccountID:   req.AccountID,
		Persona:     req.Persona,
		Topic:       req.Topic,
		Step:        domain.StepGenerate,
		Status:      domain.StatusPending,
		MaxAttempts: req.MaxAttempts,
		Payload:     domain.Payload{Layout: strings.TrimSpace(req.Layout)},
	}
	if job.MaxAttempts == 0 {
		job.MaxAttempts = domain.DefaultMaxAttempts
	}

	if err := a.Jobs.Insert(r.Context(), job); err != nil {
		a.Logger.Error().Err(err).Msg("jobs: insert failed")
		a.error(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	a.json(w, http.StatusCreated, viewOf(job))
}

func (a *App) JobGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := a.Jobs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", id).Msg("jobs: lookup failed")
		a.error(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	a.json(w, http.StatusOK, viewOf(job))
}
