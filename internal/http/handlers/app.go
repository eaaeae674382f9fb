package handlers

import (
	"encoding/json"
	"net/http"

	"quizforge/internal/domain"
	"quizforge/internal/infra"
	"quizforge/internal/pipeline"
	"quizforge/internal/reconcile"
)

// App bundles everything the trigger surface needs. Handlers stay thin: they
// translate HTTP into stage invocations and job-store calls.
type App struct {
	Jobs     domain.JobRepository
	Stages   *pipeline.Stages
	Retries  *pipeline.RetryReconciler
	Orphans  *reconcile.OrphanReconciler
	Accounts []string
	Logger   infra.Logger
}

func NewApp(jobs domain.JobRepository, stages *pipeline.Stages, retries *pipeline.RetryReconciler, orphans *reconcile.OrphanReconciler, accounts []string, logger infra.Logger) *App {
	return &App{
		Jobs:     jobs,
		Stages:   stages,
		Retries:  retries,
		Orphans:  orphans,
		Accounts: accounts,
		Logger:   logger,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}
