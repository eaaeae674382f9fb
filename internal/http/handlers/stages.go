package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"quizforge/internal/pipeline"
)

type stageFunc func(ctx context.Context, accountID string) (pipeline.Result, error)

// StageGenerate, StageRender, StageAssemble and StagePublish are the four
// scheduler-facing triggers. Each runs exactly one stage invocation and
// reports what it processed; overlap safety lives in the claim queries, not
// here.
func (a *App) StageGenerate(w http.ResponseWriter, r *http.Request) {
	a.runStage(w, r, "generate", a.Stages.RunGenerate)
}

func (a *App) StageRender(w http.ResponseWriter, r *http.Request) {
	a.runStage(w, r, "render", a.Stages.RunRender)
}

func (a *App) StageAssemble(w http.ResponseWriter, r *http.Request) {
	a.runStage(w, r, "assemble", a.Stages.RunAssemble)
}

func (a *App) StagePublish(w http.ResponseWriter, r *http.Request) {
	a.runStage(w, r, "publish", a.Stages.RunPublish)
}

func (a *App) runStage(w http.ResponseWriter, r *http.Request, name string, run stageFunc) {
	accountID := strings.TrimSpace(r.URL.Query().Get("account_id"))
	result, err := run(r.Context(), accountID)
	if err != nil {
		a.Logger.Error().Err(err).Str("stage", name).Msg("stage trigger failed")
		a.error(w, http.StatusInternalServerError, "stage invocation failed")
		return
	}
	a.json(w, http.StatusOK, result)
}

type reconcileOrphansReq struct {
	AccountIDs []string `json:"account_ids"`
}

// ReconcileOrphans scans the publish target's uploads for every named account
// and records the ones the ledger is missing. Falls back to the configured
// account scope when the body names none.
func (a *App) ReconcileOrphans(w http.ResponseWriter, r *http.Request) {
	var req reconcileOrphansReq
	if r.Body != nil {
		// An empty body is fine; it means "use the configured scope".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	accounts := req.AccountIDs
	if accountID := strings.TrimSpace(r.URL.Query().Get("account_id")); accountID != "" {
		accounts = []string{accountID}
	}
	if len(accounts) == 0 {
		accounts = a.Accounts
	}
	if len(accounts) == 0 {
		a.error(w, http.StatusBadRequest, "no account scope: pass account_ids or set RECONCILE_ACCOUNTS")
		return
	}

	recovered := a.Orphans.Reconcile(r.Context(), accounts)
	a.json(w, http.StatusOK, map[string]int{"recovered_count": recovered})
}

// ReconcileRetries resets eligible failed jobs back to their claimable status.
// Stage triggers already run this reconciler inline; the endpoint exists for
// operators who want a reset without processing work.
func (a *App) ReconcileRetries(w http.ResponseWriter, r *http.Request) {
	reset, err := a.Retries.RetryFailedJobs(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("retry reconcile trigger failed")
		a.error(w, http.StatusInternalServerError, "retry reconcile failed")
		return
	}
	a.json(w, http.StatusOK, map[string]int{"reset_count": reset})
}
