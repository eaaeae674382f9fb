package pipeline

import (
	"context"
	"errors"
	"unicode/utf8"

	"quizforge/internal/domain"
	"quizforge/internal/infra"
)

// maxErrorMessageLen bounds what a failing stage may write to the job row.
const maxErrorMessageLen = 500

// ClaimMode selects how a stage claims work.
type ClaimMode string

const (
	// ModeBatch fetches up to BatchSize jobs and processes them independently.
	ModeBatch ClaimMode = "batch"
	// ModeSingle claims exactly the oldest pending job. Preferred for
	// expensive or flaky external work: it bounds invocation time and keeps
	// the claim window at one row.
	ModeSingle ClaimMode = "single"
)

// StageConfig is the explicit per-stage claiming choice.
type StageConfig struct {
	Step      domain.Step
	Mode      ClaimMode
	BatchSize int
}

// StageFunc executes one stage's external work for a claimed job and returns
// the payload additions. Any returned error marks the job failed without
// aborting the rest of the batch.
type StageFunc func(ctx context.Context, job *domain.Job) (domain.PayloadPatch, error)

// FailedJob pairs a failed job with the truncated reason recorded on its row,
// so trigger callers see why without a follow-up lookup.
type FailedJob struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Result reports one stage invocation to the trigger caller.
type Result struct {
	Processed    int         `json:"processed_count"`
	FailedJobIDs []string    `json:"failed_job_ids"`
	FailedJobs   []FailedJob `json:"failed_jobs,omitempty"`
	NoWork       bool        `json:"no_work,omitempty"`
}

// StageRunner is the per-stage control loop: claim, execute, advance or mark
// failed. All coordination goes through the job store; the runner holds no
// state between invocations.
type StageRunner struct {
	jobs   domain.JobRepository
	retry  *RetryReconciler
	logger infra.Logger
}

func NewStageRunner(jobs domain.JobRepository, retry *RetryReconciler, logger infra.Logger) *StageRunner {
	return &StageRunner{jobs: jobs, retry: retry, logger: logger}
}

// Run executes one stage invocation. The retry reconciler runs first so
// freshly reset jobs can be picked up in the same invocation. A claim that
// finds nothing returns a no-work result, not an error; a store failure while
// claiming propagates to the caller.
func (r *StageRunner) Run(ctx context.Context, cfg StageConfig, accountID string, work StageFunc) (Result, error) {
	if r.retry != nil {
		if reset, err := r.retry.RetryFailedJobs(ctx); err != nil {
			r.logger.Warn().Err(err).Msg("runner: retry reconcile failed")
		} else if reset > 0 {
			r.logger.Info().Int("reset", reset).Msg("runner: failed jobs reset to pending")
		}
	}

	jobs, err := r.claim(ctx, cfg, accountID)
	if err != nil {
		return Result{}, err
	}
	if len(jobs) == 0 {
		return Result{NoWork: true, FailedJobIDs: []string{}}, nil
	}

	result := Result{FailedJobIDs: []string{}}
	for i := range jobs {
		job := &jobs[i]
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := r.runJob(ctx, cfg, job, work); err != nil {
			result.FailedJobIDs = append(result.FailedJobIDs, job.ID)
			result.FailedJobs = append(result.FailedJobs, FailedJob{ID: job.ID, Error: truncateError(err)})
			continue
		}
		result.Processed++
	}
	return result, nil
}

func (r *StageRunner) claim(ctx context.Context, cfg StageConfig, accountID string) ([]domain.Job, error) {
	if cfg.Mode == ModeSingle {
		job, err := r.jobs.ClaimOldestPending(ctx, cfg.Step, accountID)
		if err != nil {
			if errors.Is(err, domain.ErrNoJobAvailable) {
				return nil, nil
			}
			return nil, err
		}
		return []domain.Job{*job}, nil
	}
	return r.jobs.ClaimPendingBatch(ctx, cfg.Step, cfg.BatchSize, accountID)
}

// runJob is the per-job error boundary. One job's failure never aborts the
// batch: the error is recorded on the row, truncated, step unchanged.
func (r *StageRunner) runJob(ctx context.Context, cfg StageConfig, job *domain.Job, work StageFunc) error {
	patch, err := work(ctx, job)
	if err != nil {
		reason := truncateError(err)
		r.logger.Error().Err(err).
			Str("job_id", job.ID).
			Int("step", int(cfg.Step)).
			Msg("runner: stage work failed")
		if markErr := r.jobs.MarkFailed(ctx, job.ID, reason); markErr != nil {
			r.logger.Error().Err(markErr).Str("job_id", job.ID).Msg("runner: mark failed errored")
		}
		return err
	}

	payload := job.Payload
	patch.Apply(&payload)
	nextStep, nextStatus := domain.AdvanceFrom(cfg.Step)
	if err := r.jobs.Advance(ctx, job.ID, nextStep, nextStatus, payload); err != nil {
		r.logger.Error().Err(err).Str("job_id", job.ID).Msg("runner: advance failed")
		return err
	}

	r.logger.Info().
		Str("job_id", job.ID).
		Int("step", int(cfg.Step)).
		Str("next_status", string(nextStatus)).
		Msg("runner: job advanced")
	return nil
}

// truncateError bounds the message and never cuts mid-rune, since the row's
// text column rejects invalid UTF-8.
func truncateError(err error) string {
	msg := err.Error()
	if len(msg) <= maxErrorMessageLen {
		return msg
	}
	cut := maxErrorMessageLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
