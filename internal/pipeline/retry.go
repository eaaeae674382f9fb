package pipeline

import (
	"context"

	"quizforge/internal/domain"
	"quizforge/internal/infra"
)

// RetryReconciler resets failed jobs back to the claimable status of their
// current step. Resets honor the per-job attempt cap and the exponential
// next_retry_at window, so permanently failing jobs do not storm. It runs
// opportunistically at the start of stage invocations rather than on its own
// schedule.
type RetryReconciler struct {
	jobs   domain.JobRepository
	logger infra.Logger
}

func NewRetryReconciler(jobs domain.JobRepository, logger infra.Logger) *RetryReconciler {
	return &RetryReconciler{jobs: jobs, logger: logger}
}

// RetryFailedJobs returns how many jobs were made claimable again.
func (r *RetryReconciler) RetryFailedJobs(ctx context.Context) (int, error) {
	count, err := r.jobs.ResetFailed(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		r.logger.Debug().Int("count", count).Msg("retry: reset failed jobs")
	}
	return count, nil
}
