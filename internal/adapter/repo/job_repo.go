package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"quizforge/internal/domain"
	"quizforge/internal/infra"
	"quizforge/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository on PostgreSQL. Claiming is
// a single CTE with FOR UPDATE SKIP LOCKED, so overlapping stage invocations
// never receive the same row.
type JobRepositoryPG struct {
	sql        infra.SQLExecutor
	claimLease time.Duration
}

// NewJobRepository creates a new job repository. claimLease is how long a
// stamped claim excludes a row from re-claiming; it should exceed the longest
// expected stage duration.
func NewJobRepository(sql infra.SQLExecutor, claimLease time.Duration) *JobRepositoryPG {
	if claimLease <= 0 {
		claimLease = 10 * time.Minute
	}
	return &JobRepositoryPG{sql: sql, claimLease: claimLease}
}

func (r *JobRepositoryPG) Insert(ctx context.Context, job *domain.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Step == 0 {
		job.Step = domain.StepGenerate
	}
	if job.Status == "" {
		job.Status = domain.StatusForStep(job.Step)
	}
	if job.MaxAttempts <= 0 {
		job.MaxAttempts = domain.DefaultMaxAttempts
	}
	payload, err := json.Marshal(job.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = r.sql.Exec(ctx, sqlinline.QInsertJob,
		job.ID,
		job.AccountID,
		job.Persona,
		job.Topic,
		int(job.Step),
		string(job.Status),
		payload,
		job.MaxAttempts,
	)
	return err
}

func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectJobByID, jobID)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (r *JobRepositoryPG) ClaimOldestPending(ctx context.Context, step domain.Step, accountID string) (*domain.Job, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QClaimOldestPendingJob,
		int(step),
		string(domain.StatusForStep(step)),
		accountID,
		r.leaseSeconds(),
	)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNoJobAvailable
		}
		return nil, err
	}
	return job, nil
}

func (r *JobRepositoryPG) ClaimPendingBatch(ctx context.Context, step domain.Step, limit int, accountID string) ([]domain.Job, error) {
	if limit <= 0 {
		limit = 1
	}
	rows, err := r.sql.Query(ctx, sqlinline.QClaimPendingBatch,
		int(step),
		string(domain.StatusForStep(step)),
		accountID,
		r.leaseSeconds(),
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func (r *JobRepositoryPG) Advance(ctx context.Context, jobID string, step domain.Step, status domain.JobStatus, payload domain.Payload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = r.sql.Exec(ctx, sqlinline.QAdvanceJob, jobID, int(step), string(status), raw)
	return err
}

func (r *JobRepositoryPG) MarkFailed(ctx context.Context, jobID string, reason string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkJobFailed, jobID, reason)
	return err
}

func (r *JobRepositoryPG) ResetFailed(ctx context.Context) (int, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QResetFailedJobs)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *JobRepositoryPG) CountRecentByContentHash(ctx context.Context, accountID, persona, hash string, since time.Time) (int, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QCountRecentByContentHash, accountID, persona, hash, since)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// leaseSeconds is the claim queries' lease argument. Whole seconds, never
// zero, so a short lease still excludes a freshly claimed row.
func (r *JobRepositoryPG) leaseSeconds() int {
	secs := int(r.claimLease / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		job     domain.Job
		step    int
		status  string
		payload []byte
	)
	if err := row.Scan(
		&job.ID,
		&job.AccountID,
		&job.Persona,
		&job.Topic,
		&step,
		&status,
		&payload,
		&job.ErrorMessage,
		&job.Attempts,
		&job.MaxAttempts,
		&job.NextRetryAt,
		&job.ClaimedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.Step = domain.Step(step)
	job.Status = domain.JobStatus(status)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &job.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	return &job, nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
