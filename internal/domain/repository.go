package domain

import (
	"context"
	"time"
)

// JobRepository defines persistence for pipeline jobs. Claim methods must be
// race-free: two overlapping invocations of the same stage never receive the
// same row.
type JobRepository interface {
	Insert(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, jobID string) (*Job, error)

	// ClaimOldestPending claims the single oldest claimable job at step,
	// optionally scoped to one account. Returns ErrNoJobAvailable when the
	// queue is empty.
	ClaimOldestPending(ctx context.Context, step Step, accountID string) (*Job, error)

	// ClaimPendingBatch claims up to limit claimable jobs at step,
	// oldest-first. An empty result is not an error.
	ClaimPendingBatch(ctx context.Context, step Step, limit int, accountID string) ([]Job, error)

	// Advance moves a job to the given step/status with the merged payload,
	// clearing any previous error and claim.
	Advance(ctx context.Context, jobID string, step Step, status JobStatus, payload Payload) error

	// MarkFailed records a failure, leaving the step unchanged, incrementing
	// attempts and scheduling the next retry window.
	MarkFailed(ctx context.Context, jobID string, reason string) error

	// ResetFailed flips eligible failed jobs back to the claimable status of
	// their current step and returns how many were reset.
	ResetFailed(ctx context.Context) (int, error)

	// CountRecentByContentHash counts jobs in the (accountID, persona) scope
	// carrying the fingerprint, created at or after since, any status.
	CountRecentByContentHash(ctx context.Context, accountID, persona, hash string, since time.Time) (int, error)
}

// PublishedVideo is one row in the published ledger. JobID is nil for items
// that did not originate from this pipeline (orphans).
type PublishedVideo struct {
	ID          string
	JobID       *string
	AccountID   string
	ExternalID  string
	Title       string
	PublishedAt time.Time
	CreatedAt   time.Time
}

// PublishedRepository is the local ledger of everything published to the
// remote target, pipeline-originated or not.
type PublishedRepository interface {
	// InsertIfAbsent inserts the record unless (account_id, external_id)
	// already exists. Reports whether a row was actually inserted.
	InsertIfAbsent(ctx context.Context, rec *PublishedVideo) (bool, error)
	ExistsByExternalID(ctx context.Context, accountID, externalID string) (bool, error)
}
