package pipeline

import (
	"context"
	"time"

	"quizforge/internal/domain"
	"quizforge/internal/infra"
)

// DuplicateGuard checks a trailing window of prior jobs for a matching
// content fingerprint in the same (account, persona) scope.
type DuplicateGuard struct {
	jobs   domain.JobRepository
	window time.Duration
	logger infra.Logger
}

func NewDuplicateGuard(jobs domain.JobRepository, window time.Duration, logger infra.Logger) *DuplicateGuard {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &DuplicateGuard{jobs: jobs, window: window, logger: logger}
}

// IsDuplicate reports whether the fingerprint was seen in the window. A
// failed lookup logs and reports false: duplicate suppression is a quality
// improvement and must never block generation.
func (g *DuplicateGuard) IsDuplicate(ctx context.Context, hash, accountID, persona string) bool {
	if hash == "" {
		return false
	}
	since := time.Now().UTC().Add(-g.window)
	count, err := g.jobs.CountRecentByContentHash(ctx, accountID, persona, hash, since)
	if err != nil {
		g.logger.Warn().Err(err).
			Str("account_id", accountID).
			Str("persona", persona).
			Msg("dedupe: lookup failed, treating as non-duplicate")
		return false
	}
	return count > 0
}
