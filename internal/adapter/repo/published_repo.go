package repo

import (
	"context"

	"github.com/google/uuid"

	"quizforge/internal/domain"
	"quizforge/internal/infra"
	"quizforge/internal/sqlinline"
)

// PublishedRepositoryPG implements the local published ledger.
type PublishedRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewPublishedRepository(sql infra.SQLExecutor) *PublishedRepositoryPG {
	return &PublishedRepositoryPG{sql: sql}
}

// InsertIfAbsent inserts the ledger row unless the (account, external id)
// pair already exists. Safe to run repeatedly.
func (r *PublishedRepositoryPG) InsertIfAbsent(ctx context.Context, rec *domain.PublishedVideo) (bool, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QInsertPublishedIfAbsent,
		rec.ID,
		rec.JobID,
		rec.AccountID,
		rec.ExternalID,
		rec.Title,
		rec.PublishedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PublishedRepositoryPG) ExistsByExternalID(ctx context.Context, accountID, externalID string) (bool, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QExistsPublished, accountID, externalID)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

var _ domain.PublishedRepository = (*PublishedRepositoryPG)(nil)
