package reconcile

import (
	"context"
	"time"

	"quizforge/internal/domain"
	"quizforge/internal/infra"
	"quizforge/internal/providers/publish"
)

// UploadLister pages the publish target's authoritative uploads list.
type UploadLister interface {
	ListUploads(ctx context.Context, accountID, pageToken string) (publish.UploadsPage, error)
}

// OrphanReconciler inserts ledger rows for remote videos that did not come
// through the pipeline (manual uploads), so downstream analytics see the
// complete published set. Inserts are idempotent; repeated runs are safe.
type OrphanReconciler struct {
	lister UploadLister
	ledger domain.PublishedRepository
	logger infra.Logger
}

func NewOrphanReconciler(lister UploadLister, ledger domain.PublishedRepository, logger infra.Logger) *OrphanReconciler {
	return &OrphanReconciler{lister: lister, ledger: ledger, logger: logger}
}

// Reconcile processes each account independently: one account's remote list
// failing never blocks the others. Returns the total number of ledger rows
// recovered.
func (r *OrphanReconciler) Reconcile(ctx context.Context, accountIDs []string) int {
	total := 0
	for _, accountID := range accountIDs {
		recovered, err := r.reconcileAccount(ctx, accountID)
		if err != nil {
			r.logger.Error().Err(err).
				Str("account_id", accountID).
				Msg("reconcile: account failed")
			continue
		}
		total += recovered
	}
	return total
}

func (r *OrphanReconciler) reconcileAccount(ctx context.Context, accountID string) (int, error) {
	recovered := 0
	pageToken := ""
	for {
		page, err := r.lister.ListUploads(ctx, accountID, pageToken)
		if err != nil {
			return recovered, err
		}
		for _, item := range page.Items {
			if item.ExternalID == "" {
				continue
			}
			publishedAt := item.PublishedAt
			if publishedAt.IsZero() {
				publishedAt = time.Now().UTC()
			}
			// JobID stays nil: this item did not originate from the pipeline.
			inserted, err := r.ledger.InsertIfAbsent(ctx, &domain.PublishedVideo{
				AccountID:   accountID,
				ExternalID:  item.ExternalID,
				Title:       item.Title,
				PublishedAt: publishedAt,
			})
			if err != nil {
				return recovered, err
			}
			if inserted {
				recovered++
				r.logger.Info().
					Str("account_id", accountID).
					Str("external_id", item.ExternalID).
					Msg("reconcile: recovered orphan upload")
			}
		}
		if page.NextPageToken == "" {
			return recovered, nil
		}
		pageToken = page.NextPageToken
	}
}
