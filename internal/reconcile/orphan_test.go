package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"quizforge/internal/domain"
	"quizforge/internal/providers/publish"
)

type fakeLister struct {
	pages map[string][]publish.UploadsPage
	errs  map[string]error
	calls map[string]int
}

func (f *fakeLister) ListUploads(ctx context.Context, accountID, pageToken string) (publish.UploadsPage, error) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	if err := f.errs[accountID]; err != nil {
		return publish.UploadsPage{}, err
	}
	pages := f.pages[accountID]
	idx := f.calls[accountID]
	f.calls[accountID]++
	if idx >= len(pages) {
		return publish.UploadsPage{}, nil
	}
	return pages[idx], nil
}

type fakeLedger struct {
	seen map[string]bool
}

func (f *fakeLedger) InsertIfAbsent(ctx context.Context, rec *domain.PublishedVideo) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	key := rec.AccountID + "/" + rec.ExternalID
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeLedger) ExistsByExternalID(ctx context.Context, accountID, externalID string) (bool, error) {
	return f.seen[accountID+"/"+externalID], nil
}

func remoteVideo(id string) publish.RemoteVideo {
	return publish.RemoteVideo{ExternalID: id, Title: "T " + id, PublishedAt: time.Now().UTC()}
}

func TestReconcileIsIdempotent(t *testing.T) {
	lister := &fakeLister{pages: map[string][]publish.UploadsPage{
		"acct-1": {
			{Items: []publish.RemoteVideo{remoteVideo("v1")}, NextPageToken: "p2"},
			{Items: []publish.RemoteVideo{remoteVideo("v2")}},
		},
	}}
	ledger := &fakeLedger{}
	rec := NewOrphanReconciler(lister, ledger, zerolog.Nop())

	if got := rec.Reconcile(context.Background(), []string{"acct-1"}); got != 2 {
		t.Fatalf("first run recovered = %d, want 2", got)
	}

	lister.calls = nil
	if got := rec.Reconcile(context.Background(), []string{"acct-1"}); got != 0 {
		t.Fatalf("second run recovered = %d, want 0", got)
	}
}

func TestReconcileIsolatesAccountFailures(t *testing.T) {
	lister := &fakeLister{
		pages: map[string][]publish.UploadsPage{
			"acct-ok": {{Items: []publish.RemoteVideo{remoteVideo("v1"), remoteVideo("v2")}}},
		},
		errs: map[string]error{"acct-broken": errors.New("remote unavailable")},
	}
	ledger := &fakeLedger{}
	rec := NewOrphanReconciler(lister, ledger, zerolog.Nop())

	got := rec.Reconcile(context.Background(), []string{"acct-broken", "acct-ok"})
	if got != 2 {
		t.Fatalf("recovered = %d, want 2 from the healthy account", got)
	}
}

func TestReconcileSkipsBlankExternalIDs(t *testing.T) {
	lister := &fakeLister{pages: map[string][]publish.UploadsPage{
		"acct-1": {{Items: []publish.RemoteVideo{{ExternalID: ""}, remoteVideo("v1")}}},
	}}
	ledger := &fakeLedger{}
	rec := NewOrphanReconciler(lister, ledger, zerolog.Nop())

	if got := rec.Reconcile(context.Background(), []string{"acct-1"}); got != 1 {
		t.Fatalf("recovered = %d, want 1", got)
	}
}
