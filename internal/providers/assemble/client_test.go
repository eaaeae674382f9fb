package assemble

import (
	archivezip "archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quizforge/internal/domain"
	"quizforge/internal/storage"
)

func testStore(t *testing.T) *storage.FileStore {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return store
}

func TestAssembleRejectsJobWithoutFrames(t *testing.T) {
	client, err := NewClient(Options{BaseURL: "http://assembler.invalid", Store: testStore(t)})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	job := &domain.Job{ID: "job-1"}
	if _, err := client.Assemble(context.Background(), job); err == nil {
		t.Fatalf("expected error for a job with no frame urls")
	} else if !strings.Contains(err.Error(), "no frames") {
		t.Fatalf("error = %q, want mention of missing frames", err)
	}
}

func TestAssemblePostsFramesInOrderAndStoresVideo(t *testing.T) {
	frames := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-" + strings.TrimPrefix(r.URL.Path, "/")))
	}))
	defer frames.Close()

	video := []byte("mp4-bytes")
	var gotJobID string
	var gotEntries []string
	assembler := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotJobID = r.Header.Get("X-Job-ID")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read archive: %v", err)
		}
		zr, err := archivezip.NewReader(bytes.NewReader(body), int64(len(body)))
		if err != nil {
			t.Errorf("open archive: %v", err)
		} else {
			for _, f := range zr.File {
				gotEntries = append(gotEntries, f.Name)
			}
		}
		_, _ = w.Write(video)
	}))
	defer assembler.Close()

	store := testStore(t)
	client, err := NewClient(Options{BaseURL: assembler.URL, Store: store})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	job := &domain.Job{
		ID: "job-7",
		Payload: domain.Payload{
			FrameURLs: []string{frames.URL + "/one", frames.URL + "/two"},
		},
	}
	key, err := client.Assemble(context.Background(), job)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if gotJobID != "job-7" {
		t.Fatalf("X-Job-ID = %q, want %q", gotJobID, "job-7")
	}
	want := []string{"frame-001.png", "frame-002.png"}
	if len(gotEntries) != len(want) || gotEntries[0] != want[0] || gotEntries[1] != want[1] {
		t.Fatalf("archive entries = %v, want %v", gotEntries, want)
	}

	saved, err := store.Read(context.Background(), key)
	if err != nil {
		t.Fatalf("Read(%q): %v", key, err)
	}
	if !bytes.Equal(saved, video) {
		t.Fatalf("stored video = %q, want %q", saved, video)
	}
}
