package assemble

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quizforge/internal/domain"
	"quizforge/internal/pipeline"
	"quizforge/internal/storage"
	"quizforge/pkg/zip"
)

// Client drives the external video assembler. Frames are downloaded from the
// renderer's URLs, packed into a single zip upload (archive order is frame
// order), and the returned video bytes are persisted through the file store.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *storage.FileStore
}

const (
	defaultTimeout = 300 * time.Second
	maxFrameBytes  = 8 << 20
	maxVideoBytes  = 256 << 20
)

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Store      *storage.FileStore
}

func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("assemble base url is required")
	}
	if opts.Store == nil {
		return nil, errors.New("assemble file store is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, httpClient: client, store: opts.Store}, nil
}

// Assemble builds the job's video and returns the storage key of the saved
// file.
func (c *Client) Assemble(ctx context.Context, job *domain.Job) (string, error) {
	assets, err := c.fetchFrames(ctx, job.Payload.FrameURLs)
	if err != nil {
		return "", err
	}
	if len(assets) == 0 {
		return "", errors.New("assemble: no frames to archive")
	}
	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		return "", fmt.Errorf("archive frames: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/assemble", bytes.NewReader(archive))
	if err != nil {
		return "", fmt.Errorf("create assemble request: %w", err)
	}
	req.Header.Set("Content-Type", "application/zip")
	req.Header.Set("X-Job-ID", job.ID)
	if hint := voiceoverHint(job); hint != "" {
		req.Header.Set("X-Voiceover-Hint", hint)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("invoke assembler: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("assembler status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	video, err := io.ReadAll(io.LimitReader(resp.Body, maxVideoBytes))
	if err != nil {
		return "", fmt.Errorf("read assembled video: %w", err)
	}
	if len(video) == 0 {
		return "", errors.New("assembler returned an empty video")
	}

	key := fmt.Sprintf("videos/%s/short.mp4", job.ID)
	savedKey, err := c.store.Write(ctx, key, video)
	if err != nil {
		return "", fmt.Errorf("persist assembled video: %w", err)
	}
	return savedKey, nil
}

func (c *Client) fetchFrames(ctx context.Context, urls []string) ([]zip.Asset, error) {
	assets := make([]zip.Asset, 0, len(urls))
	for i, frameURL := range urls {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, frameURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create frame request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch frame %d: %w", i+1, err)
		}
		data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxFrameBytes))
		mime := resp.Header.Get("Content-Type")
		status := resp.StatusCode
		resp.Body.Close()
		if status >= http.StatusBadRequest {
			return nil, fmt.Errorf("fetch frame %d: status %d", i+1, status)
		}
		if readErr != nil {
			return nil, fmt.Errorf("read frame %d: %w", i+1, readErr)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("frame %d is empty", i+1)
		}
		assets = append(assets, zip.Asset{
			Filename: fmt.Sprintf("frame-%03d%s", i+1, extensionForMIME(mime)),
			MIME:     mime,
			Data:     data,
		})
	}
	return assets, nil
}

// voiceoverHint gives the assembler something to narrate. Best effort; the
// assembler works without it.
func voiceoverHint(job *domain.Job) string {
	if job.Payload.Content == nil {
		return ""
	}
	subject, answer := job.Payload.Content.SemanticFields()
	if answer == "" {
		return subject
	}
	return subject + " " + answer
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

var _ pipeline.VideoAssembler = (*Client)(nil)
