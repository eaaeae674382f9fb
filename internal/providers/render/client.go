package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quizforge/internal/domain"
	"quizforge/internal/pipeline"
)

// Client talks to the headless frame renderer: content and layout in, a list
// of frame image URLs out. The renderer is opaque; slow or failed renders
// surface as plain errors and the stage marks the job failed.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

const defaultTimeout = 120 * time.Second

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("render base url is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, httpClient: client}, nil
}

type renderRequest struct {
	JobID   string          `json:"job_id"`
	Persona string          `json:"persona"`
	Layout  string          `json:"layout"`
	Content *domain.Content `json:"content"`
}

type renderResponse struct {
	Frames []string `json:"frames"`
	Error  string   `json:"error,omitempty"`
}

func (c *Client) Render(ctx context.Context, job *domain.Job) ([]string, error) {
	body, err := json.Marshal(renderRequest{
		JobID:   job.ID,
		Persona: job.Persona,
		Layout:  job.Payload.Layout,
		Content: job.Payload.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoke renderer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("renderer status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode render response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("renderer: %s", out.Error)
	}
	return out.Frames, nil
}

var _ pipeline.FrameRenderer = (*Client)(nil)
