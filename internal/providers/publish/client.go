package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"quizforge/internal/pipeline"
	"quizforge/internal/storage"
)

// Client talks to the publish target (the video platform's upload API).
// Uploads carry the content fingerprint as a tag so a later invocation can
// recognize an already-published video without a local record.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	store      *storage.FileStore
}

const defaultTimeout = 300 * time.Second

type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Store      *storage.FileStore
}

func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("publish base url is required")
	}
	if opts.Store == nil {
		return nil, errors.New("publish file store is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(opts.APIKey),
		httpClient: client,
		store:      opts.Store,
	}, nil
}

// RemoteVideo is one already-published item as reported by the target.
type RemoteVideo struct {
	ExternalID  string    `json:"external_id"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
}

// UploadsPage is one page of the target's uploads listing.
type UploadsPage struct {
	Items         []RemoteVideo `json:"items"`
	NextPageToken string        `json:"next_page_token"`
}

type uploadResponse struct {
	ExternalID string `json:"external_id"`
	Error      string `json:"error,omitempty"`
}

type lookupResponse struct {
	ExternalID string `json:"external_id"`
}

// Upload sends the assembled video and returns the remote id.
func (c *Client) Upload(ctx context.Context, req pipeline.UploadRequest) (string, error) {
	video, err := c.store.Read(ctx, req.VideoKey)
	if err != nil {
		return "", fmt.Errorf("load video: %w", err)
	}

	meta := map[string]any{
		"account_id":  req.AccountID,
		"title":       presentTitle(req.Title, req.Locale),
		"description": req.Description,
		"tags":        append([]string{"fp:" + req.Fingerprint}, req.Tags...),
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal upload metadata: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/uploads", bytes.NewReader(video))
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "video/mp4")
	httpReq.Header.Set("X-Upload-Metadata", string(metaJSON))
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("invoke publish target: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("publish target status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("publish target: %s", out.Error)
	}
	if out.ExternalID == "" {
		return "", errors.New("publish target returned no external id")
	}
	return out.ExternalID, nil
}

// FindByFingerprint asks the target whether a video tagged with the
// fingerprint already exists for the account. Returns "" when absent.
func (c *Client) FindByFingerprint(ctx context.Context, accountID, fingerprint string) (string, error) {
	endpoint := fmt.Sprintf("%s/v1/uploads/lookup?account_id=%s&tag=%s",
		c.baseURL, url.QueryEscape(accountID), url.QueryEscape("fp:"+fingerprint))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create lookup request: %w", err)
	}
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("invoke lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("lookup status %d", resp.StatusCode)
	}

	var out lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode lookup response: %w", err)
	}
	return out.ExternalID, nil
}

// ListUploads pages through everything the target has published for the
// account, pipeline-originated or not.
func (c *Client) ListUploads(ctx context.Context, accountID, pageToken string) (UploadsPage, error) {
	endpoint := fmt.Sprintf("%s/v1/uploads?account_id=%s", c.baseURL, url.QueryEscape(accountID))
	if pageToken != "" {
		endpoint += "&page_token=" + url.QueryEscape(pageToken)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return UploadsPage{}, fmt.Errorf("create list request: %w", err)
	}
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return UploadsPage{}, fmt.Errorf("invoke list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return UploadsPage{}, fmt.Errorf("list status %d", resp.StatusCode)
	}

	var page UploadsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return UploadsPage{}, fmt.Errorf("decode list response: %w", err)
	}
	return page, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// presentTitle applies locale-aware title casing so generated headlines look
// publishable regardless of how the model cased them.
func presentTitle(title, locale string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Untitled short"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return cases.Title(tag, cases.NoLower).String(title)
}

var _ pipeline.VideoPublisher = (*Client)(nil)
