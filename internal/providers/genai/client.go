package genai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quizforge/internal/domain"
	"quizforge/internal/infra"
	"quizforge/internal/pipeline"
)

// Options controls how the Gemini content generator is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client generates quiz/tip/vocab content through Gemini. Without an API key
// it produces deterministic synthetic content so the rest of the pipeline
// (persistence, rendering, assembly, publish) stays exercisable in local and
// CI environments.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

const defaultTimeout = 30 * time.Second

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	CandidateCount   int     `json:"candidateCount,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-1.5-flash"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
	}, nil
}

// Model returns the configured Gemini model identifier.
func (c *Client) Model() string {
	return c.model
}

// Generate produces one piece of content for the job's persona and topic.
// The variation markers are stamped here and never change afterwards.
func (c *Client) Generate(ctx context.Context, req pipeline.GenerateRequest) (*pipeline.GenerateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kind := domain.KindForPersona(req.Persona)
	markers := newMarkers()

	if c.apiKey == "" {
		content := syntheticContent(kind, req, markers.token)
		c.logger.Debug().
			Str("job_id", req.JobID).
			Str("persona", req.Persona).
			Msg("genai: generated synthetic content")
		return &pipeline.GenerateResult{Content: content, TimeMarker: markers.time, TokenMarker: markers.token}, nil
	}

	content, err := c.remoteGenerate(ctx, kind, req)
	if err != nil {
		return nil, err
	}
	return &pipeline.GenerateResult{Content: *content, TimeMarker: markers.time, TokenMarker: markers.token}, nil
}

func (c *Client) remoteGenerate(ctx context.Context, kind domain.ContentKind, req pipeline.GenerateRequest) (*domain.Content, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: buildPrompt(kind, req)}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      req.Temperature,
			CandidateCount:   1,
			ResponseMimeType: "application/json",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr geminiErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}
	text := extractText(out)
	if text == "" {
		return nil, errors.New("gemini returned no text candidate")
	}
	content, err := parseContent(kind, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidContent, err)
	}
	return content, nil
}

func extractText(resp geminiResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

// parseContent decodes the model's JSON into the variant the persona expects
// and validates the semantic fields are present.
func parseContent(kind domain.ContentKind, raw string) (*domain.Content, error) {
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return nil, errors.New("empty payload")
	}

	content := &domain.Content{Kind: kind}
	switch kind {
	case domain.KindVocab:
		var v domain.VocabContent
		if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
			return nil, err
		}
		if strings.TrimSpace(v.Word) == "" || strings.TrimSpace(v.Meaning) == "" {
			return nil, errors.New("vocab content missing word or meaning")
		}
		content.Vocab = &v
	case domain.KindTip:
		var t domain.TipContent
		if err := json.Unmarshal([]byte(cleaned), &t); err != nil {
			return nil, err
		}
		if strings.TrimSpace(t.Hook) == "" || len(t.Tips) == 0 {
			return nil, errors.New("tip content missing hook or tips")
		}
		content.Tip = &t
	default:
		var q domain.QuizContent
		if err := json.Unmarshal([]byte(cleaned), &q); err != nil {
			return nil, err
		}
		if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(q.Answer) == "" {
			return nil, errors.New("quiz content missing question or answer")
		}
		content.Quiz = &q
	}
	return content, nil
}

func buildPrompt(kind domain.ContentKind, req pipeline.GenerateRequest) string {
	sb := &strings.Builder{}
	switch kind {
	case domain.KindVocab:
		sb.WriteString("You write vocabulary cards for short educational videos. ")
		sb.WriteString(`Respond strictly with JSON: {"word":string,"meaning":string,"example":string,"synonyms":string[]}.`)
	case domain.KindTip:
		sb.WriteString("You write practical tip cards for short educational videos. ")
		sb.WriteString(`Respond strictly with JSON: {"hook":string,"tips":string[],"call_to_action":string}.`)
	default:
		sb.WriteString("You write multiple-choice quiz cards for short educational videos. ")
		sb.WriteString(`Respond strictly with JSON: {"question":string,"options":string[4],"answer":string,"explanation":string}.`)
	}
	fmt.Fprintf(sb, " Persona: %s. Topic: %s. Language: %s.", req.Persona, req.Topic, coalesce(req.Locale, "en"))
	if len(req.Insights) > 0 {
		fmt.Fprintf(sb, " Recently high-performing themes, lean into them: %s.", strings.Join(req.Insights, "; "))
	}
	sb.WriteString(" Keep every field concise enough to fit a mobile video frame.")
	return sb.String()
}

type markers struct {
	time  string
	token string
}

func newMarkers() markers {
	return markers{
		time:  time.Now().UTC().Format("20060102T150405"),
		token: strings.Split(uuid.NewString(), "-")[0],
	}
}

// syntheticContent derives deterministic content from the topic and token so
// local runs exercise the full pipeline, including the duplicate guard when
// the same topic repeats quickly.
func syntheticContent(kind domain.ContentKind, req pipeline.GenerateRequest, token string) domain.Content {
	seed := deterministicSeed(req.Persona, req.Topic, token)
	switch kind {
	case domain.KindVocab:
		return domain.Content{Kind: kind, Vocab: &domain.VocabContent{
			Word:    fmt.Sprintf("%s-%s", req.Topic, seed[:4]),
			Meaning: fmt.Sprintf("synthetic meaning for %s", req.Topic),
			Example: fmt.Sprintf("A synthetic example sentence about %s.", req.Topic),
		}}
	case domain.KindTip:
		return domain.Content{Kind: kind, Tip: &domain.TipContent{
			Hook: fmt.Sprintf("Three things to know about %s (%s)", req.Topic, seed[:4]),
			Tips: []string{
				fmt.Sprintf("Synthetic tip one for %s", req.Topic),
				fmt.Sprintf("Synthetic tip two for %s", req.Topic),
			},
		}}
	default:
		return domain.Content{Kind: kind, Quiz: &domain.QuizContent{
			Question: fmt.Sprintf("Which statement about %s is true? (%s)", req.Topic, seed[:4]),
			Options:  []string{"Option A", "Option B", "Option C", "Option D"},
			Answer:   "Option A",
		}}
	}
}

func deterministicSeed(parts ...string) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(part))
		hasher.Write([]byte{'|'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

var _ pipeline.ContentGenerator = (*Client)(nil)
