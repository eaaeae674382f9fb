package pipeline

import (
	"context"
	"fmt"
	"time"

	"quizforge/internal/domain"
	"quizforge/internal/infra"
)

// GenerateRequest is what the generation worker needs to produce content.
type GenerateRequest struct {
	JobID       string
	AccountID   string
	Persona     string
	Topic       string
	Locale      string
	Temperature float64
	Insights    []string
}

// GenerateResult carries generated content plus its variation markers.
type GenerateResult struct {
	Content     domain.Content
	TimeMarker  string
	TokenMarker string
}

// ContentGenerator is the opaque AI generation worker.
type ContentGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// FrameRenderer is the opaque content-to-frames worker.
type FrameRenderer interface {
	Render(ctx context.Context, job *domain.Job) ([]string, error)
}

// VideoAssembler turns a job's frames into a stored video, returning the
// storage key of the assembled file.
type VideoAssembler interface {
	Assemble(ctx context.Context, job *domain.Job) (string, error)
}

// UploadRequest is the publish-target upload contract.
type UploadRequest struct {
	AccountID   string
	Title       string
	Description string
	Locale      string
	VideoKey    string
	Fingerprint string
	Tags        []string
}

// VideoPublisher uploads to the remote target. FindByFingerprint lets the
// publish stage skip uploads that already happened, which is what makes a
// re-claimed publish job safe.
type VideoPublisher interface {
	FindByFingerprint(ctx context.Context, accountID, fingerprint string) (string, error)
	Upload(ctx context.Context, req UploadRequest) (string, error)
}

// StagesConfig holds the explicit per-stage claiming choices plus generation
// tuning.
type StagesConfig struct {
	Generate StageConfig
	Render   StageConfig
	Assemble StageConfig
	Publish  StageConfig

	BaseTemperature      float64
	RetryTemperatureBump float64
	DefaultLocale        string
}

// StagesConfigFromEnv maps the service configuration onto stage configs.
func StagesConfigFromEnv(cfg *infra.Config) StagesConfig {
	mode := func(v string) ClaimMode {
		if v == string(ModeBatch) {
			return ModeBatch
		}
		return ModeSingle
	}
	return StagesConfig{
		Generate: StageConfig{Step: domain.StepGenerate, Mode: mode(cfg.GenerateMode), BatchSize: cfg.GenerateBatchSize},
		Render:   StageConfig{Step: domain.StepRender, Mode: mode(cfg.RenderMode), BatchSize: 1},
		Assemble: StageConfig{Step: domain.StepAssemble, Mode: mode(cfg.AssembleMode), BatchSize: 1},
		Publish:  StageConfig{Step: domain.StepPublish, Mode: mode(cfg.PublishMode), BatchSize: 1},

		BaseTemperature:      cfg.GenerateTemperature,
		RetryTemperatureBump: cfg.RetryTemperatureBump,
		DefaultLocale:        cfg.DefaultLocale,
	}
}

// Stages wires the four pipeline stages onto the runner and the external
// workers.
type Stages struct {
	runner    *StageRunner
	guard     *DuplicateGuard
	layouts   *LayoutSelector
	insights  InsightProvider
	generator ContentGenerator
	renderer  FrameRenderer
	assembler VideoAssembler
	publisher VideoPublisher
	ledger    domain.PublishedRepository
	cfg       StagesConfig
	logger    infra.Logger
}

type StagesDeps struct {
	Runner    *StageRunner
	Guard     *DuplicateGuard
	Layouts   *LayoutSelector
	Insights  InsightProvider
	Generator ContentGenerator
	Renderer  FrameRenderer
	Assembler VideoAssembler
	Publisher VideoPublisher
	Ledger    domain.PublishedRepository
	Config    StagesConfig
	Logger    infra.Logger
}

func NewStages(deps StagesDeps) *Stages {
	insights := deps.Insights
	if insights == nil {
		insights = StaticInsights{}
	}
	return &Stages{
		runner:    deps.Runner,
		guard:     deps.Guard,
		layouts:   deps.Layouts,
		insights:  insights,
		generator: deps.Generator,
		renderer:  deps.Renderer,
		assembler: deps.Assembler,
		publisher: deps.Publisher,
		ledger:    deps.Ledger,
		cfg:       deps.Config,
		logger:    deps.Logger,
	}
}

func (s *Stages) RunGenerate(ctx context.Context, accountID string) (Result, error) {
	return s.runner.Run(ctx, s.cfg.Generate, accountID, s.generateJob)
}

func (s *Stages) RunRender(ctx context.Context, accountID string) (Result, error) {
	return s.runner.Run(ctx, s.cfg.Render, accountID, s.renderJob)
}

func (s *Stages) RunAssemble(ctx context.Context, accountID string) (Result, error) {
	return s.runner.Run(ctx, s.cfg.Assemble, accountID, s.assembleJob)
}

func (s *Stages) RunPublish(ctx context.Context, accountID string) (Result, error) {
	return s.runner.Run(ctx, s.cfg.Publish, accountID, s.publishJob)
}

// generateJob produces content, fingerprints it, and applies the one-shot
// duplicate policy: a detected duplicate gets exactly one regeneration at a
// higher temperature; if the substance still fingerprints the same, the job
// proceeds with it rather than looping.
func (s *Stages) generateJob(ctx context.Context, job *domain.Job) (domain.PayloadPatch, error) {
	req := GenerateRequest{
		JobID:       job.ID,
		AccountID:   job.AccountID,
		Persona:     job.Persona,
		Topic:       job.Topic,
		Locale:      s.cfg.DefaultLocale,
		Temperature: s.cfg.BaseTemperature,
	}

	if themes, err := s.insights.TopThemes(ctx, job.AccountID, job.Persona); err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("generate: insights unavailable")
	} else {
		req.Insights = themes
	}

	res, err := s.generator.Generate(ctx, req)
	if err != nil {
		return domain.PayloadPatch{}, fmt.Errorf("content generation: %w", err)
	}
	hash := HashContent(res.Content)

	if s.guard.IsDuplicate(ctx, hash, job.AccountID, job.Persona) {
		req.Temperature += s.cfg.RetryTemperatureBump
		regen, regenErr := s.generator.Generate(ctx, req)
		switch {
		case regenErr != nil:
			s.logger.Warn().Err(regenErr).Str("job_id", job.ID).
				Msg("generate: regeneration failed, keeping duplicate content")
		case HashContent(regen.Content) == hash:
			s.logger.Info().Str("job_id", job.ID).Str("content_hash", hash).
				Msg("generate: regeneration fingerprinted identically, proceeding")
		default:
			res = regen
			hash = HashContent(res.Content)
		}
	}

	layout := s.layouts.Select(job.Persona, job.Payload.Layout)

	return domain.PayloadPatch{
		Content:     &res.Content,
		ContentHash: hash,
		TimeMarker:  res.TimeMarker,
		TokenMarker: res.TokenMarker,
		Layout:      layout,
		Title:       res.Content.Title(),
	}, nil
}

func (s *Stages) renderJob(ctx context.Context, job *domain.Job) (domain.PayloadPatch, error) {
	if job.Payload.Content == nil {
		return domain.PayloadPatch{}, fmt.Errorf("render: %w: content", domain.ErrMissingPayload)
	}
	frames, err := s.renderer.Render(ctx, job)
	if err != nil {
		return domain.PayloadPatch{}, fmt.Errorf("frame rendering: %w", err)
	}
	if len(frames) == 0 {
		return domain.PayloadPatch{}, fmt.Errorf("frame rendering: empty frame list")
	}
	return domain.PayloadPatch{FrameURLs: frames}, nil
}

func (s *Stages) assembleJob(ctx context.Context, job *domain.Job) (domain.PayloadPatch, error) {
	if len(job.Payload.FrameURLs) == 0 {
		return domain.PayloadPatch{}, fmt.Errorf("assemble: %w: frame_urls", domain.ErrMissingPayload)
	}
	videoKey, err := s.assembler.Assemble(ctx, job)
	if err != nil {
		return domain.PayloadPatch{}, fmt.Errorf("video assembly: %w", err)
	}
	return domain.PayloadPatch{VideoKey: videoKey}, nil
}

// publishJob uploads at most once: a fingerprint probe against the remote
// target runs before any upload, so a job re-claimed after a crash or an
// overlapping invocation does not publish twice.
func (s *Stages) publishJob(ctx context.Context, job *domain.Job) (domain.PayloadPatch, error) {
	if job.Payload.VideoKey == "" || job.Payload.ContentHash == "" {
		return domain.PayloadPatch{}, fmt.Errorf("publish: %w: video_key/content_hash", domain.ErrMissingPayload)
	}

	externalID := job.Payload.ExternalID
	if externalID == "" {
		found, err := s.publisher.FindByFingerprint(ctx, job.AccountID, job.Payload.ContentHash)
		if err != nil {
			s.logger.Warn().Err(err).Str("job_id", job.ID).
				Msg("publish: fingerprint probe failed, uploading anyway")
		} else if found != "" {
			s.logger.Info().Str("job_id", job.ID).Str("external_id", found).
				Msg("publish: already published remotely, skipping upload")
			externalID = found
		}
	}

	if externalID == "" {
		id, err := s.publisher.Upload(ctx, UploadRequest{
			AccountID:   job.AccountID,
			Title:       job.Payload.Title,
			Description: describeContent(job),
			Locale:      s.cfg.DefaultLocale,
			VideoKey:    job.Payload.VideoKey,
			Fingerprint: job.Payload.ContentHash,
			Tags:        []string{job.Persona, job.Topic},
		})
		if err != nil {
			return domain.PayloadPatch{}, fmt.Errorf("publish upload: %w", err)
		}
		externalID = id
	}

	jobID := job.ID
	if _, err := s.ledger.InsertIfAbsent(ctx, &domain.PublishedVideo{
		JobID:       &jobID,
		AccountID:   job.AccountID,
		ExternalID:  externalID,
		Title:       job.Payload.Title,
		PublishedAt: time.Now().UTC(),
	}); err != nil {
		// The upload is recorded in the payload only on success, so failing
		// here retries the stage and the fingerprint probe prevents a second
		// upload.
		return domain.PayloadPatch{}, fmt.Errorf("publish ledger: %w", err)
	}

	return domain.PayloadPatch{ExternalID: externalID}, nil
}

func describeContent(job *domain.Job) string {
	if job.Payload.Content == nil {
		return ""
	}
	subject, answer := job.Payload.Content.SemanticFields()
	if answer == "" {
		return subject
	}
	return subject + ": " + answer
}
