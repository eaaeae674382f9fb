package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"quizforge/internal/adapter/repo"
	"quizforge/internal/domain"
	"quizforge/internal/infra"
	"quizforge/internal/infra/credentials"
	"quizforge/internal/pipeline"
	"quizforge/internal/providers/assemble"
	"quizforge/internal/providers/genai"
	publishprovider "quizforge/internal/providers/publish"
	"quizforge/internal/providers/render"
	"quizforge/internal/storage"
)

const stagePollInterval = 5 * time.Second

// stageWorker drives the pipeline without an external scheduler: it polls
// every stage in order, oldest work first. Claim safety is identical to the
// HTTP triggers because both go through the same claim queries.
type stageWorker struct {
	ctx    context.Context
	stages *pipeline.Stages
	logger infra.Logger
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	jobs := repo.NewJobRepository(runner, cfg.ClaimLease)
	published := repo.NewPublishedRepository(runner)

	storagePath := cfg.StoragePath
	if storagePath == "" {
		storagePath = "./storage"
	}
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	fileStore, err := storage.NewFileStore(storagePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	credStore := credentials.NewStore(runner)
	geminiKey := strings.TrimSpace(cfg.GeminiAPIKey)
	if geminiKey == "" {
		if key, err := credStore.GeminiAPIKey(ctx); err != nil {
			logger.Warn().Err(err).Msg("worker: failed to load gemini api key from store")
		} else {
			geminiKey = key
		}
	}
	publishKey := strings.TrimSpace(cfg.PublishAPIKey)
	if publishKey == "" {
		if key, err := credStore.PublishAPIKey(ctx); err != nil {
			logger.Warn().Err(err).Msg("worker: failed to load publish api key from store")
		} else {
			publishKey = key
		}
	}

	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}
	generator, err := genai.NewClient(genai.Options{
		APIKey:     geminiKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		HTTPClient: httpClient,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure gemini client")
	}
	if geminiKey == "" {
		logger.Warn().Str("model", generator.Model()).Msg("worker: gemini api key missing, using synthetic content generation")
	}

	renderer, err := render.NewClient(render.Options{BaseURL: cfg.RenderBaseURL, HTTPClient: httpClient})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure renderer client")
	}
	assembler, err := assemble.NewClient(assemble.Options{BaseURL: cfg.AssembleBaseURL, HTTPClient: httpClient, Store: fileStore})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure assembler client")
	}
	publisher, err := publishprovider.NewClient(publishprovider.Options{
		BaseURL: cfg.PublishBaseURL,
		APIKey:  publishKey,
		Store:   fileStore,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure publish client")
	}

	layoutCfg := domain.DefaultLayoutConfig()
	if path := strings.TrimSpace(cfg.LayoutConfigPath); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: failed to read layout config")
		}
		layoutCfg, err = domain.ParseLayoutConfig(data)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: invalid layout config")
		}
	}

	retries := pipeline.NewRetryReconciler(jobs, logger)
	stages := pipeline.NewStages(pipeline.StagesDeps{
		Runner:    pipeline.NewStageRunner(jobs, retries, logger),
		Guard:     pipeline.NewDuplicateGuard(jobs, cfg.DuplicateWindow, logger),
		Layouts:   pipeline.NewLayoutSelector(layoutCfg, rand.New(rand.NewSource(time.Now().UnixNano()))),
		Generator: generator,
		Renderer:  renderer,
		Assembler: assembler,
		Publisher: publisher,
		Ledger:    published,
		Config:    pipeline.StagesConfigFromEnv(cfg),
		Logger:    logger,
	})

	worker := &stageWorker{ctx: ctx, stages: stages, logger: logger}
	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *stageWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		if !w.runOnce() {
			select {
			case <-w.ctx.Done():
				return w.ctx.Err()
			case <-time.After(stagePollInterval):
			}
		}
	}
}

// runOnce invokes each stage once, downstream-first so a job can flow through
// the whole pipeline across a few sweeps. Reports whether any stage found work.
func (w *stageWorker) runOnce() bool {
	type stage struct {
		name string
		run  func(context.Context, string) (pipeline.Result, error)
	}
	sweep := []stage{
		{"publish", w.stages.RunPublish},
		{"assemble", w.stages.RunAssemble},
		{"render", w.stages.RunRender},
		{"generate", w.stages.RunGenerate},
	}

	worked := false
	for _, s := range sweep {
		result, err := s.run(w.ctx, "")
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return worked
			}
			w.logger.Error().Err(err).Str("stage", s.name).Msg("worker: stage invocation failed")
			continue
		}
		if !result.NoWork {
			worked = true
			w.logger.Info().
				Str("stage", s.name).
				Int("processed", result.Processed).
				Int("failed", len(result.FailedJobIDs)).
				Msg("worker: stage sweep")
		}
	}
	return worked
}
