package main

import (
	"context"
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
	"quizforge/internal/http/handlers"
	httpapi "quizforge/internal/http/httpapi"
	"quizforge/internal/infra"
	"quizforge/internal/infra/credentials"
	"quizforge/internal/pipeline"
	"quizforge/internal/providers/assemble"
	"quizforge/internal/providers/genai"
	publishprovider "quizforge/internal/providers/publish"
	"quizforge/internal/providers/render"
	"quizforge/internal/reconcile"
	"quizforge/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	jobs := repo.NewJobRepository(runner, cfg.ClaimLease)
	published := repo.NewPublishedRepository(runner)

	stages, orphans, retries, err := buildPipeline(ctx, cfg, logger, runner, jobs, published)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build pipeline")
	}

	app := handlers.NewApp(jobs, stages, retries, orphans, cfg.ReconcileAccounts, logger)
	router := httpapi.NewRouter(app, cfg.TriggerSecret)

	server := infra.NewHTTPServer(infra.HTTPServerOptions{
		Port:         cfg.Port,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// buildPipeline wires the stage machinery onto the external workers. The API
// and the polling worker share this exact construction.
func buildPipeline(
	ctx context.Context,
	cfg *infra.Config,
	logger infra.Logger,
	runner *infra.SQLRunner,
	jobs domain.JobRepository,
	published domain.PublishedRepository,
) (*pipeline.Stages, *reconcile.OrphanReconciler, *pipeline.RetryReconciler, error) {
	fileStore, err := storage.NewFileStore(resolveStoragePath(cfg.StoragePath))
	if err != nil {
		return nil, nil, nil, err
	}

	credStore := credentials.NewStore(runner)
	geminiKey := loadKey(ctx, logger, cfg.GeminiAPIKey, credStore.GeminiAPIKey, "gemini")
	publishKey := loadKey(ctx, logger, cfg.PublishAPIKey, credStore.PublishAPIKey, "publish")

	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}

	generator, err := genai.NewClient(genai.Options{
		APIKey:     geminiKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		HTTPClient: httpClient,
		Logger:     &logger,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	if geminiKey == "" {
		logger.Warn().Str("model", generator.Model()).Msg("gemini api key missing, using synthetic content generation")
	}

	renderer, err := render.NewClient(render.Options{BaseURL: cfg.RenderBaseURL, HTTPClient: httpClient})
	if err != nil {
		return nil, nil, nil, err
	}
	assembler, err := assemble.NewClient(assemble.Options{BaseURL: cfg.AssembleBaseURL, HTTPClient: httpClient, Store: fileStore})
	if err != nil {
		return nil, nil, nil, err
	}
	publisher, err := publishprovider.NewClient(publishprovider.Options{
		BaseURL: cfg.PublishBaseURL,
		APIKey:  publishKey,
		Store:   fileStore,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	layoutCfg, err := loadLayoutConfig(cfg.LayoutConfigPath)
	if err != nil {
		return nil, nil, nil, err
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
	orphans := reconcile.NewOrphanReconciler(publisher, published, logger)

	return stages, orphans, retries, nil
}

// loadKey prefers the environment and falls back to the integration token
// store so keys can be rotated without a redeploy.
func loadKey(ctx context.Context, logger infra.Logger, fromEnv string, fromStore func(context.Context) (string, error), name string) string {
	key := strings.TrimSpace(fromEnv)
	if key != "" {
		return key
	}
	key, err := fromStore(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("provider", name).Msg("failed to load api key from store")
		return ""
	}
	return key
}

func loadLayoutConfig(path string) (domain.LayoutConfig, error) {
	if strings.TrimSpace(path) == "" {
		return domain.DefaultLayoutConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.LayoutConfig{}, err
	}
	return domain.ParseLayoutConfig(data)
}

func resolveStoragePath(path string) string {
	if path == "" {
		path = "./storage"
	}
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	return path
}
