package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron"
	"github.com/lingocards/lingo-api/internal/config"
	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/domain/srs"
	"github.com/lingocards/lingo-api/internal/platform/backend"
	"github.com/lingocards/lingo-api/internal/platform/gemini"
	"github.com/lingocards/lingo-api/internal/platform/migrate"
	"github.com/lingocards/lingo-api/internal/service/auth"
	"github.com/lingocards/lingo-api/internal/service/cards"
	"github.com/lingocards/lingo-api/internal/service/progress"
	"github.com/lingocards/lingo-api/internal/service/speech"
	"github.com/lingocards/lingo-api/internal/service/study"
	"github.com/lingocards/lingo-api/internal/store"
)

// application holds the shared dependencies and releases them on shutdown.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	backend *backend.Backend

	jwtService      auth.JWTService
	cardService     *cards.Service
	studyService    *study.Service
	accountService  *auth.Service
	progressService *progress.Service
	speechService   *speech.Service

	planner *gocron.Scheduler
}

// newApplication opens the storage backend and builds every service on top
// of it.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	modules := domain.NewModuleRegistry(cfg.Modules)

	b, err := backend.Open(ctx, cfg.Database, modules, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	app := &application{config: cfg, logger: logger, backend: b}

	if cfg.Database.AutoMigrate {
		if err := b.Migrate(ctx, migrate.CommandUp); err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	var (
		synth      gemini.Synthesizer
		recognizer gemini.Recognizer
	)
	if cfg.LLM.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, logger, cfg.LLM)
		if err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		synth, recognizer = client, client
	} else {
		logger.Warn("no Gemini API key configured, speech routes are disabled")
	}

	if err := app.buildServices(b.Cards, b.Users, b.Progress, modules, synth, recognizer); err != nil {
		app.cleanup()
		return nil, err
	}

	logger.Info("application initialized",
		slog.Any("modules", modules.IDs()),
		slog.Int("k_target", cfg.SRS.TargetCount))
	return app, nil
}

// buildServices wires the services over the given stores. It is separate from
// newApplication so tests can run the router over in-memory stores.
func (app *application) buildServices(
	cardStore store.CardStore,
	userStore store.UserStore,
	progressStore store.ProgressStore,
	modules *domain.ModuleRegistry,
	synth gemini.Synthesizer,
	recognizer gemini.Recognizer,
) error {
	cfg := app.config
	scheduler := srs.NewServiceWithParams(cfg.SRS.SchedulerParams())
	bcrypt := auth.NewBcryptVerifier(cfg.Auth.BcryptCost)

	app.cardService = cards.NewService(cardStore, modules, cfg.Content.SeedDir, app.logger)
	app.studyService = study.NewService(cardStore, scheduler, modules, app.logger)
	app.accountService = auth.NewService(userStore, bcrypt, bcrypt, app.jwtService, app.logger)
	app.progressService = progress.NewService(progressStore, app.logger)

	var err error
	app.speechService, err = speech.NewService(synth, recognizer, speech.Config{
		AudioDir:       cfg.Content.AudioDir,
		MaxConcurrency: cfg.LLM.MaxConcurrency,
	}, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create speech service: %w", err)
	}
	return nil
}

// Run starts the daily planner and serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	planner, err := app.startPlanner(ctx)
	if err != nil {
		app.cleanup()
		return fmt.Errorf("failed to start planner: %w", err)
	}
	app.planner = planner

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases background jobs and the database connection.
func (app *application) cleanup() {
	if app.planner != nil {
		app.planner.Stop()
	}
	if app.backend != nil {
		if err := app.backend.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
}
