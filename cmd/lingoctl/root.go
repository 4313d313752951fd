package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lingocards/lingo-api/internal/config"
	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/domain/srs"
	"github.com/lingocards/lingo-api/internal/platform/backend"
	"github.com/lingocards/lingo-api/internal/platform/logger"
	"github.com/lingocards/lingo-api/internal/service/cards"
	"github.com/lingocards/lingo-api/internal/service/study"
	"github.com/spf13/cobra"
)

// env is the state shared by every subcommand once the root has loaded the
// configuration.
type env struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
	modules    *domain.ModuleRegistry
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "lingoctl",
		Short:         "Operate a Lingo API deployment",
		Long:          "Inspect daily study lists, run database migrations and load flashcard modules.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&e.configPath, "config", "", "config file (default ./config.yaml and LINGO_* variables)")

	root.AddCommand(newTodayCmd(e))
	root.AddCommand(newMigrateCmd(e))
	root.AddCommand(newImportCmd(e))
	root.AddCommand(newResetCmd(e))
	return root
}

func (e *env) load(cmd *cobra.Command) error {
	var err error
	if e.configPath != "" {
		e.cfg, err = config.LoadFile(e.configPath)
	} else {
		e.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	e.logger, err = logger.Setup(logger.LoggerConfig{Level: e.cfg.Server.LogLevel, Output: cmd.ErrOrStderr()})
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	e.modules = domain.NewModuleRegistry(e.cfg.Modules)
	return nil
}

// open connects to the configured backend. The caller closes it.
func (e *env) open(ctx context.Context) (*backend.Backend, error) {
	return backend.Open(ctx, e.cfg.Database, e.modules, e.logger)
}

func (e *env) cardService(b *backend.Backend) *cards.Service {
	return cards.NewService(b.Cards, e.modules, e.cfg.Content.SeedDir, e.logger)
}

func (e *env) studyService(b *backend.Backend) *study.Service {
	scheduler := srs.NewServiceWithParams(e.cfg.SRS.SchedulerParams())
	return study.NewService(b.Cards, scheduler, e.modules, e.logger)
}

// day resolves a --date flag, defaulting to today in the scheduler's zone.
func (e *env) day(raw string) (time.Time, error) {
	if raw == "" {
		return domain.DateOf(time.Now().In(e.cfg.SRS.Location())), nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
	}
	return d, nil
}
