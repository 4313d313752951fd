package main

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/lingocards/lingo-api/internal/domain"
)

// startPlanner schedules the daily study plan at srs.plan_time in the
// configured time zone.
func (app *application) startPlanner(ctx context.Context) (*gocron.Scheduler, error) {
	loc := app.config.SRS.Location()
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()

	if _, err := s.Every(1).Day().At(app.config.SRS.PlanTime).Do(app.planDay, ctx, loc); err != nil {
		return nil, err
	}
	s.StartAsync()

	app.logger.Info("daily planner scheduled",
		slog.String("plan_time", app.config.SRS.PlanTime),
		slog.String("timezone", loc.String()))
	return s, nil
}

// planDay computes today's list for every module and logs its size.
func (app *application) planDay(ctx context.Context, loc *time.Location) {
	today := domain.DateOf(time.Now().In(loc))
	plans, err := app.studyService.PlanAll(ctx, today)
	if err != nil {
		app.logger.Error("daily plan failed",
			slog.String("date", domain.FormatDate(today)),
			slog.String("error", err.Error()))
		return
	}

	modules := make([]string, 0, len(plans))
	for module := range plans {
		modules = append(modules, module)
	}
	sort.Strings(modules)
	for _, module := range modules {
		plan := plans[module]
		app.logger.Info("daily plan ready",
			slog.String("module", module),
			slog.String("date", domain.FormatDate(plan.Date)),
			slog.Int("count", len(plan.Items)),
			slog.Int("forced", plan.ForcedCount()))
	}
}
