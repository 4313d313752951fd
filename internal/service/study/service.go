// Package study builds the daily must-study list and records review and
// application events against the card store.
package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/domain/srs"
	"github.com/lingocards/lingo-api/internal/platform/logger"
	"github.com/lingocards/lingo-api/internal/service"
	"github.com/lingocards/lingo-api/internal/store"
)

// ErrNoCards indicates the module has no cards to plan from.
var ErrNoCards = errors.New("module has no cards")

// Event types reported with the state a study event produced.
const (
	EventReview      = "review"
	EventApplication = "application"
)

// Service plans study sessions and records study events.
type Service struct {
	cards     store.CardStore
	scheduler srs.Service
	modules   *domain.ModuleRegistry
	logger    *slog.Logger
}

// NewService creates a study service.
func NewService(
	cards store.CardStore,
	scheduler srs.Service,
	modules *domain.ModuleRegistry,
	logger *slog.Logger,
) *Service {
	if cards == nil {
		panic("cards cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if modules == nil {
		panic("modules cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cards:     cards,
		scheduler: scheduler,
		modules:   modules,
		logger:    logger.With(slog.String("component", "study_service")),
	}
}

// Today returns the module's must-study list for the given day.
// Returns ErrNoCards when the module is empty.
func (s *Service) Today(ctx context.Context, module string, today time.Time) (*domain.StudyPlan, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	today = domain.DateOf(today)

	cards, err := s.cards.List(ctx, module)
	if err != nil {
		return nil, service.NewServiceError("today", "failed to load cards", err)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCards, module)
	}

	candidates, err := s.scheduler.MustUseList(cards, today, s.scheduler.Params().TargetCount)
	if err != nil {
		log.Error("failed to compute study list",
			slog.String("module", module),
			slog.String("error", err.Error()))
		return nil, service.NewServiceError("today", "failed to compute study list", err)
	}

	plan := &domain.StudyPlan{
		Module: module,
		Date:   today,
		Items:  make([]domain.StudyItem, len(candidates)),
	}
	for i, c := range candidates {
		plan.Items[i] = domain.StudyItem{
			Card:   c.Card,
			Score:  c.Priority.Score,
			Forced: c.Priority.Tier == srs.TierForced,
		}
	}

	log.Debug("study list computed",
		slog.String("module", module),
		slog.String("date", domain.FormatDate(today)),
		slog.Int("cards", len(cards)),
		slog.Int("selected", len(plan.Items)),
		slog.Int("forced", plan.ForcedCount()))
	return plan, nil
}

// Learn records an explicit review of the card and returns its new state.
func (s *Service) Learn(ctx context.Context, module, cardID string, today time.Time) (*domain.SRSState, error) {
	return s.record(ctx, EventReview, module, cardID, today, s.scheduler.StateAfterReview)
}

// Use records a practical application of the card and returns its new state.
func (s *Service) Use(ctx context.Context, module, cardID string, today time.Time) (*domain.SRSState, error) {
	return s.record(ctx, EventApplication, module, cardID, today, s.scheduler.StateAfterApplication)
}

type transition func(card *domain.Card, today time.Time) (domain.SRSState, error)

// record runs the read-modify-write of one card inside one transaction.
func (s *Service) record(
	ctx context.Context,
	event, module, cardID string,
	today time.Time,
	next transition,
) (*domain.SRSState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	today = domain.DateOf(today)

	var state domain.SRSState
	err := s.cards.InTx(ctx, func(ctx context.Context, cards store.CardStore) error {
		card, err := cards.Get(ctx, module, cardID)
		if err != nil {
			return err
		}
		state, err = next(card, today)
		if err != nil {
			return err
		}
		return cards.UpdateState(ctx, module, cardID, state)
	})
	if err != nil {
		if !store.IsNotFoundError(err) && !errors.Is(err, domain.ErrUnknownModule) {
			log.Error("failed to record study event",
				slog.String("event", event),
				slog.String("module", module),
				slog.String("card_id", cardID),
				slog.String("error", err.Error()))
		}
		return nil, service.NewServiceError(event, "failed to record "+event, err)
	}

	log.Info("study event recorded",
		slog.String("event", event),
		slog.String("module", module),
		slog.String("card_id", cardID),
		slog.String("date", domain.FormatDate(today)))
	return &state, nil
}

// PlanAll computes today's list for every configured module. Empty modules
// get an empty plan.
func (s *Service) PlanAll(ctx context.Context, today time.Time) (map[string]*domain.StudyPlan, error) {
	plans := make(map[string]*domain.StudyPlan)
	for _, module := range s.modules.IDs() {
		plan, err := s.Today(ctx, module, today)
		if errors.Is(err, ErrNoCards) {
			plan = &domain.StudyPlan{Module: module, Date: domain.DateOf(today)}
		} else if err != nil {
			return nil, fmt.Errorf("module %s: %w", module, err)
		}
		plans[module] = plan
	}
	return plans, nil
}
