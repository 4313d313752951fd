// Package progress serves a learner's course position and per-character
// mastery records.
package progress

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/platform/logger"
	"github.com/lingocards/lingo-api/internal/service"
	"github.com/lingocards/lingo-api/internal/store"
)

// UserData is everything the client needs to resume a session.
type UserData struct {
	Progress *domain.UserProgress
	Mastery  map[string]json.RawMessage
}

// Service reads and writes learner progress.
type Service struct {
	store  store.ProgressStore
	logger *slog.Logger
}

// NewService creates a progress service.
func NewService(progress store.ProgressStore, logger *slog.Logger) *Service {
	if progress == nil {
		panic("progress store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: progress, logger: logger.With(slog.String("component", "progress_service"))}
}

// UserData returns the user's progress, or the defaults when nothing has been
// saved, together with every mastery record keyed by character.
func (s *Service) UserData(ctx context.Context, username string) (*UserData, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	progress, err := s.store.GetProgress(ctx, username)
	switch {
	case store.IsNotFoundError(err):
		log.Debug("no saved progress, using defaults", slog.String("username", username))
		progress = domain.DefaultUserProgress(username)
	case err != nil:
		return nil, service.NewServiceError("user_data", "failed to load progress", err)
	}

	records, err := s.store.ListMastery(ctx, username)
	if err != nil {
		return nil, service.NewServiceError("user_data", "failed to load mastery", err)
	}
	mastery := make(map[string]json.RawMessage, len(records))
	for _, r := range records {
		mastery[r.Char] = r.Record
	}

	return &UserData{Progress: progress, Mastery: mastery}, nil
}

// SaveProgress upserts the user's course position.
func (s *Service) SaveProgress(ctx context.Context, username string, level, quizCount, index int) error {
	progress := &domain.UserProgress{
		Username:     username,
		Level:        level,
		CurrentIndex: index,
		QuizCount:    quizCount,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := progress.Validate(); err != nil {
		return err
	}
	if err := s.store.UpsertProgress(ctx, progress); err != nil {
		return service.NewServiceError("save_progress", "failed to save progress", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("progress saved",
		slog.String("username", username),
		slog.Int("level", level),
		slog.Int("index", index))
	return nil
}

// SaveMastery upserts the mastery record of one character.
func (s *Service) SaveMastery(ctx context.Context, username, char string, record json.RawMessage) error {
	mastery := &domain.WordMastery{
		Username:  username,
		Char:      strings.TrimSpace(char),
		Record:    record,
		UpdatedAt: time.Now().UTC(),
	}
	if err := mastery.Validate(); err != nil {
		return err
	}
	if err := s.store.UpsertMastery(ctx, mastery); err != nil {
		return service.NewServiceError("save_mastery", "failed to save mastery", err)
	}
	return nil
}
