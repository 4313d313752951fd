// Package cards manages the card decks of each learning module: CRUD on single
// cards plus bulk replacement from seed files and imports.
package cards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/platform/logger"
	"github.com/lingocards/lingo-api/internal/service"
	"github.com/lingocards/lingo-api/internal/store"
)

// Errors returned by the card service.
var (
	// ErrSeedNotFound indicates no seed file exists for the module.
	ErrSeedNotFound = errors.New("seed file not found")

	// ErrInvalidRecord indicates an imported record is not a usable card.
	ErrInvalidRecord = errors.New("invalid card record")

	// ErrUnsupportedFormat indicates an import file type that cannot be read.
	ErrUnsupportedFormat = errors.New("unsupported import format")
)

// seedExtensions are tried in order when resetting a module.
var seedExtensions = []string{".json", ".yaml", ".yml"}

// Service provides card operations for all configured modules.
type Service struct {
	cards   store.CardStore
	modules *domain.ModuleRegistry
	seedDir string
	logger  *slog.Logger
}

// NewService creates a card service reading seed files from seedDir.
func NewService(
	cards store.CardStore,
	modules *domain.ModuleRegistry,
	seedDir string,
	logger *slog.Logger,
) *Service {
	if cards == nil {
		panic("cards cannot be nil")
	}
	if modules == nil {
		panic("modules cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cards:   cards,
		modules: modules,
		seedDir: seedDir,
		logger:  logger.With(slog.String("component", "card_service")),
	}
}

// List returns every card of the module.
func (s *Service) List(ctx context.Context, module string) ([]domain.Card, error) {
	cards, err := s.cards.List(ctx, module)
	if err != nil {
		return nil, service.NewServiceError("list_cards", "failed to list cards", err)
	}
	return cards, nil
}

// Get returns a single card.
func (s *Service) Get(ctx context.Context, module, id string) (*domain.Card, error) {
	card, err := s.cards.Get(ctx, module, id)
	if err != nil {
		return nil, service.NewServiceError("get_card", "failed to get card", err)
	}
	return card, nil
}

// Create stores a new card built from a client payload. The payload's cardid
// is used when present, otherwise the next free "<module>_card_<n>" id is
// allocated. New cards always start with the default SRS state.
func (s *Service) Create(
	ctx context.Context,
	module string,
	payload json.RawMessage,
	today time.Time,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rec, err := parseRecord(payload)
	if err != nil {
		return nil, err
	}

	id := rec.id
	if id == "" {
		ids, err := s.cards.ListIDs(ctx, module)
		if err != nil {
			return nil, service.NewServiceError("create_card", "failed to allocate card id", err)
		}
		id = domain.NextCardID(module, ids)
	}

	card, err := domain.NewCard(module, id, rec.content, today)
	if err != nil {
		return nil, err
	}

	if err := s.cards.Create(ctx, card); err != nil {
		return nil, service.NewServiceError("create_card", "failed to create card", err)
	}

	log.Info("card created",
		slog.String("module", module),
		slog.String("card_id", card.ID))
	return card, nil
}

// Update replaces the card's content. A cardid key in the payload is ignored.
func (s *Service) Update(ctx context.Context, module, id string, payload json.RawMessage) (*domain.Card, error) {
	rec, err := parseRecord(payload)
	if err != nil {
		return nil, err
	}

	card, err := s.cards.UpdateContent(ctx, module, id, rec.content)
	if err != nil {
		return nil, service.NewServiceError("update_card", "failed to update card", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("card updated",
		slog.String("module", module),
		slog.String("card_id", id))
	return card, nil
}

// Delete removes a card.
func (s *Service) Delete(ctx context.Context, module, id string) error {
	if err := s.cards.Delete(ctx, module, id); err != nil {
		return service.NewServiceError("delete_card", "failed to delete card", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("card deleted",
		slog.String("module", module),
		slog.String("card_id", id))
	return nil
}

// Import replaces every card of the module with the given records and
// returns how many were stored.
func (s *Service) Import(
	ctx context.Context,
	module string,
	records []json.RawMessage,
	today time.Time,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.modules.Lookup(module); err != nil {
		return 0, fmt.Errorf("%w: %s", err, module)
	}

	cards, err := buildCards(module, records, today)
	if err != nil {
		return 0, err
	}

	if err := s.cards.ReplaceAll(ctx, module, cards); err != nil {
		log.Error("failed to replace cards",
			slog.String("module", module),
			slog.Int("count", len(cards)),
			slog.String("error", err.Error()))
		return 0, service.NewServiceError("import_cards", "failed to replace cards", err)
	}

	log.Info("cards imported",
		slog.String("module", module),
		slog.Int("count", len(cards)))
	return len(cards), nil
}

// ImportFile reads records from a .json, .yaml, .yml or .xlsx file and
// imports them.
func (s *Service) ImportFile(ctx context.Context, module, path string, today time.Time) (int, error) {
	records, err := readRecords(path)
	if err != nil {
		return 0, err
	}
	return s.Import(ctx, module, records, today)
}

// Reset reloads the module from its seed file in the seed directory.
// Returns ErrSeedNotFound when the module has no seed file.
func (s *Service) Reset(ctx context.Context, module string, today time.Time) (int, error) {
	if _, err := s.modules.Lookup(module); err != nil {
		return 0, fmt.Errorf("%w: %s", err, module)
	}

	path, err := s.seedPath(module)
	if err != nil {
		return 0, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("resetting module from seed",
		slog.String("module", module),
		slog.String("seed", path))
	return s.ImportFile(ctx, module, path, today)
}

func (s *Service) seedPath(module string) (string, error) {
	base := filepath.Join(s.seedDir, module+"_cards")
	for _, ext := range seedExtensions {
		path := base + ext
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrSeedNotFound, module)
}

// buildCards turns records into cards, allocating ids for records without
// one after every explicit id is known.
func buildCards(module string, records []json.RawMessage, today time.Time) ([]domain.Card, error) {
	parsed := make([]*record, len(records))
	ids := make([]string, 0, len(records))
	for i, raw := range records {
		rec, err := parseRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		parsed[i] = rec
		if rec.id != "" {
			ids = append(ids, rec.id)
		}
	}

	cards := make([]domain.Card, 0, len(parsed))
	for i, rec := range parsed {
		id := rec.id
		if id == "" {
			id = domain.NextCardID(module, ids)
			ids = append(ids, id)
		}

		card, err := domain.NewCard(module, id, rec.content, today)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		state, err := rec.state(card.SRSState)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		card.SRSState = state
		cards = append(cards, *card)
	}
	return cards, nil
}
