package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lingocards/lingo-api/internal/api/shared"
	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/platform/logger"
)

// CardService is the card management used by CardHandler.
type CardService interface {
	List(ctx context.Context, module string) ([]domain.Card, error)
	Get(ctx context.Context, module, id string) (*domain.Card, error)
	Create(ctx context.Context, module string, payload json.RawMessage, today time.Time) (*domain.Card, error)
	Update(ctx context.Context, module, id string, payload json.RawMessage) (*domain.Card, error)
	Delete(ctx context.Context, module, id string) error
	Import(ctx context.Context, module string, records []json.RawMessage, today time.Time) (int, error)
	Reset(ctx context.Context, module string, today time.Time) (int, error)
}

// CardHandler serves the card routes of a module.
type CardHandler struct {
	cards  CardService
	today  Clock
	logger *slog.Logger
}

// NewCardHandler creates a CardHandler.
func NewCardHandler(cards CardService, today Clock, logger *slog.Logger) *CardHandler {
	if cards == nil {
		panic("cards cannot be nil for CardHandler")
	}
	if today == nil {
		today = DailyClock(time.UTC)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CardHandler{
		cards:  cards,
		today:  today,
		logger: logger.With(slog.String("component", "card_handler")),
	}
}

// ListCards handles GET /{module}/cards.
func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")

	list, err := h.cards.List(r.Context(), module)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list cards")
		return
	}

	out := make([]map[string]any, len(list))
	for i := range list {
		out[i] = cardJSON(&list[i])
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// GetCard handles GET /{module}/cards/{cardID}.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.cards.Get(r.Context(), chi.URLParam(r, "module"), chi.URLParam(r, "cardID"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CardResponse{Success: true, Card: cardJSON(card)})
}

// CreateCard handles POST /{module}/cards. The body is the card content; a
// cardid key picks the id, otherwise one is generated.
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var payload json.RawMessage
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	card, err := h.cards.Create(r.Context(), chi.URLParam(r, "module"), payload, h.today())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, CardResponse{Success: true, Card: cardJSON(card)})
}

// UpdateCard handles PUT /{module}/cards/{cardID}.
func (h *CardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	var payload json.RawMessage
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	card, err := h.cards.Update(r.Context(), chi.URLParam(r, "module"), chi.URLParam(r, "cardID"), payload)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CardResponse{Success: true, Card: cardJSON(card)})
}

// DeleteCard handles DELETE /{module}/cards/{cardID}.
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := h.cards.Delete(r.Context(), chi.URLParam(r, "module"), chi.URLParam(r, "cardID")); err != nil {
		HandleAPIError(w, r, err, "Failed to delete card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, SuccessResponse{Success: true})
}

// ResetModule handles POST /{module}/reset.
func (h *CardHandler) ResetModule(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")

	count, err := h.cards.Reset(r.Context(), module, h.today())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to reset module")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("module reset",
		slog.String("module", module),
		slog.Int("count", count))
	shared.RespondWithJSON(w, r, http.StatusOK, CountResponse{
		Success: true,
		Message: fmt.Sprintf("module %s reset with %d cards", module, count),
		Count:   count,
	})
}

// ImportCards handles POST /{module}/import.
func (h *CardHandler) ImportCards(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	var records []json.RawMessage
	if err := json.Unmarshal(req.Cards, &records); err != nil || records == nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "cards must be an array")
		return
	}

	count, err := h.cards.Import(r.Context(), chi.URLParam(r, "module"), records, h.today())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to import cards")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CountResponse{Success: true, Count: count})
}
