package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lingocards/lingo-api/internal/api/shared"
	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/service/study"
)

// StudyService plans study sessions and records study events.
type StudyService interface {
	Today(ctx context.Context, module string, today time.Time) (*domain.StudyPlan, error)
	Learn(ctx context.Context, module, cardID string, today time.Time) (*domain.SRSState, error)
	Use(ctx context.Context, module, cardID string, today time.Time) (*domain.SRSState, error)
}

// StudyHandler serves the srs routes of a module.
type StudyHandler struct {
	study  StudyService
	today  Clock
	logger *slog.Logger
}

// NewStudyHandler creates a StudyHandler.
func NewStudyHandler(svc StudyService, today Clock, logger *slog.Logger) *StudyHandler {
	if svc == nil {
		panic("study service cannot be nil for StudyHandler")
	}
	if today == nil {
		today = DailyClock(time.UTC)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StudyHandler{
		study:  svc,
		today:  today,
		logger: logger.With(slog.String("component", "study_handler")),
	}
}

// Today handles GET /{module}/srs/today. An optional ?date=YYYY-MM-DD plans
// for another day.
func (h *StudyHandler) Today(w http.ResponseWriter, r *http.Request) {
	day := h.today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := domain.ParseDate(raw)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD", err)
			return
		}
		day = parsed
	}

	plan, err := h.study.Today(r.Context(), chi.URLParam(r, "module"), day)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute today's cards")
		return
	}

	items := make([]StudyCardResponse, len(plan.Items))
	for i, item := range plan.Items {
		items[i] = studyCardResponse(item)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TodayResponse{
		Success: true,
		Date:    domain.FormatDate(plan.Date),
		Count:   len(items),
		Forced:  plan.ForcedCount(),
		Cards:   items,
	})
}

// Learn handles POST /{module}/srs/learn/{cardID}.
func (h *StudyHandler) Learn(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, study.EventReview, h.study.Learn)
}

// Use handles POST /{module}/srs/use/{cardID}.
func (h *StudyHandler) Use(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, study.EventApplication, h.study.Use)
}

func (h *StudyHandler) record(
	w http.ResponseWriter,
	r *http.Request,
	event string,
	apply func(ctx context.Context, module, cardID string, today time.Time) (*domain.SRSState, error),
) {
	state, err := apply(r.Context(), chi.URLParam(r, "module"), chi.URLParam(r, "cardID"), h.today())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record "+event)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, StudyEventResponse{
		Success:  true,
		Type:     event,
		NewState: stateResponse(state),
	})
}
