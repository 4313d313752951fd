package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lingocards/lingo-api/internal/api/shared"
	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/service/auth"
	"github.com/lingocards/lingo-api/internal/service/progress"
)

// AccountService registers learners and logs them in.
type AccountService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*auth.Session, error)
}

// ProgressService reads and writes HSK course progress.
type ProgressService interface {
	UserData(ctx context.Context, username string) (*progress.UserData, error)
	SaveProgress(ctx context.Context, username string, level, quizCount, index int) error
	SaveMastery(ctx context.Context, username, char string, record json.RawMessage) error
}

// AccountHandler serves the HSK account and progress routes.
type AccountHandler struct {
	accounts AccountService
	progress ProgressService
	logger   *slog.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(accounts AccountService, progressSvc ProgressService, logger *slog.Logger) *AccountHandler {
	if accounts == nil || progressSvc == nil {
		panic("account and progress services cannot be nil for AccountHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountHandler{
		accounts: accounts,
		progress: progressSvc,
		logger:   logger.With(slog.String("component", "account_handler")),
	}
}

// Register handles POST /api/hsk/register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.accounts.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, StatusResponse{Status: "success", Username: user.Username})
}

// Login handles POST /api/hsk/login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, LoginResponse{
		Status:    "success",
		Username:  session.Username,
		Token:     session.Token,
		ExpiresAt: formatTimestamp(session.ExpiresAt),
	})
}

// UserData handles GET /api/hsk/user_data.
func (h *AccountHandler) UserData(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	data, err := h.progress.UserData(r.Context(), username)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load user data")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, UserDataResponse{
		Progress: ProgressResponse{
			Level:        data.Progress.Level,
			CurrentIndex: data.Progress.CurrentIndex,
			QuizCount:    data.Progress.QuizCount,
		},
		Mastery: data.Mastery,
	})
}

// SaveProgress handles POST /api/hsk/progress.
func (h *AccountHandler) SaveProgress(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}
	var req SaveProgressRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.progress.SaveProgress(r.Context(), username, req.Level, req.QuizCount, req.Index); err != nil {
		HandleAPIError(w, r, err, "Failed to save progress")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{Status: "success"})
}

// SaveMastery handles POST /api/hsk/mastery.
func (h *AccountHandler) SaveMastery(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}
	var req SaveMasteryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.progress.SaveMastery(r.Context(), username, req.Char, req.Record); err != nil {
		HandleAPIError(w, r, err, "Failed to save mastery")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{Status: "success"})
}
