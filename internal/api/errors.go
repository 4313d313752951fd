package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lingocards/lingo-api/internal/api/shared"
	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/platform/gemini"
	"github.com/lingocards/lingo-api/internal/service/auth"
	"github.com/lingocards/lingo-api/internal/service/cards"
	"github.com/lingocards/lingo-api/internal/service/speech"
	"github.com/lingocards/lingo-api/internal/service/study"
	"github.com/lingocards/lingo-api/internal/store"
)

const genericErrorMessage = "An unexpected error occurred"

// errorRule maps every error matching target to a status. An empty message
// means the target's own text is safe to show.
type errorRule struct {
	target  error
	status  int
	message string
}

// errorRules is checked in order; the first match wins.
var errorRules = []errorRule{
	// Authentication
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username or password"},
	{auth.ErrExpiredToken, http.StatusUnauthorized, "Token expired"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
	{auth.ErrTokenNotYetValid, http.StatusUnauthorized, "Invalid token"},
	{auth.ErrMissingToken, http.StatusUnauthorized, "Authorization header required"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},

	// Not found
	{store.ErrCardNotFound, http.StatusNotFound, "Card not found"},
	{store.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{store.ErrNotFound, http.StatusNotFound, "Not found"},
	{domain.ErrUnknownModule, http.StatusNotFound, "Unknown module"},
	{study.ErrNoCards, http.StatusNotFound, "Module has no cards"},
	{cards.ErrSeedNotFound, http.StatusNotFound, "No seed data for this module"},
	{speech.ErrAudioNotFound, http.StatusNotFound, "Audio file not found"},

	// Conflict
	{store.ErrUsernameTaken, http.StatusConflict, "User exists"},
	{store.ErrCardExists, http.StatusConflict, "Card already exists"},
	{store.ErrDuplicate, http.StatusConflict, "Already exists"},

	// Unprocessable
	{speech.ErrNoText, http.StatusUnprocessableEntity, ""},
	{gemini.ErrContentBlocked, http.StatusUnprocessableEntity, "Content was blocked by the speech provider"},

	// Bad request
	{domain.ErrInvalidCardState, http.StatusBadRequest, "Card has an invalid scheduling state"},
	{domain.ErrCardIDEmpty, http.StatusBadRequest, ""},
	{domain.ErrCardContentInvalid, http.StatusBadRequest, ""},
	{domain.ErrEmptyUsername, http.StatusBadRequest, ""},
	{domain.ErrUsernameTooLong, http.StatusBadRequest, ""},
	{domain.ErrEmptyPassword, http.StatusBadRequest, ""},
	{domain.ErrPasswordTooShort, http.StatusBadRequest, ""},
	{domain.ErrPasswordTooLong, http.StatusBadRequest, ""},
	{domain.ErrInvalidLevel, http.StatusBadRequest, ""},
	{domain.ErrInvalidIndex, http.StatusBadRequest, ""},
	{domain.ErrInvalidQuizCount, http.StatusBadRequest, ""},
	{domain.ErrEmptyCharacter, http.StatusBadRequest, ""},
	{domain.ErrInvalidFormat, http.StatusBadRequest, "Invalid format"},
	{store.ErrInvalidEntity, http.StatusBadRequest, "Invalid entity data"},
	{cards.ErrInvalidRecord, http.StatusBadRequest, "Invalid card data"},
	{cards.ErrUnsupportedFormat, http.StatusBadRequest, ""},
	{speech.ErrEmptyText, http.StatusBadRequest, ""},
	{speech.ErrSpeedOutOfRange, http.StatusBadRequest, ""},
	{speech.ErrEmptyImage, http.StatusBadRequest, ""},
	{speech.ErrInvalidFilename, http.StatusBadRequest, ""},

	// Unavailable
	{store.ErrStoreUnavailable, http.StatusServiceUnavailable, "Storage is temporarily unavailable"},
	{gemini.ErrTransientFailure, http.StatusServiceUnavailable, "Speech provider is temporarily unavailable"},
	{speech.ErrSpeechDisabled, http.StatusServiceUnavailable, ""},
}

func matchRule(err error) (errorRule, bool) {
	if err == nil {
		return errorRule{}, false
	}
	for _, rule := range errorRules {
		if errors.Is(err, rule.target) {
			return rule, true
		}
	}
	return errorRule{}, false
}

// MapErrorToStatusCode maps service and store errors to HTTP status codes.
// Unknown errors are 500.
func MapErrorToStatusCode(err error) int {
	if rule, ok := matchRule(err); ok {
		return rule.status
	}
	return http.StatusInternalServerError
}

// GetSafeErrorMessage returns a client-facing message for err that never
// includes wrapped internal details.
func GetSafeErrorMessage(err error) string {
	rule, ok := matchRule(err)
	if !ok {
		return genericErrorMessage
	}
	if rule.message != "" {
		return rule.message
	}
	msg := rule.target.Error()
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// SanitizeValidationError turns validator errors into "Invalid <field>: <reason>".
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), validationTagMessage(fe.Tag()))
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the response for err. fallback replaces the generic
// message of unmapped errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
