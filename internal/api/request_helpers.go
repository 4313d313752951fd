package api

import (
	"net/http"
	"time"

	"github.com/lingocards/lingo-api/internal/api/shared"
	"github.com/lingocards/lingo-api/internal/domain"
)

// Clock returns the current calendar day.
type Clock func() time.Time

// DailyClock returns a Clock reading the wall clock in loc.
func DailyClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time {
		return domain.DateOf(time.Now().In(loc))
	}
}

// decodeAndValidate reads a JSON body into v and validates it, writing a 400
// response and returning false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

// requireUsername returns the username set by the auth middleware, writing a
// 401 response when it is missing.
func requireUsername(w http.ResponseWriter, r *http.Request) (string, bool) {
	username, ok := shared.Username(r.Context())
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return "", false
	}
	return username, true
}
