package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/lumiere/internal/funnel"
	"github.com/erazemk/lumiere/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// storeError maps store and funnel errors to responses. Unknown errors are
// logged and reported as 500 with fallback as the message.
func storeError(w http.ResponseWriter, err error, fallback string) {
	var stale *store.StaleStatusError
	switch {
	case errors.As(err, &stale):
		jsonResponse(w, http.StatusConflict, map[string]string{
			"error":   err.Error(),
			"current": string(stale.Current),
		})
	case errors.Is(err, store.ErrOrderNotFound):
		jsonError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, funnel.ErrActorNotAllowed):
		jsonError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, funnel.ErrTransitionNotAllowed):
		jsonError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrMenuItemUnavailable),
		errors.Is(err, store.ErrEmptyOrder),
		errors.Is(err, store.ErrInvalidMenuItem):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error(fallback, "error", err)
		jsonError(w, http.StatusInternalServerError, fallback)
	}
}
