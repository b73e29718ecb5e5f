package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/lumiere/internal/auth"
	"github.com/erazemk/lumiere/internal/model"
	"github.com/erazemk/lumiere/internal/store"
)

// AuthHandler handles station unlock and lock.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
	PINs      *auth.PINSet
}

type unlockRequest struct {
	Role model.Role `json:"role" validate:"required,oneof=cashier kitchen analytics admin"`
	PIN  string     `json:"pin" validate:"required,len=4,numeric"`
}

type unlockResponse struct {
	Token     string     `json:"token"`
	Role      model.Role `json:"role"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// Unlock handles POST /api/auth/unlock.
func (h *AuthHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateRequest(req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.PINs.Check(req.Role, req.PIN) {
		slog.Warn("unlock failed", "role", req.Role, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "incorrect PIN")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, req.Role)
	if err != nil {
		slog.Error("generating token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("station unlocked", "role", req.Role)
	jsonResponse(w, http.StatusOK, unlockResponse{
		Token:     token,
		Role:      req.Role,
		ExpiresAt: time.Now().Add(auth.TokenExpiry).UTC(),
	})
}

// Lock handles POST /api/auth/lock.
func (h *AuthHandler) Lock(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := store.LockStation(r.Context(), h.DB, claims.ID, claims.Role, claims.ExpiresAt.Time); err != nil {
		slog.Error("revoking token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to lock station")
		return
	}

	slog.Info("station locked", "role", claims.Role)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "locked"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"role":      claims.Role,
		"expiresAt": claims.ExpiresAt.Time.UTC(),
	})
}
