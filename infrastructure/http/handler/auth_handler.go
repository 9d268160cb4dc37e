package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shopfox/auth-service/application/port/outbound"
	"github.com/shopfox/auth-service/infrastructure/http/middleware"
	"github.com/shopfox/auth-service/infrastructure/http/response"
)

// AuthHandler exposes the thin token endpoints that sit directly on top of
// the token service. Login lives in a separate service; this one only
// rotates and introspects tokens it issued.
type AuthHandler struct {
	tokenService outbound.TokenService
	auth         *middleware.AuthMiddleware
}

func NewAuthHandler(tokenService outbound.TokenService, auth *middleware.AuthMiddleware) *AuthHandler {
	return &AuthHandler{
		tokenService: tokenService,
		auth:         auth,
	}
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates a refresh token into a brand-new token pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.RefreshToken == "" {
		response.BadRequest(w, "refresh_token is required")
		return
	}

	pair, err := h.tokenService.Refresh(req.RefreshToken)
	if err != nil {
		response.AppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "success", pair)
}

// Me echoes the verified principal of the calling request.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		response.Unauthorized(w, "Not authenticated")
		return
	}
	response.Success(w, http.StatusOK, "success", principal)
}

func (h *AuthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/v1/auth/refresh", h.Refresh).Methods(http.MethodPost)
	router.Handle("/v1/auth/me", h.auth.RequireAuth(http.HandlerFunc(h.Me))).Methods(http.MethodGet)
}
