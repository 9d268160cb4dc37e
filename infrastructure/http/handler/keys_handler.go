package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shopfox/auth-service/infrastructure/service/keys"
)

// KeysHandler serves the public half of the signing key for JWKS consumers.
type KeysHandler struct {
	provider *keys.Provider
}

func NewKeysHandler(provider *keys.Provider) *KeysHandler {
	return &KeysHandler{provider: provider}
}

// JWKS responds with the bare key set document, not the service envelope,
// since JWKS clients expect the RFC 7517 shape.
func (h *KeysHandler) JWKS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(h.provider.JWKS())
}

func (h *KeysHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/.well-known/jwks.json", h.JWKS).Methods(http.MethodGet)
}
