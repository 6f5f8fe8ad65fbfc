package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Handler exposes the owner login/logout endpoints.
type Handler struct {
	Issuer *TokenIssuer
	Cache  *RedisTokenCache
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	token, jti, err := h.Issuer.Issue(req.PIN)
	if err != nil {
		if errors.Is(err, ErrInvalidPIN) {
			http.Error(w, "Invalid PIN", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Could not issue token: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if h.Cache != nil {
		if err := h.Cache.Store(r.Context(), jti, h.Issuer.TTL); err != nil {
			http.Error(w, "Could not register token: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token":     token,
		"expiresIn": int(h.Issuer.TTL.Seconds()),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	jti := TokenID(r.Context())
	if jti == "" {
		http.Error(w, "Not logged in", http.StatusUnauthorized)
		return
	}

	if h.Cache != nil {
		if err := h.Cache.Revoke(r.Context(), jti); err != nil {
			http.Error(w, "Could not revoke token: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"Logged out"}`))
}
