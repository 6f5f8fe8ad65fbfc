package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"club-pos/internal/models"
	"club-pos/internal/player"
	"club-pos/internal/player/db"

	"github.com/go-chi/chi/v5"
)

// TransactionHistory looks up a player's durable ledger entries by name.
type TransactionHistory interface {
	History(playerName string, limit int) ([]models.PaymentTransaction, error)
}

type Handler struct {
	PlayerService *player.PlayerService
	Ledger        TransactionHistory
}

func (h *Handler) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req models.PlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.PlayerService.Register(req)
	if err != nil {
		if errors.Is(err, db.ErrPhoneTaken) {
			http.Error(w, "Phone number already registered", http.StatusConflict)
			return
		}
		http.Error(w, "Could not register player: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerId")
	found, err := h.PlayerService.GetPlayer(playerID)
	if err != nil {
		http.Error(w, "Player not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(found)
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.PlayerService.ListPlayers()
	if err != nil {
		http.Error(w, "Could not list players: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if players == nil {
		players = []models.Player{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(players)
}

func (h *Handler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerId")

	var req models.PlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.PlayerService.UpdatePlayer(playerID, req)
	if err != nil {
		if errors.Is(err, db.ErrPhoneTaken) {
			http.Error(w, "Phone number already registered", http.StatusConflict)
			return
		}
		http.Error(w, "Could not update player: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerId")
	found, err := h.PlayerService.GetPlayer(playerID)
	if err != nil {
		http.Error(w, "Player not found", http.StatusNotFound)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	txns, err := h.Ledger.History(found.Name, limit)
	if err != nil {
		http.Error(w, "Could not list transactions: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if txns == nil {
		txns = []models.PaymentTransaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(txns)
}

func (h *Handler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerId")

	if err := h.PlayerService.DeletePlayer(playerID); err != nil {
		http.Error(w, "Could not delete player: "+err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
