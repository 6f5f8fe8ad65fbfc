package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"club-pos/internal/ledger"
	"club-pos/internal/models"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	LedgerService *ledger.LedgerService
}

func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	playerName := chi.URLParam(r, "playerName")

	statement, err := h.LedgerService.Statement(playerName)
	if err != nil {
		http.Error(w, "Could not build statement: "+err.Error(), http.StatusBadRequest)
		return
	}
	if statement.Transactions == nil {
		statement.Transactions = []models.Transaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statement)
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player      string  `json:"player"`
		PhoneNumber string  `json:"phoneNumber,omitempty"`
		Amount      float64 `json:"amount"`
		PaymentMode string  `json:"paymentMode,omitempty"`
		CreatedBy   string  `json:"createdBy,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Player == "" {
		req.Player = chi.URLParam(r, "playerName")
	}

	receipt, err := h.LedgerService.RecordPayment(req.Player, req.PhoneNumber, req.PaymentMode, req.Amount, req.CreatedBy)
	if err != nil {
		http.Error(w, "Could not record payment: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(receipt)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	txns, err := h.LedgerService.History(r.URL.Query().Get("player"), limit)
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
