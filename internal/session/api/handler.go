package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"club-pos/internal/models"
	"club-pos/internal/session"
	"club-pos/internal/session/db"
	stockdb "club-pos/internal/stock/db"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	SessionService *session.SessionService
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req models.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	view, err := h.SessionService.StartSession(req)
	if err != nil {
		if errors.Is(err, session.ErrTableOccupied) {
			http.Error(w, "Table already has an active session", http.StatusConflict)
			return
		}
		http.Error(w, "Could not start session: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(view)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	view, err := h.SessionService.GetSession(sessionID)
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	views, err := h.SessionService.ListSessions()
	if err != nil {
		http.Error(w, "Could not list sessions: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if views == nil {
		views = []session.SessionView{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

func (h *Handler) ListEndedSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.SessionService.EndedSessions()
	if err != nil {
		http.Error(w, "Could not list ended sessions: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []models.EndedSession{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessions)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	var req models.ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	view, err := h.SessionService.AddItem(sessionID, req)
	if err != nil {
		if errors.Is(err, stockdb.ErrInsufficientStock) {
			http.Error(w, "Insufficient stock", http.StatusConflict)
			return
		}
		http.Error(w, "Could not add item: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	categoryID := chi.URLParam(r, "categoryId")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	view, err := h.SessionService.UpdateItemQuantity(sessionID, categoryID, req.Quantity)
	if err != nil {
		if errors.Is(err, stockdb.ErrInsufficientStock) {
			http.Error(w, "Insufficient stock", http.StatusConflict)
			return
		}
		if errors.Is(err, session.ErrItemNotOnSession) {
			http.Error(w, "Item not on session", http.StatusNotFound)
			return
		}
		http.Error(w, "Could not update item: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	categoryID := chi.URLParam(r, "categoryId")

	view, err := h.SessionService.RemoveItem(sessionID, categoryID)
	if err != nil {
		if errors.Is(err, session.ErrItemNotOnSession) {
			http.Error(w, "Item not on session", http.StatusNotFound)
			return
		}
		http.Error(w, "Could not remove item: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (h *Handler) EditPlayer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	var req models.PlayerUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	view, err := h.SessionService.EditPlayer(sessionID, req)
	if err != nil {
		http.Error(w, "Could not update player: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	var req models.CloseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.SessionService.CloseSession(sessionID, req)
	if err != nil {
		// A lost close race means someone already archived the session;
		// report it as a conflict the frontend can refresh past.
		if errors.Is(err, db.ErrAlreadyClosed) {
			http.Error(w, "Session already closed", http.StatusConflict)
			return
		}
		http.Error(w, "Could not close session: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
