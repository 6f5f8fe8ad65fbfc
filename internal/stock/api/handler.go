package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"club-pos/internal/models"
	"club-pos/internal/stock"
	"club-pos/internal/stock/db"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	StockService *stock.StockService
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req models.CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	category, err := h.StockService.AddCategory(req)
	if err != nil {
		http.Error(w, "Could not create item: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(category)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryId")
	category, err := h.StockService.GetCategory(categoryID)
	if err != nil {
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(category)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.StockService.ListCategories()
	if err != nil {
		http.Error(w, "Could not list items: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(categories)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryId")

	var req models.CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	category, err := h.StockService.UpdateCategory(categoryID, req)
	if err != nil {
		http.Error(w, "Could not update item: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(category)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryId")

	if err := h.StockService.DeleteCategory(categoryID); err != nil {
		http.Error(w, "Could not delete item: "+err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ReserveStock(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryId")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.StockService.Reserve(categoryID, req.Quantity); err != nil {
		if errors.Is(err, db.ErrInsufficientStock) {
			http.Error(w, "Insufficient stock", http.StatusConflict)
			return
		}
		http.Error(w, "Could not reserve stock: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"Stock reserved"}`))
}
