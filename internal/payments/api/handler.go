package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"club-pos/internal/models"
	"club-pos/internal/payments"
	"club-pos/internal/payments/db"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	PaymentService *payments.PaymentService
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	filter := payments.Filter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
	}

	pending, err := h.PaymentService.List(filter)
	if err != nil {
		http.Error(w, "Could not list payments: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if pending == nil {
		pending = []models.PendingPayment{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pending)
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentId")
	pending, err := h.PaymentService.Get(paymentID)
	if err != nil {
		http.Error(w, "Payment not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pending)
}

func (h *Handler) UpdateMode(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentId")

	var req struct {
		PaymentMode string `json:"paymentMode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.PaymentService.UpdateMode(paymentID, req.PaymentMode); err != nil {
		if errors.Is(err, payments.ErrInvalidMode) {
			http.Error(w, "Invalid payment mode", http.StatusBadRequest)
			return
		}
		http.Error(w, "Could not update payment mode: "+err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"Payment mode updated"}`))
}

func (h *Handler) SettlePayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentId")

	var req struct {
		Amount      float64 `json:"amount"`
		PaymentMode string  `json:"paymentMode,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.PaymentService.Settle(paymentID, req.Amount, req.PaymentMode)
	if err != nil {
		if errors.Is(err, db.ErrAlreadySettled) {
			http.Error(w, "Payment already settled", http.StatusConflict)
			return
		}
		http.Error(w, "Could not settle payment: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentId")

	var req struct {
		PaymentMode string `json:"paymentMode,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.PaymentService.MarkPaid(paymentID, req.PaymentMode)
	if err != nil {
		if errors.Is(err, db.ErrAlreadySettled) {
			http.Error(w, "Payment already settled", http.StatusConflict)
			return
		}
		http.Error(w, "Could not mark payment paid: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (h *Handler) ReceiptQR(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentId")

	png, err := h.PaymentService.ReceiptQRPNG(paymentID)
	if err != nil {
		http.Error(w, "Could not generate QR: "+err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (h *Handler) SendReminder(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentId")

	if err := h.PaymentService.SendReminder(paymentID); err != nil {
		if errors.Is(err, payments.ErrNoPhoneNumber) {
			http.Error(w, "Payment has no phone number on record", http.StatusBadRequest)
			return
		}
		http.Error(w, "Could not send reminder: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	w.Write([]byte(`{"message":"Reminder queued"}`))
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="pending_payments.csv"`)

	if err := h.PaymentService.ExportCSV(w); err != nil {
		http.Error(w, "Could not export payments: "+err.Error(), http.StatusInternalServerError)
	}
}
