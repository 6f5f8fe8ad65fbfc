package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"club-pos/internal/logger"
	"club-pos/internal/models"
	"club-pos/internal/session"

	"github.com/go-chi/chi/v5"
)

// SSEHandler manages Server-Sent Events endpoints for the live dashboard
type SSEHandler struct {
	Logger         *logger.Logger
	EventEmitter   *SessionEventEmitter
	SessionService *session.SessionService
}

// NewSSEHandler creates a new SSE handler for session events
func NewSSEHandler(log *logger.Logger, sessionService *session.SessionService) *SSEHandler {
	return &SSEHandler{
		Logger:         log,
		EventEmitter:   NewSessionEventEmitter(),
		SessionService: sessionService,
	}
}

// HandleSessionFeed streams every session event in the club
func (h *SSEHandler) HandleSessionFeed(w http.ResponseWriter, r *http.Request) {
	h.setupSSEHeaders(w)

	ctx := r.Context()
	eventChan := h.EventEmitter.SubscribeToFeed(ctx)

	// Send initial connection established message
	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	w.(http.Flusher).Flush()

	h.Logger.Info("SSE", "Client connected to session feed")

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}

			jsonData, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize session event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, jsonData)
			w.(http.Flusher).Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", "Client disconnected from session feed")
			return
		}
	}
}

// HandleTableFeed streams session events for a single table
func (h *SSEHandler) HandleTableFeed(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	if table == "" {
		http.Error(w, "Table is required", http.StatusBadRequest)
		return
	}

	h.setupSSEHeaders(w)

	ctx := r.Context()
	eventChan := h.EventEmitter.SubscribeToTable(ctx, table)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"table\":\"%s\"}\n\n", table)
	w.(http.Flusher).Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to table feed: %s", table))

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}

			jsonData, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize session event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, jsonData)
			w.(http.Flusher).Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from table feed: %s", table))
			return
		}
	}
}

// HandleTimers streams a once-a-second frame with every active session's
// live timer and running bill
func (h *SSEHandler) HandleTimers(w http.ResponseWriter, r *http.Request) {
	h.setupSSEHeaders(w)

	ctx := r.Context()

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	w.(http.Flusher).Flush()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			views, err := h.SessionService.ListSessions()
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to load sessions for timer frame: %v", err))
				continue
			}

			frames := make([]models.TimerFrame, 0, len(views))
			for _, v := range views {
				frames = append(frames, models.TimerFrame{
					SessionID:        v.ID,
					FormattedTime:    v.Bill.Duration,
					ElapsedMinutes:   v.Bill.ElapsedMinutes,
					CalculatedAmount: v.Bill.TableAmount,
					ItemsTotal:       v.Bill.ItemsTotal,
					TotalAmount:      v.Bill.Total,
				})
			}

			jsonData, err := json.Marshal(frames)
			if err != nil {
				continue
			}

			fmt.Fprintf(w, "event: timers\ndata: %s\n\n", jsonData)
			w.(http.Flusher).Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", "Client disconnected from timer stream")
			return
		}
	}
}

// Helper function to set up SSE headers
func (h *SSEHandler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
