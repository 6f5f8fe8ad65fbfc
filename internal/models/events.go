package models

// Event types published to the session and payment topics.
const (
	EventSessionStarted = "session.started"
	EventSessionUpdated = "session.updated"
	EventSessionClosed  = "session.closed"
	EventPaymentPartial = "payment.partial"
	EventPaymentSettled = "payment.settled"
)

// SessionEvent is the payload streamed to Kafka and to SSE subscribers
// whenever an active session changes.
type SessionEvent struct {
	Type      string   `json:"type"`
	SessionID string   `json:"session_id"`
	Table     string   `json:"table"`
	Player    string   `json:"player"`
	Timestamp int64    `json:"timestamp"`
	Session   *Session `json:"session,omitempty"`
}

// PaymentEvent is published when money changes hands: a session closing
// (fully or partially paid) or a pending payment being settled.
type PaymentEvent struct {
	Type          string  `json:"type"`
	SessionID     string  `json:"session_id"`
	Player        string  `json:"player"`
	TotalAmount   float64 `json:"total_amount"`
	PaidAmount    float64 `json:"paid_amount"`
	PendingAmount float64 `json:"pending_amount"`
	PaymentMode   string  `json:"payment_mode,omitempty"`
	Timestamp     int64   `json:"timestamp"`
}

// ReminderEvent is queued on the reminder topic for overdue balances;
// the notifier consumer turns it into an SMS text.
type ReminderEvent struct {
	PaymentID     string  `json:"payment_id"`
	Player        string  `json:"player"`
	PhoneNumber   string  `json:"phone_number"`
	Table         string  `json:"table"`
	PendingAmount float64 `json:"pending_amount"`
	Message       string  `json:"message"`
	Timestamp     int64   `json:"timestamp"`
}

// TimerFrame is the once-a-second live timer payload for a single active
// session, streamed over SSE to the dashboard.
type TimerFrame struct {
	SessionID        string  `json:"session_id"`
	FormattedTime    string  `json:"formatted_time"`
	ElapsedMinutes   int64   `json:"elapsed_minutes"`
	CalculatedAmount float64 `json:"calculated_amount"`
	ItemsTotal       float64 `json:"items_total"`
	TotalAmount      float64 `json:"total_amount"`
}
