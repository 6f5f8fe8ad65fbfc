package models

import (
	"github.com/uptrace/bun"
)

const (
	TransactionTypePayment = "payment"
	TransactionTypeRefund  = "refund"
)

// PaymentTransaction is a durable ledger entry for money collected (or
// refunded) against a player's account.
type PaymentTransaction struct {
	bun.BaseModel `bun:"table:transactions"`

	ID               string  `bun:"id,pk" json:"id"`
	PlayerID         string  `bun:"player_id,nullzero" json:"playerId,omitempty"`
	PlayerName       string  `bun:"player_name,notnull" json:"playerName"`
	PlayerPhone      string  `bun:"player_phone,nullzero" json:"playerPhone,omitempty"`
	Amount           float64 `bun:"amount,notnull" json:"amount"`
	PaymentMethod    string  `bun:"payment_method,notnull" json:"paymentMethod"`
	Description      string  `bun:"description,nullzero" json:"description,omitempty"`
	TransactionType  string  `bun:"transaction_type,notnull" json:"transactionType"`
	RelatedSessionID string  `bun:"related_session_id,nullzero" json:"relatedSessionId,omitempty"`
	Timestamp        int64   `bun:"timestamp,notnull" json:"timestamp"`
	CreatedBy        string  `bun:"created_by,nullzero" json:"createdBy,omitempty"`
}

// Transaction is the derived per-player statement row built by merging
// active sessions, ended sessions and pending payments. It is never
// persisted as-is.
type Transaction struct {
	ID          string        `json:"id"`
	Date        int64         `json:"date"`
	Type        string        `json:"type"`
	Description string        `json:"description"`
	Amount      float64       `json:"amount"`
	PaidAmount  float64       `json:"paidAmount"`
	Status      string        `json:"status"` // paid | partial | pending
	PaymentMode string        `json:"paymentMode,omitempty"`
	Table       string        `json:"table,omitempty"`
	StartTime   string        `json:"startTime,omitempty"`
	Duration    string        `json:"duration,omitempty"`
	Items       []SessionItem `json:"items,omitempty"`
}

const (
	TransactionStatusPaid    = "paid"
	TransactionStatusPartial = "partial"
	TransactionStatusPending = "pending"
)
