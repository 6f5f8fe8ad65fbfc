package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	PaymentStatusPaid    = "paid"
	PaymentStatusPartial = "partial"
	PaymentStatusOverdue = "overdue"
)

const (
	PaymentModeCash  = "cash"
	PaymentModeCard  = "card"
	PaymentModeUPI   = "upi"
	PaymentModeOther = "other"
)

// EndedSession is a fully settled table session. Rows are append-only:
// once written they are never mutated.
type EndedSession struct {
	bun.BaseModel `bun:"table:ended_sessions"`

	ID             string        `bun:"id,pk" json:"id"`
	Table          string        `bun:"table_name,notnull" json:"table"`
	Player         string        `bun:"player,notnull" json:"player"`
	PhoneNumber    string        `bun:"phone_number,nullzero" json:"phoneNumber,omitempty"`
	StartTime      string        `bun:"start_time" json:"startTime"`
	StartTimestamp int64         `bun:"start_timestamp" json:"startTimestamp"`
	EndTime        string        `bun:"end_time" json:"endTime"`
	EndTimestamp   int64         `bun:"end_timestamp,notnull" json:"endTimestamp"`
	Duration       string        `bun:"duration" json:"duration"`
	TableAmount    float64       `bun:"table_amount" json:"tableAmount"`
	Items          []SessionItem `bun:"items,type:jsonb" json:"items"`
	TotalAmount    float64       `bun:"total_amount" json:"totalAmount"`
	PaidAmount     float64       `bun:"paid_amount" json:"paidAmount"`
	PendingAmount  float64       `bun:"pending_amount" json:"pendingAmount"`
	PaymentStatus  string        `bun:"payment_status,notnull" json:"paymentStatus"`
	PaymentMode    string        `bun:"payment_mode,nullzero" json:"paymentMode,omitempty"`
	RatePerMinute  float64       `bun:"rate_per_minute" json:"ratePerMinute"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"-"`
}
