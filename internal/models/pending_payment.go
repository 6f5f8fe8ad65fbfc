package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PendingPayment is a closed session with an outstanding balance.
// PaymentStatus is persisted as "partial"; "overdue" is derived at read
// time from EndTimestamp and never written back.
type PendingPayment struct {
	bun.BaseModel `bun:"table:pending_payments"`

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
	PendingAmount  float64       `bun:"pending_amount,notnull" json:"pendingAmount"`
	PaymentStatus  string        `bun:"payment_status,notnull" json:"paymentStatus"`
	PaymentMode    string        `bun:"payment_mode,nullzero" json:"paymentMode,omitempty"`
	RatePerMinute  float64       `bun:"rate_per_minute" json:"ratePerMinute"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"-"`
}

// Settled converts a fully covered pending payment into the ended
// archive record it becomes. The session reaches ended_sessions only at
// this point; an underpaid close lives in pending_payments until then.
func (p PendingPayment) Settled(mode string) EndedSession {
	if mode == "" {
		mode = p.PaymentMode
	}
	return EndedSession{
		ID:             p.ID,
		Table:          p.Table,
		Player:         p.Player,
		PhoneNumber:    p.PhoneNumber,
		StartTime:      p.StartTime,
		StartTimestamp: p.StartTimestamp,
		EndTime:        p.EndTime,
		EndTimestamp:   p.EndTimestamp,
		Duration:       p.Duration,
		TableAmount:    p.TableAmount,
		Items:          p.Items,
		TotalAmount:    p.TotalAmount,
		PaidAmount:     p.TotalAmount,
		PendingAmount:  0,
		PaymentStatus:  PaymentStatusPaid,
		PaymentMode:    mode,
		RatePerMinute:  p.RatePerMinute,
		CreatedAt:      time.Now(),
	}
}
