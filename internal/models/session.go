package models

import (
	"time"

	"github.com/uptrace/bun"
)

// SessionItem is one line of food/drink sold against a table session.
// Stored inline on the session row as JSON, the way the club's old
// document store kept it.
type SessionItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type Session struct {
	bun.BaseModel `bun:"table:sessions"`

	ID          string `bun:"id,pk" json:"id"`
	Table       string `bun:"table_name,notnull" json:"table"`
	Player      string `bun:"player,notnull" json:"player"`
	PhoneNumber string `bun:"phone_number,nullzero" json:"phoneNumber,omitempty"`

	// StartTime is the display string shown on the booking slip.
	// StartTimestamp (epoch millis) is the authoritative clock value.
	StartTime      string `bun:"start_time" json:"startTime"`
	StartTimestamp int64  `bun:"start_timestamp,notnull" json:"startTimestamp"`

	// Duration, TableAmount and TotalAmount are durability snapshots
	// written by the checkpoint worker. The live values are always
	// recomputed from StartTimestamp.
	Duration    string  `bun:"duration" json:"duration"`
	TableAmount float64 `bun:"table_amount" json:"tableAmount"`
	TotalAmount float64 `bun:"total_amount" json:"totalAmount"`

	Items         []SessionItem `bun:"items,type:jsonb" json:"items"`
	RatePerMinute float64       `bun:"rate_per_minute,notnull" json:"ratePerMinute"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"-"`
}

type SessionRequest struct {
	Table         string  `json:"table"`
	Player        string  `json:"player"`
	PhoneNumber   string  `json:"phoneNumber,omitempty"`
	StartClock    string  `json:"startClock,omitempty"` // optional HH:MM, today's date
	RatePerMinute float64 `json:"ratePerMinute,omitempty"`
}

type CloseRequest struct {
	PaidAmount  float64 `json:"paidAmount"`
	PaymentMode string  `json:"paymentMode,omitempty"`
	CardToken   string  `json:"cardToken,omitempty"`
}

type ItemRequest struct {
	CategoryID string `json:"categoryId"`
	Quantity   int    `json:"quantity"`
}

type PlayerUpdateRequest struct {
	Player      string  `json:"player"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
}
