package models

import (
	"github.com/uptrace/bun"
)

// Player is an entry in the club's player directory. The phone number is
// the lookup key and carries a unique index.
type Player struct {
	bun.BaseModel `bun:"table:players"`

	ID    string `bun:"id,pk" json:"id"`
	Name  string `bun:"name,notnull" json:"name"`
	Phone string `bun:"phone,unique,notnull" json:"phone"`
	Email string `bun:"email,nullzero" json:"email,omitempty"`
	Notes string `bun:"notes,nullzero" json:"notes,omitempty"`

	// Epoch millis, matching the session timestamps.
	CreatedAt    int64 `bun:"created_at,notnull" json:"createdAt"`
	LastActivity int64 `bun:"last_activity,notnull" json:"lastActivity"`
}

type PlayerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
	Notes string `json:"notes,omitempty"`
}
