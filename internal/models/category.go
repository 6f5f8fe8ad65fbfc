package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Category is a sellable stock item (food, drink, other) with a unit
// price and the quantity left on the shelf.
type Category struct {
	bun.BaseModel `bun:"table:categories"`

	ID       string  `bun:"id,pk" json:"id"`
	Name     string  `bun:"name,notnull" json:"name"`
	Price    float64 `bun:"price,notnull" json:"price"`
	Quantity int     `bun:"quantity,notnull" json:"quantity"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"-"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"-"`
}

type CategoryRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}
