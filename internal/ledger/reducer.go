package ledger

import "club-pos/internal/models"

// Allocation is one slice of a payment applied to a pending balance.
type Allocation struct {
	PaymentID string  `json:"paymentId"`
	Amount    float64 `json:"amount"`
	Settled   bool    `json:"settled"`
}

// ApplyPayment spreads amount across open balances oldest-first. It is a
// pure function: the input slice is never mutated, so callers can dry-run
// an allocation before committing it. The returned slice holds the
// balances still open afterwards; leftover is whatever the payment did
// not consume (handed back as change).
func ApplyPayment(pending []models.PendingPayment, amount float64) (remaining []models.PendingPayment, allocations []Allocation, leftover float64) {
	leftover = amount
	remaining = make([]models.PendingPayment, 0, len(pending))

	for _, p := range pending {
		if leftover <= 0 {
			remaining = append(remaining, p)
			continue
		}

		applied := leftover
		if applied > p.PendingAmount {
			applied = p.PendingAmount
		}
		leftover -= applied

		allocations = append(allocations, Allocation{
			PaymentID: p.ID,
			Amount:    applied,
			Settled:   applied >= p.PendingAmount,
		})

		if applied < p.PendingAmount {
			p.PaidAmount += applied
			p.PendingAmount -= applied
			remaining = append(remaining, p)
		}
	}
	return remaining, allocations, leftover
}
