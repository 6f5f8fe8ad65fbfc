// Package billing is the single source of truth for time-based table
// charges. Every consumer (active list, close handler, checkpoint worker,
// ledger statement) computes amounts through this package so displayed
// and charged values cannot drift apart.
package billing

import (
	"fmt"
	"time"

	"club-pos/internal/models"
)

// DefaultRatePerMinute applies when a session was stored without a rate.
const DefaultRatePerMinute = 5.0

// TimerSnapshot is the live timer state for one session.
type TimerSnapshot struct {
	FormattedTime    string  `json:"formattedTime"`
	ElapsedMinutes   int64   `json:"elapsedMinutes"`
	CalculatedAmount float64 `json:"calculatedAmount"`
}

// Bill is the real-time amount owed for a session at a given instant.
type Bill struct {
	TableAmount    float64 `json:"tableAmount"`
	ItemsTotal     float64 `json:"itemsTotal"`
	Total          float64 `json:"total"`
	ElapsedMinutes int64   `json:"elapsedMinutes"`
	Duration       string  `json:"duration"`
}

// Elapsed returns the time since startMs (epoch millis), clamped to zero
// so a start timestamp in the future (clock skew) never bills negative.
func Elapsed(startMs int64, now time.Time) time.Duration {
	if startMs == 0 {
		return 0
	}
	d := now.Sub(time.UnixMilli(startMs))
	if d < 0 {
		return 0
	}
	return d
}

// FormatDuration renders a duration as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// Snapshot computes the timer state for a session started at startMs.
// A zero startMs yields the zeroed snapshot, matching an unstarted timer.
func Snapshot(startMs int64, ratePerMinute float64, now time.Time) TimerSnapshot {
	if startMs == 0 {
		return TimerSnapshot{FormattedTime: "00:00:00"}
	}
	if ratePerMinute == 0 {
		ratePerMinute = DefaultRatePerMinute
	}
	elapsed := Elapsed(startMs, now)
	minutes := int64(elapsed / time.Minute)
	return TimerSnapshot{
		FormattedTime:    FormatDuration(elapsed),
		ElapsedMinutes:   minutes,
		CalculatedAmount: float64(minutes) * ratePerMinute,
	}
}

// ItemsTotal sums price*quantity over the session's items.
func ItemsTotal(items []models.SessionItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// Compute derives the real-time bill for a session:
//
//	floor(elapsed minutes) * rate + sum(item price * quantity)
func Compute(session models.Session, now time.Time) Bill {
	snap := Snapshot(session.StartTimestamp, session.RatePerMinute, now)
	itemsTotal := ItemsTotal(session.Items)
	return Bill{
		TableAmount:    snap.CalculatedAmount,
		ItemsTotal:     itemsTotal,
		Total:          snap.CalculatedAmount + itemsTotal,
		ElapsedMinutes: snap.ElapsedMinutes,
		Duration:       snap.FormattedTime,
	}
}

// MergeItem folds a sold item into the list: an existing entry with the
// same name gains quantity, otherwise a new entry is appended. The input
// slice is not mutated.
func MergeItem(items []models.SessionItem, name string, price float64, quantity int) []models.SessionItem {
	merged := make([]models.SessionItem, len(items))
	copy(merged, items)
	for i := range merged {
		if merged[i].Name == name {
			merged[i].Quantity += quantity
			return merged
		}
	}
	return append(merged, models.SessionItem{Name: name, Price: price, Quantity: quantity})
}
