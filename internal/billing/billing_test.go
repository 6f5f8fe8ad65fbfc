package billing_test

import (
	"testing"
	"time"

	"club-pos/internal/billing"
	"club-pos/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestElapsedClampsFutureStart(t *testing.T) {
	now := time.Now()
	future := now.Add(10 * time.Minute).UnixMilli()

	assert.Equal(t, time.Duration(0), billing.Elapsed(future, now))

	snap := billing.Snapshot(future, 5, now)
	assert.Equal(t, int64(0), snap.ElapsedMinutes)
	assert.Equal(t, 0.0, snap.CalculatedAmount)
	assert.Equal(t, "00:00:00", snap.FormattedTime)
}

func TestSnapshotZeroStartTimestamp(t *testing.T) {
	snap := billing.Snapshot(0, 5, time.Now())
	assert.Equal(t, "00:00:00", snap.FormattedTime)
	assert.Equal(t, int64(0), snap.ElapsedMinutes)
	assert.Equal(t, 0.0, snap.CalculatedAmount)
}

func TestSnapshotFormula(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		elapsed     time.Duration
		rate        float64
		wantMinutes int64
		wantAmount  float64
		wantTime    string
	}{
		{"just started", 30 * time.Second, 5, 0, 0, "00:00:30"},
		{"ten minutes", 10 * time.Minute, 5, 10, 50, "00:10:00"},
		{"partial minute floors", 10*time.Minute + 59*time.Second, 5, 10, 50, "00:10:59"},
		{"over an hour", 90*time.Minute + 15*time.Second, 3, 90, 270, "01:30:15"},
		{"zero rate falls back to default", 10 * time.Minute, 0, 10, 50, "00:10:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := now.Add(-tt.elapsed).UnixMilli()
			snap := billing.Snapshot(start, tt.rate, now)
			assert.Equal(t, tt.wantMinutes, snap.ElapsedMinutes)
			assert.Equal(t, tt.wantAmount, snap.CalculatedAmount)
			assert.Equal(t, tt.wantTime, snap.FormattedTime)
		})
	}
}

func TestComputeRealTimeTotal(t *testing.T) {
	// Session at rate 5/min, 10 minutes in, one item (price 20, qty 2):
	// total = 10*5 + 40 = 90.
	now := time.Now()
	session := models.Session{
		StartTimestamp: now.Add(-10 * time.Minute).UnixMilli(),
		RatePerMinute:  5,
		Items:          []models.SessionItem{{Name: "Cold Drink", Price: 20, Quantity: 2}},
	}

	bill := billing.Compute(session, now)
	assert.Equal(t, 50.0, bill.TableAmount)
	assert.Equal(t, 40.0, bill.ItemsTotal)
	assert.Equal(t, 90.0, bill.Total)
	assert.Equal(t, int64(10), bill.ElapsedMinutes)
	assert.Equal(t, "00:10:00", bill.Duration)
}

func TestComputeNoItems(t *testing.T) {
	now := time.Now()
	session := models.Session{
		StartTimestamp: now.Add(-3 * time.Minute).UnixMilli(),
		RatePerMinute:  7,
	}

	bill := billing.Compute(session, now)
	assert.Equal(t, 21.0, bill.Total)
	assert.Equal(t, 0.0, bill.ItemsTotal)
}

func TestItemsTotal(t *testing.T) {
	items := []models.SessionItem{
		{Name: "Snacks", Price: 30, Quantity: 1},
		{Name: "Cold Drink", Price: 20, Quantity: 3},
	}
	assert.Equal(t, 90.0, billing.ItemsTotal(items))
	assert.Equal(t, 0.0, billing.ItemsTotal(nil))
}

func TestMergeItemCombinesSameName(t *testing.T) {
	items := []models.SessionItem{{Name: "Cold Drink", Price: 20, Quantity: 1}}

	merged := billing.MergeItem(items, "Cold Drink", 20, 2)
	assert.Len(t, merged, 1)
	assert.Equal(t, 3, merged[0].Quantity)

	// The input slice must be untouched.
	assert.Equal(t, 1, items[0].Quantity)
}

func TestMergeItemAppendsNewName(t *testing.T) {
	items := []models.SessionItem{{Name: "Cold Drink", Price: 20, Quantity: 1}}

	merged := billing.MergeItem(items, "Snacks", 30, 2)
	assert.Len(t, merged, 2)
	assert.Equal(t, "Snacks", merged[1].Name)
	assert.Equal(t, 30.0, merged[1].Price)
	assert.Equal(t, 2, merged[1].Quantity)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00:00", billing.FormatDuration(0))
	assert.Equal(t, "00:01:05", billing.FormatDuration(65*time.Second))
	assert.Equal(t, "02:15:09", billing.FormatDuration(2*time.Hour+15*time.Minute+9*time.Second))
}
