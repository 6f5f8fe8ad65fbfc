package analytics

import (
	"context"
	"strings"
	"time"

	"club-pos/internal/models"

	"github.com/uptrace/bun"
)

// Service answers the owner's revenue questions from the ended_sessions
// archive and the open balances in pending_payments. Live sessions are
// not counted.
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// Summary is the headline revenue card for the dashboard.
type Summary struct {
	TotalRevenue      float64 `json:"total_revenue"`
	CollectedRevenue  float64 `json:"collected_revenue"`
	PendingRevenue    float64 `json:"pending_revenue"`
	SessionCount      int     `json:"session_count"`
	UniquePlayers     int     `json:"unique_players"`
	AvgSessionMinutes float64 `json:"avg_session_minutes"`
}

// DailyRevenue contains revenue metrics for a single day.
type DailyRevenue struct {
	Date     string  `json:"date"`
	Revenue  float64 `json:"revenue"`
	Sessions int     `json:"sessions"`
}

// CategoryBreakdown splits revenue into table time and item groups.
type CategoryBreakdown struct {
	TableTime float64 `json:"table_time"`
	Food      float64 `json:"food"`
	Drinks    float64 `json:"drinks"`
	Other     float64 `json:"other"`
}

// GetSummary returns aggregate revenue figures across every closed
// session: the settled archive plus sessions still carrying a balance.
// TotalRevenue = CollectedRevenue + PendingRevenue always holds.
func (s *Service) GetSummary(ctx context.Context) (*Summary, error) {
	var sessions []models.EndedSession
	err := s.db.NewSelect().
		Model(&sessions).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	var open []models.PendingPayment
	err = s.db.NewSelect().
		Model(&open).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := &Summary{SessionCount: len(sessions) + len(open)}
	players := make(map[string]bool)
	var totalMinutes float64

	for _, es := range sessions {
		result.TotalRevenue += es.TotalAmount
		result.CollectedRevenue += es.PaidAmount
		players[strings.ToLower(es.Player)] = true

		if es.EndTimestamp > es.StartTimestamp {
			totalMinutes += float64(es.EndTimestamp-es.StartTimestamp) / 60000.0
		}
	}
	for _, p := range open {
		result.TotalRevenue += p.TotalAmount
		result.CollectedRevenue += p.PaidAmount
		result.PendingRevenue += p.PendingAmount
		players[strings.ToLower(p.Player)] = true

		if p.EndTimestamp > p.StartTimestamp {
			totalMinutes += float64(p.EndTimestamp-p.StartTimestamp) / 60000.0
		}
	}

	result.UniquePlayers = len(players)
	if result.SessionCount > 0 {
		result.AvgSessionMinutes = totalMinutes / float64(result.SessionCount)
	}

	return result, nil
}

// GetDailyRevenue returns per-day revenue for the last `days` days,
// oldest first. Days with no sessions are omitted.
func (s *Service) GetDailyRevenue(ctx context.Context, days int) ([]DailyRevenue, error) {
	if days <= 0 {
		days = 30
	}

	type dailyRaw struct {
		SalesDate    time.Time `bun:"sales_date"`
		DailyRevenue float64   `bun:"daily_revenue"`
		SessionCount int       `bun:"session_count"`
	}

	cutoff := time.Now().AddDate(0, 0, -days)

	var rows []dailyRaw
	rawSQL := `
		SELECT
			DATE(created_at) AS sales_date,
			SUM(total_amount) AS daily_revenue,
			COUNT(*) AS session_count
		FROM ended_sessions
		WHERE created_at >= ?
		GROUP BY DATE(created_at)
		ORDER BY sales_date
	`
	err := s.db.NewRaw(rawSQL, cutoff).Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	result := make([]DailyRevenue, 0, len(rows))
	for _, r := range rows {
		result = append(result, DailyRevenue{
			Date:     r.SalesDate.Format("2006-01-02"),
			Revenue:  r.DailyRevenue,
			Sessions: r.SessionCount,
		})
	}

	return result, nil
}

// GetCategoryBreakdown splits lifetime revenue into table time versus
// item groups. Items carry no category reference on archived rows, so
// grouping falls back to name matching.
func (s *Service) GetCategoryBreakdown(ctx context.Context) (*CategoryBreakdown, error) {
	var sessions []models.EndedSession
	err := s.db.NewSelect().
		Model(&sessions).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := &CategoryBreakdown{}
	for _, es := range sessions {
		result.TableTime += es.TableAmount
		for _, item := range es.Items {
			amount := item.Price * float64(item.Quantity)
			switch classifyItem(item.Name) {
			case "drinks":
				result.Drinks += amount
			case "food":
				result.Food += amount
			default:
				result.Other += amount
			}
		}
	}

	return result, nil
}

var drinkWords = []string{
	"tea", "coffee", "water", "juice", "soda", "cola", "coke",
	"pepsi", "sprite", "limca", "lassi", "shake", "drink",
}

var foodWords = []string{
	"maggi", "noodle", "sandwich", "burger", "roll", "chips",
	"biscuit", "samosa", "fries", "omelette", "paratha", "snack",
}

func classifyItem(name string) string {
	lower := strings.ToLower(name)
	for _, w := range drinkWords {
		if strings.Contains(lower, w) {
			return "drinks"
		}
	}
	for _, w := range foodWords {
		if strings.Contains(lower, w) {
			return "food"
		}
	}
	return "other"
}
