package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"club-pos/internal/billing"
	"club-pos/internal/models"
	"club-pos/internal/utils"
)

var (
	ErrPlayerRequired = errors.New("player name is required")
	ErrInvalidAmount  = errors.New("amount must be positive")
)

type LedgerDBLayer interface {
	ListActiveByPlayer(name string) ([]models.Session, error)
	ListEndedByPlayer(name string) ([]models.EndedSession, error)
	ListPendingByPlayer(name string) ([]models.PendingPayment, error)
	InsertTransaction(txn models.PaymentTransaction) error
	ListTransactions(limit int) ([]models.PaymentTransaction, error)
	ListTransactionsByPlayer(name string, limit int) ([]models.PaymentTransaction, error)
	RecordPayment(txn models.PaymentTransaction, allocations []Allocation) error
}

type LedgerService struct {
	DB LedgerDBLayer
}

func NewLedgerService(db LedgerDBLayer) *LedgerService {
	return &LedgerService{DB: db}
}

// PlayerStatement is everything the club knows about one player's money:
// their history rows merged from all three session stores, plus totals.
type PlayerStatement struct {
	Player       string               `json:"player"`
	Transactions []models.Transaction `json:"transactions"`
	TotalSpent   float64              `json:"totalSpent"`
	TotalPaid    float64              `json:"totalPaid"`
	TotalPending float64              `json:"totalPending"`
}

// Statement merges active sessions, ended sessions and pending payments
// for a player (matched case-insensitively) into one chronological view.
// Active sessions are billed live at the time of the call.
func (s *LedgerService) Statement(playerName string) (*PlayerStatement, error) {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return nil, ErrPlayerRequired
	}

	active, err := s.DB.ListActiveByPlayer(playerName)
	if err != nil {
		return nil, fmt.Errorf("failed to load active sessions: %w", err)
	}
	ended, err := s.DB.ListEndedByPlayer(playerName)
	if err != nil {
		return nil, fmt.Errorf("failed to load ended sessions: %w", err)
	}
	pending, err := s.DB.ListPendingByPlayer(playerName)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending payments: %w", err)
	}

	now := time.Now()
	statement := &PlayerStatement{Player: playerName}

	for _, session := range active {
		bill := billing.Compute(session, now)
		statement.Transactions = append(statement.Transactions, models.Transaction{
			ID:          session.ID,
			Date:        session.StartTimestamp,
			Type:        "session",
			Description: fmt.Sprintf("Active session on %s", session.Table),
			Amount:      bill.Total,
			PaidAmount:  0,
			Status:      models.TransactionStatusPending,
			Table:       session.Table,
			StartTime:   session.StartTime,
			Duration:    bill.Duration,
			Items:       session.Items,
		})
		statement.TotalSpent += bill.Total
		statement.TotalPending += bill.Total
	}

	// A session lives in exactly one of ended_sessions and
	// pending_payments, so the three stores merge without overlap.
	for _, e := range ended {
		statement.Transactions = append(statement.Transactions, models.Transaction{
			ID:          e.ID,
			Date:        e.EndTimestamp,
			Type:        "session",
			Description: fmt.Sprintf("Session on %s", e.Table),
			Amount:      e.TotalAmount,
			PaidAmount:  e.PaidAmount,
			Status:      models.TransactionStatusPaid,
			PaymentMode: e.PaymentMode,
			Table:       e.Table,
			StartTime:   e.StartTime,
			Duration:    e.Duration,
			Items:       e.Items,
		})
		statement.TotalSpent += e.TotalAmount
		statement.TotalPaid += e.PaidAmount
	}

	for _, p := range pending {
		statement.Transactions = append(statement.Transactions, models.Transaction{
			ID:          p.ID,
			Date:        p.EndTimestamp,
			Type:        "session",
			Description: fmt.Sprintf("Session on %s (balance due)", p.Table),
			Amount:      p.TotalAmount,
			PaidAmount:  p.PaidAmount,
			Status:      models.TransactionStatusPartial,
			PaymentMode: p.PaymentMode,
			Table:       p.Table,
			StartTime:   p.StartTime,
			Duration:    p.Duration,
			Items:       p.Items,
		})
		statement.TotalSpent += p.TotalAmount
		statement.TotalPaid += p.PaidAmount
		statement.TotalPending += p.PendingAmount
	}

	// Newest first
	sort.Slice(statement.Transactions, func(i, j int) bool {
		return statement.Transactions[i].Date > statement.Transactions[j].Date
	})
	return statement, nil
}

// PaymentReceipt summarizes a recorded payment: where the money went and
// what came back as change.
type PaymentReceipt struct {
	TransactionID string       `json:"transactionId"`
	Player        string       `json:"player"`
	Amount        float64      `json:"amount"`
	Allocations   []Allocation `json:"allocations"`
	Change        float64      `json:"change"`
}

// RecordPayment takes money against a player's open balances. The
// allocation is computed with the pure reducer, then the transaction row
// and every touched balance commit together.
func (s *LedgerService) RecordPayment(playerName, phoneNumber, mode string, amount float64, createdBy string) (*PaymentReceipt, error) {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return nil, ErrPlayerRequired
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if mode == "" {
		mode = models.PaymentModeCash
	}

	pending, err := s.DB.ListPendingByPlayer(playerName)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending payments: %w", err)
	}

	_, allocations, leftover := ApplyPayment(pending, amount)
	applied := amount - leftover
	if applied <= 0 {
		return nil, fmt.Errorf("player %s has no pending balance", playerName)
	}

	txn := models.PaymentTransaction{
		ID:              utils.GenerateTransactionID(),
		PlayerName:      playerName,
		PlayerPhone:     strings.TrimSpace(phoneNumber),
		Amount:          applied,
		PaymentMethod:   mode,
		Description:     fmt.Sprintf("Payment against %d pending balance(s)", len(allocations)),
		TransactionType: models.TransactionTypePayment,
		Timestamp:       time.Now().UnixMilli(),
		CreatedBy:       createdBy,
	}

	if err := s.DB.RecordPayment(txn, allocations); err != nil {
		return nil, err
	}

	return &PaymentReceipt{
		TransactionID: txn.ID,
		Player:        playerName,
		Amount:        applied,
		Allocations:   allocations,
		Change:        leftover,
	}, nil
}

// RecordSessionPayment writes the durable ledger row for money taken at
// a session close or a direct settlement. The balances were already
// moved by the caller's transaction; this only records the cash event.
func (s *LedgerService) RecordSessionPayment(playerName, phoneNumber, sessionID, mode string, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.DB.InsertTransaction(models.PaymentTransaction{
		ID:               utils.GenerateTransactionID(),
		PlayerName:       playerName,
		PlayerPhone:      strings.TrimSpace(phoneNumber),
		Amount:           amount,
		PaymentMethod:    mode,
		Description:      fmt.Sprintf("Session %s", sessionID),
		TransactionType:  models.TransactionTypePayment,
		RelatedSessionID: sessionID,
		Timestamp:        time.Now().UnixMilli(),
	})
}

// History returns recorded transactions newest-first, optionally for one
// player.
func (s *LedgerService) History(playerName string, limit int) ([]models.PaymentTransaction, error) {
	if strings.TrimSpace(playerName) != "" {
		return s.DB.ListTransactionsByPlayer(strings.TrimSpace(playerName), limit)
	}
	return s.DB.ListTransactions(limit)
}
