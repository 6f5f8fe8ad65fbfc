package payments

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"club-pos/internal/models"
)

var (
	ErrInvalidMode   = errors.New("invalid payment mode")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrNoPhoneNumber = errors.New("payment has no phone number on record")
)

type PaymentsDBLayer interface {
	ListPending() ([]models.PendingPayment, error)
	GetPendingByID(id string) (*models.PendingPayment, error)
	UpdateMode(id, mode string) error
	Settle(id string, amount float64, mode string) (float64, error)
}

type ReminderPublisher interface {
	PublishReminder(event models.ReminderEvent) error
}

type EventPublisher interface {
	PublishPaymentEvent(event models.PaymentEvent) error
}

// Recorder writes durable ledger entries for settled balances.
type Recorder interface {
	RecordSessionPayment(playerName, phoneNumber, sessionID, mode string, amount float64) error
}

type PaymentService struct {
	DB        PaymentsDBLayer
	Reminders ReminderPublisher
	Events    EventPublisher
	Ledger    Recorder

	// OverdueAfter is how long a partial balance may sit before the
	// list reports it as overdue. Overdue is derived at read time and
	// never persisted.
	OverdueAfter time.Duration
	UPIAddress   string
	ClubName     string
}

func NewPaymentService(db PaymentsDBLayer, reminders ReminderPublisher, events EventPublisher, ledger Recorder, overdueAfter time.Duration, upiAddress, clubName string) *PaymentService {
	if overdueAfter <= 0 {
		overdueAfter = 2 * time.Hour
	}
	return &PaymentService{
		DB:           db,
		Reminders:    reminders,
		Events:       events,
		Ledger:       ledger,
		OverdueAfter: overdueAfter,
		UPIAddress:   upiAddress,
		ClubName:     clubName,
	}
}

func validMode(mode string) bool {
	switch mode {
	case models.PaymentModeCash, models.PaymentModeCard, models.PaymentModeUPI, models.PaymentModeOther:
		return true
	}
	return false
}

func (s *PaymentService) derive(p models.PendingPayment, now time.Time) models.PendingPayment {
	if now.Sub(time.UnixMilli(p.EndTimestamp)) > s.OverdueAfter {
		p.PaymentStatus = models.PaymentStatusOverdue
	}
	return p
}

// Filter narrows the pending list. Status matches the derived status;
// Search matches player name or phone, case-insensitively.
type Filter struct {
	Status string
	Search string
}

func (s *PaymentService) List(filter Filter) ([]models.PendingPayment, error) {
	pending, err := s.DB.ListPending()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]models.PendingPayment, 0, len(pending))
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, p := range pending {
		p = s.derive(p, now)
		if filter.Status != "" && p.PaymentStatus != filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Player), search) &&
			!strings.Contains(p.PhoneNumber, search) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *PaymentService) Get(id string) (*models.PendingPayment, error) {
	pending, err := s.DB.GetPendingByID(id)
	if err != nil {
		return nil, fmt.Errorf("payment %s not found: %w", id, err)
	}
	derived := s.derive(*pending, time.Now())
	return &derived, nil
}

// Overdue returns balances past the threshold, for the reminder worker.
func (s *PaymentService) Overdue(now time.Time) ([]models.PendingPayment, error) {
	pending, err := s.DB.ListPending()
	if err != nil {
		return nil, err
	}
	var overdue []models.PendingPayment
	for _, p := range pending {
		if p = s.derive(p, now); p.PaymentStatus == models.PaymentStatusOverdue {
			overdue = append(overdue, p)
		}
	}
	return overdue, nil
}

func (s *PaymentService) UpdateMode(id, mode string) error {
	if !validMode(mode) {
		return ErrInvalidMode
	}
	return s.DB.UpdateMode(id, mode)
}

// SettleResult reports what a settle actually did.
type SettleResult struct {
	PaymentID string  `json:"paymentId"`
	Applied   float64 `json:"applied"`
	Remaining float64 `json:"remaining"`
	Settled   bool    `json:"settled"`
}

// Settle collects amount against a pending balance, records the ledger
// entry and announces the payment. Amounts above the open balance are
// clamped; the counter hands back the change.
func (s *PaymentService) Settle(id string, amount float64, mode string) (*SettleResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if mode == "" {
		mode = models.PaymentModeCash
	}
	if !validMode(mode) {
		return nil, ErrInvalidMode
	}

	pending, err := s.DB.GetPendingByID(id)
	if err != nil {
		return nil, fmt.Errorf("payment %s not found: %w", id, err)
	}

	applied, err := s.DB.Settle(id, amount, mode)
	if err != nil {
		return nil, err
	}
	remaining := pending.PendingAmount - applied

	if s.Ledger != nil && applied > 0 {
		if err := s.Ledger.RecordSessionPayment(pending.Player, pending.PhoneNumber, id, mode, applied); err != nil {
			fmt.Printf("Failed to record settlement for payment %s: %v\n", id, err)
		}
	}

	if s.Events != nil {
		eventType := models.EventPaymentSettled
		if remaining > 0 {
			eventType = models.EventPaymentPartial
		}
		if err := s.Events.PublishPaymentEvent(models.PaymentEvent{
			Type:          eventType,
			SessionID:     id,
			Player:        pending.Player,
			TotalAmount:   pending.TotalAmount,
			PaidAmount:    pending.PaidAmount + applied,
			PendingAmount: remaining,
			PaymentMode:   mode,
			Timestamp:     time.Now().UnixMilli(),
		}); err != nil {
			fmt.Printf("Kafka publish error (settlement): %v\n", err)
		}
	}

	return &SettleResult{
		PaymentID: id,
		Applied:   applied,
		Remaining: remaining,
		Settled:   remaining <= 0,
	}, nil
}

// MarkPaid settles the full open balance in one go. The balance is read
// outside the settle transaction; if a concurrent settle shrinks it
// first, db.Settle clamps to whatever is still open.
func (s *PaymentService) MarkPaid(id, mode string) (*SettleResult, error) {
	pending, err := s.DB.GetPendingByID(id)
	if err != nil {
		return nil, fmt.Errorf("payment %s not found: %w", id, err)
	}
	return s.Settle(id, pending.PendingAmount, mode)
}

// ReceiptQRPNG renders the UPI collection QR for a pending balance.
func (s *PaymentService) ReceiptQRPNG(id string) ([]byte, error) {
	pending, err := s.DB.GetPendingByID(id)
	if err != nil {
		return nil, fmt.Errorf("payment %s not found: %w", id, err)
	}
	note := fmt.Sprintf("Table %s - %s", pending.Table, pending.Player)
	return ReceiptQR(s.UPIAddress, s.ClubName, pending.PendingAmount, note)
}

// ReminderText is the SMS body sent to a player with an open balance.
func (s *PaymentService) ReminderText(p models.PendingPayment) string {
	return fmt.Sprintf("Hi %s, a balance of Rs %.2f from your %s session at %s on %s is still pending. Please clear it on your next visit.",
		p.Player, p.PendingAmount, p.Table, s.ClubName, p.EndTime)
}

// SendReminder queues a payment reminder for the notifier.
func (s *PaymentService) SendReminder(id string) error {
	pending, err := s.DB.GetPendingByID(id)
	if err != nil {
		return fmt.Errorf("payment %s not found: %w", id, err)
	}
	if pending.PhoneNumber == "" {
		return ErrNoPhoneNumber
	}
	if s.Reminders == nil {
		return errors.New("reminders are not enabled")
	}
	return s.Reminders.PublishReminder(models.ReminderEvent{
		PaymentID:     pending.ID,
		Player:        pending.Player,
		PhoneNumber:   pending.PhoneNumber,
		Table:         pending.Table,
		PendingAmount: pending.PendingAmount,
		Message:       s.ReminderText(*pending),
		Timestamp:     time.Now().UnixMilli(),
	})
}

// ExportCSV streams the pending list, with derived statuses, as CSV.
func (s *PaymentService) ExportCSV(w io.Writer) error {
	pending, err := s.List(Filter{})
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "player", "phone", "table", "end_time", "total", "paid", "pending", "status", "mode"}); err != nil {
		return err
	}
	for _, p := range pending {
		record := []string{
			p.ID,
			p.Player,
			p.PhoneNumber,
			p.Table,
			p.EndTime,
			strconv.FormatFloat(p.TotalAmount, 'f', 2, 64),
			strconv.FormatFloat(p.PaidAmount, 'f', 2, 64),
			strconv.FormatFloat(p.PendingAmount, 'f', 2, 64),
			p.PaymentStatus,
			p.PaymentMode,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
