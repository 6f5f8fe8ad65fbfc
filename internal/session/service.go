package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"club-pos/internal/billing"
	"club-pos/internal/models"
	"club-pos/internal/utils"

	"github.com/google/uuid"
)

var (
	ErrTableRequired    = errors.New("table is required")
	ErrPlayerRequired   = errors.New("player name is required")
	ErrTableOccupied    = errors.New("table already has an active session")
	ErrInvalidPaidAmount = errors.New("paid amount must not be negative")
	ErrItemNotOnSession = errors.New("item not on session")
)

type DBLayer interface {
	CreateSession(session models.Session) error
	GetSessionByID(id string) (*models.Session, error)
	GetSessionByTable(table string) (*models.Session, error)
	ListSessions() ([]models.Session, error)
	ListEndedSessions() ([]models.EndedSession, error)
	UpdateItems(sessionID string, items []models.SessionItem) error
	UpdatePlayer(sessionID, player, phoneNumber string) error
	UpdateSnapshot(sessionID, duration string, tableAmount, totalAmount float64) error
	CloseSession(sessionID string, ended *models.EndedSession, pending *models.PendingPayment) error
}

type TableLock interface {
	LockTable(table, sessionID string) (bool, error)
	UnlockTable(table, sessionID string) error
}

// StockKeeper reserves and releases saleable stock. Reserve returns the
// catalog entry so the session line gets the name and price at sale time.
type StockKeeper interface {
	Reserve(categoryID string, quantity int) (*models.Category, error)
	Release(categoryID string, quantity int) error
	GetCategory(categoryID string) (*models.Category, error)
}

type KafkaPublisher interface {
	PublishSessionStarted(event models.SessionEvent) error
	PublishSessionUpdated(event models.SessionEvent) error
	PublishSessionClosed(event models.SessionEvent) error
	PublishPaymentEvent(event models.PaymentEvent) error
}

// PaymentRecorder writes a durable ledger entry for money collected at
// close time.
type PaymentRecorder interface {
	RecordSessionPayment(playerName, phoneNumber, sessionID, mode string, amount float64) error
}

// Directory keeps the player register in sync with session traffic.
type Directory interface {
	EnsurePlayer(name, phone string) (*models.Player, error)
}

// CardGateway charges a card before the session is archived. Nil when
// card payments are disabled.
type CardGateway interface {
	Charge(amountRupees float64, token, description string) (string, error)
}

// Emitter fans session events out to SSE subscribers.
type Emitter interface {
	Emit(event models.SessionEvent)
}

type SessionService struct {
	DB       DBLayer
	Redis    TableLock
	Stock    StockKeeper
	Kafka    KafkaPublisher
	Ledger   PaymentRecorder
	Players  Directory
	Card     CardGateway
	Events   Emitter
	DefaultRate float64
}

func NewSessionService(db DBLayer, redis TableLock, stock StockKeeper, kafka KafkaPublisher, ledger PaymentRecorder, players Directory, defaultRate float64) *SessionService {
	if defaultRate <= 0 {
		defaultRate = billing.DefaultRatePerMinute
	}
	return &SessionService{
		DB:          db,
		Redis:       redis,
		Stock:       stock,
		Kafka:       kafka,
		Ledger:      ledger,
		Players:     players,
		DefaultRate: defaultRate,
	}
}

// SessionView is a session plus its live bill, recomputed at read time.
type SessionView struct {
	models.Session
	Bill billing.Bill `json:"bill"`
}

func (s *SessionService) view(session models.Session, now time.Time) SessionView {
	bill := billing.Compute(session, now)
	session.Duration = bill.Duration
	session.TableAmount = bill.TableAmount
	session.TotalAmount = bill.Total
	return SessionView{Session: session, Bill: bill}
}

func (s *SessionService) StartSession(req models.SessionRequest) (*SessionView, error) {
	if strings.TrimSpace(req.Table) == "" {
		return nil, ErrTableRequired
	}
	if strings.TrimSpace(req.Player) == "" {
		return nil, ErrPlayerRequired
	}

	// Step 1: reject if the table already has an active session in the DB
	if existing, err := s.DB.GetSessionByTable(req.Table); err == nil && existing != nil {
		return nil, ErrTableOccupied
	}

	sessionID := uuid.NewString()
	now := time.Now()

	startTimestamp := now.UnixMilli()
	startTime := utils.DisplayClock(now)
	if req.StartClock != "" {
		// A custom start clock backdates the billing start to today at
		// that wall time. The epoch-millis value stays authoritative.
		// Browsers submit 24-hour "HH:MM"; "h:mm AM/PM" is accepted too.
		parsed, err := time.ParseInLocation("15:04", req.StartClock, now.Location())
		if err != nil {
			parsed, err = time.ParseInLocation("3:04 PM", req.StartClock, now.Location())
		}
		if err != nil {
			return nil, fmt.Errorf("invalid start clock %q: %w", req.StartClock, err)
		}
		start := time.Date(now.Year(), now.Month(), now.Day(), parsed.Hour(), parsed.Minute(), 0, 0, now.Location())
		if start.After(now) {
			return nil, fmt.Errorf("start clock %q is in the future", req.StartClock)
		}
		startTimestamp = start.UnixMilli()
		startTime = utils.DisplayClock(start)
	}

	rate := req.RatePerMinute
	if rate <= 0 {
		rate = s.DefaultRate
	}

	// Step 2: lock the table in Redis
	ok, err := s.Redis.LockTable(req.Table, sessionID)
	if err != nil {
		return nil, fmt.Errorf("redis lock error: %w", err)
	}
	if !ok {
		return nil, ErrTableOccupied
	}

	session := models.Session{
		ID:             sessionID,
		Table:          req.Table,
		Player:         strings.TrimSpace(req.Player),
		PhoneNumber:    strings.TrimSpace(req.PhoneNumber),
		StartTime:      startTime,
		StartTimestamp: startTimestamp,
		Items:          []models.SessionItem{},
		RatePerMinute:  rate,
		CreatedAt:      now,
	}

	// Step 3: create the session row; roll the lock back on failure
	if err := s.DB.CreateSession(session); err != nil {
		fmt.Printf("Failed to create session: %v. Rolling back table lock.\n", err)
		_ = s.Redis.UnlockTable(req.Table, sessionID)
		return nil, err
	}

	// Step 4: keep the player directory in sync (best effort)
	if s.Players != nil {
		if _, err := s.Players.EnsurePlayer(session.Player, session.PhoneNumber); err != nil {
			fmt.Printf("Player directory error for %s: %v\n", session.Player, err)
		}
	}

	s.announce(models.EventSessionStarted, session, func(e models.SessionEvent) error {
		return s.Kafka.PublishSessionStarted(e)
	})

	v := s.view(session, now)
	return &v, nil
}

func (s *SessionService) GetSession(id string) (*SessionView, error) {
	session, err := s.DB.GetSessionByID(id)
	if err != nil {
		return nil, fmt.Errorf("session %s not found: %w", id, err)
	}
	v := s.view(*session, time.Now())
	return &v, nil
}

func (s *SessionService) ListSessions() ([]SessionView, error) {
	sessions, err := s.DB.ListSessions()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, s.view(session, now))
	}
	return views, nil
}

// EndedSessions returns the settled archive, most recent first.
func (s *SessionService) EndedSessions() ([]models.EndedSession, error) {
	return s.DB.ListEndedSessions()
}

// AddItem sells stock onto the session. The stock decrement happens
// first; a failed session update releases the reservation so nothing is
// sold twice.
func (s *SessionService) AddItem(sessionID string, req models.ItemRequest) (*SessionView, error) {
	session, err := s.DB.GetSessionByID(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s not found: %w", sessionID, err)
	}

	category, err := s.Stock.Reserve(req.CategoryID, req.Quantity)
	if err != nil {
		return nil, err
	}

	items := billing.MergeItem(session.Items, category.Name, category.Price, req.Quantity)
	if err := s.DB.UpdateItems(sessionID, items); err != nil {
		fmt.Printf("Failed to add item to session %s: %v. Releasing stock.\n", sessionID, err)
		_ = s.Stock.Release(req.CategoryID, req.Quantity)
		return nil, err
	}
	session.Items = items

	s.announce(models.EventSessionUpdated, *session, func(e models.SessionEvent) error {
		return s.Kafka.PublishSessionUpdated(e)
	})

	v := s.view(*session, time.Now())
	return &v, nil
}

// UpdateItemQuantity sets the quantity of an item already on the session.
// Stock was taken when the item was sold; a line edit rewrites the bill
// only and leaves inventory alone.
func (s *SessionService) UpdateItemQuantity(sessionID, categoryID string, quantity int) (*SessionView, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative")
	}
	session, err := s.DB.GetSessionByID(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s not found: %w", sessionID, err)
	}
	category, err := s.Stock.GetCategory(categoryID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, item := range session.Items {
		if item.Name == category.Name {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrItemNotOnSession
	}

	items := make([]models.SessionItem, len(session.Items))
	copy(items, session.Items)
	if quantity == 0 {
		items = append(items[:idx], items[idx+1:]...)
	} else {
		items[idx].Quantity = quantity
	}

	if err := s.DB.UpdateItems(sessionID, items); err != nil {
		return nil, err
	}
	session.Items = items

	s.announce(models.EventSessionUpdated, *session, func(e models.SessionEvent) error {
		return s.Kafka.PublishSessionUpdated(e)
	})

	v := s.view(*session, time.Now())
	return &v, nil
}

// RemoveItem takes an item line off the session's bill.
func (s *SessionService) RemoveItem(sessionID, categoryID string) (*SessionView, error) {
	return s.UpdateItemQuantity(sessionID, categoryID, 0)
}

func (s *SessionService) EditPlayer(sessionID string, req models.PlayerUpdateRequest) (*SessionView, error) {
	session, err := s.DB.GetSessionByID(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s not found: %w", sessionID, err)
	}
	if strings.TrimSpace(req.Player) == "" {
		return nil, ErrPlayerRequired
	}

	phone := session.PhoneNumber
	if req.PhoneNumber != nil {
		phone = strings.TrimSpace(*req.PhoneNumber)
	}
	player := strings.TrimSpace(req.Player)

	if err := s.DB.UpdatePlayer(sessionID, player, phone); err != nil {
		return nil, err
	}
	session.Player = player
	session.PhoneNumber = phone

	if s.Players != nil {
		if _, err := s.Players.EnsurePlayer(player, phone); err != nil {
			fmt.Printf("Player directory error for %s: %v\n", player, err)
		}
	}

	s.announce(models.EventSessionUpdated, *session, func(e models.SessionEvent) error {
		return s.Kafka.PublishSessionUpdated(e)
	})

	v := s.view(*session, time.Now())
	return &v, nil
}

// Checkpoint snapshots the current bill of every active session into the
// store. Called by the checkpoint worker; a crash then loses at most one
// interval of elapsed time on the displayed snapshots.
func (s *SessionService) Checkpoint(now time.Time) error {
	sessions, err := s.DB.ListSessions()
	if err != nil {
		return err
	}
	for _, session := range sessions {
		bill := billing.Compute(session, now)
		if err := s.DB.UpdateSnapshot(session.ID, bill.Duration, bill.TableAmount, bill.Total); err != nil {
			fmt.Printf("Checkpoint failed for session %s: %v\n", session.ID, err)
		}
	}
	return nil
}

// CloseResult is what the close handler returns: the settled record and
// the receipt numbers behind it. Exactly one of Ended/Pending is set.
type CloseResult struct {
	Ended         *models.EndedSession   `json:"session,omitempty"`
	Pending       *models.PendingPayment `json:"pendingPayment,omitempty"`
	CardReference string                 `json:"cardReference,omitempty"`
}

// CloseSession settles an active session. The final bill is computed
// here, once, from the authoritative start timestamp. A fully covered
// bill goes straight to the ended archive; anything short of the bill
// becomes a pending-payment row instead, and the archive record is
// written later when the balance is settled. Closing an already-closed
// session returns db.ErrAlreadyClosed untouched so the handler can
// treat the retry as a no-op.
func (s *SessionService) CloseSession(sessionID string, req models.CloseRequest) (*CloseResult, error) {
	session, err := s.DB.GetSessionByID(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s not found: %w", sessionID, err)
	}
	if req.PaidAmount < 0 {
		return nil, ErrInvalidPaidAmount
	}

	now := time.Now()
	bill := billing.Compute(*session, now)

	paid := req.PaidAmount
	if paid > bill.Total {
		// Overpayment is change handed back at the counter, not credit.
		paid = bill.Total
	}
	pendingAmount := bill.Total - paid

	mode := req.PaymentMode
	if mode == "" {
		mode = models.PaymentModeCash
	}

	status := models.PaymentStatusPaid
	if pendingAmount > 0 {
		status = models.PaymentStatusPartial
	}

	result := &CloseResult{}

	// Charge the card before touching the database: a declined card must
	// leave the session running.
	if mode == models.PaymentModeCard && paid > 0 {
		if s.Card == nil {
			return nil, errors.New("card payments are not enabled")
		}
		ref, err := s.Card.Charge(paid, req.CardToken, fmt.Sprintf("Table %s - %s", session.Table, session.Player))
		if err != nil {
			return nil, fmt.Errorf("card charge failed: %w", err)
		}
		result.CardReference = ref
	}

	endTime := utils.DisplayDateTime(now)
	endTimestamp := now.UnixMilli()

	var ended *models.EndedSession
	var pending *models.PendingPayment
	if pendingAmount > 0 {
		pending = &models.PendingPayment{
			ID:             session.ID,
			Table:          session.Table,
			Player:         session.Player,
			PhoneNumber:    session.PhoneNumber,
			StartTime:      session.StartTime,
			StartTimestamp: session.StartTimestamp,
			EndTime:        endTime,
			EndTimestamp:   endTimestamp,
			Duration:       bill.Duration,
			TableAmount:    bill.TableAmount,
			Items:          session.Items,
			TotalAmount:    bill.Total,
			PaidAmount:     paid,
			PendingAmount:  pendingAmount,
			PaymentStatus:  status,
			PaymentMode:    mode,
			RatePerMinute:  session.RatePerMinute,
			CreatedAt:      now,
		}
	} else {
		ended = &models.EndedSession{
			ID:             session.ID,
			Table:          session.Table,
			Player:         session.Player,
			PhoneNumber:    session.PhoneNumber,
			StartTime:      session.StartTime,
			StartTimestamp: session.StartTimestamp,
			EndTime:        endTime,
			EndTimestamp:   endTimestamp,
			Duration:       bill.Duration,
			TableAmount:    bill.TableAmount,
			Items:          session.Items,
			TotalAmount:    bill.Total,
			PaidAmount:     paid,
			PendingAmount:  0,
			PaymentStatus:  status,
			PaymentMode:    mode,
			RatePerMinute:  session.RatePerMinute,
			CreatedAt:      now,
		}
	}

	if err := s.DB.CloseSession(sessionID, ended, pending); err != nil {
		return nil, err
	}
	result.Ended = ended
	result.Pending = pending

	if err := s.Redis.UnlockTable(session.Table, sessionID); err != nil {
		fmt.Printf("Failed to unlock table %s: %v\n", session.Table, err)
	}

	if s.Ledger != nil && paid > 0 {
		if err := s.Ledger.RecordSessionPayment(session.Player, session.PhoneNumber, session.ID, mode, paid); err != nil {
			fmt.Printf("Failed to record payment for session %s: %v\n", session.ID, err)
		}
	}

	s.announce(models.EventSessionClosed, *session, func(e models.SessionEvent) error {
		return s.Kafka.PublishSessionClosed(e)
	})

	paymentType := models.EventPaymentSettled
	if pendingAmount > 0 {
		paymentType = models.EventPaymentPartial
	}
	if s.Kafka != nil {
		if err := s.Kafka.PublishPaymentEvent(models.PaymentEvent{
			Type:          paymentType,
			SessionID:     session.ID,
			Player:        session.Player,
			TotalAmount:   bill.Total,
			PaidAmount:    paid,
			PendingAmount: pendingAmount,
			PaymentMode:   mode,
			Timestamp:     now.UnixMilli(),
		}); err != nil {
			fmt.Printf("Kafka publish error (payment): %v\n", err)
		}
	}

	return result, nil
}

func (s *SessionService) announce(eventType string, session models.Session, publish func(models.SessionEvent) error) {
	event := models.SessionEvent{
		Type:      eventType,
		SessionID: session.ID,
		Table:     session.Table,
		Player:    session.Player,
		Timestamp: time.Now().UnixMilli(),
		Session:   &session,
	}
	if s.Kafka != nil {
		if err := publish(event); err != nil {
			fmt.Printf("Kafka publish error (%s): %v\n", eventType, err)
		}
	}
	if s.Events != nil {
		s.Events.Emit(event)
	}
}
