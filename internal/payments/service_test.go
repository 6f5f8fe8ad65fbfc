package payments_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"club-pos/internal/models"
	"club-pos/internal/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPaymentsDB struct {
	mock.Mock
}

func (m *MockPaymentsDB) ListPending() ([]models.PendingPayment, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PendingPayment), args.Error(1)
}

func (m *MockPaymentsDB) GetPendingByID(id string) (*models.PendingPayment, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PendingPayment), args.Error(1)
}

func (m *MockPaymentsDB) UpdateMode(id, mode string) error {
	args := m.Called(id, mode)
	return args.Error(0)
}

func (m *MockPaymentsDB) Settle(id string, amount float64, mode string) (float64, error) {
	args := m.Called(id, amount, mode)
	return args.Get(0).(float64), args.Error(1)
}

type MockReminderPublisher struct {
	mock.Mock
}

func (m *MockReminderPublisher) PublishReminder(event models.ReminderEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishPaymentEvent(event models.PaymentEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordSessionPayment(playerName, phoneNumber, sessionID, mode string, amount float64) error {
	args := m.Called(playerName, phoneNumber, sessionID, mode, amount)
	return args.Error(0)
}

func pendingPayment(id, player string, endAgo time.Duration, amount float64) models.PendingPayment {
	return models.PendingPayment{
		ID:            id,
		Table:         "Pool A",
		Player:        player,
		PhoneNumber:   "9876543210",
		EndTime:       "8/28/2026, 8:00:00 PM",
		EndTimestamp:  time.Now().Add(-endAgo).UnixMilli(),
		TotalAmount:   amount + 50,
		PaidAmount:    50,
		PendingAmount: amount,
		PaymentStatus: models.PaymentStatusPartial,
		PaymentMode:   models.PaymentModeCash,
	}
}

func newService(db *MockPaymentsDB, reminders *MockReminderPublisher, events *MockEventPublisher, recorder *MockRecorder) *payments.PaymentService {
	return payments.NewPaymentService(db, reminders, events, recorder, 2*time.Hour, "club@upi", "One Shot Snooker")
}

func TestListDerivesOverdueStatus(t *testing.T) {
	db := new(MockPaymentsDB)
	svc := newService(db, nil, nil, nil)

	db.On("ListPending").Return([]models.PendingPayment{
		pendingPayment("p1", "Ravi", 30*time.Minute, 100),  // fresh
		pendingPayment("p2", "Arjun", 3*time.Hour, 200),    // past the 2h threshold
	}, nil)

	list, err := svc.List(payments.Filter{})
	assert.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, models.PaymentStatusPartial, list[0].PaymentStatus)
	assert.Equal(t, models.PaymentStatusOverdue, list[1].PaymentStatus)
}

func TestListFiltersByStatusAndSearch(t *testing.T) {
	db := new(MockPaymentsDB)
	svc := newService(db, nil, nil, nil)

	db.On("ListPending").Return([]models.PendingPayment{
		pendingPayment("p1", "Ravi Kumar", 30*time.Minute, 100),
		pendingPayment("p2", "Arjun", 3*time.Hour, 200),
	}, nil)

	overdue, err := svc.List(payments.Filter{Status: models.PaymentStatusOverdue})
	assert.NoError(t, err)
	assert.Len(t, overdue, 1)
	assert.Equal(t, "p2", overdue[0].ID)

	byName, err := svc.List(payments.Filter{Search: "ravi"})
	assert.NoError(t, err)
	assert.Len(t, byName, 1)
	assert.Equal(t, "p1", byName[0].ID)
}

func TestOverdueThresholdBoundary(t *testing.T) {
	db := new(MockPaymentsDB)
	svc := newService(db, nil, nil, nil)

	db.On("ListPending").Return([]models.PendingPayment{
		pendingPayment("p1", "Ravi", 119*time.Minute, 100),
		pendingPayment("p2", "Arjun", 121*time.Minute, 200),
	}, nil)

	overdue, err := svc.Overdue(time.Now())
	assert.NoError(t, err)
	assert.Len(t, overdue, 1)
	assert.Equal(t, "p2", overdue[0].ID)
}

func TestSettleRecordsLedgerAndPublishes(t *testing.T) {
	db := new(MockPaymentsDB)
	events := new(MockEventPublisher)
	recorder := new(MockRecorder)
	svc := newService(db, nil, events, recorder)

	p := pendingPayment("p1", "Ravi", time.Hour, 200)
	db.On("GetPendingByID", "p1").Return(&p, nil)
	db.On("Settle", "p1", 200.0, models.PaymentModeUPI).Return(200.0, nil)
	recorder.On("RecordSessionPayment", "Ravi", "9876543210", "p1", models.PaymentModeUPI, 200.0).Return(nil)
	events.On("PublishPaymentEvent", mock.Anything).Return(nil)

	result, err := svc.Settle("p1", 200, models.PaymentModeUPI)
	assert.NoError(t, err)
	assert.True(t, result.Settled)
	assert.Equal(t, 200.0, result.Applied)
	assert.Equal(t, 0.0, result.Remaining)

	recorder.AssertCalled(t, "RecordSessionPayment", "Ravi", "9876543210", "p1", models.PaymentModeUPI, 200.0)
	events.AssertCalled(t, "PublishPaymentEvent", mock.MatchedBy(func(e models.PaymentEvent) bool {
		return e.Type == models.EventPaymentSettled && e.PendingAmount == 0
	}))
}

func TestSettlePartialLeavesRemainder(t *testing.T) {
	db := new(MockPaymentsDB)
	events := new(MockEventPublisher)
	recorder := new(MockRecorder)
	svc := newService(db, nil, events, recorder)

	p := pendingPayment("p1", "Ravi", time.Hour, 200)
	db.On("GetPendingByID", "p1").Return(&p, nil)
	db.On("Settle", "p1", 80.0, models.PaymentModeCash).Return(80.0, nil)
	recorder.On("RecordSessionPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	events.On("PublishPaymentEvent", mock.Anything).Return(nil)

	result, err := svc.Settle("p1", 80, "")
	assert.NoError(t, err)
	assert.False(t, result.Settled)
	assert.Equal(t, 120.0, result.Remaining)

	events.AssertCalled(t, "PublishPaymentEvent", mock.MatchedBy(func(e models.PaymentEvent) bool {
		return e.Type == models.EventPaymentPartial && e.PendingAmount == 120
	}))
}

func TestSettleRejectsBadInput(t *testing.T) {
	db := new(MockPaymentsDB)
	svc := newService(db, nil, nil, nil)

	_, err := svc.Settle("p1", 0, models.PaymentModeCash)
	assert.ErrorIs(t, err, payments.ErrInvalidAmount)

	_, err = svc.Settle("p1", 50, "cheque")
	assert.ErrorIs(t, err, payments.ErrInvalidMode)
}

func TestUpdateModeValidation(t *testing.T) {
	db := new(MockPaymentsDB)
	svc := newService(db, nil, nil, nil)

	err := svc.UpdateMode("p1", "cheque")
	assert.ErrorIs(t, err, payments.ErrInvalidMode)

	db.On("UpdateMode", "p1", models.PaymentModeCard).Return(nil)
	assert.NoError(t, svc.UpdateMode("p1", models.PaymentModeCard))
}

func TestSendReminderRequiresPhone(t *testing.T) {
	db := new(MockPaymentsDB)
	reminders := new(MockReminderPublisher)
	svc := newService(db, reminders, nil, nil)

	p := pendingPayment("p1", "Ravi", 3*time.Hour, 200)
	p.PhoneNumber = ""
	db.On("GetPendingByID", "p1").Return(&p, nil)

	err := svc.SendReminder("p1")
	assert.ErrorIs(t, err, payments.ErrNoPhoneNumber)
	reminders.AssertNotCalled(t, "PublishReminder", mock.Anything)
}

func TestSendReminderQueuesEvent(t *testing.T) {
	db := new(MockPaymentsDB)
	reminders := new(MockReminderPublisher)
	svc := newService(db, reminders, nil, nil)

	p := pendingPayment("p1", "Ravi", 3*time.Hour, 200)
	db.On("GetPendingByID", "p1").Return(&p, nil)
	reminders.On("PublishReminder", mock.Anything).Return(nil)

	assert.NoError(t, svc.SendReminder("p1"))
	reminders.AssertCalled(t, "PublishReminder", mock.MatchedBy(func(e models.ReminderEvent) bool {
		return e.PaymentID == "p1" && e.PendingAmount == 200 && strings.Contains(e.Message, "Ravi")
	}))
}

func TestReceiptQRBuildsUPIURI(t *testing.T) {
	uri := payments.UPIURI("club@upi", "One Shot Snooker", 150.5, "Table Pool A - Ravi")
	assert.True(t, strings.HasPrefix(uri, "upi://pay?"))
	assert.Contains(t, uri, "pa=club%40upi")
	assert.Contains(t, uri, "am=150.50")
	assert.Contains(t, uri, "cu=INR")

	png, err := payments.ReceiptQR("club@upi", "One Shot Snooker", 150.5, "note")
	assert.NoError(t, err)
	assert.NotEmpty(t, png)

	_, err = payments.ReceiptQR("", "One Shot Snooker", 150.5, "note")
	assert.Error(t, err)
}

func TestExportCSV(t *testing.T) {
	db := new(MockPaymentsDB)
	svc := newService(db, nil, nil, nil)

	db.On("ListPending").Return([]models.PendingPayment{
		pendingPayment("p1", "Ravi", 3*time.Hour, 200),
	}, nil)

	var buf bytes.Buffer
	assert.NoError(t, svc.ExportCSV(&buf))

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "pending")
	assert.Contains(t, lines[1], "Ravi")
	assert.Contains(t, lines[1], "200.00")
	assert.Contains(t, lines[1], models.PaymentStatusOverdue)
}
