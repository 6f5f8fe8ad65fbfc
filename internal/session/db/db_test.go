package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"club-pos/internal/models"
	"club-pos/internal/session/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	for _, model := range []interface{}{
		(*models.Session)(nil),
		(*models.EndedSession)(nil),
		(*models.PendingPayment)(nil),
	} {
		if _, err := bunDB.NewCreateTable().Model(model).Exec(context.Background()); err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func activeSession(table string) models.Session {
	return models.Session{
		ID:             uuid.New().String(),
		Table:          table,
		Player:         "Ravi",
		StartTime:      "8:00:00 PM",
		StartTimestamp: time.Now().Add(-30 * time.Minute).UnixMilli(),
		Items:          []models.SessionItem{{Name: "Coca Cola", Price: 40, Quantity: 2}},
		RatePerMinute:  5,
		CreatedAt:      time.Now(),
	}
}

func endedFrom(s models.Session, paid, pending float64, status string) models.EndedSession {
	now := time.Now()
	return models.EndedSession{
		ID:             s.ID,
		Table:          s.Table,
		Player:         s.Player,
		StartTime:      s.StartTime,
		StartTimestamp: s.StartTimestamp,
		EndTime:        now.Format("1/2/2006, 3:04:05 PM"),
		EndTimestamp:   now.UnixMilli(),
		Duration:       "00:30:00",
		TableAmount:    150,
		Items:          s.Items,
		TotalAmount:    paid + pending,
		PaidAmount:     paid,
		PendingAmount:  pending,
		PaymentStatus:  status,
		PaymentMode:    models.PaymentModeCash,
		RatePerMinute:  s.RatePerMinute,
		CreatedAt:      now,
	}
}

func TestCreateAndGetSession(t *testing.T) {
	sessionDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	s := activeSession("Pool A")
	assert.NoError(t, sessionDB.CreateSession(s))

	found, err := sessionDB.GetSessionByID(s.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Pool A", found.Table)
	assert.Equal(t, "Ravi", found.Player)
	assert.Len(t, found.Items, 1)
	assert.Equal(t, 2, found.Items[0].Quantity)

	byTable, err := sessionDB.GetSessionByTable("Pool A")
	assert.NoError(t, err)
	assert.Equal(t, s.ID, byTable.ID)

	_, err = sessionDB.GetSessionByTable("Snooker B")
	assert.Error(t, err)
}

func TestUpdateItems(t *testing.T) {
	sessionDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	s := activeSession("Pool A")
	assert.NoError(t, sessionDB.CreateSession(s))

	items := []models.SessionItem{
		{Name: "Coca Cola", Price: 40, Quantity: 3},
		{Name: "Lays", Price: 20, Quantity: 1},
	}
	assert.NoError(t, sessionDB.UpdateItems(s.ID, items))

	found, err := sessionDB.GetSessionByID(s.ID)
	assert.NoError(t, err)
	assert.Len(t, found.Items, 2)
	assert.Equal(t, 3, found.Items[0].Quantity)

	// Unknown session
	err = sessionDB.UpdateItems("non-existent", items)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUpdateSnapshot(t *testing.T) {
	sessionDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	s := activeSession("Pool A")
	assert.NoError(t, sessionDB.CreateSession(s))

	assert.NoError(t, sessionDB.UpdateSnapshot(s.ID, "00:45:00", 225, 305))

	found, err := sessionDB.GetSessionByID(s.ID)
	assert.NoError(t, err)
	assert.Equal(t, "00:45:00", found.Duration)
	assert.Equal(t, 225.0, found.TableAmount)
	assert.Equal(t, 305.0, found.TotalAmount)
}

func TestCloseSessionMovesRowToArchive(t *testing.T) {
	sessionDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	s := activeSession("Pool A")
	assert.NoError(t, sessionDB.CreateSession(s))

	ended := endedFrom(s, 230, 0, models.PaymentStatusPaid)
	assert.NoError(t, sessionDB.CloseSession(s.ID, &ended, nil))

	// Active row is gone
	_, err := sessionDB.GetSessionByID(s.ID)
	assert.Error(t, err)

	// Archive row exists
	var archived models.EndedSession
	err = bunDB.NewSelect().Model(&archived).Where("id = ?", s.ID).Scan(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, archived.PaymentStatus)
	assert.Equal(t, 230.0, archived.PaidAmount)
}

func TestCloseSessionWritesPendingRow(t *testing.T) {
	sessionDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	s := activeSession("Pool A")
	assert.NoError(t, sessionDB.CreateSession(s))

	pending := &models.PendingPayment{
		ID:            s.ID,
		Table:         s.Table,
		Player:        s.Player,
		EndTimestamp:  time.Now().UnixMilli(),
		TotalAmount:   230,
		PaidAmount:    100,
		PendingAmount: 130,
		PaymentStatus: models.PaymentStatusPartial,
		RatePerMinute: s.RatePerMinute,
	}
	assert.NoError(t, sessionDB.CloseSession(s.ID, nil, pending))

	var stored models.PendingPayment
	err := bunDB.NewSelect().Model(&stored).Where("id = ?", s.ID).Scan(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 130.0, stored.PendingAmount)
	assert.Equal(t, 5.0, stored.RatePerMinute)

	// An underpaid close does not touch the ended archive
	count, err := bunDB.NewSelect().
		Model((*models.EndedSession)(nil)).
		Where("id = ?", s.ID).
		Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCloseSessionIdempotent(t *testing.T) {
	sessionDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	s := activeSession("Pool A")
	assert.NoError(t, sessionDB.CreateSession(s))

	ended := endedFrom(s, 230, 0, models.PaymentStatusPaid)
	assert.NoError(t, sessionDB.CloseSession(s.ID, &ended, nil))

	// Second close of the same session loses the race and changes nothing
	err := sessionDB.CloseSession(s.ID, &ended, nil)
	assert.ErrorIs(t, err, db.ErrAlreadyClosed)

	count, err := bunDB.NewSelect().
		Model((*models.EndedSession)(nil)).
		Where("id = ?", s.ID).
		Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCloseSessionRollsBackOnDuplicateArchive(t *testing.T) {
	sessionDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	s := activeSession("Pool A")
	assert.NoError(t, sessionDB.CreateSession(s))

	// Pre-seed the archive with the same ID so the insert inside the
	// transaction fails after the delete succeeded
	ended := endedFrom(s, 230, 0, models.PaymentStatusPaid)
	_, err := bunDB.NewInsert().Model(&ended).Exec(context.Background())
	assert.NoError(t, err)

	err = sessionDB.CloseSession(s.ID, &ended, nil)
	assert.Error(t, err)

	// The delete must have rolled back: the active session survives
	found, err := sessionDB.GetSessionByID(s.ID)
	assert.NoError(t, err)
	assert.Equal(t, s.ID, found.ID)
}
