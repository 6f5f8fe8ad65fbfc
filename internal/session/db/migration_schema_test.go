package db_test

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"club-pos/internal/models"
	"club-pos/internal/session/db"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

// Runs the real migration file instead of generating tables from the
// models, so a column missing from the SQL fails here even though the
// other tests pass.
func setupMigratedDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	raw, err := os.ReadFile("../../../migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("Failed to read migration file: %v", err)
	}
	for _, stmt := range strings.Split(string(raw), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := bunDB.ExecContext(context.Background(), stmt); err != nil {
			t.Fatalf("Migration statement failed: %v\n%s", err, stmt)
		}
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func TestMigratedSchemaAcceptsPartialClose(t *testing.T) {
	sessionDB, bunDB := setupMigratedDB(t)
	defer bunDB.Close()

	s := activeSession("Pool A")
	assert.NoError(t, sessionDB.CreateSession(s))

	now := time.Now()
	pending := &models.PendingPayment{
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
		TotalAmount:    230,
		PaidAmount:     100,
		PendingAmount:  130,
		PaymentStatus:  models.PaymentStatusPartial,
		PaymentMode:    models.PaymentModeCash,
		RatePerMinute:  s.RatePerMinute,
		CreatedAt:      now,
	}
	assert.NoError(t, sessionDB.CloseSession(s.ID, nil, pending))

	var stored models.PendingPayment
	err := bunDB.NewSelect().Model(&stored).Where("id = ?", s.ID).Scan(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 5.0, stored.RatePerMinute)
	assert.Equal(t, 130.0, stored.PendingAmount)
}

func TestMigratedSchemaAcceptsFullClose(t *testing.T) {
	sessionDB, bunDB := setupMigratedDB(t)
	defer bunDB.Close()

	s := activeSession("Pool A")
	assert.NoError(t, sessionDB.CreateSession(s))

	ended := endedFrom(s, 230, 0, models.PaymentStatusPaid)
	assert.NoError(t, sessionDB.CloseSession(s.ID, &ended, nil))

	var archived models.EndedSession
	err := bunDB.NewSelect().Model(&archived).Where("id = ?", s.ID).Scan(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 5.0, archived.RatePerMinute)
}
