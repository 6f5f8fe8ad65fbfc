package db

import (
	"context"
	"database/sql"
	"errors"

	"club-pos/internal/models"

	"github.com/uptrace/bun"
)

// ErrAlreadyClosed is returned when a close races another close of the
// same session. The first transaction wins; retries are no-ops.
var ErrAlreadyClosed = errors.New("session already closed")

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateSession(session models.Session) error {
	_, err := d.Bun.NewInsert().Model(&session).Exec(context.Background())
	return err
}

func (d *DB) GetSessionByID(id string) (*models.Session, error) {
	var session models.Session
	err := d.Bun.NewSelect().
		Model(&session).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSessionByTable returns the active session occupying a table, or
// sql.ErrNoRows when the table is free.
func (d *DB) GetSessionByTable(table string) (*models.Session, error) {
	var session models.Session
	err := d.Bun.NewSelect().
		Model(&session).
		Where("table_name = ?", table).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (d *DB) ListSessions() ([]models.Session, error) {
	var sessions []models.Session
	err := d.Bun.NewSelect().
		Model(&sessions).
		Order("start_timestamp ASC").
		Scan(context.Background())
	return sessions, err
}

// ListEndedSessions returns the archive, most recently ended first.
func (d *DB) ListEndedSessions() ([]models.EndedSession, error) {
	var sessions []models.EndedSession
	err := d.Bun.NewSelect().
		Model(&sessions).
		Order("end_timestamp DESC").
		Scan(context.Background())
	return sessions, err
}

func (d *DB) UpdateItems(sessionID string, items []models.SessionItem) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Session)(nil)).
		Set("items = ?", items).
		Where("id = ?", sessionID).
		Exec(context.Background())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (d *DB) UpdatePlayer(sessionID, player, phoneNumber string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Session)(nil)).
		Set("player = ?", player).
		Set("phone_number = ?", phoneNumber).
		Where("id = ?", sessionID).
		Exec(context.Background())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateSnapshot writes the checkpoint worker's durability snapshot. The
// live values are always recomputed; this only limits what a crash loses.
func (d *DB) UpdateSnapshot(sessionID, duration string, tableAmount, totalAmount float64) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Session)(nil)).
		Set("duration = ?", duration).
		Set("table_amount = ?", tableAmount).
		Set("total_amount = ?", totalAmount).
		Where("id = ?", sessionID).
		Exec(context.Background())
	return err
}

// CloseSession removes an active session and writes its settled record.
// A fully paid close lands in the ended archive; an underpaid close
// lands in pending_payments instead and only reaches the archive once
// the balance is settled. Exactly one of ended/pending is non-nil. The
// whole move runs in one transaction keyed on the delete of the active
// row, so two concurrent closes cannot both archive the session.
func (d *DB) CloseSession(sessionID string, ended *models.EndedSession, pending *models.PendingPayment) error {
	return d.Bun.RunInTx(context.Background(), &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.Session)(nil)).
			Where("id = ?", sessionID).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadyClosed
		}

		if ended != nil {
			if _, err := tx.NewInsert().Model(ended).Exec(ctx); err != nil {
				return err
			}
		}
		if pending != nil {
			if _, err := tx.NewInsert().Model(pending).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

func requireRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
