package db

import (
	"context"
	"database/sql"
	"errors"

	"club-pos/internal/models"

	"github.com/uptrace/bun"
)

// ErrAlreadySettled is returned when a settle races another settle of
// the same pending payment.
var ErrAlreadySettled = errors.New("payment already settled")

type DB struct {
	Bun *bun.DB
}

// ListPending returns open balances oldest-first, the order payments are
// allocated in.
func (d *DB) ListPending() ([]models.PendingPayment, error) {
	var pending []models.PendingPayment
	err := d.Bun.NewSelect().
		Model(&pending).
		Order("end_timestamp ASC").
		Scan(context.Background())
	return pending, err
}

func (d *DB) GetPendingByID(id string) (*models.PendingPayment, error) {
	var pending models.PendingPayment
	err := d.Bun.NewSelect().
		Model(&pending).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

func (d *DB) UpdateMode(id, mode string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.PendingPayment)(nil)).
		Set("payment_mode = ?", mode).
		Where("id = ?", id).
		Exec(context.Background())
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Settle applies amount against a pending balance. A full cover deletes
// the pending row and writes the session into the ended archive; a
// partial cover shrinks the pending row. Both writes run in one
// transaction so the pending table and the archive cannot disagree.
// Returns the amount actually applied (never more than the open
// balance).
func (d *DB) Settle(id string, amount float64, mode string) (float64, error) {
	var applied float64
	err := d.Bun.RunInTx(context.Background(), &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var pending models.PendingPayment
		err := tx.NewSelect().
			Model(&pending).
			Where("id = ?", id).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAlreadySettled
		}
		if err != nil {
			return err
		}

		applied = amount
		if applied > pending.PendingAmount {
			applied = pending.PendingAmount
		}
		remaining := pending.PendingAmount - applied

		if remaining <= 0 {
			res, err := tx.NewDelete().
				Model((*models.PendingPayment)(nil)).
				Where("id = ?", id).
				Exec(ctx)
			if err != nil {
				return err
			}
			rows, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if rows == 0 {
				return ErrAlreadySettled
			}

			ended := pending.Settled(mode)
			_, err = tx.NewInsert().Model(&ended).Exec(ctx)
			return err
		}

		_, err = tx.NewUpdate().
			Model((*models.PendingPayment)(nil)).
			Set("paid_amount = paid_amount + ?", applied).
			Set("pending_amount = ?", remaining).
			Set("payment_mode = ?", mode).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}
