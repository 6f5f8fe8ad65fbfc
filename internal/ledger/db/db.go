package db

import (
	"context"
	"database/sql"

	"club-pos/internal/ledger"
	"club-pos/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) ListActiveByPlayer(name string) ([]models.Session, error) {
	var sessions []models.Session
	err := d.Bun.NewSelect().
		Model(&sessions).
		Where("LOWER(player) = LOWER(?)", name).
		Order("start_timestamp DESC").
		Scan(context.Background())
	return sessions, err
}

func (d *DB) ListEndedByPlayer(name string) ([]models.EndedSession, error) {
	var ended []models.EndedSession
	err := d.Bun.NewSelect().
		Model(&ended).
		Where("LOWER(player) = LOWER(?)", name).
		Order("end_timestamp DESC").
		Scan(context.Background())
	return ended, err
}

// ListPendingByPlayer returns the player's open balances oldest-first,
// the order payments are applied in.
func (d *DB) ListPendingByPlayer(name string) ([]models.PendingPayment, error) {
	var pending []models.PendingPayment
	err := d.Bun.NewSelect().
		Model(&pending).
		Where("LOWER(player) = LOWER(?)", name).
		Order("end_timestamp ASC").
		Scan(context.Background())
	return pending, err
}

func (d *DB) InsertTransaction(txn models.PaymentTransaction) error {
	_, err := d.Bun.NewInsert().Model(&txn).Exec(context.Background())
	return err
}

func (d *DB) ListTransactions(limit int) ([]models.PaymentTransaction, error) {
	var txns []models.PaymentTransaction
	q := d.Bun.NewSelect().
		Model(&txns).
		Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(context.Background())
	return txns, err
}

func (d *DB) ListTransactionsByPlayer(name string, limit int) ([]models.PaymentTransaction, error) {
	var txns []models.PaymentTransaction
	q := d.Bun.NewSelect().
		Model(&txns).
		Where("LOWER(player_name) = LOWER(?)", name).
		Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(context.Background())
	return txns, err
}

// RecordPayment writes the durable transaction row and applies its
// allocations to the pending and archive tables in one transaction, so a
// crash cannot record money without moving the balances it covered.
func (d *DB) RecordPayment(txn models.PaymentTransaction, allocations []ledger.Allocation) error {
	return d.Bun.RunInTx(context.Background(), &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&txn).Exec(ctx); err != nil {
			return err
		}

		for _, alloc := range allocations {
			if alloc.Settled {
				// A fully covered balance graduates into the archive.
				var pending models.PendingPayment
				if err := tx.NewSelect().
					Model(&pending).
					Where("id = ?", alloc.PaymentID).
					Limit(1).
					Scan(ctx); err != nil {
					return err
				}
				if _, err := tx.NewDelete().
					Model((*models.PendingPayment)(nil)).
					Where("id = ?", alloc.PaymentID).
					Exec(ctx); err != nil {
					return err
				}
				ended := pending.Settled(txn.PaymentMethod)
				if _, err := tx.NewInsert().Model(&ended).Exec(ctx); err != nil {
					return err
				}
				continue
			}

			if _, err := tx.NewUpdate().
				Model((*models.PendingPayment)(nil)).
				Set("paid_amount = paid_amount + ?", alloc.Amount).
				Set("pending_amount = pending_amount - ?", alloc.Amount).
				Where("id = ?", alloc.PaymentID).
				Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
