package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"club-pos/internal/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// ErrPhoneTaken is returned when an insert or update collides with the
// unique constraint on players.phone.
var ErrPhoneTaken = errors.New("phone number already registered")

type DB struct {
	Bun *bun.DB
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" {
		return true
	}
	// sqlite (used by tests) reports constraint failures as plain strings
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (d *DB) CreatePlayer(player models.Player) error {
	_, err := d.Bun.NewInsert().Model(&player).Exec(context.Background())
	if isUniqueViolation(err) {
		return ErrPhoneTaken
	}
	return err
}

func (d *DB) GetPlayerByID(id string) (*models.Player, error) {
	var player models.Player
	err := d.Bun.NewSelect().
		Model(&player).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (d *DB) GetPlayerByPhone(phone string) (*models.Player, error) {
	var player models.Player
	err := d.Bun.NewSelect().
		Model(&player).
		Where("phone = ?", phone).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// GetPlayerByName matches case-insensitively so "ravi" and "Ravi" hit
// the same directory entry.
func (d *DB) GetPlayerByName(name string) (*models.Player, error) {
	var player models.Player
	err := d.Bun.NewSelect().
		Model(&player).
		Where("LOWER(name) = LOWER(?)", name).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (d *DB) ListPlayers() ([]models.Player, error) {
	var players []models.Player
	err := d.Bun.NewSelect().
		Model(&players).
		Order("name ASC").
		Scan(context.Background())
	return players, err
}

func (d *DB) UpdatePlayer(player models.Player) error {
	res, err := d.Bun.NewUpdate().
		Model(&player).
		Column("name", "phone", "email", "notes", "last_activity").
		Where("id = ?", player.ID).
		Exec(context.Background())
	if isUniqueViolation(err) {
		return ErrPhoneTaken
	}
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

func (d *DB) DeletePlayer(id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Player)(nil)).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}

// TouchActivity moves the player's last_activity forward. Used whenever a
// session or payment references the player.
func (d *DB) TouchActivity(id string, at time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Player)(nil)).
		Set("last_activity = ?", at.UnixMilli()).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}
