package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"club-pos/internal/models"

	"github.com/uptrace/bun"
)

// ErrInsufficientStock is returned when a reservation would take a
// category's quantity below zero. The floor lives in the UPDATE itself,
// not in a read-then-write.
var ErrInsufficientStock = errors.New("insufficient stock")

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateCategory(category models.Category) error {
	_, err := d.Bun.NewInsert().Model(&category).Exec(context.Background())
	return err
}

func (d *DB) GetCategoryByID(id string) (*models.Category, error) {
	var category models.Category
	err := d.Bun.NewSelect().
		Model(&category).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (d *DB) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	err := d.Bun.NewSelect().
		Model(&categories).
		Order("name ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (d *DB) UpdateCategory(category models.Category) error {
	category.UpdatedAt = time.Now()
	_, err := d.Bun.NewUpdate().
		Model(&category).
		Column("name", "price", "quantity", "updated_at").
		Where("id = ?", category.ID).
		Exec(context.Background())
	return err
}

func (d *DB) DeleteCategory(id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Category)(nil)).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}

// ReserveStock atomically decrements quantity, refusing to go below
// zero. Zero rows affected means the shelf did not have enough.
func (d *DB) ReserveStock(id string, quantity int) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Category)(nil)).
		Set("quantity = quantity - ?", quantity).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("quantity >= ?", quantity).
		Exec(context.Background())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish a missing category from an empty shelf.
		exists, err := d.Bun.NewSelect().
			Model((*models.Category)(nil)).
			Where("id = ?", id).
			Exists(context.Background())
		if err != nil {
			return err
		}
		if !exists {
			return sql.ErrNoRows
		}
		return ErrInsufficientStock
	}
	return nil
}

// ReleaseStock puts a failed reservation back on the shelf.
func (d *DB) ReleaseStock(id string, quantity int) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Category)(nil)).
		Set("quantity = quantity + ?", quantity).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}
