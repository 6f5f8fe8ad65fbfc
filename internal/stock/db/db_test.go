package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"club-pos/internal/models"
	"club-pos/internal/stock/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	// Connect to an in-memory SQLite DB for testing
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.NewCreateTable().Model((*models.Category)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create categories table: %v", err)
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func insertCategory(t *testing.T, bunDB *bun.DB, name string, price float64, quantity int) string {
	categoryID := uuid.New().String()
	category := models.Category{
		ID:        categoryID,
		Name:      name,
		Price:     price,
		Quantity:  quantity,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	_, err := bunDB.NewInsert().Model(&category).Exec(context.Background())
	assert.NoError(t, err)
	return categoryID
}

func TestCreateAndGetCategory(t *testing.T) {
	stockDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	categoryID := uuid.New().String()
	err := stockDB.CreateCategory(models.Category{
		ID:       categoryID,
		Name:     "Coca Cola",
		Price:    40,
		Quantity: 24,
	})
	assert.NoError(t, err)

	// Test case: Get existing category
	category, err := stockDB.GetCategoryByID(categoryID)
	assert.NoError(t, err)
	assert.NotNil(t, category)
	assert.Equal(t, "Coca Cola", category.Name)
	assert.Equal(t, 24, category.Quantity)

	// Test case: Get non-existent category
	category, err = stockDB.GetCategoryByID("non-existent")
	assert.Error(t, err)
	assert.Nil(t, category)
}

func TestUpdateCategory(t *testing.T) {
	stockDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	categoryID := insertCategory(t, bunDB, "Lays", 20, 10)

	err := stockDB.UpdateCategory(models.Category{
		ID:       categoryID,
		Name:     "Lays Classic",
		Price:    25,
		Quantity: 12,
	})
	assert.NoError(t, err)

	category, err := stockDB.GetCategoryByID(categoryID)
	assert.NoError(t, err)
	assert.Equal(t, "Lays Classic", category.Name)
	assert.Equal(t, 25.0, category.Price)
	assert.Equal(t, 12, category.Quantity)
}

func TestReserveStockDecrements(t *testing.T) {
	stockDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	categoryID := insertCategory(t, bunDB, "Red Bull", 120, 5)

	// Reserving the full quantity succeeds and leaves zero on the shelf
	err := stockDB.ReserveStock(categoryID, 5)
	assert.NoError(t, err)

	category, err := stockDB.GetCategoryByID(categoryID)
	assert.NoError(t, err)
	assert.Equal(t, 0, category.Quantity)
}

func TestReserveStockRejectsOversell(t *testing.T) {
	stockDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	categoryID := insertCategory(t, bunDB, "Sprite", 35, 3)

	// Asking for one more than available fails and leaves stock untouched
	err := stockDB.ReserveStock(categoryID, 4)
	assert.ErrorIs(t, err, db.ErrInsufficientStock)

	category, err := stockDB.GetCategoryByID(categoryID)
	assert.NoError(t, err)
	assert.Equal(t, 3, category.Quantity)
}

func TestReserveStockUnknownItem(t *testing.T) {
	stockDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	err := stockDB.ReserveStock("non-existent", 1)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReleaseStockRestores(t *testing.T) {
	stockDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	categoryID := insertCategory(t, bunDB, "Maaza", 30, 6)

	err := stockDB.ReserveStock(categoryID, 4)
	assert.NoError(t, err)

	err = stockDB.ReleaseStock(categoryID, 4)
	assert.NoError(t, err)

	category, err := stockDB.GetCategoryByID(categoryID)
	assert.NoError(t, err)
	assert.Equal(t, 6, category.Quantity)
}

func TestDeleteCategory(t *testing.T) {
	stockDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	categoryID := insertCategory(t, bunDB, "Kurkure", 15, 8)

	err := stockDB.DeleteCategory(categoryID)
	assert.NoError(t, err)

	count, err := bunDB.NewSelect().
		Model((*models.Category)(nil)).
		Where("id = ?", categoryID).
		Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}
