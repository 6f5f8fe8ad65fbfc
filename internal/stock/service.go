package stock

import (
	"errors"
	"fmt"

	"club-pos/internal/models"

	"github.com/google/uuid"
)

var (
	ErrNameRequired    = errors.New("item name is required")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

type StockDBLayer interface {
	CreateCategory(category models.Category) error
	GetCategoryByID(id string) (*models.Category, error)
	ListCategories() ([]models.Category, error)
	UpdateCategory(category models.Category) error
	DeleteCategory(id string) error
	ReserveStock(id string, quantity int) error
	ReleaseStock(id string, quantity int) error
}

type StockService struct {
	DB StockDBLayer
}

func NewStockService(db StockDBLayer) *StockService {
	return &StockService{DB: db}
}

func (s *StockService) AddCategory(req models.CategoryRequest) (*models.Category, error) {
	if req.Name == "" {
		return nil, ErrNameRequired
	}
	if req.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative")
	}

	category := models.Category{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
	}
	if err := s.DB.CreateCategory(category); err != nil {
		return nil, fmt.Errorf("failed to create stock item: %w", err)
	}
	return &category, nil
}

func (s *StockService) GetCategory(id string) (*models.Category, error) {
	category, err := s.DB.GetCategoryByID(id)
	if err != nil {
		return nil, fmt.Errorf("stock item %s not found: %w", id, err)
	}
	return category, nil
}

func (s *StockService) ListCategories() ([]models.Category, error) {
	return s.DB.ListCategories()
}

func (s *StockService) UpdateCategory(id string, req models.CategoryRequest) (*models.Category, error) {
	category, err := s.DB.GetCategoryByID(id)
	if err != nil {
		return nil, fmt.Errorf("stock item %s not found: %w", id, err)
	}
	if req.Name == "" {
		return nil, ErrNameRequired
	}
	if req.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative")
	}

	category.Name = req.Name
	category.Price = req.Price
	category.Quantity = req.Quantity
	if err := s.DB.UpdateCategory(*category); err != nil {
		return nil, fmt.Errorf("failed to update stock item: %w", err)
	}
	return category, nil
}

func (s *StockService) DeleteCategory(id string) error {
	if _, err := s.DB.GetCategoryByID(id); err != nil {
		return fmt.Errorf("stock item %s not found: %w", id, err)
	}
	return s.DB.DeleteCategory(id)
}

// Reserve takes quantity units off the shelf for a sale. The decrement
// is atomic in the store, so two concurrent sales cannot oversell.
func (s *StockService) Reserve(id string, quantity int) (*models.Category, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	category, err := s.DB.GetCategoryByID(id)
	if err != nil {
		return nil, fmt.Errorf("stock item %s not found: %w", id, err)
	}
	if err := s.DB.ReserveStock(id, quantity); err != nil {
		return nil, err
	}
	return category, nil
}

// Release undoes a reservation after a downstream failure.
func (s *StockService) Release(id string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return s.DB.ReleaseStock(id, quantity)
}
