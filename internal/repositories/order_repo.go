package repositories

import (
	"context"
	"errors"

	"orderapi/internal/models"
)

var (
	// ErrOrderNotFound is returned when no order matches the given orderId.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists is returned by Create when the orderId is already taken.
	ErrOrderExists = errors.New("order already exists")
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// GetAll returns at most limit orders, newest createdAt first.
	GetAll(ctx context.Context, limit int) ([]models.Order, error)
	GetByID(ctx context.Context, orderID string) (*models.Order, error)
	// Create stamps CreatedAt/UpdatedAt and inserts the order. It returns
	// ErrOrderExists if the orderId is taken.
	Create(ctx context.Context, order *models.Order) error
	// Update replaces the stored order with the same orderId.
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, orderID string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
