package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"orderapi/internal/models"
)

type storedOrder struct {
	order models.Order
	seq   uint64
}

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]storedOrder
	seq    uint64
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]storedOrder),
	}
}

// GetAll returns orders newest first, insertion order breaking timestamp ties.
func (r *MockOrderRepository) GetAll(_ context.Context, limit int) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := make([]storedOrder, 0, len(r.orders))
	for _, s := range r.orders {
		stored = append(stored, s)
	}
	sort.Slice(stored, func(i, j int) bool {
		if !stored[i].order.CreatedAt.Equal(stored[j].order.CreatedAt) {
			return stored[i].order.CreatedAt.After(stored[j].order.CreatedAt)
		}
		return stored[i].seq > stored[j].seq
	})
	if limit > 0 && len(stored) > limit {
		stored = stored[:limit]
	}

	orderList := make([]models.Order, 0, len(stored))
	for _, s := range stored {
		orderList = append(orderList, cloneOrder(s.order))
	}
	return orderList, nil
}

// GetByID returns an order by its orderId.
func (r *MockOrderRepository) GetByID(_ context.Context, orderID string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	order := cloneOrder(s.order)
	return &order, nil
}

// Create adds a new order.
func (r *MockOrderRepository) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.OrderID]; exists {
		return ErrOrderExists
	}
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	r.seq++
	r.orders[order.OrderID] = storedOrder{order: cloneOrder(*order), seq: r.seq}
	return nil
}

// Update replaces an existing order.
func (r *MockOrderRepository) Update(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.orders[order.OrderID]
	if !ok {
		return ErrOrderNotFound
	}
	order.UpdatedAt = time.Now().UTC()
	s.order = cloneOrder(*order)
	r.orders[order.OrderID] = s
	return nil
}

// Delete removes an order by its orderId.
func (r *MockOrderRepository) Delete(_ context.Context, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[orderID]; !ok {
		return ErrOrderNotFound
	}
	delete(r.orders, orderID)
	return nil
}

func (r *MockOrderRepository) Ping(context.Context) error  { return nil }
func (r *MockOrderRepository) Close(context.Context) error { return nil }

func cloneOrder(o models.Order) models.Order {
	if o.Items != nil {
		o.Items = append([]models.OrderItem(nil), o.Items...)
	}
	return o
}

var _ OrderRepository = (*MockOrderRepository)(nil)
