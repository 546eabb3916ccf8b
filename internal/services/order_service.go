package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"orderapi/internal/events"
	"orderapi/internal/logger"
	"orderapi/internal/mapper"
	"orderapi/internal/metrics"
	"orderapi/internal/models"
	"orderapi/internal/repositories"
)

// MaxListOrders caps the number of orders returned by ListOrders.
const MaxListOrders = 1000

// MsgIdentifierRequired is returned when a create request carries no order
// identifier under either naming scheme.
const MsgIdentifierRequired = "numeroPedido (order identifier) is required"

var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("order not found")
	ErrConflict   = errors.New("order with this orderId already exists")
)

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *log.Entry
}

// NewOrderService creates a new OrderService. publisher and m may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, publisher events.Publisher, m *metrics.Metrics) *OrderService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &OrderService{
		orderRepo: orderRepo,
		publisher: publisher,
		metrics:   m,
		logger:    logger.Component("order-service"),
	}
}

// CreateOrder maps, validates and stores a new order from a raw request body.
func (s *OrderService) CreateOrder(ctx context.Context, raw map[string]any) (order *models.Order, err error) {
	defer func() { s.record("create", err) }()

	if !mapper.HasIdentifier(raw) {
		return nil, mapper.NewValidationError("orderId", MsgIdentifierRequired)
	}

	input, err := mapper.MapToOrder(raw)
	if err != nil {
		return nil, mapper.NewValidationError("body", err.Error())
	}
	validated, err := mapper.Validate(input)
	if err != nil {
		return nil, err
	}

	_, err = s.orderRepo.GetByID(ctx, validated.OrderID)
	switch {
	case err == nil:
		return nil, ErrConflict
	case !errors.Is(err, repositories.ErrOrderNotFound):
		return nil, fmt.Errorf("failed to check order %s: %w", validated.OrderID, err)
	}

	if err := s.orderRepo.Create(ctx, &validated); err != nil {
		if errors.Is(err, repositories.ErrOrderExists) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	s.publish(ctx, events.OrderCreated, validated.OrderID, &validated)
	return &validated, nil
}

// GetOrder returns the order stored under orderID.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, ErrBadRequest
	}
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}
	return order, nil
}

// ListOrders returns up to MaxListOrders orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orderRepo.GetAll(ctx, MaxListOrders)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateOrder applies the fields present in raw to the stored order. value is
// replaced when present, creationDate when supplied and items when non-empty.
// Any identifier in raw is ignored.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID string, raw map[string]any) (order *models.Order, err error) {
	defer func() { s.record("update", err) }()

	if strings.TrimSpace(orderID) == "" {
		return nil, ErrBadRequest
	}

	existing, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	input, err := mapper.MapToOrder(raw)
	if err != nil {
		return nil, mapper.NewValidationError("body", err.Error())
	}
	if err := mapper.ValidatePatch(input); err != nil {
		return nil, err
	}

	if input.Value != nil {
		existing.Value = *input.Value
	}
	if input.CreationDateSet {
		existing.CreationDate = input.CreationDate
	}
	if len(input.Items) > 0 {
		existing.Items = input.OrderItems()
	}

	if err := s.orderRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update order %s: %w", orderID, err)
	}

	s.publish(ctx, events.OrderUpdated, existing.OrderID, existing)
	return existing, nil
}

// DeleteOrder removes the order stored under orderID.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID string) (err error) {
	defer func() { s.record("delete", err) }()

	if strings.TrimSpace(orderID) == "" {
		return ErrBadRequest
	}
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return err
	}

	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete order %s: %w", orderID, err)
	}

	s.publish(ctx, events.OrderDeleted, orderID, nil)
	return nil
}

// Ping checks that the order store is reachable.
func (s *OrderService) Ping(ctx context.Context) error {
	return s.orderRepo.Ping(ctx)
}

// publish never fails the caller; broker errors are only logged.
func (s *OrderService) publish(ctx context.Context, eventType events.Type, orderID string, order *models.Order) {
	event := events.NewEvent(eventType, orderID, order)
	entry := s.logger.WithFields(log.Fields{
		"event_id": event.ID,
		"type":     eventType,
		"order_id": orderID,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		entry.WithError(err).Warn("failed to publish order event")
		return
	}
	entry.Debug("order event published")
}

func (s *OrderService) record(operation string, err error) {
	if s.metrics != nil {
		s.metrics.RecordOperation(operation, err)
	}
}
