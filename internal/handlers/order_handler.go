package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	log "github.com/sirupsen/logrus"

	"orderapi/internal/logger"
	"orderapi/internal/mapper"
	"orderapi/internal/services"
)

const (
	MsgOrderNotFound   = "Order not found"
	MsgOrderExists     = "Order with this orderId already exists"
	MsgOrderDeleted    = "Order deleted"
	MsgOrderIDRequired = "orderId is required"
	MsgInvalidBody     = "Invalid request body"
	MsgInternalError   = "Internal Server Error"
	MsgRouteNotFound   = "Not Found"
)

const orderIDParam = "orderId"

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
	logger  *log.Entry
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.Component("order-handler"),
	}
}

// RegisterRoutes registers the order routes under /order. /list is registered
// before /:orderId so it is never read as an identifier.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/order")
	orderRoutes.Get("/list", h.HandleListOrders)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/:orderId", h.HandleGetOrder)
	orderRoutes.Put("/:orderId", h.HandleUpdateOrder)
	orderRoutes.Delete("/:orderId", h.HandleDeleteOrder)
}

// HandleListOrders returns the newest orders first.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(c.UserContext())
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(orders)
}

// HandleCreateOrder creates an order from a body in either naming scheme.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	raw, err := h.parseBody(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, MsgInvalidBody)
	}

	order, err := h.service.CreateOrder(c.UserContext(), raw)
	if err != nil {
		return h.handleError(c, err)
	}

	h.logger.WithField("order_id", order.OrderID).Info("order created")
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetOrder returns a single order.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.UserContext(), orderID(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(order)
}

// HandleUpdateOrder applies the fields present in the body to an order.
func (h *OrderHandler) HandleUpdateOrder(c *fiber.Ctx) error {
	raw, err := h.parseBody(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, MsgInvalidBody)
	}

	order, err := h.service.UpdateOrder(c.UserContext(), orderID(c), raw)
	if err != nil {
		return h.handleError(c, err)
	}

	h.logger.WithField("order_id", order.OrderID).Info("order updated")
	return c.JSON(order)
}

// HandleDeleteOrder removes an order.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	id := orderID(c)
	if err := h.service.DeleteOrder(c.UserContext(), id); err != nil {
		return h.handleError(c, err)
	}

	h.logger.WithField("order_id", id).Info("order deleted")
	return c.JSON(fiber.Map{"message": MsgOrderDeleted})
}

// parseBody decodes the request body into a generic JSON object. An empty
// body, a non-object document or a non-JSON content type is an error.
func (h *OrderHandler) parseBody(c *fiber.Ctx) (map[string]any, error) {
	if len(c.Body()) == 0 {
		return nil, errors.New("empty body")
	}
	var raw map[string]any
	if err := c.BodyParser(&raw); err != nil {
		h.logger.WithError(err).Debug("failed to parse request body")
		return nil, err
	}
	return raw, nil
}

// handleError maps service errors to status codes. Unexpected errors are
// logged and answered without detail.
func (h *OrderHandler) handleError(c *fiber.Ctx, err error) error {
	var verr *mapper.ValidationError
	switch {
	case errors.As(err, &verr):
		return errorResponse(c, fiber.StatusBadRequest, verr.Message)
	case errors.Is(err, services.ErrBadRequest):
		return errorResponse(c, fiber.StatusBadRequest, MsgOrderIDRequired)
	case errors.Is(err, services.ErrNotFound):
		return errorResponse(c, fiber.StatusNotFound, MsgOrderNotFound)
	case errors.Is(err, services.ErrConflict):
		return errorResponse(c, fiber.StatusConflict, MsgOrderExists)
	default:
		h.logger.WithError(err).WithFields(log.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).Error("order request failed")
		return errorResponse(c, fiber.StatusInternalServerError, MsgInternalError)
	}
}

func orderID(c *fiber.Ctx) string {
	return utils.CopyString(c.Params(orderIDParam))
}

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}
