package handlers

import (
	"errors"
	"io"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"orderapi/internal/logger"
	"orderapi/internal/metrics"
	"orderapi/internal/middleware"
	"orderapi/internal/services"
)

// AppOptions wires the dependencies of the HTTP application.
type AppOptions struct {
	Service *services.OrderService
	// Metrics enables request metrics and the /metrics endpoint when set.
	Metrics *metrics.Metrics
	// LogOutput receives the request log. Defaults to stdout.
	LogOutput io.Writer
}

// NewApp builds the Fiber application with middleware, order routes, health
// endpoints and the JSON not-found handler.
func NewApp(opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Order API",
		DisableStartupMessage: true,
		UnescapePath:          true,
		ErrorHandler:          errorHandler,
	})

	logOutput := opts.LogOutput
	if logOutput == nil {
		logOutput = os.Stdout
	}

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(helmet.New())
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${method} ${path} | ${locals:requestid}\n",
		Output: logOutput,
	}))

	if opts.Metrics != nil {
		app.Use(middleware.Metrics(opts.Metrics))
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	NewHealthHandler(opts.Service).RegisterRoutes(app)
	NewOrderHandler(opts.Service).RegisterRoutes(app)

	app.Use(func(c *fiber.Ctx) error {
		return errorResponse(c, fiber.StatusNotFound, MsgRouteNotFound)
	})

	return app
}

// errorHandler answers errors that escaped a handler. Fiber errors below 500
// keep their status and message; everything else becomes a bare 500.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return errorResponse(c, fe.Code, fe.Message)
	}

	logger.Component("http").WithError(err).WithField("path", c.Path()).Error("unhandled error")
	return errorResponse(c, fiber.StatusInternalServerError, MsgInternalError)
}
