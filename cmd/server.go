package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/Abraxas-365/sitepilot/pkg/config"
	"github.com/Abraxas-365/sitepilot/pkg/errx"
	"github.com/Abraxas-365/sitepilot/pkg/logx"
)

func main() {
	logx.SetLevel(logx.ParseLevel(os.Getenv("LOG_LEVEL")))

	cfg := config.Load()

	container := NewContainer(cfg)
	defer container.Cleanup()

	app := fiber.New(fiber.Config{
		AppName:                 "Sitepilot v1.0",
		DisableStartupMessage:   false,
		ErrorHandler:            globalErrorHandler,
		BodyLimit:               10 * 1024 * 1024,
		EnableTrustedProxyCheck: false,
	})

	setupMiddleware(app, cfg)
	setupRoutes(app, container)

	app.Use(notFoundHandler)

	go startServer(app, cfg.Server.Port)

	gracefulShutdown(app, cfg)
}

func setupMiddleware(app *fiber.App, cfg *config.Config) {
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Server.CORSOrigins, ","),
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-Session-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format: "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
	}))
}

func setupRoutes(app *fiber.App, container *Container) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "sitepilot",
		})
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"name":     "Sitepilot API",
			"version":  "1.0.0",
			"provider": container.Config.Provider.Name,
		})
	})

	api := app.Group("/api")
	if container.Auth != nil {
		api.Use(container.Auth.Middleware())
	}

	container.Chat.RegisterRoutes(api)
}

func globalErrorHandler(c *fiber.Ctx, err error) error {
	logx.WithFields(logx.Fields{
		"method":     c.Method(),
		"path":       c.Path(),
		"request_id": c.Get("X-Request-ID"),
	}).WithError(err).Error("Request failed")

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    fmt.Sprintf("HTTP_%d", fiberErr.Code),
				"message": fiberErr.Message,
			},
		})
	}

	var appErr *errx.Error
	if errors.As(err, &appErr) {
		response := fiber.Map{
			"error": fiber.Map{
				"code":    appErr.Code,
				"message": appErr.Message,
				"type":    appErr.Type,
			},
		}
		if len(appErr.Details) > 0 {
			response["error"].(fiber.Map)["details"] = appErr.Details
		}
		if os.Getenv("DEBUG") == "true" && appErr.Err != nil {
			response["error"].(fiber.Map)["underlying"] = appErr.Err.Error()
		}
		return c.Status(appErr.HTTPStatus).JSON(response)
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "INTERNAL_ERROR",
			"message": "An unexpected error occurred",
		},
	})
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "NOT_FOUND",
			"message": fmt.Sprintf("Route %s %s not found", c.Method(), c.Path()),
		},
	})
}

func startServer(app *fiber.App, port int) {
	addr := fmt.Sprintf(":%d", port)
	logx.WithField("addr", addr).Info("Starting server")

	if err := app.Listen(addr); err != nil {
		logx.WithError(err).Fatal("Server failed to start")
	}
}

func gracefulShutdown(app *fiber.App, cfg *config.Config) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	sig := <-quit
	logx.WithField("signal", sig.String()).Info("Shutdown signal received")

	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		logx.WithError(err).Error("Server forced to shutdown")
	}

	logx.Info("Server stopped")
}
