package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	authconfig "plant-shop/internal/auth/config"
	catalogconfig "plant-shop/internal/catalog/config"
	"plant-shop/internal/di"
	"plant-shop/internal/shared/logger"

	"github.com/caarlos0/env/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            string        `env:"SERVER_PORT" envDefault:"5000"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}
	if err := run(); err != nil {
		log.Printf("Plant shop stopped: %v", err)
		os.Exit(1)
	}
}

func run() error {
	serverCfg := &ServerConfig{}
	if err := env.Parse(serverCfg); err != nil {
		return fmt.Errorf("failed to load server configuration: %w", err)
	}
	catalogCfg, err := catalogconfig.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load catalog configuration: %w", err)
	}
	authCfg, err := authconfig.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load auth configuration: %w", err)
	}

	appLogger := logger.NewLogger()
	appLogger.Info("Plant shop starting...")

	container, err := startContainer(context.Background(), appLogger, catalogCfg, authCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Errorf("Failed to close container: %v", err)
		}
	}()
	appLogger.Info("Modules initialized")

	app := fiber.New(fiber.Config{
		AppName:      "Plant Shop API",
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
		IdleTimeout:  serverCfg.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				appLogger.WithContext(c.UserContext()).Errorf("HTTP error: %v", err)
			}
			return c.Status(code).JSON(fiber.Map{"error": errorCode(code)})
		},
	})

	authModule := container.GetAuthModule()
	catalogModule := container.GetCatalogModule()
	mw := authModule.GetMiddleware()

	app.Use(recover.New())
	app.Use(mw.RequestID(), mw.RequestContext())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		if err := container.HealthCheck(healthCtx); err != nil {
			appLogger.Errorf("Health check failed: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "UNHEALTHY",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status":    "HEALTHY",
			"backend":   catalogCfg.Backend,
			"timestamp": time.Now().UTC(),
		})
	})

	authModule.RegisterRoutes(app)
	catalogModule.RegisterRoutes(app, mw.OptionalAuth())

	serverAddr := fmt.Sprintf("%s:%s", serverCfg.Host, serverCfg.Port)
	appLogger.Infof("Starting HTTP server on %s", serverAddr)

	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(serverAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-quit:
		appLogger.Infof("Received shutdown signal: %v", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Errorf("Server forced to shutdown: %v", err)
		}
		appLogger.Info("HTTP server stopped")
	}
	return nil
}

// startContainer opens the infrastructure and builds both modules. Whatever
// was opened is closed again when a later step fails.
func startContainer(ctx context.Context, appLogger logger.Logger, catalogCfg *catalogconfig.CatalogConfig, authCfg *authconfig.Config) (*di.Container, error) {
	container := di.NewContainer(appLogger)

	err := container.InitializeInfrastructure(ctx, catalogCfg)
	if err != nil {
		err = fmt.Errorf("failed to initialize infrastructure: %w", err)
	} else if err = container.InitializeAuth(ctx, authCfg); err != nil {
		err = fmt.Errorf("failed to initialize auth module: %w", err)
	} else if err = container.InitializeCatalog(); err != nil {
		err = fmt.Errorf("failed to initialize catalog module: %w", err)
	}
	if err != nil {
		if closeErr := container.Close(); closeErr != nil {
			appLogger.Warnf("Failed to close container after startup error: %v", closeErr)
		}
		return nil, err
	}
	return container, nil
}

func errorCode(code int) string {
	switch code {
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusRequestEntityTooLarge:
		return "payload_too_large"
	default:
		if code >= fiber.StatusInternalServerError {
			return "internal_error"
		}
		return "bad_request"
	}
}
