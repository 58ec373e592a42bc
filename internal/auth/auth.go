package auth

import (
	"context"
	"fmt"
	"time"

	"plant-shop/internal/auth/adapter/federated"
	authhttp "plant-shop/internal/auth/adapter/http"
	boltpersistence "plant-shop/internal/auth/adapter/persistence/bolt"
	"plant-shop/internal/auth/adapter/persistence/memory"
	"plant-shop/internal/auth/adapter/persistence/mongodb"
	"plant-shop/internal/auth/adapter/security"
	"plant-shop/internal/auth/config"
	"plant-shop/internal/auth/domain/repository"
	"plant-shop/internal/auth/usecase"
	"plant-shop/internal/shared/eventbus"
	"plant-shop/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	bolt "go.etcd.io/bbolt"
	"go.mongodb.org/mongo-driver/mongo"
)

// Storage backends for users; they mirror the catalog's STORE_BACKEND values.
const (
	BackendMongoDB = "mongodb"
	BackendBolt    = "bolt"
	BackendMemory  = "memory"
)

// Dependencies are the shared connections the auth module can store users in.
type Dependencies struct {
	Backend string
	MongoDB *mongo.Database
	BoltDB  *bolt.DB
	Bus     eventbus.EventBusInterface
	Logger  logger.Logger
}

// AuthModule represents the complete authentication module
type AuthModule struct {
	repository repository.UserRepository
	tokenSvc   repository.TokenService
	usecase    usecase.AuthUsecaseInterface
	handler    *authhttp.AuthHTTPHandler
	middleware *authhttp.AuthMiddleware
	config     *config.Config
}

// NewAuthModule creates a new authentication module instance
func NewAuthModule(ctx context.Context, cfg *config.Config, deps Dependencies) (*AuthModule, error) {
	log := deps.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	users, err := newUserRepository(ctx, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to create user repository: %w", err)
	}

	tokenSvc, err := security.NewJWTokenService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	var providers []repository.FederatedProvider
	if cfg.Google.Enabled() {
		providers = append(providers, federated.NewGoogleProvider(
			cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.CallbackURL("google")))
		log.Info("Google federated sign-in enabled")
	}

	authUsecase := usecase.NewAuthUsecase(users, tokenSvc, deps.Bus, cfg, log, providers...)

	handler := authhttp.NewAuthHTTPHandler(authUsecase, authhttp.CookieSettings{
		Name:     cfg.CookieName,
		Path:     cfg.CookiePath,
		Domain:   cfg.CookieDomain,
		MaxAge:   int(cfg.AccessTokenTTL.Seconds()),
		Secure:   cfg.CookieSecure,
		HTTPOnly: cfg.CookieHTTPOnly,
		SameSite: cfg.CookieSameSite,
	}, log)

	return &AuthModule{
		repository: users,
		tokenSvc:   tokenSvc,
		usecase:    authUsecase,
		handler:    handler,
		middleware: authhttp.NewAuthMiddleware(authUsecase, cfg.CookieName),
		config:     cfg,
	}, nil
}

func newUserRepository(ctx context.Context, deps Dependencies) (repository.UserRepository, error) {
	switch deps.Backend {
	case BackendMongoDB, "":
		if deps.MongoDB == nil {
			return nil, fmt.Errorf("mongodb backend selected but no database provided")
		}
		return mongodb.NewUserRepository(ctx, deps.MongoDB)
	case BackendBolt:
		if deps.BoltDB == nil {
			return nil, fmt.Errorf("bolt backend selected but no database provided")
		}
		return boltpersistence.NewUserRepository(deps.BoltDB)
	case BackendMemory:
		return memory.NewUserRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported backend %q", deps.Backend)
	}
}

// RegisterRoutes registers authentication routes with the provided router.
// Sign-up and sign-in are rate limited per client address.
func (am *AuthModule) RegisterRoutes(router fiber.Router) {
	am.handler.SetupAuthRoutesWithMiddleware(router, am.middleware, am.middleware.RateLimiter(20, time.Minute))
}

// GetUsecase returns the auth usecase for external access
func (am *AuthModule) GetUsecase() usecase.AuthUsecaseInterface {
	return am.usecase
}

// GetMiddleware returns the auth middleware
func (am *AuthModule) GetMiddleware() *authhttp.AuthMiddleware {
	return am.middleware
}

// Stop performs cleanup when the module is shut down
func (am *AuthModule) Stop() error {
	return nil
}
