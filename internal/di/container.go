package di

import (
	"context"
	"fmt"
	"sync"
	"time"

	"plant-shop/internal/auth"
	authconfig "plant-shop/internal/auth/config"
	"plant-shop/internal/catalog"
	catalogconfig "plant-shop/internal/catalog/config"
	"plant-shop/internal/shared/eventbus"
	"plant-shop/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	bolt "go.etcd.io/bbolt"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

const (
	mongoConnectTimeout = 30 * time.Second
	boltOpenTimeout     = 5 * time.Second
)

// Container owns the shared connections and the modules built on them.
type Container struct {
	mu sync.RWMutex
	// Module instances
	AuthModule    *auth.AuthModule
	CatalogModule *catalog.CatalogModule
	// Connections; only those the configured backend needs are opened
	MongoClient *mongo.Client
	MongoDB     *mongo.Database
	BoltDB      *bolt.DB
	Redis       *redis.Client
	// Shared components
	Bus    *eventbus.EventBus
	Logger logger.Logger
	// Configuration
	CatalogConfig *catalogconfig.CatalogConfig
	AuthConfig    *authconfig.Config
}

// NewContainer creates an empty container.
func NewContainer(log logger.Logger) *Container {
	if log == nil {
		log = logger.NewLogger()
	}
	return &Container{
		Logger: log,
		Bus:    eventbus.NewEventBus(log),
	}
}

// InitializeInfrastructure opens the connections for cfg.Backend and Redis
// when it is enabled. A Redis that cannot be reached is logged and skipped.
func (c *Container) InitializeInfrastructure(ctx context.Context, cfg *catalogconfig.CatalogConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.CatalogConfig = cfg

	switch cfg.Backend {
	case catalogconfig.BackendMongoDB:
		connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
		defer cancel()

		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoDBURI))
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return fmt.Errorf("failed to ping MongoDB: %w", err)
		}
		c.MongoClient = client
		c.MongoDB = client.Database(cfg.DatabaseName)
		c.Logger.Infof("MongoDB connection established (database %s)", cfg.DatabaseName)
	case catalogconfig.BackendBolt:
		db, err := bolt.Open(cfg.BoltPath, 0o600, &bolt.Options{Timeout: boltOpenTimeout})
		if err != nil {
			return fmt.Errorf("failed to open bolt database %s: %w", cfg.BoltPath, err)
		}
		c.BoltDB = db
		c.Logger.Infof("Bolt database opened at %s", cfg.BoltPath)
	case catalogconfig.BackendMemory:
		c.Logger.Warn("Using in-memory storage, data is lost on restart")
	default:
		return fmt.Errorf("unsupported backend %q", cfg.Backend)
	}

	if cfg.Redis.Enabled {
		client := catalogconfig.NewRedisClient(&cfg.Redis)
		if err := client.Ping(ctx).Err(); err != nil {
			c.Logger.Warnf("Redis at %s unreachable, change log disabled: %v", cfg.Redis.GetAddr(), err)
			_ = client.Close()
		} else {
			c.Redis = client
			c.Logger.Infof("Redis connection established at %s", cfg.Redis.GetAddr())
		}
	}
	return nil
}

// InitializeAuth builds the auth module on the configured backend.
func (c *Container) InitializeAuth(ctx context.Context, cfg *authconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.CatalogConfig == nil {
		return fmt.Errorf("infrastructure must be initialized before the auth module")
	}
	c.AuthConfig = cfg

	authModule, err := auth.NewAuthModule(ctx, cfg, auth.Dependencies{
		Backend: c.CatalogConfig.Backend,
		MongoDB: c.MongoDB,
		BoltDB:  c.BoltDB,
		Bus:     c.Bus,
		Logger:  c.Logger.WithComponent("auth"),
	})
	if err != nil {
		return fmt.Errorf("failed to create auth module: %w", err)
	}
	c.AuthModule = authModule
	return nil
}

// InitializeCatalog builds the document store service and starts its jobs.
func (c *Container) InitializeCatalog() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.CatalogConfig == nil {
		return fmt.Errorf("infrastructure must be initialized before the catalog module")
	}

	catalogModule, err := catalog.NewCatalogModule(c.CatalogConfig, catalog.Dependencies{
		MongoDB: c.MongoDB,
		BoltDB:  c.BoltDB,
		Redis:   c.Redis,
		Bus:     c.Bus,
		Logger:  c.Logger.WithComponent("catalog"),
	})
	if err != nil {
		return fmt.Errorf("failed to create catalog module: %w", err)
	}
	catalogModule.Start()
	c.CatalogModule = catalogModule
	return nil
}

// GetAuthModule returns the auth module instance
func (c *Container) GetAuthModule() *auth.AuthModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.AuthModule
}

// GetCatalogModule returns the catalog module instance
func (c *Container) GetCatalogModule() *catalog.CatalogModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.CatalogModule
}

// HealthCheck pings every open connection concurrently and returns the first failure.
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)

	if c.CatalogModule != nil {
		g.Go(func() error {
			if err := c.CatalogModule.HealthCheck(gctx); err != nil {
				return fmt.Errorf("document store health check failed: %w", err)
			}
			return nil
		})
	}
	if c.Redis != nil {
		g.Go(func() error {
			if err := c.Redis.Ping(gctx).Err(); err != nil {
				return fmt.Errorf("Redis health check failed: %w", err)
			}
			return nil
		})
	}
	if c.BoltDB != nil {
		g.Go(func() error {
			if err := c.BoltDB.View(func(*bolt.Tx) error { return nil }); err != nil {
				return fmt.Errorf("bolt health check failed: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// Cleanup stops modules in reverse order of initialization, then closes connections.
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error

	if c.CatalogModule != nil {
		if err := c.CatalogModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop catalog module: %w", err))
		}
		c.CatalogModule = nil
	}
	if c.AuthModule != nil {
		if err := c.AuthModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop auth module: %w", err))
		}
		c.AuthModule = nil
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
		c.Redis = nil
	}
	if c.BoltDB != nil {
		if err := c.BoltDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close bolt database: %w", err))
		}
		c.BoltDB = nil
	}
	if c.MongoClient != nil {
		if err := c.MongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to disconnect MongoDB: %w", err))
		}
		c.MongoClient = nil
		c.MongoDB = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// Close gracefully shuts down all services in the container with timeout
func (c *Container) Close() error {
	c.Logger.Info("Closing container resources...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Cleanup(ctx); err != nil {
		c.Logger.Warnf("Cleanup errors occurred: %v", err)
		return err
	}

	c.Logger.Info("Container resources closed")
	return nil
}
