package catalog

import (
	"context"
	"fmt"

	httpadapter "plant-shop/internal/catalog/adapter/http"
	"plant-shop/internal/catalog/adapter/persistence"
	boltpersistence "plant-shop/internal/catalog/adapter/persistence/bolt"
	"plant-shop/internal/catalog/adapter/persistence/memory"
	mongodbpersistence "plant-shop/internal/catalog/adapter/persistence/mongodb"
	"plant-shop/internal/catalog/config"
	"plant-shop/internal/catalog/domain/repository"
	"plant-shop/internal/catalog/usecase"
	"plant-shop/internal/shared/eventbus"
	"plant-shop/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	bolt "go.etcd.io/bbolt"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies are the shared connections the catalog can run on. Only the one
// matching the configured backend needs to be set; Redis is optional.
type Dependencies struct {
	MongoDB *mongo.Database
	BoltDB  *bolt.DB
	Redis   *redis.Client
	Bus     *eventbus.EventBus
	Logger  logger.Logger
}

// CatalogModule is the document store service: storage, change feed and HTTP transports.
type CatalogModule struct {
	Config            *config.CatalogConfig
	Store             repository.DocumentStore
	ChangeLog         repository.ChangeLog
	CollectionUsecase usecase.CollectionUsecase
	Logger            logger.Logger

	productHandler    *httpadapter.ProductHandler
	collectionHandler *httpadapter.CollectionHandler
	wsHandler         *httpadapter.WebSocketHandler
	janitor           *persistence.ChangeLogJanitor
}

// NewCatalogModule builds the module for cfg.Backend.
func NewCatalogModule(cfg *config.CatalogConfig, deps Dependencies) (*CatalogModule, error) {
	if cfg == nil {
		cfg = config.DefaultCatalogConfig()
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	bus := deps.Bus
	if bus == nil {
		bus = eventbus.NewEventBus(log)
	}
	log.Infof("Initializing catalog module with %s backend...", cfg.Backend)

	store, err := newStore(cfg, deps, log)
	if err != nil {
		return nil, err
	}

	m := &CatalogModule{Config: cfg, Store: store, Logger: log}

	if deps.Redis != nil {
		changeLog := persistence.NewRedisChangeLog(deps.Redis, cfg.Realtime.ChangeLogMaxLen, log)
		janitor, err := persistence.NewChangeLogJanitor(changeLog, cfg.Realtime.ChangeLogTrimSchedule, log)
		if err != nil {
			return nil, err
		}
		m.ChangeLog = changeLog
		m.janitor = janitor
		log.Info("Redis change log enabled")
	}

	m.CollectionUsecase = usecase.NewCollectionUsecase(store, m.ChangeLog, bus, cfg.Realtime.ClientSendChannelBuffer, log)
	m.productHandler = httpadapter.NewProductHandler(m.CollectionUsecase, log)
	m.collectionHandler = httpadapter.NewCollectionHandler(m.CollectionUsecase, log)
	m.wsHandler = httpadapter.NewWebSocketHandler(m.CollectionUsecase, log)

	log.Info("Catalog module initialized")
	return m, nil
}

func newStore(cfg *config.CatalogConfig, deps Dependencies, log logger.Logger) (repository.DocumentStore, error) {
	switch cfg.Backend {
	case config.BackendMongoDB:
		if deps.MongoDB == nil {
			return nil, fmt.Errorf("catalog: mongodb backend selected but no database provided")
		}
		return mongodbpersistence.NewDocumentStore(deps.MongoDB, log), nil
	case config.BackendBolt:
		if deps.BoltDB == nil {
			return nil, fmt.Errorf("catalog: bolt backend selected but no database provided")
		}
		return boltpersistence.NewDocumentStore(deps.BoltDB, log)
	case config.BackendMemory:
		return memory.NewDocumentStore(), nil
	default:
		return nil, fmt.Errorf("catalog: unsupported backend %q", cfg.Backend)
	}
}

// RegisterRoutes mounts the products facade, the collection transport and the change feed.
// Middlewares guard the collection and websocket routes.
func (m *CatalogModule) RegisterRoutes(router fiber.Router, middlewares ...fiber.Handler) {
	m.productHandler.RegisterRoutes(router)
	m.collectionHandler.RegisterRoutes(router, middlewares...)

	m.wsHandler.RegisterRoutes(router.Group(m.Config.Realtime.WebSocketPrefix, middlewares...))
}

// Start launches background jobs.
func (m *CatalogModule) Start() {
	if m.janitor != nil {
		m.janitor.Start()
	}
}

// HealthCheck pings the store when it supports it.
func (m *CatalogModule) HealthCheck(ctx context.Context) error {
	if hc, ok := m.Store.(repository.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}

// Stop halts background jobs.
func (m *CatalogModule) Stop() error {
	if m.janitor != nil {
		m.janitor.Stop()
	}
	return nil
}
