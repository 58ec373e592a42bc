package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	authconfig "plant-shop/internal/auth/config"
	catalogconfig "plant-shop/internal/catalog/config"
	"plant-shop/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func TestStartContainer_ReleasesStoreWhenAuthFails(t *testing.T) {
	catalogCfg := catalogconfig.DefaultCatalogConfig()
	catalogCfg.Backend = catalogconfig.BackendBolt
	catalogCfg.BoltPath = filepath.Join(t.TempDir(), "shop.db")

	// no JWT secret, so the auth module cannot be built
	container, err := startContainer(context.Background(), logger.NewNopLogger(), catalogCfg, &authconfig.Config{})
	require.Error(t, err)
	assert.Nil(t, container)
	assert.Contains(t, err.Error(), "auth module")

	db, err := bolt.Open(catalogCfg.BoltPath, 0o600, &bolt.Options{Timeout: 200 * time.Millisecond})
	require.NoError(t, err, "bolt file still locked by the failed startup")
	require.NoError(t, db.Close())
}

func TestStartContainer_Memory(t *testing.T) {
	catalogCfg := catalogconfig.DefaultCatalogConfig()
	catalogCfg.Backend = catalogconfig.BackendMemory
	authCfg := &authconfig.Config{JWTSecretKey: "main-test-secret"}
	require.NoError(t, authCfg.Validate())

	container, err := startContainer(context.Background(), logger.NewNopLogger(), catalogCfg, authCfg)
	require.NoError(t, err)
	assert.NotNil(t, container.GetAuthModule())
	assert.NotNil(t, container.GetCatalogModule())
	assert.NoError(t, container.Close())
}
