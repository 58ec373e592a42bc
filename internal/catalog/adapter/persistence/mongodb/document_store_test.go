package mongodb_test

import (
	"context"
	"testing"
	"time"

	"plant-shop/internal/catalog/adapter/persistence/mongodb"
	"plant-shop/internal/shared/logger"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DocumentStoreTestSuite struct {
	suite.Suite
	client   *mongo.Client
	database *mongo.Database
	store    *mongodb.DocumentStore
}

func (s *DocumentStoreTestSuite) SetupSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI("mongodb://localhost:27017").
		SetServerSelectionTimeout(2*time.Second))
	if err != nil {
		s.T().Skip("MongoDB not available for testing")
		return
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		s.T().Skip("MongoDB not available for testing")
		return
	}

	s.client = client
	s.database = client.Database("plant_shop_test")
	s.store = mongodb.NewDocumentStore(s.database, logger.NewNopLogger())
}

func (s *DocumentStoreTestSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.database.Drop(context.Background())
		_ = s.client.Disconnect(context.Background())
	}
}

func (s *DocumentStoreTestSuite) SetupTest() {
	if s.database != nil {
		_ = s.database.Collection("products").Drop(context.Background())
	}
}

func (s *DocumentStoreTestSuite) TestListEmptyCollection() {
	docs, err := s.store.List(context.Background(), "products")
	s.Require().NoError(err)
	s.NotNil(docs)
	s.Empty(docs)
}

func (s *DocumentStoreTestSuite) TestAddListDelete() {
	ctx := context.Background()

	id1, err := s.store.Add(ctx, "products", map[string]interface{}{
		"name":  "Monstera",
		"price": 19.5,
		"id":    "client-supplied",
		"care":  map[string]interface{}{"light": "indirect"},
	})
	s.Require().NoError(err)
	id2, err := s.store.Add(ctx, "products", map[string]interface{}{"name": "Cactus", "price": 4})
	s.Require().NoError(err)

	docs, err := s.store.List(ctx, "products")
	s.Require().NoError(err)
	s.Require().Len(docs, 2)
	s.Equal(id1, docs[0].ID)
	s.Equal(id2, docs[1].ID)
	s.Equal("Monstera", docs[0].Fields["name"])
	s.NotContains(docs[0].Fields, "id")
	s.Equal(map[string]interface{}{"light": "indirect"}, docs[0].Fields["care"])

	s.Require().NoError(s.store.Delete(ctx, "products", id1))
	s.Require().NoError(s.store.Delete(ctx, "products", "not-an-object-id"))

	docs, err = s.store.List(ctx, "products")
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal(id2, docs[0].ID)
}

func (s *DocumentStoreTestSuite) TestPing() {
	s.NoError(s.store.Ping(context.Background()))
}

func TestDocumentStoreTestSuite(t *testing.T) {
	suite.Run(t, new(DocumentStoreTestSuite))
}
