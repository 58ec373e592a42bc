package mongodb

import (
	"context"
	"fmt"
	"time"

	"plant-shop/internal/catalog/domain/model"
	"plant-shop/internal/catalog/domain/repository"
	"plant-shop/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repository.DocumentStore = (*DocumentStore)(nil)

// mongoDocument is the stored shape of a catalog document.
type mongoDocument struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty"`
	Fields     map[string]interface{} `bson:"fields"`
	CreateTime time.Time              `bson:"createTime"`
}

// DocumentStore maps each catalog collection to a MongoDB collection of the same name.
type DocumentStore struct {
	db  *mongo.Database
	log logger.Logger
}

// NewDocumentStore creates a DocumentStore on db.
func NewDocumentStore(db *mongo.Database, log logger.Logger) *DocumentStore {
	return &DocumentStore{db: db, log: log.WithComponent("mongodb-document-store")}
}

// List returns all documents in insertion order.
func (s *DocumentStore) List(ctx context.Context, collection string) ([]*model.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	docs := make([]*model.Document, 0)
	for cursor.Next(ctx) {
		var md mongoDocument
		if err := cursor.Decode(&md); err != nil {
			s.log.Warnf("Skipping undecodable document in %s: %v", collection, err)
			continue
		}
		docs = append(docs, &model.Document{ID: md.ID.Hex(), Fields: normalize(md.Fields)})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", collection, err)
	}
	return docs, nil
}

// Add inserts fields as a new document and returns its ObjectID in hex.
func (s *DocumentStore) Add(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	md := mongoDocument{
		ID:         primitive.NewObjectID(),
		Fields:     model.StripID(fields),
		CreateTime: time.Now().UTC(),
	}
	if _, err := s.db.Collection(collection).InsertOne(ctx, md); err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	s.log.Debugf("Inserted document %s into %s", md.ID.Hex(), collection)
	return md.ID.Hex(), nil
}

// Delete removes the document with id. Ids that are not valid ObjectIDs cannot exist and are ignored.
func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Ping checks connectivity to the server.
func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// normalize converts driver-specific nested types into plain maps and slices
// so documents encode to JSON the same way from every backend.
func normalize(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case bson.M:
		return normalize(val)
	case map[string]interface{}:
		return normalize(val)
	case bson.D:
		m := make(map[string]interface{}, len(val))
		for _, e := range val {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	case bson.A:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = normalizeValue(e)
		}
		return out
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC()
	default:
		return v
	}
}
