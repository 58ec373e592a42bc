package bolt

import (
	"context"
	"fmt"
	"time"

	"plant-shop/internal/catalog/domain/model"
	"plant-shop/internal/catalog/domain/repository"
	"plant-shop/internal/shared/logger"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	bolt "go.etcd.io/bbolt"
)

var _ repository.DocumentStore = (*DocumentStore)(nil)

var (
	json              = jsoniter.ConfigCompatibleWithStandardLibrary
	rootBucket        = []byte("collections")
	defaultOpenWindow = time.Second
)

// DocumentStore keeps each collection in a nested bbolt bucket keyed by
// time-ordered UUIDs, so a cursor walk yields insertion order.
type DocumentStore struct {
	db  *bolt.DB
	log logger.Logger
}

// Open opens (or creates) the bbolt file at path.
func Open(path string, log logger.Logger) (*DocumentStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: defaultOpenWindow})
	if err != nil {
		return nil, fmt.Errorf("open bolt store %s: %w", path, err)
	}
	return NewDocumentStore(db, log)
}

// NewDocumentStore wraps an already open database.
func NewDocumentStore(db *bolt.DB, log logger.Logger) (*DocumentStore, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("init bolt store: %w", err)
	}
	return &DocumentStore{db: db, log: log.WithComponent("bolt-document-store")}, nil
}

// DB exposes the handle so other repositories can share the file.
func (s *DocumentStore) DB() *bolt.DB {
	return s.db
}

func (s *DocumentStore) List(ctx context.Context, collection string) ([]*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs := make([]*model.Document, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(rootBucket).Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			fields := make(map[string]interface{})
			if err := json.Unmarshal(v, &fields); err != nil {
				s.log.Warnf("Skipping undecodable document %s/%s: %v", collection, k, err)
				return nil
			}
			docs = append(docs, &model.Document{ID: string(k), Fields: fields})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return docs, nil
}

func (s *DocumentStore) Add(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	payload, err := json.Marshal(model.StripID(fields))
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(rootBucket).CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}
		return b.Put([]byte(id.String()), payload)
	})
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	return id.String(), nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(rootBucket).Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Ping verifies the file is still readable.
func (s *DocumentStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(rootBucket) == nil {
			return fmt.Errorf("bolt store: missing %s bucket", rootBucket)
		}
		return nil
	})
}

// Close closes the underlying database file.
func (s *DocumentStore) Close() error {
	return s.db.Close()
}
