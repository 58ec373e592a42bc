package memory

import (
	"context"
	"sync"

	"plant-shop/internal/catalog/domain/model"
	"plant-shop/internal/catalog/domain/repository"

	"github.com/google/uuid"
)

var _ repository.DocumentStore = (*DocumentStore)(nil)

// DocumentStore keeps collections in process memory in insertion order.
type DocumentStore struct {
	mu          sync.RWMutex
	collections map[string][]*model.Document
}

// NewDocumentStore creates an empty in-memory store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{collections: make(map[string][]*model.Document)}
}

func (s *DocumentStore) List(ctx context.Context, collection string) ([]*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.collections[collection]
	out := make([]*model.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, clone(d))
	}
	return out, nil
}

func (s *DocumentStore) Add(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc := &model.Document{ID: uuid.NewString(), Fields: model.StripID(fields)}

	s.mu.Lock()
	s.collections[collection] = append(s.collections[collection], doc)
	s.mu.Unlock()

	return doc.ID, nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	for i, d := range docs {
		if d.ID == id {
			s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return nil
		}
	}
	return nil
}

// Ping always succeeds.
func (s *DocumentStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func clone(d *model.Document) *model.Document {
	fields := make(map[string]interface{}, len(d.Fields))
	for k, v := range d.Fields {
		fields[k] = v
	}
	return &model.Document{ID: d.ID, Fields: fields}
}
