package remote

import (
	"context"
	"net/url"

	"plant-shop/internal/catalog/domain/model"
	"plant-shop/internal/catalog/domain/repository"

	"github.com/gofiber/fiber/v2"
)

var _ repository.DocumentStore = (*DocumentStore)(nil)

// DocumentStore reaches the server's /api/collections transport.
type DocumentStore struct {
	client *Client
}

// NewDocumentStore creates a DocumentStore backed by client.
func NewDocumentStore(client *Client) *DocumentStore {
	return &DocumentStore{client: client}
}

func (s *DocumentStore) collectionURL(collection string) string {
	return s.client.baseURL + "/api/collections/" + url.PathEscape(collection)
}

// List fetches all documents and splits the flat "id" back out of each one.
func (s *DocumentStore) List(ctx context.Context, collection string) ([]*model.Document, error) {
	status, body, err := s.client.do(ctx, fiber.Get(s.collectionURL(collection)))
	if err != nil {
		return nil, err
	}
	if status != fiber.StatusOK {
		return nil, decodeError(status, body)
	}

	var flat []map[string]interface{}
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, err
	}

	docs := make([]*model.Document, 0, len(flat))
	for _, f := range flat {
		id, _ := f[model.FieldID].(string)
		docs = append(docs, &model.Document{ID: id, Fields: model.StripID(f)})
	}
	return docs, nil
}

func (s *DocumentStore) Add(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	payload, err := json.Marshal(model.StripID(fields))
	if err != nil {
		return "", err
	}

	a := fiber.Post(s.collectionURL(collection))
	a.ContentType(fiber.MIMEApplicationJSON)
	a.Body(payload)

	status, body, err := s.client.do(ctx, a)
	if err != nil {
		return "", err
	}
	if status != fiber.StatusCreated {
		return "", decodeError(status, body)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", err
	}
	s.client.log.Debugf("Added document %s to %s", created.ID, collection)
	return created.ID, nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	status, body, err := s.client.do(ctx, fiber.Delete(s.collectionURL(collection)+"/"+url.PathEscape(id)))
	if err != nil {
		return err
	}
	if status != fiber.StatusNoContent && status != fiber.StatusOK {
		return decodeError(status, body)
	}
	return nil
}

// Ping checks the server's health endpoint.
func (s *DocumentStore) Ping(ctx context.Context) error {
	status, body, err := s.client.do(ctx, fiber.Get(s.client.baseURL+"/health"))
	if err != nil {
		return err
	}
	if status != fiber.StatusOK {
		return decodeError(status, body)
	}
	return nil
}
