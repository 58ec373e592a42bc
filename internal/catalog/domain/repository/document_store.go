package repository

import (
	"context"

	"plant-shop/internal/catalog/domain/model"
)

// DocumentStore is the remote document store: named collections of schemaless
// documents supporting list-all, add-one and delete-by-id.
type DocumentStore interface {
	// List returns every document in the collection in store order. An unknown
	// collection is empty, not an error.
	List(ctx context.Context, collection string) ([]*model.Document, error)
	// Add stores fields as a new document and returns the generated id.
	Add(ctx context.Context, collection string, fields map[string]interface{}) (string, error)
	// Delete removes a document. Deleting a missing id is not an error.
	Delete(ctx context.Context, collection, id string) error
}

// HealthChecker is implemented by stores that can report connectivity.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ChangeLog persists change events so late subscribers can resume.
type ChangeLog interface {
	Append(ctx context.Context, event *model.ChangeEvent) (string, error)
	// Since returns events strictly after resumeToken; an empty token means from the start.
	Since(ctx context.Context, collection, resumeToken string) ([]*model.ChangeEvent, error)
	Trim(ctx context.Context) (int64, error)
}

// ChangeFeed delivers change events for one collection until ctx is done.
// The returned channel is closed when the subscription ends.
type ChangeFeed interface {
	Subscribe(ctx context.Context, collection string) (<-chan *model.ChangeEvent, error)
}
