package usecase

import (
	"context"
	"sync"
	"time"

	"plant-shop/internal/catalog/domain/model"
	"plant-shop/internal/catalog/domain/repository"
	"plant-shop/internal/shared/errors"
	"plant-shop/internal/shared/eventbus"
	"plant-shop/internal/shared/logger"
	"plant-shop/internal/shared/utils"
)

const eventSource = "catalog"

// CollectionUsecase exposes the document store operations to the transports.
type CollectionUsecase interface {
	ListDocuments(ctx context.Context, collection string) ([]*model.Document, error)
	AddDocument(ctx context.Context, collection string, fields map[string]interface{}) (string, error)
	DeleteDocument(ctx context.Context, collection, id string) error
	ChangesSince(ctx context.Context, collection, resumeToken string) ([]*model.ChangeEvent, error)
	repository.ChangeFeed
}

type collectionUsecase struct {
	store      repository.DocumentStore
	changeLog  repository.ChangeLog
	bus        eventbus.EventBusInterface
	logger     logger.Logger
	feedBuffer int
}

// NewCollectionUsecase wires the store with the event bus. changeLog may be nil.
func NewCollectionUsecase(
	store repository.DocumentStore,
	changeLog repository.ChangeLog,
	bus eventbus.EventBusInterface,
	feedBuffer int,
	log logger.Logger,
) CollectionUsecase {
	if feedBuffer <= 0 {
		feedBuffer = 32
	}
	return &collectionUsecase{
		store:      store,
		changeLog:  changeLog,
		bus:        bus,
		logger:     log.WithComponent("collection-usecase"),
		feedBuffer: feedBuffer,
	}
}

func (uc *collectionUsecase) ListDocuments(ctx context.Context, collection string) ([]*model.Document, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	ctx = utils.WithCollection(ctx, collection)

	docs, err := uc.store.List(ctx, collection)
	if err != nil {
		uc.logger.WithContext(ctx).Errorf("Failed to list documents: %v", err)
		return nil, errors.NewStoreUnavailableError("failed to list "+collection, err).WithComponent(eventSource)
	}
	if docs == nil {
		docs = []*model.Document{}
	}
	return docs, nil
}

func (uc *collectionUsecase) AddDocument(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	if err := validateCollection(collection); err != nil {
		return "", err
	}
	ctx = utils.WithCollection(ctx, collection)
	fields = model.StripID(fields)

	id, err := uc.store.Add(ctx, collection, fields)
	if err != nil {
		uc.logger.WithContext(ctx).Errorf("Failed to add document: %v", err)
		return "", errors.NewWriteFailedError("failed to add to "+collection, err).WithComponent(eventSource)
	}

	uc.logger.WithContext(ctx).WithFields(map[string]interface{}{"documentId": id}).Info("Document created")
	uc.publish(ctx, &model.ChangeEvent{
		Type:       model.ChangeCreated,
		Collection: collection,
		DocumentID: id,
		Data:       fields,
		Timestamp:  time.Now().UTC(),
	})
	return id, nil
}

func (uc *collectionUsecase) DeleteDocument(ctx context.Context, collection, id string) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if id == "" {
		return errors.NewValidationError("document id is required")
	}
	ctx = utils.WithCollection(ctx, collection)

	if err := uc.store.Delete(ctx, collection, id); err != nil {
		uc.logger.WithContext(ctx).Errorf("Failed to delete document %s: %v", id, err)
		return errors.NewWriteFailedError("failed to delete from "+collection, err).WithComponent(eventSource)
	}

	uc.logger.WithContext(ctx).WithFields(map[string]interface{}{"documentId": id}).Info("Document deleted")
	uc.publish(ctx, &model.ChangeEvent{
		Type:       model.ChangeDeleted,
		Collection: collection,
		DocumentID: id,
		Timestamp:  time.Now().UTC(),
	})
	return nil
}

// ChangesSince replays logged events after resumeToken. Without a change log there is nothing to replay.
func (uc *collectionUsecase) ChangesSince(ctx context.Context, collection, resumeToken string) ([]*model.ChangeEvent, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	if uc.changeLog == nil {
		return []*model.ChangeEvent{}, nil
	}
	events, err := uc.changeLog.Since(ctx, collection, resumeToken)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("failed to replay changes for "+collection, err).WithComponent(eventSource)
	}
	return events, nil
}

// Subscribe streams live change events for collection until ctx is done.
// Events are dropped for a subscriber whose buffer is full. Its buffer then
// still holds later events, and the reload they trigger includes the dropped change.
func (uc *collectionUsecase) Subscribe(ctx context.Context, collection string) (<-chan *model.ChangeEvent, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}

	out := make(chan *model.ChangeEvent, uc.feedBuffer)
	var (
		mu     sync.Mutex
		closed bool
	)

	handler := func(_ context.Context, event eventbus.Event) error {
		change, ok := event.Data().(*model.ChangeEvent)
		if !ok || change.Collection != collection {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return nil
		}
		select {
		case out <- change:
		default:
			uc.logger.Warnf("Dropping %s event for slow %s subscriber", change.Type, collection)
		}
		return nil
	}

	cancelCreated := uc.bus.Subscribe(eventbus.EventTypeDocumentCreated, handler)
	cancelDeleted := uc.bus.Subscribe(eventbus.EventTypeDocumentDeleted, handler)

	go func() {
		<-ctx.Done()
		cancelCreated()
		cancelDeleted()
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()

	return out, nil
}

// publish records the event in the change log, when configured, then fans it out on the bus.
func (uc *collectionUsecase) publish(ctx context.Context, change *model.ChangeEvent) {
	if uc.changeLog != nil {
		token, err := uc.changeLog.Append(ctx, change)
		if err != nil {
			uc.logger.WithContext(ctx).Warnf("Change not recorded in change log: %v", err)
		} else {
			change.ResumeToken = token
		}
	}

	eventType := eventbus.EventTypeDocumentCreated
	if change.Type == model.ChangeDeleted {
		eventType = eventbus.EventTypeDocumentDeleted
	}
	uc.bus.PublishAndForget(ctx, eventbus.NewBasicEventWithSource(eventType, change, eventSource))
}

func validateCollection(collection string) error {
	if !model.ValidCollectionName(collection) {
		return errors.NewValidationError("invalid collection name").
			WithCause(errors.ErrInvalidCollectionID).
			WithDetail("collection", collection)
	}
	return nil
}
