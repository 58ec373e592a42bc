package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"plant-shop/internal/catalog/adapter/persistence/memory"
	"plant-shop/internal/catalog/domain/model"
	. "plant-shop/internal/catalog/usecase"
	"plant-shop/internal/shared/contextkeys"
	apperrors "plant-shop/internal/shared/errors"
	"plant-shop/internal/shared/eventbus"
	"plant-shop/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	err error
}

func (s *failingStore) List(ctx context.Context, collection string) ([]*model.Document, error) {
	return nil, s.err
}

func (s *failingStore) Add(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	return "", s.err
}

func (s *failingStore) Delete(ctx context.Context, collection, id string) error {
	return s.err
}

// recordingStore remembers the collection carried by each call's context.
type recordingStore struct {
	*memory.DocumentStore
	seen []interface{}
}

func (s *recordingStore) List(ctx context.Context, collection string) ([]*model.Document, error) {
	s.seen = append(s.seen, ctx.Value(contextkeys.CollectionKey))
	return s.DocumentStore.List(ctx, collection)
}

func (s *recordingStore) Add(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	s.seen = append(s.seen, ctx.Value(contextkeys.CollectionKey))
	return s.DocumentStore.Add(ctx, collection, fields)
}

func (s *recordingStore) Delete(ctx context.Context, collection, id string) error {
	s.seen = append(s.seen, ctx.Value(contextkeys.CollectionKey))
	return s.DocumentStore.Delete(ctx, collection, id)
}

type mockChangeLog struct {
	mock.Mock
}

func (m *mockChangeLog) Append(ctx context.Context, event *model.ChangeEvent) (string, error) {
	args := m.Called(ctx, event)
	return args.String(0), args.Error(1)
}

func (m *mockChangeLog) Since(ctx context.Context, collection, resumeToken string) ([]*model.ChangeEvent, error) {
	args := m.Called(ctx, collection, resumeToken)
	events, _ := args.Get(0).([]*model.ChangeEvent)
	return events, args.Error(1)
}

func (m *mockChangeLog) Trim(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func newUsecase(t *testing.T) (CollectionUsecase, *eventbus.EventBus) {
	t.Helper()
	bus := eventbus.NewEventBus(logger.NewNopLogger())
	return NewCollectionUsecase(memory.NewDocumentStore(), nil, bus, 8, logger.NewNopLogger()), bus
}

func TestCollectionUsecase_ContextCarriesCollection(t *testing.T) {
	store := &recordingStore{DocumentStore: memory.NewDocumentStore()}
	uc := NewCollectionUsecase(store, nil, eventbus.NewEventBus(logger.NewNopLogger()), 8, logger.NewNopLogger())
	ctx := context.Background()

	id, err := uc.AddDocument(ctx, model.CollectionCategories, map[string]interface{}{"name": "Herbs", "value": "herb"})
	require.NoError(t, err)
	_, err = uc.ListDocuments(ctx, model.CollectionCategories)
	require.NoError(t, err)
	require.NoError(t, uc.DeleteDocument(ctx, model.CollectionCategories, id))

	assert.Equal(t, []interface{}{model.CollectionCategories, model.CollectionCategories, model.CollectionCategories}, store.seen)
}

func TestCollectionUsecase_ListEmpty(t *testing.T) {
	uc, _ := newUsecase(t)
	docs, err := uc.ListDocuments(context.Background(), model.CollectionProducts)
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestCollectionUsecase_AddThenDelete(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUsecase(t)

	id, err := uc.AddDocument(ctx, model.CollectionCategories, map[string]interface{}{"name": "Indoor", "value": "indoor", "id": "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	docs, err := uc.ListDocuments(ctx, model.CollectionCategories)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].ID)

	require.NoError(t, uc.DeleteDocument(ctx, model.CollectionCategories, id))
	require.NoError(t, uc.DeleteDocument(ctx, model.CollectionCategories, id), "deleting twice is not an error")

	docs, err = uc.ListDocuments(ctx, model.CollectionCategories)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestCollectionUsecase_InvalidCollection(t *testing.T) {
	uc, _ := newUsecase(t)

	_, err := uc.ListDocuments(context.Background(), "../etc")
	assert.True(t, apperrors.IsValidation(err))
	assert.ErrorIs(t, err, apperrors.ErrInvalidCollectionID)

	_, err = uc.AddDocument(context.Background(), "", map[string]interface{}{})
	assert.True(t, apperrors.IsValidation(err))

	err = uc.DeleteDocument(context.Background(), model.CollectionProducts, "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestCollectionUsecase_StoreFailuresAreTyped(t *testing.T) {
	cause := errors.New("connection refused")
	bus := eventbus.NewEventBus(nil)
	uc := NewCollectionUsecase(&failingStore{err: cause}, nil, bus, 0, logger.NewNopLogger())
	ctx := context.Background()

	_, err := uc.ListDocuments(ctx, model.CollectionProducts)
	assert.True(t, apperrors.IsStoreUnavailable(err))
	assert.ErrorIs(t, err, cause)

	_, err = uc.AddDocument(ctx, model.CollectionProducts, map[string]interface{}{"name": "Fern"})
	assert.True(t, apperrors.IsWriteFailed(err))

	err = uc.DeleteDocument(ctx, model.CollectionProducts, "p1")
	assert.True(t, apperrors.IsWriteFailed(err))
}

func TestCollectionUsecase_SubscribeReceivesOwnCollectionOnly(t *testing.T) {
	uc, _ := newUsecase(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := uc.Subscribe(ctx, model.CollectionProducts)
	require.NoError(t, err)

	_, err = uc.AddDocument(context.Background(), model.CollectionCategories, map[string]interface{}{"name": "Outdoor"})
	require.NoError(t, err)
	id, err := uc.AddDocument(context.Background(), model.CollectionProducts, map[string]interface{}{"name": "Fern"})
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, model.ChangeCreated, ev.Type)
		assert.Equal(t, model.CollectionProducts, ev.Collection)
		assert.Equal(t, id, ev.DocumentID)
		assert.Equal(t, "Fern", ev.Data["name"])
	case <-time.After(time.Second):
		t.Fatal("no change event delivered")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-events
		return !open
	}, time.Second, 10*time.Millisecond)
}

func TestCollectionUsecase_ChangeLogTokens(t *testing.T) {
	changeLog := &mockChangeLog{}
	changeLog.On("Append", mock.Anything, mock.AnythingOfType("*model.ChangeEvent")).Return("1700000000000-0", nil)
	changeLog.On("Since", mock.Anything, model.CollectionProducts, "1-0").
		Return([]*model.ChangeEvent{{Type: model.ChangeDeleted, Collection: model.CollectionProducts, DocumentID: "p9"}}, nil)

	bus := eventbus.NewEventBus(nil)
	uc := NewCollectionUsecase(memory.NewDocumentStore(), changeLog, bus, 4, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := uc.Subscribe(ctx, model.CollectionProducts)
	require.NoError(t, err)

	_, err = uc.AddDocument(context.Background(), model.CollectionProducts, map[string]interface{}{"name": "Fern"})
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, "1700000000000-0", ev.ResumeToken)
	case <-time.After(time.Second):
		t.Fatal("no change event delivered")
	}

	replay, err := uc.ChangesSince(context.Background(), model.CollectionProducts, "1-0")
	require.NoError(t, err)
	require.Len(t, replay, 1)
	assert.Equal(t, "p9", replay[0].DocumentID)
	changeLog.AssertExpectations(t)
}

func TestCollectionUsecase_ChangeLogFailureDoesNotFailWrite(t *testing.T) {
	changeLog := &mockChangeLog{}
	changeLog.On("Append", mock.Anything, mock.Anything).Return("", errors.New("redis down"))

	uc := NewCollectionUsecase(memory.NewDocumentStore(), changeLog, eventbus.NewEventBus(nil), 4, logger.NewNopLogger())
	id, err := uc.AddDocument(context.Background(), model.CollectionProducts, map[string]interface{}{"name": "Fern"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestCollectionUsecase_ChangesSinceWithoutLog(t *testing.T) {
	uc, _ := newUsecase(t)
	events, err := uc.ChangesSince(context.Background(), model.CollectionProducts, "")
	require.NoError(t, err)
	assert.Empty(t, events)
}
