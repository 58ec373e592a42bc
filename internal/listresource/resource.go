// Package listresource keeps a local, ordered view of one remote document
// collection. Every mutation is followed by a full reload; there is no local
// patching. Results of reloads that were superseded by a newer reload, or that
// finish after Close, are discarded.
package listresource

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"reflect"
	"sync"

	"plant-shop/internal/catalog/domain/model"
	"plant-shop/internal/catalog/domain/repository"
	"plant-shop/internal/shared/errors"
	"plant-shop/internal/shared/logger"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// ErrClosed is returned by operations on a resource after Close.
var ErrClosed = stderrors.New("list resource is closed")

// MutationResult is the outcome of Add or Remove. Skipped means a required
// field was blank and the store was never contacted.
type MutationResult struct {
	ID      string
	Skipped bool
}

// Resource binds a local list of T to one collection. T is a struct whose
// mapstructure tags name the document fields and whose validate tags mark the
// required ones. It is safe for concurrent use.
type Resource[T any] struct {
	store      repository.DocumentStore
	collection string
	validate   *validator.Validate
	log        logger.Logger

	mu         sync.Mutex
	items      []T
	inflight   int
	generation uint64
	closed     bool
	onChange   func([]T)
}

// New creates a resource over collection. The list starts empty.
func New[T any](store repository.DocumentStore, collection string, log logger.Logger) *Resource[T] {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Resource[T]{
		store:      store,
		collection: collection,
		validate:   newValidator(),
		log: log.WithComponent("list-resource").WithFields(map[string]interface{}{
			"collection": collection,
		}),
		items: []T{},
	}
}

// newValidator adds the "finite" tag, which rejects NaN and infinite floats
// that would not survive JSON encoding.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Float32, reflect.Float64:
			f := fl.Field().Float()
			return !math.IsInf(f, 0) && !math.IsNaN(f)
		}
		return true
	})
	return v
}

// Collection returns the bound collection name.
func (r *Resource[T]) Collection() string {
	return r.collection
}

// Reload replaces the list with the collection's current contents. On failure
// the last known list stays in place and a STORE_UNAVAILABLE error is returned.
func (r *Resource[T]) Reload(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.generation++
	gen := r.generation
	r.inflight++
	r.mu.Unlock()

	docs, err := r.store.List(ctx, r.collection)
	var items []T
	if err == nil {
		items = r.decodeAll(docs)
	}

	r.mu.Lock()
	r.inflight--

	if err != nil {
		r.log.Errorf("Reload failed, keeping %d stale items: %v", len(r.items), err)
		r.mu.Unlock()
		if errors.IsStoreUnavailable(err) {
			return err
		}
		return errors.NewStoreUnavailableError("failed to load "+r.collection, err)
	}
	if r.closed || gen != r.generation {
		r.log.Debugf("Discarding superseded reload (generation %d, current %d)", gen, r.generation)
		r.mu.Unlock()
		return nil
	}
	r.items = items
	notify := r.onChange
	r.mu.Unlock()

	if notify != nil {
		out := make([]T, len(items))
		copy(out, items)
		notify(out)
	}
	return nil
}

// OnChange registers fn to be called with a copy of the list every time a
// reload is applied. It replaces any earlier callback; nil removes it.
func (r *Resource[T]) OnChange(fn func([]T)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// decodeAll maps documents to T. Documents that cannot be decoded are logged
// and left out rather than failing the whole reload.
func (r *Resource[T]) decodeAll(docs []*model.Document) []T {
	items := make([]T, 0, len(docs))
	for _, d := range docs {
		var item T
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &item,
		})
		if err != nil {
			r.log.Errorf("Cannot build decoder: %v", err)
			return items
		}
		if err := dec.Decode(d.Flatten()); err != nil {
			r.log.Warnf("Skipping document %s: %v", d.ID, err)
			continue
		}
		items = append(items, item)
	}
	return items
}

// Add validates item, stores it and reloads. A blank required field makes the
// call a no-op with Skipped set. Any other rule failure is a VALIDATION_ERROR;
// a store failure is WRITE_FAILED. A reload failure after a successful write
// is logged and does not fail the add.
func (r *Resource[T]) Add(ctx context.Context, item T) (MutationResult, error) {
	if r.isClosed() {
		return MutationResult{}, ErrClosed
	}

	if err := r.validate.StructCtx(ctx, item); err != nil {
		var fieldErrs validator.ValidationErrors
		if stderrors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				if fe.Tag() == "required" {
					r.log.Debugf("Add skipped, %s is required", fe.Field())
					return MutationResult{Skipped: true}, nil
				}
			}
		}
		return MutationResult{}, errors.NewValidationError(err.Error()).WithCause(errors.ErrInvalidInput)
	}

	fields, err := encode(item)
	if err != nil {
		return MutationResult{}, errors.NewValidationError(err.Error()).WithCause(errors.ErrInvalidInput)
	}

	id, err := r.store.Add(ctx, r.collection, model.StripID(fields))
	if err != nil {
		r.log.Errorf("Add failed: %v", err)
		if errors.IsWriteFailed(err) {
			return MutationResult{}, err
		}
		return MutationResult{}, errors.NewWriteFailedError("failed to add to "+r.collection, err)
	}

	r.log.WithFields(map[string]interface{}{"documentId": id}).Info("Document added")
	r.reloadAfterMutation(ctx)
	return MutationResult{ID: id}, nil
}

// Remove deletes id and reloads. Removing an unknown id is not an error.
func (r *Resource[T]) Remove(ctx context.Context, id string) (MutationResult, error) {
	if r.isClosed() {
		return MutationResult{}, ErrClosed
	}
	if id == "" {
		return MutationResult{Skipped: true}, nil
	}

	if err := r.store.Delete(ctx, r.collection, id); err != nil {
		r.log.Errorf("Remove %s failed: %v", id, err)
		if errors.IsWriteFailed(err) {
			return MutationResult{}, err
		}
		return MutationResult{}, errors.NewWriteFailedError("failed to delete from "+r.collection, err)
	}

	r.log.WithFields(map[string]interface{}{"documentId": id}).Info("Document removed")
	r.reloadAfterMutation(ctx)
	return MutationResult{ID: id}, nil
}

func (r *Resource[T]) reloadAfterMutation(ctx context.Context) {
	if err := r.Reload(ctx); err != nil && !stderrors.Is(err, ErrClosed) {
		r.log.Warnf("Reload after mutation failed: %v", err)
	}
}

// Items returns a copy of the current list in fetch order.
func (r *Resource[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of items in the current list.
func (r *Resource[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Loading reports whether a reload is in flight.
func (r *Resource[T]) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight > 0
}

// Close discards the list and makes every in-flight reload a no-op.
func (r *Resource[T]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.generation++
	r.items = []T{}
}

func (r *Resource[T]) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Watch reloads on every change event for the collection until ctx is done
// or the feed ends. Bursts of events collapse into one reload.
func (r *Resource[T]) Watch(ctx context.Context, feed repository.ChangeFeed) error {
	events, err := feed.Subscribe(ctx, r.collection)
	if err != nil {
		return errors.NewStoreUnavailableError("failed to subscribe to "+r.collection, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.log.Debugf("Change %s on %s", ev.Type, ev.DocumentID)
		drain:
			for {
				select {
				case _, ok := <-events:
					if !ok {
						break drain
					}
				default:
					break drain
				}
			}
			if err := r.Reload(ctx); err != nil {
				if stderrors.Is(err, ErrClosed) {
					return nil
				}
				r.log.Warnf("Reload after change failed: %v", err)
			}
		}
	}
}

// encode turns item into document fields using its mapstructure tags.
func encode(item interface{}) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if err := mapstructure.Decode(item, &fields); err != nil {
		return nil, fmt.Errorf("encode %T: %w", item, err)
	}
	return fields, nil
}
