// Package storefront holds the shop's screens: the public product list, the
// product and category admin pages and the sign-in flows. Screens render to
// any io.Writer and are driven by the plantctl CLI.
package storefront

import (
	"context"
	"io"
	"text/tabwriter"

	"plant-shop/internal/catalog/domain/repository"
	"plant-shop/internal/listresource"
	"plant-shop/internal/shared/logger"

	"github.com/spf13/cast"
)

// PlaceholderImage is shown for products without an image.
const PlaceholderImage = "https://via.placeholder.com/180"

const loadingText = "Loading..."

// screen is the list-backed part shared by every catalogue page.
type screen[T any] struct {
	res *listresource.Resource[T]
	log logger.Logger
}

func newScreen[T any](store repository.DocumentStore, collection, name string, log logger.Logger) *screen[T] {
	if log == nil {
		log = logger.NewNopLogger()
	}
	log = log.WithComponent(name)
	return &screen[T]{
		res: listresource.New[T](store, collection, log),
		log: log,
	}
}

// Mount loads the list for the first time.
func (s *screen[T]) Mount(ctx context.Context) error {
	if err := s.res.Reload(ctx); err != nil {
		s.log.Errorf("Error fetching %s: %v", s.res.Collection(), err)
		return err
	}
	return nil
}

// Unmount drops the list; reloads still in flight are discarded.
func (s *screen[T]) Unmount() {
	s.res.Close()
}

// Watch keeps the list in sync with the collection's change feed until ctx is done.
func (s *screen[T]) Watch(ctx context.Context, feed repository.ChangeFeed) error {
	return s.res.Watch(ctx, feed)
}

// Resource exposes the underlying list.
func (s *screen[T]) Resource() *listresource.Resource[T] {
	return s.res
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func formatPrice(price float64) string {
	return "€" + cast.ToString(price)
}
