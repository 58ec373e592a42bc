package storefront

import (
	"context"
	"fmt"
	"io"
	"strings"

	"plant-shop/internal/catalog/domain/model"
	"plant-shop/internal/catalog/domain/repository"
	"plant-shop/internal/listresource"
	"plant-shop/internal/shared/logger"
)

// CategoryForm is the admin's add form.
type CategoryForm struct {
	Name  string
	Value string
}

// CategoryAdmin manages the categories collection.
type CategoryAdmin struct {
	*screen[model.Category]
}

func NewCategoryAdmin(store repository.DocumentStore, log logger.Logger) *CategoryAdmin {
	return &CategoryAdmin{screen: newScreen[model.Category](store, model.CollectionCategories, "category-admin", log)}
}

func (a *CategoryAdmin) Add(ctx context.Context, form CategoryForm) (listresource.MutationResult, error) {
	return a.res.Add(ctx, model.Category{
		Name:  strings.TrimSpace(form.Name),
		Value: strings.TrimSpace(form.Value),
	})
}

func (a *CategoryAdmin) Delete(ctx context.Context, id string) (listresource.MutationResult, error) {
	return a.res.Remove(ctx, id)
}

func (a *CategoryAdmin) Render(w io.Writer) error {
	if a.res.Loading() {
		_, err := fmt.Fprintln(w, loadingText)
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "Manage Categories")
	fmt.Fprintln(tw, "ID\tNAME\tVALUE")
	for _, c := range a.res.Items() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.Value)
	}
	return tw.Flush()
}
