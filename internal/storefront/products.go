package storefront

import (
	"context"
	"fmt"
	"io"
	"strings"

	"plant-shop/internal/catalog/domain/model"
	"plant-shop/internal/catalog/domain/repository"
	"plant-shop/internal/listresource"
	"plant-shop/internal/shared/errors"
	"plant-shop/internal/shared/logger"

	"github.com/spf13/cast"
)

// ProductListPage is the public catalogue, one card per product.
type ProductListPage struct {
	*screen[model.Product]
}

func NewProductListPage(store repository.DocumentStore, log logger.Logger) *ProductListPage {
	return &ProductListPage{screen: newScreen[model.Product](store, model.CollectionProducts, "product-list", log)}
}

// Render writes the cards, or the loading text while a reload is in flight.
func (p *ProductListPage) Render(w io.Writer) error {
	if p.res.Loading() {
		_, err := fmt.Fprintln(w, loadingText)
		return err
	}
	return renderProductCards(w, p.res.Items())
}

func renderProductCards(w io.Writer, products []model.Product) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "All Products")
	fmt.Fprintln(tw, "NAME\tCATEGORY\tPRICE\tIMAGE")
	for _, product := range products {
		image := product.ImageURL
		if image == "" {
			image = PlaceholderImage
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", product.Name, product.Category, formatPrice(product.Price), image)
	}
	return tw.Flush()
}

// ProductForm is the admin's add form as typed, before coercion.
type ProductForm struct {
	Name     string
	Price    string
	Category string
	ImageURL string
}

// ProductAdmin manages the products collection.
type ProductAdmin struct {
	*screen[model.Product]
}

func NewProductAdmin(store repository.DocumentStore, log logger.Logger) *ProductAdmin {
	return &ProductAdmin{screen: newScreen[model.Product](store, model.CollectionProducts, "product-admin", log)}
}

// Add coerces the form and stores the product. A blank name, price or
// category skips the add without contacting the store, whatever the other
// fields hold.
func (a *ProductAdmin) Add(ctx context.Context, form ProductForm) (listresource.MutationResult, error) {
	name := strings.TrimSpace(form.Name)
	raw := strings.TrimSpace(form.Price)
	category := strings.TrimSpace(form.Category)
	if name == "" || raw == "" || category == "" {
		a.log.Debug("Add skipped, name, price and category are required")
		return listresource.MutationResult{Skipped: true}, nil
	}

	price, err := cast.ToFloat64E(raw)
	if err != nil {
		return listresource.MutationResult{}, errors.NewValidationError(fmt.Sprintf("price %q is not a number", raw)).
			WithCause(errors.ErrInvalidInput)
	}

	return a.res.Add(ctx, model.Product{
		Name:     name,
		Price:    price,
		Category: category,
		ImageURL: strings.TrimSpace(form.ImageURL),
	})
}

func (a *ProductAdmin) Delete(ctx context.Context, id string) (listresource.MutationResult, error) {
	return a.res.Remove(ctx, id)
}

// Render lists "name - €price" with the category beside it.
func (a *ProductAdmin) Render(w io.Writer) error {
	if a.res.Loading() {
		_, err := fmt.Fprintln(w, loadingText)
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "Manage Products")
	fmt.Fprintln(tw, "ID\tPRODUCT\tCATEGORY")
	for _, product := range a.res.Items() {
		fmt.Fprintf(tw, "%s\t%s - %s\t%s\n", product.ID, product.Name, formatPrice(product.Price), product.Category)
	}
	return tw.Flush()
}
