package main

import (
	"context"
	"fmt"
	"io"

	"plant-shop/internal/catalog/domain/model"
	"plant-shop/internal/catalog/domain/repository"
	"plant-shop/internal/listresource"
	"plant-shop/internal/storefront"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// page is what the list and watch commands need from a screen.
type page[T any] interface {
	Mount(ctx context.Context) error
	Unmount()
	Render(w io.Writer) error
	Watch(ctx context.Context, feed repository.ChangeFeed) error
	Resource() *listresource.Resource[T]
}

func listPage[T any](ctx context.Context, p page[T], out io.Writer) error {
	defer p.Unmount()
	if err := p.Mount(ctx); err != nil {
		return err
	}
	return p.Render(out)
}

// watchPage renders p after the first load and after every change on the feed.
func watchPage[T any](ctx context.Context, p page[T], feed repository.ChangeFeed, out io.Writer) error {
	defer p.Unmount()
	if err := p.Mount(ctx); err != nil {
		return err
	}
	if err := p.Render(out); err != nil {
		return err
	}
	p.Resource().OnChange(func([]T) {
		fmt.Fprintln(out)
		_ = p.Render(out)
	})
	return p.Watch(ctx, feed)
}

func reportMutation(out io.Writer, done string, res listresource.MutationResult, skipped string) {
	if res.Skipped {
		fmt.Fprintln(out, skipped)
		return
	}
	fmt.Fprintf(out, "%s %s\n", done, res.ID)
}

func newProductsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Browse and manage products",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show the product catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPage[model.Product](cmd.Context(), storefront.NewProductListPage(a.store(), a.log), cmd.OutOrStdout())
		},
	}

	admin := &cobra.Command{
		Use:   "admin",
		Short: "Show products with their ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPage[model.Product](cmd.Context(), storefront.NewProductAdmin(a.store(), a.log), cmd.OutOrStdout())
		},
	}

	var form storefront.ProductForm
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			screen := storefront.NewProductAdmin(a.store(), a.log)
			defer screen.Unmount()
			if err := screen.Mount(ctx); err != nil {
				return err
			}

			res, err := screen.Add(ctx, form)
			if err != nil {
				return err
			}
			reportMutation(cmd.OutOrStdout(), "Added", res, "Nothing added: name, price and category are required")
			return screen.Render(cmd.OutOrStdout())
		},
	}
	add.Flags().StringVar(&form.Name, "name", "", "product name")
	add.Flags().StringVar(&form.Price, "price", "", "price in euro")
	add.Flags().StringVar(&form.Category, "category", "", "category value, e.g. plant")
	add.Flags().StringVar(&form.ImageURL, "image-url", "", "image address")

	del := &cobra.Command{
		Use:     "delete ID...",
		Aliases: []string{"rm"},
		Short:   "Delete products by id",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			screen := storefront.NewProductAdmin(a.store(), a.log)
			defer screen.Unmount()

			for _, id := range args {
				res, err := screen.Delete(ctx, id)
				if err != nil {
					return err
				}
				reportMutation(cmd.OutOrStdout(), "Deleted", res, "Nothing deleted: empty id")
			}
			return screen.Render(cmd.OutOrStdout())
		},
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Show the catalogue and redraw it on every change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchPage[model.Product](cmd.Context(), storefront.NewProductListPage(a.store(), a.log), a.feed(), cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(list, admin, add, del, watch)
	return cmd
}

func newCategoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "Browse and manage categories",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPage[model.Category](cmd.Context(), storefront.NewCategoryAdmin(a.store(), a.log), cmd.OutOrStdout())
		},
	}

	var form storefront.CategoryForm
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			screen := storefront.NewCategoryAdmin(a.store(), a.log)
			defer screen.Unmount()
			if err := screen.Mount(ctx); err != nil {
				return err
			}

			res, err := screen.Add(ctx, form)
			if err != nil {
				return err
			}
			reportMutation(cmd.OutOrStdout(), "Added", res, "Nothing added: name and value are required")
			return screen.Render(cmd.OutOrStdout())
		},
	}
	add.Flags().StringVar(&form.Name, "name", "", "category name")
	add.Flags().StringVar(&form.Value, "value", "", "value products use, e.g. plant or flower")

	del := &cobra.Command{
		Use:     "delete ID...",
		Aliases: []string{"rm"},
		Short:   "Delete categories by id",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			screen := storefront.NewCategoryAdmin(a.store(), a.log)
			defer screen.Unmount()

			for _, id := range args {
				res, err := screen.Delete(ctx, id)
				if err != nil {
					return err
				}
				reportMutation(cmd.OutOrStdout(), "Deleted", res, "Nothing deleted: empty id")
			}
			return screen.Render(cmd.OutOrStdout())
		},
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Show categories and redraw them on every change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchPage[model.Category](cmd.Context(), storefront.NewCategoryAdmin(a.store(), a.log), a.feed(), cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(list, add, del, watch)
	return cmd
}

// newShopCmd loads the catalogue and the categories side by side.
func newShopCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shop",
		Short: "Show products and categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.store()
			products := storefront.NewProductListPage(store, a.log)
			categories := storefront.NewCategoryAdmin(store, a.log)
			defer products.Unmount()
			defer categories.Unmount()

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return products.Mount(ctx) })
			g.Go(func() error { return categories.Mount(ctx) })
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := products.Render(out); err != nil {
				return err
			}
			fmt.Fprintln(out)
			return categories.Render(out)
		},
	}
}
