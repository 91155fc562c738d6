package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/feed"
	"github.com/dmitrijs2005/storefront/internal/client/services"
)

const chipAll = "All"

// Blog prints the category tabs and the weekly feed. Arguments form the
// category name, so "blog Travel Tips" works without quotes.
func (a *App) Blog(ctx context.Context, args []string) error {
	page, err := a.content.Blog(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, a.renderer.Tabs(page.Categories, page.Selected))
	if page.Description != "" {
		fmt.Fprintln(a.out, a.renderer.Styles().Muted.Render(page.Description))
	}
	if page.Selected != services.CategoryLatest && len(page.Articles) == 0 {
		fmt.Fprintf(a.out, "No articles in %s.\n", page.Selected)
		return nil
	}
	fmt.Fprintln(a.out, a.renderer.Feed(feed.Group(page.Articles, time.Local)))
	return nil
}

func (a *App) Article(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: article <slug>")
		return nil
	}
	art, err := a.content.Article(ctx, args[0])
	if err != nil {
		return err
	}
	out, err := a.renderer.Article(art)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, out)
	return nil
}

// Shop prints the category chips and the product grid.
func (a *App) Shop(ctx context.Context, args []string) error {
	page, err := a.content.Shop(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	labels := []string{chipAll}
	active := chipAll
	if page.Selected != "" {
		active = page.Selected
	}
	for _, c := range page.Categories {
		labels = append(labels, c.Label)
		if c.Value == page.Selected {
			active = c.Label
		}
	}

	fmt.Fprintln(a.out, a.renderer.Tabs(labels, active))
	fmt.Fprintln(a.out, a.renderer.Products(page.Products))
	return nil
}

func (a *App) Product(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: product <slug>")
		return nil
	}
	p, err := a.content.Product(ctx, args[0])
	if err != nil {
		return err
	}
	out, err := a.renderer.Product(p)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, out)
	return nil
}
