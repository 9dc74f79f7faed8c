package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/felixgeelhaar/storefront/internal/catalog"
	"github.com/felixgeelhaar/storefront/internal/domain"
	"github.com/felixgeelhaar/storefront/internal/navigation"
	"github.com/felixgeelhaar/storefront/internal/storefront"
)

// cmdProducts lists products. Without flags the last product-list URL is
// reused.
func cmdProducts(ctx context.Context, args []string) error {
	app, cleanup, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	onList := app.Router.Current().Path == catalog.ProductsPath
	q, changed, err := parseProductFlags(args, app.Binder.Query())
	if err != nil {
		return err
	}

	switch {
	case changed:
		err = app.Binder.Apply(ctx, q)
	case onList:
		err = app.Binder.Refresh(ctx)
	default:
		app.Router.Navigate(ctx, catalog.ProductsPath, q.Values())
		err = app.Binder.ReadFromURL(ctx)
	}
	if err != nil {
		return err
	}
	return showListing(os.Stdout, app.Binder)
}

// cmdFilter changes one filter of the product list, keeping the others.
// An empty value clears the filter.
func cmdFilter(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: storefront filter <%s> [value]", strings.Join(filterKeys, "|"))
	}
	key := args[0]
	value := ""
	if len(args) == 2 {
		value = args[1]
	}

	app, cleanup, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := app.Binder.SetFilter(ctx, key, value); err != nil {
		return err
	}
	fmt.Printf("Location: %s\n\n", app.Router.Current())
	return showListing(os.Stdout, app.Binder)
}

var filterKeys = []string{
	catalog.KeyCategory,
	catalog.KeyMinPrice,
	catalog.KeyMaxPrice,
	catalog.KeySort,
	catalog.KeySearch,
}

// showListing prints the binder's committed state.
func showListing(w io.Writer, b *catalog.Binder) error {
	if b.Loading() {
		fmt.Fprintln(w, "Loading products...")
		return nil
	}
	if err := b.Err(); err != nil {
		return err
	}
	printProducts(w, b.Query(), b.Products())
	return nil
}

// parseProductFlags applies command-line filters on top of base. It
// reports whether any filter was given.
func parseProductFlags(args []string, base catalog.Query) (catalog.Query, bool, error) {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	category := fs.String("category", base.Category, "category")
	minPrice := fs.String("min", base.MinPrice, "minimum price")
	maxPrice := fs.String("max", base.MaxPrice, "maximum price")
	sortBy := fs.String("sort", string(base.Sort), "sort order")
	search := fs.String("search", base.Search, "search text")
	if err := fs.Parse(args); err != nil {
		return base, false, fmt.Errorf("parse flags: %w", err)
	}
	if fs.NArg() > 0 {
		return base, false, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	changed := false
	fs.Visit(func(*flag.Flag) { changed = true })

	q := catalog.Query{
		Category: strings.TrimSpace(*category),
		MinPrice: strings.TrimSpace(*minPrice),
		MaxPrice: strings.TrimSpace(*maxPrice),
		Sort:     catalog.Sort(*sortBy),
		Search:   strings.TrimSpace(*search),
	}
	return q, changed, nil
}

func printProducts(w io.Writer, q catalog.Query, products []domain.Product) {
	fmt.Fprintf(w, "Products (%s)\n", q.Sort.Label())
	if filters := describeFilters(q); filters != "" {
		fmt.Fprintf(w, "Filters: %s\n", filters)
	}
	fmt.Fprintln(w)

	if len(products) == 0 {
		fmt.Fprintln(w, "No products found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tRATING")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\n",
			p.ID, p.Name, p.Category, domain.MoneyFromFloat(p.Price), p.Rating.Average)
	}
	tw.Flush()
}

func describeFilters(q catalog.Query) string {
	var parts []string
	if q.Category != "" {
		parts = append(parts, "category="+q.Category)
	}
	if q.MinPrice != "" || q.MaxPrice != "" {
		parts = append(parts, fmt.Sprintf("price=%s..%s", q.MinPrice, q.MaxPrice))
	}
	if q.Search != "" {
		parts = append(parts, fmt.Sprintf("search=%q", q.Search))
	}
	return strings.Join(parts, ", ")
}

// cmdProduct shows one product
func cmdProduct(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: storefront product <id>")
	}

	app, cleanup, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := app.Catalog.Product(ctx, args[0])
	if err != nil {
		return err
	}
	app.Router.Navigate(ctx, catalog.ProductsPath+"/"+p.ID, nil)

	printProduct(os.Stdout, p)
	return nil
}

func printProduct(w io.Writer, p *domain.ProductDetail) {
	fmt.Fprintln(w, p.Name)
	fmt.Fprintln(w, strings.Repeat("=", len(p.Name)))

	price := domain.MoneyFromFloat(p.Price).String()
	if p.ComparePrice != nil && *p.ComparePrice > p.Price {
		price += fmt.Sprintf(" (was %s)", domain.MoneyFromFloat(*p.ComparePrice))
	}
	fmt.Fprintf(w, "Price:    %s\n", price)
	if p.Category != "" {
		fmt.Fprintf(w, "Category: %s\n", p.Category)
	}
	fmt.Fprintf(w, "Rating:   %.1f (%d reviews)\n", p.Rating.Average, p.Rating.Count)
	if p.InStock() {
		fmt.Fprintf(w, "Stock:    %d available\n", p.Inventory)
	} else {
		fmt.Fprintln(w, "Stock:    out of stock")
	}

	if p.Description != "" {
		fmt.Fprintf(w, "\n%s\n", p.Description)
	}
	if len(p.Features) > 0 {
		fmt.Fprintln(w, "\nFeatures:")
		for _, f := range p.Features {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}
	if len(p.Specifications) > 0 {
		fmt.Fprintln(w, "\nSpecifications:")
		keys := make([]string, 0, len(p.Specifications))
		for k := range p.Specifications {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %s\n", k, p.Specifications[k])
		}
	}
}

// cmdOpen follows a deep link
func cmdOpen(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: storefront open <url>")
	}
	loc, err := navigation.ParseLocation(args[0])
	if err != nil {
		return err
	}

	app, cleanup, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	app.Router.Navigate(ctx, loc.Path, loc.Query)
	return showLocation(ctx, app, loc)
}

// cmdBack returns to the previous location and shows it
func cmdBack(ctx context.Context) error {
	app, cleanup, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if !app.Router.Back(ctx) {
		return errors.New("no previous location")
	}
	return showLocation(ctx, app, app.Router.Current())
}

// showLocation renders the view for loc.
func showLocation(ctx context.Context, app *storefront.App, loc navigation.Location) error {
	switch {
	case loc.Path == catalog.ProductsPath:
		if err := app.Binder.ReadFromURL(ctx); err != nil {
			return err
		}
		return showListing(os.Stdout, app.Binder)
	case strings.HasPrefix(loc.Path, catalog.ProductsPath+"/"):
		p, err := app.Catalog.Product(ctx, strings.TrimPrefix(loc.Path, catalog.ProductsPath+"/"))
		if err != nil {
			return err
		}
		printProduct(os.Stdout, p)
	case loc.Path == "/cart":
		printCart(os.Stdout, app.Cart.Summary())
	default:
		fmt.Printf("Location: %s\n", app.Router.Current())
	}
	return nil
}
