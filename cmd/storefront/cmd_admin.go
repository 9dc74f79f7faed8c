package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/felixgeelhaar/storefront/internal/admin"
	"github.com/felixgeelhaar/storefront/internal/domain"
)

// cmdAdmin runs admin commands; the signed-in user must be an admin
func cmdAdmin(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: storefront admin <categories|products> [command]")
	}

	app, cleanup, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := admin.RequireRole(app.Session, domain.RoleAdmin); err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			app.Router.RedirectToLogin(ctx)
		}
		return err
	}
	app.Router.Navigate(ctx, "/admin", nil)

	switch args[0] {
	case "categories":
		return cmdAdminCategories(ctx, app.Admin, args[1:])
	case "products":
		return cmdAdminProducts(ctx, app.Admin, args[1:])
	default:
		return fmt.Errorf("unknown admin command: %s (valid: categories, products)", args[0])
	}
}

func cmdAdminCategories(ctx context.Context, svc *admin.Service, args []string) error {
	subCmd := "list"
	if len(args) > 0 {
		subCmd = args[0]
	}

	switch subCmd {
	case "list":
		cats, err := svc.Categories(ctx)
		if err != nil {
			return err
		}
		if len(cats) == 0 {
			fmt.Println("No categories found.")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME")
		for _, c := range cats {
			fmt.Fprintf(tw, "%s\t%s\n", c.ID, c.Name)
		}
		return tw.Flush()

	case "add":
		if len(args) < 2 {
			return errors.New("usage: storefront admin categories add <name>")
		}
		created, err := svc.CreateCategory(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Printf("Created category %s (%s)\n", created.Name, created.ID)
		return nil

	case "delete":
		if len(args) < 2 {
			return errors.New("usage: storefront admin categories delete <id>")
		}
		if err := svc.DeleteCategory(ctx, args[1]); err != nil {
			return err
		}
		fmt.Printf("Deleted category %s\n", args[1])
		return nil

	default:
		return fmt.Errorf("unknown categories command: %s (valid: list, add, delete)", subCmd)
	}
}

func cmdAdminProducts(ctx context.Context, svc *admin.Service, args []string) error {
	subCmd := "list"
	if len(args) > 0 {
		subCmd = args[0]
	}

	switch subCmd {
	case "list":
		products, err := svc.Products(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE")
		for _, p := range products {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, domain.MoneyFromFloat(p.Price))
		}
		return tw.Flush()

	case "add":
		form, err := parseProductForm(args[1:])
		if err != nil {
			return err
		}
		created, err := svc.CreateProduct(ctx, form)
		if err != nil {
			return err
		}
		fmt.Printf("Product added successfully: %s (%s)\n", created.Name, created.ID)
		return nil

	default:
		return fmt.Errorf("unknown products command: %s (valid: list, add)", subCmd)
	}
}

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string     { return strings.Join(*l, ",") }
func (l *listFlag) Set(v string) error { *l = append(*l, v); return nil }

func parseProductForm(args []string) (admin.ProductForm, error) {
	var form admin.ProductForm
	var images, features, specs listFlag

	fs := flag.NewFlagSet("admin products add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&form.Name, "name", "", "product name")
	fs.StringVar(&form.Description, "description", "", "description")
	fs.StringVar(&form.Price, "price", "", "price")
	fs.StringVar(&form.ComparePrice, "compare-price", "", "compare-at price")
	fs.StringVar(&form.Category, "category", "", "category id")
	fs.StringVar(&form.Inventory, "inventory", "", "units in stock")
	fs.StringVar(&form.RatingAverage, "rating", "", "average rating")
	fs.StringVar(&form.RatingCount, "rating-count", "", "number of ratings")
	fs.Var(&images, "image", "image URL (repeatable)")
	fs.Var(&features, "feature", "feature (repeatable)")
	fs.Var(&specs, "spec", "specification key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return form, fmt.Errorf("parse flags: %w", err)
	}

	form.Images = images
	form.Features = features
	for _, raw := range specs {
		form.Specifications = append(form.Specifications, admin.ParseSpec(raw))
	}
	return form, nil
}
