package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/felixgeelhaar/storefront/internal/cart"
	"github.com/felixgeelhaar/storefront/internal/domain"
)

// cmdCart manages the local cart
func cmdCart(ctx context.Context, args []string) error {
	subCmd := "show"
	if len(args) > 0 {
		subCmd = args[0]
		args = args[1:]
	}

	app, cleanup, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	switch subCmd {
	case "show", "":
		app.Router.Navigate(ctx, "/cart", nil)

	case "add":
		if len(args) < 1 {
			return errors.New("usage: storefront cart add <id> [qty]")
		}
		qty := 1
		if len(args) > 1 {
			if qty, err = parseQuantity(args[1]); err != nil {
				return err
			}
			if qty < 1 {
				return domain.NewValidationError("quantity", "quantity must be at least 1", domain.ErrInvalidQuantity)
			}
		}
		p, err := app.Catalog.Product(ctx, args[0])
		if err != nil {
			return err
		}
		if err := app.Cart.AddProduct(ctx, p.Summary(), qty); err != nil {
			return err
		}
		fmt.Printf("Added %d x %s\n\n", qty, p.Name)

	case "set":
		if len(args) < 2 {
			return errors.New("usage: storefront cart set <id> <qty>")
		}
		qty, err := parseQuantity(args[1])
		if err != nil {
			return err
		}
		if _, ok := app.Cart.Line(args[0]); !ok {
			fmt.Printf("%s is not in the cart\n\n", args[0])
		}
		if err := app.Cart.UpdateQuantity(ctx, args[0], qty); err != nil {
			return err
		}

	case "remove":
		if len(args) < 1 {
			return errors.New("usage: storefront cart remove <id>")
		}
		if err := app.Cart.RemoveItem(ctx, args[0]); err != nil {
			return err
		}

	case "clear":
		n := app.Cart.Len()
		if err := app.Cart.Clear(ctx); err != nil {
			return err
		}
		fmt.Printf("Removed %d line(s)\n\n", n)

	default:
		return fmt.Errorf("unknown cart command: %s (valid: show, add, set, remove, clear)", subCmd)
	}

	printCart(os.Stdout, app.Cart.Summary())
	return nil
}

// cmdCheckout prints the order summary
func cmdCheckout(ctx context.Context) error {
	app, cleanup, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	summary := app.Cart.Summary()
	if summary.Empty() {
		fmt.Println("Your cart is empty.")
		return nil
	}
	app.Router.Navigate(ctx, "/checkout", nil)

	fmt.Println("Order Summary")
	fmt.Println("=============")
	printCart(os.Stdout, summary)

	if user := app.Session.User(); user != nil {
		fmt.Printf("\nOrdering as %s <%s>\n", user.Name, user.Email)
	} else {
		fmt.Println("\nSign in with 'storefront login' to place the order.")
	}
	return nil
}

func parseQuantity(raw string) (int, error) {
	qty, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError("quantity", "quantity must be a whole number", domain.ErrInvalidQuantity)
	}
	return qty, nil
}

func printCart(w io.Writer, s cart.Summary) {
	if s.Empty() {
		fmt.Fprintln(w, "Your cart is empty.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQTY\tTOTAL")
	for _, line := range s.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			line.ProductID, line.Name, domain.MoneyFromFloat(line.UnitPrice), line.Quantity, line.Total())
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Items:    %d\n", s.Count)
	fmt.Fprintf(w, "Subtotal: %s\n", s.Totals.Subtotal)
	if s.Totals.FreeShipping() {
		fmt.Fprintln(w, "Shipping: Free")
	} else {
		fmt.Fprintf(w, "Shipping: %s (free over %s)\n", s.Totals.Shipping, cart.FreeShippingThreshold)
	}
	fmt.Fprintf(w, "Tax:      %s\n", s.Totals.Tax)
	fmt.Fprintf(w, "Total:    %s\n", s.Totals.GrandTotal)
}
