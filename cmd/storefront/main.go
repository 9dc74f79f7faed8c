package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/storefront/internal/config"
	"github.com/felixgeelhaar/storefront/internal/navigation"
	"github.com/felixgeelhaar/storefront/internal/storefront"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "login":
		err = cmdLogin(ctx, os.Args[2:])
	case "register":
		err = cmdRegister(ctx, os.Args[2:])
	case "logout":
		err = cmdLogout(ctx)
	case "whoami":
		err = cmdWhoami(ctx)
	case "products":
		err = cmdProducts(ctx, os.Args[2:])
	case "product":
		err = cmdProduct(ctx, os.Args[2:])
	case "filter":
		err = cmdFilter(ctx, os.Args[2:])
	case "open":
		err = cmdOpen(ctx, os.Args[2:])
	case "back":
		err = cmdBack(ctx)
	case "cart":
		err = cmdCart(ctx, os.Args[2:])
	case "checkout":
		err = cmdCheckout(ctx)
	case "admin":
		err = cmdAdmin(ctx, os.Args[2:])
	case "config":
		err = cmdConfig(os.Args[2:])
	case "mcp":
		err = cmdMCP(ctx)
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("storefront %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errorMessage(err))
		stop()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Storefront - catalog, cart and admin client

Usage:
  storefront <command> [arguments]

Account Commands:
  login [email]          Sign in (password from STOREFRONT_PASSWORD or prompt)
  register <name> <email> Create an account and sign in
  logout                 Sign out and forget the stored token
  whoami                 Show the signed-in user

Catalog Commands:
  products [flags]       List products
      --category NAME    Filter by category
      --min PRICE        Lower price bound
      --max PRICE        Upper price bound
      --sort ORDER       newest, price_asc, price_desc, rating
      --search TEXT      Free-text search
  filter <key> [value]   Change one product-list filter, keeping the others
                         (category, minPrice, maxPrice, sort, search)
  product <id>           Show product details
  open <url>             Open a deep link, e.g. "/products?category=Books"
  back                   Return to the previous location

Cart Commands:
  cart [show]            Show cart lines and totals
  cart add <id> [qty]    Add a product
  cart set <id> <qty>    Set a quantity (0 removes the line)
  cart remove <id>       Remove a line
  cart clear             Empty the cart
  checkout               Show the order summary

Admin Commands:
  admin categories [list|add <name>|delete <id>]
  admin products [list|add --name N --price P --category C ...]

Other:
  config [show]          Show effective configuration
  config init            Write ~/.storefront/config.yaml
  config set <key> <val> Change a setting, e.g. api.url
  mcp                    Start MCP server on stdio
  help                   Show this help message
  version                Show version information

Environment:
  STOREFRONT_API_URL     REST service root (default http://localhost:5000/api)
  STOREFRONT_STORE       file, sqlite, postgres or memory
  STOREFRONT_LOG_LEVEL   debug, info, warn, error`)
}

// openApp loads configuration, sets up logging and wires the application.
// The returned cleanup must always be called.
func openApp(ctx context.Context) (*storefront.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, logFile := setupLogging(cfg.LogLevel)

	app, err := storefront.NewApp(ctx, storefront.AppConfig{
		Config: cfg,
		Logger: logger,
	})
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, nil, err
	}

	app.Router.OnChange(func(loc navigation.Location) {
		if loc.Path == app.Router.LoginPath() && !app.Session.IsAuthenticated() {
			fmt.Fprintln(os.Stderr, "Your session has ended. Run 'storefront login' to sign in again.")
		}
	})

	cleanup := func() {
		if err := app.Close(); err != nil {
			logger.Warn("close app", "error", err)
		}
		if logFile != nil {
			logFile.Close()
		}
	}
	return app, cleanup, nil
}
