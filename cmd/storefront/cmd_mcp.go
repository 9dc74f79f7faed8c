package main

import (
	"context"

	mcpserver "github.com/felixgeelhaar/storefront/internal/mcp"
)

// cmdMCP starts the MCP server on stdio
func cmdMCP(ctx context.Context) error {
	app, cleanup, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := mcpserver.NewServer(mcpserver.Config{
		Catalog: app.Catalog,
		Cart:    app.Cart,
		Session: app.Session,
		Version: Version,
	})

	app.Logger.Info("mcp server starting", "api_url", app.Config.APIURL)
	return srv.ServeStdio(ctx)
}
