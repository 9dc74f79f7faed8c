package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/storefront/internal/config"
)

// cmdConfig dispatches config subcommands
func cmdConfig(args []string) error {
	if len(args) == 0 || args[0] == "show" {
		return cmdConfigShow()
	}

	switch args[0] {
	case "init":
		return cmdConfigInit()
	case "set":
		if len(args) != 3 {
			return errors.New("usage: storefront config set <key> <value>")
		}
		return cmdConfigSet(args[1], args[2])
	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
}

// cmdConfigInit writes config.yaml with the current values, creating
// ~/.storefront if needed. An existing file is left alone.
func cmdConfigInit() error {
	dir, err := config.EnsureStorefrontDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config already exists: %s\n", path)
		return nil
	}

	local, err := config.LoadLocalConfigFrom(dir)
	if err != nil {
		return err
	}
	if err := config.SaveLocalConfig(dir, local); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// cmdConfigSet changes one key in config.yaml
func cmdConfigSet(key, value string) error {
	dir, err := config.EnsureStorefrontDir()
	if err != nil {
		return err
	}
	local, err := config.LoadLocalConfigFrom(dir)
	if err != nil {
		return err
	}
	if err := local.Set(key, value); err != nil {
		return err
	}
	if err := config.SaveLocalConfig(dir, local); err != nil {
		return err
	}

	if key == "storage.database_url" {
		value = "(set)"
	}
	fmt.Printf("%s = %s\n", key, value)
	return nil
}

// cmdConfigShow shows the effective configuration
func cmdConfigShow() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Storefront Configuration")

	fmt.Println("\nAPI:")
	fmt.Printf("  url: %s\n", cfg.APIURL)
	fmt.Printf("  timeout: %s\n", cfg.HTTPTimeout)
	fmt.Printf("  rate_per_second: %d\n", cfg.RatePerSecond)
	fmt.Printf("  max_concurrent: %d\n", cfg.MaxConcurrent)
	fmt.Printf("  retry_reads: %t\n", cfg.RetryReads)

	fmt.Println("\nStorage:")
	fmt.Printf("  backend: %s\n", cfg.Backend)
	switch cfg.Backend {
	case config.BackendPostgres:
		fmt.Printf("  namespace: %s\n", cfg.Namespace)
		fmt.Println("  database_url: (set)")
	case config.BackendMemory:
	default:
		fmt.Printf("  path: %s\n", cfg.DataDir)
	}

	fmt.Println("\nLogging:")
	fmt.Printf("  level: %s\n", cfg.LogLevel)

	dir, _ := config.StorefrontDir()
	fmt.Printf("\nConfig path: %s/config.yaml\n", dir)
	return nil
}
