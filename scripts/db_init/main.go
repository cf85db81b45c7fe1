package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	dbfs "github.com/garnizeh/fieldops/db"
	"github.com/garnizeh/fieldops/internal/config"
	"github.com/garnizeh/fieldops/internal/db"
)

func main() {
	cfgPath := pflag.String("config", "", "path to YAML config")
	pflag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig(*cfgPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	database, err := db.New(ctx, cfg.SessionDB, cfg.Log.Logger(os.Stderr))
	if err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		fmt.Fprintf(os.Stderr, "Migration runner error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Session database %s initialized successfully.\n", cfg.SessionDB)
}
