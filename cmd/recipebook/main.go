package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"recipebook/internal/config"
	"recipebook/internal/logging"
	"recipebook/internal/recipeapi"
	"recipebook/internal/store"
	"recipebook/internal/ui"
)

func main() {
	configPath := flag.String("config", config.ResolveConfigPath(), "path to the config file")
	apiURL := flag.String("api-url", "", "recipe service base URL (overrides config)")
	flag.Parse()

	cfg, err := config.LoadOrCreate(*configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *apiURL != "" {
		cfg.APIURL = *apiURL
		if err := cfg.Validate(); err != nil {
			fmt.Printf("invalid -api-url: %v\n", err)
			os.Exit(1)
		}
	}

	logger, closer, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		fmt.Printf("failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	logger.Info("starting", "config", *configPath, "api_url", cfg.APIURL, "stale_responses", cfg.StaleResponses)

	client, err := recipeapi.NewClient(recipeapi.ClientOpts{BaseURL: cfg.APIURL, Logger: logger})
	if err != nil {
		fmt.Printf("failed to create client: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st := store.New(ctx, client, store.WithLogger(logger), store.WithStalePolicy(cfg.StalePolicy()))

	if err := ui.Run(st, cfg); err != nil {
		logger.Error("program exited", "error", err)
		fmt.Printf("error running program: %v\n", err)
		os.Exit(1)
	}
}
