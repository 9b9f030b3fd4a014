package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/tibibalance/tibisync/internal/auth"
	"github.com/tibibalance/tibisync/internal/cache"
	"github.com/tibibalance/tibisync/internal/config"
	"github.com/tibibalance/tibisync/internal/remote"
)

// env bundles the handles every data command needs: config, open cache,
// remote client and the session-file identity provider.
type env struct {
	cfg      *config.Config
	store    *cache.Store
	client   *remote.WSClient
	provider *auth.FileProvider
	logger   *log.Logger
}

// openEnv builds the command environment or exits with a message. Callers
// must defer e.close().
func openEnv(ctx context.Context) *env {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	store, err := cache.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening cache: %v\n", err)
		os.Exit(1)
	}
	if err := store.InitSchema(ctx); err != nil {
		store.Close()
		fmt.Fprintf(os.Stderr, "Error initializing schema: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, "[tibisync] ", log.LstdFlags)
	client, err := remote.Dial(ctx, cfg.RemoteURL, logger)
	if err != nil {
		store.Close()
		fmt.Fprintf(os.Stderr, "Error connecting to %s: %v\n", cfg.RemoteURL, err)
		os.Exit(1)
	}

	return &env{
		cfg:      cfg,
		store:    store,
		client:   client,
		provider: auth.NewFileProvider(cfg.SessionFile),
		logger:   logger,
	}
}

func (e *env) close() {
	e.client.Close()
	e.store.Close()
}
