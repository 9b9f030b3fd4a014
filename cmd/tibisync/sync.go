package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tibibalance/tibisync/internal/auth"
	"github.com/tibibalance/tibisync/internal/cache"
	"github.com/tibibalance/tibisync/internal/config"
	"github.com/tibibalance/tibisync/internal/remote"
	"github.com/tibibalance/tibisync/internal/sync"
	"github.com/tibibalance/tibisync/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "One-shot sync from the remote store to the local cache",
	Long: `Fetch the signed-in user's collections from the remote document store
and write them into the local cache.

This performs a full seed:
  1. Habits, profile, emotions and activities for the signed-in user
  2. Shared habit templates

Unlike 'tibisync daemon' no live subscription is kept; use this for
scripted refreshes or to warm the cache before going offline.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()

		store, err := cache.Open(cfg.DBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening cache: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		if err := store.InitSchema(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing schema: %v\n", err)
			os.Exit(1)
		}

		logger := log.New(os.Stderr, "[sync] ", log.LstdFlags)
		client, err := remote.Dial(ctx, cfg.RemoteURL, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to %s: %v\n", cfg.RemoteURL, err)
			os.Exit(1)
		}
		defer client.Close()

		uid := auth.NewFileProvider(cfg.SessionFile).Current()

		bindings := []sync.Binding{sync.TemplatesBinding(store)}
		if uid != "" {
			bindings = append(bindings,
				sync.HabitsBinding(store),
				sync.ProfileBinding(store),
				sync.EmotionsBinding(store),
				sync.ActivitiesBinding(store),
			)
		} else {
			fmt.Printf("%s Not signed in; syncing shared templates only\n", ui.RenderWarn("⚠"))
		}

		fmt.Printf("%s Syncing from %s...\n", ui.RenderAccent("🔄"), cfg.RemoteURL)
		start := time.Now()

		for _, b := range bindings {
			identity := uid
			if b.Global {
				identity = ""
			}
			applied, total, err := sync.Seed(ctx, client, b, identity, logger)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error syncing %s: %v\n", b.Name, err)
				os.Exit(1)
			}
			fmt.Printf("   %s: %d/%d\n", b.Name, applied, total)
		}

		fmt.Printf("%s Sync complete in %v\n", ui.RenderPass("✓"), time.Since(start).Round(time.Millisecond))
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
