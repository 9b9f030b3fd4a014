package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	gosync "sync"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tibibalance/tibisync/internal/auth"
	"github.com/tibibalance/tibisync/internal/cache"
	"github.com/tibibalance/tibisync/internal/config"
	"github.com/tibibalance/tibisync/internal/model"
	"github.com/tibibalance/tibisync/internal/paths"
	"github.com/tibibalance/tibisync/internal/remote"
	"github.com/tibibalance/tibisync/internal/sync"
	"github.com/tibibalance/tibisync/internal/ui"
	"github.com/tibibalance/tibisync/internal/wearable"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the sync daemon (foreground)",
	Long: `Run the sync engine in foreground mode.

The daemon will:
  1. Watch the session file for sign-in and sign-out
  2. Subscribe to the signed-in user's collections on the remote store
  3. Apply remote changes to the local cache
  4. Listen for companion wearable connections and ingest spooled metrics

Press Ctrl+C to stop. For production use, run under a process manager.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		if err := runDaemon(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Daemon stopped with error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func newDaemonLogger(cfg *config.Config) *log.Logger {
	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
	}
	return log.New(out, "[tibisync] ", log.LstdFlags)
}

func runDaemon(cfg *config.Config) error {
	logger := newDaemonLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := cache.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer store.Close()
	if err := store.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	client, err := remote.Dial(ctx, cfg.RemoteURL, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.RemoteURL, err)
	}
	defer client.Close()

	provider := auth.NewFileProvider(cfg.SessionFile)
	identities, err := provider.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch session file: %w", err)
	}

	coordinators := []*sync.Coordinator{
		sync.New(client, sync.HabitsBinding(store), logger),
		sync.New(client, sync.ProfileBinding(store), logger),
		sync.New(client, sync.EmotionsBinding(store), logger),
		sync.New(client, sync.ActivitiesBinding(store), logger),
		sync.New(client, sync.TemplatesBinding(store), logger),
	}

	var wg gosync.WaitGroup
	for _, c := range coordinators {
		wg.Add(1)
		go func(c *sync.Coordinator) {
			defer wg.Done()
			if err := c.Run(ctx); err != nil {
				logger.Printf("ERROR: coordinator stopped: %v", err)
			}
		}(c)
	}

	// Fan identity announcements out to every coordinator. The provider
	// emits the current identity first, so coordinators connect on startup
	// when a session already exists.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for identity := range identities {
			if identity == "" {
				logger.Printf("Signed out")
			} else {
				logger.Printf("Signed in as %s", identity)
			}
			for _, c := range coordinators {
				c.SetIdentity(identity)
			}
		}
	}()

	// Wearable metrics land on the remote store under the signed-in user;
	// the cache stays metrics-free on this side.
	sink := func(ctx context.Context, m *model.DailyMetrics) error {
		uid := provider.Current()
		if uid == "" {
			return fmt.Errorf("no signed-in user for metrics %s", m.Date)
		}
		return client.SetMerge(ctx, paths.Metric(uid, m.Date), wearable.MetricsToDocument(m))
	}

	listener := wearable.NewListener(cfg.ListenAddr, sink, logger)
	if err := listener.Start(); err != nil {
		return fmt.Errorf("failed to start companion listener: %w", err)
	}
	defer listener.Stop()

	spool, err := wearable.NewSpool(cfg.SpoolDir, sink, &wearable.SpoolConfig{
		DebounceInterval: cfg.DebounceInterval,
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create spool watcher: %w", err)
	}
	if err := spool.Start(); err != nil {
		return fmt.Errorf("failed to start spool watcher: %w", err)
	}
	defer spool.Stop()

	fmt.Printf("%s tibisync daemon running\n", ui.RenderAccent("🚀"))
	fmt.Printf("   Remote: %s\n", cfg.RemoteURL)
	fmt.Printf("   Cache: %s\n", cfg.DBPath)
	fmt.Printf("   Companion: %s\n", listener.Addr())
	fmt.Printf("   Spool: %s\n", cfg.SpoolDir)
	fmt.Printf("\nPress Ctrl+C to stop\n\n")
	logger.Printf("Daemon started (remote=%s cache=%s)", cfg.RemoteURL, cfg.DBPath)

	<-ctx.Done()
	logger.Printf("Shutting down")
	wg.Wait()
	return nil
}
