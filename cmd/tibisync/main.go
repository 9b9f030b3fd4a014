// Command tibisync is the offline-first sync engine for TibiBalance
// desktop and companion deployments. It maintains a local SQLite cache of
// the signed-in user's habits, profile, emotions and activities, keeps it
// in step with the remote document store, and ingests daily metrics from
// wearable bridges.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tibisync",
	Short: "TibiBalance offline-first sync engine",
	Long: `tibisync keeps a local cache of TibiBalance data in sync with the
remote document store.

The cache is a SQLite database that serves reads while offline; writes go
to the remote store first and land in the cache through the live
subscription or an optimistic local update. Run 'tibisync daemon' to keep
everything continuously synced, or use the subcommands for one-shot
operations.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $TIBISYNC_HOME/config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
