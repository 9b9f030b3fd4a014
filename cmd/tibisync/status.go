package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tibibalance/tibisync/internal/auth"
	"github.com/tibibalance/tibisync/internal/cache"
	"github.com/tibibalance/tibisync/internal/config"
	"github.com/tibibalance/tibisync/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local cache status",
	Long: `Display the current state of the local cache.

Shows:
  - Cache file location and size
  - Signed-in user
  - Cached entity counts`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		info, err := os.Stat(cfg.DBPath)
		if os.IsNotExist(err) {
			fmt.Printf("\n%s Cache not initialized\n", ui.RenderWarn("⚠"))
			fmt.Printf("   Run 'tibisync sync' or 'tibisync daemon' to create it\n\n")
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error checking cache: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		store, err := cache.Open(cfg.DBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening cache: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		habits, err := store.CountHabits(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error counting habits: %v\n", err)
			os.Exit(1)
		}
		emotions, _ := store.CountEmotions(ctx)
		activities, _ := store.CountActivities(ctx)
		templates, _ := store.CountTemplates(ctx)

		sess, _ := auth.ReadSession(cfg.SessionFile)
		who := ui.RenderDim("(signed out)")
		if sess.UID != "" {
			who = sess.UID
			if sess.Email != "" {
				who = fmt.Sprintf("%s (%s)", sess.Email, sess.UID)
			}
		}

		size := info.Size()
		sizeStr := fmt.Sprintf("%d bytes", size)
		if size > 1024*1024 {
			sizeStr = fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
		} else if size > 1024 {
			sizeStr = fmt.Sprintf("%.1f KB", float64(size)/1024)
		}

		fmt.Printf("\n%s Cache Status\n\n", ui.RenderAccent("📊"))
		fmt.Printf("Location: %s\n", cfg.DBPath)
		fmt.Printf("Size: %s\n", sizeStr)
		fmt.Printf("User: %s\n", who)
		fmt.Printf("Habits: %d\n", habits)
		fmt.Printf("Emotions: %d\n", emotions)
		fmt.Printf("Activities: %d\n", activities)
		fmt.Printf("Templates: %d\n", templates)
		fmt.Printf("Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
