package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tibibalance/tibisync/internal/auth"
	"github.com/tibibalance/tibisync/internal/config"
	"github.com/tibibalance/tibisync/internal/ui"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Long: `Store a TibiBalance session for the daemon to pick up.

Prompts for the user id, email and access token, then writes the session
file. A running daemon notices the file change and starts syncing the
user's data immediately.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		var sess auth.Session
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("User ID").
					Value(&sess.UID).
					Validate(func(s string) error {
						if s == "" {
							return fmt.Errorf("user id cannot be empty")
						}
						return nil
					}),
				huh.NewInput().
					Title("Email").
					Value(&sess.Email),
				huh.NewInput().
					Title("Access token").
					EchoMode(huh.EchoModePassword).
					Value(&sess.Token),
			),
		)
		if err := form.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := auth.WriteSession(cfg.SessionFile, sess); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing session: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Signed in as %s\n", ui.RenderPass("✓"), sess.UID)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and purge local data",
	Long: `Remove the stored session.

A running daemon notices the removal, drops its subscriptions and purges
the signed-in user's rows from the local cache.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		if err := auth.ClearSession(cfg.SessionFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing session: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Signed out\n", ui.RenderPass("✓"))
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
