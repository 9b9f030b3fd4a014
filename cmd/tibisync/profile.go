package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tibibalance/tibisync/internal/cache"
	"github.com/tibibalance/tibisync/internal/model"
	"github.com/tibibalance/tibisync/internal/repo"
	"github.com/tibibalance/tibisync/internal/ui"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "View and update the signed-in user's profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the profile",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		e := openEnv(ctx)
		defer e.close()

		profile := repo.NewProfile(e.client, e.store, e.provider, e.logger)
		p, err := profile.Get(ctx)
		if errors.Is(err, cache.ErrNotFound) {
			fmt.Printf("%s No profile yet\n", ui.RenderDim("∅"))
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading profile: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s %s\n\n", ui.RenderAccent("👤"), p.DisplayName)
		fmt.Printf("UID: %s\n", p.UID)
		if p.Email != "" {
			fmt.Printf("Email: %s\n", p.Email)
		}
		if p.PhotoURL != "" {
			fmt.Printf("Photo: %s\n", p.PhotoURL)
		}
		if !p.BirthDate.IsZero() {
			fmt.Printf("Born: %s\n", p.BirthDate.Format(model.DateLayout))
		}
		fmt.Println()
	},
}

var profileSetPhotoCmd = &cobra.Command{
	Use:   "set-photo <url>",
	Short: "Set the profile photo URL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		e := openEnv(ctx)
		defer e.close()

		profile := repo.NewProfile(e.client, e.store, e.provider, e.logger)
		if err := profile.SetPhotoURL(ctx, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error updating photo: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Photo updated\n", ui.RenderPass("✓"))
	},
}

var profileRemovePhotoCmd = &cobra.Command{
	Use:   "remove-photo",
	Short: "Remove the profile photo",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		e := openEnv(ctx)
		defer e.close()

		profile := repo.NewProfile(e.client, e.store, e.provider, e.logger)
		if err := profile.RemovePhoto(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error removing photo: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Photo removed\n", ui.RenderPass("✓"))
	},
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetPhotoCmd)
	profileCmd.AddCommand(profileRemovePhotoCmd)
	rootCmd.AddCommand(profileCmd)
}
