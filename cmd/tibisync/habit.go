package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tibibalance/tibisync/internal/cache"
	"github.com/tibibalance/tibisync/internal/model"
	"github.com/tibibalance/tibisync/internal/repo"
	"github.com/tibibalance/tibisync/internal/ui"
)

var habitCmd = &cobra.Command{
	Use:   "habit",
	Short: "Manage habits",
	Long: `Create, list and update habits.

Writes go to the remote document store first; the local cache is updated
once the remote write succeeds, so other devices converge through their
subscriptions.`,
}

var (
	habitDesc      string
	habitCategory  string
	habitFrequency string
	habitNotify    bool
)

var habitAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a habit",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		e := openEnv(ctx)
		defer e.close()

		h := &model.Habit{
			Name:        args[0],
			Description: habitDesc,
			Category:    model.ParseCategory(habitCategory),
			Frequency:   model.ParseFrequency(habitFrequency),
			Notify:      habitNotify,
		}

		habits := repo.NewHabits(e.client, e.store, e.provider, e.logger)
		id, err := habits.Add(ctx, h)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating habit: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Created habit %s (%s)\n", ui.RenderPass("✓"), args[0], id)
	},
}

var habitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached habits",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		e := openEnv(ctx)
		defer e.close()

		habits := repo.NewHabits(e.client, e.store, e.provider, e.logger)
		list, err := habits.List(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing habits: %v\n", err)
			os.Exit(1)
		}
		if len(list) == 0 {
			fmt.Printf("%s No habits cached\n", ui.RenderDim("∅"))
			return
		}
		for _, h := range list {
			bell := " "
			if h.Notify {
				bell = "🔔"
			}
			fmt.Printf("%s %-30s %-10s %-8s %s\n", bell, h.Name, h.Category, h.Frequency, ui.RenderDim(h.ID))
		}
	},
}

var habitDoneCmd = &cobra.Command{
	Use:   "done <habit-id>",
	Short: "Record today's occurrence of a habit as completed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		e := openEnv(ctx)
		defer e.close()

		habits := repo.NewHabits(e.client, e.store, e.provider, e.logger)
		h, err := habits.Get(ctx, args[0])
		if errors.Is(err, cache.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "Error: habit %s not found\n", args[0])
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading habit: %v\n", err)
			os.Exit(1)
		}

		activities := repo.NewActivities(e.client, e.store, e.provider, e.logger)
		id, err := activities.Add(ctx, &model.HabitActivity{
			HabitID:      h.ID,
			ScheduledFor: time.Now(),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error scheduling occurrence: %v\n", err)
			os.Exit(1)
		}
		if err := activities.Complete(ctx, h.ID, id); err != nil {
			fmt.Fprintf(os.Stderr, "Error completing occurrence: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s %s done for today\n", ui.RenderPass("✓"), h.Name)
	},
}

var habitRmCmd = &cobra.Command{
	Use:   "rm <habit-id>",
	Short: "Delete a habit",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		e := openEnv(ctx)
		defer e.close()

		habits := repo.NewHabits(e.client, e.store, e.provider, e.logger)
		if err := habits.Delete(ctx, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error deleting habit: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Deleted %s\n", ui.RenderPass("✓"), args[0])
	},
}

var habitNotifyCmd = &cobra.Command{
	Use:   "notify <habit-id> <on|off>",
	Short: "Toggle a habit's notifications",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		var enabled bool
		switch args[1] {
		case "on":
			enabled = true
		case "off":
			enabled = false
		default:
			fmt.Fprintf(os.Stderr, "Error: expected 'on' or 'off', got %q\n", args[1])
			os.Exit(1)
		}

		ctx := context.Background()
		e := openEnv(ctx)
		defer e.close()

		habits := repo.NewHabits(e.client, e.store, e.provider, e.logger)
		if err := habits.SetNotify(ctx, args[0], enabled); err != nil {
			fmt.Fprintf(os.Stderr, "Error updating habit: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Notifications %s for %s\n", ui.RenderPass("✓"), args[1], args[0])
	},
}

func init() {
	habitAddCmd.Flags().StringVar(&habitDesc, "desc", "", "habit description")
	habitAddCmd.Flags().StringVar(&habitCategory, "category", "", "category (health, productivity, wellness)")
	habitAddCmd.Flags().StringVar(&habitFrequency, "frequency", "daily", "frequency (daily, weekly)")
	habitAddCmd.Flags().BoolVar(&habitNotify, "notify", false, "enable notifications")

	habitCmd.AddCommand(habitAddCmd)
	habitCmd.AddCommand(habitListCmd)
	habitCmd.AddCommand(habitDoneCmd)
	habitCmd.AddCommand(habitRmCmd)
	habitCmd.AddCommand(habitNotifyCmd)
	rootCmd.AddCommand(habitCmd)
}
