package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/tibibalance/tibisync/internal/model"
	"github.com/tibibalance/tibisync/internal/repo"
	"github.com/tibibalance/tibisync/internal/ui"
)

var emotionCmd = &cobra.Command{
	Use:   "emotion",
	Short: "Record daily emotional state",
	Long: `Record and review daily emotional state.

One record exists per day; logging the same day twice replaces the
earlier mood.`,
}

var emotionDate string

var emotionLogCmd = &cobra.Command{
	Use:   "log <mood>",
	Short: "Log a mood (calm, happy, sad, angry, fear, disgust)",
	Long: `Log the mood for a day.

The --date flag accepts either an ISO date or natural language:

  tibisync emotion log happy
  tibisync emotion log sad --date 2026-08-27
  tibisync emotion log calm --date yesterday`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		date, err := resolveDate(emotionDate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		e := openEnv(ctx)
		defer e.close()

		emotions := repo.NewEmotions(e.client, e.store, e.provider, e.logger)
		mood := model.ParseMood(args[0])
		if err := emotions.Log(ctx, date, mood); err != nil {
			fmt.Fprintf(os.Stderr, "Error logging emotion: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Logged %s for %s\n", ui.RenderPass("✓"), mood, date)
	},
}

var emotionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached emotion records",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		e := openEnv(ctx)
		defer e.close()

		emotions := repo.NewEmotions(e.client, e.store, e.provider, e.logger)
		list, err := emotions.List(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing emotions: %v\n", err)
			os.Exit(1)
		}
		if len(list) == 0 {
			fmt.Printf("%s No emotions recorded\n", ui.RenderDim("∅"))
			return
		}
		for _, rec := range list {
			fmt.Printf("%s  %s\n", rec.Date, rec.Mood)
		}
	},
}

var emotionRmCmd = &cobra.Command{
	Use:   "rm <date>",
	Short: "Delete the record for a date",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		date, err := resolveDate(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		e := openEnv(ctx)
		defer e.close()

		emotions := repo.NewEmotions(e.client, e.store, e.provider, e.logger)
		if err := emotions.Delete(ctx, date); err != nil {
			fmt.Fprintf(os.Stderr, "Error deleting record: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Deleted record for %s\n", ui.RenderPass("✓"), date)
	},
}

// resolveDate turns an ISO date or a natural-language phrase like
// "yesterday" into DateLayout. Empty means today.
func resolveDate(s string) (string, error) {
	if s == "" {
		return time.Now().Format(model.DateLayout), nil
	}
	if t, err := time.Parse(model.DateLayout, s); err == nil {
		return t.Format(model.DateLayout), nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	r, err := w.Parse(s, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	if r == nil {
		return "", fmt.Errorf("could not understand date %q", s)
	}
	return r.Time.Format(model.DateLayout), nil
}

func init() {
	emotionLogCmd.Flags().StringVar(&emotionDate, "date", "", "date to log for (ISO or natural language, default today)")

	emotionCmd.AddCommand(emotionLogCmd)
	emotionCmd.AddCommand(emotionListCmd)
	emotionCmd.AddCommand(emotionRmCmd)
	rootCmd.AddCommand(emotionCmd)
}
