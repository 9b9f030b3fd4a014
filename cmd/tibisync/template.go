package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tibibalance/tibisync/internal/repo"
	"github.com/tibibalance/tibisync/internal/ui"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Browse the shared habit template catalog",
	Long: `Browse the read-only habit template catalog.

Templates are shared across all users, synced while signed out and never
purged. Use 'template use' to create a habit from one.`,
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached templates",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		e := openEnv(ctx)
		defer e.close()

		templates := repo.NewTemplates(e.store)
		list, err := templates.List(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing templates: %v\n", err)
			os.Exit(1)
		}
		if len(list) == 0 {
			fmt.Printf("%s No templates cached; run 'tibisync sync' first\n", ui.RenderDim("∅"))
			return
		}
		for _, t := range list {
			fmt.Printf("%-30s %-10s %-8s %s\n", t.Name, t.Category, t.Frequency, ui.RenderDim(t.ID))
		}
	},
}

var templateUseCmd = &cobra.Command{
	Use:   "use <template-id>",
	Short: "Create a habit from a template",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		e := openEnv(ctx)
		defer e.close()

		templates := repo.NewTemplates(e.store)
		list, err := templates.List(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing templates: %v\n", err)
			os.Exit(1)
		}

		for _, t := range list {
			if t.ID != args[0] {
				continue
			}
			h := t.Instantiate()
			habits := repo.NewHabits(e.client, e.store, e.provider, e.logger)
			id, err := habits.Add(ctx, &h)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating habit: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s Created habit %s (%s) from template\n", ui.RenderPass("✓"), h.Name, id)
			return
		}
		fmt.Fprintf(os.Stderr, "Error: template %s not found\n", args[0])
		os.Exit(1)
	},
}

func init() {
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateUseCmd)
	rootCmd.AddCommand(templateCmd)
}
