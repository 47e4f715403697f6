// Package wiki implements the species maintenance commands backed by Wikipedia.
package wiki

import (
	"github.com/spf13/cobra"

	"github.com/nabos/fishclub/internal/conf"
	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/wikipedia"
)

// Command creates the wiki command group.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wiki",
		Short: "Fill Wikipedia titles and species summaries",
	}
	cmd.AddCommand(fillTitlesCommand(settings), updateCommand(settings))
	return cmd
}

func fillTitlesCommand(settings *conf.Settings) *cobra.Command {
	var opts wikipedia.FillOptions

	cmd := &cobra.Command{
		Use:   "fill-titles",
		Short: "Guess and store Wikipedia page titles for species",
		Long: `Search Wikipedia for each species name and store the first page that exists.
Without --force only species lacking a title are visited.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBatch(cmd, settings, func(b *wikipedia.Batch) error {
				_, err := b.FillTitles(cmd.Context(), opts)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Also revisit species that already have a title")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Visit at most N species (0 for all)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report guesses without saving")

	return cmd
}

func updateCommand(settings *conf.Settings) *cobra.Command {
	var opts wikipedia.UpdateOptions

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Fill species summaries, images and scientific names from Wikipedia",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBatch(cmd, settings, func(b *wikipedia.Batch) error {
				_, err := b.Update(cmd.Context(), opts)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&opts.Slug, "slug", "", "Only update the species with this slug")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite existing summaries and images")

	return cmd
}

// withBatch opens the datastore and a Wikipedia client for the duration of fn.
// Per-item lines and the totals line go to the command's stdout.
func withBatch(cmd *cobra.Command, settings *conf.Settings, fn func(*wikipedia.Batch) error) error {
	db, err := datastore.Open(settings)
	if err != nil {
		return err
	}
	defer db.Close()

	client := wikipedia.NewClient(wikipedia.ConfigFromSettings(settings))
	defer client.Close()

	species := datastore.NewSpeciesRepository(db.DB())
	enricher := wikipedia.NewEnricher(client, species)
	batch := wikipedia.NewBatch(client, enricher, species, settings.Wikipedia.RateLimit, cmd.OutOrStdout())

	return fn(batch)
}
