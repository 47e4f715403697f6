// Package seed implements the command that loads the official species rules.
package seed

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nabos/fishclub/internal/conf"
	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/seed"
)

// Command creates the seed command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create or update species with the official competition rules",
		Long: `Create or update the 17 competition species with their minimum
qualifying length, points per centimetre and category. Species are matched
by name; running the command again changes nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := seed.Rules()
			if err != nil {
				return err
			}

			db, err := datastore.Open(settings)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := seed.Apply(cmd.Context(), datastore.NewSpeciesRepository(db.DB()), rules)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Species rules applied: %d created, %d updated, %d unchanged\n",
				res.Created, res.Updated, len(rules)-res.Created-res.Updated)
			return nil
		},
	}
}
