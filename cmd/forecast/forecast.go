// Package forecast implements the command that refreshes spot forecasts on demand.
package forecast

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nabos/fishclub/internal/conf"
	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/forecast"
	"github.com/nabos/fishclub/internal/notification"
	"github.com/nabos/fishclub/internal/stormglass"
)

// Command creates the forecast command group.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Manage marine forecasts for fishing spots",
	}
	cmd.AddCommand(refreshCommand(settings))
	return cmd
}

func refreshCommand(settings *conf.Settings) *cobra.Command {
	var slug string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch today's forecast for one spot or every active spot",
		Long: `Fetch today's hourly forecast from Stormglass and store it.
Each spot costs one request from the daily quota, including failed attempts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := datastore.Open(settings)
			if err != nil {
				return err
			}
			defer db.Close()

			notifier, err := notification.NewServiceFromSettings(settings)
			if err != nil {
				return err
			}

			client := stormglass.NewClient(stormglass.ConfigFromSettings(settings))
			defer client.Close()

			spots := datastore.NewSpotRepository(db.DB())
			service := forecast.NewService(client, datastore.NewForecastRepository(db.DB()), spots, forecast.ConfigFromSettings(settings))
			service.SetNotifier(notifier)

			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			if slug = strings.TrimSpace(slug); slug != "" {
				spot, err := spots.GetBySlug(ctx, slug)
				if err != nil {
					return err
				}
				created, err := service.Refresh(ctx, spot)
				if err != nil {
					fmt.Fprintf(out, "[FAIL] %s: %v\n", spot.Slug, err)
					return err
				}
				fmt.Fprintf(out, "[OK] %s: %d hours created\n", spot.Slug, created)
				return nil
			}

			results, err := service.RefreshAll(ctx)
			if err != nil {
				return err
			}
			failures := 0
			for _, r := range results {
				if r.Err != nil {
					failures++
					fmt.Fprintf(out, "[FAIL] %s: %v\n", r.Spot, r.Err)
					continue
				}
				fmt.Fprintf(out, "[OK] %s: %d hours created\n", r.Spot, r.Created)
			}

			used, err := service.QuotaUsedToday(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Spots: %d | Failures: %d | Quota: %d/%d\n", len(results), failures, used, service.DailyQuota())
			if failures > 0 {
				return fmt.Errorf("%d of %d spots failed", failures, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&slug, "spot", "", "Refresh only the spot with this slug")

	return cmd
}
