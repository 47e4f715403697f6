// Package serve implements the command that runs the HTTP API and the forecast scheduler.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nabos/fishclub/internal/api"
	v2 "github.com/nabos/fishclub/internal/api/v2"
	"github.com/nabos/fishclub/internal/buildinfo"
	"github.com/nabos/fishclub/internal/conf"
	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/forecast"
	"github.com/nabos/fishclub/internal/logger"
	"github.com/nabos/fishclub/internal/mqtt"
	"github.com/nabos/fishclub/internal/notification"
	"github.com/nabos/fishclub/internal/observability"
	"github.com/nabos/fishclub/internal/stormglass"
	"github.com/nabos/fishclub/internal/suncalc"
	"github.com/nabos/fishclub/internal/telemetry"
	"github.com/nabos/fishclub/internal/wikipedia"
)

// refreshTimeout bounds one scheduled RefreshAll run.
const refreshTimeout = 5 * time.Minute

// Command creates the serve command.
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and periodic forecast refreshes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				settings.WebServer.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, settings, build)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "HTTP port, overrides webserver.port")

	return cmd
}

func run(ctx context.Context, settings *conf.Settings, build *buildinfo.Context) error {
	log := logger.Global().Module("serve")
	log.Info("starting fishclub",
		logger.String("version", build.Version()),
		logger.String("name", settings.Main.Name))

	if err := telemetry.InitSentry(settings, telemetry.Options{Release: build.Version()}); err != nil {
		return err
	}
	defer telemetry.Flush()

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	db, err := datastore.Open(settings)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("failed to close database", logger.Error(err))
		}
	}()

	notifier, err := notification.NewServiceFromSettings(settings)
	if err != nil {
		return err
	}
	notifier.SetMetrics(metrics.Notification)

	wikiClient := wikipedia.NewClient(wikipedia.ConfigFromSettings(settings))
	wikiClient.SetMetrics(metrics.Enrichment)
	defer wikiClient.Close()

	enricher := wikipedia.NewEnricher(wikiClient, datastore.NewSpeciesRepository(db.DB()))
	enricher.SetRecorder(metrics.Enrichment)

	apiOpts := []v2.Option{
		v2.WithEnricher(enricher),
		v2.WithSunCalc(suncalc.NewSunCalc(settings.GetLocation())),
	}

	if settings.Stormglass.APIKey != "" {
		sg := stormglass.NewClient(stormglass.ConfigFromSettings(settings))
		sg.SetRecorder(metrics.Forecast)
		defer sg.Close()

		forecasts := forecast.NewService(sg,
			datastore.NewForecastRepository(db.DB()),
			datastore.NewSpotRepository(db.DB()),
			forecast.ConfigFromSettings(settings))
		forecasts.SetMetrics(metrics.Forecast)
		forecasts.SetNotifier(notifier)
		apiOpts = append(apiOpts, v2.WithForecaster(forecasts))

		scheduler := forecast.NewScheduler(forecasts, settings.Forecast.Interval, refreshTimeout)
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer scheduler.Stop()
	} else {
		log.Warn("stormglass api key not configured, forecasts disabled")
	}

	if settings.MQTT.Enabled {
		cfg := mqtt.ConfigFromSettings(settings)
		client := mqtt.NewClient(cfg, metrics.MQTT)
		if err := client.Connect(ctx); err != nil {
			// the publisher reconnects on the next catch
			log.Warn("initial mqtt connection failed", logger.Error(err))
		}
		publisher := mqtt.NewPublisher(client, cfg.Topic)
		defer publisher.Close()
		apiOpts = append(apiOpts, v2.WithPublisher(publisher))
	}

	if !settings.WebServer.Enabled {
		log.Info("web server disabled, running scheduled jobs only")
		<-ctx.Done()
		return nil
	}

	server, err := api.New(settings,
		api.WithDataStore(db),
		api.WithMetrics(metrics),
		api.WithAPIOptions(apiOpts...))
	if err != nil {
		return err
	}

	return server.Run(ctx)
}
