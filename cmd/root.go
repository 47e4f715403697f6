package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nabos/fishclub/cmd/forecast"
	"github.com/nabos/fishclub/cmd/notify"
	"github.com/nabos/fishclub/cmd/ranking"
	"github.com/nabos/fishclub/cmd/seed"
	"github.com/nabos/fishclub/cmd/serve"
	"github.com/nabos/fishclub/cmd/version"
	"github.com/nabos/fishclub/cmd/wiki"
	"github.com/nabos/fishclub/internal/buildinfo"
	"github.com/nabos/fishclub/internal/conf"
	"github.com/nabos/fishclub/internal/logger"
)

// RootCommand creates and returns the root command. settings is filled in
// before any subcommand runs, so subcommands may keep the pointer.
func RootCommand(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "fishclub",
		Short:         "Fishing club leaderboard, species catalogue and spot forecasts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, &configFile); err != nil {
		panic(err)
	}

	versionCmd := version.Command(build)

	rootCmd.AddCommand(
		serve.Command(settings, build),
		seed.Command(settings),
		wiki.Command(settings),
		forecast.Command(settings),
		ranking.Command(settings),
		notify.Command(settings),
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// version needs neither configuration nor logging
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return initialize(settings, configFile)
	}

	return rootCmd
}

// initialize loads the configuration and sets up the global logger.
// Command-line flags take precedence because they are bound into viper.
func initialize(settings *conf.Settings, configFile string) error {
	if configFile != "" {
		conf.SetConfigFile(configFile)
	}

	loaded, err := conf.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	*settings = *loaded

	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
	}
	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetGlobal(central)

	return nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, configFile *string) error {
	rootCmd.PersistentFlags().StringVarP(configFile, "config", "c", "", "Path to config.yaml (default: search standard locations)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().String("database", "", "Database backend: sqlite or mysql")
	rootCmd.PersistentFlags().String("sqlite-path", "", "Path to the SQLite database file")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	if err := viper.BindPFlag("database.type", rootCmd.PersistentFlags().Lookup("database")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	if err := viper.BindPFlag("database.sqlite.path", rootCmd.PersistentFlags().Lookup("sqlite-path")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
