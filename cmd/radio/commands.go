package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hazadus/quantum-radio/internal/config"
)

// createRootCommand создает корневую команду с настроенными подкомандами
func (app *Application) createRootCommand(ctx context.Context) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "radio",
		Short: "Browse and play the music discovery catalog",
		Long:  `A terminal client for the music discovery catalog: filter, sort and page tracks, play them and mirror their audio.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return app.setup(configPath)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the config file")

	// Добавляем команды, передавая в них экземпляр приложения и контекст
	rootCmd.AddCommand(app.createListCommand(ctx))
	rootCmd.AddCommand(app.createStatsCommand(ctx))
	rootCmd.AddCommand(app.createChannelsCommand(ctx))
	rootCmd.AddCommand(app.createShowCommand(ctx))
	rootCmd.AddCommand(app.createRandomCommand(ctx))
	rootCmd.AddCommand(app.createReloadCommand(ctx))
	rootCmd.AddCommand(app.createStatusCommand(ctx))
	rootCmd.AddCommand(app.createPlayCommand(ctx))
	rootCmd.AddCommand(app.createDownloadCommand(ctx))
	rootCmd.AddCommand(app.createTUICommand(ctx))

	return rootCmd
}
