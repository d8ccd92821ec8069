package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hazadus/quantum-radio/internal/tui"
	tuiapp "github.com/hazadus/quantum-radio/internal/tui/app"
)

// createTUICommand создает команду tui с привязкой к экземпляру приложения
func (app *Application) createTUICommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch TUI (Terminal User Interface)",
		Long:  `Launch the interactive terminal interface for browsing and playing the catalog.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.launchTUI(ctx)
		},
	}
}

func (app *Application) launchTUI(ctx context.Context) error {
	p, state, release := app.newPlayback()
	defer release()

	tuiApp := tui.NewApp(tuiapp.Deps{
		Catalog:  app.catalog(),
		State:    state,
		Controls: p,
		PageSize: app.Config.PageSize,
	})
	return tuiApp.Run(ctx)
}
