// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/quantum-radio/internal/playback"
	"github.com/hazadus/quantum-radio/internal/tui/app"
)

// App представляет основное TUI приложение
type App struct {
	deps app.Deps
}

// NewApp создает новый экземпляр TUI приложения
func NewApp(deps app.Deps) *App {
	return &App{deps: deps}
}

// Run запускает TUI приложение и блокируется до выхода из него
func (tuiApp *App) Run(ctx context.Context) error {
	model := app.NewMainModel(ctx, tuiApp.deps)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Изменения состояния приходят и из горутин плеера, поэтому
	// перерисовка запрашивается асинхронно
	unsubscribe := tuiApp.deps.State.Subscribe(func(playback.Change) {
		go p.Send(app.PlaybackChangedMsg{})
	})
	defer unsubscribe()

	_, err := p.Run()
	return err
}
