package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cc "github.com/ivanpirog/coloredcobra"
	"golang.org/x/term"

	"github.com/hazadus/quantum-radio/internal/api"
	"github.com/hazadus/quantum-radio/internal/config"
	"github.com/hazadus/quantum-radio/internal/data"
	"github.com/hazadus/quantum-radio/internal/engine/mpv"
	"github.com/hazadus/quantum-radio/internal/engine/stream"
	"github.com/hazadus/quantum-radio/internal/log"
	"github.com/hazadus/quantum-radio/internal/playback"
	"github.com/hazadus/quantum-radio/internal/player"
	"github.com/hazadus/quantum-radio/internal/track"
)

// Application содержит конфигурацию и зависимости команд. Клиент API и
// менеджер каталога создаются при первом обращении.
type Application struct {
	Config  *config.Config
	API     *api.Client
	Catalog *track.Manager
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &Application{}
	rootCmd := app.createRootCommand(ctx)

	// Цветная справка только для терминала
	if term.IsTerminal(int(os.Stdout.Fd())) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// setup загружает конфигурацию (если она еще не задана) и настраивает логирование
func (app *Application) setup(configPath string) error {
	if app.Config == nil {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
		}
		app.Config = cfg
	}

	return log.Setup(log.Options{
		Write: app.Config.Log.Write,
		Level: app.Config.Log.Level,
		JSON:  app.Config.Log.JSON,
		Dir:   app.Config.Log.Dir,
	})
}

// client возвращает клиент API каталога
func (app *Application) client() *api.Client {
	if app.API == nil {
		app.API = api.NewClient(app.Config.APIBaseURL, api.WithTimeout(app.Config.RequestTimeout))
	}
	return app.API
}

// catalog возвращает менеджер каталога со снимком в директории кэша
func (app *Application) catalog() *track.Manager {
	if app.Catalog == nil {
		var store track.Store
		if app.Config.CacheDir != "" {
			store = data.NewStore(app.Config.CacheDir, app.Config.CacheTTL)
		}
		app.Catalog = track.NewManager(app.client(), store)
	}
	return app.Catalog
}

// newEngine создает движок воспроизведения из конфигурации
func (app *Application) newEngine() player.Engine {
	if app.Config.Engine == config.EngineStream {
		return stream.New(app.Config.AudioBaseURL)
	}
	return mpv.New(app.Config.MpvPath)
}

// newPlayback создает плеер и связанное с ним состояние воспроизведения.
// Возвращаемая функция отвязывает состояние и уничтожает плеер.
func (app *Application) newPlayback() (*player.Player, *playback.State, func()) {
	p := player.New(app.newEngine())
	state := playback.New()
	state.SetVolume(app.Config.Volume)
	unbind := playback.Bind(state, p)

	return p, state, func() {
		unbind()
		p.Destroy()
	}
}
