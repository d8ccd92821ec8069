package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hazadus/quantum-radio/internal/log"
	"github.com/hazadus/quantum-radio/internal/mirror"
	"github.com/hazadus/quantum-radio/internal/playback"
	"github.com/hazadus/quantum-radio/internal/player"
	tuiPlayer "github.com/hazadus/quantum-radio/internal/tui/player"
	"github.com/hazadus/quantum-radio/internal/utils"
)

const (
	progressBarWidth = 30
	// ctrlC - в raw режиме Ctrl+C приходит символом, а не сигналом
	ctrlC = 0x03
)

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "play [videoId]",
		Short: "Play a track by its video ID",
		Long:  `Play a catalog track by its YouTube video ID or URL using the configured engine.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			videoID, err := mirror.ParseVideoID(args[0])
			if err != nil {
				return err
			}
			return app.playByID(ctx, videoID)
		},
	}
}

// enableRawMode переводит терминал в режим raw (без буферизации и echo).
// Возвращает функцию восстановления; без терминала управление недоступно.
func enableRawMode() (restore func(), ok bool) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, false
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		log.Warnf("play: не удалось включить raw режим: %v", err)
		return func() {}, false
	}
	return func() { _ = term.Restore(fd, state) }, true
}

// readKeys читает одиночные символы без ожидания Enter и закрывает канал,
// когда stdin закончился
func readKeys(keys chan<- byte) {
	defer close(keys)
	buffer := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buffer); err != nil {
			return
		}
		keys <- buffer[0]
	}
}

func (app *Application) playByID(ctx context.Context, videoID string) error {
	t, err := app.catalog().Track(ctx, videoID)
	if err != nil {
		log.Warnf("play: не удалось получить трек %s: %v", videoID, err)
		fmt.Printf("🎵 Playing %s\n", videoID)
	} else {
		fmt.Printf("🎵 Playing %s - %s\n", t.Title, t.ChannelTitle)
	}

	p, state, release := app.newPlayback()
	defer release()

	errCh := make(chan error, 1)
	p.OnError(func(code player.ErrorCode) {
		select {
		case errCh <- fmt.Errorf("ошибка воспроизведения %s: %s", videoID, code):
		default:
		}
	})

	// Плеер загрузит видео и начнет воспроизведение, когда будет готов
	state.SetCurrentTrack(videoID)

	fmt.Println("🎮 Controls: [space] play/pause • [+/-] volume • [f/b] seek 10s • [q] quit")
	fmt.Println()

	restore, interactive := enableRawMode()
	defer restore()

	var keys chan byte
	if interactive {
		keys = make(chan byte)
		go readKeys(keys)
	}

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	progress := p.Poll(pollCtx, player.PollInterval)

	// В raw режиме перевод строки не возвращает каретку, поэтому "\r\n"
	for {
		select {
		case <-ctx.Done():
			fmt.Print("\r\n")
			return nil

		case err := <-errCh:
			fmt.Print("\r\n")
			return err

		case pr, ok := <-progress:
			if !ok {
				return nil
			}
			printProgress(pr, state.Snapshot())

		case key, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			if quit := handleKey(key, state, p); quit {
				fmt.Print("\r\n")
				return nil
			}
			printProgress(p.Sample(), state.Snapshot())
		}
	}
}

// handleKey применяет нажатую клавишу. Возвращает true для выхода.
func handleKey(key byte, state *playback.State, p *player.Player) bool {
	switch key {
	case ' ':
		state.TogglePlay()
	case '+', '=':
		state.SetVolume(state.Snapshot().Volume + tuiPlayer.VolumeStep)
	case '-', '_':
		state.SetVolume(state.Snapshot().Volume - tuiPlayer.VolumeStep)
	case 'f':
		seekBy(p, tuiPlayer.SeekStep)
	case 'b':
		seekBy(p, -tuiPlayer.SeekStep)
	case 'q', 'Q', ctrlC:
		return true
	}
	return false
}

// seekBy перематывает на delta в пределах длительности трека
func seekBy(p *player.Player, delta time.Duration) {
	current := p.Sample()
	target := max(0, current.Current+delta)
	if current.Total > 0 {
		target = min(target, current.Total)
	}
	p.SeekTo(target.Seconds())
}

// printProgress перерисовывает строку прогресса
func printProgress(pr player.Progress, snap playback.Snapshot) {
	fmt.Printf("\r%s %s %s / %s  Volume %3d%%  ",
		playIcon(snap.Playing),
		progressBar(pr.Fraction(), progressBarWidth),
		utils.FormatDuration(pr.Current),
		utils.FormatDuration(pr.Total),
		player.VolumeLevel(snap.Volume),
	)
}

func playIcon(playing bool) string {
	if playing {
		return "▶"
	}
	return "⏸"
}

// progressBar рисует полосу прогресса шириной width
func progressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	filled = min(width, max(0, filled))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
