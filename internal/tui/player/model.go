// Package player содержит модель экрана воспроизведения для TUI
package player

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/quantum-radio/internal/api"
	"github.com/hazadus/quantum-radio/internal/catalog"
	"github.com/hazadus/quantum-radio/internal/playback"
	"github.com/hazadus/quantum-radio/internal/player"
	"github.com/hazadus/quantum-radio/internal/utils"
)

// Шаги управления с клавиатуры
const (
	SeekStep   = 10 * time.Second
	VolumeStep = 0.1
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	trackInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff0000")).
			Bold(true)
)

// Controls - операции плеера, которые не проходят через состояние воспроизведения
type Controls interface {
	Sample() player.Progress
	SeekTo(seconds float64)
}

// Fetcher загружает трек по идентификатору
type Fetcher func(ctx context.Context, videoID string) (*api.Track, error)

// GoBackMsg отправляется для возврата к каталогу
type GoBackMsg struct{}

// TickMsg - периодический опрос позиции воспроизведения. Тики принадлежат
// экрану, который их запустил: тики закрытого экрана отбрасываются.
type TickMsg struct {
	Screen uint64
}

// trackMsg содержит загруженный трек
type trackMsg struct {
	screen uint64
	track  *api.Track
	err    error
}

var screenSeq atomic.Uint64

// Model представляет модель экрана воспроизведения
type Model struct {
	id       uint64
	videoID  string
	track    *api.Track
	fetchErr error

	state    *playback.State
	controls Controls
	fetch    Fetcher

	progressBar progress.Model
	status      player.Progress
	width       int
	height      int
}

// NewModel создает экран для трека videoID. track может быть nil: тогда
// он загружается через fetch.
func NewModel(videoID string, track *api.Track, state *playback.State, controls Controls, fetch Fetcher) *Model {
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	return &Model{
		id:          screenSeq.Add(1),
		videoID:     videoID,
		track:       track,
		state:       state,
		controls:    controls,
		fetch:       fetch,
		progressBar: prog,
	}
}

// ID возвращает идентификатор экрана, которым помечены его тики
func (m *Model) ID() uint64 {
	return m.id
}

// VideoID возвращает идентификатор трека экрана
func (m *Model) VideoID() string {
	return m.videoID
}

// Init запускает загрузку трека и опрос позиции
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tick()}
	if m.track == nil && m.fetch != nil {
		cmds = append(cmds, m.fetchTrack())
	}
	return tea.Batch(cmds...)
}

func (m *Model) tick() tea.Cmd {
	id := m.id
	return tea.Tick(player.PollInterval, func(time.Time) tea.Msg {
		return TickMsg{Screen: id}
	})
}

func (m *Model) fetchTrack() tea.Cmd {
	id, videoID, fetch := m.id, m.videoID, m.fetch
	return func() tea.Msg {
		track, err := fetch(context.Background(), videoID)
		return trackMsg{screen: id, track: track, err: err}
	}
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = min(60, msg.Width-10)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case TickMsg:
		if msg.Screen != m.id {
			return m, nil
		}
		m.status = m.controls.Sample()
		return m, m.tick()

	case trackMsg:
		if msg.screen != m.id {
			return m, nil
		}
		m.track, m.fetchErr = msg.track, msg.err
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "esc":
		return func() tea.Msg { return GoBackMsg{} }

	case " ":
		m.state.TogglePlay()

	case "+", "=":
		m.state.SetVolume(m.state.Snapshot().Volume + VolumeStep)

	case "-", "_":
		m.state.SetVolume(m.state.Snapshot().Volume - VolumeStep)

	case "f", "right":
		m.seek(SeekStep)

	case "b", "left":
		m.seek(-SeekStep)
	}
	return nil
}

func (m *Model) seek(delta time.Duration) {
	current := m.controls.Sample()
	target := max(0, current.Current+delta)
	if current.Total > 0 {
		target = min(target, current.Total)
	}
	m.controls.SeekTo(target.Seconds())
	m.status = current
	m.status.Current = target
}

// View отображает модель
func (m *Model) View() string {
	title := titleStyle.Render("♪ Now Playing")

	var info string
	switch {
	case m.track != nil:
		info = trackInfoStyle.Render(fmt.Sprintf(
			"%s\n%s\n%s views • %s likes",
			utils.Truncate(m.track.Title, 70),
			m.track.ChannelTitle,
			catalog.FormatNumber(int64(m.track.ViewCount)),
			catalog.FormatNumber(int64(m.track.Likes)),
		))
	case m.fetchErr != nil:
		info = errorStyle.Render(m.fetchErr.Error()) + "\n" + trackInfoStyle.Render(m.videoID)
	default:
		info = trackInfoStyle.Render("Loading track info... " + m.videoID)
	}

	snap := m.state.Snapshot()
	status := "⏸ Paused"
	if snap.Playing {
		status = "▶ Playing"
	}
	if current, ok := snap.Track.Get(); !ok || current != m.videoID {
		status = "■ Stopped"
	}
	statusText := statusStyle.Render(fmt.Sprintf("%s • Volume %d%%", status, player.VolumeLevel(snap.Volume)))

	timeText := fmt.Sprintf("%s / %s",
		utils.FormatDuration(m.status.Current),
		utils.FormatDuration(m.status.Total))

	controls := controlsStyle.Render("space: play/pause • +/-: volume • f/b: seek • q/esc: back")

	return fmt.Sprintf("%s\n%s\n%s\n\n%s\n%s\n%s",
		title,
		info,
		statusText,
		m.progressBar.ViewAs(m.status.Fraction()),
		timeText,
		controls,
	)
}
