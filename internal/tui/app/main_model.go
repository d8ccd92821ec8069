// Package app содержит основную логику TUI приложения
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/quantum-radio/internal/api"
	"github.com/hazadus/quantum-radio/internal/catalog"
	"github.com/hazadus/quantum-radio/internal/playback"
	"github.com/hazadus/quantum-radio/internal/track"
	"github.com/hazadus/quantum-radio/internal/tui/editor"
	tuiPlayer "github.com/hazadus/quantum-radio/internal/tui/player"
	"github.com/hazadus/quantum-radio/internal/tui/tracklist"
)

// ScreenType определяет тип текущего экрана
type ScreenType int

// Константы для типов экранов
const (
	// CatalogScreen - экран каталога
	CatalogScreen ScreenType = iota
	// FilterScreen - форма фильтра
	FilterScreen
	// PlayerScreen - экран плеера
	PlayerScreen
)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	noticeStyle  = lipgloss.NewStyle().MarginLeft(2).Foreground(lipgloss.Color("214"))
)

// Catalog - источник каталога (track.Manager)
type Catalog interface {
	Load(ctx context.Context) (track.Result, error)
	Track(ctx context.Context, videoID string) (*api.Track, error)
}

// Deps - зависимости главной модели
type Deps struct {
	Catalog  Catalog
	State    *playback.State
	Controls tuiPlayer.Controls
	PageSize int
}

// PlaybackChangedMsg отправляется при изменении состояния воспроизведения
type PlaybackChangedMsg struct{}

// catalogLoadedMsg содержит результат загрузки каталога
type catalogLoadedMsg struct {
	result track.Result
	err    error
}

// MainModel представляет главную модель TUI
type MainModel struct {
	ctx  context.Context
	deps Deps

	currentScreen  ScreenType
	loading        bool
	spinner        spinner.Model
	notice         string
	view           *catalog.View
	tracklistModel *tracklist.Model
	editorModel    *editor.Model
	playerModel    *tuiPlayer.Model
	size           tea.WindowSizeMsg
}

// NewMainModel создает новую главную модель
func NewMainModel(ctx context.Context, deps Deps) *MainModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	view := catalog.NewView(deps.PageSize)

	return &MainModel{
		ctx:            ctx,
		deps:           deps,
		currentScreen:  CatalogScreen,
		loading:        true,
		spinner:        s,
		view:           view,
		tracklistModel: tracklist.NewModel(view, deps.State),
	}
}

// Init запускает загрузку каталога
func (m *MainModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCatalog())
}

func (m *MainModel) loadCatalog() tea.Cmd {
	ctx, source := m.ctx, m.deps.Catalog
	return func() tea.Msg {
		result, err := source.Load(ctx)
		return catalogLoadedMsg{result: result, err: err}
	}
}

// Screen возвращает текущий экран
func (m *MainModel) Screen() ScreenType {
	return m.currentScreen
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Уведомление показывается до первого нажатия клавиши
		m.notice = ""

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.currentScreen == CatalogScreen && !m.tracklistModel.Searching() {
				return m, tea.Quit
			}
		}
		if m.loading {
			return m, nil
		}

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case catalogLoadedMsg:
		m.loading = false
		m.notice = loadNotice(msg.result, msg.err)
		m.tracklistModel.SetCatalog(msg.result.Tracks, msg.result.Stats)
		return m, nil

	case PlaybackChangedMsg:
		return m, nil

	case tracklist.TrackSelectedMsg:
		t := msg.Track
		return m, m.openPlayer(t.VideoID, &t)

	case tracklist.OpenPlayerMsg:
		videoID := m.deps.State.Snapshot().Track.OrEmpty()
		return m, m.openPlayer(videoID, m.findTrack(videoID))

	case tracklist.OpenFilterMsg:
		m.currentScreen = FilterScreen
		m.editorModel = editor.NewModel(m.view.Filter(), catalog.Channels(m.view.Base()))
		if m.size.Width > 0 {
			m.editorModel.Update(m.size)
		}
		return m, m.editorModel.Init()

	case editor.AppliedMsg:
		m.tracklistModel.SetFilter(msg.Filter)
		m.currentScreen = CatalogScreen
		m.editorModel = nil
		return m, nil

	case editor.GoBackMsg:
		m.currentScreen = CatalogScreen
		m.editorModel = nil
		return m, nil

	case tuiPlayer.GoBackMsg:
		// Тики закрытого экрана больше не обрабатываются
		m.currentScreen = CatalogScreen
		m.playerModel = nil
		return m, nil

	case tuiPlayer.TickMsg:
		if m.playerModel == nil {
			return m, nil
		}
		_, cmd := m.playerModel.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.size = msg
		m.tracklistModel.Update(msg)
		if m.editorModel != nil {
			m.editorModel.Update(msg)
		}
		if m.playerModel != nil {
			m.playerModel.Update(msg)
		}
		return m, nil
	}

	// Передаем сообщение активной модели
	var cmd tea.Cmd
	switch m.currentScreen {
	case CatalogScreen:
		m.tracklistModel, cmd = m.tracklistModel.Update(msg)
	case FilterScreen:
		if m.editorModel != nil {
			m.editorModel, cmd = m.editorModel.Update(msg)
		}
	case PlayerScreen:
		if m.playerModel != nil {
			_, cmd = m.playerModel.Update(msg)
		}
	}
	return m, cmd
}

func (m *MainModel) openPlayer(videoID string, t *api.Track) tea.Cmd {
	if videoID == "" {
		return nil
	}
	m.currentScreen = PlayerScreen
	m.playerModel = tuiPlayer.NewModel(videoID, t, m.deps.State, m.deps.Controls, m.fetchTrack)
	if m.size.Width > 0 {
		m.playerModel.Update(m.size)
	}
	return m.playerModel.Init()
}

func (m *MainModel) fetchTrack(ctx context.Context, videoID string) (*api.Track, error) {
	if m.ctx != nil {
		ctx = m.ctx
	}
	return m.deps.Catalog.Track(ctx, videoID)
}

func (m *MainModel) findTrack(videoID string) *api.Track {
	for _, t := range m.view.Base() {
		if t.VideoID == videoID {
			return &t
		}
	}
	return nil
}

// loadNotice возвращает одноразовое уведомление о результате загрузки
func loadNotice(result track.Result, err error) string {
	switch {
	case err != nil:
		return "Failed to load tracks: " + err.Error()
	case result.Stale:
		return fmt.Sprintf("Backend unavailable (%v). Showing catalog saved %s",
			result.Err, result.SavedAt.Format(time.DateTime))
	default:
		return ""
	}
}

// View отображает интерфейс
func (m *MainModel) View() string {
	if m.loading {
		return fmt.Sprintf("\n  %s Loading tracks...\n", m.spinner.View())
	}

	var content string
	switch m.currentScreen {
	case CatalogScreen:
		content = m.tracklistModel.View()
	case FilterScreen:
		if m.editorModel == nil {
			return "Filter form is not initialized"
		}
		content = m.editorModel.View()
	case PlayerScreen:
		if m.playerModel == nil {
			return "Player is not initialized"
		}
		content = m.playerModel.View()
	default:
		return "Unknown screen"
	}

	if m.notice != "" {
		content = noticeStyle.Render(m.notice) + "\n" + content
	}
	return content
}
