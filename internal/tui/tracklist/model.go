// Package tracklist содержит модель экрана каталога треков для TUI
package tracklist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/quantum-radio/internal/api"
	"github.com/hazadus/quantum-radio/internal/catalog"
	"github.com/hazadus/quantum-radio/internal/playback"
	"github.com/hazadus/quantum-radio/internal/utils"
)

// EmptyText - текст при пустой выборке
const EmptyText = "No tracks found matching your filters"

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2).Bold(true).Foreground(lipgloss.Color("205"))
	statsStyle        = lipgloss.NewStyle().MarginLeft(2).Foreground(lipgloss.Color("241"))
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	filterStyle       = lipgloss.NewStyle().MarginLeft(2).Foreground(lipgloss.Color("39"))
	emptyStyle        = lipgloss.NewStyle().Margin(1, 0, 1, 4).Foreground(lipgloss.Color("214"))
	nowPlayingStyle   = lipgloss.NewStyle().MarginLeft(2).Foreground(lipgloss.Color("46"))
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
)

// TrackSelectedMsg отправляется при выборе трека для воспроизведения
type TrackSelectedMsg struct {
	Track api.Track
}

// OpenFilterMsg отправляется при открытии формы фильтра
type OpenFilterMsg struct{}

// OpenPlayerMsg отправляется при переходе к текущему треку
type OpenPlayerMsg struct{}

// trackItem реализует интерфейс list.Item для трека
type trackItem struct {
	track  api.Track
	number int
}

func (i trackItem) FilterValue() string {
	return i.track.Title + " " + i.track.ChannelTitle
}

// trackItemDelegate реализует отображение элементов списка
type trackItemDelegate struct {
	state *playback.State
}

func (d trackItemDelegate) Height() int                             { return 1 }
func (d trackItemDelegate) Spacing() int                            { return 0 }
func (d trackItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d trackItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(trackItem)
	if !ok {
		return
	}

	marker := " "
	if current, ok := d.state.Snapshot().Track.Get(); ok && current == i.track.VideoID {
		marker = "♪"
	}

	// Номер | Название | Канал | Просмотры | Лайки
	str := fmt.Sprintf("%s %-4d %-44s %-22s %7s %7s",
		marker,
		i.number,
		utils.Truncate(i.track.Title, 44),
		utils.Truncate(i.track.ChannelTitle, 22),
		catalog.FormatNumber(int64(i.track.ViewCount)),
		catalog.FormatNumber(int64(i.track.Likes)))

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}

// Model представляет модель экрана каталога
type Model struct {
	view      *catalog.View
	state     *playback.State
	stats     *api.Stats
	list      list.Model
	search    textinput.Model
	searching bool
}

// NewModel создает модель каталога поверх представления view
func NewModel(view *catalog.View, state *playback.State) *Model {
	l := list.New(nil, trackItemDelegate{state: state}, 0, 0)
	l.Title = "Quantum Radio"
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetShowPagination(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.SetHeight(view.PageSize() + 2)

	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "title, channel or description"

	m := &Model{
		view:   view,
		state:  state,
		list:   l,
		search: search,
	}
	m.RefreshData()
	return m
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// SetCatalog заменяет список треков и статистику
func (m *Model) SetCatalog(tracks []api.Track, stats *api.Stats) {
	m.stats = stats
	m.view.SetTracks(tracks)
	m.RefreshData()
}

// SetFilter применяет фильтр из формы
func (m *Model) SetFilter(f catalog.Filter) {
	m.view.SetFilter(f)
	m.RefreshData()
}

// RefreshData перестраивает элементы списка по текущей странице
func (m *Model) RefreshData() {
	page := m.view.Current()
	offset := (page.Page - 1) * page.Size

	items := make([]list.Item, len(page.Tracks))
	for i, t := range page.Tracks {
		items[i] = trackItem{track: t, number: offset + i + 1}
	}

	m.list.SetItems(items)
	m.list.ResetSelected()
}

// Searching сообщает, открыта ли строка поиска
func (m *Model) Searching() bool {
	return m.searching
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(min(m.view.PageSize()+2, max(3, msg.Height-10)))
		m.search.Width = msg.Width - 12
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) updateSearch(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		query := strings.TrimSpace(m.search.Value())
		m.view.UpdateFilter(func(f *catalog.Filter) { f.Search = query })
		m.RefreshData()
		return m, nil

	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue(m.view.Filter().Search)
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "/":
		m.searching = true
		m.search.SetValue(m.view.Filter().Search)
		m.search.CursorEnd()
		return m.search.Focus(), true

	case "f":
		return func() tea.Msg { return OpenFilterMsg{} }, true

	case "s":
		m.view.UpdateFilter(func(f *catalog.Filter) { f.SortBy = f.NextSortKey() })

	case "o":
		m.view.UpdateFilter(func(f *catalog.Filter) { f.Order = f.Order.Toggled() })

	case "#":
		m.view.UpdateFilter(func(f *catalog.Filter) { f.HasHashtags = !f.HasHashtags })

	case "r":
		m.view.Shuffle()

	case "x":
		m.view.SetFilter(m.view.Filter().Cleared())
		m.search.SetValue("")

	case "n", "right", "pgdown":
		if !m.view.NextPage() {
			return nil, true
		}

	case "p", "left", "pgup":
		if !m.view.PrevPage() {
			return nil, true
		}

	case " ":
		if m.state.Snapshot().Track.IsPresent() {
			m.state.TogglePlay()
		}
		return nil, true

	case "tab":
		if m.state.Snapshot().Track.IsPresent() {
			return func() tea.Msg { return OpenPlayerMsg{} }, true
		}
		return nil, true

	case "enter":
		item, ok := m.list.SelectedItem().(trackItem)
		if !ok {
			return nil, true
		}
		m.state.SetCurrentTrack(item.track.VideoID)
		return func() tea.Msg { return TrackSelectedMsg{Track: item.track} }, true

	default:
		return nil, false
	}

	m.RefreshData()
	return nil, true
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Quantum Radio"))
	b.WriteString("\n")
	b.WriteString(statsStyle.Render(statsLine(m.stats)))
	b.WriteString("\n")
	b.WriteString(filterStyle.Render(m.filterLine()))
	b.WriteString("\n")

	if m.searching {
		b.WriteString("  " + m.search.View() + "\n")
	}

	page := m.view.Current()
	switch {
	case page.Total == 0 && len(m.view.Base()) == 0:
		b.WriteString(emptyStyle.Render("No tracks available"))
		b.WriteString("\n")
	case page.Total == 0:
		b.WriteString(emptyStyle.Render(EmptyText + "\nPress x to clear filters"))
		b.WriteString("\n")
	default:
		b.WriteString("\n" + m.list.View() + "\n")
		b.WriteString(statsStyle.Render(fmt.Sprintf("Page %d of %d • %d tracks", page.Page, page.TotalPages, page.Total)))
		b.WriteString("\n")
	}

	if line := m.nowPlaying(); line != "" {
		b.WriteString(nowPlayingStyle.Render(line))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(
		"enter: play • space: pause • tab: player • /: search • f: filters • s: sort • o: order\n" +
			"#: hashtags • r: shuffle • x: clear • n/p: page • q: quit"))
	return b.String()
}

func (m *Model) filterLine() string {
	f := m.view.Filter()
	parts := []string{fmt.Sprintf("Sort: %s %s", f.SortBy, f.Order)}
	if f.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", f.Search))
	}
	if f.Channel != "" {
		parts = append(parts, "channel "+f.Channel)
	}
	if v, ok := f.MinViews.Get(); ok {
		parts = append(parts, "views ≥ "+catalog.FormatNumber(v))
	}
	if f.HasHashtags {
		parts = append(parts, "with hashtags")
	}
	if n := f.Active(); n > 0 {
		parts = append(parts, fmt.Sprintf("(%d active)", n))
	}
	return strings.Join(parts, " • ")
}

func (m *Model) nowPlaying() string {
	snap := m.state.Snapshot()
	videoID, ok := snap.Track.Get()
	if !ok {
		return ""
	}

	title := videoID
	for _, t := range m.view.Base() {
		if t.VideoID == videoID {
			title = t.Title + " - " + t.ChannelTitle
			break
		}
	}

	status := "Paused"
	if snap.Playing {
		status = "Playing"
	}
	return fmt.Sprintf("%s: %s", status, utils.Truncate(title, 70))
}

func statsLine(stats *api.Stats) string {
	if stats == nil {
		return "No statistics"
	}
	return fmt.Sprintf("%s tracks • %s views • %s likes • %s channels",
		catalog.FormatNumber(int64(stats.TotalTracks)),
		catalog.FormatNumber(int64(stats.TotalViews)),
		catalog.FormatNumber(int64(stats.TotalLikes)),
		catalog.FormatNumber(int64(stats.UniqueChannels)))
}
