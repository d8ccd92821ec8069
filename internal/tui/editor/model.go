// Package editor содержит модель формы фильтра каталога для TUI
package editor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/hazadus/quantum-radio/internal/catalog"
)

// maxSuggestions - сколько подсказок каналов показывать
const maxSuggestions = 5

var (
	titleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Margin(1, 0)
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(12)
	focusedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	blurredStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).PaddingLeft(14)
	selectedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).PaddingLeft(12)
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Margin(1, 0)
)

// AppliedMsg отправляется при применении фильтра
type AppliedMsg struct {
	Filter catalog.Filter
}

// GoBackMsg отправляется при отмене редактирования
type GoBackMsg struct{}

// fieldType определяет поле формы
type fieldType int

const (
	searchField fieldType = iota
	channelField
	minViewsField
	numFields
)

var labels = [numFields]string{"Search:", "Channel:", "Min views:"}

// Model представляет модель формы фильтра
type Model struct {
	filter     catalog.Filter
	channels   []string
	inputs     []textinput.Model
	focusIndex int
	suggestion int
	err        string
}

// NewModel создает форму для фильтра f. channels - каналы каталога для подсказок.
func NewModel(f catalog.Filter, channels []string) *Model {
	inputs := make([]textinput.Model, numFields)

	inputs[searchField] = textinput.New()
	inputs[searchField].Placeholder = "title, channel or description"
	inputs[searchField].SetValue(f.Search)

	inputs[channelField] = textinput.New()
	inputs[channelField].Placeholder = "any channel"
	inputs[channelField].SetValue(f.Channel)

	inputs[minViewsField] = textinput.New()
	inputs[minViewsField].Placeholder = "no minimum"
	if v, ok := f.MinViews.Get(); ok {
		inputs[minViewsField].SetValue(strconv.FormatInt(v, 10))
	}

	m := &Model{
		filter:   f,
		channels: channels,
		inputs:   inputs,
	}
	m.focus(0)
	return m
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Suggestions возвращает каналы, подходящие под введенное значение
func (m *Model) Suggestions() []string {
	query := strings.TrimSpace(m.inputs[channelField].Value())
	if query == "" {
		return nil
	}
	matches := catalog.MatchChannels(m.channels, query)
	return matches[:min(len(matches), maxSuggestions)]
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, func() tea.Msg { return GoBackMsg{} }

		case "ctrl+s":
			return m, m.apply()

		case "ctrl+n", "ctrl+p":
			if n := len(m.Suggestions()); n > 0 && fieldType(m.focusIndex) == channelField {
				if msg.String() == "ctrl+n" {
					m.suggestion = (m.suggestion + 1) % n
				} else {
					m.suggestion = (m.suggestion - 1 + n) % n
				}
			}
			return m, nil

		case "tab", "shift+tab", "enter", "up", "down":
			s := msg.String()

			if s == "enter" && m.focusIndex == len(m.inputs) {
				return m, m.apply()
			}
			if s == "enter" && fieldType(m.focusIndex) == channelField {
				m.acceptSuggestion()
			}

			if s == "up" || s == "shift+tab" {
				m.focusIndex--
			} else {
				m.focusIndex++
			}

			if m.focusIndex > len(m.inputs) {
				m.focusIndex = 0
			} else if m.focusIndex < 0 {
				m.focusIndex = len(m.inputs)
			}

			return m, m.focus(m.focusIndex)
		}

	case tea.WindowSizeMsg:
		for i := range m.inputs {
			m.inputs[i].Width = msg.Width - 20
		}
		return m, nil
	}

	if m.focusIndex < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
		if _, isKey := msg.(tea.KeyMsg); isKey && fieldType(m.focusIndex) == channelField {
			m.suggestion = 0
		}
		return m, cmd
	}

	return m, nil
}

func (m *Model) focus(index int) tea.Cmd {
	m.focusIndex = index
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		if i == index {
			cmds[i] = m.inputs[i].Focus()
			m.inputs[i].PromptStyle = focusedStyle
			m.inputs[i].TextStyle = focusedStyle
		} else {
			m.inputs[i].Blur()
			m.inputs[i].PromptStyle = blurredStyle
			m.inputs[i].TextStyle = blurredStyle
		}
	}
	return tea.Batch(cmds...)
}

// acceptSuggestion подставляет выбранную подсказку в поле канала
func (m *Model) acceptSuggestion() {
	suggestions := m.Suggestions()
	if len(suggestions) == 0 || m.suggestion >= len(suggestions) {
		return
	}
	if _, exact := m.resolveChannel(m.inputs[channelField].Value()); exact {
		return
	}
	m.inputs[channelField].SetValue(suggestions[m.suggestion])
	m.suggestion = 0
}

// resolveChannel находит канал каталога без учета регистра
func (m *Model) resolveChannel(value string) (string, bool) {
	value = strings.TrimSpace(value)
	return lo.Find(m.channels, func(c string) bool { return strings.EqualFold(c, value) })
}

// Filter собирает фильтр из полей формы. Сортировка и флаг хэштегов
// берутся из исходного фильтра.
func (m *Model) Filter() (catalog.Filter, error) {
	f := m.filter
	f.Search = strings.TrimSpace(m.inputs[searchField].Value())

	f.Channel = ""
	if value := strings.TrimSpace(m.inputs[channelField].Value()); value != "" {
		channel, ok := m.resolveChannel(value)
		if !ok {
			return f, fmt.Errorf("unknown channel %q", value)
		}
		f.Channel = channel
	}

	f.MinViews = mo.None[int64]()
	if value := strings.TrimSpace(m.inputs[minViewsField].Value()); value != "" {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return f, errors.New("min views must be a non-negative number")
		}
		f.MinViews = mo.Some(n)
	}

	return f, nil
}

func (m *Model) apply() tea.Cmd {
	f, err := m.Filter()
	if err != nil {
		m.err = err.Error()
		return nil
	}
	m.err = ""
	return func() tea.Msg { return AppliedMsg{Filter: f} }
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Filters"))
	b.WriteString("\n\n")

	for i, input := range m.inputs {
		b.WriteString(labelStyle.Render(labels[i]))
		b.WriteString(" ")
		b.WriteString(input.View())
		b.WriteString("\n")

		if fieldType(i) == channelField && m.focusIndex == i {
			for j, s := range m.Suggestions() {
				if j == m.suggestion {
					b.WriteString(selectedStyle.Render("> " + s))
				} else {
					b.WriteString(suggestionStyle.Render(s))
				}
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}

	button := "[ Apply ]"
	if m.focusIndex == len(m.inputs) {
		button = focusedStyle.Render(button)
	} else {
		button = blurredStyle.Render(button)
	}
	b.WriteString(button)
	b.WriteString("\n")

	if m.err != "" {
		b.WriteString(errorStyle.Render("Error: " + m.err))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("tab/enter: next field • ctrl+n/ctrl+p: pick channel • ctrl+s: apply • esc: cancel"))
	return b.String()
}
