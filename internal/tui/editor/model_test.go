package editor

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/mo"

	"github.com/hazadus/quantum-radio/internal/catalog"
)

var channels = []string{"Ambient Works", "Calm Waves", "Synth Lab", "Synthwave Radio"}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func press(m *Model, t tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: t})
	return cmd
}

func TestNewModelPrefillsFilter(t *testing.T) {
	f := catalog.DefaultFilter()
	f.Search = "dreams"
	f.Channel = "Synth Lab"
	f.MinViews = mo.Some[int64](5000)

	m := NewModel(f, channels)
	got, err := m.Filter()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Search != "dreams" || got.Channel != "Synth Lab" || got.MinViews.OrEmpty() != 5000 {
		t.Errorf("Expected filter to round-trip, got %+v", got)
	}
}

func TestApplyFilter(t *testing.T) {
	f := catalog.DefaultFilter()
	f.HasHashtags = true
	m := NewModel(f, channels)

	typeText(m, "quantum")
	press(m, tea.KeyTab)

	typeText(m, "synth")
	if got := m.Suggestions(); len(got) != 2 {
		t.Fatalf("Expected 2 channel suggestions, got %v", got)
	}
	if !strings.Contains(m.View(), "> Synth Lab") {
		t.Errorf("Expected highlighted suggestion in view:\n%s", m.View())
	}
	press(m, tea.KeyCtrlN)
	press(m, tea.KeyEnter)
	if v := m.inputs[channelField].Value(); v != "Synthwave Radio" {
		t.Errorf("Expected enter to accept the highlighted suggestion, got %q", v)
	}

	typeText(m, "1000")
	cmd := press(m, tea.KeyCtrlS)
	if cmd == nil {
		t.Fatal("Expected command after ctrl+s")
	}
	msg, ok := cmd().(AppliedMsg)
	if !ok {
		t.Fatalf("Expected AppliedMsg, got %T", cmd())
	}

	if msg.Filter.Search != "quantum" {
		t.Errorf("Expected search 'quantum', got %q", msg.Filter.Search)
	}
	if msg.Filter.Channel != "Synthwave Radio" {
		t.Errorf("Expected channel 'Synthwave Radio', got %q", msg.Filter.Channel)
	}
	if v, ok := msg.Filter.MinViews.Get(); !ok || v != 1000 {
		t.Errorf("Expected min views 1000, got %v", msg.Filter.MinViews)
	}
	if !msg.Filter.HasHashtags || msg.Filter.SortBy != catalog.SortViews {
		t.Error("Expected sort and hashtag settings to be kept")
	}
}

func TestChannelIsCaseInsensitive(t *testing.T) {
	m := NewModel(catalog.DefaultFilter(), channels)
	press(m, tea.KeyTab)
	typeText(m, "calm waves")

	f, err := m.Filter()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if f.Channel != "Calm Waves" {
		t.Errorf("Expected canonical channel name, got %q", f.Channel)
	}
}

func TestValidationErrors(t *testing.T) {
	m := NewModel(catalog.DefaultFilter(), channels)
	press(m, tea.KeyTab)
	typeText(m, "zzz")

	if cmd := press(m, tea.KeyCtrlS); cmd != nil {
		t.Error("Expected no command for unknown channel")
	}
	if !strings.Contains(m.View(), `unknown channel "zzz"`) {
		t.Errorf("Expected channel error in view:\n%s", m.View())
	}

	m = NewModel(catalog.DefaultFilter(), channels)
	press(m, tea.KeyUp)
	press(m, tea.KeyUp)
	typeText(m, "-5")
	if cmd := press(m, tea.KeyCtrlS); cmd != nil {
		t.Error("Expected no command for negative min views")
	}
	if !strings.Contains(m.View(), "min views must be a non-negative number") {
		t.Errorf("Expected min views error in view:\n%s", m.View())
	}
}

func TestEmptyFieldsClearCriteria(t *testing.T) {
	f := catalog.DefaultFilter()
	f.Channel = "Synth Lab"
	f.MinViews = mo.Some[int64](10)
	m := NewModel(f, channels)

	m.inputs[channelField].SetValue("")
	m.inputs[minViewsField].SetValue(" ")

	got, err := m.Filter()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Active() != 0 {
		t.Errorf("Expected no active criteria, got %d", got.Active())
	}
}

func TestCancel(t *testing.T) {
	m := NewModel(catalog.DefaultFilter(), channels)
	cmd := press(m, tea.KeyEsc)
	if _, ok := cmd().(GoBackMsg); !ok {
		t.Error("Expected GoBackMsg on esc")
	}
}
