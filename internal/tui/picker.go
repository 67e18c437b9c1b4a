// Package tui holds the interactive preset picker shown when vde is run on
// a terminal without naming a preset.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrNoSelection is returned when the picker is dismissed without choosing.
var ErrNoSelection = errors.New("no preset selected")

// PickPreset shows a filterable list of preset names and returns the chosen
// one.
func PickPreset(names []string) (string, error) {
	m := newPicker(names)
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	result := final.(picker)
	if result.choice == "" {
		return "", ErrNoSelection
	}
	return result.choice, nil
}

type picker struct {
	input    textinput.Model
	names    []string
	filtered []string
	selected int
	choice   string
	quitting bool
}

var (
	pickerTitleStyle    = lipgloss.NewStyle().Bold(true)
	pickerSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	pickerItemStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	pickerDimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func newPicker(names []string) picker {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter..."
	ti.CharLimit = 64
	ti.Width = 40
	ti.Focus()

	m := picker{
		input: ti,
		names: names,
	}
	m.recomputeFilter()
	return m
}

func (m picker) Init() tea.Cmd {
	return textinput.Blink
}

func (m picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "enter":
		if m.selected >= 0 && m.selected < len(m.filtered) {
			m.choice = m.filtered[m.selected]
		}
		m.quitting = true
		return m, tea.Quit

	case "down", "ctrl+n":
		m.move(1)
		return m, nil
	case "up", "ctrl+p":
		m.move(-1)
		return m, nil

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(key)
		m.recomputeFilter()
		return m, cmd
	}
}

func (m *picker) move(delta int) {
	if len(m.filtered) == 0 {
		m.selected = 0
		return
	}
	m.selected += delta
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= len(m.filtered) {
		m.selected = len(m.filtered) - 1
	}
}

// recomputeFilter keeps names whose characters contain the query as an
// ordered subsequence, case-insensitively.
func (m *picker) recomputeFilter() {
	query := strings.ToLower(strings.TrimSpace(m.input.Value()))
	m.filtered = m.filtered[:0]
	for _, name := range m.names {
		if fuzzyContains(strings.ToLower(name), query) {
			m.filtered = append(m.filtered, name)
		}
	}
	if m.selected >= len(m.filtered) {
		m.selected = 0
	}
}

func (m picker) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", pickerTitleStyle.Render("select a preset"))
	fmt.Fprintf(&b, "%s\n\n", m.input.View())

	if len(m.filtered) == 0 {
		fmt.Fprintf(&b, "%s\n", pickerDimStyle.Render("  (no matches)"))
	}
	for i, name := range m.filtered {
		if i == m.selected {
			fmt.Fprintf(&b, "> %s\n", pickerSelectedStyle.Render(name))
		} else {
			fmt.Fprintf(&b, "  %s\n", pickerItemStyle.Render(name))
		}
	}

	fmt.Fprintf(&b, "\n%s\n", pickerDimStyle.Render("enter select · esc cancel"))
	return b.String()
}

func fuzzyContains(hay, needle string) bool {
	if needle == "" {
		return true
	}
	i := 0
	for _, r := range hay {
		if i >= len(needle) {
			break
		}
		if byte(r) == needle[i] {
			i++
		}
	}
	return i == len(needle)
}
