package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/nilguard/internal/report"
)

// keyMap defines keybindings for the interactive TUI.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Quit     key.Binding
	Help     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Top, k.Bottom},
		{k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("^/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("v/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
	Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// Styles for the TUI.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	tuiHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	tuiBorderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))
)

// listModel is the Bubble Tea model for browsing candidates.
type listModel struct {
	entries  []report.Entry
	viewport viewport.Model
	help     help.Model
	keys     keyMap
	ready    bool
	content  string
}

func newListModel(pkg string, entries []report.Entry) listModel {
	return listModel{
		entries: entries,
		help:    help.New(),
		keys:    defaultKeyMap,
		content: renderListContent(pkg, entries),
	}
}

// renderListContent renders one table per member, listing its nil
// parameters with their locations.
func renderListContent(pkg string, entries []report.Entry) string {
	var sb strings.Builder

	members := memberOrder(entries)
	sb.WriteString(titleStyle.Render(
		fmt.Sprintf("%s: %d member(s), %d case(s)", pkg, len(members), len(entries))))
	sb.WriteString("\n\n")

	if len(entries) == 0 {
		sb.WriteString(statusStyle.Render("    No nil-argument cases."))
		sb.WriteString("\n")
		return sb.String()
	}

	styles := report.DefaultStyles()
	for _, name := range members {
		var rows [][]string
		var loc, kind string
		for _, e := range entries {
			if e.QualifiedName() != name {
				continue
			}
			loc, kind = e.Location, e.Kind
			typ := e.ParamType
			if len(typ) > 40 {
				typ = typ[:37] + "..."
			}
			rows = append(rows, []string{fmt.Sprint(e.Index), e.Param, typ})
		}

		sb.WriteString(tuiHeaderStyle.Render(fmt.Sprintf("=== %s ===", name)))
		sb.WriteString(" ")
		sb.WriteString(styles.KindStyle(kind).Render(kind))
		sb.WriteString("\n")
		sb.WriteString(statusStyle.Render(fmt.Sprintf("    %s", loc)))
		sb.WriteString("\n")

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(tuiBorderStyle).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return tuiHeaderStyle
				}
				return lipgloss.NewStyle()
			}).
			Headers("#", "NIL PARAM", "TYPE").
			Rows(rows...)

		sb.WriteString(t.String())
		sb.WriteString("\n\n")
	}

	return sb.String()
}

func memberOrder(entries []report.Entry) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		name := e.QualifiedName()
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func (m listModel) Init() tea.Cmd {
	return nil
}

func (m listModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		footerHeight := 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-footerHeight)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - footerHeight
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Top):
			m.viewport.GotoTop()
			return m, nil
		case key.Matches(msg, m.keys.Bottom):
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m listModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	footer := statusStyle.Render(
		fmt.Sprintf(" %3.f%% ", m.viewport.ScrollPercent()*100)) +
		" " + m.help.View(m.keys)

	return m.viewport.View() + "\n" + footer
}

// runInteractiveList launches the Bubble Tea TUI for browsing
// candidates.
func runInteractiveList(pkg string, entries []report.Entry) error {
	p := tea.NewProgram(newListModel(pkg, entries), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
