// # cmd/refract/ui.go
package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	changedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	passthroughStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#64748B"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
	changed     bool
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list       list.Model
	entries    []RemapEntry
	lastUpdate time.Time
	refMaps    int
	remapped   int
}

type updateMsg struct {
	entries []RemapEntry
	refMaps int
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case updateMsg:
		m.entries = msg.entries
		m.refMaps = msg.refMaps
		m.remapped = 0
		m.lastUpdate = time.Now()

		items := []list.Item{}
		for _, e := range m.entries {
			changed := e.Raw != e.Remapped
			if changed {
				m.remapped++
			}
			scope := e.ClassName
			if e.Context != "" {
				scope = e.Context + " / " + scope
			}
			title := e.Raw
			if changed {
				title = changedStyle.Render(e.Raw + "  ->  " + e.Remapped)
			} else {
				title = passthroughStyle.Render(title)
			}
			items = append(items, item{
				title:   title,
				desc:    fmt.Sprintf("%s | %s", e.RefMap, scope),
				changed: changed,
			})
		}
		m.list.SetItems(items)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d refmaps | %d references",
		m.lastUpdate.Format("15:04:05"), m.refMaps, len(m.entries)))

	summary := fmt.Sprintf("%s | %s",
		changedStyle.Render(fmt.Sprintf("%d remapped", m.remapped)),
		passthroughStyle.Render(fmt.Sprintf("%d passthrough", len(m.entries)-m.remapped)))

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Reference Remap Inspector"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "References"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		lastUpdate: time.Now(),
	}
}

func (a *App) RunUI() error {
	m := initialModel()
	p := tea.NewProgram(m, tea.WithAltScreen())
	a.teaProgram = p

	a.onRebuild = func(Report) {
		a.sendUIUpdate()
	}

	go a.sendUIUpdate()

	_, err := p.Run()
	return err
}

func (a *App) sendUIUpdate() {
	if a.teaProgram == nil {
		return
	}
	a.teaProgram.Send(updateMsg{
		entries: a.Entries(),
		refMaps: len(a.cfg.RefMaps),
	})
}
