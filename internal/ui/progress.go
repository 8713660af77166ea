package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"reanalyzer/internal/scan"
)

// maxVisibleItems caps the file list; the rest is summarised in one line.
const maxVisibleItems = 20

type progressModel struct {
	title    string
	events   <-chan scan.Event
	spinner  spinner.Model
	prog     progress.Model
	items    []fileItem
	index    map[string]int
	finished int
	found    int
	width    int
	done     bool
}

type fileItem struct {
	path   string
	label  string
	status scan.Status
	found  int
}

type eventMsg scan.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders scan progress.
// files must match the Event.File values sent on events.
func NewProgressModel(title string, files []string, events <-chan scan.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items = append(items, fileItem{path: file, label: file, status: scan.StatusQueued})
		index[file] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

// WithLabels replaces the displayed name of each file.
func WithLabels(m tea.Model, label func(path string) string) tea.Model {
	pm, ok := m.(*progressModel)
	if !ok || label == nil {
		return m
	}
	for i := range pm.items {
		pm.items[i].label = label(pm.items[i].path)
	}
	return pm
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(scan.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := fmt.Sprintf("%s (%d/%d files, %d issues)", m.title, m.finished, len(m.items), m.found)
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := m.width - statusWidth - 4
	if nameWidth < 20 {
		nameWidth = 20
	}

	visible := m.visibleItems()
	for _, item := range visible {
		name := truncate(item.label, nameWidth)
		status := statusText(item)
		statusStyled := styleStatus(item).Render(fmt.Sprintf("%12s", status))
		b.WriteString(fmt.Sprintf("  %s %s\n", statusStyled, name))
	}
	if hidden := len(m.items) - len(visible); hidden > 0 {
		b.WriteString(fmt.Sprintf("  %12s %d more files\n", "", hidden))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")

	return b.String()
}

// visibleItems prefers files in flight, then queued ones, then finished.
func (m *progressModel) visibleItems() []fileItem {
	if len(m.items) <= maxVisibleItems {
		return m.items
	}
	out := make([]fileItem, 0, maxVisibleItems)
	for _, want := range []scan.Status{scan.StatusWorking, scan.StatusQueued, scan.StatusDone} {
		for _, item := range m.items {
			if len(out) == maxVisibleItems {
				return out
			}
			if item.status == want {
				out = append(out, item)
			}
		}
	}
	return out
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev scan.Event) tea.Cmd {
	idx, ok := m.index[ev.File]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	if item.status == scan.StatusDone {
		return nil
	}
	item.status = ev.Status
	if ev.Status == scan.StatusDone {
		item.found = ev.Found
		m.finished++
		m.found += ev.Found
	}
	if len(m.items) == 0 {
		return nil
	}
	return m.prog.SetPercent(float64(m.finished) / float64(len(m.items)))
}

func statusText(item fileItem) string {
	switch item.status {
	case scan.StatusWorking:
		return "checking"
	case scan.StatusDone:
		if item.found > 0 {
			return fmt.Sprintf("%d issues", item.found)
		}
		return "clean"
	default:
		return "queued"
	}
}

func styleStatus(item fileItem) lipgloss.Style {
	switch {
	case item.status == scan.StatusDone && item.found > 0:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	case item.status == scan.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case item.status == scan.StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
