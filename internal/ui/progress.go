// Package ui renders generation progress in the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"contractmeta/internal/buildpipeline"
)

// stageInfo is the label shown while a stage runs and the share of a
// contract's progress reached once it started.
type stageInfo struct {
	label string
	share float64
}

var stages = map[buildpipeline.Stage]stageInfo{
	buildpipeline.StageDecode:   {"decoding", 0.1},
	buildpipeline.StageAssemble: {"assembling", 0.4},
	buildpipeline.StageEncode:   {"encoding", 0.7},
	buildpipeline.StageWrite:    {"writing", 0.9},
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

const statusWidth = 12

type progressModel struct {
	title      string
	events     <-chan buildpipeline.Event
	spinner    spinner.Model
	bar        progress.Model
	items      []contractItem
	index      map[string]int
	stageLabel string
	width      int
	done       bool
}

type contractItem struct {
	name     string
	status   string
	stage    buildpipeline.Stage
	elapsed  time.Duration
	finished bool
}

type (
	eventMsg buildpipeline.Event
	closedMsg struct{}
)

// NewProgressModel returns a Bubble Tea model that renders one line per
// contract until events is closed. Duplicate names share a line.
func NewProgressModel(title string, contracts []string, events <-chan buildpipeline.Event) tea.Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(activeStyle))
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(76))

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		index:   make(map[string]int, len(contracts)),
		width:   80,
	}
	for _, name := range contracts {
		if _, dup := m.index[name]; dup {
			continue
		}
		m.index[name] = len(m.items)
		m.items = append(m.items, contractItem{name: name, status: string(buildpipeline.StatusQueued)})
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(buildpipeline.Event(msg)), m.next())
	case closedMsg:
		m.done = true
		return m, tea.Quit
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
			m.bar.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	header := m.title
	if m.stageLabel != "" {
		header += " (" + m.stageLabel + ")"
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	fmt.Fprintf(&b, " %s\n\n", faintStyle.Render(fmt.Sprintf("%d/%d", m.finished(), len(m.items))))

	nameWidth := max(m.width-statusWidth-16, 20)
	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%*s", statusWidth, item.status))
		fmt.Fprintf(&b, "  %s %s", status, truncate(item.name, nameWidth))
		if item.finished && item.elapsed > 0 {
			b.WriteString(faintStyle.Render(fmt.Sprintf(" %s", item.elapsed.Round(time.Millisecond))))
		}
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	if m.done {
		b.WriteString(m.bar.ViewAs(1.0))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteByte('\n')
	return b.String()
}

func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev buildpipeline.Event) tea.Cmd {
	label := statusLabel(ev)
	if ev.Contract == "" {
		if label != "" {
			m.stageLabel = label
		}
		return nil
	}
	idx, ok := m.index[ev.Contract]
	if !ok || m.items[idx].finished {
		return nil
	}
	item := &m.items[idx]
	if label != "" {
		item.status = label
		item.stage = ev.Stage
	}
	item.elapsed += ev.Elapsed
	// Only a written output or an error completes a contract.
	if ev.Status == buildpipeline.StatusError || (ev.Stage == buildpipeline.StageWrite && ev.Status == buildpipeline.StatusDone) {
		item.finished = true
	}
	return m.bar.SetPercent(m.percent())
}

func (m *progressModel) finished() int {
	n := 0
	for _, item := range m.items {
		if item.finished {
			n++
		}
	}
	return n
}

func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range m.items {
		if item.finished {
			total++
		} else {
			total += stages[item.stage].share
		}
	}
	return total / float64(len(m.items))
}

// statusLabel maps an event to the text of its status column; "" keeps the
// current text.
func statusLabel(ev buildpipeline.Event) string {
	switch ev.Status {
	case buildpipeline.StatusQueued, buildpipeline.StatusError:
		return string(ev.Status)
	case buildpipeline.StatusWorking:
		return stages[ev.Stage].label
	case buildpipeline.StatusDone:
		switch {
		case ev.Contract != "" && ev.Stage != buildpipeline.StageWrite:
			return ""
		case ev.Cached:
			return "cached"
		default:
			return "done"
		}
	}
	return ""
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done", "cached":
		return okStyle
	case "error":
		return failStyle
	case string(buildpipeline.StatusQueued):
		return pendingStyle
	default:
		return activeStyle
	}
}

// truncate clips value to width cells, marking the cut with "..." when
// there is room for it.
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
