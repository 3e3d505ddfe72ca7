package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aviary/feedwindow/internal/feeditem"
	"github.com/aviary/feedwindow/internal/scrollwindow"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	modeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	anchorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// visibleSetMsg carries a scrollwindow.VisibleSet update into the Bubble Tea
// event loop, bridging the manager's subscription channel (see
// waitForUpdate).
type visibleSetMsg scrollwindow.VisibleSet[feeditem.ChatMessage]

// model is the Bubble Tea model driving the feedwatch viewer.
type model struct {
	mgr    *scrollwindow.Manager[feeditem.ChatMessage]
	room   string
	sub    <-chan scrollwindow.VisibleSet[feeditem.ChatMessage]
	cancel func()

	current  scrollwindow.VisibleSet[feeditem.ChatMessage]
	cursor   int // index into current.Items of the row considered "first visible"
	width    int
	height   int
	quitting bool
}

func newModel(mgr *scrollwindow.Manager[feeditem.ChatMessage], room string) model {
	current, sub, cancel := mgr.Subscribe()
	return model{mgr: mgr, room: room, current: current, sub: sub, cancel: cancel}
}

func (m model) Init() tea.Cmd {
	return m.waitForUpdate()
}

// waitForUpdate returns a command that blocks on the subscription channel
// and turns the next VisibleSet into a tea.Msg.
func (m model) waitForUpdate() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		vs, ok := <-sub
		if !ok {
			return nil
		}
		return visibleSetMsg(vs)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case visibleSetMsg:
		m.current = scrollwindow.VisibleSet[feeditem.ChatMessage](msg)
		if m.current.ShouldAutoScroll || m.cursor >= len(m.current.Items) {
			m.cursor = max(0, len(m.current.Items)-m.visibleRows())
		}
		return m, m.waitForUpdate()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		case "up", "k":
			m.scroll(true)
		case "down", "j":
			m.scroll(false)
		}
	}
	return m, nil
}

// scroll moves the visible window by one row and reports it to the manager,
// mirroring a renderer's real scroll-position tracking.
func (m *model) scroll(backward bool) {
	n := len(m.current.Items)
	if n == 0 {
		return
	}
	if backward {
		if m.cursor > 0 {
			m.cursor--
		}
	} else {
		if m.cursor < n-1 {
			m.cursor++
		}
	}

	last := min(n-1, m.cursor+m.visibleRows()-1)
	m.mgr.OnScroll(scrollwindow.ScrollRequest{
		FirstVisibleID:    m.current.Items[m.cursor].EntityID(),
		LastVisibleID:     m.current.Items[last].EntityID(),
		ScrollingBackward: backward,
	})
}

func (m model) visibleRows() int {
	if m.height <= 4 {
		return 10
	}
	return m.height - 4
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("feedwatch — room %q", m.room)))
	b.WriteString("\n")
	b.WriteString(modeStyle.Render(fmt.Sprintf("mode=%s  has_more_preceding=%v  has_more_following=%v",
		m.mgr.Mode(), m.current.HasMorePreceding, m.current.HasMoreFollowing)))
	b.WriteString("\n\n")

	if m.current.Error != "" {
		b.WriteString(errStyle.Render("error: " + m.current.Error))
		b.WriteString("\n")
	}

	rows := m.visibleRows()
	start := m.cursor
	end := min(len(m.current.Items), start+rows)
	for i := start; i < end; i++ {
		msg := m.current.Items[i]
		marker := "  "
		if m.current.Intersection != nil && m.current.Intersection.EntityID == msg.EntityID() {
			marker = anchorStyle.Render("» ")
		}
		b.WriteString(fmt.Sprintf("%s%s: %s\n", marker, msg.Author, msg.Body))
	}

	b.WriteString("\n")
	b.WriteString(modeStyle.Render("↑/k older · ↓/j newer · q quit"))
	return b.String()
}
