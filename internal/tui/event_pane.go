package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskherd/taskherd/internal/events"
)

// maxEventLines caps the scrollback kept in memory.
const maxEventLines = 500

// EventPaneModel is a scrollable log of scheduler notifications.
type EventPaneModel struct {
	lines    []string
	viewport viewport.Model
	width    int
	height   int
	focused  bool
}

// NewEventPaneModel creates a new event pane model.
func NewEventPaneModel() EventPaneModel {
	vp := viewport.New(0, 0)
	return EventPaneModel{
		viewport: vp,
	}
}

// Update handles messages for the event pane.
func (m EventPaneModel) Update(msg tea.Msg) (EventPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()

	case tea.KeyMsg:
		if !m.focused {
			break
		}
		switch msg.String() {
		case KeyJ, KeyDown:
			m.viewport.LineDown(1)
		case KeyK, KeyUp:
			m.viewport.LineUp(1)
		default:
			m.viewport, cmd = m.viewport.Update(msg)
		}

	case events.Event:
		m.appendLine(formatEvent(msg))
	}

	return m, cmd
}

// appendLine adds a line to the log and keeps the viewport pinned to the
// bottom unless the user is scrolling.
func (m *EventPaneModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxEventLines {
		m.lines = m.lines[len(m.lines)-maxEventLines:]
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	if atBottom || !m.focused {
		m.viewport.GotoBottom()
	}
}

// formatEvent renders one notification as a log line.
func formatEvent(e events.Event) string {
	ts := "--:--:--"
	switch ev := e.(type) {
	case events.StartedEvent:
		ts = ev.Timestamp.Format("15:04:05")
	case events.StoppedEvent:
		ts = ev.Timestamp.Format("15:04:05")
	case events.TaskScheduledEvent:
		ts = ev.Timestamp.Format("15:04:05")
	case events.TaskCancelledEvent:
		ts = ev.Timestamp.Format("15:04:05")
	case events.TaskRescheduledEvent:
		ts = ev.Timestamp.Format("15:04:05")
	case events.TaskReadyEvent:
		ts = ev.Timestamp.Format("15:04:05")
	case events.DependenciesSatisfiedEvent:
		ts = ev.Timestamp.Format("15:04:05")
	case events.TaskFinishedEvent:
		ts = ev.Timestamp.Format("15:04:05")
		outcome := StyleStatusComplete.Render("completed")
		if !ev.Success {
			outcome = StyleStatusFailed.Render("failed")
		}
		return fmt.Sprintf("%s  %s %s (%s)", ts, ev.Task.ID, outcome, ev.Task.Title)
	}

	if id := e.TaskID(); id != "" {
		return fmt.Sprintf("%s  %s %s", ts, id, e.EventType())
	}
	return fmt.Sprintf("%s  %s", ts, e.EventType())
}

// View renders the event pane.
func (m EventPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder
	title := StyleTitle.Render("Events")
	b.WriteString(title)
	b.WriteString("\n")

	if len(m.lines) == 0 {
		b.WriteString(StyleStatusQueued.Render("Waiting..."))
	} else {
		b.WriteString(m.viewport.View())
	}

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(b.String())
}

// resizeViewport resizes the viewport based on pane dimensions.
func (m *EventPaneModel) resizeViewport() {
	vpWidth := m.width - 4
	vpHeight := m.height - 4 // account for borders and title

	if vpWidth < 10 {
		vpWidth = 10
	}
	if vpHeight < 3 {
		vpHeight = 3
	}

	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight
}

// SetSize updates the pane dimensions.
func (m *EventPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeViewport()
}

// SetFocused updates the focus state.
func (m *EventPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
