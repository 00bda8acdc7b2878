package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/taskherd/taskherd/internal/events"
)

// StatsPaneModel shows live queue counts derived from scheduler events.
type StatsPaneModel struct {
	queued    int
	active    int
	completed int
	failed    int
	cancelled int
	width     int
	height    int
	focused   bool
}

// NewStatsPaneModel creates a new stats pane model.
func NewStatsPaneModel() StatsPaneModel {
	return StatsPaneModel{}
}

// Update handles messages for the stats pane.
func (m StatsPaneModel) Update(msg tea.Msg) (StatsPaneModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case events.TaskScheduledEvent:
		m.queued++

	case events.TaskReadyEvent:
		m.queued--
		m.active++

	case events.TaskFinishedEvent:
		m.active--
		if msg.Success {
			m.completed++
		} else {
			m.failed++
		}

	case events.TaskCancelledEvent:
		// An unstarted task was cancelled out of the queue; anything else
		// was pulled from the active set.
		if msg.Task.StartedAt.IsZero() {
			m.queued--
		} else {
			m.active--
		}
		m.cancelled++
	}

	return m, nil
}

// View renders the stats pane.
func (m StatsPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	title := StyleTitle.Render("Queue")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", lipgloss.Width(title)))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Queued:    %s\n", StyleStatusQueued.Render(fmt.Sprintf("%d", m.queued))))
	b.WriteString(fmt.Sprintf("Active:    %s\n", StyleStatusActive.Render(fmt.Sprintf("%d", m.active))))
	b.WriteString(fmt.Sprintf("Completed: %s\n", StyleStatusComplete.Render(fmt.Sprintf("%d", m.completed))))
	b.WriteString(fmt.Sprintf("Failed:    %s\n", StyleStatusFailed.Render(fmt.Sprintf("%d", m.failed))))
	b.WriteString(fmt.Sprintf("Cancelled: %s\n", StyleStatusQueued.Render(fmt.Sprintf("%d", m.cancelled))))

	b.WriteString("\n")

	// Progress bar over everything the scheduler has seen
	total := m.queued + m.active + m.completed + m.failed
	if total > 0 {
		barWidth := min(m.width-4, 40)
		completedWidth := (m.completed * barWidth) / total
		failedWidth := (m.failed * barWidth) / total
		activeWidth := (m.active * barWidth) / total
		queuedWidth := barWidth - completedWidth - failedWidth - activeWidth

		bar := StyleStatusComplete.Render(strings.Repeat("=", max(0, completedWidth)))
		bar += StyleStatusFailed.Render(strings.Repeat("!", max(0, failedWidth)))
		bar += StyleStatusActive.Render(strings.Repeat("-", max(0, activeWidth)))
		bar += StyleStatusQueued.Render(strings.Repeat(".", max(0, queuedWidth)))

		b.WriteString(fmt.Sprintf("[%s]  %d/%d\n", bar, m.completed+m.failed, total))
	}

	content := b.String()

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

// SetSize updates the pane dimensions.
func (m *StatsPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused updates the focus state.
func (m *StatsPaneModel) SetFocused(focused bool) {
	m.focused = focused
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
