package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/taskherd/taskherd/internal/events"
)

// PaneID identifies which pane is focused.
type PaneID int

const (
	PaneStats PaneID = iota
	PaneEvents
)

// Model is the root Bubble Tea model for the monitor.
type Model struct {
	statsPane   StatsPaneModel
	eventPane   EventPaneModel
	focusedPane PaneID
	eventSub    <-chan events.Event
	width       int
	height      int
	quitting    bool
}

// New creates a new monitor model subscribed to the dispatcher feed.
func New(dispatcher *events.Dispatcher) Model {
	return Model{
		statsPane:   NewStatsPaneModel(),
		eventPane:   NewEventPaneModel(),
		focusedPane: PaneEvents,
		eventSub:    dispatcher.Feed(256),
	}
}

// Init initializes the model and returns the initial command.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.eventSub)
}

// waitForEvent returns a command that waits for the next dispatcher event.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return nil // dispatcher closed
		}
		return event
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case KeyQuit, KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		case KeyTab, KeyShiftTab:
			if m.focusedPane == PaneStats {
				m.focusedPane = PaneEvents
			} else {
				m.focusedPane = PaneStats
			}
			m.updateFocusStates()

		case KeyPane1:
			m.focusedPane = PaneStats
			m.updateFocusStates()

		case KeyPane2:
			m.focusedPane = PaneEvents
			m.updateFocusStates()

		default:
			// Delegate to focused pane
			switch m.focusedPane {
			case PaneStats:
				var cmd tea.Cmd
				m.statsPane, cmd = m.statsPane.Update(msg)
				cmds = append(cmds, cmd)
			case PaneEvents:
				var cmd tea.Cmd
				m.eventPane, cmd = m.eventPane.Update(msg)
				cmds = append(cmds, cmd)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.computeLayout()

	case events.Event:
		// Every scheduler notification feeds both panes
		var cmd tea.Cmd
		m.statsPane, cmd = m.statsPane.Update(msg)
		cmds = append(cmds, cmd)
		m.eventPane, cmd = m.eventPane.Update(msg)
		cmds = append(cmds, cmd)
		cmds = append(cmds, waitForEvent(m.eventSub))
	}

	return m, tea.Batch(cmds...)
}

// View renders the monitor.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	statsPane := m.statsPane.View()
	eventPane := m.eventPane.View()

	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, statsPane, eventPane)

	helpBar := HelpView()

	return lipgloss.JoinVertical(lipgloss.Left, mainContent, helpBar)
}

// computeLayout calculates pane dimensions and updates the child models.
func (m *Model) computeLayout() {
	leftWidth := (m.width * 30) / 100 // 30% for stats
	rightWidth := m.width - leftWidth
	availableHeight := m.height - 1 // reserve 1 line for help bar

	m.statsPane.SetSize(leftWidth, availableHeight)
	m.eventPane.SetSize(rightWidth, availableHeight)

	m.updateFocusStates()
}

// updateFocusStates updates the focus state of both panes.
func (m *Model) updateFocusStates() {
	m.statsPane.SetFocused(m.focusedPane == PaneStats)
	m.eventPane.SetFocused(m.focusedPane == PaneEvents)
}
