package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/taxdesk/crm"
)

func (m Model) renderLobbyView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("TAXDESK"))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Agent: %s\n", m.agent))
	s.WriteString(fmt.Sprintf("%d client(s) waiting in the call queue\n\n", m.queueSize))

	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	} else if m.message != "" {
		s.WriteString(messageStyle.Render(m.message))
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("n: Next client • /: Search • r: Refresh • q: Quit"))
	return s.String()
}

func (m Model) handleLobbyKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		m.err = nil
		m.message = ""
		m.refreshQueue()
	case "n":
		m.err = nil
		client, err := m.desk.Next(m.ctx)
		if errors.Is(err, crm.ErrQueueEmpty) {
			m.message = "No clients left in the queue."
			return m, nil
		}
		if err != nil {
			m.err = err
			return m, nil
		}
		m.openCard(client)
	case "/":
		m.err = nil
		m.viewMode = ViewSearch
		m.searchInput.SetValue("")
		m.results = nil
		m.selectedRow = 0
		return m, m.searchInput.Focus()
	}
	return m, nil
}
