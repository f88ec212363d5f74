package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) renderSearchView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("SEARCH"))
	s.WriteString("\n")
	s.WriteString(m.searchInput.View())
	s.WriteString("\n\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	}

	if len(m.results) > 0 {
		s.WriteString(m.renderResultsTable())
	} else if m.searchInput.Value() != "" && !m.searchInput.Focused() {
		s.WriteString("No matches.\n")
	}

	s.WriteString(helpStyle.Render("Enter: Search / open • ↑/↓: Select • Esc: Lobby"))
	return s.String()
}

func (m Model) renderResultsTable() string {
	columns := []table.Column{
		{Title: "Name", Width: 28},
		{Title: "Phone", Width: 16},
		{Title: "Status", Width: 16},
		{Title: "Updated", Width: 18},
	}

	rows := make([]table.Row, 0, len(m.results))
	for _, c := range m.results {
		rows = append(rows, table.Row{c.Name, c.Phone, c.Status, c.LastUpdated})
	}

	height := m.height - 10
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t.View() + fmt.Sprintf("\n%d match(es)\n", len(m.results))
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchInput.Blur()
		m.backToLobby("")
		return m, nil
	case "enter":
		if m.searchInput.Focused() {
			found, err := m.desk.Find(m.ctx, m.searchInput.Value())
			if err != nil {
				m.err = err
				return m, nil
			}
			m.err = nil
			m.results = found
			m.selectedRow = 0
			if len(found) > 0 {
				m.searchInput.Blur()
			}
			return m, nil
		}
		if m.selectedRow < len(m.results) {
			c := m.results[m.selectedRow]
			m.openCard(&c)
		}
		return m, nil
	case "up", "k":
		if !m.searchInput.Focused() && m.selectedRow > 0 {
			m.selectedRow--
			return m, nil
		}
	case "down", "j":
		if !m.searchInput.Focused() && m.selectedRow < len(m.results)-1 {
			m.selectedRow++
			return m, nil
		}
	case "/":
		if !m.searchInput.Focused() {
			return m, m.searchInput.Focus()
		}
	}

	if !m.searchInput.Focused() {
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}
