// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Call desk loop for agents: lobby, search, client card, save, back to lobby
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/taxdesk/crm"
	"github.com/harperreed/taxdesk/models"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewLobby ViewMode = iota
	ViewSearch
	ViewCard
)

// Model is the main bubbletea model
type Model struct {
	ctx      context.Context
	desk     *crm.Desk
	agent    string
	viewMode ViewMode

	// Lobby state
	queueSize int
	message   string

	// Search state
	searchInput textinput.Model
	results     []models.Client
	selectedRow int

	// Card state
	client *models.Client
	card   cardForm

	// UI state
	width  int
	height int
	err    error
}

// NewModel creates a new TUI model. agent is stamped on every save.
func NewModel(ctx context.Context, desk *crm.Desk, agent string) Model {
	search := textinput.New()
	search.Placeholder = "Name, email, notes or phone"
	search.CharLimit = 100

	m := Model{
		ctx:         ctx,
		desk:        desk,
		agent:       agent,
		viewMode:    ViewLobby,
		searchInput: search,
		width:       80,
		height:      24,
	}
	m.refreshQueue()
	return m
}

// Run starts the full-screen call desk.
func Run(ctx context.Context, desk *crm.Desk, agent string) error {
	_, err := tea.NewProgram(NewModel(ctx, desk, agent), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewLobby:
		return m.renderLobbyView()
	case ViewSearch:
		return m.renderSearchView()
	case ViewCard:
		return m.renderCardView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewLobby:
		return m.handleLobbyKeys(msg)
	case ViewSearch:
		return m.handleSearchKeys(msg)
	case ViewCard:
		return m.handleCardKeys(msg)
	}
	return m, nil
}

func (m *Model) refreshQueue() {
	size, err := m.desk.QueueSize(m.ctx)
	if err != nil {
		m.err = err
		return
	}
	m.queueSize = size
}

// backToLobby is where every card ends up, saved or not.
func (m *Model) backToLobby(message string) {
	m.viewMode = ViewLobby
	m.client = nil
	m.message = message
	m.refreshQueue()
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(14)

	focusStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)
