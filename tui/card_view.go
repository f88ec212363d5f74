package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/taxdesk/crm"
	"github.com/harperreed/taxdesk/models"
)

// Card rows, in tab order.
const (
	rowStatus = iota
	rowOutcome
	rowPhone
	rowTemplate
	rowStyle
	rowRecipient
	rowNote
	rowCount
)

const noEmail = "(no email)"

// cardForm holds the editable state of the open client card. Choice rows
// index into their option lists; index 0 means "leave unchanged".
type cardForm struct {
	focus int

	statuses   []string
	status     int
	outcomes   []string
	outcome    int
	templates  []string
	template   int
	styles     []crm.Style
	style      int
	recipients []models.Recipient
	recipient  int

	phone textinput.Model
	note  textinput.Model

	suggestion string
}

func (m *Model) openCard(c *models.Client) {
	store := m.desk.Store()

	form := cardForm{
		statuses:   append([]string{""}, models.CallResults...),
		outcomes:   append([]string{""}, models.Outcomes...),
		templates:  []string{noEmail},
		styles:     []crm.Style{crm.StyleCasual, crm.StyleFormal},
		recipients: crm.Recipients(*c),
	}
	for _, t := range m.desk.Templates(m.ctx) {
		form.templates = append(form.templates, t.Type)
	}
	if s, ok := crm.SuggestPhone(store.LoadReference(m.ctx), store.Columns().Reference, *c); ok {
		form.suggestion = s
	}

	form.phone = textinput.New()
	form.phone.Placeholder = "Phone"
	form.phone.CharLimit = 30
	form.phone.SetValue(c.Phone)

	form.note = textinput.New()
	form.note.Placeholder = "What happened on the call?"
	form.note.CharLimit = 500
	form.note.Width = 60

	m.client = c
	m.card = form
	m.err = nil
	m.message = ""
	m.viewMode = ViewCard
}

func (m Model) renderCardView() string {
	if m.client == nil {
		return "No client loaded"
	}
	c := m.client
	f := m.card

	var s strings.Builder
	s.WriteString(titleStyle.Render(strings.ToUpper(c.Name)))
	s.WriteString("\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		s.WriteString(labelStyle.Render(label))
		s.WriteString(value)
		s.WriteString("\n")
	}
	field("ID", c.ID)
	field("Taxpayer", strings.TrimSpace(c.FirstName+" "+c.LastName))
	field("Spouse", strings.TrimSpace(c.SpouseFirstName+" "+c.SpouseLastName))
	field("Email", c.Email)
	field("Spouse email", c.SpouseEmail)
	field("Status", c.Status)
	field("Outcome", c.Outcome)
	field("Last agent", c.LastAgent)
	field("Last updated", c.LastUpdated)
	if f.suggestion != "" {
		field("Reference", f.suggestion+" (ctrl+p to use)")
	}

	if notes := strings.TrimSpace(c.Notes); notes != "" {
		s.WriteString("\n")
		s.WriteString(labelStyle.Render("Notes"))
		s.WriteString("\n")
		s.WriteString(tail(notes, 8))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	s.WriteString(m.choiceRow(rowStatus, "New status", optionLabel(f.statuses[f.status], "(unchanged)")))
	s.WriteString(m.choiceRow(rowOutcome, "Outcome", optionLabel(f.outcomes[f.outcome], "(unchanged)")))
	s.WriteString(m.inputRow(rowPhone, "Phone", f.phone))
	s.WriteString(m.choiceRow(rowTemplate, "Email", f.templates[f.template]))
	if f.template > 0 {
		s.WriteString(m.choiceRow(rowStyle, "Greeting", string(f.styles[f.style])))
		s.WriteString(m.choiceRow(rowRecipient, "Send to", f.recipientLabel()))
	}
	s.WriteString(m.inputRow(rowNote, "Note", f.note))

	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("Tab: Next field • ←/→: Change • Ctrl+S: Save • Esc: Lobby"))
	return s.String()
}

func (m Model) choiceRow(row int, label, value string) string {
	line := labelStyle.Render(label) + "‹ " + value + " ›"
	if m.card.focus == row {
		return focusStyle.Render("> ") + line + "\n"
	}
	return "  " + line + "\n"
}

func (m Model) inputRow(row int, label string, input textinput.Model) string {
	prefix := "  "
	if m.card.focus == row {
		prefix = focusStyle.Render("> ")
	}
	return prefix + labelStyle.Render(label) + input.View() + "\n"
}

func optionLabel(v, empty string) string {
	if v == "" {
		return empty
	}
	return v
}

func (f cardForm) recipientLabel() string {
	if len(f.recipients) == 0 {
		return "(no address on file)"
	}
	r := f.recipients[f.recipient]
	return fmt.Sprintf("%s <%s>", r.Role, r.Address)
}

// tail keeps the last n lines of the note history.
func tail(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = append([]string{"..."}, lines[len(lines)-n:]...)
	}
	return strings.Join(lines, "\n")
}

func (m Model) handleCardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.backToLobby("")
		return m, nil
	case "ctrl+s":
		return m.saveCard()
	case "ctrl+p":
		if m.card.suggestion != "" {
			m.card.phone.SetValue(m.card.suggestion)
		}
		return m, nil
	case "tab", "down":
		m.moveFocus(1)
		return m, m.focusInputs()
	case "shift+tab", "up":
		m.moveFocus(-1)
		return m, m.focusInputs()
	case "left":
		if m.cycleChoice(-1) {
			return m, nil
		}
	case "right":
		if m.cycleChoice(1) {
			return m, nil
		}
	case "enter":
		if m.card.focus == rowNote {
			return m.saveCard()
		}
		m.moveFocus(1)
		return m, m.focusInputs()
	}

	var cmd tea.Cmd
	switch m.card.focus {
	case rowPhone:
		m.card.phone, cmd = m.card.phone.Update(msg)
	case rowNote:
		m.card.note, cmd = m.card.note.Update(msg)
	}
	return m, cmd
}

// moveFocus skips the email detail rows while no template is chosen.
func (m *Model) moveFocus(delta int) {
	f := &m.card
	for {
		f.focus = (f.focus + delta + rowCount) % rowCount
		if f.template == 0 && (f.focus == rowStyle || f.focus == rowRecipient) {
			continue
		}
		return
	}
}

func (m *Model) focusInputs() tea.Cmd {
	f := &m.card
	f.phone.Blur()
	f.note.Blur()
	switch f.focus {
	case rowPhone:
		return f.phone.Focus()
	case rowNote:
		return f.note.Focus()
	}
	return nil
}

// cycleChoice steps the focused choice row and reports whether one was focused.
func (m *Model) cycleChoice(delta int) bool {
	f := &m.card
	step := func(i *int, n int) {
		if n == 0 {
			return
		}
		*i = (*i + delta + n) % n
	}
	switch f.focus {
	case rowStatus:
		step(&f.status, len(f.statuses))
	case rowOutcome:
		step(&f.outcome, len(f.outcomes))
	case rowTemplate:
		step(&f.template, len(f.templates))
	case rowStyle:
		step(&f.style, len(f.styles))
	case rowRecipient:
		step(&f.recipient, len(f.recipients))
	default:
		return false
	}
	return true
}

func (m Model) saveCard() (tea.Model, tea.Cmd) {
	f := m.card
	phone := f.phone.Value()

	req := crm.SaveRequest{
		ClientID: m.client.ID,
		Agent:    m.agent,
		Status:   f.statuses[f.status],
		Outcome:  f.outcomes[f.outcome],
		Note:     f.note.Value(),
	}
	if phone != m.client.Phone {
		req.Edits.Phone = &phone
	}
	if f.template > 0 {
		email := &crm.EmailRequest{
			Template: f.templates[f.template],
			Style:    f.styles[f.style],
		}
		if len(f.recipients) > 0 {
			email.Role = f.recipients[f.recipient].Role
		}
		req.Email = email
	}

	result, err := m.desk.Save(m.ctx, req)
	if err != nil {
		m.err = err
		return m, nil
	}

	message := fmt.Sprintf("Saved %s (%s).", result.Client.Name, result.Client.Status)
	switch {
	case result.EmailSent:
		message += " Email sent to " + result.Email.To + "."
	case result.EmailErr != nil:
		message += " Email not sent: " + result.EmailErr.Error()
	}
	m.backToLobby(message)
	return m, nil
}
