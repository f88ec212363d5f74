// ABOUTME: Call desk pages: lobby, search, client card and save
// ABOUTME: Save runs one interaction and returns the agent to the lobby
package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/harperreed/taxdesk/crm"
	"github.com/harperreed/taxdesk/models"
)

func (s *Server) handleLobby(c echo.Context) error {
	return s.renderLobby(c, "", nil, nil)
}

func (s *Server) renderLobby(c echo.Context, query string, clients []models.Client, reference []string) error {
	ctx := c.Request().Context()
	size, err := s.desk.QueueSize(ctx)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "lobby", s.page(c, "Lobby", map[string]interface{}{
		"QueueSize": size,
		"Query":     query,
		"Clients":   clients,
		"Reference": reference,
		"Searched":  query != "",
	}))
}

func (s *Server) handleNext(c echo.Context) error {
	rc := requestContext(c)
	client, err := s.desk.Next(c.Request().Context())
	if errors.Is(err, crm.ErrQueueEmpty) {
		rc.Session.SetFlash("No clients left in the queue.", false)
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if err != nil {
		return err
	}
	rc.Session.Select(client.ID)
	return c.Redirect(http.StatusSeeOther, "/clients/"+client.ID)
}

func (s *Server) handleSearch(c echo.Context) error {
	ctx := c.Request().Context()
	query := strings.TrimSpace(c.QueryParam("q"))

	clients, err := s.desk.Find(ctx, query)
	if err != nil {
		return err
	}

	var reference []string
	if query != "" {
		ref := s.desk.Store().LoadReference(ctx)
		for _, rec := range crm.SearchReference(ref, query) {
			reference = append(reference, crm.FormatReference(ref, rec))
		}
	}
	return s.renderLobby(c, query, clients, reference)
}

// cardView is everything the client card shows besides the client itself.
type cardView struct {
	Preview    *models.Email
	History    []models.MailMessage
	HistoryErr string
	// Reauth is set when reading mail needs a fresh sign-in.
	Reauth bool
}

func (s *Server) handleCard(c echo.Context) error {
	return s.renderCard(c, cardView{})
}

func (s *Server) renderCard(c echo.Context, view cardView) error {
	ctx := c.Request().Context()
	rc := requestContext(c)

	client, err := s.desk.Client(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	rc.Session.Select(client.ID)

	store := s.desk.Store()
	suggestion, hasSuggestion := crm.SuggestPhone(store.LoadReference(ctx), store.Columns().Reference, *client)

	return c.Render(http.StatusOK, "card", s.page(c, client.Name, map[string]interface{}{
		"Client":        client,
		"Recipients":    crm.Recipients(*client),
		"Templates":     s.desk.Templates(ctx),
		"CallResults":   models.CallResults,
		"Outcomes":      models.Outcomes,
		"Suggestion":    suggestion,
		"HasSuggestion": hasSuggestion,
		"HasPhone":      crm.HasPhone(client.Phone),
		"View":          view,
	}))
}

func (s *Server) handleSave(c echo.Context) error {
	rc := requestContext(c)
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	req := crm.SaveRequest{
		ClientID: c.Param("id"),
		Agent:    rc.Session.Email,
		Status:   form.Get("status"),
		Outcome:  form.Get("outcome"),
		Note:     form.Get("note"),
		Edits:    clientEdits(form),
	}
	if form.Get("send_email") != "" {
		req.Email = emailRequest(form, false)
	}

	res, err := rc.Desk().Save(c.Request().Context(), req)
	if err != nil {
		return err
	}

	switch {
	case res.EmailErr != nil:
		rc.Session.SetFlash("Saved "+res.Client.Name+", but the email was not sent: "+res.EmailErr.Error(), true)
	case res.EmailSent:
		rc.Session.SetFlash("Saved "+res.Client.Name+" and emailed "+res.Email.To+".", false)
	default:
		rc.Session.SetFlash("Saved "+res.Client.Name+".", false)
	}
	rc.Session.Select("")
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handlePreview(c echo.Context) error {
	rc := requestContext(c)
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	client, err := s.desk.Client(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	email, err := rc.Desk().Preview(c.Request().Context(), *client, *emailRequest(form, false))
	if err != nil {
		rc.Session.SetFlash("Cannot compose email: "+err.Error(), true)
		return s.renderCard(c, cardView{})
	}
	return s.renderCard(c, cardView{Preview: &email})
}

func (s *Server) handleHistory(c echo.Context) error {
	rc := requestContext(c)
	client, err := s.desk.Client(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	msgs, err := rc.Desk().History(c.Request().Context(), *client)
	view := cardView{History: msgs}
	if err != nil {
		view.HistoryErr = err.Error()
		view.Reauth = errors.Is(err, crm.ErrMailPermission)
	}
	return s.renderCard(c, view)
}

// clientEdits reads the editable fields. Fields absent from the form stay
// nil; the flag checkbox only counts when the edit section was rendered.
func clientEdits(form map[string][]string) crm.ClientEdits {
	field := func(name string) *string {
		v, ok := form[name]
		if !ok || len(v) == 0 {
			return nil
		}
		return &v[0]
	}

	edits := crm.ClientEdits{
		FirstName:       field("first_name"),
		LastName:        field("last_name"),
		SpouseFirstName: field("spouse_first_name"),
		SpouseLastName:  field("spouse_last_name"),
		Phone:           field("phone"),
		Email:           field("email"),
		SpouseEmail:     field("spouse_email"),
		Gender:          field("gender"),
	}
	if _, ok := form["edit"]; ok {
		_, flagged := form["internal_flag"]
		edits.InternalFlag = &flagged
	}
	return edits
}

func emailRequest(form map[string][]string, manager bool) *crm.EmailRequest {
	get := func(name string) string {
		if v := form[name]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}
	return &crm.EmailRequest{
		Template: get("template"),
		Style:    crm.ParseStyle(get("style")),
		Role:     models.RecipientRole(get("role")),
		Manager:  manager,
	}
}
