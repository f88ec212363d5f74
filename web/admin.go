// ABOUTME: Admin view over every client and the task generator
// ABOUTME: Filters clients by status or flag and sends manager escalation emails
package web

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/harperreed/taxdesk/crm"
	"github.com/harperreed/taxdesk/models"
)

const recentLogEntries = 20

func (s *Server) handleAdmin(c echo.Context) error {
	ctx := c.Request().Context()
	store := s.desk.Store()

	clients, err := store.LoadClients(ctx)
	if err != nil {
		return err
	}

	status := c.QueryParam("status")
	flagged := c.QueryParam("flagged") != ""
	counts := map[string]int{}
	var shown []models.Client
	for _, cl := range clients {
		counts[cl.Status]++
		if status != "" && !strings.EqualFold(cl.Status, status) {
			continue
		}
		if flagged && !cl.InternalFlag {
			continue
		}
		shown = append(shown, cl)
	}

	statuses := make([]string, 0, len(counts))
	for st := range counts {
		statuses = append(statuses, st)
	}
	sort.Strings(statuses)

	entries, err := store.LoadAppLog(ctx)
	if err != nil {
		return err
	}
	if len(entries) > recentLogEntries {
		entries = entries[len(entries)-recentLogEntries:]
	}

	return c.Render(http.StatusOK, "admin", s.page(c, "Admin", map[string]interface{}{
		"Clients":   shown,
		"Total":     len(clients),
		"Counts":    counts,
		"Statuses":  statuses,
		"Status":    status,
		"Flagged":   flagged,
		"Templates": s.desk.Templates(ctx),
		"Log":       entries,
	}))
}

func (s *Server) handleManagerEmail(c echo.Context) error {
	rc := requestContext(c)
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	res, err := rc.Desk().Save(c.Request().Context(), saveManagerEmail(c.Param("id"), rc.Session.Email, form))
	if err != nil {
		return err
	}
	if res.EmailErr != nil {
		rc.Session.SetFlash("Manager email to "+res.Client.Name+" failed: "+res.EmailErr.Error(), true)
	} else {
		rc.Session.SetFlash("Manager email sent to "+res.Email.To+".", false)
	}
	return c.Redirect(http.StatusSeeOther, "/admin")
}

func (s *Server) handleGenerate(c echo.Context) error {
	rc := requestContext(c)
	if s.generator == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "task generation is not configured")
	}

	res, err := s.generator.Run(c.Request().Context(), c.FormValue("force") != "")
	if err != nil {
		return err
	}
	switch {
	case res.AlreadyRan:
		rc.Session.SetFlash("Tasks were already generated today.", false)
	case len(res.Created) == 0:
		rc.Session.SetFlash("No new tasks were due.", false)
	default:
		rc.Session.SetFlash(pluralTasks(len(res.Created))+" created.", false)
	}
	return c.Redirect(http.StatusSeeOther, "/tasks")
}

func pluralTasks(n int) string {
	if n == 1 {
		return "1 task"
	}
	return strconv.Itoa(n) + " tasks"
}

// saveManagerEmail is a save that only sends an escalation email; with no
// status given the client moves to Manager Emailed.
func saveManagerEmail(id, agent string, form map[string][]string) crm.SaveRequest {
	return crm.SaveRequest{
		ClientID: id,
		Agent:    agent,
		Email:    emailRequest(form, true),
	}
}
