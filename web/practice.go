// ABOUTME: Practice pages: entities, services, assignments and tasks
// ABOUTME: Staff manage recurring work and hand out upload links here
package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/harperreed/taxdesk/db"
	"github.com/harperreed/taxdesk/models"
	"github.com/harperreed/taxdesk/practice"
)

func (s *Server) handleTasks(c echo.Context) error {
	ctx := c.Request().Context()
	filter := practice.TaskFilter{
		EntityID: c.QueryParam("entity"),
		Status:   c.QueryParam("status"),
		OpenOnly: c.QueryParam("all") == "",
	}

	tasks, err := s.practice.ListTasks(ctx, filter)
	if err != nil {
		return err
	}
	entities, err := s.practice.Entities(ctx)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "tasks", s.page(c, "Tasks", map[string]interface{}{
		"Tasks":    tasks,
		"Entities": entities,
		"Statuses": models.TaskStatuses,
		"Filter":   filter,
	}))
}

func (s *Server) handleTask(c echo.Context) error {
	ctx := c.Request().Context()

	task, err := s.practice.EnsureToken(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	entity, err := s.desk.Store().GetEntity(ctx, task.EntityID)
	if err != nil && !errors.Is(err, db.ErrRecordNotFound) {
		return err
	}
	items, err := s.practice.Checklist(ctx, *task)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "task", s.page(c, task.ServiceName, map[string]interface{}{
		"Task":      task,
		"Entity":    entity,
		"Checklist": items,
		"Statuses":  models.TaskStatuses,
		"UploadURL": practice.UploadURL(s.cfg.Server.PublicURL, task.UploadToken),
	}))
}

func (s *Server) handleTaskUpdate(c echo.Context) error {
	rc := requestContext(c)
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	status := form.Get("status")
	notes := form.Get("internal_notes")
	instructions := form.Get("client_instructions")
	checklist := form["checklist"]
	if checklist == nil {
		checklist = []string{}
	}

	_, err = s.practice.UpdateTask(c.Request().Context(), c.Param("id"), practice.TaskUpdate{
		Status:             &status,
		InternalNotes:      &notes,
		ClientInstructions: &instructions,
		Checklist:          checklist,
	})
	if err != nil {
		rc.Session.SetFlash(err.Error(), true)
	} else {
		rc.Session.SetFlash("Task updated.", false)
	}
	return c.Redirect(http.StatusSeeOther, "/tasks/"+c.Param("id"))
}

func (s *Server) handleEntities(c echo.Context) error {
	ctx := c.Request().Context()
	entities, err := s.practice.Entities(ctx)
	if err != nil {
		return err
	}
	services, err := s.practice.Services(ctx)
	if err != nil {
		return err
	}
	assignments, err := s.desk.Store().LoadAssignments(ctx)
	if err != nil {
		return err
	}

	byEntity := map[string][]string{}
	for _, a := range assignments {
		byEntity[a.EntityID] = append(byEntity[a.EntityID], a.ServiceName)
	}

	return c.Render(http.StatusOK, "entities", s.page(c, "Entities", map[string]interface{}{
		"Entities":    entities,
		"Services":    services,
		"Assigned":    byEntity,
		"EntityTypes": models.EntityTypes,
		"Frequencies": []string{models.FrequencyMonthly, models.FrequencyQuarterly, models.FrequencyAnnually, models.FrequencyOneTime},
	}))
}

func (s *Server) handleCreateEntity(c echo.Context) error {
	rc := requestContext(c)
	e := &models.Entity{
		Name:  c.FormValue("name"),
		Type:  c.FormValue("type"),
		TaxID: strings.TrimSpace(c.FormValue("tax_id")),
		Email: strings.TrimSpace(c.FormValue("email")),
	}
	if err := s.practice.CreateEntity(c.Request().Context(), e, c.FormValue("create_folder") != ""); err != nil {
		rc.Session.SetFlash(err.Error(), true)
	} else {
		rc.Session.SetFlash("Added "+e.Name+".", false)
	}
	return c.Redirect(http.StatusSeeOther, "/entities")
}

func (s *Server) handleCreateService(c echo.Context) error {
	rc := requestContext(c)
	svc := models.Service{
		Name:      c.FormValue("name"),
		Frequency: c.FormValue("frequency"),
		DueDay:    db.ParseDueDay(c.FormValue("due_day")),
		Checklist: db.SplitChecklist(c.FormValue("checklist")),
	}
	if err := s.practice.CreateService(c.Request().Context(), svc); err != nil {
		rc.Session.SetFlash(err.Error(), true)
	} else {
		rc.Session.SetFlash("Added service "+strings.TrimSpace(svc.Name)+".", false)
	}
	return c.Redirect(http.StatusSeeOther, "/entities")
}

func (s *Server) handleAssign(c echo.Context) error {
	rc := requestContext(c)
	a := models.Assignment{
		EntityID:    c.FormValue("entity_id"),
		ServiceName: c.FormValue("service_name"),
	}
	if raw := strings.TrimSpace(c.FormValue("start_date")); raw != "" {
		start, ok := db.ParseDate(raw)
		if !ok {
			rc.Session.SetFlash("Start date must look like 2025-01-31.", true)
			return c.Redirect(http.StatusSeeOther, "/entities")
		}
		a.StartDate = &start
	}

	if err := s.practice.AssignService(c.Request().Context(), a); err != nil {
		rc.Session.SetFlash(err.Error(), true)
	} else {
		rc.Session.SetFlash("Assigned "+a.ServiceName+".", false)
	}
	return c.Redirect(http.StatusSeeOther, "/entities")
}
