// ABOUTME: Practice MCP tool handlers
// ABOUTME: Implements generate_tasks, list_tasks, update_task and list_entities tools
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/taxdesk/models"
	"github.com/harperreed/taxdesk/practice"
)

type TaskHandlers struct {
	svc       *practice.Service
	gen       *practice.Generator
	publicURL string
}

func NewTaskHandlers(svc *practice.Service, gen *practice.Generator, publicURL string) *TaskHandlers {
	return &TaskHandlers{svc: svc, gen: gen, publicURL: publicURL}
}

type TaskOutput struct {
	ID                 string   `json:"id"`
	EntityID           string   `json:"entity_id"`
	EntityName         string   `json:"entity_name,omitempty"`
	ServiceName        string   `json:"service_name"`
	DueDate            string   `json:"due_date"`
	Status             string   `json:"status"`
	UploadURL          string   `json:"upload_url,omitempty"`
	ClientInstructions string   `json:"client_instructions,omitempty"`
	InternalNotes      string   `json:"internal_notes,omitempty"`
	Checklist          []string `json:"checklist_done,omitempty"`
}

func (h *TaskHandlers) taskToOutput(t models.Task, entityName string) TaskOutput {
	out := TaskOutput{
		ID:                 t.ID,
		EntityID:           t.EntityID,
		EntityName:         entityName,
		ServiceName:        t.ServiceName,
		DueDate:            t.DueDate.Format(models.DateLayout),
		Status:             t.Status,
		ClientInstructions: t.ClientInstructions,
		InternalNotes:      t.InternalNotes,
		Checklist:          t.Checklist,
	}
	if t.UploadToken != "" && t.Status != models.TaskCompleted {
		out.UploadURL = practice.UploadURL(h.publicURL, t.UploadToken)
	}
	return out
}

type GenerateTasksInput struct {
	Force bool `json:"force,omitempty" jsonschema:"Run even if tasks were already generated today"`
}

type GenerateTasksOutput struct {
	AlreadyRan bool         `json:"already_ran"`
	Created    []TaskOutput `json:"created"`
	Skipped    int          `json:"skipped"`
}

func (h *TaskHandlers) GenerateTasks(ctx context.Context, _ *mcp.CallToolRequest, input GenerateTasksInput) (*mcp.CallToolResult, GenerateTasksOutput, error) {
	res, err := h.gen.Run(ctx, input.Force)
	if err != nil {
		return nil, GenerateTasksOutput{}, fmt.Errorf("failed to generate tasks: %w", err)
	}

	out := GenerateTasksOutput{AlreadyRan: res.AlreadyRan, Skipped: res.Skipped, Created: []TaskOutput{}}
	for _, t := range res.Created {
		out.Created = append(out.Created, h.taskToOutput(t, ""))
	}
	return nil, out, nil
}

type ListTasksInput struct {
	EntityID string `json:"entity_id,omitempty" jsonschema:"Filter by entity ID"`
	Status   string `json:"status,omitempty" jsonschema:"Filter by task status"`
	OpenOnly bool   `json:"open_only,omitempty" jsonschema:"Hide completed tasks"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50)"`
}

type ListTasksOutput struct {
	Tasks []TaskOutput `json:"tasks"`
}

func (h *TaskHandlers) ListTasks(ctx context.Context, _ *mcp.CallToolRequest, input ListTasksInput) (*mcp.CallToolResult, ListTasksOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}

	views, err := h.svc.ListTasks(ctx, practice.TaskFilter{
		EntityID: input.EntityID,
		Status:   input.Status,
		OpenOnly: input.OpenOnly,
	})
	if err != nil {
		return nil, ListTasksOutput{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	out := ListTasksOutput{Tasks: []TaskOutput{}}
	for i, v := range views {
		if i >= limit {
			break
		}
		out.Tasks = append(out.Tasks, h.taskToOutput(v.Task, v.EntityName))
	}
	return nil, out, nil
}

type UpdateTaskInput struct {
	ID                 string   `json:"id" jsonschema:"Task ID (required)"`
	Status             *string  `json:"status,omitempty" jsonschema:"Not Started, In Progress, Client Uploaded or Completed"`
	InternalNotes      *string  `json:"internal_notes,omitempty" jsonschema:"Replace staff notes"`
	ClientInstructions *string  `json:"client_instructions,omitempty" jsonschema:"Replace instructions shown on the upload page"`
	ChecklistDone      []string `json:"checklist_done,omitempty" jsonschema:"Completed checklist items"`
}

func (h *TaskHandlers) UpdateTask(ctx context.Context, _ *mcp.CallToolRequest, input UpdateTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	if input.ID == "" {
		return nil, TaskOutput{}, fmt.Errorf("id is required")
	}

	task, err := h.svc.UpdateTask(ctx, input.ID, practice.TaskUpdate{
		Status:             input.Status,
		InternalNotes:      input.InternalNotes,
		ClientInstructions: input.ClientInstructions,
		Checklist:          input.ChecklistDone,
	})
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to update task: %w", err)
	}
	return nil, h.taskToOutput(*task, ""), nil
}

type ListEntitiesInput struct{}

type ListEntitiesOutput struct {
	Entities []models.Entity `json:"entities"`
}

func (h *TaskHandlers) ListEntities(ctx context.Context, _ *mcp.CallToolRequest, _ ListEntitiesInput) (*mcp.CallToolResult, ListEntitiesOutput, error) {
	entities, err := h.svc.Entities(ctx)
	if err != nil {
		return nil, ListEntitiesOutput{}, fmt.Errorf("failed to list entities: %w", err)
	}
	if entities == nil {
		entities = []models.Entity{}
	}
	return nil, ListEntitiesOutput{Entities: entities}, nil
}
