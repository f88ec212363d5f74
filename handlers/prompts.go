// ABOUTME: MCP prompt handlers for call-desk workflows
// ABOUTME: Provides a call-prep briefing for one client and a weekly task review
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/taxdesk/crm"
	"github.com/harperreed/taxdesk/models"
	"github.com/harperreed/taxdesk/practice"
)

type PromptHandlers struct {
	desk *crm.Desk
	svc  *practice.Service
}

func NewPromptHandlers(desk *crm.Desk, svc *practice.Service) *PromptHandlers {
	return &PromptHandlers{desk: desk, svc: svc}
}

// GetPrompt generates the prompt message for name.
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "call-prep":
		return h.callPrep(ctx, request.Params.Arguments)
	case "task-review":
		return h.taskReview(ctx)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) callPrep(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id := args["client_id"]
	if id == "" {
		return nil, fmt.Errorf("client_id is required")
	}
	c, err := h.desk.Client(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch client: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I am about to call %s (%s).\n\n", displayName(*c), c.ID)
	fmt.Fprintf(&b, "Phone: %s\n", orNone(c.Phone))
	fmt.Fprintf(&b, "Status: %s\n", c.Status)
	fmt.Fprintf(&b, "Outcome: %s\n", orNone(c.Outcome))
	if c.InternalFlag {
		b.WriteString("This client is flagged for internal review.\n")
	}
	fmt.Fprintf(&b, "\nCall history and notes:\n%s\n\n", orNone(c.Notes))
	b.WriteString("Summarize where things stand in two or three sentences and suggest what to ask on this call.")

	return textPrompt("Call preparation for "+displayName(*c), b.String()), nil
}

func (h *PromptHandlers) taskReview(ctx context.Context) (*mcp.GetPromptResult, error) {
	views, err := h.svc.ListTasks(ctx, practice.TaskFilter{OpenOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	var b strings.Builder
	b.WriteString("Open tasks by due date:\n\n")
	if len(views) == 0 {
		b.WriteString("(none)\n")
	}
	for _, v := range views {
		fmt.Fprintf(&b, "- %s  %s / %s  [%s]\n", v.DueDate.Format(models.DateLayout), v.EntityName, v.ServiceName, v.Status)
	}
	b.WriteString("\nPoint out anything overdue or waiting on the client, and what to chase first.")

	return textPrompt("Open task review", b.String()), nil
}

func textPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text}},
		},
	}
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
