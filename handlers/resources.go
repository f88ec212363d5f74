// ABOUTME: MCP resource handlers for exposing desk and practice data
// ABOUTME: Provides read-only JSON views of the call queue, clients and open tasks
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/taxdesk/crm"
	"github.com/harperreed/taxdesk/practice"
)

const resourceScheme = "taxdesk://"

type ResourceHandlers struct {
	desk *crm.Desk
	svc  *practice.Service
}

func NewResourceHandlers(desk *crm.Desk, svc *practice.Service) *ResourceHandlers {
	return &ResourceHandlers{desk: desk, svc: svc}
}

// ReadResource serves taxdesk://queue, taxdesk://clients/{id} and taxdesk://tasks.
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	switch parts[0] {
	case "queue":
		return h.readQueue(ctx, uri)
	case "clients":
		if len(parts) < 2 || parts[1] == "" {
			return nil, fmt.Errorf("client ID is required")
		}
		return h.readClient(ctx, uri, parts[1])
	case "tasks":
		return h.readTasks(ctx, uri)
	default:
		return nil, mcp.ResourceNotFoundError(uri)
	}
}

func (h *ResourceHandlers) readQueue(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	size, err := h.desk.QueueSize(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}
	return jsonResource(uri, map[string]int{"workable_clients": size})
}

func (h *ResourceHandlers) readClient(ctx context.Context, uri, id string) (*mcp.ReadResourceResult, error) {
	c, err := h.desk.Client(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch client: %w", err)
	}
	return jsonResource(uri, clientToOutput(*c))
}

func (h *ResourceHandlers) readTasks(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	views, err := h.svc.ListTasks(ctx, practice.TaskFilter{OpenOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	th := &TaskHandlers{}
	out := make([]TaskOutput, 0, len(views))
	for _, v := range views {
		out = append(out, th.taskToOutput(v.Task, v.EntityName))
	}
	return jsonResource(uri, out)
}

func jsonResource(uri string, v interface{}) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
