// ABOUTME: MCP server assembly
// ABOUTME: Registers every desk and practice tool, resource and prompt on one server
package handlers

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/taxdesk/crm"
	"github.com/harperreed/taxdesk/practice"
)

const (
	serverName    = "taxdesk"
	serverVersion = "0.1.0"
)

// NewServer builds the MCP server. agent is recorded as Last_Agent on calls
// logged through it.
func NewServer(desk *crm.Desk, svc *practice.Service, gen *practice.Generator, agent, publicURL string) *mcp.Server {
	clientHandlers := NewClientHandlers(desk, agent)
	taskHandlers := NewTaskHandlers(svc, gen, publicURL)
	resourceHandlers := NewResourceHandlers(desk, svc)
	promptHandlers := NewPromptHandlers(desk, svc)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_clients",
		Description: "Search clients by name, email, notes or phone digits",
	}, clientHandlers.FindClients)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_client",
		Description: "Fetch one client record by ID",
	}, clientHandlers.GetClient)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "next_call",
		Description: "Pick the next client to call from the queue, preferring clients with a phone number",
	}, clientHandlers.NextCall)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_call",
		Description: "Record a call result, outcome and note for a client, optionally sending a templated email",
	}, clientHandlers.LogCall)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "preview_email",
		Description: "Compose a templated email for a client without sending it",
	}, clientHandlers.PreviewEmail)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_tasks",
		Description: "Create due tasks for every entity service assignment (once per day unless forced)",
	}, taskHandlers.GenerateTasks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List practice tasks ordered by due date, with optional entity and status filters",
	}, taskHandlers.ListTasks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_task",
		Description: "Update a task's status, notes, client instructions or checklist",
	}, taskHandlers.UpdateTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_entities",
		Description: "List the entities the practice serves",
	}, taskHandlers.ListEntities)

	server.AddResource(&mcp.Resource{
		URI:         "taxdesk://queue",
		Name:        "queue",
		Description: "Number of workable clients in the call queue",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         "taxdesk://tasks",
		Name:        "open-tasks",
		Description: "Open practice tasks ordered by due date",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "taxdesk://clients/{id}",
		Name:        "client",
		Description: "One client record",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "call-prep",
		Description: "Briefing before calling a client",
		Arguments: []*mcp.PromptArgument{
			{Name: "client_id", Description: "Client ID", Required: true},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "task-review",
		Description: "Review of open practice tasks",
	}, promptHandlers.GetPrompt)

	return server
}
