// ABOUTME: Client desk MCP tool handlers
// ABOUTME: Implements find_clients, get_client, next_call, log_call and preview_email tools
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/taxdesk/crm"
	"github.com/harperreed/taxdesk/models"
)

type ClientHandlers struct {
	desk  *crm.Desk
	agent string
}

// NewClientHandlers wires desk tools. agent is stamped on notes written through MCP.
func NewClientHandlers(desk *crm.Desk, agent string) *ClientHandlers {
	return &ClientHandlers{desk: desk, agent: agent}
}

type ClientOutput struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	SpouseEmail  string `json:"spouse_email,omitempty"`
	Status       string `json:"status"`
	Outcome      string `json:"outcome,omitempty"`
	InternalFlag bool   `json:"internal_flag"`
	Notes        string `json:"notes,omitempty"`
	LastAgent    string `json:"last_agent,omitempty"`
	LastUpdated  string `json:"last_updated,omitempty"`
}

func clientToOutput(c models.Client) ClientOutput {
	return ClientOutput{
		ID:           c.ID,
		Name:         displayName(c),
		Phone:        c.Phone,
		Email:        c.Email,
		SpouseEmail:  c.SpouseEmail,
		Status:       c.Status,
		Outcome:      c.Outcome,
		InternalFlag: c.InternalFlag,
		Notes:        c.Notes,
		LastAgent:    c.LastAgent,
		LastUpdated:  c.LastUpdated,
	}
}

func displayName(c models.Client) string {
	if strings.TrimSpace(c.Name) != "" {
		return c.Name
	}
	return strings.TrimSpace(crm.CleanName(c.FirstName) + " " + crm.CleanName(c.LastName))
}

type FindClientsInput struct {
	Query string `json:"query" jsonschema:"Search text matched against name, email, notes and phone digits"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type FindClientsOutput struct {
	Clients []ClientOutput `json:"clients"`
	Total   int            `json:"total"`
}

func (h *ClientHandlers) FindClients(ctx context.Context, _ *mcp.CallToolRequest, input FindClientsInput) (*mcp.CallToolResult, FindClientsOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, FindClientsOutput{}, fmt.Errorf("query is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	found, err := h.desk.Find(ctx, input.Query)
	if err != nil {
		return nil, FindClientsOutput{}, fmt.Errorf("failed to search clients: %w", err)
	}

	out := FindClientsOutput{Clients: []ClientOutput{}, Total: len(found)}
	for i, c := range found {
		if i >= limit {
			break
		}
		out.Clients = append(out.Clients, clientToOutput(c))
	}
	return nil, out, nil
}

type GetClientInput struct {
	ID string `json:"id" jsonschema:"Client ID (required)"`
}

func (h *ClientHandlers) GetClient(ctx context.Context, _ *mcp.CallToolRequest, input GetClientInput) (*mcp.CallToolResult, ClientOutput, error) {
	if input.ID == "" {
		return nil, ClientOutput{}, fmt.Errorf("id is required")
	}
	c, err := h.desk.Client(ctx, input.ID)
	if err != nil {
		return nil, ClientOutput{}, fmt.Errorf("failed to fetch client: %w", err)
	}
	return nil, clientToOutput(*c), nil
}

type NextCallInput struct{}

type NextCallOutput struct {
	Client    *ClientOutput `json:"client,omitempty"`
	QueueSize int           `json:"queue_size"`
}

func (h *ClientHandlers) NextCall(ctx context.Context, _ *mcp.CallToolRequest, _ NextCallInput) (*mcp.CallToolResult, NextCallOutput, error) {
	size, err := h.desk.QueueSize(ctx)
	if err != nil {
		return nil, NextCallOutput{}, fmt.Errorf("failed to load queue: %w", err)
	}

	c, err := h.desk.Next(ctx)
	if errors.Is(err, crm.ErrQueueEmpty) {
		return nil, NextCallOutput{QueueSize: 0}, nil
	}
	if err != nil {
		return nil, NextCallOutput{}, fmt.Errorf("failed to pick next client: %w", err)
	}

	out := clientToOutput(*c)
	return nil, NextCallOutput{Client: &out, QueueSize: size}, nil
}

type LogCallInput struct {
	ClientID      string `json:"client_id" jsonschema:"Client ID (required)"`
	Status        string `json:"status,omitempty" jsonschema:"Call result: Updated File, Left Message, Talked or Wrong Number"`
	Outcome       string `json:"outcome,omitempty" jsonschema:"Decision: Pending, Yes, No or Maybe"`
	Note          string `json:"note,omitempty" jsonschema:"Note appended to the client's history"`
	EmailTemplate string `json:"email_template,omitempty" jsonschema:"Template type to email after the call"`
	EmailStyle    string `json:"email_style,omitempty" jsonschema:"Greeting style: Casual (default) or Formal"`
	EmailRole     string `json:"email_role,omitempty" jsonschema:"Recipient: taxpayer or spouse; required when both have addresses"`
}

type LogCallOutput struct {
	Client     ClientOutput `json:"client"`
	EmailSent  bool         `json:"email_sent"`
	EmailError string       `json:"email_error,omitempty"`
}

func (h *ClientHandlers) LogCall(ctx context.Context, _ *mcp.CallToolRequest, input LogCallInput) (*mcp.CallToolResult, LogCallOutput, error) {
	if input.ClientID == "" {
		return nil, LogCallOutput{}, fmt.Errorf("client_id is required")
	}
	if input.Status != "" && !containsFold(models.CallResults, input.Status) {
		return nil, LogCallOutput{}, fmt.Errorf("invalid status %q", input.Status)
	}
	if input.Outcome != "" && !containsFold(models.Outcomes, input.Outcome) {
		return nil, LogCallOutput{}, fmt.Errorf("invalid outcome %q", input.Outcome)
	}

	req := crm.SaveRequest{
		ClientID: input.ClientID,
		Agent:    h.agent,
		Status:   canonical(models.CallResults, input.Status),
		Outcome:  canonical(models.Outcomes, input.Outcome),
		Note:     input.Note,
	}
	if input.EmailTemplate != "" {
		req.Email = &crm.EmailRequest{
			Template: input.EmailTemplate,
			Style:    crm.ParseStyle(input.EmailStyle),
			Role:     models.RecipientRole(strings.ToLower(input.EmailRole)),
		}
	}

	res, err := h.desk.Save(ctx, req)
	if err != nil {
		return nil, LogCallOutput{}, fmt.Errorf("failed to log call: %w", err)
	}

	out := LogCallOutput{Client: clientToOutput(res.Client), EmailSent: res.EmailSent}
	if res.EmailErr != nil {
		out.EmailError = res.EmailErr.Error()
	}
	return nil, out, nil
}

type PreviewEmailInput struct {
	ClientID string `json:"client_id" jsonschema:"Client ID (required)"`
	Template string `json:"template" jsonschema:"Template type (required)"`
	Style    string `json:"style,omitempty" jsonschema:"Greeting style: Casual (default) or Formal"`
	Role     string `json:"role,omitempty" jsonschema:"Recipient: taxpayer or spouse"`
}

func (h *ClientHandlers) PreviewEmail(ctx context.Context, _ *mcp.CallToolRequest, input PreviewEmailInput) (*mcp.CallToolResult, models.Email, error) {
	if input.ClientID == "" || input.Template == "" {
		return nil, models.Email{}, fmt.Errorf("client_id and template are required")
	}
	c, err := h.desk.Client(ctx, input.ClientID)
	if err != nil {
		return nil, models.Email{}, fmt.Errorf("failed to fetch client: %w", err)
	}

	email, err := h.desk.Preview(ctx, *c, crm.EmailRequest{
		Template: input.Template,
		Style:    crm.ParseStyle(input.Style),
		Role:     models.RecipientRole(strings.ToLower(input.Role)),
	})
	if err != nil {
		return nil, models.Email{}, fmt.Errorf("failed to compose email: %w", err)
	}
	return nil, email, nil
}

func containsFold(list []string, s string) bool {
	return canonical(list, s) != ""
}

// canonical returns the list entry equal to s ignoring case, or "".
func canonical(list []string, s string) string {
	for _, v := range list {
		if strings.EqualFold(v, strings.TrimSpace(s)) {
			return v
		}
	}
	return ""
}
