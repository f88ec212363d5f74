// ABOUTME: Declared column mapping for every table the app touches
// ABOUTME: Replaces per-request header guessing with one validated schema
package db

import (
	"fmt"
	"strings"
)

// ClientColumns maps client fields onto sheet headers.
type ClientColumns struct {
	ID              string `mapstructure:"id"`
	Name            string `mapstructure:"name"`
	FirstName       string `mapstructure:"first_name"`
	LastName        string `mapstructure:"last_name"`
	SpouseFirstName string `mapstructure:"spouse_first_name"`
	SpouseLastName  string `mapstructure:"spouse_last_name"`
	Phone           string `mapstructure:"phone"`
	Email           string `mapstructure:"email"`
	SpouseEmail     string `mapstructure:"spouse_email"`
	Gender          string `mapstructure:"gender"`
	Status          string `mapstructure:"status"`
	Outcome         string `mapstructure:"outcome"`
	InternalFlag    string `mapstructure:"internal_flag"`
	Notes           string `mapstructure:"notes"`
	LastAgent       string `mapstructure:"last_agent"`
	LastUpdated     string `mapstructure:"last_updated"`
}

// List returns every mapped header in a stable order.
func (c ClientColumns) List() []string {
	return []string{
		c.ID, c.Name, c.FirstName, c.LastName, c.SpouseFirstName, c.SpouseLastName,
		c.Phone, c.Email, c.SpouseEmail, c.Gender, c.Status, c.Outcome,
		c.InternalFlag, c.Notes, c.LastAgent, c.LastUpdated,
	}
}

// Tracked returns the columns guaranteed to exist after a load.
func (c ClientColumns) Tracked() []string {
	return []string{
		c.ID, c.Status, c.Outcome, c.InternalFlag, c.Notes,
		c.LastAgent, c.LastUpdated, c.Gender, c.SpouseEmail,
	}
}

type EntityColumns struct {
	ID            string `mapstructure:"id"`
	Name          string `mapstructure:"name"`
	Type          string `mapstructure:"type"`
	TaxID         string `mapstructure:"tax_id"`
	Email         string `mapstructure:"email"`
	DriveFolderID string `mapstructure:"drive_folder_id"`
}

func (c EntityColumns) List() []string {
	return []string{c.ID, c.Name, c.Type, c.TaxID, c.Email, c.DriveFolderID}
}

type ServiceColumns struct {
	Name      string `mapstructure:"name"`
	Frequency string `mapstructure:"frequency"`
	DueDay    string `mapstructure:"due_day"`
	Checklist string `mapstructure:"checklist"`
}

func (c ServiceColumns) List() []string {
	return []string{c.Name, c.Frequency, c.DueDay, c.Checklist}
}

type AssignmentColumns struct {
	EntityID    string `mapstructure:"entity_id"`
	ServiceName string `mapstructure:"service_name"`
	StartDate   string `mapstructure:"start_date"`
}

func (c AssignmentColumns) List() []string {
	return []string{c.EntityID, c.ServiceName, c.StartDate}
}

type TaskColumns struct {
	ID                 string `mapstructure:"id"`
	EntityID           string `mapstructure:"entity_id"`
	ServiceName        string `mapstructure:"service_name"`
	DueDate            string `mapstructure:"due_date"`
	Status             string `mapstructure:"status"`
	UploadToken        string `mapstructure:"upload_token"`
	ClientInstructions string `mapstructure:"client_instructions"`
	InternalNotes      string `mapstructure:"internal_notes"`
	ChecklistState     string `mapstructure:"checklist_state"`
	CreatedAt          string `mapstructure:"created_at"`
}

func (c TaskColumns) List() []string {
	return []string{
		c.ID, c.EntityID, c.ServiceName, c.DueDate, c.Status, c.UploadToken,
		c.ClientInstructions, c.InternalNotes, c.ChecklistState, c.CreatedAt,
	}
}

type TemplateColumns struct {
	Type    string `mapstructure:"type"`
	Subject string `mapstructure:"subject"`
	Body    string `mapstructure:"body"`
}

func (c TemplateColumns) List() []string {
	return []string{c.Type, c.Subject, c.Body}
}

type AppLogColumns struct {
	Timestamp string `mapstructure:"timestamp"`
	Action    string `mapstructure:"action"`
	Detail    string `mapstructure:"detail"`
}

func (c AppLogColumns) List() []string {
	return []string{c.Timestamp, c.Action, c.Detail}
}

// ReferenceColumns names the lookup columns of the free-form Reference sheet.
type ReferenceColumns struct {
	Name  string `mapstructure:"name"`
	Phone string `mapstructure:"phone"`
}

func (c ReferenceColumns) List() []string {
	return []string{c.Name, c.Phone}
}

// Columns is the full declared schema.
type Columns struct {
	Clients     ClientColumns     `mapstructure:"clients"`
	Entities    EntityColumns     `mapstructure:"entities"`
	Services    ServiceColumns    `mapstructure:"services"`
	Assignments AssignmentColumns `mapstructure:"assignments"`
	Tasks       TaskColumns       `mapstructure:"tasks"`
	Templates   TemplateColumns   `mapstructure:"templates"`
	AppLogs     AppLogColumns     `mapstructure:"app_logs"`
	Reference   ReferenceColumns  `mapstructure:"reference"`
}

// DefaultColumns returns the headers used by the office spreadsheet.
func DefaultColumns() Columns {
	return Columns{
		Clients: ClientColumns{
			ID:              "Client_ID",
			Name:            "Name",
			FirstName:       "Taxpayer First Name",
			LastName:        "Taxpayer last name",
			SpouseFirstName: "Spouse First Name",
			SpouseLastName:  "Spouse last name",
			Phone:           "Home Telephone",
			Email:           "Taxpayer E-mail Address",
			SpouseEmail:     "Spouse E-mail Address",
			Gender:          "Gender",
			Status:          "Status",
			Outcome:         "Outcome",
			InternalFlag:    "Internal_Flag",
			Notes:           "Notes",
			LastAgent:       "Last_Agent",
			LastUpdated:     "Last_Updated",
		},
		Entities: EntityColumns{
			ID:            "Entity_ID",
			Name:          "Name",
			Type:          "Type",
			TaxID:         "FEIN",
			Email:         "Email",
			DriveFolderID: "Drive_Folder_ID",
		},
		Services: ServiceColumns{
			Name:      "Service_Name",
			Frequency: "Frequency",
			DueDay:    "Due_Day",
			Checklist: "Checklist",
		},
		Assignments: AssignmentColumns{
			EntityID:    "Entity_ID",
			ServiceName: "Service_Name",
			StartDate:   "Start_Date",
		},
		Tasks: TaskColumns{
			ID:                 "Task_ID",
			EntityID:           "Entity_ID",
			ServiceName:        "Service_Name",
			DueDate:            "Due_Date",
			Status:             "Status",
			UploadToken:        "Upload_Token",
			ClientInstructions: "Client_Instructions",
			InternalNotes:      "Internal_Notes",
			ChecklistState:     "Checklist_State",
			CreatedAt:          "Created_At",
		},
		Templates: TemplateColumns{
			Type:    "Type",
			Subject: "Subject",
			Body:    "Body",
		},
		AppLogs: AppLogColumns{
			Timestamp: "Timestamp",
			Action:    "Action",
			Detail:    "Detail",
		},
		Reference: ReferenceColumns{
			Name:  "Name",
			Phone: "Phone",
		},
	}
}

// Validate checks that every mapped header is set and unique within its table.
func (c Columns) Validate() error {
	tables := []struct {
		name    string
		columns []string
	}{
		{"clients", c.Clients.List()},
		{"entities", c.Entities.List()},
		{"services", c.Services.List()},
		{"assignments", c.Assignments.List()},
		{"tasks", c.Tasks.List()},
		{"templates", c.Templates.List()},
		{"app_logs", c.AppLogs.List()},
		{"reference", c.Reference.List()},
	}

	for _, t := range tables {
		seen := make(map[string]bool, len(t.columns))
		for _, col := range t.columns {
			if strings.TrimSpace(col) == "" {
				return fmt.Errorf("schema.%s: column name cannot be empty", t.name)
			}
			if seen[col] {
				return fmt.Errorf("schema.%s: column %q mapped twice", t.name, col)
			}
			seen[col] = true
		}
	}
	return nil
}

// MissingColumns reports which of want are absent from header.
func MissingColumns(header, want []string) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	var missing []string
	for _, w := range want {
		if !have[w] {
			missing = append(missing, w)
		}
	}
	return missing
}
