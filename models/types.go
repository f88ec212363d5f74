// ABOUTME: Data models for the tax office desk
// ABOUTME: Defines Client, Entity, Service, Task, Template and app log records
package models

import (
	"strings"
	"time"
)

// Table names as they appear in the backing spreadsheet.
const (
	TableClients     = "Clients"
	TableTemplates   = "Templates"
	TableReference   = "Reference"
	TableEntities    = "Entities"
	TableServices    = "Services"
	TableAssignments = "Entity_Services"
	TableTasks       = "Tasks"
	TableAppLogs     = "App_Logs"
)

// KnownTables lists every table the application reads or writes.
var KnownTables = []string{
	TableClients,
	TableTemplates,
	TableReference,
	TableEntities,
	TableServices,
	TableAssignments,
	TableTasks,
	TableAppLogs,
}

// Timestamp layouts used in stored cells.
const (
	TimestampLayout = "2006-01-02 15:04"
	DateLayout      = "2006-01-02"
)

// Client statuses.
const (
	StatusNew            = "New"
	StatusLeftMessage    = "Left Message"
	StatusTalked         = "Talked"
	StatusWrongNumber    = "Wrong Number"
	StatusManagerEmailed = "Manager Emailed"
	StatusUpdatedFile    = "Updated File"
)

// CallResults are the statuses an agent can pick after a call.
var CallResults = []string{
	StatusUpdatedFile,
	StatusLeftMessage,
	StatusTalked,
	StatusWrongNumber,
}

// Client outcomes.
const (
	OutcomePending = "Pending"
	OutcomeYes     = "Yes"
	OutcomeNo      = "No"
	OutcomeMaybe   = "Maybe"
)

// Outcomes lists the decisions an agent can record.
var Outcomes = []string{OutcomePending, OutcomeYes, OutcomeNo, OutcomeMaybe}

// Client is one row of the Clients table.
type Client struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	SpouseFirstName string `json:"spouse_first_name,omitempty"`
	SpouseLastName  string `json:"spouse_last_name,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	SpouseEmail     string `json:"spouse_email,omitempty"`
	Gender          string `json:"gender,omitempty"`
	Status          string `json:"status"`
	Outcome         string `json:"outcome,omitempty"`
	InternalFlag    bool   `json:"internal_flag"`
	Notes           string `json:"notes,omitempty"`
	LastAgent       string `json:"last_agent,omitempty"`
	LastUpdated     string `json:"last_updated,omitempty"`

	// Extra holds columns the schema does not map so they survive a save.
	Extra map[string]string `json:"-"`
}

// Gender values used by the greeting rule.
type Gender string

const (
	GenderMale    Gender = "Male"
	GenderFemale  Gender = "Female"
	GenderUnknown Gender = "Unknown"
)

// ParseGender maps free text from the sheet onto a Gender.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return GenderMale
	case "female", "f":
		return GenderFemale
	}
	return GenderUnknown
}

// RecipientRole selects which of a client's addresses an email goes to.
type RecipientRole string

const (
	RoleTaxpayer RecipientRole = "taxpayer"
	RoleSpouse   RecipientRole = "spouse"
)

// Recipient is one resolvable address on a client record.
type Recipient struct {
	Role    RecipientRole `json:"role"`
	Address string        `json:"address"`
}

// Template is a named email template.
type Template struct {
	Type    string `json:"type"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Email is a fully composed message ready to hand to a mailer.
type Email struct {
	To        string `json:"to"`
	Cc        string `json:"cc,omitempty"`
	Subject   string `json:"subject"`
	PlainBody string `json:"plain_body"`
	HTMLBody  string `json:"html_body"`
}

// MailMessage is a summary of a message found in the agent's mailbox.
type MailMessage struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
	Subject  string `json:"subject"`
	Date     string `json:"date"`
	Snippet  string `json:"snippet"`
}

// Entity types.
const (
	EntityIndividual     = "Individual"
	EntitySoleProprietor = "Sole Proprietor"
	EntityPartnership    = "Partnership"
	EntitySCorp          = "S-Corp"
	EntityCCorp          = "C-Corp"
	EntityTrust          = "Trust"
	EntityNonprofit      = "Nonprofit"
)

// EntityTypes lists the valid entity types.
var EntityTypes = []string{
	EntityIndividual,
	EntitySoleProprietor,
	EntityPartnership,
	EntitySCorp,
	EntityCCorp,
	EntityTrust,
	EntityNonprofit,
}

// Entity is a business or individual the practice serves.
type Entity struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	TaxID         string `json:"tax_id,omitempty"`
	Email         string `json:"email,omitempty"`
	DriveFolderID string `json:"drive_folder_id,omitempty"`
}

// Service frequencies.
const (
	FrequencyMonthly   = "Monthly"
	FrequencyQuarterly = "Quarterly"
	FrequencyAnnually  = "Annually"
	FrequencyOneTime   = "One-Time"
)

// Service is a service definition offered by the practice.
type Service struct {
	Name      string   `json:"name"`
	Frequency string   `json:"frequency"`
	DueDay    int      `json:"due_day"`
	Checklist []string `json:"checklist,omitempty"`
}

// Assignment links an entity to a service from a start date.
type Assignment struct {
	EntityID    string     `json:"entity_id"`
	ServiceName string     `json:"service_name"`
	StartDate   *time.Time `json:"start_date,omitempty"`
}

// Task statuses.
const (
	TaskNotStarted     = "Not Started"
	TaskInProgress     = "In Progress"
	TaskClientUploaded = "Client Uploaded"
	TaskCompleted      = "Completed"
)

// TaskStatuses lists the valid task statuses.
var TaskStatuses = []string{TaskNotStarted, TaskInProgress, TaskClientUploaded, TaskCompleted}

// Task is a generated unit of recurring work.
type Task struct {
	ID                 string    `json:"id"`
	EntityID           string    `json:"entity_id"`
	ServiceName        string    `json:"service_name"`
	DueDate            time.Time `json:"due_date"`
	// DueDateRaw keeps a Due_Date cell that could not be parsed so saving the
	// task writes it back unchanged.
	DueDateRaw         string    `json:"-"`
	Status             string    `json:"status"`
	UploadToken        string    `json:"-"`
	ClientInstructions string    `json:"client_instructions,omitempty"`
	InternalNotes      string    `json:"internal_notes,omitempty"`
	Checklist          []string  `json:"checklist,omitempty"`
	CreatedAt          string    `json:"created_at,omitempty"`
}

// Key identifies a task by its uniqueness triple.
func (t Task) Key() TaskKey {
	due := t.DueDate.Format(DateLayout)
	if t.DueDate.IsZero() && t.DueDateRaw != "" {
		due = t.DueDateRaw
	}
	return TaskKey{EntityID: t.EntityID, ServiceName: t.ServiceName, DueDate: due}
}

// TaskKey is the (entity, service, due-date) uniqueness triple.
type TaskKey struct {
	EntityID    string
	ServiceName string
	DueDate     string
}

// AppLogEntry is one line of the application log.
type AppLogEntry struct {
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Detail    string `json:"detail"`
}
