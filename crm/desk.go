// ABOUTME: Client desk operations used by the web, TUI and MCP front ends
// ABOUTME: Queue picking, search, the save interaction with email and mailbox history
package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/harperreed/taxdesk/db"
	"github.com/harperreed/taxdesk/models"
)

var (
	ErrQueueEmpty     = errors.New("no workable clients in the queue")
	ErrMailPermission = errors.New("mailbox access not granted; sign in again to allow reading mail")
)

// Mailer sends and searches mail as the signed-in agent.
type Mailer interface {
	Send(ctx context.Context, email models.Email) error
	Signature(ctx context.Context) (string, error)
	Search(ctx context.Context, addresses []string, limit int) ([]models.MailMessage, error)
}

const historyLimit = 10

const logRule = "----------------------------------------"

type Desk struct {
	store    *db.Store
	mailer   Mailer
	logger   *zap.Logger
	statuses []string
	rng      Rand
}

// NewDesk builds a desk. mailer may be nil when mail is not configured.
func NewDesk(store *db.Store, mailer Mailer, statuses []string, logger *zap.Logger) *Desk {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(statuses) == 0 {
		statuses = []string{models.StatusNew}
	}
	return &Desk{
		store:    store,
		mailer:   mailer,
		logger:   logger,
		statuses: statuses,
		rng:      DefaultRand,
	}
}

// SetRand replaces the queue's random source.
func (d *Desk) SetRand(rng Rand) {
	d.rng = rng
}

// WithMailer returns a copy of the desk that sends through mailer. The web
// server uses it to act as the signed-in agent.
func (d *Desk) WithMailer(mailer Mailer) *Desk {
	cp := *d
	cp.mailer = mailer
	return &cp
}

func (d *Desk) Store() *db.Store {
	return d.store
}

// Next picks the next client to call.
func (d *Desk) Next(ctx context.Context) (*models.Client, error) {
	clients, err := d.store.LoadClients(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := PickNext(clients, d.statuses, d.rng)
	if !ok {
		return nil, ErrQueueEmpty
	}
	return &c, nil
}

// QueueSize counts workable clients.
func (d *Desk) QueueSize(ctx context.Context) (int, error) {
	clients, err := d.store.LoadClients(ctx)
	if err != nil {
		return 0, err
	}
	return len(Workable(clients, d.statuses)), nil
}

func (d *Desk) Find(ctx context.Context, query string) ([]models.Client, error) {
	clients, err := d.store.LoadClients(ctx)
	if err != nil {
		return nil, err
	}
	return Search(clients, query), nil
}

func (d *Desk) Client(ctx context.Context, id string) (*models.Client, error) {
	return d.store.GetClient(ctx, id)
}

// Templates lists the configured email templates.
func (d *Desk) Templates(ctx context.Context) []models.Template {
	return d.store.LoadTemplates(ctx)
}

// ClientEdits carries field changes from the card editor. Nil fields are
// left as they are.
type ClientEdits struct {
	FirstName       *string
	LastName        *string
	SpouseFirstName *string
	SpouseLastName  *string
	Phone           *string
	Email           *string
	SpouseEmail     *string
	Gender          *string
	InternalFlag    *bool
}

func (e ClientEdits) apply(c *models.Client) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&c.FirstName, e.FirstName)
	set(&c.LastName, e.LastName)
	set(&c.SpouseFirstName, e.SpouseFirstName)
	set(&c.SpouseLastName, e.SpouseLastName)
	set(&c.Phone, e.Phone)
	set(&c.Email, e.Email)
	set(&c.SpouseEmail, e.SpouseEmail)
	set(&c.Gender, e.Gender)
	if e.InternalFlag != nil {
		c.InternalFlag = *e.InternalFlag
	}
}

// EmailRequest asks Save to send a templated email.
type EmailRequest struct {
	Template string
	Style    Style
	Role     models.RecipientRole
	// Manager marks an escalation email sent from the admin view.
	Manager bool
}

// SaveRequest is one completed interaction with a client.
type SaveRequest struct {
	ClientID string
	Agent    string
	Status   string
	Outcome  string
	Note     string
	Edits    ClientEdits
	Email    *EmailRequest
}

// SaveResult reports what Save did. EmailErr is set when a requested email
// failed; the record is saved regardless.
type SaveResult struct {
	Client    models.Client
	EmailSent bool
	Email     *models.Email
	EmailErr  error
}

// Save applies an interaction: field edits, a note line, an optional email
// with its log block, the disposition and agent stamp, then persists the row.
func (d *Desk) Save(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	if req.ClientID == "" {
		return nil, fmt.Errorf("client id is required")
	}

	d.store.Invalidate(models.TableClients)
	client, err := d.store.GetClient(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	now := d.store.Now()
	stamp := now.Format(models.TimestampLayout)
	result := &SaveResult{}

	req.Edits.apply(client)

	var log []string
	if note := strings.TrimSpace(req.Note); note != "" {
		log = append(log, fmt.Sprintf("[%s %s]: %s", stamp, req.Agent, note))
	}

	if req.Email != nil {
		email, err := d.sendEmail(ctx, *client, *req.Email)
		if err != nil {
			result.EmailErr = err
			emailsFailed.Inc()
			d.logger.Warn("email not sent", zap.String("client", client.ID), zap.Error(err))
		} else {
			result.EmailSent = true
			result.Email = &email
			emailsSent.Inc()
			log = append(log, emailLogBlock(req.Email.Manager, stamp, email))
		}
	}

	if len(log) > 0 {
		client.Notes = AppendNote(client.Notes, strings.Join(log, "\n"))
	}

	if req.Status != "" {
		client.Status = req.Status
	} else if result.EmailSent && req.Email.Manager {
		client.Status = models.StatusManagerEmailed
	}
	if req.Outcome != "" {
		client.Outcome = req.Outcome
	}
	client.LastAgent = req.Agent
	client.LastUpdated = stamp

	if err := d.store.SaveClient(ctx, *client); err != nil {
		return result, fmt.Errorf("failed to save client %s: %w", client.ID, err)
	}

	callsSaved.WithLabelValues(client.Status).Inc()
	d.logger.Info("client saved",
		zap.String("client", client.ID),
		zap.String("status", client.Status),
		zap.String("outcome", client.Outcome),
		zap.String("agent", req.Agent),
		zap.Bool("email_sent", result.EmailSent),
	)

	result.Client = *client
	return result, nil
}

// Preview composes the email Save would send, without sending it.
func (d *Desk) Preview(ctx context.Context, c models.Client, req EmailRequest) (models.Email, error) {
	tmpl, err := FindTemplate(d.store.LoadTemplates(ctx), req.Template)
	if err != nil {
		return models.Email{}, err
	}
	return Compose(tmpl, c, req.Style, req.Role, d.signature(ctx))
}

func (d *Desk) sendEmail(ctx context.Context, c models.Client, req EmailRequest) (models.Email, error) {
	if d.mailer == nil {
		return models.Email{}, fmt.Errorf("mail is not configured")
	}

	email, err := d.Preview(ctx, c, req)
	if err != nil {
		return models.Email{}, err
	}

	if err := d.mailer.Send(ctx, email); err != nil {
		return models.Email{}, fmt.Errorf("failed to send email to %s: %w", email.To, err)
	}
	return email, nil
}

// signature is best effort; a missing signature only drops the footer.
func (d *Desk) signature(ctx context.Context) string {
	if d.mailer == nil {
		return ""
	}
	sig, err := d.mailer.Signature(ctx)
	if err != nil {
		d.logger.Debug("signature unavailable", zap.Error(err))
		return ""
	}
	return sig
}

// History returns recent messages exchanged with the client's addresses.
// ErrMailPermission means the agent must sign in again with the read scope.
func (d *Desk) History(ctx context.Context, c models.Client) ([]models.MailMessage, error) {
	if d.mailer == nil {
		return nil, fmt.Errorf("mail is not configured")
	}

	var addresses []string
	for _, r := range Recipients(c) {
		addresses = append(addresses, r.Address)
	}
	if len(addresses) == 0 {
		return nil, ErrNoRecipient
	}

	return d.mailer.Search(ctx, addresses, historyLimit)
}

// AppendNote adds entry on a new line below existing notes.
func AppendNote(existing, entry string) string {
	if strings.TrimSpace(existing) == "" {
		return entry
	}
	return strings.TrimRight(existing, "\n") + "\n" + entry
}

func emailLogBlock(manager bool, stamp string, email models.Email) string {
	label := "EMAIL SENT"
	if manager {
		label = "MANAGER EMAIL SENT"
	}
	return fmt.Sprintf("%s\n[%s] %s\nTo: %s\nSubject: %s\n%s", logRule, label, stamp, email.To, email.Subject, logRule)
}
