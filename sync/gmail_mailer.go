// ABOUTME: Gmail API mailer for sending as the signed-in agent
// ABOUTME: Builds MIME with go-message, reads the send-as signature and searches history
package sync

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/harperreed/taxdesk/crm"
	"github.com/harperreed/taxdesk/models"
)

type GmailMailer struct {
	svc  *gmail.Service
	from string
}

// NewGmailMailer creates a mailer. from is the agent's address for the From
// header; Gmail fills it in when empty.
func NewGmailMailer(ctx context.Context, client *http.Client, from string) (*GmailMailer, error) {
	if client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &GmailMailer{svc: svc, from: from}, nil
}

func (m *GmailMailer) Send(ctx context.Context, email models.Email) error {
	raw, err := BuildMIME(m.from, email, time.Now())
	if err != nil {
		return err
	}

	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	if _, err := m.svc.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return classify(err)
	}
	return nil
}

// Signature returns the primary send-as signature, or "" when none is set.
func (m *GmailMailer) Signature(ctx context.Context) (string, error) {
	resp, err := m.svc.Users.Settings.SendAs.List("me").Context(ctx).Do()
	if err != nil {
		return "", classify(err)
	}
	for _, sa := range resp.SendAs {
		if sa.IsPrimary {
			return sa.Signature, nil
		}
	}
	return "", nil
}

// Search lists recent messages to or from any of addresses.
func (m *GmailMailer) Search(ctx context.Context, addresses []string, limit int) ([]models.MailMessage, error) {
	q := SearchQuery(addresses)
	if q == "" {
		return nil, crm.ErrNoRecipient
	}

	list, err := m.svc.Users.Messages.List("me").Q(q).MaxResults(int64(limit)).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}

	out := make([]models.MailMessage, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := m.svc.Users.Messages.Get("me", ref.Id).
			Format("metadata").
			MetadataHeaders("Subject", "Date").
			Context(ctx).
			Do()
		if err != nil {
			return nil, classify(err)
		}

		mm := models.MailMessage{ID: msg.Id, ThreadID: msg.ThreadId, Snippet: msg.Snippet}
		if msg.Payload != nil {
			for _, h := range msg.Payload.Headers {
				switch h.Name {
				case "Subject":
					mm.Subject = h.Value
				case "Date":
					mm.Date = h.Value
				}
			}
		}
		out = append(out, mm)
	}
	return out, nil
}

// SearchQuery builds "from:a OR to:a OR from:b OR to:b", skipping non-addresses.
func SearchQuery(addresses []string) string {
	var parts []string
	for _, a := range addresses {
		a = strings.TrimSpace(a)
		if !strings.Contains(a, "@") {
			continue
		}
		parts = append(parts, "from:"+a, "to:"+a)
	}
	return strings.Join(parts, " OR ")
}

// classify maps scope and permission failures onto crm.ErrMailPermission.
func classify(err error) error {
	if isPermissionError(err) {
		return fmt.Errorf("%w: %v", crm.ErrMailPermission, err)
	}
	return fmt.Errorf("gmail API error: %w", err)
}

func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusForbidden {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "insufficient")
}

// BuildMIME renders a multipart/alternative message with plain and HTML parts.
func BuildMIME(from string, email models.Email, date time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(date)
	h.SetSubject(email.Subject)

	if from != "" {
		h.SetAddressList("From", []*mail.Address{{Address: from}})
	}
	to, err := parseAddresses(email.To)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", email.To, err)
	}
	h.SetAddressList("To", to)
	if strings.TrimSpace(email.Cc) != "" {
		cc, err := parseAddresses(email.Cc)
		if err != nil {
			return nil, fmt.Errorf("invalid cc %q: %w", email.Cc, err)
		}
		h.SetAddressList("Cc", cc)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("failed to create message body: %w", err)
	}

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain", email.PlainBody},
		{"text/html", email.HTMLBody},
	}
	for _, p := range parts {
		var ph mail.InlineHeader
		ph.SetContentType(p.contentType, map[string]string{"charset": "utf-8"})
		w, err := tw.CreatePart(ph)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s part: %w", p.contentType, err)
		}
		if _, err := io.WriteString(w, p.body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func parseAddresses(list string) ([]*mail.Address, error) {
	var out []*mail.Address
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		addr, err := mail.ParseAddress(part)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no address")
	}
	return out, nil
}
