// ABOUTME: Email composition from templates and client records
// ABOUTME: Resolves the recipient, builds greeting, plain and HTML bodies
package crm

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/harperreed/taxdesk/models"
)

var (
	ErrNoRecipient        = errors.New("no email address on file")
	ErrRecipientAmbiguous = errors.New("client has more than one address; choose taxpayer or spouse")
	ErrTemplateNotFound   = errors.New("email template not found")
)

// Recipients lists the client's resolvable addresses, taxpayer first.
func Recipients(c models.Client) []models.Recipient {
	var out []models.Recipient
	if addr := cleanAddress(c.Email); addr != "" {
		out = append(out, models.Recipient{Role: models.RoleTaxpayer, Address: addr})
	}
	if addr := cleanAddress(c.SpouseEmail); addr != "" {
		out = append(out, models.Recipient{Role: models.RoleSpouse, Address: addr})
	}
	return out
}

func cleanAddress(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "@") {
		return ""
	}
	return s
}

// ResolveRecipient picks the address for role. With no role it succeeds only
// when exactly one address exists.
func ResolveRecipient(c models.Client, role models.RecipientRole) (models.Recipient, error) {
	all := Recipients(c)
	if len(all) == 0 {
		return models.Recipient{}, ErrNoRecipient
	}

	if role == "" {
		if len(all) > 1 {
			return models.Recipient{}, ErrRecipientAmbiguous
		}
		return all[0], nil
	}

	for _, r := range all {
		if r.Role == role {
			return r, nil
		}
	}
	return models.Recipient{}, fmt.Errorf("%s: %w", role, ErrNoRecipient)
}

// FindTemplate looks a template up by exact type name.
func FindTemplate(templates []models.Template, typeName string) (models.Template, error) {
	for _, t := range templates {
		if t.Type == typeName {
			return t, nil
		}
	}
	return models.Template{}, fmt.Errorf("%q: %w", typeName, ErrTemplateNotFound)
}

// greetingFields returns the name and gender to greet for a recipient role.
// A spouse's gender is never recorded, so it is always Unknown.
func greetingFields(c models.Client, role models.RecipientRole) (first, last string, gender models.Gender) {
	if role == models.RoleSpouse {
		return c.SpouseFirstName, c.SpouseLastName, models.GenderUnknown
	}
	return c.FirstName, c.LastName, models.ParseGender(c.Gender)
}

// Compose merges tmpl for the client's chosen recipient. The HTML body gets
// the sender's signature appended when one is given.
func Compose(tmpl models.Template, c models.Client, style Style, role models.RecipientRole, signature string) (models.Email, error) {
	recipient, err := ResolveRecipient(c, role)
	if err != nil {
		return models.Email{}, err
	}

	first, last, gender := greetingFields(c, recipient.Role)
	greeting := GenerateGreeting(style, first, last, gender)
	body := MergeTemplate(tmpl.Body, first)

	plain := greeting + "\n\n" + body

	return models.Email{
		To:        recipient.Address,
		Subject:   MergeTemplate(tmpl.Subject, first),
		PlainBody: plain,
		HTMLBody:  RenderHTML(plain, signature),
	}, nil
}

// RenderHTML escapes the plain body, turns newlines into <br> and appends the
// signature block after a double break.
func RenderHTML(plain, signature string) string {
	escaped := html.EscapeString(plain)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	out := strings.ReplaceAll(escaped, "\n", "<br>")
	if strings.TrimSpace(signature) != "" {
		out += "<br><br>" + signature
	}
	return out
}
