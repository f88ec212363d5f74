package sync

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/harperreed/taxdesk/crm"
	"github.com/harperreed/taxdesk/models"
)

func TestBuildMIME(t *testing.T) {
	email := models.Email{
		To:        "jane@example.com",
		Cc:        "john@example.com",
		Subject:   "Your 2025 return",
		PlainBody: "Hi Jane,\nAll set.",
		HTMLBody:  "Hi Jane,<br>All set.",
	}

	raw, err := BuildMIME("agent@office.com", email, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Your 2025 return", subject)

	to, err := mr.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "jane@example.com", to[0].Address)

	cc, err := mr.Header.AddressList("Cc")
	require.NoError(t, err)
	require.Len(t, cc, 1)
	assert.Equal(t, "john@example.com", cc[0].Address)

	bodies := map[string]string{}
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		if h, ok := p.Header.(*mail.InlineHeader); ok {
			ct, _, _ := h.ContentType()
			b, _ := io.ReadAll(p.Body)
			bodies[ct] = string(b)
		}
	}
	assert.Equal(t, "Hi Jane,\nAll set.", strings.ReplaceAll(bodies["text/plain"], "\r\n", "\n"))
	assert.Equal(t, "Hi Jane,<br>All set.", bodies["text/html"])
}

func TestBuildMIMERejectsBadRecipient(t *testing.T) {
	_, err := BuildMIME("", models.Email{To: "not an address"}, time.Now())
	assert.Error(t, err)

	_, err = BuildMIME("", models.Email{To: ""}, time.Now())
	assert.Error(t, err)
}

func TestSearchQuery(t *testing.T) {
	assert.Equal(t, "from:a@x.com OR to:a@x.com OR from:b@x.com OR to:b@x.com",
		SearchQuery([]string{"a@x.com", " ", "nope", "b@x.com"}))
	assert.Equal(t, "", SearchQuery(nil))
}

func TestIsPermissionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden}, true},
		{"insufficient scopes", errors.New("Request had insufficient authentication scopes"), true},
		{"not found", &googleapi.Error{Code: http.StatusNotFound, Message: "gone"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isPermissionError(tt.err))
		})
	}

	assert.ErrorIs(t, classify(&googleapi.Error{Code: http.StatusForbidden}), crm.ErrMailPermission)
	assert.NotErrorIs(t, classify(errors.New("boom")), crm.ErrMailPermission)
}
