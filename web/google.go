// ABOUTME: Google-backed Authenticator for the web server
// ABOUTME: Uses the configured OAuth client, userinfo and a Gmail mailer per agent
package web

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"github.com/harperreed/taxdesk/crm"
	googlesync "github.com/harperreed/taxdesk/sync"
)

type GoogleAuth struct {
	oauth   *oauth2.Config
	timeout time.Duration
}

func NewGoogleAuth(oc *oauth2.Config, timeout time.Duration) *GoogleAuth {
	return &GoogleAuth{oauth: oc, timeout: timeout}
}

func (g *GoogleAuth) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

func (g *GoogleAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return g.oauth.Exchange(ctx, code)
}

func (g *GoogleAuth) Identity(ctx context.Context, token *oauth2.Token) (string, string, error) {
	id, err := googlesync.FetchIdentity(ctx, googlesync.HTTPClient(ctx, g.oauth, token, nil, "", g.timeout))
	if err != nil {
		return "", "", err
	}
	return id.Email, id.Name, nil
}

func (g *GoogleAuth) Mailer(ctx context.Context, token *oauth2.Token, email string) (crm.Mailer, error) {
	// The client outlives the request that built it.
	client := googlesync.HTTPClient(context.Background(), g.oauth, token, nil, "", g.timeout)
	return googlesync.NewGmailMailer(ctx, client, email)
}
