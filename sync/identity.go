// ABOUTME: Signed-in user lookup via the Google userinfo endpoint
// ABOUTME: Supplies the agent email and display name stamped on records
package sync

import (
	"context"
	"fmt"
	"net/http"

	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// Identity is the authenticated Google user.
type Identity struct {
	Email string
	Name  string
}

func FetchIdentity(ctx context.Context, client *http.Client) (*Identity, error) {
	svc, err := oauth2api.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	return &Identity{Email: info.Email, Name: info.Name}, nil
}
