// ABOUTME: Google sign-in CLI command
// ABOUTME: Runs the OAuth flow on a loopback callback and stores the token
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/harperreed/taxdesk/config"
	googlesync "github.com/harperreed/taxdesk/sync"
)

const loginTimeout = 5 * time.Minute

// AuthLoginCommand signs in with Google and saves the token used by the
// CLI, TUI, MCP server and background jobs.
func AuthLoginCommand(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	port := fs.Int("port", 8085, "Local port for the OAuth callback")
	noBrowser := fs.Bool("no-browser", false, "Print the sign-in URL instead of opening a browser")
	_ = fs.Parse(args)

	if err := googlesync.CheckCredentials(cfg.Google); err != nil {
		return err
	}
	tokens, err := googlesync.NewTokenStore(cfg.Auth.TokenStore)
	if err != nil {
		return err
	}

	oc := googlesync.NewOAuthConfig(cfg.Google)
	oc.RedirectURL = fmt.Sprintf("http://localhost:%d/oauth/callback", *port)
	state := uuid.NewString()

	// Start local server for OAuth callback
	callbackChan := make(chan *oauth2.Token, 1)
	errChan := make(chan error, 1)

	fail := func(err error) {
		select {
		case errChan <- err:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			fail(fmt.Errorf("state mismatch in OAuth callback"))
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			fail(fmt.Errorf("no authorization code received"))
			return
		}

		token, err := oc.Exchange(ctx, code)
		if err != nil {
			http.Error(w, "exchange failed", http.StatusBadGateway)
			fail(fmt.Errorf("failed to exchange code: %w", err))
			return
		}

		select {
		case callbackChan <- token:
		default:
		}
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", *port))
	if err != nil {
		return fmt.Errorf("failed to listen for OAuth callback: %w", err)
	}
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			fail(err)
		}
	}()
	defer func() { _ = server.Shutdown(context.Background()) }()

	authURL := oc.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))

	_, _ = fmt.Fprintf(out, "\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)
	if !*noBrowser {
		_ = openBrowser(authURL)
	}

	timer := time.NewTimer(loginTimeout)
	defer timer.Stop()

	select {
	case token := <-callbackChan:
		if err := tokens.Save(googlesync.DefaultTokenKey, token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}

		client := googlesync.HTTPClient(ctx, oc, token, nil, "", cfg.Google.Timeout)
		if id, err := googlesync.FetchIdentity(ctx, client); err == nil {
			_, _ = fmt.Fprintf(out, "✓ Signed in as %s\n", id.Email)
		} else {
			_, _ = fmt.Fprintln(out, "✓ Authenticated successfully")
		}
		if fts, ok := tokens.(*googlesync.FileTokenStore); ok {
			_, _ = fmt.Fprintf(out, "✓ Token saved to %s\n", fts.TokenPath(googlesync.DefaultTokenKey))
		} else {
			_, _ = fmt.Fprintln(out, "✓ Token saved to the system keyring")
		}
		return nil

	case err := <-errChan:
		return fmt.Errorf("OAuth flow failed: %w", err)

	case <-timer.C:
		return fmt.Errorf("timed out waiting for Google sign-in")

	case <-ctx.Done():
		return ctx.Err()
	}
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	return exec.Command(cmd, args...).Start()
}
