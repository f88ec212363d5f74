// ABOUTME: OAuth configuration and token management for Google APIs
// ABOUTME: Handles OAuth flow, token storage in XDG files or the OS keyring, and auto-refresh
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	stdsync "sync"
	"time"

	"github.com/99designs/keyring"
	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/sheets/v4"

	"github.com/harperreed/taxdesk/config"
)

// ErrNoToken means no stored credentials exist yet; run "taxdesk auth login".
var ErrNoToken = errors.New("no stored Google token")

// DefaultTokenKey names the token used by the CLI, TUI and background jobs.
const DefaultTokenKey = "default"

// Scopes requested at sign-in.
var Scopes = []string{
	gmail.GmailSendScope,
	gmail.GmailReadonlyScope,
	gmail.GmailSettingsBasicScope,
	sheets.SpreadsheetsScope,
	drive.DriveFileScope,
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// NewOAuthConfig creates OAuth2 config for Google APIs.
func NewOAuthConfig(cfg config.GoogleConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

// CheckCredentials reports a helpful error when the OAuth client is not configured.
func CheckCredentials(cfg config.GoogleConfig) error {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return fmt.Errorf("google OAuth credentials not configured. Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables")
	}
	return nil
}

// TokenStore persists OAuth tokens by key.
type TokenStore interface {
	Save(key string, token *oauth2.Token) error
	Load(key string) (*oauth2.Token, error)
}

// NewTokenStore returns the store selected by auth.token_store.
func NewTokenStore(kind string) (TokenStore, error) {
	switch kind {
	case config.TokenStoreKeyring:
		return NewKeyringTokenStore()
	case config.TokenStoreFile, "":
		return NewFileTokenStore(filepath.Join(xdg.DataHome, "taxdesk")), nil
	}
	return nil, fmt.Errorf("unknown token store %q", kind)
}

// FileTokenStore keeps tokens as JSON files with restricted permissions.
type FileTokenStore struct {
	dir string
}

func NewFileTokenStore(dir string) *FileTokenStore {
	return &FileTokenStore{dir: dir}
}

// TokenPath returns the file holding the token for key.
func (s *FileTokenStore) TokenPath(key string) string {
	return filepath.Join(s.dir, fmt.Sprintf("google-credentials-%s.json", safeKey(key)))
}

func safeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.', r == '@':
			return r
		}
		return '_'
	}, key)
}

func (s *FileTokenStore) Save(key string, token *oauth2.Token) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(s.TokenPath(key), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

func (s *FileTokenStore) Load(key string) (*oauth2.Token, error) {
	f, err := os.Open(s.TokenPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}

// KeyringTokenStore keeps tokens in the OS keyring.
type KeyringTokenStore struct {
	ring keyring.Keyring
}

func NewKeyringTokenStore() (*KeyringTokenStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: "taxdesk",
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(xdg.DataHome, "taxdesk", "keyring"),
		FilePasswordFunc:         keyring.FixedStringPrompt("taxdesk-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return &KeyringTokenStore{ring: ring}, nil
}

// NewKeyringTokenStoreWith wraps an already opened keyring.
func NewKeyringTokenStoreWith(ring keyring.Keyring) *KeyringTokenStore {
	return &KeyringTokenStore{ring: ring}
}

func (s *KeyringTokenStore) Save(key string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := s.ring.Set(keyring.Item{Key: "google-" + key, Data: data, Label: "taxdesk Google token"}); err != nil {
		return fmt.Errorf("failed to store token %q: %w", key, err)
	}
	return nil
}

func (s *KeyringTokenStore) Load(key string) (*oauth2.Token, error) {
	item, err := s.ring.Get("google-" + key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token %q: %w", key, err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(item.Data, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}

// persistingSource saves refreshed tokens back to the store.
type persistingSource struct {
	mu    stdsync.Mutex
	base  oauth2.TokenSource
	store TokenStore
	key   string
	last  string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		// A failed save only costs a refresh on the next start.
		_ = p.store.Save(p.key, tok)
	}
	return tok, nil
}

// HTTPClient returns an authenticated client with the given request timeout.
// Refreshed tokens are written back to store under key when store is set.
func HTTPClient(ctx context.Context, oc *oauth2.Config, token *oauth2.Token, store TokenStore, key string, timeout time.Duration) *http.Client {
	base := &http.Client{Timeout: timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	src := oc.TokenSource(ctx, token)
	if store != nil {
		src = &persistingSource{base: src, store: store, key: key, last: token.AccessToken}
	}

	client := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, src))
	client.Timeout = timeout
	return client
}

// StoredClient loads the token under key and returns an authenticated client.
func StoredClient(ctx context.Context, cfg config.GoogleConfig, store TokenStore, key string) (*http.Client, error) {
	if err := CheckCredentials(cfg); err != nil {
		return nil, err
	}
	token, err := store.Load(key)
	if err != nil {
		return nil, err
	}
	return HTTPClient(ctx, NewOAuthConfig(cfg), token, store, key, cfg.Timeout), nil
}
