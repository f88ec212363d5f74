// ABOUTME: Application configuration loaded from YAML, environment and .env
// ABOUTME: Holds storage, Google, auth, server, queue, task and schema settings
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/harperreed/taxdesk/db"
	"github.com/harperreed/taxdesk/models"
)

const appName = "taxdesk"

// Storage backends.
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

// Token stores.
const (
	TokenStoreFile    = "file"
	TokenStoreKeyring = "keyring"
)

type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Google  GoogleConfig  `mapstructure:"google"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Tasks   TasksConfig   `mapstructure:"tasks"`
	Schema  db.Columns    `mapstructure:"schema"`

	// Agent is the identity stamped on notes when no login is available (CLI, TUI, MCP).
	Agent string `mapstructure:"agent"`
}

type StorageConfig struct {
	Backend       string        `mapstructure:"backend"`
	SpreadsheetID string        `mapstructure:"spreadsheet_id"`
	SQLitePath    string        `mapstructure:"sqlite_path"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

type GoogleConfig struct {
	ClientID        string        `mapstructure:"client_id"`
	ClientSecret    string        `mapstructure:"client_secret"`
	RedirectURL     string        `mapstructure:"redirect_url"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	Timeout         time.Duration `mapstructure:"timeout"`
	UploadsFolderID string        `mapstructure:"uploads_folder_id"`
}

type AuthConfig struct {
	TokenStore    string        `mapstructure:"token_store"`
	AllowedDomain string        `mapstructure:"allowed_domain"`
	Admins        []string      `mapstructure:"admins"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
}

// IsAdmin reports whether email is listed as an admin.
func (a AuthConfig) IsAdmin(email string) bool {
	for _, admin := range a.Admins {
		if strings.EqualFold(strings.TrimSpace(admin), email) {
			return true
		}
	}
	return false
}

type ServerConfig struct {
	Host        string  `mapstructure:"host"`
	Port        int     `mapstructure:"port"`
	PublicURL   string  `mapstructure:"public_url"`
	PortalRate  float64 `mapstructure:"portal_rate"`
	PortalBurst int     `mapstructure:"portal_burst"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type QueueConfig struct {
	// Statuses a client must have to be offered by the call queue.
	Statuses []string `mapstructure:"statuses"`
}

// AnnualRule maps service names containing any keyword to a deadline month.
type AnnualRule struct {
	Keywords []string `mapstructure:"keywords"`
	Month    int      `mapstructure:"month"`
}

type TasksConfig struct {
	Schedule           string       `mapstructure:"schedule"`
	Timezone           string       `mapstructure:"timezone"`
	AnnualRules        []AnnualRule `mapstructure:"annual_rules"`
	DefaultAnnualMonth int          `mapstructure:"default_annual_month"`
	DefaultDueDay      int          `mapstructure:"default_due_day"`
}

// Location resolves the configured timezone, defaulting to the local zone.
func (t TasksConfig) Location() (*time.Location, error) {
	if t.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(t.Timezone)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:    BackendSQLite,
			SQLitePath: filepath.Join(xdg.DataHome, appName, "taxdesk.db"),
			CacheTTL:   db.DefaultCacheTTL,
		},
		Google: GoogleConfig{
			RedirectURL: "http://localhost:8080/auth/callback",
			Timeout:     30 * time.Second,
		},
		Auth: AuthConfig{
			TokenStore: TokenStoreFile,
			SessionTTL: 12 * time.Hour,
		},
		Server: ServerConfig{
			Host:        "127.0.0.1",
			Port:        8080,
			PublicURL:   "http://localhost:8080",
			PortalRate:  1,
			PortalBurst: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
		Queue: QueueConfig{
			Statuses: []string{models.StatusNew},
		},
		Tasks: TasksConfig{
			Schedule: "0 6 * * *",
			AnnualRules: []AnnualRule{
				{Keywords: []string{"1120-S", "1065", "Partnership", "S-Corp"}, Month: 3},
			},
			DefaultAnnualMonth: 4,
			DefaultDueDay:      db.DefaultDueDay,
		},
		Schema: db.DefaultColumns(),
		Agent:  os.Getenv("USER"),
	}
}

// DefaultPath returns the XDG config file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// Load reads configuration from path (or the default location when empty),
// a .env file in the working directory and TAXDESK_* environment variables.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TAXDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())

	// Google credentials keep their conventional names.
	_ = v.BindEnv("google.client_id", "TAXDESK_GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_ID")
	_ = v.BindEnv("google.client_secret", "TAXDESK_GOOGLE_CLIENT_SECRET", "GOOGLE_CLIENT_SECRET")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := Default()
	// Lists from the file replace the defaults instead of merging into them.
	if v.IsSet("queue.statuses") {
		cfg.Queue.Statuses = nil
	}
	if v.IsSet("tasks.annual_rules") {
		cfg.Tasks.AnnualRules = nil
	}
	if v.IsSet("auth.admins") {
		cfg.Auth.Admins = nil
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers scalar keys so environment overrides apply to them.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.spreadsheet_id", d.Storage.SpreadsheetID)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.cache_ttl", d.Storage.CacheTTL)
	v.SetDefault("google.redirect_url", d.Google.RedirectURL)
	v.SetDefault("google.credentials_file", d.Google.CredentialsFile)
	v.SetDefault("google.timeout", d.Google.Timeout)
	v.SetDefault("google.uploads_folder_id", d.Google.UploadsFolderID)
	v.SetDefault("auth.token_store", d.Auth.TokenStore)
	v.SetDefault("auth.allowed_domain", d.Auth.AllowedDomain)
	v.SetDefault("auth.session_ttl", d.Auth.SessionTTL)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.public_url", d.Server.PublicURL)
	v.SetDefault("server.portal_rate", d.Server.PortalRate)
	v.SetDefault("server.portal_burst", d.Server.PortalBurst)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("tasks.schedule", d.Tasks.Schedule)
	v.SetDefault("tasks.timezone", d.Tasks.Timezone)
	v.SetDefault("tasks.default_annual_month", d.Tasks.DefaultAnnualMonth)
	v.SetDefault("tasks.default_due_day", d.Tasks.DefaultDueDay)
	v.SetDefault("agent", d.Agent)
}

// Validate checks settings that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSheets:
		if c.Storage.SpreadsheetID == "" {
			return fmt.Errorf("storage.spreadsheet_id is required for the sheets backend")
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendSheets, BackendSQLite, c.Storage.Backend)
	}

	switch c.Auth.TokenStore {
	case TokenStoreFile, TokenStoreKeyring:
	default:
		return fmt.Errorf("auth.token_store must be %q or %q, got %q", TokenStoreFile, TokenStoreKeyring, c.Auth.TokenStore)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if len(c.Queue.Statuses) == 0 {
		return fmt.Errorf("queue.statuses cannot be empty")
	}

	for i, rule := range c.Tasks.AnnualRules {
		if rule.Month < 1 || rule.Month > 12 {
			return fmt.Errorf("tasks.annual_rules[%d].month out of range: %d", i, rule.Month)
		}
	}
	if c.Tasks.DefaultAnnualMonth < 1 || c.Tasks.DefaultAnnualMonth > 12 {
		return fmt.Errorf("tasks.default_annual_month out of range: %d", c.Tasks.DefaultAnnualMonth)
	}
	if c.Tasks.DefaultDueDay < 1 || c.Tasks.DefaultDueDay > 31 {
		return fmt.Errorf("tasks.default_due_day out of range: %d", c.Tasks.DefaultDueDay)
	}
	if _, err := c.Tasks.Location(); err != nil {
		return fmt.Errorf("tasks.timezone: %w", err)
	}

	if err := c.Schema.Validate(); err != nil {
		return err
	}
	return nil
}
