package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for both binaries.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	HTTP     HTTPConfig
	Data     DataConfig
	Auth     AuthConfig
	Game     GameConfig
	Backup   BackupConfig
	Archive  ArchiveConfig
	Notify   NotifyConfig
	Identity IdentityConfig
	Watcher  WatcherConfig
}

// HTTPConfig configures the ledger service listener.
type HTTPConfig struct {
	Port uint16 `envconfig:"HTTP_PORT" default:"8430"`
}

// DataConfig locates the shared flat-file documents.
type DataConfig struct {
	Dir         string `envconfig:"DATA_DIR" default:"./data"`
	StorageType string `envconfig:"STORAGE_TYPE" default:"file"` // file or sqlite
}

// AccountsPath returns the accounts document location.
func (d DataConfig) AccountsPath() string { return filepath.Join(d.Dir, "accounts.json") }

// PaymentsPath returns the pending-payments document location.
func (d DataConfig) PaymentsPath() string { return filepath.Join(d.Dir, "payments.json") }

// QueuePath returns the command-queue document location.
func (d DataConfig) QueuePath() string { return filepath.Join(d.Dir, "commands.json") }

// LinkCodesPath returns the pending-linking-codes document location.
func (d DataConfig) LinkCodesPath() string { return filepath.Join(d.Dir, "linkcodes.json") }

// SQLitePath returns the database location for the sqlite backend.
func (d DataConfig) SQLitePath() string { return filepath.Join(d.Dir, "craftbank.db") }

// AuthConfig carries the service credentials.
type AuthConfig struct {
	IngestToken    string        `envconfig:"INGEST_TOKEN" required:"true"`
	AdminTokenHash string        `envconfig:"ADMIN_TOKEN_HASH" required:"true"` // bcrypt hash of the admin bearer token
	JWTSecret      string        `envconfig:"JWT_SECRET" required:"true"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"12h"`
}

// GameConfig tunes the game engine.
type GameConfig struct {
	MaxMultiplier int64 `envconfig:"GAME_MAX_MULTIPLIER" default:"100"`
}

// BackupConfig drives the periodic accounts backup job.
type BackupConfig struct {
	Enabled  bool   `envconfig:"BACKUP_ENABLED" default:"true"`
	Schedule string `envconfig:"BACKUP_SCHEDULE" default:"0 */6 * * *"` // cron spec
	Dir      string `envconfig:"BACKUP_DIR" default:"./data/backups"`
	MaxCount int    `envconfig:"BACKUP_MAX_COUNT" default:"10"`
}

// ArchiveConfig drives ledger-event archival to Elasticsearch.
type ArchiveConfig struct {
	Enabled     bool   `envconfig:"ARCHIVE_ENABLED" default:"false"`
	URL         string `envconfig:"ARCHIVE_ES_URL" default:"http://localhost:9200"`
	Username    string `envconfig:"ARCHIVE_ES_USERNAME" default:""`
	Password    string `envconfig:"ARCHIVE_ES_PASSWORD" default:""`
	IndexPrefix string `envconfig:"ARCHIVE_INDEX_PREFIX" default:"craftbank"`
	Schedule    string `envconfig:"ARCHIVE_SCHEDULE" default:"@hourly"` // cron spec
}

// NotifyConfig configures the Discord operator notifier.
type NotifyConfig struct {
	Enabled   bool   `envconfig:"NOTIFY_ENABLED" default:"false"`
	BotToken  string `envconfig:"NOTIFY_BOT_TOKEN" default:""`
	ChannelID string `envconfig:"NOTIFY_CHANNEL_ID" default:""`
}

// IdentityConfig points at the external identity provider's OAuth surface.
type IdentityConfig struct {
	AuthURL      string `envconfig:"IDENTITY_AUTH_URL" default:""`
	TokenURL     string `envconfig:"IDENTITY_TOKEN_URL" default:""`
	ProfileURL   string `envconfig:"IDENTITY_PROFILE_URL" default:""`
	ClientID     string `envconfig:"IDENTITY_CLIENT_ID" default:""`
	ClientSecret string `envconfig:"IDENTITY_CLIENT_SECRET" default:""`
	RedirectURL  string `envconfig:"IDENTITY_REDIRECT_URL" default:""`
}

// WatcherConfig configures the chat-watcher process.
type WatcherConfig struct {
	LedgerURL     string        `envconfig:"WATCHER_LEDGER_URL" default:"http://localhost:8430"`
	TransportAddr string        `envconfig:"WATCHER_TRANSPORT_ADDR" default:"localhost:25575"`
	PollInterval  time.Duration `envconfig:"WATCHER_POLL_INTERVAL" default:"5s"`
	ConsumerName  string        `envconfig:"WATCHER_CONSUMER_NAME" default:"watcher"`
}

// Load reads configuration from the environment, honoring a .env file in
// the working directory if one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("CRAFTBANK", &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &cfg, nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
