package app

import (
	"fmt"
	"io"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the process configuration, read from the environment. Per-service
// auth secrets are expanded by the catalog loader and do not appear here.
type Config struct {
	Port           int      `envconfig:"PORT" default:"8080"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	CatalogPath    string   `envconfig:"CATALOG_PATH" default:"catalog.json"`

	// EncryptionKey is a 64-char hex key or a passphrase (scrypt-derived).
	// Required when any service enables PCI field encryption.
	EncryptionKey string `envconfig:"ENCRYPTION_KEY"`
	// PseudonymSalt keys GDPR pseudonymization. Required for GDPR services.
	PseudonymSalt string `envconfig:"PSEUDONYM_SALT"`

	// AuthGatewayURL is the delegated identity service used as the default
	// bearer refresh endpoint for descriptors that do not declare one.
	AuthGatewayURL string `envconfig:"AUTH_GATEWAY_URL"`

	RateLimit         int `envconfig:"RATE_LIMIT" default:"120"`
	RateWindowSeconds int `envconfig:"RATE_WINDOW_SECONDS" default:"60"`

	// AuditLogPath is the JSON-lines audit sink. Embedders that want the SQL
	// sink construct the manager themselves with compliance.NewSQLSink.
	AuditLogPath string `envconfig:"AUDIT_LOG_PATH" default:"audit.jsonl"`

	// ComplianceFieldsPath points at the YAML field lists; empty uses the
	// built-in defaults without hot reload.
	ComplianceFieldsPath string `envconfig:"COMPLIANCE_FIELDS_PATH"`

	Debug bool `envconfig:"DEBUG"`

	// LogOutput overrides the log destination (default stdout). The stdio
	// MCP command routes logs to stderr to keep the protocol stream clean.
	LogOutput io.Writer `ignored:"true"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment configuration: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("PORT %d is out of range", cfg.Port)
	}
	return cfg, nil
}

// RateWindow returns the rate-limit window as a duration.
func (c Config) RateWindow() time.Duration {
	if c.RateWindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.RateWindowSeconds) * time.Second
}
