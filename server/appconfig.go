package server

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/wpmcp/tokenbroker/models"
)

// AppConfig defines the broker configuration, loaded from an optional YAML
// file and environment variables.
type AppConfig struct {
	// ListenAddr binds loopback by default; the broker's trust boundary is
	// "processes on localhost".
	ListenAddr string `koanf:"listen_addr"`
	// DataDir holds the persisted token and authorization-code documents.
	DataDir string `koanf:"data_dir"`
	// SigningSecret signs the broker's bearer credentials. The broker refuses
	// to start without one.
	SigningSecret string `koanf:"signing_secret"`
	// BrokerSecret is the shared secret required by the access guard. Unset
	// means guarded endpoints reject everything (fail closed).
	BrokerSecret string `koanf:"broker_secret"`
	// SessionTTL is the policy lifetime applied to upstream tokens.
	SessionTTL time.Duration `koanf:"session_ttl"`
	// DisableConfidentialityCheck is recognized for compatibility with the
	// surrounding tool environment; the checker itself lives outside this
	// service.
	DisableConfidentialityCheck bool `koanf:"disable_confidentiality_check"`

	WordPress WordPressConfig `koanf:"wordpress"`
	Pending   PendingConfig   `koanf:"pending"`
	Events    EventsConfig    `koanf:"events"`
}

// WordPressConfig is the upstream OAuth client registration.
type WordPressConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURI  string `koanf:"redirect_uri"`
	Scope        string `koanf:"scope"`
	AuthorizeURL string `koanf:"authorize_url"`
	TokenURL     string `koanf:"token_url"`
}

// PendingConfig selects the pending-authorization backend.
type PendingConfig struct {
	// Backend is "memory" (default) or "valkey".
	Backend      string `koanf:"backend"`
	ValkeyAddr   string `koanf:"valkey_addr"`
	ValkeyPrefix string `koanf:"valkey_prefix"`
}

// EventsConfig controls the local auth-event history.
type EventsConfig struct {
	// DBPath of the SQLite events database; empty disables the history.
	DBPath         string `koanf:"db_path"`
	MigrateOnStart bool   `koanf:"migrate_on_start"`
}

// LoadConfig loads configuration in order:
// 1) defaults
// 2) the YAML file named by WPMCP_CONFIG_FILE, if set (missing file is fatal)
// 3) environment variables with prefix WPMCP_ mapped with __ as the nested
// separator, e.g. WPMCP_WORDPRESS__CLIENT_ID.
func LoadConfig() (*AppConfig, error) {
	k := koanf.New(".")

	cfg := &AppConfig{
		ListenAddr: "127.0.0.1:8090",
		DataDir:    "data",
		SessionTTL: models.DefaultSessionTTL,
		WordPress: WordPressConfig{
			Scope: "global",
		},
		Pending: PendingConfig{
			Backend: "memory",
		},
		Events: EventsConfig{
			MigrateOnStart: true,
		},
	}

	if path := os.Getenv("WPMCP_CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: failed loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("WPMCP_", ".", func(s string) string {
		// WPMCP_WORDPRESS__CLIENT_ID -> wordpress.client_id
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "WPMCP_")), "__", ".")
	}), nil); err != nil {
		log.Printf("config: env load error: %v", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal error: %w", err)
	}
	return cfg, nil
}

// Validate reports missing settings the broker cannot run without.
func (c *AppConfig) Validate() error {
	if c.SigningSecret == "" {
		return fmt.Errorf("signing_secret is required (WPMCP_SIGNING_SECRET)")
	}
	if c.WordPress.ClientID == "" || c.WordPress.ClientSecret == "" {
		return fmt.Errorf("wordpress client_id and client_secret are required")
	}
	if c.WordPress.RedirectURI == "" {
		return fmt.Errorf("wordpress redirect_uri is required")
	}
	if c.Pending.Backend != "memory" && c.Pending.Backend != "valkey" {
		return fmt.Errorf("unknown pending backend %q", c.Pending.Backend)
	}
	if c.Pending.Backend == "valkey" && c.Pending.ValkeyAddr == "" {
		return fmt.Errorf("pending.valkey_addr is required for the valkey backend")
	}
	return nil
}
