// Package config provides unified configuration for the relais adapter and
// its sibling processes.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (RELAIS_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the relais processes.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Adapter       AdapterConfig       `yaml:"adapter"`
	Vault         VaultConfig         `yaml:"vault"`
	Auth          AuthConfig          `yaml:"auth"`
	Datagroup     DatagroupConfig     `yaml:"datagroup"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`          // default: 0.0.0.0
	Port         int           `yaml:"port"`          // default: 8088
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 60s
	LogLevel     string        `yaml:"log_level"`     // debug|info|warn|error, default: info
}

// AdapterConfig holds the forwarding proxy settings.
type AdapterConfig struct {
	UpstreamURL      string        `yaml:"upstream_url"`       // default: http://litellm:4000/mcp-rest/tools/call
	Timeout          time.Duration `yaml:"timeout"`            // upstream timeout, default: 30s
	EnableCORS       bool          `yaml:"enable_cors"`        // default: false
	CORSAllowOrigins []string      `yaml:"cors_allow_origins"` // default: ["*"] when CORS is enabled
	MaxBodySize      int64         `yaml:"max_body_size"`      // default: 1 MB
}

// VaultConfig holds the Vault KV settings used to resolve caller keys into
// the upstream API key.
type VaultConfig struct {
	Addr      string `yaml:"addr"`       // default: http://localhost:8200
	Token     string `yaml:"token"`
	TokenFile string `yaml:"token_file"` // _file variant for token
	Mount     string `yaml:"mount"`      // default: secret
	Path      string `yaml:"path"`       // secret path under the mount, e.g. openwebui
}

// AuthConfig holds the optional OIDC guard settings for the adapter.
type AuthConfig struct {
	Type string     `yaml:"type"` // "none" or "oidc", default: "none"
	OIDC OIDCConfig `yaml:"oidc"`
}

// OIDCConfig describes the Keycloak realm the guard validates tokens against.
type OIDCConfig struct {
	Issuer   string `yaml:"issuer"`
	JWKSURL  string `yaml:"jwks_url"` // derived from issuer when empty
	Audience string `yaml:"audience"`
}

// DatagroupConfig holds settings for the secure datagroup store.
type DatagroupConfig struct {
	Storage  string         `yaml:"storage"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"` // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 10
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: true
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8088,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			LogLevel:     "info",
		},
		Adapter: AdapterConfig{
			UpstreamURL:      "http://litellm:4000/mcp-rest/tools/call",
			Timeout:          30 * time.Second,
			CORSAllowOrigins: []string{"*"},
			MaxBodySize:      1 << 20,
		},
		Vault: VaultConfig{
			Addr:  "http://localhost:8200",
			Mount: "secret",
		},
		Auth: AuthConfig{
			Type: "none",
		},
		Datagroup: DatagroupConfig{
			Storage: "memory",
			Postgres: PostgresConfig{
				MaxConns:       10,
				MigrateOnStart: true,
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
