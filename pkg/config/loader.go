package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, RELAIS_CONFIG env, ./config.yaml, /etc/relais/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. RELAIS_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/relais/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("RELAIS_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/relais/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps RELAIS_* environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RELAIS_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("RELAIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RELAIS_LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("RELAIS_UPSTREAM_URL"); v != "" {
		cfg.Adapter.UpstreamURL = v
	}
	if v := os.Getenv("RELAIS_TIMEOUT"); v != "" {
		if d, err := parseTimeout(v); err == nil {
			cfg.Adapter.Timeout = d
		}
	}
	if v := os.Getenv("RELAIS_ENABLE_CORS"); v != "" {
		cfg.Adapter.EnableCORS = v == "true" || v == "1"
	}
	if v := os.Getenv("RELAIS_CORS_ALLOW_ORIGINS"); v != "" {
		cfg.Adapter.CORSAllowOrigins = SplitOrigins(v)
	}
	if v := os.Getenv("RELAIS_VAULT_ADDR"); v != "" {
		cfg.Vault.Addr = v
	}
	if v := os.Getenv("RELAIS_VAULT_TOKEN"); v != "" {
		cfg.Vault.Token = v
	}
	if v := os.Getenv("RELAIS_VAULT_MOUNT"); v != "" {
		cfg.Vault.Mount = v
	}
	if v := os.Getenv("RELAIS_VAULT_PATH"); v != "" {
		cfg.Vault.Path = v
	}
	if v := os.Getenv("RELAIS_AUTH_TYPE"); v != "" {
		cfg.Auth.Type = v
	}
	if v := os.Getenv("RELAIS_OIDC_ISSUER"); v != "" {
		cfg.Auth.OIDC.Issuer = v
	}
	if v := os.Getenv("RELAIS_OIDC_AUDIENCE"); v != "" {
		cfg.Auth.OIDC.Audience = v
	}
	if v := os.Getenv("RELAIS_DATAGROUP_STORAGE"); v != "" {
		cfg.Datagroup.Storage = v
	}
	if v := os.Getenv("RELAIS_POSTGRES_DSN"); v != "" {
		cfg.Datagroup.Postgres.DSN = v
	}
}

// parseTimeout accepts either a Go duration string ("30s") or a bare number
// of seconds ("30", "30.5") for compatibility with the flag convention.
func parseTimeout(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", v)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// SplitOrigins splits a comma or whitespace separated origin list.
func SplitOrigins(v string) []string {
	fields := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	var origins []string
	for _, f := range fields {
		if f != "" {
			origins = append(origins, f)
		}
	}
	return origins
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields. For each field ending in _file, if the value field is empty
// and the file field is set, the file is read, whitespace is trimmed, and
// the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// vault.token_file -> vault.token
	if cfg.Vault.TokenFile != "" && cfg.Vault.Token == "" {
		val, err := readSecretFile(cfg.Vault.TokenFile)
		if err != nil {
			return fmt.Errorf("vault.token_file: %w", err)
		}
		cfg.Vault.Token = val
	}

	// datagroup.postgres.dsn_file -> datagroup.postgres.dsn
	if cfg.Datagroup.Postgres.DSNFile != "" && cfg.Datagroup.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Datagroup.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("datagroup.postgres.dsn_file: %w", err)
		}
		cfg.Datagroup.Postgres.DSN = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding
// whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
