package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}

	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, fmt.Errorf("server.log_level must be debug, info, warn, or error, got %q", c.Server.LogLevel))
	}

	if c.Adapter.UpstreamURL == "" {
		errs = append(errs, fmt.Errorf("adapter.upstream_url is required"))
	} else if _, err := url.ParseRequestURI(c.Adapter.UpstreamURL); err != nil {
		errs = append(errs, fmt.Errorf("adapter.upstream_url: %w", err))
	}

	if c.Adapter.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("adapter.timeout must be > 0, got %s", c.Adapter.Timeout))
	}

	if c.Adapter.EnableCORS && len(c.Adapter.CORSAllowOrigins) == 0 {
		errs = append(errs, fmt.Errorf("adapter.cors_allow_origins must not be empty when CORS is enabled"))
	}

	switch c.Auth.Type {
	case "none", "oidc":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\" or \"oidc\", got %q", c.Auth.Type))
	}

	if c.Auth.Type == "oidc" && c.Auth.OIDC.Issuer == "" && c.Auth.OIDC.JWKSURL == "" {
		errs = append(errs, fmt.Errorf("auth.oidc.issuer or auth.oidc.jwks_url is required when auth.type is \"oidc\""))
	}

	switch c.Datagroup.Storage {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("datagroup.storage must be \"memory\" or \"postgres\", got %q", c.Datagroup.Storage))
	}

	if c.Datagroup.Storage == "postgres" {
		if c.Datagroup.Postgres.DSN == "" && c.Datagroup.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("datagroup.postgres.dsn or datagroup.postgres.dsn_file is required when datagroup.storage is \"postgres\""))
		}
	}

	return errors.Join(errs...)
}
