// Command adapter runs the relais tool-call adapter: the HTTP shim between
// the OpenWebUI tool-call convention and the LiteLLM MCP REST endpoint.
//
// Configuration is layered: defaults, an optional YAML file (RELAIS_CONFIG),
// RELAIS_* environment variables, then the command-line flags below.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mwessel/relais/pkg/adapter"
	"github.com/mwessel/relais/pkg/api"
	"github.com/mwessel/relais/pkg/auth"
	"github.com/mwessel/relais/pkg/auth/noop"
	"github.com/mwessel/relais/pkg/auth/oidc"
	"github.com/mwessel/relais/pkg/config"
	"github.com/mwessel/relais/pkg/debug"
	"github.com/mwessel/relais/pkg/vault"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("adapter failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(os.Getenv("RELAIS_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	fs := flag.NewFlagSet("adapter", flag.ExitOnError)
	host := fs.String("host", cfg.Server.Host, "listen address")
	port := fs.Int("port", cfg.Server.Port, "listen port")
	upstreamURL := fs.String("upstream-url", cfg.Adapter.UpstreamURL, "LiteLLM tool-call endpoint")
	timeout := fs.Duration("timeout", cfg.Adapter.Timeout, "upstream request timeout")
	logLevel := fs.String("log-level", cfg.Server.LogLevel, "log level (debug|info|warn|error)")
	enableCORS := fs.Bool("enable-cors", cfg.Adapter.EnableCORS, "emit CORS headers for allowed origins")
	corsOrigins := fs.String("cors-allow-origins", "", "allowed origins, comma or space separated")
	vaultAddr := fs.String("vault-addr", cfg.Vault.Addr, "Vault address for key exchange")
	vaultToken := fs.String("vault-token", cfg.Vault.Token, "Vault token")
	vaultMount := fs.String("vault-mount", cfg.Vault.Mount, "Vault KV mount")
	vaultPath := fs.String("vault-path", cfg.Vault.Path, "Vault secret path mapping caller keys to upstream keys (empty = pass caller key through)")
	vaultField := fs.String("vault-field", "", "fixed secret field to read for every caller (empty = look up the caller's own key)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.Server.Host = *host
	cfg.Server.Port = *port
	cfg.Adapter.UpstreamURL = *upstreamURL
	cfg.Adapter.Timeout = *timeout
	cfg.Server.LogLevel = *logLevel
	cfg.Adapter.EnableCORS = *enableCORS
	if *corsOrigins != "" {
		cfg.Adapter.CORSAllowOrigins = config.SplitOrigins(*corsOrigins)
	}
	cfg.Vault.Addr = *vaultAddr
	cfg.Vault.Token = *vaultToken
	cfg.Vault.Mount = *vaultMount
	cfg.Vault.Path = *vaultPath

	logger := setupLogger(cfg.Server.LogLevel)

	// Key resolver: Vault-backed when a secret path is configured,
	// otherwise the caller's key goes upstream unchanged. The secret maps
	// caller keys to upstream keys, so unknown callers are rejected.
	var resolver adapter.KeyResolver = adapter.PassthroughResolver{}
	if cfg.Vault.Path != "" {
		resolver = &adapter.VaultResolver{
			Client: vault.New(vault.Config{
				Addr:  cfg.Vault.Addr,
				Token: cfg.Vault.Token,
				Mount: cfg.Vault.Mount,
			}),
			Path:  cfg.Vault.Path,
			Field: *vaultField,
		}
		logger.Info("vault key exchange enabled",
			slog.String("addr", cfg.Vault.Addr),
			slog.String("path", cfg.Vault.Path),
		)
	}

	// The guard chain always runs; "none" installs the accept-all
	// authenticator so the chain's decision path is the same either way.
	chain := &auth.Chain{DefaultDecision: auth.No}
	switch cfg.Auth.Type {
	case "oidc":
		chain.Authenticators = []auth.Authenticator{
			oidc.New(oidc.Config{
				Issuer:   cfg.Auth.OIDC.Issuer,
				JWKSURL:  cfg.Auth.OIDC.JWKSURL,
				Audience: cfg.Auth.OIDC.Audience,
			}),
		}
		logger.Info("oidc guard enabled", slog.String("issuer", cfg.Auth.OIDC.Issuer))
	default:
		chain.Authenticators = []auth.Authenticator{&noop.Authenticator{}}
	}

	metricsPath := ""
	if cfg.Observability.Metrics.Enabled {
		metricsPath = cfg.Observability.Metrics.Path
	}

	handler := adapter.New(adapter.Options{
		Upstream:  adapter.NewUpstream(cfg.Adapter.UpstreamURL, cfg.Adapter.Timeout),
		Resolver:  resolver,
		AuthChain: chain,
		CORS: adapter.CORSConfig{
			Enabled:      cfg.Adapter.EnableCORS,
			AllowOrigins: cfg.Adapter.CORSAllowOrigins,
		},
		Settings: api.SettingsSummary{
			UpstreamURL:      cfg.Adapter.UpstreamURL,
			TimeoutSeconds:   cfg.Adapter.Timeout.Seconds(),
			LogLevel:         cfg.Server.LogLevel,
			EnableCORS:       cfg.Adapter.EnableCORS,
			CORSAllowOrigins: cfg.Adapter.CORSAllowOrigins,
		},
		MaxBodySize: cfg.Adapter.MaxBodySize,
		MetricsPath: metricsPath,
		Logger:      logger,
	})

	srv := adapter.NewServer(handler, adapter.ServerConfig{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Logger:       logger,
	})

	logger.Info("adapter configured",
		slog.String("upstream", cfg.Adapter.UpstreamURL),
		slog.Duration("timeout", cfg.Adapter.Timeout),
		slog.Bool("cors", cfg.Adapter.EnableCORS),
	)
	return srv.ListenAndServe()
}

// setupLogger installs a text slog handler at the given level as the
// process default and returns it.
func setupLogger(level string) *slog.Logger {
	debug.Init("", level)
	return slog.Default()
}
