// Command datagroup-server runs the secure-datagroup MCP service: a
// group-scoped key/value store exposed through the put_key_value and
// get_value_by_key tools over streamable HTTP on /mcp.
//
// Configuration via RELAIS_* environment variables or a YAML file; the
// store backend is selected with RELAIS_DATAGROUP_STORAGE ("memory" or
// "postgres").
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mwessel/relais/pkg/config"
	"github.com/mwessel/relais/pkg/datagroup"
	"github.com/mwessel/relais/pkg/datagroup/memory"
	"github.com/mwessel/relais/pkg/datagroup/postgres"
)

const serverVersion = "1.0.0"

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("datagroup server failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(os.Getenv("RELAIS_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	fs := flag.NewFlagSet("datagroup-server", flag.ExitOnError)
	host := fs.String("host", cfg.Server.Host, "listen address")
	port := fs.Int("port", 9123, "listen port")
	storage := fs.String("storage", cfg.Datagroup.Storage, "store backend (memory|postgres)")
	writeOpenAPI := fs.String("write-openapi", "", "write the OpenAPI tool document to the given file and exit (- for stdout)")
	openAPIBase := fs.String("openapi-base-url", "", "server URL embedded in the OpenAPI document")
	serverLabel := fs.String("server-label", "datagroup", "LiteLLM server label prefixed to tool paths")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *writeOpenAPI != "" {
		return emitOpenAPI(*writeOpenAPI, datagroup.OpenAPIConfig{
			BaseURL:     *openAPIBase,
			ServerLabel: *serverLabel,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := buildStore(ctx, *storage, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	server := datagroup.NewMCPServer(store, "secure-datagroup", serverVersion)
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", *host, *port),
		Handler: datagroup.NewHTTPHandler(server),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("datagroup server starting",
			"addr", srv.Addr,
			"storage", *storage,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// buildStore creates the configured store backend and a cleanup function.
func buildStore(ctx context.Context, storage string, cfg *config.Config) (datagroup.Store, func(), error) {
	switch storage {
	case "memory", "":
		return memory.New(), func() {}, nil

	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Datagroup.Postgres.DSN,
			MaxConns:       cfg.Datagroup.Postgres.MaxConns,
			MigrateOnStart: cfg.Datagroup.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("creating postgres store: %w", err)
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q (want memory or postgres)", storage)
	}
}

// emitOpenAPI writes the OpenAPI document to the given path or stdout.
func emitOpenAPI(target string, cfg datagroup.OpenAPIConfig) error {
	if target == "-" {
		return datagroup.WriteOpenAPI(os.Stdout, cfg)
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	defer f.Close()

	if err := datagroup.WriteOpenAPI(f, cfg); err != nil {
		return err
	}
	slog.Info("OpenAPI document written", "file", target)
	return nil
}
