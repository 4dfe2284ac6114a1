// Command echo-server runs a header-echo diagnostic backend. Every request
// is logged with its method, path, headers, and body, and answered with a
// JSON echo of what was received. It stands in for LiteLLM behind nginx to
// verify that auth headers survive the proxy chain.
//
// Configuration:
//
//	RELAIS_ECHO_PORT - Listen port (default: 9124)
package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("RELAIS_ECHO_PORT")
	if port == "" {
		port = "9124"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/", handleEcho)

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("echo server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("echo server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("echo server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

// handleEcho logs the full request and answers with a JSON summary. Tool
// call paths additionally get a static ok status so callers treating this
// as an MCP REST backend see a well-formed reply.
func handleEcho(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))

	headers := make(map[string]string, len(r.Header))
	names := make([]string, 0, len(r.Header))
	for name := range r.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		headers[name] = strings.Join(r.Header.Values(name), ", ")
	}

	slog.Info("request received",
		"method", r.Method,
		"path", r.URL.Path,
		"headers", headers,
		"body", string(body),
	)

	reply := map[string]any{
		"status":  "ok",
		"method":  r.Method,
		"path":    r.URL.Path,
		"headers": headers,
	}
	if len(body) > 0 {
		reply["body"] = string(body)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reply)
}
