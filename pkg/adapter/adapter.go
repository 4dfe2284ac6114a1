package adapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mwessel/relais/pkg/api"
	"github.com/mwessel/relais/pkg/auth"
	"github.com/mwessel/relais/pkg/observability"
)

// Options configures a Handler.
type Options struct {
	// Upstream forwards normalized tool calls. Required.
	Upstream *Upstream

	// Resolver exchanges caller keys for upstream keys. Defaults to
	// PassthroughResolver.
	Resolver KeyResolver

	// AuthChain, when non-nil, guards the tool-call routes. Health and
	// metrics are never guarded.
	AuthChain *auth.Chain

	// CORS controls cross-origin headers.
	CORS CORSConfig

	// Settings is the non-secret configuration snapshot reported by /health.
	Settings api.SettingsSummary

	// MaxBodySize bounds incoming request bodies. Default: 1 MB.
	MaxBodySize int64

	// MetricsPath exposes Prometheus metrics when non-empty.
	MetricsPath string

	Logger *slog.Logger
}

// Handler is the adapter's HTTP surface.
type Handler struct {
	upstream    *Upstream
	resolver    KeyResolver
	settings    api.SettingsSummary
	maxBodySize int64
	logger      *slog.Logger
	handler     http.Handler
}

// New creates the adapter handler with routing and middleware wired up.
func New(opts Options) *Handler {
	if opts.Resolver == nil {
		opts.Resolver = PassthroughResolver{}
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = 1 << 20
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	h := &Handler{
		upstream:    opts.Upstream,
		resolver:    opts.Resolver,
		settings:    opts.Settings,
		maxBodySize: opts.MaxBodySize,
		logger:      opts.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("OPTIONS /mcp-rest/tools/call/{tool}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /mcp-rest/tools/call/{tool}", h.handleToolCall)
	if opts.MetricsPath != "" {
		mux.Handle("GET "+opts.MetricsPath, promhttp.Handler())
	}

	var handler http.Handler = mux
	if opts.AuthChain != nil {
		bypass := []string{"/health"}
		if opts.MetricsPath != "" {
			bypass = append(bypass, opts.MetricsPath)
		}
		guarded := auth.Middleware(opts.AuthChain, bypass)(handler)
		inner := handler
		// Preflight requests carry no credentials and must still get 204.
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				inner.ServeHTTP(w, r)
				return
			}
			guarded.ServeHTTP(w, r)
		})
	}
	handler = corsMiddleware(opts.CORS, handler)
	handler = observability.MetricsMiddleware(handler)
	handler = recovery(opts.Logger, handler)
	handler = requestLogging(opts.Logger, handler)
	handler = requestID(handler)

	h.handler = handler
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

// handleHealth answers GET /health with the service status and a snapshot
// of the running configuration. It holds no state, so a corrected upstream
// failure never leaves a stale unhealthy report behind.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := api.NewHealthResponse(time.Now())
	resp.Service = &api.ServiceInfo{
		Title:       "relais adapter",
		Description: "OpenWebUI to LiteLLM MCP tool-call adapter",
	}
	resp.Settings = &h.settings

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleToolCall relays POST /mcp-rest/tools/call/{tool} upstream.
func (h *Handler) handleToolCall(w http.ResponseWriter, r *http.Request) {
	tool := r.PathValue("tool")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeAPIError(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", h.maxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		writeAPIError(w, api.NewInvalidRequestError("body", "reading request body: "+err.Error()), http.StatusBadRequest)
		return
	}

	var body map[string]any
	if len(raw) > 0 {
		body, err = api.DecodeObject(raw)
		if err != nil {
			writeAPIError(w, api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()), http.StatusBadRequest)
			return
		}
	}

	payload := api.NormalizeToolCall(tool, body)

	callerKey := bearerKey(r)
	upstreamKey, err := h.resolver.Resolve(r.Context(), callerKey)
	if err != nil {
		if errors.Is(err, ErrNoUpstreamKey) {
			writeAPIError(w, api.NewUnauthorizedError("no upstream key for the presented credentials"), http.StatusUnauthorized)
			return
		}
		h.logger.Error("key exchange failed", slog.String("tool", tool), slog.String("error", err.Error()))
		writeAPIError(w, api.NewUpstreamError("key exchange failed"), http.StatusBadGateway)
		return
	}

	result, err := h.upstream.Call(r.Context(), payload, upstreamKey)
	if err != nil {
		if errors.Is(err, ErrUpstreamTimeout) {
			h.logger.Warn("upstream timeout", slog.String("tool", tool))
			writeAPIError(w, api.NewUpstreamTimeoutError("upstream did not answer in time"), http.StatusGatewayTimeout)
			return
		}
		h.logger.Error("upstream call failed", slog.String("tool", tool), slog.String("error", err.Error()))
		writeAPIError(w, api.NewUpstreamError("upstream call failed: "+err.Error()), http.StatusBadGateway)
		return
	}

	// Relay the upstream response verbatim, success or not.
	if result.ContentType != "" {
		w.Header().Set("Content-Type", result.ContentType)
	}
	w.WriteHeader(result.StatusCode)
	w.Write(result.Body)
}

// bearerKey extracts the bearer token from the Authorization header, or ""
// when absent or a different scheme.
func bearerKey(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// writeAPIError writes the uniform JSON error envelope.
func writeAPIError(w http.ResponseWriter, apiErr *api.APIError, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}

// requestLogging emits one structured log entry per request.
func requestLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &loggingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		logger.LogAttrs(r.Context(), slog.LevelInfo, "request completed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", sw.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", RequestIDFromContext(r.Context())),
		)
	})
}

type loggingWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *loggingWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *loggingWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

func (w *loggingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
