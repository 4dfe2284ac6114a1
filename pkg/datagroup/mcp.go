package datagroup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwessel/relais/pkg/api"
	"github.com/mwessel/relais/pkg/observability"
)

// Tool names exposed by the MCP server. LiteLLM prefixes them with the
// server label when it fronts the service.
const (
	ToolPutKeyValue   = "put_key_value"
	ToolGetValueByKey = "get_value_by_key"
)

// PutInput is the argument schema for put_key_value.
type PutInput struct {
	Key   string `json:"key" jsonschema_description:"The key to store the value under"`
	Value string `json:"value" jsonschema_description:"The value to store"`
	Group string `json:"group" jsonschema_description:"The group that owns the entry"`
}

// GetInput is the argument schema for get_value_by_key.
type GetInput struct {
	Key   string `json:"key" jsonschema_description:"The key to look up"`
	Group string `json:"group" jsonschema_description:"The group requesting access"`
}

// NewMCPServer creates an MCP server exposing the store through the
// put_key_value and get_value_by_key tools.
func NewMCPServer(store Store, name, version string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: name, Version: version},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolPutKeyValue,
		Description: "Stores a value under a key, owned by a group",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input PutInput) (*mcp.CallToolResult, struct{}, error) {
		if err := store.Put(ctx, input.Key, input.Value, input.Group); err != nil {
			observability.StoreOperationsTotal.WithLabelValues("put", "error").Inc()
			return nil, struct{}{}, fmt.Errorf("storing %q: %w", input.Key, err)
		}
		observability.StoreOperationsTotal.WithLabelValues("put", "ok").Inc()

		return textResult(api.StoreResult{
			Status: "stored",
			Key:    input.Key,
			Group:  input.Group,
		}), struct{}{}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolGetValueByKey,
		Description: "Returns the value stored under a key when the group matches",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, struct{}, error) {
		value, err := store.Get(ctx, input.Key, input.Group)
		if err != nil {
			// Missing keys and denied groups are regular tool replies, not
			// protocol errors.
			if reply := ReplyForError(err); reply != "" {
				status := "not_found"
				if reply == AccessDeniedMessage {
					status = "denied"
				}
				observability.StoreOperationsTotal.WithLabelValues("get", status).Inc()
				return textResult(api.GetResult{Result: reply}), struct{}{}, nil
			}
			observability.StoreOperationsTotal.WithLabelValues("get", "error").Inc()
			return nil, struct{}{}, fmt.Errorf("reading %q: %w", input.Key, err)
		}
		observability.StoreOperationsTotal.WithLabelValues("get", "ok").Inc()

		return textResult(api.GetResult{Result: value}), struct{}{}, nil
	})

	return server
}

// NewHTTPHandler serves the MCP server over streamable HTTP on /mcp and a
// plain readiness probe on /healthz.
func NewHTTPHandler(server *mcp.Server) http.Handler {
	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/mcp", handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	return mux
}

// textResult wraps v, JSON-encoded, in a single text content block.
func textResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		// The result types above always marshal.
		data = []byte(`{}`)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}
