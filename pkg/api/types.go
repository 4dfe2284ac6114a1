package api

import (
	"encoding/json"
	"fmt"
	"time"
)

// ToolCallPayload is the upstream (LiteLLM MCP REST) tool call shape:
// the tool name travels in the body, not the URL.
type ToolCallPayload struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// NormalizeToolCall builds the upstream payload from a caller body and the
// tool name taken from the request path. Three body shapes are accepted,
// in priority order:
//
//  1. {"name": ..., "arguments": {...}} - used as-is (path name wins only
//     when the body name is empty)
//  2. {"arguments": {...}} - name filled from the path
//  3. any other JSON object - treated wholly as arguments
//
// A nil body yields empty arguments.
func NormalizeToolCall(toolName string, body map[string]any) ToolCallPayload {
	if body == nil {
		return ToolCallPayload{Name: toolName, Arguments: map[string]any{}}
	}

	if args, ok := body["arguments"].(map[string]any); ok {
		name := toolName
		if n, ok := body["name"].(string); ok && n != "" {
			name = n
		}
		return ToolCallPayload{Name: name, Arguments: args}
	}

	return ToolCallPayload{Name: toolName, Arguments: body}
}

// HealthResponse is returned by GET /health. Date is the UTC calendar date
// (YYYY-MM-DD), Timestamp the full RFC 3339 instant.
type HealthResponse struct {
	Status    string           `json:"status"`
	Date      string           `json:"date"`
	Timestamp string           `json:"timestamp"`
	Service   *ServiceInfo     `json:"service,omitempty"`
	Settings  *SettingsSummary `json:"settings,omitempty"`
}

// ServiceInfo identifies the responding service in a health response.
type ServiceInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SettingsSummary is the non-secret configuration snapshot embedded in the
// health response so operators can see what the adapter is actually running
// with. Tokens and keys never appear here.
type SettingsSummary struct {
	UpstreamURL      string   `json:"upstream_url"`
	TimeoutSeconds   float64  `json:"timeout"`
	LogLevel         string   `json:"log_level"`
	EnableCORS       bool     `json:"enable_cors"`
	CORSAllowOrigins []string `json:"cors_allow_origins"`
}

// NewHealthResponse builds a healthy response stamped with the given time.
func NewHealthResponse(now time.Time) HealthResponse {
	now = now.UTC()
	return HealthResponse{
		Status:    "ok",
		Date:      now.Format("2006-01-02"),
		Timestamp: now.Format(time.RFC3339),
	}
}

// StoreResult is the JSON body the datagroup service returns for a
// successful put_key_value call.
type StoreResult struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Group  string `json:"group"`
}

// GetResult is the JSON body the datagroup service returns for a
// get_value_by_key call. Result carries the stored value or one of the
// sentinel strings ("Key not found", "Access denied").
type GetResult struct {
	Result string `json:"result"`
}

// DecodeObject decodes data into a generic JSON object. It fails when the
// top-level value is not an object, which callers use to distinguish a
// malformed body from a merely unexpected one.
func DecodeObject(data []byte) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decoding JSON object: %w", err)
	}
	return obj, nil
}
