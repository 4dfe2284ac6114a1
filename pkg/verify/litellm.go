package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// LiteLLMOptions configures the LiteLLM gateway verifier.
type LiteLLMOptions struct {
	BaseURL string // e.g. "http://litellm:4000"
	APIKey  string // bearer key for the gateway
	PutTool string // defaults to "put_key_value"
	GetTool string // defaults to "get_value_by_key"
	Key     string // probe key, defaults to "name"
	Value   string // probe value; random when empty
	Group   string // probe group, defaults to "people"
	Timeout time.Duration
	Poller  Poller
	Logger  *slog.Logger
}

func (o *LiteLLMOptions) defaults() {
	if o.PutTool == "" {
		o.PutTool = "put_key_value"
	}
	if o.GetTool == "" {
		o.GetTool = "get_value_by_key"
	}
	if o.Key == "" {
		o.Key = "name"
	}
	if o.Value == "" {
		o.Value = RandomProbeValue()
	}
	if o.Group == "" {
		o.Group = "people"
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// LiteLLM verifies the gateway's MCP REST surface: list the tools, assert
// the datagroup tools are registered, then run a put/get round-trip via
// /mcp-rest/tools/call.
func LiteLLM(ctx context.Context, opts LiteLLMOptions) error {
	opts.defaults()

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout)
	if opts.APIKey != "" {
		client.SetAuthToken(opts.APIKey)
	}

	// Readiness doubles as tool discovery: ready means the tool list is
	// served and contains the datagroup tools.
	var toolNames []string
	err := opts.Poller.Await(ctx, "litellm", func(ctx context.Context) (bool, string) {
		resp, err := client.R().SetContext(ctx).Get("/mcp-rest/tools/list")
		if err != nil {
			return false, err.Error()
		}
		if resp.StatusCode() != http.StatusOK {
			return false, fmt.Sprintf("tools/list status %d", resp.StatusCode())
		}
		names, err := toolNamesFromList(resp.Body())
		if err != nil {
			return false, err.Error()
		}
		toolNames = names
		return true, "tool list served"
	})
	if err != nil {
		return err
	}

	if !containsToolSuffix(toolNames, opts.PutTool) || !containsToolSuffix(toolNames, opts.GetTool) {
		return Parsef("datagroup tools not registered, gateway lists: %v", toolNames)
	}
	opts.Logger.Info("datagroup tools registered", slog.Any("tools", toolNames))

	call := func(name string, args map[string]any) (map[string]any, error) {
		resp, err := client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(map[string]any{"name": name, "arguments": args}).
			Post("/mcp-rest/tools/call")
		if err != nil {
			return nil, Connectivityf("calling %s: %v", name, err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, Connectivityf("calling %s: status %d: %s", name, resp.StatusCode(), resp.String())
		}
		var body map[string]any
		if err := json.Unmarshal(resp.Body(), &body); err != nil {
			return nil, Parsef("calling %s: non-JSON reply: %s", name, resp.String())
		}
		return body, nil
	}

	// Tool names may carry the gateway's server-label prefix.
	putName := resolveToolName(toolNames, opts.PutTool)
	getName := resolveToolName(toolNames, opts.GetTool)

	if _, err := call(putName, map[string]any{
		"key": opts.Key, "value": opts.Value, "group": opts.Group,
	}); err != nil {
		return err
	}

	body, err := call(getName, map[string]any{"key": opts.Key, "group": opts.Group})
	if err != nil {
		return err
	}

	got, ok := Extract(body, ResultExtractors()...)
	if !ok {
		raw, _ := json.Marshal(body)
		return Parsef("no value in %s reply: %s", getName, raw)
	}
	if got != opts.Value {
		return Mismatch(opts.Value, got)
	}

	opts.Logger.Info("litellm round-trip verified", slog.String("tool", getName))
	return nil
}

// toolNamesFromList extracts tool names from the tools/list reply, which
// is either a bare array of tool objects or wrapped in a "tools" field.
func toolNamesFromList(body []byte) ([]string, error) {
	var wrapped struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && len(wrapped.Tools) > 0 {
		names := make([]string, len(wrapped.Tools))
		for i, t := range wrapped.Tools {
			names[i] = t.Name
		}
		return names, nil
	}

	var bare []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, fmt.Errorf("unrecognized tools/list shape: %s", body)
	}
	names := make([]string, len(bare))
	for i, t := range bare {
		names[i] = t.Name
	}
	return names, nil
}

// containsToolSuffix reports whether any listed name equals tool or ends
// in "-<tool>" (the server-label-prefixed form).
func containsToolSuffix(names []string, tool string) bool {
	for _, n := range names {
		if n == tool || strings.HasSuffix(n, "-"+tool) {
			return true
		}
	}
	return false
}

// resolveToolName returns the listed name matching tool, preferring the
// exact name and falling back to the prefixed form.
func resolveToolName(names []string, tool string) string {
	for _, n := range names {
		if n == tool {
			return n
		}
	}
	for _, n := range names {
		if strings.HasSuffix(n, "-"+tool) {
			return n
		}
	}
	return tool
}
