package verify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwessel/relais/pkg/datagroup"
)

// MCPOptions configures the MCP endpoint verifier.
type MCPOptions struct {
	URL         string // streamable HTTP endpoint, e.g. "http://nginx/mcp"
	Key         string // probe key, defaults to "name"
	Value       string // probe value; random when empty
	Group       string // probe group, defaults to "people"
	WrongGroup  string // group expected to be denied, defaults to "intruders"
	HealthCheck bool   // quick connect + round-trip only
	Poller      Poller
	Logger      *slog.Logger
}

func (o *MCPOptions) defaults() {
	if o.Key == "" {
		o.Key = "name"
	}
	if o.Value == "" {
		o.Value = RandomProbeValue()
	}
	if o.Group == "" {
		o.Group = "people"
	}
	if o.WrongGroup == "" {
		o.WrongGroup = "intruders"
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// MCP verifies the MCP endpoint with the go-sdk client: initialize, list
// tools, run a put/get round-trip, then probe the failure replies (wrong
// group, missing key). With HealthCheck set, only the connection and a
// quick round-trip are exercised and every failure exits 1: container
// health probes only distinguish healthy from unhealthy.
func MCP(ctx context.Context, opts MCPOptions) error {
	opts.defaults()

	err := runMCP(ctx, opts)
	if err != nil && opts.HealthCheck {
		return &Failure{Code: ExitDependency, Err: err}
	}
	return err
}

func runMCP(ctx context.Context, opts MCPOptions) error {
	// Readiness: the endpoint accepts connections. A failed initialize is
	// retried within the poll budget since the server may still be booting.
	var session *mcp.ClientSession
	err := opts.Poller.Await(ctx, "mcp", func(ctx context.Context) (bool, string) {
		client := mcp.NewClient(
			&mcp.Implementation{Name: "relais-verify", Version: "1.0.0"},
			nil,
		)
		s, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: opts.URL}, nil)
		if err != nil {
			return false, err.Error()
		}
		session = s
		return true, "session established"
	})
	if err != nil {
		return err
	}
	defer session.Close()

	callResult := func(name string, args map[string]any) (string, error) {
		result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
		if err != nil {
			return "", Connectivityf("calling %s: %v", name, err)
		}
		if result.IsError {
			return "", Connectivityf("%s returned a tool error: %s", name, textContent(result))
		}
		text := textContent(result)
		if text == "" {
			return "", Parsef("%s returned no text content", name)
		}
		return text, nil
	}

	// Put.
	putText, err := callResult(datagroup.ToolPutKeyValue, map[string]any{
		"key": opts.Key, "value": opts.Value, "group": opts.Group,
	})
	if err != nil {
		return err
	}
	var stored struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal([]byte(putText), &stored); err != nil || stored.Status != "stored" {
		return Parsef("unexpected put reply: %s", putText)
	}

	// Get and compare.
	getText, err := callResult(datagroup.ToolGetValueByKey, map[string]any{
		"key": opts.Key, "group": opts.Group,
	})
	if err != nil {
		return err
	}
	got, err := resultField(getText)
	if err != nil {
		return err
	}
	if got != opts.Value {
		return Mismatch(opts.Value, got)
	}
	opts.Logger.Info("mcp round-trip verified", slog.String("key", opts.Key))

	if opts.HealthCheck {
		return nil
	}

	// Full scenario set: the tool list and the two failure replies.
	names := map[string]bool{}
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			return Connectivityf("listing tools: %v", err)
		}
		names[tool.Name] = true
	}
	if !names[datagroup.ToolPutKeyValue] || !names[datagroup.ToolGetValueByKey] {
		return Parsef("datagroup tools missing from tool list: %v", names)
	}

	deniedText, err := callResult(datagroup.ToolGetValueByKey, map[string]any{
		"key": opts.Key, "group": opts.WrongGroup,
	})
	if err != nil {
		return err
	}
	if denied, err := resultField(deniedText); err != nil {
		return err
	} else if denied != datagroup.AccessDeniedMessage {
		return Mismatch(datagroup.AccessDeniedMessage, denied)
	}

	missingText, err := callResult(datagroup.ToolGetValueByKey, map[string]any{
		"key": opts.Key + "-absent", "group": opts.Group,
	})
	if err != nil {
		return err
	}
	if missing, err := resultField(missingText); err != nil {
		return err
	} else if missing != datagroup.KeyNotFoundMessage {
		return Mismatch(datagroup.KeyNotFoundMessage, missing)
	}

	opts.Logger.Info("mcp scenarios verified")
	return nil
}

// textContent concatenates the text blocks of a tool result.
func textContent(result *mcp.CallToolResult) string {
	var out string
	for _, content := range result.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			out += tc.Text
		}
	}
	return out
}

// resultField decodes a `{"result": ...}` reply, falling back to the raw
// text when the reply is not JSON.
func resultField(text string) (string, error) {
	var reply struct {
		Result *string `json:"result"`
	}
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return text, nil
	}
	if reply.Result == nil {
		return "", Parsef("reply carries no result field: %s", text)
	}
	return *reply.Result, nil
}
