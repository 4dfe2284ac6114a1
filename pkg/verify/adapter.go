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

// AdapterOptions configures the adapter verifier.
type AdapterOptions struct {
	BaseURL string // e.g. "http://adapter:8088"
	APIKey  string // bearer key presented to the adapter
	PutTool string // defaults to "put_key_value"
	GetTool string // defaults to "get_value_by_key"
	Key     string // probe key, defaults to "name"
	Value   string // probe value; random when empty
	Group   string // probe group, defaults to "people"
	Timeout time.Duration
	Poller  Poller
	Logger  *slog.Logger
}

func (o *AdapterOptions) defaults() {
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

// Adapter verifies the tool-call adapter: poll /health until it reports
// "ok", then run a put/get round-trip through the OpenWebUI path shape
// (tool name in the URL, arguments-only body).
func Adapter(ctx context.Context, opts AdapterOptions) error {
	opts.defaults()

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout)
	if opts.APIKey != "" {
		client.SetAuthToken(opts.APIKey)
	}

	err := opts.Poller.Await(ctx, "adapter", func(ctx context.Context) (bool, string) {
		resp, err := client.R().SetContext(ctx).Get("/health")
		if err != nil {
			return false, err.Error()
		}
		if resp.StatusCode() != http.StatusOK {
			return false, fmt.Sprintf("health status %d", resp.StatusCode())
		}
		var health struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(resp.Body(), &health); err != nil {
			return false, "health body not JSON"
		}
		if health.Status != "ok" {
			return false, fmt.Sprintf("health reports %q", health.Status)
		}
		return true, "healthy"
	})
	if err != nil {
		return err
	}

	call := func(tool string, args map[string]any) (map[string]any, error) {
		resp, err := client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(map[string]any{"arguments": args}).
			Post("/mcp-rest/tools/call/" + tool)
		if err != nil {
			return nil, Connectivityf("calling %s: %v", tool, err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, Connectivityf("calling %s: status %d: %s", tool, resp.StatusCode(), resp.String())
		}
		var body map[string]any
		if err := json.Unmarshal(resp.Body(), &body); err != nil {
			return nil, Parsef("calling %s: non-JSON reply: %s", tool, resp.String())
		}
		return body, nil
	}

	if _, err := call(opts.PutTool, map[string]any{
		"key": opts.Key, "value": opts.Value, "group": opts.Group,
	}); err != nil {
		return err
	}

	body, err := call(opts.GetTool, map[string]any{"key": opts.Key, "group": opts.Group})
	if err != nil {
		return err
	}

	got, ok := Extract(body, ResultExtractors()...)
	if !ok {
		raw, _ := json.Marshal(body)
		return Parsef("no value in %s reply: %s", opts.GetTool, raw)
	}
	if got != opts.Value {
		return Mismatch(opts.Value, got)
	}

	opts.Logger.Info("adapter round-trip verified", slog.String("tool", opts.GetTool))
	return nil
}
