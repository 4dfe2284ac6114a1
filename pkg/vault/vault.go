// Package vault provides a minimal HashiCorp Vault KV client for the
// relais adapter and verification harness. It supports both KV v1 and v2
// mounts, detecting the version from the mount options.
package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mwessel/relais/pkg/debug"
)

// ErrKeyNotFound is returned by Get when the secret exists but does not
// contain the requested key, or the secret path itself is absent.
var ErrKeyNotFound = errors.New("vault: key not found")

// Config holds the Vault connection settings.
type Config struct {
	Addr    string
	Token   string
	Mount   string        // KV mount name, default "secret"
	Timeout time.Duration // per-request timeout, default 10s
}

// Client is a Vault KV client scoped to a single mount.
type Client struct {
	client *resty.Client
	mount  string

	// kvVersion caches the detected KV version (0 = not yet detected).
	kvVersion int
}

// New creates a Vault client. The mount's KV version is detected lazily on
// first use.
func New(cfg Config) *Client {
	if cfg.Mount == "" {
		cfg.Mount = "secret"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.Addr, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("X-Vault-Token", cfg.Token).
		SetHeader("Accept", "application/json")

	return &Client{
		client: rc,
		mount:  strings.Trim(cfg.Mount, "/"),
	}
}

// DetectKVVersion returns 1 or 2 based on the mount options reported by
// /v1/sys/mounts. Defaults to 1 when the mount or version is unknown.
func (c *Client) DetectKVVersion(ctx context.Context) (int, error) {
	resp, err := c.client.R().SetContext(ctx).Get("/v1/sys/mounts")
	if err != nil {
		return 0, fmt.Errorf("querying sys/mounts: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("sys/mounts returned status %d: %s", resp.StatusCode(), resp.String())
	}

	var mounts struct {
		Data map[string]struct {
			Options map[string]any `json:"options"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &mounts); err != nil {
		return 0, fmt.Errorf("parsing sys/mounts response: %w", err)
	}

	entry, ok := mounts.Data[c.mount+"/"]
	if !ok {
		return 1, nil
	}
	if v, ok := entry.Options["version"]; ok && fmt.Sprint(v) == "2" {
		return 2, nil
	}
	return 1, nil
}

// kvVersionCached returns the cached KV version, detecting it on first call.
// Detection failure falls back to v1, matching the permissive behavior the
// deployment scripts rely on.
func (c *Client) kvVersionCached(ctx context.Context) int {
	if c.kvVersion != 0 {
		return c.kvVersion
	}
	ver, err := c.DetectKVVersion(ctx)
	if err != nil || ver == 0 {
		ver = 1
	}
	c.kvVersion = ver
	return ver
}

// secretURL builds the API path for a logical secret path, accounting for
// the extra /data/ segment KV v2 requires.
func (c *Client) secretURL(ver int, path string) string {
	path = strings.Trim(path, "/")
	if ver == 2 {
		return fmt.Sprintf("/v1/%s/data/%s", c.mount, path)
	}
	return fmt.Sprintf("/v1/%s/%s", c.mount, path)
}

// Get reads a single key from the secret at the given logical path.
// Returns ErrKeyNotFound when the secret or the key is absent.
func (c *Client) Get(ctx context.Context, path, key string) (string, error) {
	ver := c.kvVersionCached(ctx)

	resp, err := c.client.R().SetContext(ctx).Get(c.secretURL(ver, path))
	if err != nil {
		return "", fmt.Errorf("reading secret %s: %w", path, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return "", ErrKeyNotFound
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("reading secret %s: status %d: %s", path, resp.StatusCode(), resp.String())
	}

	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("parsing secret %s: %w", path, err)
	}

	data := body.Data
	// KV v2 wraps the fields in a second "data" object.
	if ver == 2 {
		if inner, ok := data["data"].(map[string]any); ok {
			data = inner
		}
	}

	val, ok := data[key]
	if !ok || val == nil {
		return "", ErrKeyNotFound
	}
	debug.Log("vault", "secret read", "path", path, "key", key, "kv_version", ver)
	return fmt.Sprint(val), nil
}

// Put writes the given fields to the secret at the logical path, replacing
// any existing fields.
func (c *Client) Put(ctx context.Context, path string, data map[string]string) error {
	ver := c.kvVersionCached(ctx)

	var payload any = data
	if ver == 2 {
		payload = map[string]any{"data": data}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(c.secretURL(ver, path))
	if err != nil {
		return fmt.Errorf("writing secret %s: %w", path, err)
	}
	// Vault returns 200 with metadata for v2 and 204 for v1 writes.
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return fmt.Errorf("writing secret %s: status %d: %s", path, resp.StatusCode(), resp.String())
	}
	debug.Log("vault", "secret written", "path", path, "fields", len(data), "kv_version", ver)
	return nil
}

// Health checks the Vault health endpoint. A standby or sealed instance is
// reported as an error carrying the observed status code.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/v1/sys/health")
	if err != nil {
		return fmt.Errorf("vault health: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("vault health: status %d", resp.StatusCode())
	}
	return nil
}
