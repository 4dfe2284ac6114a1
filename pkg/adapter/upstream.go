package adapter

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mwessel/relais/pkg/api"
	"github.com/mwessel/relais/pkg/debug"
	"github.com/mwessel/relais/pkg/observability"
)

// ErrUpstreamTimeout indicates the upstream did not answer within the
// configured timeout.
var ErrUpstreamTimeout = errors.New("upstream timeout")

// UpstreamResult carries the upstream response to be relayed verbatim.
type UpstreamResult struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Upstream forwards normalized tool calls to the LiteLLM MCP REST endpoint.
type Upstream struct {
	client *resty.Client
	url    string
}

// NewUpstream creates an upstream client for the given tool-call URL with a
// per-call timeout.
func NewUpstream(url string, timeout time.Duration) *Upstream {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Upstream{
		client: resty.New().SetTimeout(timeout),
		url:    url,
	}
}

// Call forwards the payload with the given bearer key. The upstream status
// and body are returned as-is, whatever the status code; err is non-nil
// only for transport-level failures. Timeouts are reported as
// ErrUpstreamTimeout.
func (u *Upstream) Call(ctx context.Context, payload api.ToolCallPayload, bearerKey string) (*UpstreamResult, error) {
	start := time.Now()

	req := u.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload)
	if bearerKey != "" {
		req.SetAuthToken(bearerKey)
	}

	resp, err := req.Post(u.url)
	if err != nil {
		if isTimeout(err) {
			observability.UpstreamRequestsTotal.WithLabelValues(payload.Name, "timeout").Inc()
			return nil, ErrUpstreamTimeout
		}
		observability.UpstreamRequestsTotal.WithLabelValues(payload.Name, "error").Inc()
		return nil, err
	}

	observability.UpstreamLatency.WithLabelValues(payload.Name).Observe(time.Since(start).Seconds())
	status := "ok"
	if resp.StatusCode() >= 400 {
		status = "upstream_error"
	}
	observability.UpstreamRequestsTotal.WithLabelValues(payload.Name, status).Inc()

	debug.Log("upstream", "relayed tool call",
		"tool", payload.Name,
		"status", resp.StatusCode(),
		"duration", time.Since(start).String())
	debug.Raw("upstream", debug.Truncate(string(resp.Body()), 4096))

	return &UpstreamResult{
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.Body(),
	}, nil
}

// isTimeout reports whether err is a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
