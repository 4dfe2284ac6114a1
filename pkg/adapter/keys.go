package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mwessel/relais/pkg/observability"
	"github.com/mwessel/relais/pkg/vault"
)

// ErrNoUpstreamKey indicates that the caller's bearer key could not be
// exchanged for an upstream key.
var ErrNoUpstreamKey = errors.New("no upstream key for caller")

// KeyResolver exchanges the caller's bearer key for the key to present
// upstream. An empty callerKey means the request carried no Authorization
// header.
type KeyResolver interface {
	Resolve(ctx context.Context, callerKey string) (string, error)
}

// PassthroughResolver forwards the caller's key unchanged. Used when the
// upstream trusts the same keys the adapter receives.
type PassthroughResolver struct{}

func (PassthroughResolver) Resolve(_ context.Context, callerKey string) (string, error) {
	return callerKey, nil
}

// StaticResolver maps caller keys to upstream keys from a fixed table.
type StaticResolver map[string]string

func (r StaticResolver) Resolve(_ context.Context, callerKey string) (string, error) {
	upstream, ok := r[callerKey]
	if !ok {
		return "", ErrNoUpstreamKey
	}
	return upstream, nil
}

// VaultResolver exchanges the caller's bearer key for the upstream key
// stored in Vault: the secret at Path maps caller keys to upstream keys,
// so a caller whose key is not a field of the secret is rejected. Setting
// Field switches to a fixed-field mode where every authenticated caller
// gets the key stored under that one field. Resolved keys are cached per
// caller so Vault is not hit on every tool call.
type VaultResolver struct {
	Client *vault.Client
	Path   string

	// Field, when non-empty, is read instead of the caller's key. Leave
	// empty for per-caller exchange.
	Field string

	// CacheTTL bounds how long a fetched key is reused. Default: 5 minutes.
	CacheTTL time.Duration

	mu    sync.Mutex
	cache map[string]cachedKey
}

type cachedKey struct {
	value     string
	fetchedAt time.Time
}

func (r *VaultResolver) Resolve(ctx context.Context, callerKey string) (string, error) {
	if callerKey == "" {
		return "", ErrNoUpstreamKey
	}

	field := callerKey
	if r.Field != "" {
		field = r.Field
	}

	ttl := r.CacheTTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.cache[field]; ok && time.Since(entry.fetchedAt) < ttl {
		return entry.value, nil
	}

	value, err := r.Client.Get(ctx, r.Path, field)
	if err != nil {
		observability.VaultOperationsTotal.WithLabelValues("get", "error").Inc()
		if errors.Is(err, vault.ErrKeyNotFound) {
			return "", fmt.Errorf("%w: %v", ErrNoUpstreamKey, err)
		}
		return "", fmt.Errorf("exchanging key via vault: %w", err)
	}
	observability.VaultOperationsTotal.WithLabelValues("get", "ok").Inc()

	if r.cache == nil {
		r.cache = make(map[string]cachedKey)
	}
	r.cache[field] = cachedKey{value: value, fetchedAt: time.Now()}
	return value, nil
}
