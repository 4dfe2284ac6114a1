package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mwessel/relais/pkg/vault"
)

func TestPassthroughResolver(t *testing.T) {
	got, err := PassthroughResolver{}.Resolve(context.Background(), "sk-abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "sk-abc" {
		t.Errorf("resolved = %q, want caller key unchanged", got)
	}
}

func TestStaticResolverMiss(t *testing.T) {
	_, err := StaticResolver{}.Resolve(context.Background(), "sk-unknown")
	if !errors.Is(err, ErrNoUpstreamKey) {
		t.Errorf("err = %v, want ErrNoUpstreamKey", err)
	}
}

func TestVaultResolverCachesKey(t *testing.T) {
	reads := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/sys/mounts":
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"secret/": map[string]any{"options": map[string]any{"version": "1"}},
				},
			})
		case "/v1/secret/litellm":
			reads++
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"sk-caller": "sk-upstream"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	r := &VaultResolver{
		Client:   vault.New(vault.Config{Addr: srv.URL, Token: "root", Mount: "secret", Timeout: time.Second}),
		Path:     "litellm",
		CacheTTL: time.Minute,
	}

	for i := 0; i < 3; i++ {
		got, err := r.Resolve(context.Background(), "sk-caller")
		if err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
		if got != "sk-upstream" {
			t.Errorf("resolved = %q, want sk-upstream", got)
		}
	}
	if reads != 1 {
		t.Errorf("vault read %d times, want 1 (cached)", reads)
	}
}

func TestVaultResolverRejectsUnknownCaller(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/sys/mounts":
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"secret/": map[string]any{"options": map[string]any{"version": "1"}},
				},
			})
		case "/v1/secret/litellm":
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"sk-known": "sk-upstream"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	r := &VaultResolver{
		Client: vault.New(vault.Config{Addr: srv.URL, Token: "root", Mount: "secret", Timeout: time.Second}),
		Path:   "litellm",
	}

	// A bearer key that is not a field of the secret must not be exchanged.
	_, err := r.Resolve(context.Background(), "sk-totally-unknown-caller")
	if !errors.Is(err, ErrNoUpstreamKey) {
		t.Fatalf("err = %v, want ErrNoUpstreamKey for unknown caller", err)
	}

	got, err := r.Resolve(context.Background(), "sk-known")
	if err != nil {
		t.Fatalf("resolve known caller: %v", err)
	}
	if got != "sk-upstream" {
		t.Errorf("resolved = %q, want sk-upstream", got)
	}
}

func TestVaultResolverFixedFieldMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/sys/mounts":
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"secret/": map[string]any{"options": map[string]any{"version": "1"}},
				},
			})
		case "/v1/secret/litellm":
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"master_key": "sk-master"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	r := &VaultResolver{
		Client: vault.New(vault.Config{Addr: srv.URL, Token: "root", Mount: "secret", Timeout: time.Second}),
		Path:   "litellm",
		Field:  "master_key",
	}

	got, err := r.Resolve(context.Background(), "sk-any-authenticated-caller")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "sk-master" {
		t.Errorf("resolved = %q, want sk-master", got)
	}
}

func TestVaultResolverRequiresCallerKey(t *testing.T) {
	r := &VaultResolver{}
	_, err := r.Resolve(context.Background(), "")
	if !errors.Is(err, ErrNoUpstreamKey) {
		t.Errorf("err = %v, want ErrNoUpstreamKey for empty caller key", err)
	}
}
