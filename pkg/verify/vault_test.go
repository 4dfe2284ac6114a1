package verify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mwessel/relais/pkg/vault"
)

// newFakeVault serves a minimal KV v1 mount backed by a map.
func newFakeVault(t *testing.T) (*httptest.Server, map[string]map[string]string) {
	t.Helper()
	secrets := make(map[string]map[string]string)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/sys/health":
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/v1/sys/mounts":
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"secret/": map[string]any{"options": map[string]any{"version": "1"}},
				},
			})
		case r.Method == http.MethodPost:
			var data map[string]string
			json.NewDecoder(r.Body).Decode(&data)
			secrets[r.URL.Path] = data
			w.WriteHeader(http.StatusNoContent)
		default:
			data, ok := secrets[r.URL.Path]
			if !ok {
				http.NotFound(w, r)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"data": data})
		}
	}))
	t.Cleanup(srv.Close)
	return srv, secrets
}

func fastPoller() Poller {
	return Poller{Retries: 3, Interval: time.Millisecond}
}

func TestVaultRoundTrip(t *testing.T) {
	srv, _ := newFakeVault(t)

	client := vault.New(vault.Config{Addr: srv.URL, Token: "root", Timeout: time.Second})
	err := Vault(context.Background(), VaultOptions{
		Client: client,
		Path:   "relais/verify",
		Poller: fastPoller(),
	})
	if err != nil {
		t.Fatalf("vault verification failed: %v", err)
	}
}

func TestVaultUnreachable(t *testing.T) {
	client := vault.New(vault.Config{Addr: "http://127.0.0.1:1", Token: "root", Timeout: 100 * time.Millisecond})

	err := Vault(context.Background(), VaultOptions{
		Client: client,
		Path:   "relais/verify",
		Poller: fastPoller(),
	})
	if ExitCode(err) != ExitConnectivity {
		t.Errorf("exit code = %d, want connectivity timeout", ExitCode(err))
	}
}

func TestVaultGetMissingKey(t *testing.T) {
	srv, _ := newFakeVault(t)
	client := vault.New(vault.Config{Addr: srv.URL, Token: "root", Timeout: time.Second})

	_, err := VaultGet(context.Background(), client, "absent/path", "nope")
	if ExitCode(err) != ExitParse {
		t.Errorf("exit code = %d, want parse/missing-key", ExitCode(err))
	}
}

func TestVaultGetValue(t *testing.T) {
	srv, secrets := newFakeVault(t)
	secrets["/v1/secret/litellm"] = map[string]string{"master_key": "sk-master"}

	client := vault.New(vault.Config{Addr: srv.URL, Token: "root", Timeout: time.Second})
	got, err := VaultGet(context.Background(), client, "litellm", "master_key")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "sk-master" {
		t.Errorf("value = %q, want sk-master", got)
	}
}
