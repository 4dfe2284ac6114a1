package vault

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeVault is an in-memory stand-in for a Vault KV mount. The version
// field controls whether it mimics a v1 or v2 mount.
type fakeVault struct {
	version string
	secrets map[string]map[string]string
}

func (f *fakeVault) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/sys/mounts", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"data": map[string]any{
				"secret/": map[string]any{
					"options": map[string]any{"version": f.version},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})

	serve := func(w http.ResponseWriter, r *http.Request, path string) {
		switch r.Method {
		case http.MethodGet:
			secret, ok := f.secrets[path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			var data any = secret
			if f.version == "2" {
				data = map[string]any{"data": secret}
			}
			json.NewEncoder(w).Encode(map[string]any{"data": data})
		case http.MethodPost, http.MethodPut:
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			fields := body
			if f.version == "2" {
				inner, ok := body["data"].(map[string]any)
				if !ok {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				fields = inner
			}
			stored := make(map[string]string, len(fields))
			for k, v := range fields {
				stored[k], _ = v.(string)
			}
			f.secrets[path] = stored
			w.WriteHeader(http.StatusNoContent)
		}
	}

	mux.HandleFunc("/v1/secret/data/", func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, r.URL.Path[len("/v1/secret/data/"):])
	})
	mux.HandleFunc("/v1/secret/", func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, r.URL.Path[len("/v1/secret/"):])
	})

	return mux
}

func newTestClient(t *testing.T, version string) (*Client, *fakeVault) {
	t.Helper()
	fake := &fakeVault{version: version, secrets: map[string]map[string]string{}}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	return New(Config{Addr: srv.URL, Token: "root"}), fake
}

func TestGetPutRoundTripV1(t *testing.T) {
	client, _ := newTestClient(t, "1")
	ctx := context.Background()

	if err := client.Put(ctx, "openwebui", map[string]string{"litellm_api_key": "sk-upstream"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := client.Get(ctx, "openwebui", "litellm_api_key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "sk-upstream" {
		t.Errorf("Get = %q, want sk-upstream", got)
	}
}

func TestGetPutRoundTripV2(t *testing.T) {
	client, _ := newTestClient(t, "2")
	ctx := context.Background()

	if err := client.Put(ctx, "openwebui", map[string]string{"litellm_api_key": "sk-v2"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := client.Get(ctx, "openwebui", "litellm_api_key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "sk-v2" {
		t.Errorf("Get = %q, want sk-v2", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	client, fake := newTestClient(t, "1")
	fake.secrets["openwebui"] = map[string]string{"other": "x"}

	_, err := client.Get(context.Background(), "openwebui", "litellm_api_key")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get error = %v, want ErrKeyNotFound", err)
	}
}

func TestGetMissingSecret(t *testing.T) {
	client, _ := newTestClient(t, "2")

	_, err := client.Get(context.Background(), "nothing-here", "key")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get error = %v, want ErrKeyNotFound", err)
	}
}

func TestDetectKVVersion(t *testing.T) {
	for _, tt := range []struct {
		version string
		want    int
	}{
		{"1", 1},
		{"2", 2},
	} {
		client, _ := newTestClient(t, tt.version)
		got, err := client.DetectKVVersion(context.Background())
		if err != nil {
			t.Fatalf("DetectKVVersion(%s): %v", tt.version, err)
		}
		if got != tt.want {
			t.Errorf("DetectKVVersion(%s) = %d, want %d", tt.version, got, tt.want)
		}
	}
}

func TestDetectKVVersionUnknownMountDefaultsToV1(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
	}))
	defer srv.Close()

	client := New(Config{Addr: srv.URL, Token: "root", Mount: "custom"})
	got, err := client.DetectKVVersion(context.Background())
	if err != nil {
		t.Fatalf("DetectKVVersion: %v", err)
	}
	if got != 1 {
		t.Errorf("DetectKVVersion = %d, want 1", got)
	}
}

func TestGetRejectsNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/sys/mounts" {
			json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
			return
		}
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	client := New(Config{Addr: srv.URL, Token: "root"})
	if _, err := client.Get(context.Background(), "openwebui", "key"); err == nil {
		t.Error("expected parse error for non-JSON body")
	}
}
