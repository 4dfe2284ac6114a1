package verify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newFakeLiteLLM serves tools/list and tools/call backed by a map,
// answering tool calls with MCP content-block bodies.
func newFakeLiteLLM(t *testing.T, label string) *httptest.Server {
	t.Helper()
	store := make(map[string]string)

	prefix := func(tool string) string {
		if label == "" {
			return tool
		}
		return label + "-" + tool
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/mcp-rest/tools/list":
			json.NewEncoder(w).Encode(map[string]any{
				"tools": []map[string]any{
					{"name": prefix("put_key_value")},
					{"name": prefix("get_value_by_key")},
				},
			})
		case "/mcp-rest/tools/call":
			var call struct {
				Name      string         `json:"name"`
				Arguments map[string]any `json:"arguments"`
			}
			json.NewDecoder(r.Body).Decode(&call)

			switch call.Name {
			case prefix("put_key_value"):
				key, _ := call.Arguments["key"].(string)
				value, _ := call.Arguments["value"].(string)
				store[key] = value
				json.NewEncoder(w).Encode(map[string]any{
					"content": []map[string]any{
						{"type": "text", "text": `{"status":"stored"}`},
					},
				})
			case prefix("get_value_by_key"):
				key, _ := call.Arguments["key"].(string)
				reply, _ := json.Marshal(map[string]string{"result": store[key]})
				json.NewEncoder(w).Encode(map[string]any{
					"content": []map[string]any{
						{"type": "text", "text": string(reply)},
					},
				})
			default:
				http.Error(w, "unknown tool", http.StatusNotFound)
			}
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLiteLLMRoundTrip(t *testing.T) {
	srv := newFakeLiteLLM(t, "")

	err := LiteLLM(context.Background(), LiteLLMOptions{
		BaseURL: srv.URL,
		APIKey:  "sk-test",
		Poller:  fastPoller(),
	})
	if err != nil {
		t.Fatalf("litellm verification failed: %v", err)
	}
}

func TestLiteLLMPrefixedToolNames(t *testing.T) {
	srv := newFakeLiteLLM(t, "datagroup")

	err := LiteLLM(context.Background(), LiteLLMOptions{
		BaseURL: srv.URL,
		Poller:  fastPoller(),
	})
	if err != nil {
		t.Fatalf("litellm verification with prefixed tools failed: %v", err)
	}
}

func TestLiteLLMMissingTools(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/mcp-rest/tools/list" {
			json.NewEncoder(w).Encode(map[string]any{
				"tools": []map[string]any{{"name": "some_other_tool"}},
			})
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	err := LiteLLM(context.Background(), LiteLLMOptions{
		BaseURL: srv.URL,
		Poller:  fastPoller(),
	})
	if ExitCode(err) != ExitParse {
		t.Errorf("exit code = %d, want parse for missing tools (err: %v)", ExitCode(err), err)
	}
}

func TestLiteLLMUnreachable(t *testing.T) {
	err := LiteLLM(context.Background(), LiteLLMOptions{
		BaseURL: "http://127.0.0.1:1",
		Poller:  fastPoller(),
	})
	if ExitCode(err) != ExitConnectivity {
		t.Errorf("exit code = %d, want connectivity", ExitCode(err))
	}
}
