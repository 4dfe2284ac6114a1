package datagroup

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwessel/relais/pkg/api"
)

// fakeStore is an in-package Store stub so these tests do not depend on
// the memory implementation.
type fakeStore struct {
	entries map[string]struct{ value, group string }
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]struct{ value, group string })}
}

func (s *fakeStore) Put(_ context.Context, key, value, group string) error {
	s.entries[key] = struct{ value, group string }{value, group}
	return nil
}

func (s *fakeStore) Get(_ context.Context, key, group string) (string, error) {
	e, ok := s.entries[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	if e.group != group {
		return "", ErrAccessDenied
	}
	return e.value, nil
}

// setupSession connects an in-memory client session to a server backed by
// the given store.
func setupSession(t *testing.T, store Store) *mcp.ClientSession {
	t.Helper()

	server := NewMCPServer(store, "datagroup-test", "0.0.0")
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx := context.Background()
	go func() {
		_ = server.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(
		&mcp.Implementation{Name: "datagroup-test-client", Version: "0.0.0"},
		nil,
	)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connecting client: %v", err)
	}
	t.Cleanup(func() { session.Close() })

	return session
}

// callText invokes a tool and returns the concatenated text content.
func callText(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) string {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("calling %s: %v", name, err)
	}
	if result.IsError {
		t.Fatalf("%s returned tool error: %+v", name, result.Content)
	}

	var text string
	for _, content := range result.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			text += tc.Text
		}
	}
	return text
}

func TestMCPToolsListed(t *testing.T) {
	session := setupSession(t, newFakeStore())

	names := map[string]bool{}
	for tool, err := range session.Tools(context.Background(), nil) {
		if err != nil {
			t.Fatalf("listing tools: %v", err)
		}
		names[tool.Name] = true
	}

	if !names[ToolPutKeyValue] || !names[ToolGetValueByKey] {
		t.Errorf("tools = %v, want put_key_value and get_value_by_key", names)
	}
}

func TestMCPPutGetRoundTrip(t *testing.T) {
	session := setupSession(t, newFakeStore())

	putText := callText(t, session, ToolPutKeyValue, map[string]any{
		"key": "name", "value": "Bobby123", "group": "people",
	})
	var stored api.StoreResult
	if err := json.Unmarshal([]byte(putText), &stored); err != nil {
		t.Fatalf("put reply is not JSON: %v (%q)", err, putText)
	}
	if stored.Status != "stored" || stored.Key != "name" || stored.Group != "people" {
		t.Errorf("put reply = %+v", stored)
	}

	getText := callText(t, session, ToolGetValueByKey, map[string]any{
		"key": "name", "group": "people",
	})
	var got api.GetResult
	if err := json.Unmarshal([]byte(getText), &got); err != nil {
		t.Fatalf("get reply is not JSON: %v (%q)", err, getText)
	}
	if got.Result != "Bobby123" {
		t.Errorf("result = %q, want Bobby123", got.Result)
	}
}

func TestMCPGetMissingKey(t *testing.T) {
	session := setupSession(t, newFakeStore())

	text := callText(t, session, ToolGetValueByKey, map[string]any{
		"key": "absent", "group": "people",
	})
	var got api.GetResult
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("get reply is not JSON: %v", err)
	}
	if got.Result != KeyNotFoundMessage {
		t.Errorf("result = %q, want %q", got.Result, KeyNotFoundMessage)
	}
}

func TestMCPGetWrongGroup(t *testing.T) {
	store := newFakeStore()
	store.Put(context.Background(), "secret", "s3cr3t", "ops")
	session := setupSession(t, store)

	text := callText(t, session, ToolGetValueByKey, map[string]any{
		"key": "secret", "group": "dev",
	})
	var got api.GetResult
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("get reply is not JSON: %v", err)
	}
	if got.Result != AccessDeniedMessage {
		t.Errorf("result = %q, want %q", got.Result, AccessDeniedMessage)
	}
}

func TestReplyForError(t *testing.T) {
	if got := ReplyForError(ErrKeyNotFound); got != KeyNotFoundMessage {
		t.Errorf("ReplyForError(ErrKeyNotFound) = %q", got)
	}
	if got := ReplyForError(ErrAccessDenied); got != AccessDeniedMessage {
		t.Errorf("ReplyForError(ErrAccessDenied) = %q", got)
	}
	if got := ReplyForError(context.Canceled); got != "" {
		t.Errorf("ReplyForError(other) = %q, want empty", got)
	}
}
