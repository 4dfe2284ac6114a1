package noop

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mwessel/relais/pkg/auth"
)

func TestAuthenticateAlwaysYes(t *testing.T) {
	a := &Authenticator{}
	req := httptest.NewRequest(http.MethodPost, "/mcp-rest/tools/call/x", nil)

	result := a.Authenticate(context.Background(), req)
	if result.Decision != auth.Yes {
		t.Fatalf("decision = %v, want Yes", result.Decision)
	}
	if result.Identity == nil || result.Identity.Subject != "anonymous" {
		t.Errorf("identity = %+v, want anonymous subject", result.Identity)
	}
}

// A chain carrying only the noop authenticator must let credential-less
// requests through the guard middleware.
func TestChainWithNoopPassesUnauthenticated(t *testing.T) {
	chain := &auth.Chain{
		Authenticators:  []auth.Authenticator{&Authenticator{}},
		DefaultDecision: auth.No,
	}

	var subject string
	handler := auth.Middleware(chain, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := auth.IdentityFromContext(r.Context()); id != nil {
			subject = id.Subject
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp-rest/tools/call/x", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if subject != "anonymous" {
		t.Errorf("subject = %q, want anonymous", subject)
	}
}
