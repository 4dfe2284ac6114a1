// Package noop provides a no-op authenticator that accepts all requests.
// Used when the adapter runs without an OIDC guard.
package noop

import (
	"context"
	"net/http"

	"github.com/mwessel/relais/pkg/auth"
)

// Authenticator always returns Yes with a default anonymous identity.
type Authenticator struct{}

func (a *Authenticator) Authenticate(_ context.Context, _ *http.Request) auth.Result {
	return auth.Result{
		Decision: auth.Yes,
		Identity: &auth.Identity{Subject: "anonymous"},
	}
}
