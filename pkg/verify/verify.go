// Package verify implements the stack verification harness: readiness
// polling and write/read round-trips against Vault, Keycloak, LiteLLM,
// the MCP endpoint, and the adapter.
//
// Every verifier follows the same pattern: poll a readiness endpoint with
// a bounded retry budget, write a probe value, read it back, extract the
// value from whichever response shape the target answers with, and compare
// byte-exact. Failures carry a class that maps to a process exit code, so
// shell automation can branch on the cause.
package verify

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// Exit codes, one per failure class. Automation branches on these.
const (
	ExitOK           = 0 // round-trip succeeded
	ExitDependency   = 1 // missing dependency or unclassified failure
	ExitConnectivity = 2 // connectivity failure or readiness timeout
	ExitParse        = 3 // unparseable response or missing key
	ExitMismatch     = 4 // read-back value differs from what was written
)

// Failure is a classified verification error.
type Failure struct {
	Code int
	Err  error
}

func (f *Failure) Error() string { return f.Err.Error() }
func (f *Failure) Unwrap() error { return f.Err }

// Dependencyf builds an ExitDependency failure.
func Dependencyf(format string, args ...any) *Failure {
	return &Failure{Code: ExitDependency, Err: fmt.Errorf(format, args...)}
}

// Connectivityf builds an ExitConnectivity failure.
func Connectivityf(format string, args ...any) *Failure {
	return &Failure{Code: ExitConnectivity, Err: fmt.Errorf(format, args...)}
}

// Parsef builds an ExitParse failure.
func Parsef(format string, args ...any) *Failure {
	return &Failure{Code: ExitParse, Err: fmt.Errorf(format, args...)}
}

// Mismatch builds an ExitMismatch failure reporting both values. Mismatches
// are terminal: they are never retried, a wrong value read back means the
// store is broken, not slow.
func Mismatch(wrote, read string) *Failure {
	return &Failure{
		Code: ExitMismatch,
		Err:  fmt.Errorf("value mismatch: wrote %q, read back %q", wrote, read),
	}
}

// ExitCode maps any error to its exit code. Unclassified errors map to
// ExitDependency; nil maps to ExitOK.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Code
	}
	return ExitDependency
}

// RandomProbeValue returns a fresh random value for a verification
// round-trip, hex-encoded with a recognizable prefix.
func RandomProbeValue() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// math/rand quality would do here, but crypto/rand does not fail
		// on any platform we run on.
		panic(err)
	}
	return "probe-" + hex.EncodeToString(buf)
}
