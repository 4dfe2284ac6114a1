// Package datagroup defines the secure key/value store the stack exposes
// as an MCP tool backend. Every entry belongs to a group; reads must name
// the matching group or they are denied.
package datagroup

import (
	"context"
	"errors"
)

// Reply sentinels. Automation on the consumer side string-matches these,
// so they must stay byte-exact.
const (
	KeyNotFoundMessage  = "Key not found"
	AccessDeniedMessage = "Access denied"
)

// ErrKeyNotFound is returned by Get when no entry exists for the key.
var ErrKeyNotFound = errors.New("key not found")

// ErrAccessDenied is returned by Get when the entry exists but belongs to
// a different group.
var ErrAccessDenied = errors.New("access denied")

// Store is the datagroup storage contract. Keys are unique; a re-Put
// replaces both the value and the owning group.
type Store interface {
	// Put stores value under key, owned by group.
	Put(ctx context.Context, key, value, group string) error

	// Get returns the value for key when group matches the owning group.
	// Returns ErrKeyNotFound or ErrAccessDenied otherwise.
	Get(ctx context.Context, key, group string) (string, error)
}

// ReplyForError maps a Get failure to the sentinel reply the tool surface
// must return. Unknown errors map to the empty string so callers can
// propagate them instead.
func ReplyForError(err error) string {
	switch {
	case errors.Is(err, ErrKeyNotFound):
		return KeyNotFoundMessage
	case errors.Is(err, ErrAccessDenied):
		return AccessDeniedMessage
	default:
		return ""
	}
}
