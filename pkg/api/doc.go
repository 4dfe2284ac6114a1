// Package api defines the wire types shared by the relais adapter and the
// verification harness.
//
// This package provides the tool-call request/payload shapes exchanged
// between OpenWebUI-style callers, the adapter, and the LiteLLM MCP REST
// endpoint, plus the health response and the structured error envelope.
//
// The package has zero external dependencies (Go standard library only) and
// performs no I/O.
package api
