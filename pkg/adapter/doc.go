// Package adapter implements the HTTP shim between the OpenWebUI tool-call
// convention and the LiteLLM MCP REST convention.
//
// OpenWebUI calls tools as POST /mcp-rest/tools/call/<tool-name> with the
// arguments in the body; LiteLLM expects POST /mcp-rest/tools/call with the
// tool name inside the body. The adapter normalizes the incoming payload,
// exchanges the caller's bearer key for the upstream key, forwards the call,
// and relays the upstream response verbatim.
//
// The adapter is stateless: every request is handled independently and no
// mutable state is shared across requests.
package adapter
