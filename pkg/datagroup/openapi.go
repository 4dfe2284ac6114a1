package datagroup

import (
	"encoding/json"
	"fmt"
	"io"
)

// OpenAPIConfig controls the generated OpenAPI document. OpenWebUI imports
// the document to discover the tools that LiteLLM fronts, so every path is
// rewritten to the "<server-label>-<tool>" form LiteLLM exposes.
type OpenAPIConfig struct {
	Title       string
	Version     string
	BaseURL     string // server URL the paths are relative to
	ServerLabel string // LiteLLM server label prefixed to each tool name
}

// toolSpec describes one tool for document generation.
type toolSpec struct {
	name        string
	description string
	properties  map[string]any
	required    []string
}

var openAPITools = []toolSpec{
	{
		name:        ToolPutKeyValue,
		description: "Stores a value under a key, owned by a group",
		properties: map[string]any{
			"key":   map[string]any{"type": "string", "description": "The key to store the value under"},
			"value": map[string]any{"type": "string", "description": "The value to store"},
			"group": map[string]any{"type": "string", "description": "The group that owns the entry"},
		},
		required: []string{"key", "value", "group"},
	},
	{
		name:        ToolGetValueByKey,
		description: "Returns the value stored under a key when the group matches",
		properties: map[string]any{
			"key":   map[string]any{"type": "string", "description": "The key to look up"},
			"group": map[string]any{"type": "string", "description": "The group requesting access"},
		},
		required: []string{"key", "group"},
	},
}

// OpenAPIDocument builds the OpenAPI 3.1 document for the datagroup tools.
func OpenAPIDocument(cfg OpenAPIConfig) map[string]any {
	if cfg.Title == "" {
		cfg.Title = "secure-datagroup tools"
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}

	paths := make(map[string]any, len(openAPITools))
	for _, tool := range openAPITools {
		paths[RewriteToolPath(cfg.ServerLabel, tool.name)] = map[string]any{
			"post": map[string]any{
				"operationId": tool.name,
				"summary":     tool.description,
				"requestBody": map[string]any{
					"required": true,
					"content": map[string]any{
						"application/json": map[string]any{
							"schema": map[string]any{
								"type":       "object",
								"properties": tool.properties,
								"required":   tool.required,
							},
						},
					},
				},
				"responses": map[string]any{
					"200": map[string]any{
						"description": "Tool result",
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{"type": "object"},
							},
						},
					},
				},
			},
		}
	}

	doc := map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   cfg.Title,
			"version": cfg.Version,
		},
		"paths": paths,
	}
	if cfg.BaseURL != "" {
		doc["servers"] = []any{map[string]any{"url": cfg.BaseURL}}
	}
	return doc
}

// RewriteToolPath maps a tool name to the path LiteLLM serves it under:
// "/<server-label>-<tool>". With no label, the tool name alone is used.
func RewriteToolPath(serverLabel, tool string) string {
	if serverLabel == "" {
		return "/" + tool
	}
	return fmt.Sprintf("/%s-%s", serverLabel, tool)
}

// WriteOpenAPI writes the indented JSON document to w.
func WriteOpenAPI(w io.Writer, cfg OpenAPIConfig) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(OpenAPIDocument(cfg)); err != nil {
		return fmt.Errorf("encoding OpenAPI document: %w", err)
	}
	return nil
}
