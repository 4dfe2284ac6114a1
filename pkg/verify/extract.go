package verify

import "encoding/json"

// Extractor pulls a value out of one possible response shape. It reports
// ok=false when the body does not have that shape, letting the caller try
// the next one.
type Extractor func(body map[string]any) (value string, ok bool)

// Extract tries each extractor in order and returns the first hit.
// The order is significant: more specific shapes come first so a flat
// field is never shadowed by a looser match.
func Extract(body map[string]any, extractors ...Extractor) (string, bool) {
	for _, ex := range extractors {
		if v, ok := ex(body); ok {
			return v, true
		}
	}
	return "", false
}

// FlatField matches `{"<key>": "value"}`.
func FlatField(key string) Extractor {
	return func(body map[string]any) (string, bool) {
		v, ok := body[key].(string)
		return v, ok
	}
}

// TextArray matches `{"<key>": [{"text": "value"}, ...]}`, the MCP
// content-block shape. The first element carrying a text field wins.
func TextArray(key string) Extractor {
	return func(body map[string]any) (string, bool) {
		items, ok := body[key].([]any)
		if !ok {
			return "", false
		}
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := obj["text"].(string); ok {
				return text, true
			}
		}
		return "", false
	}
}

// NestedJSON matches shapes where the value sits inside a JSON-encoded
// string: the outer extractor yields the string, which is then decoded and
// the inner key read from it.
func NestedJSON(outer Extractor, innerKey string) Extractor {
	return func(body map[string]any) (string, bool) {
		text, ok := outer(body)
		if !ok {
			return "", false
		}
		var nested map[string]any
		if err := json.Unmarshal([]byte(text), &nested); err != nil {
			return "", false
		}
		v, ok := nested[innerKey].(string)
		return v, ok
	}
}

// ResultExtractors is the standard chain for tool-call responses: a flat
// "result" field, then an MCP content block whose text is the JSON-encoded
// result, then a raw content-block text.
func ResultExtractors() []Extractor {
	return []Extractor{
		FlatField("result"),
		NestedJSON(TextArray("content"), "result"),
		TextArray("content"),
	}
}
