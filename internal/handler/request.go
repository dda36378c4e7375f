package handler

import (
	"bytes"
	"encoding/json"
)

// stringField decodes a raw JSON value that must be a string. Any other
// JSON type, null included, yields nil.
func stringField(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}
