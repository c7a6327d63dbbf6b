package llm

import (
	"encoding/json"
	"strings"
)

// StripJSONFence removes a surrounding ```json ... ``` or ``` ... ``` code
// fence if present, since chat models routinely wrap JSON output in one
// even when explicitly asked not to.
func StripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	} else {
		return s
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// ParseJSONOrDefault unmarshals raw (after fence-stripping) into out. On any
// failure it leaves out untouched and returns false, so the caller can fall
// back to a deterministic default rather than erroring the whole request.
func ParseJSONOrDefault(raw string, out any) bool {
	cleaned := StripJSONFence(raw)
	if cleaned == "" {
		return false
	}
	return json.Unmarshal([]byte(cleaned), out) == nil
}
