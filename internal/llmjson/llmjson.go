// Package llmjson repairs and parses structured data out of raw LLM
// replies. Replies are expected to be a JSON array but routinely arrive
// wrapped in markdown fences or surrounded by prose, so parsing is
// tolerant: strip fences, try a direct parse, then fall back to the
// first top-level bracketed array.
package llmjson

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

var fenceOpen = regexp.MustCompile("^```[a-zA-Z]*[ \t]*\n?")

// StripFences removes a leading and trailing markdown code fence, if
// present, and trims surrounding whitespace.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = fenceOpen.ReplaceAllString(s, "")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// ExtractArray returns the first top-level bracketed JSON array embedded
// in s, scanning bracket depth while skipping string literals. Returns
// false if no balanced array exists.
func ExtractArray(s string) (string, bool) {
	start := strings.Index(s, "[")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// ParseRecords parses a raw reply into a list of loosely-typed records.
// The reply must contain a JSON array of objects, possibly fenced or
// embedded in prose. Non-object array elements are rejected.
func ParseRecords(raw string) ([]map[string]any, error) {
	cleaned := StripFences(raw)

	var records []map[string]any
	if err := json.Unmarshal([]byte(cleaned), &records); err == nil {
		return records, nil
	}

	arr, ok := ExtractArray(cleaned)
	if !ok {
		return nil, eris.New("llmjson: reply contains no JSON array")
	}
	if err := json.Unmarshal([]byte(arr), &records); err != nil {
		return nil, eris.Wrap(err, "llmjson: parse extracted array")
	}
	return records, nil
}
