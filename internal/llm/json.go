package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoObject means a response held no {...} span.
var ErrNoObject = errors.New("no json object in response")

// ObjectSpan returns the substring from the first '{' to the last '}',
// discarding any prose or code fences around it.
func ObjectSpan(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// DecodeObject extracts the embedded object from a model response and
// unmarshals it into v.
func DecodeObject(s string, v any) error {
	span, ok := ObjectSpan(s)
	if !ok {
		return ErrNoObject
	}
	if err := json.Unmarshal([]byte(span), v); err != nil {
		return fmt.Errorf("parse json: %w (raw: %s)", err, truncate(span, 200))
	}
	return nil
}
