package llm

import (
	"errors"
	"testing"
)

func TestObjectSpan(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{`Sure! Here you go: {"tables":[],"images":[]}`, `{"tables":[],"images":[]}`, true},
		{"```json\n{\"a\":{\"b\":2}}\n``` hope that helps", `{"a":{"b":2}}`, true},
		{"no object here", "", false},
		{"} backwards {", "", false},
	}
	for _, tt := range tests {
		got, ok := ObjectSpan(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ObjectSpan(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDecodeObject(t *testing.T) {
	var v struct {
		Verdict string `json:"verdict"`
	}
	if err := DecodeObject(`Result: {"verdict":"approved"}.`, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Verdict != "approved" {
		t.Errorf("verdict = %q", v.Verdict)
	}
	if err := DecodeObject("nothing", &v); !errors.Is(err, ErrNoObject) {
		t.Errorf("expected ErrNoObject, got %v", err)
	}
	if err := DecodeObject("{not json}", &v); err == nil {
		t.Error("expected parse error")
	}
}
