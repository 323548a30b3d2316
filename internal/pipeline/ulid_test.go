package pipeline

import (
	"strings"
	"testing"
	"time"
)

func TestULID_FormatAndOrder(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)
	a := newULID(at)
	b := newULID(at)
	c := newULID(at.Add(time.Millisecond))

	for _, id := range []string{a, b, c} {
		if len(id) != 26 {
			t.Fatalf("id %q has length %d", id, len(id))
		}
		for _, r := range id {
			if !strings.ContainsRune(crockford, r) {
				t.Fatalf("id %q contains %q", id, r)
			}
		}
	}
	if a == b {
		t.Error("same-millisecond ids collided")
	}
	if !(a < b && b < c) {
		t.Errorf("ids not ordered: %s %s %s", a, b, c)
	}
}

func TestEncodeULID_Zero(t *testing.T) {
	if got := encodeULID([16]byte{}); got != strings.Repeat("0", 26) {
		t.Errorf("zero ulid = %q", got)
	}
	var max [16]byte
	for i := range max {
		max[i] = 0xff
	}
	if got := encodeULID(max); got != "7ZZZZZZZZZZZZZZZZZZZZZZZZZ" {
		t.Errorf("max ulid = %q", got)
	}
}
