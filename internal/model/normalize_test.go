package model

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

// mustNormalize runs NormalizeData and fails the test on error.
func mustNormalize(t *testing.T, raw string) json.RawMessage {
	t.Helper()
	out, err := NormalizeData(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("NormalizeData(%q): %v", raw, err)
	}
	return out
}

// decoded parses a raw message into a generic value for comparison.
func decoded(t *testing.T, raw json.RawMessage) any {
	t.Helper()
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal %q: %v", raw, err)
	}
	return v
}

func TestNormalize_StructuredPassthrough(t *testing.T) {
	in := `{"nodes":[{"id":"A"}],"links":[]}`
	out := mustNormalize(t, in)
	if string(out) != in {
		t.Errorf("structured payload changed: got %s, want %s", out, in)
	}
}

func TestNormalize_StringEncodedEquivalence(t *testing.T) {
	// The same payload arriving as a JSON-encoded string and as a
	// pre-parsed object must normalize to an identical structure.
	obj := `{"nodes":[{"id":"A","label":"Login"},{"id":"B"}],"links":[{"source":"A","target":"B"}]}`
	quoted, err := json.Marshal(obj)
	if err != nil {
		t.Fatal(err)
	}

	direct := mustNormalize(t, obj)
	fromString := mustNormalize(t, string(quoted))

	if !reflect.DeepEqual(decoded(t, direct), decoded(t, fromString)) {
		t.Errorf("wire shapes diverged:\n direct: %s\n string: %s", direct, fromString)
	}
}

func TestNormalize_MalformedString(t *testing.T) {
	_, err := NormalizeData(json.RawMessage(`"{\"nodes\": [oops"`))
	var mpe *MalformedPayloadError
	if !errors.As(err, &mpe) {
		t.Fatalf("expected *MalformedPayloadError, got %v", err)
	}
	if mpe.Err == nil {
		t.Error("expected original parse error to be carried")
	}
}

func TestNormalize_EmptyPayload(t *testing.T) {
	for _, raw := range []string{"", "null", "  null  ", `""`, `"null"`} {
		_, err := NormalizeData(json.RawMessage(raw))
		if !errors.Is(err, ErrEmptyPayload) {
			t.Errorf("NormalizeData(%q): expected ErrEmptyPayload, got %v", raw, err)
		}
	}
}

func TestNormalize_StringEncodedArray(t *testing.T) {
	out := mustNormalize(t, `"[1,2,3]"`)
	if string(out) != "[1,2,3]" {
		t.Errorf("got %s, want [1,2,3]", out)
	}
}
