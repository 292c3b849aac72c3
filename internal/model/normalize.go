package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyPayload is returned when the backend response carries no data
// field at all (null, absent, or empty). Distinct from a malformed payload:
// the caller typically surfaces it as "no diagram data" rather than a
// parse failure.
var ErrEmptyPayload = errors.New("diagram payload is empty")

// MalformedPayloadError is returned when the data field is a string that
// fails to parse as JSON. It carries the original parse error message.
type MalformedPayloadError struct {
	Err error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed diagram payload: %v", e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

// NormalizeData resolves a backend inconsistency where the data field is
// sometimes a JSON-encoded string and sometimes an already-structured
// value. The returned raw message is always structured JSON, identical for
// both wire shapes. This runs before any structural validation.
//
// A JSON string value is unquoted and its contents parsed; parse failure
// yields a *MalformedPayloadError. Structured values pass through
// unchanged. Null or empty input yields ErrEmptyPayload.
func NormalizeData(raw json.RawMessage) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, ErrEmptyPayload
	}

	if raw[0] != '"' {
		// Already structured; pass through unchanged.
		return raw, nil
	}

	// String-encoded: unquote, then verify the contents parse.
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return nil, &MalformedPayloadError{Err: err}
	}
	trimmed := bytes.TrimSpace([]byte(inner))
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrEmptyPayload
	}
	var check any
	if err := json.Unmarshal(trimmed, &check); err != nil {
		return nil, &MalformedPayloadError{Err: err}
	}
	return json.RawMessage(trimmed), nil
}
