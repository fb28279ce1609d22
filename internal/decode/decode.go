// Package decode turns raw HidroWeb payload bytes into weakly-typed records.
//
// The upstream API is not versioned and has returned differently shaped
// payloads across endpoints and years. Each known shape is an explicit
// variant here; an unrecognized shape fails loudly with a payload excerpt
// instead of guessing.
package decode

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one loosely-typed upstream record, field name to raw value.
// Semantic typing happens later in the normalizer.
type Record map[string]any

// Shape identifies which payload variant a response matched.
type Shape string

const (
	// ShapeEnvelopeList is the common envelope: {"status","message","items":[...]}.
	ShapeEnvelopeList Shape = "envelope_list"
	// ShapeEnvelopeObject is the envelope with a single object under "items".
	ShapeEnvelopeObject Shape = "envelope_object"
	// ShapeBareList is a top-level JSON array with no envelope, seen on
	// older inventory endpoints.
	ShapeBareList Shape = "bare_list"
)

// ShapeError reports a payload that matched no known shape variant.
type ShapeError struct {
	Excerpt string
	Err     error
}

func (e *ShapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unrecognized payload shape: %v (payload %q)", e.Err, e.Excerpt)
	}
	return fmt.Sprintf("unrecognized payload shape (payload %q)", e.Excerpt)
}

func (e *ShapeError) Unwrap() error { return e.Err }

const excerptLen = 120

func excerpt(body []byte) string {
	b := bytes.TrimSpace(body)
	if len(b) > excerptLen {
		b = b[:excerptLen]
	}
	return string(b)
}

type envelope struct {
	Status  json.RawMessage `json:"status"`
	Message string          `json:"message"`
	Items   json.RawMessage `json:"items"`
}

// Result carries the decoded records together with the shape and envelope
// message that produced them.
type Result struct {
	Shape   Shape
	Message string
	Records []Record
}

// Items decodes a raw response body into records, detecting the payload
// shape. An empty "items" (null or absent) decodes to zero records, which
// callers interpret as end-of-data.
func Items(body []byte) (*Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &ShapeError{Excerpt: "", Err: fmt.Errorf("empty body")}
	}

	if trimmed[0] == '[' {
		var records []Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, &ShapeError{Excerpt: excerpt(body), Err: err}
		}
		return &Result{Shape: ShapeBareList, Records: records}, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, &ShapeError{Excerpt: excerpt(body), Err: err}
	}

	items := bytes.TrimSpace(env.Items)
	if len(items) == 0 || bytes.Equal(items, []byte("null")) {
		return &Result{Shape: ShapeEnvelopeList, Message: env.Message}, nil
	}

	switch items[0] {
	case '[':
		var records []Record
		if err := json.Unmarshal(items, &records); err != nil {
			return nil, &ShapeError{Excerpt: excerpt(body), Err: err}
		}
		return &Result{Shape: ShapeEnvelopeList, Message: env.Message, Records: records}, nil
	case '{':
		var record Record
		if err := json.Unmarshal(items, &record); err != nil {
			return nil, &ShapeError{Excerpt: excerpt(body), Err: err}
		}
		return &Result{Shape: ShapeEnvelopeObject, Message: env.Message, Records: []Record{record}}, nil
	}

	return nil, &ShapeError{Excerpt: excerpt(body), Err: fmt.Errorf("items is neither list nor object")}
}

// Message extracts the envelope "message" field from an error response body,
// falling back to the raw excerpt when the body is not an envelope.
func Message(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return env.Message
	}
	return excerpt(body)
}
