// Package modeljson extracts JSON from generative model output.
//
// Model answers are untrusted text: they may be wrapped in markdown code
// fences, preceded by prose, or not JSON at all. Every caller that expects
// JSON from a model goes through Decode, choosing whether an unusable answer
// is an error (Strict) or an empty result (Lenient).
package modeljson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

// Policy selects how Decode reports unusable output.
type Policy int

const (
	// Strict returns an error wrapping domain.ErrMalformedModelOutput.
	Strict Policy = iota
	// Lenient returns the zero value and no error.
	Lenient
)

// Shape is the top-level JSON kind a caller expects.
type Shape int

// Expected shapes.
const (
	Array Shape = iota
	Object
)

var fencePattern = regexp.MustCompile("(?s)^\\s*```[a-zA-Z0-9_-]*\\s*\\n?(.*?)\\n?\\s*```\\s*$")

// StripCodeFences removes a surrounding markdown code fence, if any.
func StripCodeFences(raw string) string {
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// Isolate strips fences and trims any prose around the outermost JSON value
// of the requested shape. It returns "" when no such value is delimited.
func Isolate(raw string, shape Shape) string {
	s := StripCodeFences(raw)
	open, closing := "[", "]"
	if shape == Object {
		open, closing = "{", "}"
	}
	start := strings.Index(s, open)
	end := strings.LastIndex(s, closing)
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// Decode parses raw into T after isolating a JSON value of the given shape.
// validate, when non-nil, runs on the decoded value and its error is treated
// like a parse failure.
func Decode[T any](raw string, shape Shape, policy Policy, validate func(*T) error) (T, error) {
	var out T
	err := decode(raw, shape, &out)
	if err == nil && validate != nil {
		err = validate(&out)
	}
	if err == nil {
		return out, nil
	}

	var zero T
	if policy == Lenient {
		return zero, nil
	}
	return zero, fmt.Errorf("%w: %w", domain.ErrMalformedModelOutput, err)
}

func decode(raw string, shape Shape, out any) error {
	body := Isolate(raw, shape)
	if body == "" {
		return errors.New("no JSON value found")
	}
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if dec.More() {
		return errors.New("parse: trailing data after JSON value")
	}
	return nil
}

// StringArray decodes a JSON array whose every element is a string.
func StringArray(raw string, policy Policy) ([]string, error) {
	items, err := Decode[[]json.RawMessage](raw, Array, policy, nil)
	if err != nil || items == nil {
		return nil, err
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			if policy == Lenient {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: element %d is not a string", domain.ErrMalformedModelOutput, i)
		}
		out = append(out, s)
	}
	return out, nil
}

// Strings is a list field that tolerates non-string elements by rendering
// them as text. null decodes to an empty list.
type Strings []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Strings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = Strings{}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("expected array: %w", err)
	}

	out := make(Strings, 0, len(items))
	for _, item := range items {
		out = append(out, renderScalar(item))
	}
	*s = out
	return nil
}

// Text is a scalar field that accepts strings, numbers and booleans.
// null and empty strings decode to nil.
type Text struct {
	Value *string
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		t.Value = nil
		return nil
	}
	if len(data) > 0 && (data[0] == '[' || data[0] == '{') {
		return errors.New("expected scalar")
	}
	v := strings.TrimSpace(renderScalar(data))
	if v == "" {
		t.Value = nil
		return nil
	}
	t.Value = &v
	return nil
}

func renderScalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return string(raw)
}
