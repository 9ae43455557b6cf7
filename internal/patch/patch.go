// Package patch provides tri-state optional fields for partial updates.
// A plain Go pointer cannot tell "field absent from the request" apart
// from "field explicitly set to null", so every patchable field is
// wrapped in a small struct that records presence during JSON decoding.
// Repositories use the Present flag to build partial UPDATE statements
// that touch only the columns the client actually sent.
package patch

import (
	"bytes"
	"encoding/json"
)

// String is an optional string field.
//   - Present=false: field absent from JSON (leave column unchanged)
//   - Present=true, Value=nil: field was JSON null (clear the column)
//   - Present=true, Value=&s: field carries a value
type String struct {
	Present bool
	Value   *string
}

// UnmarshalJSON implements json.Unmarshaler. It is only invoked when the
// field appears in the payload, which is what flips Present to true.
func (o *String) UnmarshalJSON(data []byte) error {
	o.Present = true
	if isNull(data) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Int is an optional integer field with the same tri-state semantics
// as String.
type Int struct {
	Present bool
	Value   *int
}

func (o *Int) UnmarshalJSON(data []byte) error {
	o.Present = true
	if isNull(data) {
		o.Value = nil
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	o.Value = &n
	return nil
}

// Uint64 is an optional unsigned id field. A null value is meaningful
// here: patching a foreign key to null detaches the reference.
type Uint64 struct {
	Present bool
	Value   *uint64
}

func (o *Uint64) UnmarshalJSON(data []byte) error {
	o.Present = true
	if isNull(data) {
		o.Value = nil
		return nil
	}
	var n uint64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	o.Value = &n
	return nil
}

// StringSlice is an optional list of strings. Absent means "do not touch
// the association set"; present (even empty or null) means "replace it".
type StringSlice struct {
	Present bool
	Value   []string
}

func (o *StringSlice) UnmarshalJSON(data []byte) error {
	o.Present = true
	if isNull(data) {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func isNull(data []byte) bool {
	return string(bytes.TrimSpace(data)) == "null"
}
