package firestore

import (
	"fmt"
	"path"
	"time"
)

// Value is the subset of Firestore REST typed values the timesheet
// collections use. A null or differently typed value leaves both nil.
type Value struct {
	StringValue    *string `json:"stringValue,omitempty"`
	TimestampValue *string `json:"timestampValue,omitempty"`
}

// String is a convenience constructor for query values.
func String(s string) Value { return Value{StringValue: &s} }

// Document is a Firestore document as returned by the REST API.
type Document struct {
	Name   string           `json:"name"`
	Fields map[string]Value `json:"fields"`
}

// ID is the last path segment of the document name.
func (d Document) ID() string { return path.Base(d.Name) }

// Str returns a string field, or "" when missing.
func (d Document) Str(field string) string {
	if p := d.StrPtr(field); p != nil {
		return *p
	}
	return ""
}

// StrPtr returns a string field, or nil when missing, null or empty.
func (d Document) StrPtr(field string) *string {
	v, ok := d.Fields[field]
	if !ok || v.StringValue == nil || *v.StringValue == "" {
		return nil
	}
	s := *v.StringValue
	return &s
}

// Time returns a timestamp field. Missing or pending server timestamps
// yield the zero time.
func (d Document) Time(field string) (time.Time, error) {
	v, ok := d.Fields[field]
	if !ok || v.TimestampValue == nil {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, *v.TimestampValue)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %s of %s: %w", field, d.Name, err)
	}
	return t.UTC(), nil
}
