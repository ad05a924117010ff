package valueobjects

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Distinguished record fields.
const (
	FieldKey  = "_key"
	FieldFrom = "_from"
	FieldTo   = "_to"
)

// Field is one named value inside a Record.
type Field struct {
	Name  string
	Value any
}

// Record is an ordered mapping from field name to a JSON-compatible value.
// Values are one of: string, json.Number, bool, nil, []any or map[string]any
// (numbers produced in code may also be any Go integer or float type).
// The zero value is an empty record ready to use.
type Record struct {
	fields []Field
}

// NewRecord builds a record from fields in the given order. A later field
// with an already-seen name replaces the earlier value in place.
func NewRecord(fields ...Field) Record {
	var r Record
	for _, f := range fields {
		r.Set(f.Name, f.Value)
	}
	return r
}

// RecordFromMap builds a record from a plain map. Fields are ordered by name
// so the result is deterministic.
func RecordFromMap(m map[string]any) Record {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	r := Record{fields: make([]Field, 0, len(names))}
	for _, name := range names {
		r.fields = append(r.fields, Field{Name: name, Value: m[name]})
	}
	return r
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.fields)
}

// Fields returns a copy of the fields in order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Get returns the value stored under name.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// GetString returns the value under name when it is a string.
func (r Record) GetString(name string) (string, bool) {
	v, ok := r.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Has reports whether the field is present.
func (r Record) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Set stores value under name, keeping the field's position if it exists.
func (r *Record) Set(name string, value any) {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields[i].Value = value
			return
		}
	}
	r.fields = append(r.fields, Field{Name: name, Value: value})
}

// Delete removes the field if present.
func (r *Record) Delete(name string) {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields = append(r.fields[:i:i], r.fields[i+1:]...)
			return
		}
	}
}

// Clone returns a record with its own field list. Nested values are shared;
// callers only ever replace top-level fields.
func (r Record) Clone() Record {
	if r.fields == nil {
		return Record{}
	}
	out := Record{fields: make([]Field, len(r.fields))}
	copy(out.fields, r.fields)
	return out
}

// Key returns the record's _key rendered as text. Strings are returned as-is
// and numbers as their decimal form; anything else, or an empty string,
// counts as no key.
func (r Record) Key() (string, bool) {
	v, ok := r.Get(FieldKey)
	if !ok {
		return "", false
	}
	var key string
	switch k := v.(type) {
	case string:
		key = k
	case json.Number:
		key = k.String()
	case int:
		key = strconv.Itoa(k)
	case int64:
		key = strconv.FormatInt(k, 10)
	case float64:
		key = strconv.FormatFloat(k, 'f', -1, 64)
	default:
		return "", false
	}
	return key, key != ""
}

// ToMap flattens the record into a plain map, losing field order.
func (r Record) ToMap() map[string]any {
	m := make(map[string]any, len(r.fields))
	for _, f := range r.fields {
		m[f.Name] = f.Value
	}
	return m
}

// MarshalJSON encodes the record as an object, fields in order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the order of its top-level
// fields. Numbers are kept as json.Number so integers round-trip exactly.
// A JSON null leaves an empty record.
func (r *Record) UnmarshalJSON(data []byte) error {
	r.fields = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		r.Set(name, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// ParseRecord decodes a single JSON object into a Record.
func ParseRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}
