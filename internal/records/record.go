package records

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/justyntemme/bookcache/internal/metadata"
)

// Record is one flattened book row. Field order is preserved through
// encoding and decoding.
type Record []metadata.Field

// Get returns the value of a column, or nil if the record has no such column
func (r Record) Get(name string) any {
	for _, f := range r {
		if f.Name == name {
			return f.Value
		}
	}
	return nil
}

// Has reports whether the record has a column
func (r Record) Has(name string) bool {
	for _, f := range r {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Title returns the title column as a string
func (r Record) Title() string {
	var s string
	if !convert(r.Get("title"), &s) {
		return ""
	}
	return s
}

// Authors returns the authors column. A blank-filled column yields nil.
func (r Record) Authors() []string {
	var authors []string
	if !convert(r.Get("authors"), &authors) {
		return nil
	}
	return authors
}

// AverageRating returns the averageRating column and whether it is numeric
func (r Record) AverageRating() (float64, bool) {
	var v float64
	ok := convert(r.Get("averageRating"), &v)
	return v, ok
}

// RatingsCount returns the ratingsCount column and whether it is numeric
func (r Record) RatingsCount() (int, bool) {
	var v int
	ok := convert(r.Get("ratingsCount"), &v)
	return v, ok
}

// convert re-decodes a column value into dst
func convert(v any, dst any) bool {
	if v == nil {
		return false
	}
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// MarshalJSON writes the record as an object in column order
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := marshalValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON reads an object keeping its key order
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record: expected object, got %v", tok)
	}

	rec := Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record: expected key, got %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("record: field %q: %w", name, err)
		}
		rec = append(rec, metadata.Field{Name: name, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = rec
	return nil
}
