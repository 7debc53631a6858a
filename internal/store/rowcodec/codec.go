// Package rowcodec maps structured records onto flat relational rows and
// back. Each record type declares a static, ordered field descriptor list;
// encoding converts the record's values into bindable arguments for a
// parameterized statement, decoding selectively inverts the serialized
// columns on read.
package rowcodec

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Field declares how one record field maps onto a relational column.
// The descriptor list for a record type is fixed at compile time, so the
// column list and the bound values are aligned by construction.
type Field struct {
	// Column is the relational column name.
	Column string
	// JSON marks a non-primitive field: its value is marshaled to text on
	// write and unmarshaled on read.
	JSON bool
	// Bool marks a boolean field persisted as INTEGER 0/1.
	Bool bool
}

// Columns returns the comma-joined column list for a SQL statement.
func Columns(fields []Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Column
	}
	return strings.Join(names, ", ")
}

// Placeholders returns one "(?, ?, ...)" value tuple for n columns.
func Placeholders(n int) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('?')
	}
	sb.WriteByte(')')
	return sb.String()
}

// BindArgs converts a record's values into driver-bindable arguments aligned
// with fields: JSON fields are serialized to text (nil and empty payloads
// bind NULL), Bool fields become 0/1, primitives pass through unchanged.
//
// An empty value list, or one whose length disagrees with the descriptor
// list, is an error naming recordID — it means a collaborator produced a row
// with nothing to bind, and binding it anyway would silently misalign
// columns.
func BindArgs(recordID string, fields []Field, values []any) ([]any, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("record %s produced no bindable values", recordID)
	}
	if len(values) != len(fields) {
		return nil, fmt.Errorf("record %s: %d values for %d declared fields", recordID, len(values), len(fields))
	}

	args := make([]any, len(values))
	for i, v := range values {
		f := fields[i]
		switch {
		case f.JSON:
			enc, err := encodeJSON(v)
			if err != nil {
				return nil, fmt.Errorf("record %s: serialize %s: %w", recordID, f.Column, err)
			}
			args[i] = enc
		case f.Bool:
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("record %s: field %s is not a bool", recordID, f.Column)
			}
			args[i] = boolToInt(b)
		default:
			args[i] = v
		}
	}
	return args, nil
}

// encodeJSON serializes v to a text blob. Absent payloads (nil interfaces,
// nil pointers/slices/maps, empty raw messages) bind NULL so they read back
// as absent rather than as an encoded zero value.
func encodeJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		if len(raw) == 0 {
			return nil, nil
		}
		return string(raw), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// DecodeJSON unmarshals a stored text column into dst and reports whether a
// decode happened. NULL and empty text pass through undecoded: an absent
// payload stays absent instead of becoming a zero value.
func DecodeJSON(col sql.NullString, dst any) (bool, error) {
	if !col.Valid || col.String == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(col.String), dst); err != nil {
		return false, err
	}
	return true, nil
}

// DecodeRaw returns a stored opaque payload column as a raw message, nil
// when the column is NULL or empty.
func DecodeRaw(col sql.NullString) json.RawMessage {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.RawMessage(col.String)
}

// DecodeBool maps the stored integer form of a boolean column back to a
// bool: 1 is true, anything else is false.
func DecodeBool(v int64) bool {
	return v == 1
}
