package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Field names one attribute within a snapshot.
type Field string

// snapshotTypeKey tags the kind discriminator in serialized snapshots.
const snapshotTypeKey = "_type"

// Snapshot is the complete recorded field state of a journalable entity at
// one version: a kind discriminator plus a field-to-value mapping. The
// container imposes no schema; within one kind, callers keep field names
// consistent across versions by going through the kind's builder.
type Snapshot struct {
	kind   Kind
	fields map[Field]Value
}

// NewSnapshot creates an empty snapshot tagged with the given kind.
func NewSnapshot(kind Kind) Snapshot {
	return Snapshot{kind: NormalizeKind(kind), fields: map[Field]Value{}}
}

// Kind returns the snapshot's kind discriminator.
func (s Snapshot) Kind() Kind {
	return s.kind
}

// Set inserts or overwrites one field.
func (s *Snapshot) Set(field Field, value Value) {
	if s.fields == nil {
		s.fields = map[Field]Value{}
	}
	s.fields[field] = value
}

// Get returns the raw value stored under field, if present.
func (s Snapshot) Get(field Field) (Value, bool) {
	v, ok := s.fields[field]
	return v, ok
}

// GetBool returns the field as a bool. Absent fields and fields of another
// shape are distinct failures: ErrFieldAbsent vs ErrValueType.
func (s Snapshot) GetBool(field Field) (bool, error) {
	v, ok := s.Get(field)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrFieldAbsent, field)
	}
	b, ok := v.AsBool()
	if !ok {
		return false, fmt.Errorf("%w: %s is %s, want bool", ErrValueType, field, v.Kind())
	}
	return b, nil
}

// GetInt returns the field as an int64.
func (s Snapshot) GetInt(field Field) (int64, error) {
	v, ok := s.Get(field)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrFieldAbsent, field)
	}
	n, ok := v.AsInt()
	if !ok {
		return 0, fmt.Errorf("%w: %s is %s, want int", ErrValueType, field, v.Kind())
	}
	return n, nil
}

// GetFloat returns the field as a float64, widening stored integers.
func (s Snapshot) GetFloat(field Field) (float64, error) {
	v, ok := s.Get(field)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrFieldAbsent, field)
	}
	f, ok := v.AsFloat()
	if !ok {
		return 0, fmt.Errorf("%w: %s is %s, want float", ErrValueType, field, v.Kind())
	}
	return f, nil
}

// GetString returns the field as a string.
func (s Snapshot) GetString(field Field) (string, error) {
	v, ok := s.Get(field)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrFieldAbsent, field)
	}
	str, ok := v.AsString()
	if !ok {
		return "", fmt.Errorf("%w: %s is %s, want string", ErrValueType, field, v.Kind())
	}
	return str, nil
}

// Fields returns the snapshot's field names sorted lexicographically.
func (s Snapshot) Fields() []Field {
	out := make([]Field, 0, len(s.fields))
	for f := range s.fields {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of fields.
func (s Snapshot) Len() int {
	return len(s.fields)
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := NewSnapshot(s.kind)
	for f, v := range s.fields {
		out.fields[f] = v.clone()
	}
	return out
}

// Equal reports whether two snapshots carry the same kind and the same
// field-to-value mapping.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.kind != o.kind || len(s.fields) != len(o.fields) {
		return false
	}
	for f, v := range s.fields {
		other, ok := o.fields[f]
		if !ok || !v.Equal(other) {
			return false
		}
	}
	return true
}

// MarshalJSON flattens the snapshot into one object: the kind under the
// "_type" key plus every field at the top level, the original wire shape.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.fields)+1)
	out[snapshotTypeKey] = string(s.kind)
	for f, v := range s.fields {
		out[string(f)] = v.toAny()
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a snapshot from its flattened wire shape. The kind
// tag is canonicalized but not validated against the closed Kind set, so
// stored data written by a newer binary still round-trips.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	kind := ""
	if tag, ok := raw[snapshotTypeKey].(string); ok {
		kind = tag
	}
	fields := make(map[Field]Value, len(raw))
	for k, item := range raw {
		if k == snapshotTypeKey {
			continue
		}
		v, err := valueFromAny(item)
		if err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
		fields[Field(k)] = v
	}
	s.kind = NormalizeKind(Kind(kind))
	s.fields = fields
	return nil
}
