package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind discriminates the shapes a snapshot field value can take.
type ValueKind uint8

// ValueKind values. The zero value is NullKind.
const (
	NullKind ValueKind = iota
	BoolKind
	IntKind
	FloatKind
	StringKind
	ListKind
	MapKind
)

// String returns the lowercase name of the kind for error messages.
func (k ValueKind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "bool"
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case StringKind:
		return "string"
	case ListKind:
		return "list"
	case MapKind:
		return "map"
	default:
		return "unknown"
	}
}

// Value is one snapshot field value: a closed sum over the JSON data model
// (null, bool, integer, float, string, list, map). The zero Value is null.
// Values compare structurally and render deterministically, which keeps
// diffs and their display output reproducible.
type Value struct {
	kind ValueKind
	b    bool
	n    int64
	f    float64
	s    string
	list []Value
	m    map[string]Value
}

// NullValue returns the null value.
func NullValue() Value {
	return Value{}
}

// BoolValue returns a boolean value.
func BoolValue(b bool) Value {
	return Value{kind: BoolKind, b: b}
}

// IntValue returns an integer value.
func IntValue(n int64) Value {
	return Value{kind: IntKind, n: n}
}

// FloatValue returns a floating-point value.
func FloatValue(f float64) Value {
	return Value{kind: FloatKind, f: f}
}

// StringValue returns a string value.
func StringValue(s string) Value {
	return Value{kind: StringKind, s: s}
}

// ListValue returns a list value holding the given items in order.
func ListValue(items ...Value) Value {
	list := make([]Value, len(items))
	copy(list, items)
	return Value{kind: ListKind, list: list}
}

// MapValue returns a map value holding a copy of the given entries.
func MapValue(entries map[string]Value) Value {
	m := make(map[string]Value, len(entries))
	for k, v := range entries {
		m[k] = v
	}
	return Value{kind: MapKind, m: m}
}

// Kind returns the value's discriminator.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.kind == NullKind
}

// AsBool returns the boolean payload when the value is a bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != BoolKind {
		return false, false
	}
	return v.b, true
}

// AsInt returns the integer payload when the value is an integer.
func (v Value) AsInt() (int64, bool) {
	if v.kind != IntKind {
		return 0, false
	}
	return v.n, true
}

// AsFloat returns the numeric payload as a float. Integers widen, matching
// the laxity of the JSON number model.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case FloatKind:
		return v.f, true
	case IntKind:
		return float64(v.n), true
	default:
		return 0, false
	}
}

// AsString returns the string payload when the value is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != StringKind {
		return "", false
	}
	return v.s, true
}

// AsList returns a copy of the list payload when the value is a list.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != ListKind {
		return nil, false
	}
	out := make([]Value, len(v.list))
	for i, item := range v.list {
		out[i] = item.clone()
	}
	return out, true
}

// AsMap returns a copy of the map payload when the value is a map.
func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != MapKind {
		return nil, false
	}
	out := make(map[string]Value, len(v.m))
	for k, item := range v.m {
		out[k] = item.clone()
	}
	return out, true
}

// Equal reports structural equality. Kinds must match exactly: an integer
// never equals a float of the same magnitude. Lists compare in order, maps
// by key set.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case NullKind:
		return true
	case BoolKind:
		return v.b == o.b
	case IntKind:
		return v.n == o.n
	case FloatKind:
		return v.f == o.f
	case StringKind:
		return v.s == o.s
	case ListKind:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case MapKind:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, item := range v.m {
			other, ok := o.m[k]
			if !ok || !item.Equal(other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders the value as compact JSON (strings quoted, null as "null").
// Map keys serialize sorted, so the rendering is deterministic.
func (v Value) String() string {
	b, err := json.Marshal(v)
	if err != nil {
		return "invalid"
	}
	return string(b)
}

// clone returns a deep copy of the value.
func (v Value) clone() Value {
	switch v.kind {
	case ListKind:
		return ListValue(v.list...)
	case MapKind:
		return MapValue(v.m)
	default:
		return v
	}
}

// MarshalJSON encodes the value using the standard JSON data model.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toAny())
}

// UnmarshalJSON decodes any JSON value. Numbers without a fractional part
// that fit in int64 decode as integers; everything else numeric decodes as
// a float.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := valueFromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// toAny converts the value into the encoding/json-native representation.
func (v Value) toAny() any {
	switch v.kind {
	case BoolKind:
		return v.b
	case IntKind:
		return v.n
	case FloatKind:
		return v.f
	case StringKind:
		return v.s
	case ListKind:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.toAny()
		}
		return out
	case MapKind:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.toAny()
		}
		return out
	default:
		return nil
	}
}

// valueFromAny converts a decoded JSON value into a Value.
func valueFromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(t), nil
	case json.Number:
		if n, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			return IntValue(n), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("parse number %q: %w", t.String(), err)
		}
		return FloatValue(f), nil
	case string:
		return StringValue(t), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			parsed, err := valueFromAny(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = parsed
		}
		return Value{kind: ListKind, list: items}, nil
	case map[string]any:
		entries := make(map[string]Value, len(t))
		for k, item := range t {
			parsed, err := valueFromAny(item)
			if err != nil {
				return Value{}, err
			}
			entries[k] = parsed
		}
		return Value{kind: MapKind, m: entries}, nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}
