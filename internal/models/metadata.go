package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindString
	KindInt
	KindFloat
	KindBool
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a scalar metadata value. The zero Value is null.
type Value struct {
	kind ValueKind
	s    string
	i    int64
	f    float64
	b    bool
}

func NullValue() Value           { return Value{} }
func StringValue(s string) Value { return Value{kind: KindString, s: s} }
func IntValue(i int64) Value     { return Value{kind: KindInt, i: i} }
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }
func BoolValue(b bool) Value     { return Value{kind: KindBool, b: b} }

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.kind == KindNull }

func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }
func (v Value) Int() (int64, bool)  { return v.i, v.kind == KindInt }
func (v Value) Bool() (bool, bool)  { return v.b, v.kind == KindBool }

// Float returns the numeric value for both int and float kinds.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// Interface returns the value as a plain Go scalar (nil for null).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	}
	return "null"
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindFloat && (math.IsNaN(v.f) || math.IsInf(v.f, 0)) {
		return []byte("null"), nil
	}
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, ok := ScalarValue(raw)
	if !ok {
		return fmt.Errorf("metadata value must be a scalar, got %s", bytes.TrimSpace(data))
	}
	*v = parsed
	return nil
}

// ScalarValue converts a Go value into a Value. It reports false for anything
// that is not a string, number, bool or nil.
func ScalarValue(raw any) (Value, bool) {
	switch x := raw.(type) {
	case nil:
		return NullValue(), true
	case Value:
		return x, true
	case string:
		return StringValue(x), true
	case bool:
		return BoolValue(x), true
	case int:
		return IntValue(int64(x)), true
	case int8:
		return IntValue(int64(x)), true
	case int16:
		return IntValue(int64(x)), true
	case int32:
		return IntValue(int64(x)), true
	case int64:
		return IntValue(x), true
	case uint:
		return IntValue(int64(x)), true
	case uint8:
		return IntValue(int64(x)), true
	case uint16:
		return IntValue(int64(x)), true
	case uint32:
		return IntValue(int64(x)), true
	case uint64:
		if x > math.MaxInt64 {
			return FloatValue(float64(x)), true
		}
		return IntValue(int64(x)), true
	case float32:
		return FloatValue(float64(x)), true
	case float64:
		return FloatValue(x), true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return IntValue(i), true
		}
		if f, err := x.Float64(); err == nil {
			return FloatValue(f), true
		}
		return Value{}, false
	}
	return Value{}, false
}

// Metadata maps keys to scalar values. Nested structures cannot be represented.
type Metadata map[string]Value

// SanitizeMetadata keeps only scalar entries of raw.
func SanitizeMetadata(raw map[string]any) Metadata {
	out := make(Metadata, len(raw))
	for k, v := range raw {
		if value, ok := ScalarValue(v); ok {
			out[k] = value
		}
	}
	return out
}

func (m Metadata) Get(key string) (Value, bool) {
	v, ok := m[key]
	return v, ok
}

// String returns the value under key when it is a string.
func (m Metadata) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	return v.Str()
}

func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge returns a copy of m overlaid with extra.
func (m Metadata) Merge(extra Metadata) Metadata {
	out := m.Clone()
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Map returns the metadata as plain Go scalars, for JSON-facing callers.
func (m Metadata) Map() map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v.Interface()
	}
	return out
}
