package value

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Kind is the runtime tag of a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInteger
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "INTEGER"
	case KindFloat:
		return "FLOAT"
	case KindBool:
		return "BOOLEAN"
	default:
		return "INVALID"
	}
}

// Value is an immutable tagged union over int64, float64 and bool.
// The zero Value has KindInvalid and stands for "no value".
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
}

var (
	TRUE  = Value{kind: KindBool, b: true}
	FALSE = Value{kind: KindBool, b: false}
)

func Integer(v int64) Value {
	return Value{kind: KindInteger, i: v}
}

func Float(v float64) Value {
	return Value{kind: KindFloat, f: v}
}

func Bool(v bool) Value {
	if v {
		return TRUE
	}
	return FALSE
}

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// IsZero reports whether v is the zero Value. Integer(0) is not zero.
func (v Value) IsZero() bool { return v.kind == KindInvalid }

// Int returns the integer payload. It is 0 unless Kind is KindInteger.
func (v Value) Int() int64 { return v.i }

// Float returns the float payload. It is 0 unless Kind is KindFloat.
func (v Value) Float() float64 { return v.f }

// Bool returns the boolean payload. It is false unless Kind is KindBool.
func (v Value) Bool() bool { return v.b }

// Equal reports whether both values carry the same tag and payload.
// No numeric widening happens here: Integer(1) is not Equal to Float(1).
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindInteger:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f || (math.IsNaN(v.f) && math.IsNaN(other.f))
	case KindBool:
		return v.b == other.b
	default:
		return true
	}
}

// String renders integers and floats in plain decimal form and booleans
// as true/false.
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return "<invalid>"
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// GoString is used by %#v in test failure messages.
func (v Value) GoString() string {
	return fmt.Sprintf("value.%s(%s)", v.kind, v)
}

// MarshalYAML encodes the value as a single-key mapping tagged by kind,
// e.g. {integer: 3}. The invalid value encodes as null.
func (v Value) MarshalYAML() (interface{}, error) {
	switch v.kind {
	case KindInteger:
		return map[string]int64{"integer": v.i}, nil
	case KindFloat:
		return map[string]float64{"float": v.f}, nil
	case KindBool:
		return map[string]bool{"bool": v.b}, nil
	default:
		return nil, nil
	}
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]yaml.Node
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("value: expected exactly one kind key, got %d", len(raw))
	}
	for key, payload := range raw {
		switch key {
		case "integer":
			var i int64
			if err := payload.Decode(&i); err != nil {
				return fmt.Errorf("value: integer: %w", err)
			}
			*v = Integer(i)
		case "float":
			var f float64
			if err := payload.Decode(&f); err != nil {
				return fmt.Errorf("value: float: %w", err)
			}
			*v = Float(f)
		case "bool":
			var b bool
			if err := payload.Decode(&b); err != nil {
				return fmt.Errorf("value: bool: %w", err)
			}
			*v = Bool(b)
		default:
			return fmt.Errorf("value: unknown kind %q", key)
		}
	}
	return nil
}
