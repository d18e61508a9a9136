package value

import (
	"math"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestString(t *testing.T) {
	tests := []struct {
		value    Value
		expected string
	}{
		{Integer(47), "47"},
		{Integer(-3), "-3"},
		{Float(47), "47"},
		{Float(3.75), "3.75"},
		{Float(-0.5), "-0.5"},
		{Float(3517484393530), "3517484393530"},
		{Float(math.Inf(1)), "inf"},
		{Float(math.Inf(-1)), "-inf"},
		{Float(math.NaN()), "NaN"},
		{TRUE, "true"},
		{FALSE, "false"},
		{Value{}, "<invalid>"},
	}

	for _, tt := range tests {
		if got := tt.value.String(); got != tt.expected {
			t.Errorf("wrong string for %s value. want=%q, got=%q", tt.value.Kind(), tt.expected, got)
		}
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b     Value
		expected bool
	}{
		{Integer(1), Integer(1), true},
		{Integer(1), Integer(2), false},
		{Integer(1), Float(1), false},
		{Float(1.5), Float(1.5), true},
		{Float(math.NaN()), Float(math.NaN()), true},
		{Bool(true), TRUE, true},
		{TRUE, FALSE, false},
		{Value{}, Value{}, true},
		{Value{}, Integer(0), false},
	}

	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.expected {
			t.Errorf("%#v.Equal(%#v) = %t, want %t", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestZeroValue(t *testing.T) {
	var v Value
	if v.IsValid() || !v.IsZero() || v.Kind() != KindInvalid {
		t.Fatalf("zero Value should be invalid")
	}
	if Integer(0).IsZero() {
		t.Errorf("Integer(0) should not be the zero Value")
	}
}

func TestYAML(t *testing.T) {
	tests := []struct {
		value    Value
		expected string
	}{
		{Integer(3), "integer: 3\n"},
		{Float(2.5), "float: 2.5\n"},
		{TRUE, "bool: true\n"},
	}

	for _, tt := range tests {
		out, err := yaml.Marshal(tt.value)
		if err != nil {
			t.Fatalf("marshal %#v: %s", tt.value, err)
		}
		if string(out) != tt.expected {
			t.Errorf("wrong yaml for %#v. want=%q, got=%q", tt.value, tt.expected, out)
		}

		var decoded Value
		if err := yaml.Unmarshal(out, &decoded); err != nil {
			t.Fatalf("unmarshal %q: %s", out, err)
		}
		if !decoded.Equal(tt.value) {
			t.Errorf("yaml round trip changed the value. want=%#v, got=%#v", tt.value, decoded)
		}
	}
}

func TestYAMLRejectsUnknownKind(t *testing.T) {
	var v Value
	if err := yaml.Unmarshal([]byte("string: x\n"), &v); err == nil {
		t.Errorf("expected an error for an unknown kind")
	}
	if err := yaml.Unmarshal([]byte("{integer: 1, float: 2}\n"), &v); err == nil {
		t.Errorf("expected an error for two kinds")
	}
}
