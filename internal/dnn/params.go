package dnn

import (
	"github.com/lantern-ml/lantern/internal/tensor"
)

type valueKind int

const (
	kindInt valueKind = iota
	kindFloat
	kindBool
	kindString
	kindReals
)

// Value is a scalar-or-array parameter value: int, float, bool, string
// or a real array. Numeric getters convert between int and float so a
// parameter written as a Lua number reads back as an int where an int
// is expected.
type Value struct {
	kind  valueKind
	i     int64
	f     float64
	b     bool
	s     string
	reals []float64
}

// IntValue wraps an integer.
func IntValue(v int64) Value { return Value{kind: kindInt, i: v} }

// FloatValue wraps a float.
func FloatValue(v float64) Value { return Value{kind: kindFloat, f: v} }

// BoolValue wraps a bool.
func BoolValue(v bool) Value { return Value{kind: kindBool, b: v} }

// StringValue wraps a string.
func StringValue(v string) Value { return Value{kind: kindString, s: v} }

// RealsValue wraps a real array.
func RealsValue(v []float64) Value { return Value{kind: kindReals, reals: v} }

// Int returns the value as an int.
func (v Value) Int() int {
	if v.kind == kindFloat {
		return int(v.f)
	}
	return int(v.i)
}

// Float64 returns the value as a float64.
func (v Value) Float64() float64 {
	if v.kind == kindInt {
		return float64(v.i)
	}
	return v.f
}

// Bool returns the value as a bool.
func (v Value) Bool() bool {
	switch v.kind {
	case kindInt:
		return v.i != 0
	case kindFloat:
		return v.f != 0
	default:
		return v.b
	}
}

// Str returns the value as a string; empty for non-string values.
func (v Value) Str() string { return v.s }

// Reals returns the real array; nil for scalar values.
func (v Value) Reals() []float64 { return v.reals }

// Params carries a layer's configuration: a scalar dictionary plus the
// constant blobs (weights, biases) the layer owns.
type Params struct {
	Name  string
	Type  string
	Blobs []*tensor.Tensor

	dict map[string]Value
}

// Set stores a parameter value.
func (p *Params) Set(key string, v Value) {
	if p.dict == nil {
		p.dict = make(map[string]Value)
	}
	p.dict[key] = v
}

// Has reports whether the key is present.
func (p *Params) Has(key string) bool {
	_, ok := p.dict[key]
	return ok
}

// Get returns the raw value for key.
func (p *Params) Get(key string) (Value, bool) {
	v, ok := p.dict[key]
	return v, ok
}

// GetInt returns the int value for key, or def when absent.
func (p *Params) GetInt(key string, def int) int {
	if v, ok := p.dict[key]; ok {
		return v.Int()
	}
	return def
}

// GetFloat returns the float value for key, or def when absent.
func (p *Params) GetFloat(key string, def float64) float64 {
	if v, ok := p.dict[key]; ok {
		return v.Float64()
	}
	return def
}

// GetBool returns the bool value for key, or def when absent.
func (p *Params) GetBool(key string, def bool) bool {
	if v, ok := p.dict[key]; ok {
		return v.Bool()
	}
	return def
}

// GetString returns the string value for key, or def when absent.
func (p *Params) GetString(key, def string) string {
	if v, ok := p.dict[key]; ok {
		return v.Str()
	}
	return def
}
