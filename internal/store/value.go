// internal/store/value.go

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidLiteral is returned when a literal cannot be coerced to the
// requested type tag.
var ErrInvalidLiteral = errors.New("invalid literal")

// Type tags as they appear in query casts and in JSON payloads.
const (
	TagInt     = "int"
	TagFloat   = "float"
	TagComplex = "complex"
	TagStr     = "str"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindInt Kind = iota + 1
	KindFloat
	KindComplex
	KindText
)

// Value is a typed datum usable as both key and value of an entry. Only the
// field selected by Kind is meaningful. The struct is comparable, so two
// values are the identical key exactly when kind and payload match.
type Value struct {
	Kind Kind
	I64  int64
	F64  float64
	C128 complex128
	Str  string
}

func IntValue(i int64) Value { return Value{Kind: KindInt, I64: i} }

func FloatValue(f float64) Value { return Value{Kind: KindFloat, F64: f} }

func ComplexValue(c complex128) Value { return Value{Kind: KindComplex, C128: c} }

func TextValue(s string) Value { return Value{Kind: KindText, Str: s} }

// Coerce builds a Value from a literal and an optional type tag. An empty
// tag keeps the literal as text, the same as an uncast literal in a query.
func Coerce(literal, typeTag string) (Value, error) {
	switch typeTag {
	case "", TagStr:
		return TextValue(literal), nil
	case TagInt:
		i, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not an int", ErrInvalidLiteral, literal)
		}
		return IntValue(i), nil
	case TagFloat:
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a float", ErrInvalidLiteral, literal)
		}
		return FloatValue(f), nil
	case TagComplex:
		c, err := strconv.ParseComplex(normalizeComplex(literal), 128)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a complex number", ErrInvalidLiteral, literal)
		}
		return ComplexValue(c), nil
	}
	return Value{}, fmt.Errorf("%w: unknown type tag %q", ErrInvalidLiteral, typeTag)
}

// normalizeComplex rewrites the trailing j imaginary suffix into the i form
// strconv understands, with or without surrounding parentheses.
func normalizeComplex(s string) string {
	for _, suffix := range []string{"j", "J"} {
		if strings.HasSuffix(s, suffix) {
			return s[:len(s)-1] + "i"
		}
		if strings.HasSuffix(s, suffix+")") {
			return s[:len(s)-2] + "i)"
		}
	}
	return s
}

// numeric returns the value as a float64 when it is an int or a float.
func (v Value) numeric() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.I64), true
	case KindFloat:
		return v.F64, true
	}
	return 0, false
}

// asComplex returns the value as a complex128 when it is any numeric kind.
func (v Value) asComplex() (complex128, bool) {
	switch v.Kind {
	case KindInt:
		return complex(float64(v.I64), 0), true
	case KindFloat:
		return complex(v.F64, 0), true
	case KindComplex:
		return v.C128, true
	}
	return 0, false
}

// Compare orders v against other. The second return reports whether the pair
// is ordered at all: ints and floats order numerically against each other,
// text orders against text byte-wise, and every other pairing (complex
// included) has no ordering. Two ints compare on int64 and never lose
// precision; float64 bridges only mixed int and float pairs.
func (v Value) Compare(other Value) (int, bool) {
	if v.Kind == KindInt && other.Kind == KindInt {
		switch {
		case v.I64 < other.I64:
			return -1, true
		case v.I64 > other.I64:
			return 1, true
		}
		return 0, true
	}
	if a, ok := v.numeric(); ok {
		b, ok := other.numeric()
		if !ok {
			return 0, false
		}
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		}
		return 0, true
	}
	if v.Kind == KindText && other.Kind == KindText {
		return strings.Compare(v.Str, other.Str), true
	}
	return 0, false
}

// Equal reports loose equality: numeric kinds compare by magnitude, so an
// int equals a float or a complex with zero imaginary part. Two ints compare
// on int64 exactly. Text only ever equals text. Mismatched pairings are
// unequal, never an error.
func (v Value) Equal(other Value) bool {
	if v.Kind == KindText && other.Kind == KindText {
		return v.Str == other.Str
	}
	if v.Kind == KindInt && other.Kind == KindInt {
		return v.I64 == other.I64
	}
	a, aok := v.asComplex()
	b, bok := other.asComplex()
	return aok && bok && a == b
}

// Contains reports whether v contains operand. Only text supports
// containment, as a substring test; every other pairing is a non-match.
func (v Value) Contains(operand Value) bool {
	return v.Kind == KindText && operand.Kind == KindText && strings.Contains(v.Str, operand.Str)
}

// TypeTag returns the query grammar tag for the value's kind.
func (v Value) TypeTag() string {
	switch v.Kind {
	case KindInt:
		return TagInt
	case KindFloat:
		return TagFloat
	case KindComplex:
		return TagComplex
	case KindText:
		return TagStr
	}
	return ""
}

// String renders the payload alone, without its kind.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.I64, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case KindComplex:
		return strconv.FormatComplex(v.C128, 'g', -1, 128)
	case KindText:
		return v.Str
	}
	return ""
}

// valueEnvelope is the JSON shape of a Value in response payloads.
type valueEnvelope struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// MarshalJSON encodes the value as {"type":tag,"value":payload}. Complex
// payloads travel as strings since JSON has no complex numbers.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindInt:
		return json.Marshal(valueEnvelope{Type: TagInt, Value: v.I64})
	case KindFloat:
		return json.Marshal(valueEnvelope{Type: TagFloat, Value: v.F64})
	case KindComplex:
		return json.Marshal(valueEnvelope{Type: TagComplex, Value: strconv.FormatComplex(v.C128, 'g', -1, 128)})
	case KindText:
		return json.Marshal(valueEnvelope{Type: TagStr, Value: v.Str})
	}
	return nil, fmt.Errorf("cannot encode value of unknown kind %d", v.Kind)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case TagInt:
		i, err := strconv.ParseInt(string(raw.Value), 10, 64)
		if err != nil {
			return fmt.Errorf("decode int value: %w", err)
		}
		*v = IntValue(i)
	case TagFloat:
		f, err := strconv.ParseFloat(string(raw.Value), 64)
		if err != nil {
			return fmt.Errorf("decode float value: %w", err)
		}
		*v = FloatValue(f)
	case TagComplex:
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return fmt.Errorf("decode complex value: %w", err)
		}
		c, err := strconv.ParseComplex(normalizeComplex(s), 128)
		if err != nil {
			return fmt.Errorf("decode complex value: %w", err)
		}
		*v = ComplexValue(c)
	case TagStr:
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return fmt.Errorf("decode str value: %w", err)
		}
		*v = TextValue(s)
	default:
		return fmt.Errorf("unknown value type %q", raw.Type)
	}
	return nil
}
