// Package value implements the engine's runtime Value type: a tagged
// variant over the scalar kinds a Tuple can hold, with total ordering,
// pairwise arithmetic, and hashing suitable for hash-join build sides.
package value

import (
	"fmt"
	"math"
)

// Kind discriminates the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt32
	KindInt64
	KindFloat64
	KindString
	KindDate      // int32 days since epoch
	KindTimestamp // int64 milliseconds since epoch
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindTimestamp:
		return "timestamp"
	case KindBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Value is a tagged scalar. Only the field matching Kind is meaningful;
// all accessors check Kind first. A Go tagged-union isn't available, so
// this follows the same discriminated-struct shape the teacher uses for
// decoded row values in pgdump's heap tuple reader.
type Value struct {
	kind Kind
	b    bool
	i32  int32
	i64  int64
	f64  float64
	s    string
	bs   []byte
}

func Null() Value                  { return Value{kind: KindNull} }
func Bool(b bool) Value            { return Value{kind: KindBool, b: b} }
func Int32(i int32) Value          { return Value{kind: KindInt32, i32: i} }
func Int64(i int64) Value          { return Value{kind: KindInt64, i64: i} }
func Float64(f float64) Value      { return Value{kind: KindFloat64, f64: f} }
func String(s string) Value        { return Value{kind: KindString, s: s} }
func Date(days int32) Value        { return Value{kind: KindDate, i32: days} }
func Timestamp(ms int64) Value     { return Value{kind: KindTimestamp, i64: ms} }
func Bytes(b []byte) Value         { return Value{kind: KindBytes, bs: append([]byte(nil), b...)} }

func (v Value) Kind() Kind  { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindInt32:
		return v.i32 != 0, true
	case KindInt64:
		return v.i64 != 0, true
	case KindFloat64:
		return v.f64 != 0, true
	default:
		return false, false
	}
}

func (v Value) AsInt64() (int64, bool) {
	switch v.kind {
	case KindInt32:
		return int64(v.i32), true
	case KindInt64:
		return v.i64, true
	case KindFloat64:
		return int64(v.f64), true
	case KindDate:
		return int64(v.i32), true
	case KindTimestamp:
		return v.i64, true
	default:
		return 0, false
	}
}

func (v Value) AsFloat64() (float64, bool) {
	switch v.kind {
	case KindInt32:
		return float64(v.i32), true
	case KindInt64:
		return float64(v.i64), true
	case KindFloat64:
		return v.f64, true
	default:
		return 0, false
	}
}

func (v Value) AsString() (string, bool) {
	if v.kind == KindString {
		return v.s, true
	}
	return "", false
}

func (v Value) AsBytes() ([]byte, bool) {
	if v.kind == KindBytes {
		return v.bs, true
	}
	return nil, false
}

// TypeName renders a human label for error messages.
func (v Value) TypeName() string { return v.kind.String() }

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt32:
		return fmt.Sprintf("%d", v.i32)
	case KindInt64:
		return fmt.Sprintf("%d", v.i64)
	case KindFloat64:
		return fmt.Sprintf("%g", v.f64)
	case KindString:
		return v.s
	case KindDate:
		return fmt.Sprintf("%d", v.i32)
	case KindTimestamp:
		return fmt.Sprintf("%d", v.i64)
	case KindBytes:
		return fmt.Sprintf("%x", v.bs)
	default:
		return "?"
	}
}

func isNumeric(k Kind) bool {
	return k == KindInt32 || k == KindInt64 || k == KindFloat64 || k == KindDate || k == KindTimestamp
}

// Compare returns -1, 0, 1 per standard ordering semantics. Null sorts
// below every non-Null value and equals Null. Numeric kinds widen
// through float64. String/Bytes compare lexicographically by byte.
// Incompatible kinds compare as Equal (ordering contexts only — see
// Equal for true equality semantics).
func (v Value) Compare(other Value) int {
	if v.kind == KindNull && other.kind == KindNull {
		return 0
	}
	if v.kind == KindNull {
		return -1
	}
	if other.kind == KindNull {
		return 1
	}
	if isNumeric(v.kind) && isNumeric(other.kind) {
		a, _ := v.AsFloat64Widened()
		b, _ := other.AsFloat64Widened()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	if v.kind == KindString && other.kind == KindString {
		return compareBytes([]byte(v.s), []byte(other.s))
	}
	if v.kind == KindBytes && other.kind == KindBytes {
		return compareBytes(v.bs, other.bs)
	}
	if v.kind == KindBool && other.kind == KindBool {
		if v.b == other.b {
			return 0
		}
		if !v.b {
			return -1
		}
		return 1
	}
	// Incompatible kinds: treated as Equal for ordering purposes only.
	return 0
}

// AsFloat64Widened widens any numeric-ish kind (including Date and
// Timestamp, which carry integer epoch offsets) to float64 for ordering
// and arithmetic.
func (v Value) AsFloat64Widened() (float64, bool) {
	switch v.kind {
	case KindInt32:
		return float64(v.i32), true
	case KindInt64:
		return float64(v.i64), true
	case KindFloat64:
		return v.f64, true
	case KindDate:
		return float64(v.i32), true
	case KindTimestamp:
		return float64(v.i64), true
	default:
		return 0, false
	}
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Equal implements true equality, which differs from Compare==0 for
// Float64 (NaN==NaN here, via raw bits, and -0.0 != +0.0) and for
// incompatible kinds (never equal).
func (v Value) Equal(other Value) bool {
	if v.kind == KindNull && other.kind == KindNull {
		return true
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt32:
		return v.i32 == other.i32
	case KindInt64:
		return v.i64 == other.i64
	case KindFloat64:
		return math.Float64bits(v.f64) == math.Float64bits(other.f64)
	case KindString:
		return v.s == other.s
	case KindDate:
		return v.i32 == other.i32
	case KindTimestamp:
		return v.i64 == other.i64
	case KindBytes:
		return compareBytes(v.bs, other.bs) == 0
	default:
		return false
	}
}

// HashKey returns a value usable as a Go map key with the same equality
// semantics as Equal (raw-bit float hashing, so NaN hashes consistently
// with itself).
func (v Value) HashKey() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt32:
		return v.i32
	case KindInt64:
		return v.i64
	case KindFloat64:
		return math.Float64bits(v.f64)
	case KindString:
		return v.s
	case KindDate:
		return [2]any{"date", v.i32}
	case KindTimestamp:
		return [2]any{"ts", v.i64}
	case KindBytes:
		return [2]any{"bytes", string(v.bs)}
	default:
		return nil
	}
}

func widenPair(a, b Value) (float64, float64, bool) {
	af, aok := a.AsFloat64Widened()
	bf, bok := b.AsFloat64Widened()
	return af, bf, aok && bok
}

// bothIntegral reports whether both operands are Int32/Int64 (so
// integer arithmetic, rather than float widening, should be used).
func bothIntegral(a, b Value) (int64, int64, bool) {
	ai, aok := a.kind == KindInt32 || a.kind == KindInt64, true
	bi, bok := b.kind == KindInt32 || b.kind == KindInt64, true
	if !ai || !bi {
		return 0, 0, false
	}
	av, _ := a.AsInt64()
	bv, _ := b.AsInt64()
	_ = aok
	_ = bok
	return av, bv, true
}

// Add implements pairwise '+'. String+String concatenates. Numeric
// pairs widen through Float64 unless both are integral, in which case
// the result stays integral (Int64 if either side is Int64).
func (v Value) Add(other Value) (Value, bool) {
	if v.kind == KindString && other.kind == KindString {
		return String(v.s + other.s), true
	}
	if ai, bi, ok := bothIntegral(v, other); ok {
		return intResult(v, other, ai+bi), true
	}
	if a, b, ok := widenPair(v, other); ok {
		return Float64(a + b), true
	}
	return Value{}, false
}

func (v Value) Sub(other Value) (Value, bool) {
	if ai, bi, ok := bothIntegral(v, other); ok {
		return intResult(v, other, ai-bi), true
	}
	if a, b, ok := widenPair(v, other); ok {
		return Float64(a - b), true
	}
	return Value{}, false
}

func (v Value) Mul(other Value) (Value, bool) {
	if ai, bi, ok := bothIntegral(v, other); ok {
		return intResult(v, other, ai*bi), true
	}
	if a, b, ok := widenPair(v, other); ok {
		return Float64(a * b), true
	}
	return Value{}, false
}

// Div always widens through Float64 (matching the fractional result a
// relational engine's numeric division is expected to produce);
// division-by-zero is reported by the caller as a distinct error kind
// before Div is invoked.
func (v Value) Div(other Value) (Value, bool) {
	a, b, ok := widenPair(v, other)
	if !ok {
		return Value{}, false
	}
	return Float64(a / b), true
}

func intResult(a, b Value, r int64) Value {
	if a.kind == KindInt64 || b.kind == KindInt64 {
		return Int64(r)
	}
	return Int32(int32(r))
}

// Neg implements unary minus for the numeric kinds that support it.
func (v Value) Neg() (Value, bool) {
	switch v.kind {
	case KindInt32:
		return Int32(-v.i32), true
	case KindInt64:
		return Int64(-v.i64), true
	case KindFloat64:
		return Float64(-v.f64), true
	default:
		return Value{}, false
	}
}
