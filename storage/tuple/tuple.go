// Package tuple implements the row container and its binary encoding:
// a 4-byte count followed by one tagged value per column, matching the
// on-disk format pages store in their slot payloads.
package tuple

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/chocapikk/arcdb/internal/dberr"
	"github.com/chocapikk/arcdb/storage/value"
)

// Tag identifies a value's wire kind. It is its own type, mapped from
// value.Kind explicitly, so the wire format does not depend on the
// in-memory representation's iota ordering (today the numbers match).
type Tag byte

const (
	TagNull Tag = iota
	TagBool
	TagInt32
	TagInt64
	TagFloat64
	TagString
	TagDate
	TagTimestamp
	TagBytes
)

// Tuple is an ordered sequence of values.
type Tuple struct {
	Values []value.Value
}

func New(values []value.Value) Tuple { return Tuple{Values: values} }

func Empty() Tuple { return Tuple{} }

func (t Tuple) Get(i int) (value.Value, bool) {
	if i < 0 || i >= len(t.Values) {
		return value.Value{}, false
	}
	return t.Values[i], true
}

func (t *Tuple) Set(i int, v value.Value) {
	for len(t.Values) <= i {
		t.Values = append(t.Values, value.Null())
	}
	t.Values[i] = v
}

// Clone returns a tuple with an independently-owned Values slice.
func (t Tuple) Clone() Tuple {
	out := make([]value.Value, len(t.Values))
	copy(out, t.Values)
	return Tuple{Values: out}
}

func tagFor(k value.Kind) Tag {
	switch k {
	case value.KindNull:
		return TagNull
	case value.KindBool:
		return TagBool
	case value.KindInt32:
		return TagInt32
	case value.KindInt64:
		return TagInt64
	case value.KindFloat64:
		return TagFloat64
	case value.KindString:
		return TagString
	case value.KindDate:
		return TagDate
	case value.KindTimestamp:
		return TagTimestamp
	case value.KindBytes:
		return TagBytes
	default:
		return TagNull
	}
}

// Encode serializes a tuple: 4-byte LE value count, then per value a
// 1-byte tag and a tag-specific payload (fixed width for scalars,
// 4-byte length prefix + raw bytes for String/Bytes).
func Encode(t Tuple) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(len(t.Values)))
	for _, v := range t.Values {
		tag := tagFor(v.Kind())
		buf = append(buf, byte(tag))
		switch tag {
		case TagNull:
			// no payload
		case TagBool:
			b, _ := v.AsBool()
			if b {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		case TagInt32:
			i, _ := v.AsInt64()
			var tmp [4]byte
			binary.LittleEndian.PutUint32(tmp[:], uint32(int32(i)))
			buf = append(buf, tmp[:]...)
		case TagInt64:
			i, _ := v.AsInt64()
			var tmp [8]byte
			binary.LittleEndian.PutUint64(tmp[:], uint64(i))
			buf = append(buf, tmp[:]...)
		case TagFloat64:
			f, _ := v.AsFloat64()
			var tmp [8]byte
			binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(f))
			buf = append(buf, tmp[:]...)
		case TagString:
			s, _ := v.AsString()
			var tmp [4]byte
			binary.LittleEndian.PutUint32(tmp[:], uint32(len(s)))
			buf = append(buf, tmp[:]...)
			buf = append(buf, s...)
		case TagDate:
			i, _ := v.AsInt64()
			var tmp [4]byte
			binary.LittleEndian.PutUint32(tmp[:], uint32(int32(i)))
			buf = append(buf, tmp[:]...)
		case TagTimestamp:
			i, _ := v.AsInt64()
			var tmp [8]byte
			binary.LittleEndian.PutUint64(tmp[:], uint64(i))
			buf = append(buf, tmp[:]...)
		case TagBytes:
			b, _ := v.AsBytes()
			var tmp [4]byte
			binary.LittleEndian.PutUint32(tmp[:], uint32(len(b)))
			buf = append(buf, tmp[:]...)
			buf = append(buf, b...)
		}
	}
	return buf
}

// Decode deserializes a tuple, failing with a KindStorage
// "malformed-tuple" error on truncation, unknown tag, or invalid
// UTF-8 in a String payload.
func Decode(data []byte) (Tuple, error) {
	if len(data) < 4 {
		return Tuple{}, dberr.New(dberr.KindStorage, "malformed tuple: truncated count")
	}
	count := binary.LittleEndian.Uint32(data[:4])
	pos := 4
	values := make([]value.Value, 0, count)
	for i := uint32(0); i < count; i++ {
		if pos >= len(data) {
			return Tuple{}, dberr.New(dberr.KindStorage, "malformed tuple: truncated tag")
		}
		tag := Tag(data[pos])
		pos++
		switch tag {
		case TagNull:
			values = append(values, value.Null())
		case TagBool:
			if pos+1 > len(data) {
				return Tuple{}, dberr.New(dberr.KindStorage, "malformed tuple: truncated bool")
			}
			values = append(values, value.Bool(data[pos] != 0))
			pos++
		case TagInt32:
			if pos+4 > len(data) {
				return Tuple{}, dberr.New(dberr.KindStorage, "malformed tuple: truncated int32")
			}
			values = append(values, value.Int32(int32(binary.LittleEndian.Uint32(data[pos:pos+4]))))
			pos += 4
		case TagInt64:
			if pos+8 > len(data) {
				return Tuple{}, dberr.New(dberr.KindStorage, "malformed tuple: truncated int64")
			}
			values = append(values, value.Int64(int64(binary.LittleEndian.Uint64(data[pos:pos+8]))))
			pos += 8
		case TagFloat64:
			if pos+8 > len(data) {
				return Tuple{}, dberr.New(dberr.KindStorage, "malformed tuple: truncated float64")
			}
			bits := binary.LittleEndian.Uint64(data[pos : pos+8])
			values = append(values, value.Float64(math.Float64frombits(bits)))
			pos += 8
		case TagString:
			s, next, err := decodeBytes(data, pos)
			if err != nil {
				return Tuple{}, err
			}
			if !utf8.Valid(s) {
				return Tuple{}, dberr.New(dberr.KindStorage, "malformed tuple: invalid utf-8 string")
			}
			values = append(values, value.String(string(s)))
			pos = next
		case TagDate:
			if pos+4 > len(data) {
				return Tuple{}, dberr.New(dberr.KindStorage, "malformed tuple: truncated date")
			}
			values = append(values, value.Date(int32(binary.LittleEndian.Uint32(data[pos:pos+4]))))
			pos += 4
		case TagTimestamp:
			if pos+8 > len(data) {
				return Tuple{}, dberr.New(dberr.KindStorage, "malformed tuple: truncated timestamp")
			}
			values = append(values, value.Timestamp(int64(binary.LittleEndian.Uint64(data[pos:pos+8]))))
			pos += 8
		case TagBytes:
			b, next, err := decodeBytes(data, pos)
			if err != nil {
				return Tuple{}, err
			}
			values = append(values, value.Bytes(b))
			pos = next
		default:
			return Tuple{}, dberr.Newf(dberr.KindStorage, "malformed tuple: unknown tag %d", tag)
		}
	}
	return Tuple{Values: values}, nil
}

func decodeBytes(data []byte, pos int) ([]byte, int, error) {
	if pos+4 > len(data) {
		return nil, 0, dberr.New(dberr.KindStorage, "malformed tuple: truncated length prefix")
	}
	n := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if n < 0 || pos+n > len(data) {
		return nil, 0, dberr.New(dberr.KindStorage, "malformed tuple: truncated payload")
	}
	return data[pos : pos+n], pos + n, nil
}

