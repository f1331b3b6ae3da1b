package tuple

import (
	"testing"

	"github.com/chocapikk/arcdb/storage/value"
)

func TestRoundTrip(t *testing.T) {
	tup := New([]value.Value{
		value.Int32(1),
		value.String("hello"),
		value.Bool(true),
		value.Null(),
		value.Float64(3.5),
	})

	encoded := Encode(tup)
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(decoded.Values) != len(tup.Values) {
		t.Fatalf("length mismatch: got %d want %d", len(decoded.Values), len(tup.Values))
	}
	for i, v := range tup.Values {
		if !decoded.Values[i].Equal(v) {
			t.Fatalf("value %d mismatch: got %v want %v", i, decoded.Values[i], v)
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	if _, err := Decode([]byte{1, 2}); err == nil {
		t.Fatalf("expected error decoding truncated tuple")
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	tup := New([]value.Value{value.Int32(1)})
	encoded := Encode(tup)
	encoded[4] = 0xFF
	if _, err := Decode(encoded); err == nil {
		t.Fatalf("expected error for unknown tag")
	}
}

func TestEmptyTuple(t *testing.T) {
	encoded := Encode(Empty())
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(decoded.Values) != 0 {
		t.Fatalf("expected empty tuple")
	}
}
