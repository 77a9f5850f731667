package frame

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func buildFrame(t uint64, typeID uint32, value float32) []byte {
	buf := make([]byte, Size)
	binary.LittleEndian.PutUint64(buf[0:8], t)
	binary.LittleEndian.PutUint32(buf[8:12], typeID)
	binary.NativeEndian.PutUint32(buf[12:16], math.Float32bits(value))
	return buf
}

func TestDecodeFields(t *testing.T) {
	buf := buildFrame(1700000000, 42, 21.5)
	f, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Time != 1700000000 {
		t.Fatalf("expected time 1700000000, got %d", f.Time)
	}
	if f.TypeID != 42 {
		t.Fatalf("expected type 42, got %d", f.TypeID)
	}
	if f.Value != 21.5 {
		t.Fatalf("expected value 21.5, got %f", f.Value)
	}
}

func TestDecodeDeterministic(t *testing.T) {
	buf := buildFrame(123456789, 7, -0.25)
	a, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode again: %v", err)
	}
	if a != b {
		t.Fatalf("decode not deterministic: %+v vs %+v", a, b)
	}
}

func TestDecodeTooShort(t *testing.T) {
	_, err := Decode(make([]byte, Size-1))
	if !errors.Is(err, ErrFrameTooShort) {
		t.Fatalf("expected ErrFrameTooShort, got %v", err)
	}
	_, err = Decode(nil)
	if !errors.Is(err, ErrFrameTooShort) {
		t.Fatalf("expected ErrFrameTooShort for nil, got %v", err)
	}
}

func TestDecodeTotalOverAllBytes(t *testing.T) {
	// Every 16-byte input decodes without error, including NaN bit patterns.
	buf := make([]byte, Size)
	for i := range buf {
		buf[i] = 0xFF
	}
	f, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !math.IsNaN(float64(f.Value)) {
		t.Fatalf("expected NaN value, got %f", f.Value)
	}
}
