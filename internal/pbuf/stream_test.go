package pbuf

import (
	"errors"
	"testing"
)

// TestVarintZero checks that a single zero byte decodes to zero.
func TestVarintZero(t *testing.T) {
	s := NewStream([]byte{0x00})
	v, err := s.ReadVarint()
	if err != nil {
		t.Fatalf("ReadVarint failed: %v", err)
	}
	if v != 0 {
		t.Errorf("Expected 0, got %d", v)
	}
	if !s.EOF() {
		t.Error("Expected EOF after the single byte")
	}
}

// TestVarintMaxInt64 checks the 10-byte encoding of 2^63-1.
func TestVarintMaxInt64(t *testing.T) {
	data := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}
	s := NewStream(data)
	v, err := s.ReadVarint()
	if err != nil {
		t.Fatalf("ReadVarint failed: %v", err)
	}
	if v != (1<<63)-1 {
		t.Errorf("Expected 2^63-1, got %d", v)
	}
}

// TestVarintMultiByte checks the canonical 150 == 0x96 0x01 example.
func TestVarintMultiByte(t *testing.T) {
	s := NewStream([]byte{0x96, 0x01})
	v, err := s.ReadVarint()
	if err != nil {
		t.Fatalf("ReadVarint failed: %v", err)
	}
	if v != 150 {
		t.Errorf("Expected 150, got %d", v)
	}
}

// TestVarintTruncated checks the EOF error on a dangling continuation bit.
func TestVarintTruncated(t *testing.T) {
	s := NewStream([]byte{0x96})
	if _, err := s.ReadVarint(); err == nil {
		t.Fatal("Expected error for truncated varint")
	} else {
		var perr *Error
		if !errors.As(err, &perr) || perr.Kind != ErrParse {
			t.Errorf("Expected a ParseError, got %v", err)
		}
	}
}

// TestVarintTooLong checks that 11 continuation bytes are rejected.
func TestVarintTooLong(t *testing.T) {
	data := make([]byte, 11)
	for i := range data {
		data[i] = 0x80
	}
	s := NewStream(data)
	if _, err := s.ReadVarint(); err == nil {
		t.Fatal("Expected error for overlong varint")
	}
}

func TestFixedReads(t *testing.T) {
	s := NewStream([]byte{0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
	v32, err := s.ReadFixed32()
	if err != nil || v32 != 1 {
		t.Fatalf("ReadFixed32 = %d, %v; want 1", v32, err)
	}
	v64, err := s.ReadFixed64()
	if err != nil || v64 != 2 {
		t.Fatalf("ReadFixed64 = %d, %v; want 2", v64, err)
	}
	if _, err := s.ReadFixed32(); err == nil {
		t.Fatal("Expected EOF error past the end")
	}
}

func TestSeekTell(t *testing.T) {
	s := NewStream([]byte{1, 2, 3, 4})
	if err := s.Seek(2); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if s.Tell() != 2 {
		t.Errorf("Tell = %d, want 2", s.Tell())
	}
	b, err := s.ReadRaw(2)
	if err != nil {
		t.Fatalf("ReadRaw failed: %v", err)
	}
	if b[0] != 3 || b[1] != 4 {
		t.Errorf("ReadRaw = %v, want [3 4]", b)
	}
	if err := s.Seek(5); err == nil {
		t.Error("Expected error seeking past the end")
	}
}

func TestReadKeyRejectsBadWireTypes(t *testing.T) {
	// Tag 1, wire type 3 (deprecated group start).
	s := NewStream([]byte{0x0b})
	if _, _, err := readKey(s); err == nil {
		t.Fatal("Expected error for wire type 3")
	}
	// Tag 0 is invalid.
	s = NewStream([]byte{0x00})
	if _, _, err := readKey(s); err == nil {
		t.Fatal("Expected error for tag 0")
	}
}
