package pbuf

import (
	"encoding/binary"
	"io"
)

// Protobuf wire types.
const (
	wireVarint = 0 // int32, int64, uint32, uint64, bool, enum
	wire64Bit  = 1 // fixed64, sfixed64, double
	wireBytes  = 2 // string, bytes, embedded messages, packed repeated fields
	wire32Bit  = 5 // fixed32, sfixed32, float
)

// maxVarintBytes is the longest legal varint encoding: 10 bytes carry
// 7 payload bits each, enough for any 64-bit value.
const maxVarintBytes = 10

// Stream is a positioned reader over a byte buffer. All multi-byte
// fixed-width values are little-endian, as required by the wire format.
type Stream struct {
	data []byte
	pos  int
}

// NewStream wraps data without copying it.
func NewStream(data []byte) *Stream {
	return &Stream{data: data}
}

// NewStreamFrom drains r into memory and wraps the result.
func NewStreamFrom(r io.Reader) (*Stream, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, parseErr("stream", -1, "read input: %v", err)
	}
	return &Stream{data: data}, nil
}

// Tell returns the current byte offset.
func (s *Stream) Tell() int {
	return s.pos
}

// Seek moves the read position to an absolute offset.
func (s *Stream) Seek(pos int) error {
	if pos < 0 || pos > len(s.data) {
		return parseErr("stream", s.pos, "seek to %d outside [0, %d]", pos, len(s.data))
	}
	s.pos = pos
	return nil
}

// EOF reports whether the read position is at the end of the buffer.
func (s *Stream) EOF() bool {
	return s.pos >= len(s.data)
}

// Len returns the total buffer length.
func (s *Stream) Len() int {
	return len(s.data)
}

// ReadRaw returns the next n bytes as a view into the buffer.
func (s *Stream) ReadRaw(n int) ([]byte, error) {
	if n < 0 {
		return nil, parseErr("stream", s.pos, "negative read length %d", n)
	}
	if s.pos+n > len(s.data) {
		return nil, parseErr("stream", s.pos, "unexpected EOF")
	}
	b := s.data[s.pos : s.pos+n]
	s.pos += n
	return b, nil
}

// Skip advances the read position by n bytes.
func (s *Stream) Skip(n int) error {
	_, err := s.ReadRaw(n)
	return err
}

// ReadVarint decodes a base-128 varint of up to 10 bytes. Each byte
// contributes its low 7 bits; a set top bit means another byte follows.
func (s *Stream) ReadVarint() (uint64, error) {
	var v uint64
	for i := 0; i < maxVarintBytes; i++ {
		if s.pos >= len(s.data) {
			return 0, parseErr("stream", s.pos, "unexpected EOF")
		}
		b := s.data[s.pos]
		s.pos++
		v |= uint64(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, parseErr("stream", s.pos, "varint exceeds %d bytes", maxVarintBytes)
}

// ReadFixed32 reads a little-endian 32-bit value.
func (s *Stream) ReadFixed32() (uint32, error) {
	b, err := s.ReadRaw(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadFixed64 reads a little-endian 64-bit value.
func (s *Stream) ReadFixed64() (uint64, error) {
	b, err := s.ReadRaw(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// readKey reads a field key and splits it into tag and wire type.
// Wire types 3 and 4 (groups) are long deprecated and rejected.
func readKey(s *Stream) (tag int32, wireType int, err error) {
	pos := s.pos
	v, err := s.ReadVarint()
	if err != nil {
		return 0, 0, err
	}
	tag = int32(v >> 3)
	wireType = int(v & 7)
	if tag <= 0 {
		return 0, 0, parseErr("stream", pos, "unsupported tag value [%d]", tag)
	}
	switch wireType {
	case wireVarint, wire64Bit, wireBytes, wire32Bit:
		return tag, wireType, nil
	default:
		return 0, 0, parseErr("stream", pos, "unsupported wire type [%d]", wireType)
	}
}

// skipField discards one field body according to its wire type.
func skipField(s *Stream, wireType int) error {
	switch wireType {
	case wireVarint:
		_, err := s.ReadVarint()
		return err
	case wire64Bit:
		return s.Skip(8)
	case wireBytes:
		n, err := s.ReadVarint()
		if err != nil {
			return err
		}
		return s.Skip(int(n))
	case wire32Bit:
		return s.Skip(4)
	default:
		return parseErr("stream", s.pos, "unsupported wire type [%d]", wireType)
	}
}
