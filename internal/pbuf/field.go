package pbuf

import (
	"math"
	"strconv"
)

// Kind enumerates the primitive scalar kinds a field can carry.
type Kind int

// Primitive kinds.
const (
	Int32 Kind = iota
	UInt32
	Int64
	UInt64
	Float32
	Float64
	Bool
)

// String returns the proto type name of the kind.
func (k Kind) String() string {
	switch k {
	case Int32:
		return "int32"
	case UInt32:
		return "uint32"
	case Int64:
		return "int64"
	case UInt64:
		return "uint64"
	case Float32:
		return "float"
	case Float64:
		return "double"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// fixedSize returns the on-wire element size for fixed-width kinds
// and 0 for varint-encoded kinds.
func (k Kind) fixedSize() int {
	switch k {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

// byteSize returns the in-memory element width used by bulk copies.
func (k Kind) byteSize() int {
	switch k {
	case Int32, UInt32, Float32:
		return 4
	case Int64, UInt64, Float64:
		return 8
	case Bool:
		return 1
	default:
		return 0
	}
}

// Field is one node of the runtime field tree. A prototype field knows
// how to read itself from a binary stream or a token cursor and how to
// produce a fresh empty clone for the next parsed instance.
type Field interface {
	readBinary(s *Stream) error
	readText(c *tokenCursor) error
	clone() Field
}

// Scalar is a single primitive value, tagged by Kind. The value is kept
// as raw 64-bit two's-complement or IEEE bits; typed getters reinterpret.
type Scalar struct {
	kind Kind
	bits uint64
}

func newScalar(kind Kind, defaultValue string) (*Scalar, error) {
	f := &Scalar{kind: kind}
	if defaultValue != "" {
		if err := f.setString(defaultValue); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Kind returns the scalar's primitive kind.
func (f *Scalar) Kind() Kind { return f.kind }

func (f *Scalar) readBinary(s *Stream) error {
	switch f.kind {
	case Float32:
		u, err := s.ReadFixed32()
		if err != nil {
			return err
		}
		f.bits = uint64(u)
	case Float64:
		u, err := s.ReadFixed64()
		if err != nil {
			return err
		}
		f.bits = u
	default:
		v, err := s.ReadVarint()
		if err != nil {
			return err
		}
		f.bits = v
	}
	return nil
}

func (f *Scalar) readText(c *tokenCursor) error {
	tok, err := c.next()
	if err != nil {
		return err
	}
	if err := f.setString(tok); err != nil {
		return parseErr("text", c.pos-1, "cannot interpret %q as %s", tok, f.kind)
	}
	return nil
}

func (f *Scalar) clone() Field {
	return &Scalar{kind: f.kind}
}

// setString parses str as the scalar's kind and stores the raw bits.
func (f *Scalar) setString(str string) error {
	switch f.kind {
	case Int32:
		v, err := strconv.ParseInt(str, 10, 32)
		if err != nil {
			return err
		}
		f.bits = uint64(v)
	case Int64:
		v, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return err
		}
		f.bits = uint64(v)
	case UInt32:
		v, err := strconv.ParseUint(str, 10, 32)
		if err != nil {
			return err
		}
		f.bits = v
	case UInt64:
		v, err := strconv.ParseUint(str, 10, 64)
		if err != nil {
			return err
		}
		f.bits = v
	case Float32:
		v, err := strconv.ParseFloat(str, 32)
		if err != nil {
			return err
		}
		f.bits = uint64(math.Float32bits(float32(v)))
	case Float64:
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return err
		}
		f.bits = math.Float64bits(v)
	case Bool:
		switch str {
		case "true":
			f.bits = 1
		case "false":
			f.bits = 0
		default:
			return parseErr("field", -1, "cannot interpret boolean value %q", str)
		}
	}
	return nil
}

// Typed accessors. Integer getters reinterpret the stored two's-complement
// bits at the target width; sign extension happened during decoding.

// Int32 returns the value as int32.
func (f *Scalar) Int32() int32 { return int32(uint32(f.bits)) }

// UInt32 returns the value as uint32.
func (f *Scalar) UInt32() uint32 { return uint32(f.bits) }

// Int64 returns the value as int64.
func (f *Scalar) Int64() int64 { return int64(f.bits) }

// UInt64 returns the value as uint64.
func (f *Scalar) UInt64() uint64 { return f.bits }

// Float32 returns the value as float32.
func (f *Scalar) Float32() float32 { return math.Float32frombits(uint32(f.bits)) }

// Float64 returns the value as float64.
func (f *Scalar) Float64() float64 { return math.Float64frombits(f.bits) }

// Bool returns the value as bool.
func (f *Scalar) Bool() bool { return f.bits != 0 }

// stringValued is satisfied by StringField and, through embedding, Enum.
type stringValued interface {
	stringValue() string
}

// StringField holds a length-delimited string.
type StringField struct {
	value string
}

func newStringField(defaultValue string) *StringField {
	return &StringField{value: defaultValue}
}

// Value returns the string content.
func (f *StringField) Value() string { return f.value }

func (f *StringField) stringValue() string { return f.value }

func (f *StringField) readBinary(s *Stream) error {
	n, err := s.ReadVarint()
	if err != nil {
		return err
	}
	b, err := s.ReadRaw(int(n))
	if err != nil {
		return err
	}
	f.value = string(b)
	return nil
}

// Text read takes the next token verbatim; the tokenizer already
// stripped surrounding quotes.
func (f *StringField) readText(c *tokenCursor) error {
	tok, err := c.next()
	if err != nil {
		return err
	}
	f.value = tok
	return nil
}

func (f *StringField) clone() Field {
	return &StringField{}
}

// Enum is a string field whose binary form is an integer mapped through
// the declared value table.
type Enum struct {
	StringField
	packed bool
	values map[int32]string
}

func newEnum(packed bool) *Enum {
	return &Enum{packed: packed, values: make(map[int32]string)}
}

// AddValue registers one named enum value.
func (f *Enum) AddValue(name string, number int32) error {
	if _, ok := f.values[number]; ok {
		return parseErr("field", -1, "duplicate enum number [%d]", number)
	}
	f.values[number] = name
	return nil
}

func (f *Enum) readBinary(s *Stream) error {
	var id int32
	if f.packed {
		// Packed enum: a length-delimited run of varints. The last
		// element wins, mirroring non-repeated field semantics.
		n, err := s.ReadVarint()
		if err != nil {
			return err
		}
		end := s.Tell() + int(n)
		for s.Tell() < end {
			v, err := s.ReadVarint()
			if err != nil {
				return err
			}
			id = int32(uint32(v))
		}
		if s.Tell() != end {
			return parseErr("field", s.Tell(), "packed enum overruns its length")
		}
	} else {
		v, err := s.ReadVarint()
		if err != nil {
			return err
		}
		id = int32(uint32(v))
	}
	name, ok := f.values[id]
	if !ok {
		return parseErr("field", s.Tell(), "unknown enum value [%d]", id)
	}
	f.value = name
	return nil
}

func (f *Enum) clone() Field {
	// The value table is immutable after compilation, so clones share it.
	return &Enum{packed: f.packed, values: f.values}
}

// Pack is a packed repeated primitive field: a single length-delimited
// record carrying values back-to-back. Elements are stored as raw bits.
type Pack struct {
	kind   Kind
	values []uint64
}

func newPack(kind Kind) *Pack {
	return &Pack{kind: kind}
}

// Kind returns the element kind.
func (f *Pack) Kind() Kind { return f.kind }

// Size returns the element count.
func (f *Pack) Size() int { return len(f.values) }

// At returns element i as a standalone scalar.
func (f *Pack) At(i int) (*Scalar, error) {
	if i < 0 || i >= len(f.values) {
		return nil, typeErr("field", "packed index %d out of range [0, %d)", i, len(f.values))
	}
	return &Scalar{kind: f.kind, bits: f.values[i]}, nil
}

func (f *Pack) readBinary(s *Stream) error {
	f.values = f.values[:0]
	n, err := s.ReadVarint()
	if err != nil {
		return err
	}
	numBytes := int(n)
	if size := f.kind.fixedSize(); size > 0 {
		if numBytes%size != 0 {
			return parseErr("field", s.Tell(), "packed payload of %d bytes is not a multiple of %d", numBytes, size)
		}
		for i := 0; i < numBytes/size; i++ {
			var bits uint64
			if size == 4 {
				u, err := s.ReadFixed32()
				if err != nil {
					return err
				}
				bits = uint64(u)
			} else {
				u, err := s.ReadFixed64()
				if err != nil {
					return err
				}
				bits = u
			}
			f.values = append(f.values, bits)
		}
		return nil
	}
	// Varint-encoded elements must consume the declared length exactly.
	end := s.Tell() + numBytes
	for s.Tell() < end {
		v, err := s.ReadVarint()
		if err != nil {
			return err
		}
		f.values = append(f.values, v)
	}
	if s.Tell() != end {
		return parseErr("field", s.Tell(), "packed payload overruns its length")
	}
	return nil
}

// Text read consumes a single value; repeated occurrences in a text
// document arrive as separate instances of the same name.
func (f *Pack) readText(c *tokenCursor) error {
	sc := &Scalar{kind: f.kind}
	if err := sc.readText(c); err != nil {
		return err
	}
	f.values = []uint64{sc.bits}
	return nil
}

func (f *Pack) clone() Field {
	return &Pack{kind: f.kind}
}

// copyTo writes all elements into dst as little-endian values of the
// element width. dst must be exactly Size()*width bytes.
func (f *Pack) copyTo(dst []byte) error {
	width := f.kind.byteSize()
	if len(dst) != len(f.values)*width {
		return typeErr("field", "bulk copy of %d elements needs %d bytes, got %d",
			len(f.values), len(f.values)*width, len(dst))
	}
	for i, bits := range f.values {
		putBits(dst[i*width:(i+1)*width], bits, width)
	}
	return nil
}

// createField builds a prototype for a primitive type name.
func createField(typeName, defaultValue string, packed bool) (Field, error) {
	var kind Kind
	switch typeName {
	case "int32":
		kind = Int32
	case "uint32":
		kind = UInt32
	case "int64":
		kind = Int64
	case "uint64":
		kind = UInt64
	case "float":
		kind = Float32
	case "double":
		kind = Float64
	case "bool":
		kind = Bool
	case "string":
		return newStringField(defaultValue), nil
	default:
		return nil, parseErr("field", -1, "unknown protobuf type %q", typeName)
	}
	if packed {
		return newPack(kind), nil
	}
	return newScalar(kind, defaultValue)
}
