package pbuf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseVarintScalar is the canonical `08 96 01` example against
// schema `message M { optional int32 x = 1; }`.
func TestParseVarintScalar(t *testing.T) {
	desc := descriptorSet(fileDesc("test", []*wire{
		messageDesc("M", fieldDesc("x", 1, labelOptional, typeInt32)),
	}))
	p, err := NewParser(desc, ".test.M")
	require.NoError(t, err)

	require.NoError(t, p.ParseBinary([]byte{0x08, 0x96, 0x01}))

	v, err := p.Field("x").Int32()
	require.NoError(t, err)
	assert.Equal(t, int32(150), v)
	assert.True(t, p.Has("x"))
}

// TestParsePackedRepeated is the `22 06 03 8E 02 9E A7 05` example:
// repeated int32 xs = 4 [packed=true] holding [3, 270, 86942].
func TestParsePackedRepeated(t *testing.T) {
	desc := descriptorSet(fileDesc("test", []*wire{
		messageDesc("M", fieldDesc("xs", 4, labelRepeated, typeInt32, withPacked())),
	}))
	p, err := NewParser(desc, ".test.M")
	require.NoError(t, err)

	require.NoError(t, p.ParseBinary([]byte{0x22, 0x06, 0x03, 0x8E, 0x02, 0x9E, 0xA7, 0x05}))

	xs := p.Field("xs")
	require.Equal(t, 3, xs.Size())
	want := []int32{3, 270, 86942}
	for i, expected := range want {
		v, err := xs.Index(i).Int32()
		require.NoError(t, err)
		assert.Equal(t, expected, v)
	}

	// Bulk copy-out of the packed payload.
	dst := make([]byte, 12)
	require.NoError(t, xs.CopyTo(dst))
	assert.Equal(t, []byte{3, 0, 0, 0, 0x0E, 0x01, 0, 0, 0x9E, 0x53, 0x01, 0}, dst)
}

// TestParsePackedEmpty checks that a zero-length packed payload yields
// an empty list.
func TestParsePackedEmpty(t *testing.T) {
	desc := descriptorSet(fileDesc("test", []*wire{
		messageDesc("M", fieldDesc("xs", 4, labelRepeated, typeInt32, withPacked())),
	}))
	p, err := NewParser(desc, ".test.M")
	require.NoError(t, err)

	require.NoError(t, p.ParseBinary([]byte{0x22, 0x00}))
	assert.Equal(t, 0, p.Field("xs").Size())
	assert.True(t, p.Has("xs"))
}

// TestParseNonPackedRepeated checks that repeated non-packed fields
// accumulate as separate instances.
func TestParseNonPackedRepeated(t *testing.T) {
	desc := descriptorSet(fileDesc("test", []*wire{
		messageDesc("M", fieldDesc("xs", 1, labelRepeated, typeInt32)),
	}))
	p, err := NewParser(desc, ".test.M")
	require.NoError(t, err)

	data := (&wire{}).vint(1, 10).vint(1, 20).vint(1, 30).b
	require.NoError(t, p.ParseBinary(data))

	xs := p.Field("xs")
	require.Equal(t, 3, xs.Size())
	for i, expected := range []int32{10, 20, 30} {
		v, err := xs.Index(i).Int32()
		require.NoError(t, err)
		assert.Equal(t, expected, v)
	}

	dst := make([]byte, 12)
	require.NoError(t, xs.CopyTo(dst))
	assert.Equal(t, []byte{10, 0, 0, 0, 20, 0, 0, 0, 30, 0, 0, 0}, dst)
}

// TestParseEmbeddedMessage exercises nested message decoding.
func TestParseEmbeddedMessage(t *testing.T) {
	desc := descriptorSet(fileDesc("test", []*wire{
		messageDesc("M",
			fieldDesc("a", 1, labelOptional, typeInt32),
			fieldDesc("b", 2, labelOptional, typeMessage, withTypeName(".test.M2")),
		),
		messageDesc("M2", fieldDesc("c", 1, labelOptional, typeString)),
	}))
	p, err := NewParser(desc, ".test.M")
	require.NoError(t, err)

	inner := (&wire{}).str(1, "hi")
	data := (&wire{}).vint(1, 1).msg(2, inner).b
	require.NoError(t, p.ParseBinary(data))

	a, err := p.Field("a").Int32()
	require.NoError(t, err)
	assert.Equal(t, int32(1), a)
	c, err := p.Field("b").Field("c").Str()
	require.NoError(t, err)
	assert.Equal(t, "hi", c)
}

// TestUnknownTagSkipped checks that unknown tags of every wire type are
// skipped and the known fields still parse.
func TestUnknownTagSkipped(t *testing.T) {
	desc := descriptorSet(fileDesc("test", []*wire{
		messageDesc("M", fieldDesc("x", 1, labelOptional, typeInt32)),
	}))
	p, err := NewParser(desc, ".test.M")
	require.NoError(t, err)

	data := []byte{
		0x10, 0x05, // tag 2, varint
		0x1A, 0x02, 0xAB, 0xCD, // tag 3, length-delimited
		0x25, 0x01, 0x02, 0x03, 0x04, // tag 4, fixed32
		0x29, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, // tag 5, fixed64
		0x08, 0x96, 0x01, // x = 150
	}
	require.NoError(t, p.ParseBinary(data))
	v, err := p.Field("x").Int32()
	require.NoError(t, err)
	assert.Equal(t, int32(150), v)

	// The same message without the unknown tags parses identically.
	require.NoError(t, p.ParseBinary([]byte{0x08, 0x96, 0x01}))
	v2, err := p.Field("x").Int32()
	require.NoError(t, err)
	assert.Equal(t, v, v2)
}

// TestDefaultValue checks that absent fields with declared defaults
// read back their default.
func TestDefaultValue(t *testing.T) {
	desc := descriptorSet(fileDesc("test", []*wire{
		messageDesc("M",
			fieldDesc("x", 1, labelOptional, typeInt32, withDefault("7")),
			fieldDesc("s", 2, labelOptional, typeString, withDefault("none")),
		),
	}))
	p, err := NewParser(desc, ".test.M")
	require.NoError(t, err)

	require.NoError(t, p.ParseBinary(nil))
	assert.False(t, p.Has("x"))

	v, err := p.Field("x").Int32()
	require.NoError(t, err)
	assert.Equal(t, int32(7), v)

	s, err := p.Field("s").Str()
	require.NoError(t, err)
	assert.Equal(t, "none", s)
}

// TestEnumField checks the int-to-name mapping and the unknown-value error.
func TestEnumField(t *testing.T) {
	desc := descriptorSet(fileDesc("test", []*wire{
		messageDesc("M", fieldDesc("e", 1, labelOptional, typeEnum, withTypeName(".test.E"))),
	}, withEnum(enumDesc("E", enumValueDesc("ALPHA", 1), enumValueDesc("BETA", 2)))))
	p, err := NewParser(desc, ".test.M")
	require.NoError(t, err)

	require.NoError(t, p.ParseBinary((&wire{}).vint(1, 2).b))
	name, err := p.Field("e").Str()
	require.NoError(t, err)
	assert.Equal(t, "BETA", name)

	err = p.ParseBinary((&wire{}).vint(1, 5).b)
	require.Error(t, err)
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ErrParse, perr.Kind)
}

// TestProto3ImplicitPacking checks that proto3 repeated primitives are
// packed without an explicit option.
func TestProto3ImplicitPacking(t *testing.T) {
	desc := descriptorSet(fileDesc("test", []*wire{
		messageDesc("M", fieldDesc("xs", 4, labelRepeated, typeInt32)),
	}, withSyntax("proto3")))
	p, err := NewParser(desc, ".test.M")
	require.NoError(t, err)

	require.NoError(t, p.ParseBinary([]byte{0x22, 0x06, 0x03, 0x8E, 0x02, 0x9E, 0xA7, 0x05}))
	assert.Equal(t, 3, p.Field("xs").Size())
}

// TestPackedFloats checks fixed-width packed decoding and its
// length-multiple invariant.
func TestPackedFloats(t *testing.T) {
	desc := descriptorSet(fileDesc("test", []*wire{
		messageDesc("M", fieldDesc("fs", 1, labelRepeated, typeFloat, withPacked())),
	}))
	p, err := NewParser(desc, ".test.M")
	require.NoError(t, err)

	// 1.0f and 2.0f, little-endian.
	payload := []byte{0x00, 0x00, 0x80, 0x3F, 0x00, 0x00, 0x00, 0x40}
	require.NoError(t, p.ParseBinary((&wire{}).bytes(1, payload).b))
	fs := p.Field("fs")
	require.Equal(t, 2, fs.Size())
	v0, err := fs.Index(0).Float32()
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), v0)
	v1, err := fs.Index(1).Float32()
	require.NoError(t, err)
	assert.Equal(t, float32(2.0), v1)

	// A 5-byte payload is not a multiple of 4.
	err = p.ParseBinary((&wire{}).bytes(1, payload[:5]).b)
	require.Error(t, err)
}

// TestSelfReferentialSchema checks that a message referring to itself
// compiles and parses.
func TestSelfReferentialSchema(t *testing.T) {
	desc := descriptorSet(fileDesc("test", []*wire{
		messageDesc("M",
			fieldDesc("name", 1, labelOptional, typeString),
			fieldDesc("child", 2, labelOptional, typeMessage, withTypeName(".test.M")),
		),
	}))
	p, err := NewParser(desc, ".test.M")
	require.NoError(t, err)

	inner := (&wire{}).str(1, "inner")
	data := (&wire{}).str(1, "outer").msg(2, inner).b
	require.NoError(t, p.ParseBinary(data))

	name, err := p.Field("name").Str()
	require.NoError(t, err)
	assert.Equal(t, "outer", name)
	childName, err := p.Field("child").Field("name").Str()
	require.NoError(t, err)
	assert.Equal(t, "inner", childName)
}

// TestRootNameNotFound checks the compile error for an unknown root.
func TestRootNameNotFound(t *testing.T) {
	desc := descriptorSet(fileDesc("test", []*wire{
		messageDesc("M", fieldDesc("x", 1, labelOptional, typeInt32)),
	}))
	_, err := NewParser(desc, ".test.Missing")
	require.Error(t, err)
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ErrParse, perr.Kind)
	assert.Contains(t, perr.Msg, "name not found")
}

// TestTruncatedEmbeddedMessage checks the exact-length invariant.
func TestTruncatedEmbeddedMessage(t *testing.T) {
	desc := descriptorSet(fileDesc("test", []*wire{
		messageDesc("M", fieldDesc("b", 2, labelOptional, typeMessage, withTypeName(".test.M2"))),
		messageDesc("M2", fieldDesc("c", 1, labelOptional, typeString)),
	}))
	p, err := NewParser(desc, ".test.M")
	require.NoError(t, err)

	// Embedded length claims more bytes than the input holds.
	require.Error(t, p.ParseBinary([]byte{0x12, 0x10, 0x0A, 0x01}))
}

// TestRemove drops one instance of a repeated field.
func TestRemove(t *testing.T) {
	desc := descriptorSet(fileDesc("test", []*wire{
		messageDesc("M", fieldDesc("xs", 1, labelRepeated, typeInt32)),
	}))
	p, err := NewParser(desc, ".test.M")
	require.NoError(t, err)

	require.NoError(t, p.ParseBinary((&wire{}).vint(1, 10).vint(1, 20).b))
	require.NoError(t, p.Remove("xs", 0))
	xs := p.Field("xs")
	require.Equal(t, 1, xs.Size())
	v, err := xs.Index(0).Int32()
	require.NoError(t, err)
	assert.Equal(t, int32(20), v)
}
