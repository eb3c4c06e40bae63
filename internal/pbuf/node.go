package pbuf

import "encoding/binary"

// Node is a typed view over a list of parsed field instances. Access
// errors propagate through chained lookups and surface from the
// terminal getter, so `p.Field("a").Field("b").Int32()` needs a single
// error check.
type Node struct {
	fields []Field
	err    error
}

func newNode(fields []Field) Node {
	return Node{fields: fields}
}

func errNode(err error) Node {
	return Node{err: err}
}

// Err returns the deferred access error, if any.
func (n Node) Err() error { return n.err }

// Empty reports whether the node holds no fields.
func (n Node) Empty() bool { return len(n.fields) == 0 }

// Size returns the number of addressable elements: the element count
// for a single packed field, the instance count otherwise.
func (n Node) Size() int {
	if len(n.fields) == 1 {
		if p, ok := n.fields[0].(*Pack); ok {
			return p.Size()
		}
	}
	return len(n.fields)
}

// message unwraps the single contained message.
func (n Node) message() (*Message, error) {
	if n.err != nil {
		return nil, n.err
	}
	if len(n.fields) != 1 {
		return nil, typeErr("node", "named access needs a single message, node has %d fields", len(n.fields))
	}
	m, ok := n.fields[0].(*Message)
	if !ok {
		return nil, typeErr("node", "named access on a non-message field")
	}
	return m, nil
}

// Field returns the named child of the single contained message.
func (n Node) Field(name string) Node {
	m, err := n.message()
	if err != nil {
		return errNode(err)
	}
	return m.Node(name)
}

// Index returns element i: into the packed payload when the node wraps
// a single packed field, into the instance list otherwise.
func (n Node) Index(i int) Node {
	if n.err != nil {
		return n
	}
	if len(n.fields) == 1 {
		if p, ok := n.fields[0].(*Pack); ok {
			sc, err := p.At(i)
			if err != nil {
				return errNode(err)
			}
			return newNode([]Field{sc})
		}
	}
	if i < 0 || i >= len(n.fields) {
		return errNode(typeErr("node", "index %d out of range [0, %d)", i, len(n.fields)))
	}
	return newNode([]Field{n.fields[i]})
}

// Has reports whether the single contained message read the named field.
func (n Node) Has(name string) bool {
	m, err := n.message()
	if err != nil {
		return false
	}
	return m.Has(name)
}

// Remove drops the idx-th instance of the named field from the single
// contained message.
func (n Node) Remove(name string, idx int) error {
	m, err := n.message()
	if err != nil {
		return err
	}
	return m.Remove(name, idx)
}

// scalar unwraps the single scalar value. A packed field qualifies only
// when it holds exactly one element.
func (n Node) scalar() (*Scalar, error) {
	if n.err != nil {
		return nil, n.err
	}
	if len(n.fields) != 1 {
		return nil, typeErr("node", "scalar access needs a single field, node has %d", len(n.fields))
	}
	switch f := n.fields[0].(type) {
	case *Scalar:
		return f, nil
	case *Pack:
		if f.Size() != 1 {
			return nil, typeErr("node", "scalar access on a packed field of %d elements", f.Size())
		}
		return f.At(0)
	default:
		return nil, typeErr("node", "scalar access on a non-scalar field")
	}
}

func (n Node) typed(want Kind) (*Scalar, error) {
	sc, err := n.scalar()
	if err != nil {
		return nil, err
	}
	if sc.kind != want {
		return nil, typeErr("node", "type mismatch: field is %s, requested %s", sc.kind, want)
	}
	return sc, nil
}

// Int32 extracts an int32 scalar.
func (n Node) Int32() (int32, error) {
	sc, err := n.typed(Int32)
	if err != nil {
		return 0, err
	}
	return sc.Int32(), nil
}

// UInt32 extracts a uint32 scalar.
func (n Node) UInt32() (uint32, error) {
	sc, err := n.typed(UInt32)
	if err != nil {
		return 0, err
	}
	return sc.UInt32(), nil
}

// Int64 extracts an int64 scalar.
func (n Node) Int64() (int64, error) {
	sc, err := n.typed(Int64)
	if err != nil {
		return 0, err
	}
	return sc.Int64(), nil
}

// UInt64 extracts a uint64 scalar.
func (n Node) UInt64() (uint64, error) {
	sc, err := n.typed(UInt64)
	if err != nil {
		return 0, err
	}
	return sc.UInt64(), nil
}

// Float32 extracts a float scalar.
func (n Node) Float32() (float32, error) {
	sc, err := n.typed(Float32)
	if err != nil {
		return 0, err
	}
	return sc.Float32(), nil
}

// Float64 extracts a double scalar.
func (n Node) Float64() (float64, error) {
	sc, err := n.typed(Float64)
	if err != nil {
		return 0, err
	}
	return sc.Float64(), nil
}

// Bool extracts a bool scalar.
func (n Node) Bool() (bool, error) {
	sc, err := n.typed(Bool)
	if err != nil {
		return false, err
	}
	return sc.Bool(), nil
}

// Str extracts a string or enum value.
func (n Node) Str() (string, error) {
	if n.err != nil {
		return "", n.err
	}
	if len(n.fields) != 1 {
		return "", typeErr("node", "string access needs a single field, node has %d", len(n.fields))
	}
	sv, ok := n.fields[0].(stringValued)
	if !ok {
		return "", typeErr("node", "type mismatch: field is not a string")
	}
	return sv.stringValue(), nil
}

// CopyTo bulk-exports the node's values into dst as little-endian
// elements of their natural width. A single packed field is copied as
// one block; a repeated list is converted per element.
func (n Node) CopyTo(dst []byte) error {
	if n.err != nil {
		return n.err
	}
	if len(n.fields) == 1 {
		if p, ok := n.fields[0].(*Pack); ok {
			return p.copyTo(dst)
		}
	}
	if len(n.fields) == 0 {
		if len(dst) != 0 {
			return typeErr("node", "bulk copy of an empty node into %d bytes", len(dst))
		}
		return nil
	}
	first, ok := n.fields[0].(*Scalar)
	if !ok {
		return typeErr("node", "bulk copy on non-scalar fields")
	}
	width := first.kind.byteSize()
	if len(dst) != len(n.fields)*width {
		return typeErr("node", "bulk copy of %d elements needs %d bytes, got %d",
			len(n.fields), len(n.fields)*width, len(dst))
	}
	for i, f := range n.fields {
		sc, ok := f.(*Scalar)
		if !ok || sc.kind != first.kind {
			return typeErr("node", "bulk copy on mixed field kinds")
		}
		putBits(dst[i*width:(i+1)*width], sc.bits, width)
	}
	return nil
}

// putBits writes the low `width` bytes of bits in little-endian order.
func putBits(dst []byte, bits uint64, width int) {
	switch width {
	case 1:
		dst[0] = byte(bits)
	case 4:
		binary.LittleEndian.PutUint32(dst, uint32(bits))
	case 8:
		binary.LittleEndian.PutUint64(dst, bits)
	}
}
