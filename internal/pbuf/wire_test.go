package pbuf

// Wire-format encoding helpers for tests: enough of an encoder to build
// descriptor sets and message payloads by hand.

type wire struct {
	b []byte
}

func (w *wire) varint(v uint64) *wire {
	for v >= 0x80 {
		w.b = append(w.b, byte(v)|0x80)
		v >>= 7
	}
	w.b = append(w.b, byte(v))
	return w
}

func (w *wire) key(tag, wireType int) *wire {
	return w.varint(uint64(tag)<<3 | uint64(wireType))
}

// vint emits a varint-typed field.
func (w *wire) vint(tag int, v uint64) *wire {
	return w.key(tag, wireVarint).varint(v)
}

// bytes emits a length-delimited field.
func (w *wire) bytes(tag int, data []byte) *wire {
	w.key(tag, wireBytes).varint(uint64(len(data)))
	w.b = append(w.b, data...)
	return w
}

// str emits a string field.
func (w *wire) str(tag int, s string) *wire {
	return w.bytes(tag, []byte(s))
}

// msg emits an embedded message field.
func (w *wire) msg(tag int, inner *wire) *wire {
	return w.bytes(tag, inner.b)
}

// Descriptor-set builders on top of the raw encoder. Tags follow
// descriptor.proto: FileDescriptorSet.file=1; FileDescriptorProto
// name=1, package=2, message_type=4, enum_type=5, syntax=12;
// DescriptorProto name=1, field=2, nested=3, enum_type=4;
// FieldDescriptorProto name=1, number=3, label=4, type=5, type_name=6,
// default_value=7, options=8; FieldOptions packed=2.

const (
	labelOptional = 1
	labelRepeated = 3

	typeDouble  = 1
	typeFloat   = 2
	typeInt64   = 3
	typeInt32   = 5
	typeBool    = 8
	typeString  = 9
	typeMessage = 11
	typeEnum    = 14
)

type fieldOpt func(*wire)

func withTypeName(name string) fieldOpt {
	return func(w *wire) { w.str(6, name) }
}

func withDefault(v string) fieldOpt {
	return func(w *wire) { w.str(7, v) }
}

func withPacked() fieldOpt {
	return func(w *wire) {
		opts := &wire{}
		opts.vint(2, 1)
		w.msg(8, opts)
	}
}

func fieldDesc(name string, number, label, ftype int, opts ...fieldOpt) *wire {
	f := &wire{}
	f.str(1, name).vint(3, uint64(number)).vint(4, uint64(label)).vint(5, uint64(ftype))
	for _, o := range opts {
		o(f)
	}
	return f
}

func messageDesc(name string, fields ...*wire) *wire {
	m := &wire{}
	m.str(1, name)
	for _, f := range fields {
		m.msg(2, f)
	}
	return m
}

func enumValueDesc(name string, number int) *wire {
	v := &wire{}
	return v.str(1, name).vint(2, uint64(number))
}

func enumDesc(name string, values ...*wire) *wire {
	e := &wire{}
	e.str(1, name)
	for _, v := range values {
		e.msg(2, v)
	}
	return e
}

type fileOpt func(*wire)

func withSyntax(s string) fileOpt {
	return func(w *wire) { w.str(12, s) }
}

func withEnum(e *wire) fileOpt {
	return func(w *wire) { w.msg(5, e) }
}

func fileDesc(pkg string, messages []*wire, opts ...fileOpt) *wire {
	f := &wire{}
	f.str(1, pkg+".proto").str(2, pkg)
	for _, m := range messages {
		f.msg(4, m)
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func descriptorSet(files ...*wire) []byte {
	s := &wire{}
	for _, f := range files {
		s.msg(1, f)
	}
	return s.b
}
