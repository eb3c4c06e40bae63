package pbuf

// Message is a composite field: a table of prototype fields indexed by
// tag and by name, plus the instances read from input. Prototypes are
// never mutated by parsing; every value on the wire is read into a fresh
// clone of its prototype.
type Message struct {
	// Prototype tables, shared between a message and its clones.
	fieldByTag  map[int32]Field
	fieldByName map[string]Field
	nameByTag   map[int32]string
	defaults    map[string]Field

	// Parsed instances, per instance. Lists because any field may
	// appear repeatedly on the wire.
	readFields map[string][]Field
}

// NewMessage returns an empty message prototype.
func NewMessage() *Message {
	return &Message{
		fieldByTag:  make(map[int32]Field),
		fieldByName: make(map[string]Field),
		nameByTag:   make(map[int32]string),
		defaults:    make(map[string]Field),
		readFields:  make(map[string][]Field),
	}
}

// AddField registers a prototype field under a name and a tag.
func (m *Message) AddField(f Field, name string, tag int32, hasDefault bool) {
	m.fieldByTag[tag] = f
	m.fieldByName[name] = f
	m.nameByTag[tag] = name
	if hasDefault {
		m.defaults[name] = f
	}
}

// addPrimitive registers a primitive field by proto type name. It is
// used by the hand-wired bootstrap descriptors where the type names are
// compile-time constants, hence the panic on a typo.
func (m *Message) addPrimitive(typeName, name string, tag int32) {
	f, err := createField(typeName, "", false)
	if err != nil {
		panic(err)
	}
	m.AddField(f, name, tag, false)
}

// readBinary parses a message from the stream. An embedded message is
// prefixed with its byte length; the top-level message (recognized by
// starting at offset zero) runs to EOF.
func (m *Message) readBinary(s *Stream) error {
	m.readFields = make(map[string][]Field)

	end := s.Len()
	embedded := s.Tell() != 0
	if embedded {
		n, err := s.ReadVarint()
		if err != nil {
			return err
		}
		end = s.Tell() + int(n)
		if end > s.Len() {
			return parseErr("message", s.Tell(), "embedded message length %d exceeds input", n)
		}
	}

	for s.Tell() < end {
		tag, wireType, err := readKey(s)
		if err != nil {
			return err
		}
		proto, ok := m.fieldByTag[tag]
		if !ok {
			// Unknown tag: skip its body by wire type.
			if err := skipField(s, wireType); err != nil {
				return err
			}
			continue
		}
		inst := proto.clone()
		if err := inst.readBinary(s); err != nil {
			return err
		}
		name := m.nameByTag[tag]
		m.readFields[name] = append(m.readFields[name], inst)
	}

	if s.Tell() != end {
		return parseErr("message", s.Tell(), "message body overruns its length")
	}
	return nil
}

// readText parses `{ name value ... }` where value is a scalar token or
// a nested braced block. Unknown names are fatal: the text format has no
// length prefix to skip by.
func (m *Message) readText(c *tokenCursor) error {
	m.readFields = make(map[string][]Field)

	if err := c.expect("{"); err != nil {
		return err
	}
	for {
		tok, err := c.peek()
		if err != nil {
			return err
		}
		if tok == "}" {
			_, _ = c.next()
			return nil
		}
		name, err := c.next()
		if err != nil {
			return err
		}
		proto, ok := m.fieldByName[name]
		if !ok {
			return parseErr("text", c.pos-1, "unknown field %q", name)
		}
		inst := proto.clone()
		if err := inst.readText(c); err != nil {
			return err
		}
		m.readFields[name] = append(m.readFields[name], inst)
	}
}

// clone shares the prototype tables. Sharing rather than deep-copying is
// what makes self-referential schemas terminate.
func (m *Message) clone() Field {
	return &Message{
		fieldByTag:  m.fieldByTag,
		fieldByName: m.fieldByName,
		nameByTag:   m.nameByTag,
		defaults:    m.defaults,
		readFields:  make(map[string][]Field),
	}
}

// Node returns the parsed instances of a named field, falling back to
// the default-valued prototype when the field was declared with a
// default but absent from the input.
func (m *Message) Node(name string) Node {
	if fields, ok := m.readFields[name]; ok {
		return newNode(fields)
	}
	if proto, ok := m.defaults[name]; ok {
		return newNode([]Field{proto})
	}
	return Node{}
}

// Has reports whether the named field was present in the input.
func (m *Message) Has(name string) bool {
	_, ok := m.readFields[name]
	return ok
}

// Remove drops the idx-th parsed instance of the named field.
func (m *Message) Remove(name string, idx int) error {
	fields, ok := m.readFields[name]
	if !ok {
		return typeErr("message", "field %q was not read", name)
	}
	if idx < 0 || idx >= len(fields) {
		return typeErr("message", "field %q has %d instances, cannot remove #%d", name, len(fields), idx)
	}
	m.readFields[name] = append(fields[:idx], fields[idx+1:]...)
	return nil
}
