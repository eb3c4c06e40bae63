package pbuf

// Hand-wired messages mirroring descriptor.proto. They describe the
// schema of a compiled descriptor set, which lets the engine parse the
// descriptor set with itself before any user schema exists.

// DefaultDescriptorDepth bounds how many nesting levels of message_type
// are unrolled in the bootstrap MessageDescriptor. Three levels cover
// every descriptor set the compiler needs to read.
const DefaultDescriptorDepth = 3

func newFieldOptionsDescriptor() *Message {
	m := NewMessage()
	m.addPrimitive("bool", "packed", 2)
	return m
}

func newFieldDescriptor() *Message {
	m := NewMessage()
	m.addPrimitive("string", "name", 1)
	m.addPrimitive("int32", "number", 3)
	m.addPrimitive("int32", "label", 4) // optional, required, repeated
	m.addPrimitive("int32", "type", 5)
	m.addPrimitive("string", "type_name", 6)
	m.addPrimitive("string", "default_value", 7)
	m.AddField(newFieldOptionsDescriptor(), "options", 8, false)
	return m
}

func newEnumValueDescriptor() *Message {
	m := NewMessage()
	m.addPrimitive("string", "name", 1)
	m.addPrimitive("int32", "number", 2)
	return m
}

func newEnumDescriptor() *Message {
	m := NewMessage()
	m.addPrimitive("string", "name", 1)
	m.AddField(newEnumValueDescriptor(), "value", 2, false)
	return m
}

func newMessageDescriptor(maxMsgDepth int) *Message {
	m := NewMessage()
	m.addPrimitive("string", "name", 1)
	m.AddField(newFieldDescriptor(), "field", 2, false)
	if maxMsgDepth > 0 {
		// Registered as message_type rather than nested_type so that
		// file-level and message-level walks share one field name.
		m.AddField(newMessageDescriptor(maxMsgDepth-1), "message_type", 3, false)
	}
	m.AddField(newEnumDescriptor(), "enum_type", 4, false)
	return m
}

func newFileDescriptor(maxMsgDepth int) *Message {
	m := NewMessage()
	m.addPrimitive("string", "name", 1)
	m.addPrimitive("string", "package", 2)
	m.addPrimitive("string", "syntax", 12)
	m.AddField(newMessageDescriptor(maxMsgDepth), "message_type", 4, false)
	m.AddField(newEnumDescriptor(), "enum_type", 5, false)
	return m
}

// NewFileDescriptorSet builds the bootstrap schema for a compiled
// descriptor set with the given message nesting depth.
func NewFileDescriptorSet(maxMsgDepth int) *Message {
	m := NewMessage()
	m.AddField(newFileDescriptor(maxMsgDepth), "file", 1, false)
	return m
}

// typeNameByID maps a FieldDescriptorProto type id to a proto type name.
func typeNameByID(id int32) (string, error) {
	switch id {
	case 1:
		return "double", nil
	case 2:
		return "float", nil
	case 3:
		return "int64", nil
	case 4:
		return "uint64", nil
	case 5:
		return "int32", nil
	case 8:
		return "bool", nil
	case 9, 12: // string, bytes
		return "string", nil
	case 11:
		return "message", nil
	case 13:
		return "uint32", nil
	case 14:
		return "enum", nil
	default:
		return "", parseErr("compile", -1, "unknown protobuf type id [%d]", id)
	}
}

// labelByID maps a FieldDescriptorProto label id to its name.
func labelByID(id int32) (string, error) {
	switch id {
	case 1:
		return "optional", nil
	case 2:
		return "required", nil
	case 3:
		return "repeated", nil
	default:
		return "", parseErr("compile", -1, "unknown protobuf label id [%d]", id)
	}
}
