package pbuf

// Schema compilation: walk a parsed descriptor set and assemble the
// runtime field tree for one root message.

// collectFileTypes indexes every message and enum of one file descriptor
// by fully-qualified name (leading dot, package prefix included).
func collectFileTypes(file Node, typeNodes map[string]Node) error {
	pkg := ""
	if file.Has("package") {
		p, err := file.Field("package").Str()
		if err != nil {
			return err
		}
		pkg = "." + p
	}
	if file.Has("message_type") {
		if err := collectTypes(file.Field("message_type"), pkg, typeNodes); err != nil {
			return err
		}
	}
	if file.Has("enum_type") {
		if err := collectTypes(file.Field("enum_type"), pkg, typeNodes); err != nil {
			return err
		}
	}
	return nil
}

// collectTypes recurses over message_type / enum_type declarations,
// prefixing names with their enclosing scope.
func collectTypes(types Node, parent string, typeNodes map[string]Node) error {
	for i := 0; i < types.Size(); i++ {
		t := types.Index(i)
		name, err := t.Field("name").Str()
		if err != nil {
			return parseErr("compile", -1, "type declaration without a name")
		}
		full := parent + "." + name
		if _, ok := typeNodes[full]; ok {
			return parseErr("compile", -1, "duplicate type name %q", full)
		}
		typeNodes[full] = t

		if t.Has("message_type") {
			if err := collectTypes(t.Field("message_type"), full, typeNodes); err != nil {
				return err
			}
		}
		if t.Has("enum_type") {
			if err := collectTypes(t.Field("enum_type"), full, typeNodes); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildEnum assembles an enum prototype from its descriptor node.
func buildEnum(name string, typeNodes map[string]Node, defaultValue string, packed bool) (*Enum, error) {
	node, ok := typeNodes[name]
	if !ok {
		return nil, parseErr("compile", -1, "name not found: enum %q", name)
	}
	e := newEnum(packed)
	values := node.Field("value")
	for i := 0; i < values.Size(); i++ {
		v := values.Index(i)
		vname, err := v.Field("name").Str()
		if err != nil {
			return nil, err
		}
		number, err := v.Field("number").Int32()
		if err != nil {
			return nil, err
		}
		if err := e.AddValue(vname, number); err != nil {
			return nil, err
		}
	}
	e.value = defaultValue
	return e, nil
}

// buildMessage assembles a message prototype by recursive descent.
// Built messages are memoized by name before their fields are filled in,
// which is what lets self-referential schemas terminate: the second
// encounter of a name returns the already-registered handle.
func buildMessage(name string, typeNodes map[string]Node, built map[string]*Message, proto3 bool) (*Message, error) {
	if m, ok := built[name]; ok {
		return m.clone().(*Message), nil
	}
	node, ok := typeNodes[name]
	if !ok {
		return nil, parseErr("compile", -1, "name not found: message %q", name)
	}

	m := NewMessage()
	built[name] = m

	fields := node.Field("field")
	for i := 0; i < fields.Size(); i++ {
		fieldNode := fields.Index(i)
		for _, required := range []string{"name", "number", "type", "label"} {
			if !fieldNode.Has(required) {
				return nil, parseErr("compile", -1, "field declaration in %q lacks %q", name, required)
			}
		}
		fieldName, err := fieldNode.Field("name").Str()
		if err != nil {
			return nil, err
		}
		tag, err := fieldNode.Field("number").Int32()
		if err != nil {
			return nil, err
		}
		typeID, err := fieldNode.Field("type").Int32()
		if err != nil {
			return nil, err
		}
		labelID, err := fieldNode.Field("label").Int32()
		if err != nil {
			return nil, err
		}
		kindName, err := typeNameByID(typeID)
		if err != nil {
			return nil, err
		}
		label, err := labelByID(labelID)
		if err != nil {
			return nil, err
		}

		typeName := kindName
		if fieldNode.Has("type_name") {
			typeName, err = fieldNode.Field("type_name").Str()
			if err != nil {
				return nil, err
			}
		}

		defaultValue := ""
		if fieldNode.Has("default_value") {
			defaultValue, err = fieldNode.Field("default_value").Str()
			if err != nil {
				return nil, err
			}
		}

		packed, err := packedFlag(fieldNode, proto3, label)
		if err != nil {
			return nil, err
		}

		var field Field
		switch kindName {
		case "message":
			field, err = buildMessage(typeName, typeNodes, built, proto3)
		case "enum":
			field, err = buildEnum(typeName, typeNodes, defaultValue, packed)
		default:
			field, err = createField(kindName, defaultValue, packed)
		}
		if err != nil {
			return nil, err
		}
		m.AddField(field, fieldName, tag, defaultValue != "")
	}
	return m, nil
}

// packedFlag resolves the packed encoding of a field: an explicit
// [packed=true] option, or proto3's implicit packing of repeated
// primitives. A proto3 field explicitly declared non-packed is still
// treated as packed.
func packedFlag(fieldNode Node, proto3 bool, label string) (bool, error) {
	if fieldNode.Has("options") {
		opts := fieldNode.Field("options")
		if opts.Has("packed") {
			v, err := opts.Field("packed").Bool()
			if err != nil {
				return false, err
			}
			if v {
				return true, nil
			}
		}
	}
	return proto3 && label == "repeated", nil
}
