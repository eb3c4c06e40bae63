// Package pbuf implements a reflective protobuf reader.
//
// Unlike code-generated parsers, the message layout is built at runtime
// from a compiled descriptor set (the output of protoc -o). The descriptor
// set itself is a protobuf message, parsed by the same engine against a
// small hand-wired schema, so no generated code is involved anywhere.
//
// Typical usage:
//
//	p, err := pbuf.NewParser(descriptorBytes, ".caffe.NetParameter")
//	if err != nil {
//	    return err
//	}
//	if err := p.ParseBinaryFile("model.caffemodel"); err != nil {
//	    return err
//	}
//	name, err := p.Field("name").Str()
//
// Both the binary wire format and the prototxt text format are supported.
// Unknown fields in binary input are skipped; unknown names in text input
// are an error because the text format carries no length prefix to skip by.
package pbuf
