// Copyright 2026 Lantern ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package pb provides the public API of the reflective protobuf
// parser: compile a schema from a descriptor set at runtime, then parse
// binary or text instances against it.
//
// # Example Usage
//
//	p, err := pb.NewParserFromFile("caffe.pb", ".caffe.NetParameter")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := p.ParseBinaryFile("model.caffemodel"); err != nil {
//	    log.Fatal(err)
//	}
//	layers := p.Field("layer")
//	for i := 0; i < layers.Size(); i++ {
//	    name, _ := layers.Index(i).Field("name").Str()
//	    fmt.Println(name)
//	}
//
// Descriptor and model files ending in .gz are decompressed on the fly.
package pb

import (
	"github.com/lantern-ml/lantern/internal/pbuf"
)

// Parser compiles one root message schema and parses instances of it.
type Parser = pbuf.Parser

// Node is a typed view over parsed fields.
type Node = pbuf.Node

// Error is the structured parser error.
type Error = pbuf.Error

// ErrKind classifies parser failures.
type ErrKind = pbuf.ErrKind

// Error kinds.
const (
	ErrParse ErrKind = pbuf.ErrParse
	ErrType  ErrKind = pbuf.ErrType
)

// NewParser compiles the schema for rootMessage out of a binary
// descriptor set. The root name carries a leading dot and the package,
// e.g. ".caffe.NetParameter".
func NewParser(descriptor []byte, rootMessage string) (*Parser, error) {
	return pbuf.NewParser(descriptor, rootMessage)
}

// NewParserFromFile reads the descriptor set from disk.
func NewParserFromFile(path, rootMessage string) (*Parser, error) {
	return pbuf.NewParserFromFile(path, rootMessage)
}
