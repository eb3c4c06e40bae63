package pbuf

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Parser ties a compiled schema to parsing entry points. A parser is
// built once per (descriptor set, root message) pair and can parse any
// number of instances; each parse replaces the previous result.
//
// The caller must serialize access: a Parser is not safe for concurrent
// use, though independent parsers are fully independent.
type Parser struct {
	message *Message
}

// NewParser compiles the schema for rootMessage out of a binary
// descriptor set (the output of protoc -o). The root name is fully
// qualified with a leading dot, e.g. ".caffe.NetParameter".
func NewParser(descriptor []byte, rootMessage string) (*Parser, error) {
	return NewParserDepth(descriptor, rootMessage, DefaultDescriptorDepth)
}

// NewParserDepth is NewParser with an explicit bootstrap nesting depth.
func NewParserDepth(descriptor []byte, rootMessage string, maxMsgDepth int) (*Parser, error) {
	fds := NewFileDescriptorSet(maxMsgDepth)
	if err := fds.readBinary(NewStream(descriptor)); err != nil {
		return nil, err
	}

	root := newNode([]Field{fds})
	files := root.Field("file")
	typeNodes := make(map[string]Node)
	proto3 := false
	for i := 0; i < files.Size(); i++ {
		file := files.Index(i)
		if err := collectFileTypes(file, typeNodes); err != nil {
			return nil, err
		}
		if file.Has("syntax") {
			syntax, err := file.Field("syntax").Str()
			if err != nil {
				return nil, err
			}
			proto3 = proto3 || syntax == "proto3"
		}
	}

	built := make(map[string]*Message)
	msg, err := buildMessage(rootMessage, typeNodes, built, proto3)
	if err != nil {
		return nil, err
	}
	return &Parser{message: msg}, nil
}

// NewParserFromFile reads a descriptor set from disk. Files ending in
// .gz are decompressed transparently.
func NewParserFromFile(path, rootMessage string) (*Parser, error) {
	data, err := readMaybeGzip(path)
	if err != nil {
		return nil, err
	}
	return NewParser(data, rootMessage)
}

// ParseBinary parses one wire-format instance against the schema.
func (p *Parser) ParseBinary(data []byte) error {
	return p.message.readBinary(NewStream(data))
}

// ParseBinaryFrom parses a wire-format instance from a reader.
func (p *Parser) ParseBinaryFrom(r io.Reader) error {
	s, err := NewStreamFrom(r)
	if err != nil {
		return err
	}
	return p.message.readBinary(s)
}

// ParseBinaryFile parses a wire-format instance from disk, decompressing
// .gz files transparently.
func (p *Parser) ParseBinaryFile(path string) error {
	data, err := readMaybeGzip(path)
	if err != nil {
		return err
	}
	return p.ParseBinary(data)
}

// ParseText parses one text-format instance against the schema. The
// document is wrapped in braces so the top level reads like an embedded
// message; the binary format has a length prefix serving that role.
func (p *Parser) ParseText(data []byte) error {
	content := "{" + stripComments(string(data)) + "}"
	c := &tokenCursor{tokens: tokenize(content)}
	return p.message.readText(c)
}

// ParseTextFile parses a text-format instance from disk, decompressing
// .gz files transparently.
func (p *Parser) ParseTextFile(path string) error {
	data, err := readMaybeGzip(path)
	if err != nil {
		return err
	}
	return p.ParseText(data)
}

// Root returns a node over the parsed root message.
func (p *Parser) Root() Node {
	return newNode([]Field{p.message})
}

// Field returns the named field of the parsed root message.
func (p *Parser) Field(name string) Node {
	return p.message.Node(name)
}

// Has reports whether the root message read the named field.
func (p *Parser) Has(name string) bool {
	return p.message.Has(name)
}

// Remove drops the idx-th parsed instance of the named root field.
func (p *Parser) Remove(name string, idx int) error {
	return p.message.Remove(name, idx)
}

// readMaybeGzip loads a file, decompressing it when the name ends in .gz.
func readMaybeGzip(path string) ([]byte, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is provided by the caller on purpose.
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, parseErr("stream", -1, "open gzip %s: %v", path, err)
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(r)
}
