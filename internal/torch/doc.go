// Package torch reads legacy serialized Torch7 module trees and
// flattens them into a layer graph.
//
// The serialization is an object graph of Lua values: numbers, strings,
// tables, and torch classes (storages, tensors, nn modules). Nested
// containers (Sequential, Concat, Parallel, ConcatTable, JoinTable,
// CAddTable) are read into a Module tree first; the Importer then emits
// a flat graph, synthesizing Split/Slice/Concat/Eltwise nodes for the
// container semantics that depend on position among siblings.
//
// The byte-level reading is abstracted behind the File interface; the
// package ships a little-endian binary implementation.
package torch
