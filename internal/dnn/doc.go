// Package dnn implements the layer-graph engine: a directed acyclic
// computation graph of layers with named tensor pins, shape inference,
// topological buffer allocation with in-place reuse, and recursive
// forward evaluation.
//
// Layers are created through a factory registry by type name. The
// package registers the structural layers the importers synthesize
// (Split, Concat, Slice, Reshape, Identity, Eltwise, MaxUnpool);
// arithmetic-heavy layers such as Convolution are supplied by the
// embedding application.
//
// All operations run on the caller's goroutine. A Net must not be
// shared between goroutines without external serialization.
package dnn
