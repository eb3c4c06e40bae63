// Copyright 2026 Lantern ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the tensor abstraction the
// engine runs on: a shape, an element type and a flat byte buffer.
//
// Reshape returns a view sharing storage; Clone copies. The engine
// allocates layer outputs as float32 tensors and aliases in-place
// layers' outputs onto their inputs.
package tensor

import (
	"github.com/lantern-ml/lantern/internal/tensor"
)

// Shape represents the dimensions of a tensor.
// Example: Shape{1, 3, 224, 224} is a standard NCHW image batch.
type Shape = tensor.Shape

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Tensor is the flat tensor representation.
type Tensor = tensor.Tensor

// New allocates a zero-filled tensor.
func New(shape Shape, dtype DataType) (*Tensor, error) {
	return tensor.New(shape, dtype)
}

// FromFloat32 allocates a float32 tensor and copies data into it.
func FromFloat32(data []float32, shape Shape) (*Tensor, error) {
	return tensor.FromFloat32(data, shape)
}

// FromFloat64 allocates a float64 tensor and copies data into it.
func FromFloat64(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromFloat64(data, shape)
}
