// Copyright 2026 Lantern ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dnn provides the public API of the layer-graph engine and the
// legacy Torch model importer.
//
// # Example Usage
//
//	net := dnn.NewNet()
//	if err := dnn.ImportTorchModel("model.t7", net); err != nil {
//	    log.Fatal(err)
//	}
//	net.SetNetInputs([]string{"data"})
//	input, _ := tensor.New(tensor.Shape{1, 3, 224, 224}, tensor.Float32)
//	if err := net.SetBlob(".data", input); err != nil {
//	    log.Fatal(err)
//	}
//	if err := net.Forward(); err != nil {
//	    log.Fatal(err)
//	}
//
// Compute layers (Convolution, Pooling, activations) are registered by
// the embedding application through RegisterLayer; the engine itself
// ships only the structural layers importers synthesize.
package dnn

import (
	"github.com/lantern-ml/lantern/internal/dnn"
	"github.com/lantern-ml/lantern/internal/tensor"
	"github.com/lantern-ml/lantern/internal/torch"
)

// Net is a directed acyclic graph of layers.
type Net = dnn.Net

// Layer is the contract a layer implementation fulfills.
type Layer = dnn.Layer

// BaseLayer provides default layer behavior for embedding.
type BaseLayer = dnn.BaseLayer

// Params carries layer configuration and constant blobs.
type Params = dnn.Params

// Value is a scalar-or-array parameter value.
type Value = dnn.Value

// Pin identifies a specific output port of a layer.
type Pin = dnn.Pin

// Constructor builds a layer instance from its parameters.
type Constructor = dnn.Constructor

// Factory maps layer type names to constructors.
type Factory = dnn.Factory

// Error types surfaced by the engine.
type (
	// ConfigError reports invalid graph construction.
	ConfigError = dnn.ConfigError
	// ShapeError reports mismatched dimensions.
	ShapeError = dnn.ShapeError
	// NotImplementedError reports an unknown layer or container type.
	NotImplementedError = dnn.NotImplementedError
)

// NewNet creates an empty network using the process-wide layer factory.
func NewNet() *Net {
	return dnn.NewNet()
}

// NewNetWithFactory creates an empty network with an explicit factory.
func NewNetWithFactory(f *Factory) *Net {
	return dnn.NewNetWithFactory(f)
}

// NewFactory returns a factory preloaded with the structural layers.
func NewFactory() *Factory {
	return dnn.NewFactory()
}

// NewBaseLayer captures identity and blobs from params, for embedding
// in custom layer implementations.
func NewBaseLayer(params *Params) BaseLayer {
	return dnn.NewBaseLayer(params)
}

// StringValue wraps a string.
func StringValue(v string) Value {
	return dnn.StringValue(v)
}

// RegisterLayer registers a constructor in the process-wide factory.
// Registration of the same constructor twice is a no-op; a different
// constructor for a taken name is an error.
func RegisterLayer(typeName string, constructor Constructor) error {
	return dnn.RegisterLayer(typeName, constructor)
}

// UnregisterLayer removes a type from the process-wide factory.
func UnregisterLayer(typeName string) {
	dnn.UnregisterLayer(typeName)
}

// ImportTorchModel reads a serialized Torch model from disk and
// populates net with its flattened layer graph.
func ImportTorchModel(path string, net *Net) error {
	f, err := torch.OpenBinaryFile(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return torch.Import(f, net)
}

// ReadTorchBlob reads a file holding a single serialized tensor.
func ReadTorchBlob(path string) (*tensor.Tensor, error) {
	f, err := torch.OpenBinaryFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return torch.ReadBlob(f)
}
