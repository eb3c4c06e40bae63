package dnn

import (
	"github.com/lantern-ml/lantern/internal/tensor"
)

// Layer is the contract a layer implementation fulfills. Instances are
// created by the factory on first use and live as long as the network.
type Layer interface {
	// GetMemoryShapes infers output and internal-scratch shapes from
	// the input shapes. requiredOutputs is how many outputs downstream
	// layers consume. The inplace result declares that outputs may
	// alias inputs; the allocator has the final word.
	GetMemoryShapes(inputs []tensor.Shape, requiredOutputs int) (outputs, internals []tensor.Shape, inplace bool, err error)

	// Finalize is called once per allocation pass, after output buffers
	// exist and before the first Forward.
	Finalize(inputs, outputs []*tensor.Tensor) error

	// Forward computes outputs from inputs using internals as scratch.
	Forward(inputs, outputs, internals []*tensor.Tensor) error

	// InputNameToIndex resolves a named input pin, -1 when unknown.
	InputNameToIndex(name string) int

	// OutputNameToIndex resolves a named output pin, -1 when unknown.
	OutputNameToIndex(name string) int
}

// BaseLayer provides default behavior for layer implementations: shape
// passthrough, no-op finalize, and unresolvable pin names. Embed it and
// override what the layer actually needs.
type BaseLayer struct {
	Name  string
	Type  string
	Blobs []*tensor.Tensor
}

// NewBaseLayer captures identity and blobs from params.
func NewBaseLayer(params *Params) BaseLayer {
	return BaseLayer{Name: params.Name, Type: params.Type, Blobs: params.Blobs}
}

// GetMemoryShapes returns max(requiredOutputs, len(inputs)) copies of
// the first input shape and no internals.
func (l *BaseLayer) GetMemoryShapes(inputs []tensor.Shape, requiredOutputs int) ([]tensor.Shape, []tensor.Shape, bool, error) {
	if len(inputs) == 0 {
		return nil, nil, false, shapeErr(l.Name, "layer has no inputs")
	}
	n := requiredOutputs
	if len(inputs) > n {
		n = len(inputs)
	}
	outputs := make([]tensor.Shape, n)
	for i := range outputs {
		outputs[i] = inputs[0].Clone()
	}
	return outputs, nil, false, nil
}

// Finalize does nothing.
func (l *BaseLayer) Finalize(inputs, outputs []*tensor.Tensor) error { return nil }

// InputNameToIndex reports no named input pins.
func (l *BaseLayer) InputNameToIndex(name string) int { return -1 }

// OutputNameToIndex reports no named output pins.
func (l *BaseLayer) OutputNameToIndex(name string) int { return -1 }
