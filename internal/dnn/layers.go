package dnn

import (
	"github.com/lantern-ml/lantern/internal/tensor"
)

// Structural layers: pure data movement the importers rely on. Compute
// kernels (Convolution, Pooling, activations) are registered by the
// embedding application.

func (f *Factory) registerStructuralLayers() {
	f.constructors["split"] = newSplitLayer
	f.constructors["concat"] = newConcatLayer
	f.constructors["slice"] = newSliceLayer
	f.constructors["reshape"] = newReshapeLayer
	f.constructors["identity"] = newIdentityLayer
	f.constructors["eltwise"] = newEltwiseLayer
	f.constructors["maxunpool"] = newMaxUnpoolLayer
}

func prod(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// splitLayer fans its single input out into as many identical outputs
// as consumers require.
type splitLayer struct {
	BaseLayer
}

func newSplitLayer(params *Params) (Layer, error) {
	return &splitLayer{BaseLayer: NewBaseLayer(params)}, nil
}

func (l *splitLayer) GetMemoryShapes(inputs []tensor.Shape, requiredOutputs int) ([]tensor.Shape, []tensor.Shape, bool, error) {
	if len(inputs) != 1 {
		return nil, nil, false, shapeErr(l.Name, "split expects one input, got %d", len(inputs))
	}
	n := requiredOutputs
	if n < 1 {
		n = 1
	}
	outputs := make([]tensor.Shape, n)
	for i := range outputs {
		outputs[i] = inputs[0].Clone()
	}
	return outputs, nil, false, nil
}

func (l *splitLayer) Forward(inputs, outputs, internals []*tensor.Tensor) error {
	for _, out := range outputs {
		if out != nil {
			copy(out.Data(), inputs[0].Data())
		}
	}
	return nil
}

// concatLayer joins its inputs along one axis; all other dimensions
// must agree.
type concatLayer struct {
	BaseLayer
	axis int
}

func newConcatLayer(params *Params) (Layer, error) {
	return &concatLayer{BaseLayer: NewBaseLayer(params), axis: params.GetInt("axis", 1)}, nil
}

func (l *concatLayer) GetMemoryShapes(inputs []tensor.Shape, requiredOutputs int) ([]tensor.Shape, []tensor.Shape, bool, error) {
	if len(inputs) == 0 {
		return nil, nil, false, shapeErr(l.Name, "concat has no inputs")
	}
	first := inputs[0]
	if l.axis < 0 || l.axis >= len(first) {
		return nil, nil, false, shapeErr(l.Name, "concat axis %d out of range for shape %v", l.axis, first)
	}
	out := first.Clone()
	for _, in := range inputs[1:] {
		if len(in) != len(first) {
			return nil, nil, false, shapeErr(l.Name, "rank mismatch: %v vs %v", first, in)
		}
		for d := range in {
			if d == l.axis {
				continue
			}
			if in[d] != first[d] {
				return nil, nil, false, shapeErr(l.Name, "dimension %d mismatch: %v vs %v", d, first, in)
			}
		}
		out[l.axis] += in[l.axis]
	}
	return []tensor.Shape{out}, nil, false, nil
}

func (l *concatLayer) Forward(inputs, outputs, internals []*tensor.Tensor) error {
	out := outputs[0].AsFloat32()
	outShape := outputs[0].Shape()
	outer := prod(outShape[:l.axis])
	outInner := prod(outShape[l.axis:])
	for o := 0; o < outer; o++ {
		dst := o * outInner
		for _, in := range inputs {
			inner := prod(in.Shape()[l.axis:])
			copy(out[dst:dst+inner], in.AsFloat32()[o*inner:(o+1)*inner])
			dst += inner
		}
	}
	return nil
}

// sliceLayer cuts its input into equal parts along one axis, one part
// per consumer.
type sliceLayer struct {
	BaseLayer
	axis int
}

func newSliceLayer(params *Params) (Layer, error) {
	return &sliceLayer{BaseLayer: NewBaseLayer(params), axis: params.GetInt("axis", 1)}, nil
}

func (l *sliceLayer) GetMemoryShapes(inputs []tensor.Shape, requiredOutputs int) ([]tensor.Shape, []tensor.Shape, bool, error) {
	if len(inputs) != 1 {
		return nil, nil, false, shapeErr(l.Name, "slice expects one input, got %d", len(inputs))
	}
	in := inputs[0]
	if l.axis < 0 || l.axis >= len(in) {
		return nil, nil, false, shapeErr(l.Name, "slice axis %d out of range for shape %v", l.axis, in)
	}
	num := requiredOutputs
	if num < 1 {
		num = 1
	}
	if in[l.axis]%num != 0 {
		return nil, nil, false, shapeErr(l.Name, "dimension %d of size %d not divisible into %d slices", l.axis, in[l.axis], num)
	}
	part := in.Clone()
	part[l.axis] /= num
	outputs := make([]tensor.Shape, num)
	for i := range outputs {
		outputs[i] = part.Clone()
	}
	return outputs, nil, false, nil
}

func (l *sliceLayer) Forward(inputs, outputs, internals []*tensor.Tensor) error {
	in := inputs[0].AsFloat32()
	inShape := inputs[0].Shape()
	outer := prod(inShape[:l.axis])
	inInner := prod(inShape[l.axis:])
	partInner := inInner / len(outputs)
	for i, out := range outputs {
		dst := out.AsFloat32()
		for o := 0; o < outer; o++ {
			src := o*inInner + i*partInner
			copy(dst[o*partInner:(o+1)*partInner], in[src:src+partInner])
		}
	}
	return nil
}

// identityLayer passes its inputs through in place.
type identityLayer struct {
	BaseLayer
}

func newIdentityLayer(params *Params) (Layer, error) {
	return &identityLayer{BaseLayer: NewBaseLayer(params)}, nil
}

func (l *identityLayer) GetMemoryShapes(inputs []tensor.Shape, requiredOutputs int) ([]tensor.Shape, []tensor.Shape, bool, error) {
	outputs := make([]tensor.Shape, len(inputs))
	for i, in := range inputs {
		outputs[i] = in.Clone()
	}
	return outputs, nil, true, nil
}

func (l *identityLayer) Forward(inputs, outputs, internals []*tensor.Tensor) error {
	for i, out := range outputs {
		if i < len(inputs) && !out.SharesStorageWith(inputs[i]) {
			copy(out.Data(), inputs[i].Data())
		}
	}
	return nil
}

// reshapeLayer rewrites a span of the input shape. Inside the new span,
// 0 copies the input dimension at the same position and -1 infers the
// one remaining extent. Reshape is an in-place view.
type reshapeLayer struct {
	BaseLayer
	axis    int
	numAxes int
	dims    []int
}

func newReshapeLayer(params *Params) (Layer, error) {
	l := &reshapeLayer{
		BaseLayer: NewBaseLayer(params),
		axis:      params.GetInt("axis", 0),
		numAxes:   params.GetInt("num_axes", -1),
	}
	if v, ok := params.Get("dim"); ok {
		for _, d := range v.Reals() {
			l.dims = append(l.dims, int(d))
		}
	}
	return l, nil
}

func (l *reshapeLayer) GetMemoryShapes(inputs []tensor.Shape, requiredOutputs int) ([]tensor.Shape, []tensor.Shape, bool, error) {
	if len(inputs) != 1 {
		return nil, nil, false, shapeErr(l.Name, "reshape expects one input, got %d", len(inputs))
	}
	in := inputs[0]
	if l.axis < 0 || l.axis > len(in) {
		return nil, nil, false, shapeErr(l.Name, "reshape axis %d out of range for shape %v", l.axis, in)
	}
	end := len(in)
	if l.numAxes >= 0 {
		end = l.axis + l.numAxes
		if end > len(in) {
			return nil, nil, false, shapeErr(l.Name, "reshape span [%d, %d) exceeds shape %v", l.axis, end, in)
		}
	}

	spanTotal := prod(in[l.axis:end])
	out := in[:l.axis].Clone()
	known := 1
	infer := -1
	for i, d := range l.dims {
		switch {
		case d == 0:
			if l.axis+i >= end {
				return nil, nil, false, shapeErr(l.Name, "reshape dim 0 at position %d has no source axis", i)
			}
			d = in[l.axis+i]
		case d == -1:
			if infer >= 0 {
				return nil, nil, false, shapeErr(l.Name, "reshape allows a single -1 dimension")
			}
			infer = len(out)
			out = append(out, -1)
			continue
		}
		known *= d
		out = append(out, d)
	}
	if infer >= 0 {
		if known == 0 || spanTotal%known != 0 {
			return nil, nil, false, shapeErr(l.Name, "cannot infer dimension: %d elements over %d", spanTotal, known)
		}
		out[infer] = spanTotal / known
	}
	out = append(out, in[end:]...)
	if out.NumElements() != in.NumElements() {
		return nil, nil, false, shapeErr(l.Name, "reshape changes element count: %v to %v", in, out)
	}
	return []tensor.Shape{out}, nil, true, nil
}

func (l *reshapeLayer) Forward(inputs, outputs, internals []*tensor.Tensor) error {
	if !outputs[0].SharesStorageWith(inputs[0]) {
		copy(outputs[0].Data(), inputs[0].Data())
	}
	return nil
}

// eltwiseLayer combines equally-shaped inputs element by element.
// Only summation is needed by the importer.
type eltwiseLayer struct {
	BaseLayer
}

func newEltwiseLayer(params *Params) (Layer, error) {
	if op := params.GetString("operation", "sum"); op != "sum" {
		return nil, &NotImplementedError{What: "eltwise operation " + op}
	}
	return &eltwiseLayer{BaseLayer: NewBaseLayer(params)}, nil
}

func (l *eltwiseLayer) GetMemoryShapes(inputs []tensor.Shape, requiredOutputs int) ([]tensor.Shape, []tensor.Shape, bool, error) {
	if len(inputs) == 0 {
		return nil, nil, false, shapeErr(l.Name, "eltwise has no inputs")
	}
	for _, in := range inputs[1:] {
		if !in.Equal(inputs[0]) {
			return nil, nil, false, shapeErr(l.Name, "eltwise shape mismatch: %v vs %v", inputs[0], in)
		}
	}
	return []tensor.Shape{inputs[0].Clone()}, nil, false, nil
}

func (l *eltwiseLayer) Forward(inputs, outputs, internals []*tensor.Tensor) error {
	out := outputs[0].AsFloat32()
	copy(out, inputs[0].AsFloat32())
	for _, in := range inputs[1:] {
		for i, v := range in.AsFloat32() {
			out[i] += v
		}
	}
	return nil
}

// maxUnpoolLayer reverses a max pooling given the pooled values and the
// element indices recorded by the pooling layer. Indices address
// positions within each spatial plane.
type maxUnpoolLayer struct {
	BaseLayer
	kernelH, kernelW int
	strideH, strideW int
	padH, padW       int
}

func newMaxUnpoolLayer(params *Params) (Layer, error) {
	return &maxUnpoolLayer{
		BaseLayer: NewBaseLayer(params),
		kernelH:   params.GetInt("pool_k_h", 1),
		kernelW:   params.GetInt("pool_k_w", 1),
		strideH:   params.GetInt("pool_stride_h", 1),
		strideW:   params.GetInt("pool_stride_w", 1),
		padH:      params.GetInt("pool_pad_h", 0),
		padW:      params.GetInt("pool_pad_w", 0),
	}, nil
}

func (l *maxUnpoolLayer) GetMemoryShapes(inputs []tensor.Shape, requiredOutputs int) ([]tensor.Shape, []tensor.Shape, bool, error) {
	if len(inputs) != 2 {
		return nil, nil, false, shapeErr(l.Name, "max unpooling expects data and indices, got %d inputs", len(inputs))
	}
	in := inputs[0]
	if len(in) != 4 {
		return nil, nil, false, shapeErr(l.Name, "max unpooling expects a 4-d input, got %v", in)
	}
	out := in.Clone()
	out[2] = (in[2]-1)*l.strideH - 2*l.padH + l.kernelH
	out[3] = (in[3]-1)*l.strideW - 2*l.padW + l.kernelW
	return []tensor.Shape{out}, nil, false, nil
}

func (l *maxUnpoolLayer) Forward(inputs, outputs, internals []*tensor.Tensor) error {
	data := inputs[0].AsFloat32()
	indices := inputs[1].AsFloat32()
	out := outputs[0].AsFloat32()
	for i := range out {
		out[i] = 0
	}
	inShape := inputs[0].Shape()
	outShape := outputs[0].Shape()
	planes := inShape[0] * inShape[1]
	inPlane := inShape[2] * inShape[3]
	outPlane := outShape[2] * outShape[3]
	for p := 0; p < planes; p++ {
		for i := 0; i < inPlane; i++ {
			idx := int(indices[p*inPlane+i])
			if idx < 0 || idx >= outPlane {
				return shapeErr(l.Name, "unpool index %d outside plane of %d elements", idx, outPlane)
			}
			out[p*outPlane+idx] = data[p*inPlane+i]
		}
	}
	return nil
}
