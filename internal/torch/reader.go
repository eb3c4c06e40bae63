package torch

import (
	"fmt"
	"strings"

	"github.com/lantern-ml/lantern/internal/dnn"
	"github.com/lantern-ml/lantern/internal/tensor"
)

// Lua value type ids as written by torch.save.
const (
	typeNil           = 0
	typeNumber        = 1
	typeString        = 2
	typeTable         = 3
	typeTorch         = 4
	typeBoolean       = 5
	typeFunction      = 6
	legacyRecFunction = 7
	typeRecFunction   = 8
)

// torchType is the element type of a storage or tensor class.
type torchType int

const (
	torchFloat torchType = iota
	torchDouble
	torchByte
	torchChar
	torchShort
	torchInt
	torchLong
)

// parseTorchType matches "torch.<Type><suffix>" class names.
func parseTorchType(className, suffix string) (torchType, bool, error) {
	const prefix = "torch."
	if !strings.HasPrefix(className, prefix) || !strings.HasSuffix(className, suffix) {
		return 0, false, nil
	}
	typeStr := className[len(prefix) : len(className)-len(suffix)]
	switch typeStr {
	case "Float", "Cuda":
		return torchFloat, true, nil
	case "Double":
		return torchDouble, true, nil
	case "Byte":
		return torchByte, true, nil
	case "Char":
		return torchChar, true, nil
	case "Short":
		return torchShort, true, nil
	case "Int":
		return torchInt, true, nil
	case "Long":
		return torchLong, true, nil
	default:
		return 0, false, &dnn.NotImplementedError{What: "torch class " + className}
	}
}

// nnClassName strips a known nn-library prefix, reporting a match.
func nnClassName(className string) (string, bool) {
	for _, prefix := range []string{"nn.", "cunn.", "cudnn.", "fbcunn."} {
		if strings.HasPrefix(className, prefix) {
			return className[len(prefix):], true
		}
	}
	return "", false
}

// tensorRef is a deserialized tensor together with its object index;
// the index links pooling layers to their unpooling partners.
type tensorRef struct {
	index int
	t     *tensor.Tensor
}

// Reader deserializes one Torch object graph. Shared objects appear
// once and are referenced by index afterwards; seen tracks them.
type Reader struct {
	file     File
	seen     map[int]bool
	storages map[int][]float64
	tensors  map[int]*tensor.Tensor

	root *Module
	cur  *Module
}

// NewReader wraps a torch file.
func NewReader(f File) *Reader {
	return &Reader{
		file:     f,
		seen:     make(map[int]bool),
		storages: make(map[int][]float64),
		tensors:  make(map[int]*tensor.Tensor),
	}
}

// ReadModel reads the whole file into a module tree rooted at an
// implicit Sequential.
func (r *Reader) ReadModel() (*Module, error) {
	r.root = NewModule("Sequential", "")
	r.cur = r.root
	if err := r.file.Seek(0); err != nil {
		return nil, err
	}
	if err := r.readObject(); err != nil {
		return nil, err
	}
	return r.root, nil
}

// ReadBlob reads a file holding a single serialized tensor.
func ReadBlob(f File) (*tensor.Tensor, error) {
	r := NewReader(f)
	if err := r.readObject(); err != nil {
		return nil, err
	}
	if len(r.tensors) != 1 {
		return nil, fmt.Errorf("torch blob: file holds %d tensors, expected one", len(r.tensors))
	}
	for _, t := range r.tensors {
		return t, nil
	}
	return nil, nil
}

func (r *Reader) readBool() (bool, error) {
	v, err := r.file.ReadInt()
	return v != 0, err
}

// readClassName reads a class name, skipping the "V <version>" header
// newer files carry.
func (r *Reader) readClassName() (string, error) {
	version, err := r.file.ReadString()
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(version, "V ") {
		return r.file.ReadString()
	}
	return version, nil
}

func (r *Reader) readObject() error {
	typeidx, err := r.file.ReadInt()
	if err != nil {
		return err
	}
	switch typeidx {
	case typeTorch:
		index, err := r.file.ReadInt()
		if err != nil {
			return err
		}
		if err := r.readTorchObject(int(index)); err != nil {
			return err
		}
		r.seen[int(index)] = true
		return nil
	case typeNil:
		return nil
	case typeNumber:
		_, err := r.file.ReadDouble()
		return err
	case typeBoolean:
		_, err := r.readBool()
		return err
	case typeString:
		_, err := r.file.ReadString()
		return err
	case typeTable:
		return r.readTable(-1)
	default:
		return &dnn.NotImplementedError{What: fmt.Sprintf("Lua type id %d", typeidx)}
	}
}

func (r *Reader) readTable(index int) error {
	if index < 0 {
		v, err := r.file.ReadInt()
		if err != nil {
			return err
		}
		index = int(v)
	}
	if r.seen[index] {
		return nil
	}
	r.seen[index] = true

	size, err := r.file.ReadInt()
	if err != nil {
		return err
	}
	for i := 0; i < int(size); i++ {
		if err := r.readObject(); err != nil { // key
			return err
		}
		if err := r.readObject(); err != nil { // value
			return err
		}
	}
	return nil
}

// readTorchTable reads a module's state table, sorting entries into
// scalar parameters and tensor parameters. Non-string keys and values
// of other types are skipped.
func (r *Reader) readTorchTable() (map[string]dnn.Value, map[string]tensorRef, error) {
	scalars := make(map[string]dnn.Value)
	tensorParams := make(map[string]tensorRef)

	luaType, err := r.file.ReadInt()
	if err != nil {
		return nil, nil, err
	}
	index, err := r.file.ReadInt()
	if err != nil {
		return nil, nil, err
	}
	if luaType != typeTable || r.seen[int(index)] {
		return nil, nil, fmt.Errorf("torch reader: module state is not a fresh table")
	}
	r.seen[int(index)] = true

	numPairs, err := r.file.ReadInt()
	if err != nil {
		return nil, nil, err
	}
	for i := 0; i < int(numPairs); i++ {
		fpos, err := r.file.Position()
		if err != nil {
			return nil, nil, err
		}
		ktype, err := r.file.ReadInt()
		if err != nil {
			return nil, nil, err
		}
		if ktype != typeString {
			// Skip non-string keyed pairs wholesale.
			if err := r.file.Seek(fpos); err != nil {
				return nil, nil, err
			}
			if err := r.readObject(); err != nil {
				return nil, nil, err
			}
			if err := r.readObject(); err != nil {
				return nil, nil, err
			}
			continue
		}
		key, err := r.file.ReadString()
		if err != nil {
			return nil, nil, err
		}

		fpos, err = r.file.Position()
		if err != nil {
			return nil, nil, err
		}
		vtype, err := r.file.ReadInt()
		if err != nil {
			return nil, nil, err
		}
		switch vtype {
		case typeTorch:
			idx, err := r.file.ReadInt()
			if err != nil {
				return nil, nil, err
			}
			if err := r.readTorchObject(int(idx)); err != nil {
				return nil, nil, err
			}
			if t, ok := r.tensors[int(idx)]; ok {
				tensorParams[key] = tensorRef{index: int(idx), t: t}
			} else if st, ok := r.storages[int(idx)]; ok {
				scalars[key] = dnn.RealsValue(st)
			}
		case typeNumber:
			v, err := r.file.ReadDouble()
			if err != nil {
				return nil, nil, err
			}
			scalars[key] = dnn.FloatValue(v)
		case typeString:
			v, err := r.file.ReadString()
			if err != nil {
				return nil, nil, err
			}
			scalars[key] = dnn.StringValue(v)
		case typeBoolean:
			v, err := r.readBool()
			if err != nil {
				return nil, nil, err
			}
			scalars[key] = dnn.BoolValue(v)
		default:
			if err := r.file.Seek(fpos); err != nil {
				return nil, nil, err
			}
			if err := r.readObject(); err != nil {
				return nil, nil, err
			}
		}
	}
	return scalars, tensorParams, nil
}

func (r *Reader) readStorage(index int, tt torchType) error {
	size, err := r.file.ReadLong()
	if err != nil {
		return err
	}
	n := int(size)
	values := make([]float64, n)
	switch tt {
	case torchFloat:
		v, err := r.file.ReadFloatArray(n)
		if err != nil {
			return err
		}
		for i, x := range v {
			values[i] = float64(x)
		}
	case torchDouble:
		v, err := r.file.ReadDoubleArray(n)
		if err != nil {
			return err
		}
		copy(values, v)
	case torchByte, torchChar:
		v, err := r.file.ReadByteArray(n)
		if err != nil {
			return err
		}
		for i, x := range v {
			values[i] = float64(x)
		}
	case torchShort:
		v, err := r.file.ReadShortArray(n)
		if err != nil {
			return err
		}
		for i, x := range v {
			values[i] = float64(x)
		}
	case torchInt:
		v, err := r.file.ReadIntArray(n)
		if err != nil {
			return err
		}
		for i, x := range v {
			values[i] = float64(x)
		}
	case torchLong:
		v, err := r.file.ReadLongArray(n)
		if err != nil {
			return err
		}
		for i, x := range v {
			values[i] = float64(x)
		}
	}
	r.storages[index] = values
	return nil
}

func (r *Reader) readTensor(index int, tt torchType) error {
	ndims32, err := r.file.ReadInt()
	if err != nil {
		return err
	}
	ndims := int(ndims32)
	sizes, err := r.file.ReadLongArray(ndims)
	if err != nil {
		return err
	}
	steps, err := r.file.ReadLongArray(ndims)
	if err != nil {
		return err
	}
	offsetPlusOne, err := r.file.ReadLong()
	if err != nil {
		return err
	}
	offset := offsetPlusOne - 1

	typeidx, err := r.file.ReadInt()
	if err != nil {
		return err
	}
	if typeidx == typeNil && ndims == 0 {
		empty, err := tensor.New(tensor.Shape{0}, tensor.Float32)
		if err != nil {
			return err
		}
		r.tensors[index] = empty
		return nil
	}
	if typeidx != typeTorch {
		return fmt.Errorf("torch reader: tensor storage has Lua type id %d", typeidx)
	}

	storageIndex32, err := r.file.ReadInt()
	if err != nil {
		return err
	}
	storageIndex := int(storageIndex32)
	if !r.seen[storageIndex] {
		className, err := r.readClassName()
		if err != nil {
			return err
		}
		st, ok, err := parseTorchType(className, "Storage")
		if err != nil {
			return err
		}
		if !ok {
			return &dnn.NotImplementedError{What: "torch class " + className}
		}
		if err := r.readStorage(storageIndex, st); err != nil {
			return err
		}
		r.seen[storageIndex] = true
	}
	storage := r.storages[storageIndex]

	if ndims > 0 {
		required := offset + steps[0]*sizes[0]
		if required > int64(len(storage)) {
			return fmt.Errorf("torch reader: storage of %d elements too small for tensor needing %d", len(storage), required)
		}
	}

	shape := make(tensor.Shape, ndims)
	for i, s := range sizes {
		shape[i] = int(s)
	}
	t, err := tensor.New(shape, tensor.Float32)
	if err != nil {
		return err
	}
	dst := t.AsFloat32()

	// Gather elements honoring the serialized strides.
	counters := make([]int64, ndims)
	for flat := range dst {
		src := offset
		for d := 0; d < ndims; d++ {
			src += counters[d] * steps[d]
		}
		dst[flat] = float32(storage[src])
		for d := ndims - 1; d >= 0; d-- {
			counters[d]++
			if counters[d] < sizes[d] {
				break
			}
			counters[d] = 0
		}
	}
	r.tensors[index] = t
	return nil
}

// scalar lookup helpers for module conversion.

func reqInt(scalars map[string]dnn.Value, class, key string) (int, error) {
	v, ok := scalars[key]
	if !ok {
		return 0, fmt.Errorf("torch reader: %s lacks %q", class, key)
	}
	return v.Int(), nil
}

func reqFloat(scalars map[string]dnn.Value, class, key string) (float64, error) {
	v, ok := scalars[key]
	if !ok {
		return 0, fmt.Errorf("torch reader: %s lacks %q", class, key)
	}
	return v.Float64(), nil
}

// kernelParams copies the common kernel geometry into layer params.
func kernelParams(scalars map[string]dnn.Value, class string, params *dnn.Params) error {
	for _, m := range []struct{ dst, src string }{
		{"kernel_h", "kH"}, {"kernel_w", "kW"},
		{"stride_h", "dH"}, {"stride_w", "dW"},
	} {
		v, err := reqInt(scalars, class, m.src)
		if err != nil {
			return err
		}
		params.Set(m.dst, dnn.IntValue(int64(v)))
	}
	padH, padW := 0, 0
	if v, ok := scalars["padH"]; ok {
		padH = v.Int()
	}
	if v, ok := scalars["padW"]; ok {
		padW = v.Int()
	}
	params.Set("pad_h", dnn.IntValue(int64(padH)))
	params.Set("pad_w", dnn.IntValue(int64(padW)))
	return nil
}

// readTorchObject dispatches one torch-classed object: tensor, storage
// or nn module. Leaves are converted to their graph layer type with
// normalized parameters; containers recurse with the current module
// switched to the new node.
func (r *Reader) readTorchObject(index int) error { //nolint:gocognit,gocyclo,cyclop,funlen // one case per nn class, as flat dispatch
	if r.seen[index] {
		return nil
	}
	className, err := r.readClassName()
	if err != nil {
		return err
	}

	if tt, ok, err := parseTorchType(className, "Tensor"); err != nil {
		return err
	} else if ok {
		if err := r.readTensor(index, tt); err != nil {
			return err
		}
		r.seen[index] = true
		return nil
	}
	if tt, ok, err := parseTorchType(className, "Storage"); err != nil {
		return err
	} else if ok {
		if err := r.readStorage(index, tt); err != nil {
			return err
		}
		r.seen[index] = true
		return nil
	}

	nnName, ok := nnClassName(className)
	if !ok {
		return &dnn.NotImplementedError{What: "torch class " + className}
	}

	m := NewModule(nnName, "")
	m.Params.Set("torch_index", dnn.IntValue(int64(index)))

	switch nnName {
	case "Sequential", "Parallel", "Concat", "ConcatTable", "JoinTable":
		parent := r.cur
		parent.Children = append(parent.Children, m)
		r.cur = m
		scalars, _, err := r.readTorchTable()
		r.cur = parent
		if err != nil {
			return err
		}
		switch nnName {
		case "Parallel":
			for _, key := range []string{"inputDimension", "outputDimension"} {
				v, err := reqInt(scalars, nnName, key)
				if err != nil {
					return err
				}
				m.Params.Set(key, dnn.IntValue(int64(v)))
			}
		case "Concat", "JoinTable":
			v, err := reqInt(scalars, nnName, "dimension")
			if err != nil {
				return err
			}
			m.Params.Set("dimension", dnn.IntValue(int64(v)))
		}

	case "SpatialConvolution":
		m.APIType = "Convolution"
		scalars, tensors, err := r.readTorchTable()
		if err != nil {
			return err
		}
		weight, ok := tensors["weight"]
		if !ok {
			return fmt.Errorf("torch reader: SpatialConvolution lacks weight")
		}
		m.Params.Blobs = append(m.Params.Blobs, weight.t)
		bias, hasBias := tensors["bias"]
		m.Params.Set("bias_term", dnn.BoolValue(hasBias))
		if hasBias {
			m.Params.Blobs = append(m.Params.Blobs, bias.t)
		}
		numOutput, err := reqInt(scalars, nnName, "nOutputPlane")
		if err != nil {
			return err
		}
		m.Params.Set("num_output", dnn.IntValue(int64(numOutput)))
		if err := kernelParams(scalars, nnName, &m.Params); err != nil {
			return err
		}
		r.cur.Children = append(r.cur.Children, m)

	case "SpatialMaxPooling", "SpatialAveragePooling":
		m.APIType = "Pooling"
		scalars, tensors, err := r.readTorchTable()
		if err != nil {
			return err
		}
		if nnName == "SpatialMaxPooling" {
			m.Params.Set("pool", dnn.StringValue("MAX"))
			m.Params.Set("indices_blob_id", dnn.IntValue(int64(tensors["indices"].index)))
		} else {
			m.Params.Set("pool", dnn.StringValue("AVE"))
		}
		if err := kernelParams(scalars, nnName, &m.Params); err != nil {
			return err
		}
		r.cur.Children = append(r.cur.Children, m)

	case "Linear":
		m.APIType = "InnerProduct"
		_, tensors, err := r.readTorchTable()
		if err != nil {
			return err
		}
		weight, ok := tensors["weight"]
		if !ok {
			return fmt.Errorf("torch reader: Linear lacks weight")
		}
		m.Params.Blobs = append(m.Params.Blobs, weight.t)
		bias, hasBias := tensors["bias"]
		if hasBias {
			m.Params.Blobs = append(m.Params.Blobs, bias.t)
		}
		m.Params.Set("bias_term", dnn.BoolValue(hasBias))
		m.Params.Set("num_output", dnn.IntValue(int64(weight.t.Shape()[0])))
		r.cur.Children = append(r.cur.Children, m)

	case "Reshape":
		m.APIType = "Reshape"
		scalars, _, err := r.readTorchTable()
		if err != nil {
			return err
		}
		size, ok := scalars["size"]
		if !ok {
			return fmt.Errorf("torch reader: Reshape lacks size")
		}
		m.Params.Set("dim", size)
		if bm, ok := scalars["batchMode"]; ok && bm.Bool() {
			m.Params.Set("axis", dnn.IntValue(1))
		}
		r.cur.Children = append(r.cur.Children, m)

	case "ReLU":
		r.cur.Children = append(r.cur.Children, NewModule(nnName, "ReLU"))
		return r.finishObject(index)

	case "Tanh":
		r.cur.Children = append(r.cur.Children, NewModule(nnName, "TanH"))
		return r.finishObject(index)

	case "Sigmoid":
		r.cur.Children = append(r.cur.Children, NewModule(nnName, "Sigmoid"))
		return r.finishObject(index)

	case "SpatialBatchNormalization":
		m.APIType = "BatchNorm"
		scalars, tensors, err := r.readTorchTable()
		if err != nil {
			return err
		}
		mean, okMean := tensors["running_mean"]
		variance, okVar := tensors["running_var"]
		if !okMean || !okVar {
			return fmt.Errorf("torch reader: SpatialBatchNormalization lacks running statistics")
		}
		m.Params.Blobs = append(m.Params.Blobs, mean.t, variance.t)
		eps, err := reqFloat(scalars, nnName, "eps")
		if err != nil {
			return err
		}
		m.Params.Set("eps", dnn.FloatValue(eps))
		if w, ok := tensors["weight"]; ok {
			m.Params.Set("has_weight", dnn.BoolValue(true))
			m.Params.Blobs = append(m.Params.Blobs, w.t)
		}
		if b, ok := tensors["bias"]; ok {
			m.Params.Set("has_bias", dnn.BoolValue(true))
			m.Params.Blobs = append(m.Params.Blobs, b.t)
		}
		r.cur.Children = append(r.cur.Children, m)

	case "PReLU":
		scalars, tensors, err := r.readTorchTable()
		if err != nil {
			return err
		}
		weight, ok := tensors["weight"]
		if !ok {
			return fmt.Errorf("torch reader: PReLU lacks weight")
		}
		outputChannels := 0
		if v, ok := scalars["nOutputPlane"]; ok {
			outputChannels = v.Int()
		}
		if outputChannels > 0 {
			if weight.t.NumElements() != outputChannels {
				return fmt.Errorf("torch reader: PReLU weight holds %d slopes for %d channels",
					weight.t.NumElements(), outputChannels)
			}
			m.Params.Blobs = append(m.Params.Blobs, weight.t)
			m.APIType = "ChannelsPReLU"
		} else {
			if weight.t.NumElements() != 1 {
				return fmt.Errorf("torch reader: scalar PReLU weight holds %d elements", weight.t.NumElements())
			}
			m.Params.Set("negative_slope", dnn.FloatValue(float64(weight.t.AsFloat32()[0])))
			m.APIType = "ReLU"
		}
		r.cur.Children = append(r.cur.Children, m)

	case "SpatialDropout":
		scalars, _, err := r.readTorchTable()
		if err != nil {
			return err
		}
		p, err := reqFloat(scalars, nnName, "p")
		if err != nil {
			return err
		}
		scale := 1 - p
		if scale <= 0 {
			return fmt.Errorf("torch reader: SpatialDropout with p=%v has no inference scale", p)
		}
		m.APIType = "Power"
		m.Params.Set("scale", dnn.FloatValue(scale))
		r.cur.Children = append(r.cur.Children, m)

	case "Identity":
		if _, _, err := r.readTorchTable(); err != nil {
			return err
		}
		m.APIType = "Identity"
		r.cur.Children = append(r.cur.Children, m)

	case "Padding":
		scalars, _, err := r.readTorchTable()
		if err != nil {
			return err
		}
		m.APIType = "Padding"
		pad, err := reqFloat(scalars, nnName, "pad")
		if err != nil {
			return err
		}
		dim, err := reqFloat(scalars, nnName, "dim")
		if err != nil {
			return err
		}
		m.Params.Set("padding_dim", dnn.IntValue(int64(dim)-1))
		m.Params.Set("padding", dnn.IntValue(int64(pad)))
		if v, ok := scalars["nInputDim"]; ok {
			m.Params.Set("input_dims", dnn.IntValue(int64(v.Int())))
		}
		if v, ok := scalars["value"]; ok {
			m.Params.Set("value", dnn.FloatValue(v.Float64()))
		}
		if v, ok := scalars["index"]; ok {
			m.Params.Set("index", dnn.IntValue(int64(v.Int())-1))
		}
		r.cur.Children = append(r.cur.Children, m)

	case "CAddTable":
		r.cur.Children = append(r.cur.Children, m)
		return r.finishObject(index)

	case "SpatialDilatedConvolution":
		scalars, tensors, err := r.readTorchTable()
		if err != nil {
			return err
		}
		m.APIType = "Convolution"
		for _, p := range []struct{ dst, src string }{
			{"kernel_w", "kW"}, {"kernel_h", "kH"},
			{"pad_w", "padW"}, {"pad_h", "padH"},
			{"stride_w", "dW"}, {"stride_h", "dH"},
			{"dilation_w", "dilationW"}, {"dilation_h", "dilationH"},
			{"num_output", "nOutputPlane"},
		} {
			v, err := reqInt(scalars, nnName, p.src)
			if err != nil {
				return err
			}
			m.Params.Set(p.dst, dnn.IntValue(int64(v)))
		}
		weight, ok := tensors["weight"]
		if !ok {
			return fmt.Errorf("torch reader: SpatialDilatedConvolution lacks weight")
		}
		m.Params.Blobs = append(m.Params.Blobs, weight.t)
		bias, hasBias := tensors["bias"]
		m.Params.Set("bias_term", dnn.BoolValue(hasBias))
		if hasBias {
			m.Params.Blobs = append(m.Params.Blobs, bias.t)
		}
		r.cur.Children = append(r.cur.Children, m)

	case "SpatialFullConvolution":
		scalars, tensors, err := r.readTorchTable()
		if err != nil {
			return err
		}
		m.APIType = "Deconvolution"
		for _, p := range []struct{ dst, src string }{
			{"kernel_w", "kW"}, {"kernel_h", "kH"},
			{"pad_w", "padW"}, {"pad_h", "padH"},
			{"stride_w", "dW"}, {"stride_h", "dH"},
			{"adj_w", "adjW"}, {"adj_h", "adjH"},
			{"num_output", "nOutputPlane"},
		} {
			v, err := reqInt(scalars, nnName, p.src)
			if err != nil {
				return err
			}
			m.Params.Set(p.dst, dnn.IntValue(int64(v)))
		}
		weight, ok := tensors["weight"]
		if !ok {
			return fmt.Errorf("torch reader: SpatialFullConvolution lacks weight")
		}
		ws := weight.t.Shape()
		if len(ws) != 4 {
			return fmt.Errorf("torch reader: SpatialFullConvolution weight has %d dims, expected 4", len(ws))
		}
		reordered, err := weight.t.Reshape(tensor.Shape{ws[1], ws[0], ws[2], ws[3]})
		if err != nil {
			return err
		}
		m.Params.Blobs = append(m.Params.Blobs, reordered)
		bias, hasBias := tensors["bias"]
		m.Params.Set("bias_term", dnn.BoolValue(hasBias))
		if hasBias {
			m.Params.Blobs = append(m.Params.Blobs, bias.t)
		}
		r.cur.Children = append(r.cur.Children, m)

	case "SpatialMaxUnpooling":
		_, tensors, err := r.readTorchTable()
		if err != nil {
			return err
		}
		indices, ok := tensors["indices"]
		if !ok {
			return fmt.Errorf("torch reader: SpatialMaxUnpooling lacks indices")
		}
		m.Params.Set("indices_blob_id", dnn.IntValue(int64(indices.index)))
		r.cur.Children = append(r.cur.Children, m)

	default:
		return &dnn.NotImplementedError{What: "nn class " + className}
	}

	r.seen[index] = true
	return nil
}

// finishObject consumes the state table of a parameterless module and
// marks the object as seen.
func (r *Reader) finishObject(index int) error {
	if err := r.readObject(); err != nil {
		return err
	}
	r.seen[index] = true
	return nil
}
