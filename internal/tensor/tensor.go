package tensor

import (
	"fmt"
	"unsafe"
)

// Tensor is a shape plus an element type over a flat little-endian byte
// buffer. Reshape returns a view sharing the buffer; Clone copies it.
// Graph layers treat the buffer as their kernels' working memory.
type Tensor struct {
	shape Shape
	dtype DataType
	data  []byte
}

// New allocates a zero-filled tensor.
func New(shape Shape, dtype DataType) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &Tensor{
		shape: shape.Clone(),
		dtype: dtype,
		data:  make([]byte, shape.NumElements()*dtype.Size()),
	}, nil
}

// FromFloat32 allocates a float32 tensor and copies data into it.
func FromFloat32(data []float32, shape Shape) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t, err := New(shape, Float32)
	if err != nil {
		return nil, err
	}
	copy(t.AsFloat32(), data)
	return t, nil
}

// FromFloat64 allocates a float64 tensor and copies data into it.
func FromFloat64(data []float64, shape Shape) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t, err := New(shape, Float64)
	if err != nil {
		return nil, err
	}
	copy(t.AsFloat64(), data)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// DType returns the tensor's data type.
func (t *Tensor) DType() DataType {
	return t.dtype
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// Data returns the raw byte buffer.
//
// WARNING: Modifications to the returned slice modify the tensor.
func (t *Tensor) Data() []byte {
	return t.data
}

// AsFloat32 returns a float32 view of the buffer (zero-copy).
func (t *Tensor) AsFloat32() []float32 {
	if len(t.data) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&t.data[0])), len(t.data)/4)
}

// AsFloat64 returns a float64 view of the buffer (zero-copy).
func (t *Tensor) AsFloat64() []float64 {
	if len(t.data) == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&t.data[0])), len(t.data)/8)
}

// AsInt32 returns an int32 view of the buffer (zero-copy).
func (t *Tensor) AsInt32() []int32 {
	if len(t.data) == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&t.data[0])), len(t.data)/4)
}

// Reshape returns a view with a new shape sharing this tensor's storage.
// The element count must be preserved.
func (t *Tensor) Reshape(shape Shape) (*Tensor, error) {
	if shape.NumElements() != t.NumElements() {
		return nil, fmt.Errorf("cannot reshape %v (%d elements) to %v (%d elements)",
			t.shape, t.NumElements(), shape, shape.NumElements())
	}
	return &Tensor{shape: shape.Clone(), dtype: t.dtype, data: t.data}, nil
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	data := make([]byte, len(t.data))
	copy(data, t.data)
	return &Tensor{shape: t.shape.Clone(), dtype: t.dtype, data: data}
}

// SharesStorageWith reports whether two tensors alias the same buffer.
func (t *Tensor) SharesStorageWith(o *Tensor) bool {
	if len(t.data) == 0 || len(o.data) == 0 {
		return false
	}
	return &t.data[0] == &o.data[0]
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[%s]%v", t.dtype, t.shape)
}
