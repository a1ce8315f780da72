package tensor

import (
	"fmt"
	"unsafe"

	"github.com/x448/float16"
)

// RawTensor is the low-level tensor representation: a flat byte store
// with a shape, row-major strides and an element type tag. Views created
// by Transpose, Squeeze and Unsqueeze alias the same store with adjusted
// shape and strides; the shape of a tensor never changes after creation.
type RawTensor struct {
	data   []byte
	shape  Shape
	stride []int
	dtype  DataType
	offset int // element offset for views
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is zero-initialized.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	numElements := shape.NumElements()
	byteSize := numElements * dtype.Size()

	return &RawTensor{
		data:   make([]byte, byteSize),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		offset: 0,
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides, in elements.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// IsContiguous reports whether the tensor's elements are laid out
// densely in row-major order. Views produced by Transpose are generally
// not contiguous.
func (r *RawTensor) IsContiguous() bool {
	if r.offset != 0 {
		return false
	}
	expected := r.shape.ComputeStrides()
	for i := range expected {
		if r.shape[i] != 1 && r.stride[i] != expected[i] {
			return false
		}
	}
	return true
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.data[r.offset*r.dtype.Size():]
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	data := r.Data()
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	data := r.Data()
	return unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsFloat16 interprets the data as raw IEEE 754 half-precision bits.
// Panics if the tensor's dtype is not Float16.
func (r *RawTensor) AsFloat16() []uint16 {
	if r.dtype != Float16 {
		panic(fmt.Sprintf("tensor dtype is %s, not float16", r.dtype))
	}
	data := r.Data()
	return unsafe.Slice((*uint16)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsInt32 interprets the data as []int32.
// Panics if the tensor's dtype is not Int32.
func (r *RawTensor) AsInt32() []int32 {
	if r.dtype != Int32 {
		panic(fmt.Sprintf("tensor dtype is %s, not int32", r.dtype))
	}
	data := r.Data()
	return unsafe.Slice((*int32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsInt64 interprets the data as []int64.
// Panics if the tensor's dtype is not Int64.
func (r *RawTensor) AsInt64() []int64 {
	if r.dtype != Int64 {
		panic(fmt.Sprintf("tensor dtype is %s, not int64", r.dtype))
	}
	data := r.Data()
	return unsafe.Slice((*int64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsUint8 interprets the data as []uint8.
// Panics if the tensor's dtype is not Uint8.
func (r *RawTensor) AsUint8() []uint8 {
	if r.dtype != Uint8 {
		panic(fmt.Sprintf("tensor dtype is %s, not uint8", r.dtype))
	}
	return r.Data()
}

// AsBool interprets the data as []bool.
// Panics if the tensor's dtype is not Bool.
func (r *RawTensor) AsBool() []bool {
	if r.dtype != Bool {
		panic(fmt.Sprintf("tensor dtype is %s, not bool", r.dtype))
	}
	data := r.Data()
	return unsafe.Slice((*bool)(unsafe.Pointer(&data[0])), r.NumElements())
}

// elementOffset maps a multi-index to a flat element offset through the
// tensor's strides, bounds-checking each index.
func (r *RawTensor) elementOffset(indices []int) int {
	if len(indices) != len(r.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(r.shape), len(indices)))
	}
	offset := r.offset
	for i, idx := range indices {
		if idx < 0 || idx >= r.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, r.shape[i]))
		}
		offset += idx * r.stride[i]
	}
	return offset
}

// FloatAt returns the element at the given multi-index, widened to
// float64. Bool reads as 0 or 1.
func (r *RawTensor) FloatAt(indices ...int) float64 {
	off := r.elementOffset(indices)
	data := r.data
	switch r.dtype {
	case Float32:
		return float64(*(*float32)(unsafe.Pointer(&data[off*4])))
	case Float64:
		return *(*float64)(unsafe.Pointer(&data[off*8]))
	case Float16:
		bits := *(*uint16)(unsafe.Pointer(&data[off*2]))
		return float64(float16.Frombits(bits).Float32())
	case Int32:
		return float64(*(*int32)(unsafe.Pointer(&data[off*4])))
	case Int64:
		return float64(*(*int64)(unsafe.Pointer(&data[off*8])))
	case Uint8:
		return float64(data[off])
	case Bool:
		if data[off] != 0 {
			return 1
		}
		return 0
	default:
		panic("unknown data type")
	}
}

// SetFloat stores a float64 value at the given multi-index, narrowing
// to the tensor's element type.
func (r *RawTensor) SetFloat(value float64, indices ...int) {
	off := r.elementOffset(indices)
	data := r.data
	switch r.dtype {
	case Float32:
		*(*float32)(unsafe.Pointer(&data[off*4])) = float32(value)
	case Float64:
		*(*float64)(unsafe.Pointer(&data[off*8])) = value
	case Float16:
		*(*uint16)(unsafe.Pointer(&data[off*2])) = float16.Fromfloat32(float32(value)).Bits()
	case Int32:
		*(*int32)(unsafe.Pointer(&data[off*4])) = int32(value)
	case Int64:
		*(*int64)(unsafe.Pointer(&data[off*8])) = int64(value)
	case Uint8:
		data[off] = uint8(value)
	case Bool:
		if value != 0 {
			data[off] = 1
		} else {
			data[off] = 0
		}
	default:
		panic("unknown data type")
	}
}

// IntAt returns the element at the given multi-index, widened to int64.
// Float elements are truncated toward zero.
func (r *RawTensor) IntAt(indices ...int) int64 {
	off := r.elementOffset(indices)
	data := r.data
	switch r.dtype {
	case Int32:
		return int64(*(*int32)(unsafe.Pointer(&data[off*4])))
	case Int64:
		return *(*int64)(unsafe.Pointer(&data[off*8]))
	case Uint8:
		return int64(data[off])
	case Bool:
		if data[off] != 0 {
			return 1
		}
		return 0
	default:
		return int64(r.FloatAt(indices...))
	}
}

// SetInt stores an int64 value at the given multi-index, narrowing to
// the tensor's element type.
func (r *RawTensor) SetInt(value int64, indices ...int) {
	off := r.elementOffset(indices)
	data := r.data
	switch r.dtype {
	case Int32:
		*(*int32)(unsafe.Pointer(&data[off*4])) = int32(value)
	case Int64:
		*(*int64)(unsafe.Pointer(&data[off*8])) = value
	case Uint8:
		data[off] = uint8(value)
	case Bool:
		if value != 0 {
			data[off] = 1
		} else {
			data[off] = 0
		}
	default:
		r.SetFloat(float64(value), indices...)
	}
}

// Clone creates a deep copy of the RawTensor. The copy is always
// contiguous, regardless of the layout of the source.
func (r *RawTensor) Clone() *RawTensor {
	clone, err := NewRaw(r.shape, r.dtype)
	if err != nil {
		panic(err) // source shape was already validated
	}
	if r.IsContiguous() {
		copy(clone.data, r.Data()[:r.ByteSize()])
		return clone
	}
	idx := make([]int, len(r.shape))
	for i := 0; i < r.NumElements(); i++ {
		clone.SetFloat(r.FloatAt(idx...), idx...)
		incrementIndex(idx, r.shape)
	}
	return clone
}

// view returns a tensor aliasing r's storage with the given layout.
func (r *RawTensor) view(shape Shape, stride []int) *RawTensor {
	return &RawTensor{
		data:   r.data,
		shape:  shape,
		stride: stride,
		dtype:  r.dtype,
		offset: r.offset,
	}
}

// incrementIndex advances a multi-index in row-major order.
func incrementIndex(idx []int, shape Shape) {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < shape[i] {
			return
		}
		idx[i] = 0
	}
}

// String returns a human-readable representation of the tensor.
func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor[%s]%v", r.dtype, r.shape)
}
