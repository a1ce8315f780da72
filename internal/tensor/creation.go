package tensor

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Number is the constraint for numeric tensor element types.
type Number interface {
	constraints.Integer | constraints.Float
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy))
	if err != nil {
		return nil, err
	}
	copy(asSlice[T](raw), data)
	return raw, nil
}

// asSlice reinterprets a contiguous tensor's storage as []T.
func asSlice[T DType](r *RawTensor) []T {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return any(r.AsFloat32()).([]T)
	case float64:
		return any(r.AsFloat64()).([]T)
	case int32:
		return any(r.AsInt32()).([]T)
	case int64:
		return any(r.AsInt64()).([]T)
	case uint8:
		return any(r.AsUint8()).([]T)
	case bool:
		return any(r.AsBool()).([]T)
	default:
		panic("unsupported type")
	}
}

// At returns the element at the given indices as T.
// Panics if T does not match the tensor's dtype.
func At[T DType](r *RawTensor, indices ...int) T {
	var dummy T
	if inferDataType(dummy) != r.dtype {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, inferDataType(dummy)))
	}
	off := r.elementOffset(indices) - r.offset
	return asSlice[T](r)[off]
}

// Set stores an element at the given indices.
// Panics if T does not match the tensor's dtype.
func Set[T DType](r *RawTensor, value T, indices ...int) {
	var dummy T
	if inferDataType(dummy) != r.dtype {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, inferDataType(dummy)))
	}
	off := r.elementOffset(indices) - r.offset
	asSlice[T](r)[off] = value
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape, dtype DataType) *RawTensor {
	raw, err := NewRaw(shape, dtype)
	if err != nil {
		panic(err) // Shape validation should prevent this
	}
	return raw
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape, dtype DataType) *RawTensor {
	t := Zeros(shape, dtype)
	idx := make([]int, len(shape))
	for i := 0; i < t.NumElements(); i++ {
		t.SetFloat(1, idx...)
		incrementIndex(idx, shape)
	}
	return t
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, dtype DataType, value float64) *RawTensor {
	t := Zeros(shape, dtype)
	idx := make([]int, len(shape))
	for i := 0; i < t.NumElements(); i++ {
		t.SetFloat(value, idx...)
		incrementIndex(idx, shape)
	}
	return t
}

// Eye creates a 2D identity matrix.
func Eye(n int, dtype DataType) *RawTensor {
	t := Zeros(Shape{n, n}, dtype)
	for i := 0; i < n; i++ {
		t.SetFloat(1, i, i)
	}
	return t
}

// Tri creates an n×m matrix with ones at and below the k-th diagonal
// and zeros elsewhere. k=0 is the main diagonal, k>0 is above it.
func Tri(n, m, k int, dtype DataType) *RawTensor {
	t := Zeros(Shape{n, m}, dtype)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			if j-i <= k {
				t.SetFloat(1, i, j)
			}
		}
	}
	return t
}

// Arange creates a 1D tensor with values from start to end (exclusive).
func Arange[T interface {
	DType
	Number
}](start, end T) *RawTensor {
	n := int(end - start)
	if n <= 0 {
		panic("end must be greater than start")
	}
	data := make([]T, n)
	for i := range data {
		data[i] = start + T(i)
	}
	t, err := FromSlice(data, Shape{n})
	if err != nil {
		panic(err) // shape is derived from len(data)
	}
	return t
}

// Vander creates the Vandermonde matrix of a 1D input: column j holds
// x^j when increasing is true, x^(n-1-j) otherwise.
func Vander(x *RawTensor, n int, increasing bool) (*RawTensor, error) {
	if len(x.Shape()) != 1 {
		return nil, fmt.Errorf("Vander: input must be 1D, got shape %v", x.Shape())
	}
	if n <= 0 {
		return nil, fmt.Errorf("Vander: number of columns must be > 0, got %d", n)
	}

	rows := x.Shape()[0]
	out, err := NewRaw(Shape{rows, n}, x.DType())
	if err != nil {
		return nil, fmt.Errorf("Vander: %w", err)
	}
	for i := 0; i < rows; i++ {
		v := x.FloatAt(i)
		pow := 1.0
		for j := 0; j < n; j++ {
			col := j
			if !increasing {
				col = n - 1 - j
			}
			out.SetFloat(pow, i, col)
			pow *= v
		}
	}
	return out, nil
}

// Cast copies a tensor into a new one with a different element type,
// converting each element through the float64 widening domain.
func Cast(x *RawTensor, dtype DataType) *RawTensor {
	if x.DType() == dtype && x.IsContiguous() {
		return x.Clone()
	}
	out := Zeros(x.Shape(), dtype)
	idx := make([]int, len(x.Shape()))
	for i := 0; i < x.NumElements(); i++ {
		out.SetFloat(x.FloatAt(idx...), idx...)
		incrementIndex(idx, x.Shape())
	}
	return out
}
