package tensor

import "fmt"

// normalizeDim resolves negative dimension indexing (-1 = last).
func normalizeDim(dim, rank int) (int, error) {
	if dim < 0 {
		dim += rank
	}
	if dim < 0 || dim >= rank {
		return 0, fmt.Errorf("dimension %d out of range for rank %d", dim, rank)
	}
	return dim, nil
}

// Reshape returns a view with a new shape sharing the same storage.
// The element count must be preserved and the tensor must be contiguous.
func Reshape(t *RawTensor, shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("Reshape: %w", err)
	}
	if shape.NumElements() != t.NumElements() {
		return nil, fmt.Errorf("Reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			t.Shape(), t.NumElements(), shape, shape.NumElements())
	}
	if !t.IsContiguous() {
		return nil, fmt.Errorf("Reshape: tensor is not contiguous; Clone it first")
	}
	return t.view(shape.Clone(), shape.ComputeStrides()), nil
}

// Transpose returns a view with permuted axes (no data copy).
// With no axes given, the axis order is reversed.
func Transpose(t *RawTensor, axes ...int) (*RawTensor, error) {
	rank := len(t.Shape())
	if len(axes) == 0 {
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = rank - 1 - i
		}
	}
	if len(axes) != rank {
		return nil, fmt.Errorf("Transpose: got %d axes for rank %d", len(axes), rank)
	}

	seen := make([]bool, rank)
	shape := make(Shape, rank)
	stride := make([]int, rank)
	for i, ax := range axes {
		ax, err := normalizeDim(ax, rank)
		if err != nil {
			return nil, fmt.Errorf("Transpose: %w", err)
		}
		if seen[ax] {
			return nil, fmt.Errorf("Transpose: duplicate axis %d", ax)
		}
		seen[ax] = true
		shape[i] = t.Shape()[ax]
		stride[i] = t.Strides()[ax]
	}
	return t.view(shape, stride), nil
}

// Squeeze removes a dimension of size 1 (view, no data copy).
// Supports negative dim indexing.
func Squeeze(t *RawTensor, dim int) (*RawTensor, error) {
	rank := len(t.Shape())
	dim, err := normalizeDim(dim, rank)
	if err != nil {
		return nil, fmt.Errorf("Squeeze: %w", err)
	}
	if t.Shape()[dim] != 1 {
		return nil, fmt.Errorf("Squeeze: dimension %d has size %d, expected 1", dim, t.Shape()[dim])
	}

	shape := make(Shape, 0, rank-1)
	stride := make([]int, 0, rank-1)
	for i := range t.Shape() {
		if i == dim {
			continue
		}
		shape = append(shape, t.Shape()[i])
		stride = append(stride, t.Strides()[i])
	}
	return t.view(shape, stride), nil
}

// Unsqueeze adds a dimension of size 1 at the given position (view, no
// data copy). Supports negative dim indexing; dim may equal the rank to
// append a trailing axis.
func Unsqueeze(t *RawTensor, dim int) (*RawTensor, error) {
	rank := len(t.Shape())
	if dim < 0 {
		dim += rank + 1
	}
	if dim < 0 || dim > rank {
		return nil, fmt.Errorf("Unsqueeze: dimension %d out of range for rank %d", dim, rank)
	}

	shape := make(Shape, 0, rank+1)
	stride := make([]int, 0, rank+1)
	shape = append(shape, t.Shape()[:dim]...)
	stride = append(stride, t.Strides()[:dim]...)
	shape = append(shape, 1)
	stride = append(stride, 0) // size-1 axis never advances
	shape = append(shape, t.Shape()[dim:]...)
	stride = append(stride, t.Strides()[dim:]...)
	return t.view(shape, stride), nil
}
