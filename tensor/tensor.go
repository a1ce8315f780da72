// Copyright 2025 The sumex Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the dense N-dimensional
// arrays consumed by the sumex contraction engine.
//
// The package defines the core types:
//   - RawTensor: dense array with shape, strides and element type
//   - Shape, DataType: layout and runtime type tags
//
// Example:
//
//	a, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	i := tensor.Eye(2, tensor.Float32)
package tensor

import (
	"github.com/sumex-ml/sumex/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for tensor data types.
// Supported types: float32, float64, int32, int64, uint8, bool.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Float16 DataType = tensor.Float16
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// RawTensor is the dense array representation: flat storage, shape,
// row-major strides and an element type tag.
type RawTensor = tensor.RawTensor

// Creation functions

// NewRaw creates a new zero-initialized tensor with the given shape and
// element type.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// FromSlice creates a tensor from a Go slice.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape, dtype DataType) *RawTensor {
	return tensor.Zeros(shape, dtype)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape, dtype DataType) *RawTensor {
	return tensor.Ones(shape, dtype)
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, dtype DataType, value float64) *RawTensor {
	return tensor.Full(shape, dtype, value)
}

// Eye creates a 2D identity matrix.
func Eye(n int, dtype DataType) *RawTensor {
	return tensor.Eye(n, dtype)
}

// Tri creates an n×m matrix with ones at and below the k-th diagonal.
func Tri(n, m, k int, dtype DataType) *RawTensor {
	return tensor.Tri(n, m, k, dtype)
}

// Vander creates the Vandermonde matrix of a 1D input.
func Vander(x *RawTensor, n int, increasing bool) (*RawTensor, error) {
	return tensor.Vander(x, n, increasing)
}

// Arange creates a 1D tensor with values from start to end (exclusive).
func Arange[T interface {
	DType
	tensor.Number
}](start, end T) *RawTensor {
	return tensor.Arange(start, end)
}

// Cast copies a tensor into a new one with a different element type.
func Cast(x *RawTensor, dtype DataType) *RawTensor {
	return tensor.Cast(x, dtype)
}

// Element access

// At returns the element at the given indices as T.
func At[T DType](t *RawTensor, indices ...int) T {
	return tensor.At[T](t, indices...)
}

// Set stores an element at the given indices.
func Set[T DType](t *RawTensor, value T, indices ...int) {
	tensor.Set(t, value, indices...)
}

// Promote returns the widening promotion of two data types.
func Promote(a, b DataType) DataType {
	return tensor.Promote(a, b)
}

// View and manipulation functions

// Reshape returns a view with a new shape sharing the same storage.
func Reshape(t *RawTensor, shape Shape) (*RawTensor, error) {
	return tensor.Reshape(t, shape)
}

// Transpose returns a view with permuted axes (no data copy).
// With no axes given, the axis order is reversed.
func Transpose(t *RawTensor, axes ...int) (*RawTensor, error) {
	return tensor.Transpose(t, axes...)
}

// Squeeze removes a dimension of size 1 (view, no data copy).
func Squeeze(t *RawTensor, dim int) (*RawTensor, error) {
	return tensor.Squeeze(t, dim)
}

// Unsqueeze adds a dimension of size 1 at the given position (view, no
// data copy).
func Unsqueeze(t *RawTensor, dim int) (*RawTensor, error) {
	return tensor.Unsqueeze(t, dim)
}

// Reductions

// Sum returns the sum of all elements as a float64.
func Sum(t *RawTensor) float64 {
	return tensor.Sum(t)
}

// SumDim sums along a dimension.
func SumDim(t *RawTensor, dim int, keepDim bool) (*RawTensor, error) {
	return tensor.SumDim(t, dim, keepDim)
}

// MeanDim averages along a dimension.
func MeanDim(t *RawTensor, dim int, keepDim bool) (*RawTensor, error) {
	return tensor.MeanDim(t, dim, keepDim)
}

// VarianceDim computes the population variance along a dimension.
func VarianceDim(t *RawTensor, dim int, keepDim bool) (*RawTensor, error) {
	return tensor.VarianceDim(t, dim, keepDim)
}
