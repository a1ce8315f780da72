package tensor

import "fmt"

// reduceDim folds fn over the given dimension, producing a tensor with
// that dimension removed (or kept as size 1 when keepDim is set).
func reduceDim(t *RawTensor, dim int, keepDim bool, init float64, fn func(acc, v float64) float64) (*RawTensor, error) {
	rank := len(t.Shape())
	dim, err := normalizeDim(dim, rank)
	if err != nil {
		return nil, err
	}

	outShape := make(Shape, 0, rank)
	for i, d := range t.Shape() {
		switch {
		case i != dim:
			outShape = append(outShape, d)
		case keepDim:
			outShape = append(outShape, 1)
		}
	}

	outDType := t.DType()
	if !outDType.IsFloat() {
		outDType = Promote(outDType, Int64)
	}
	out := Zeros(outShape, outDType)

	outIdx := make([]int, len(outShape))
	srcIdx := make([]int, rank)
	for i := 0; i < out.NumElements(); i++ {
		// Rebuild the source index from the output index.
		pos := 0
		for ax := 0; ax < rank; ax++ {
			if ax == dim {
				if keepDim {
					pos++
				}
				continue
			}
			srcIdx[ax] = outIdx[pos]
			pos++
		}

		acc := init
		for k := 0; k < t.Shape()[dim]; k++ {
			srcIdx[dim] = k
			acc = fn(acc, t.FloatAt(srcIdx...))
		}
		out.SetFloat(acc, outIdx...)
		incrementIndex(outIdx, outShape)
	}
	return out, nil
}

// SumDim sums along a dimension. Integer inputs widen to Int64.
func SumDim(t *RawTensor, dim int, keepDim bool) (*RawTensor, error) {
	out, err := reduceDim(t, dim, keepDim, 0, func(acc, v float64) float64 { return acc + v })
	if err != nil {
		return nil, fmt.Errorf("SumDim: %w", err)
	}
	return out, nil
}

// MeanDim averages along a dimension. The result is always Float64.
func MeanDim(t *RawTensor, dim int, keepDim bool) (*RawTensor, error) {
	sum, err := reduceDim(t, dim, keepDim, 0, func(acc, v float64) float64 { return acc + v })
	if err != nil {
		return nil, fmt.Errorf("MeanDim: %w", err)
	}
	rank := len(t.Shape())
	dim, _ = normalizeDim(dim, rank)
	n := float64(t.Shape()[dim])

	out := Zeros(sum.Shape(), Float64)
	idx := make([]int, len(sum.Shape()))
	for i := 0; i < sum.NumElements(); i++ {
		out.SetFloat(sum.FloatAt(idx...)/n, idx...)
		incrementIndex(idx, sum.Shape())
	}
	return out, nil
}

// VarianceDim computes the population variance along a dimension.
// The result is always Float64.
func VarianceDim(t *RawTensor, dim int, keepDim bool) (*RawTensor, error) {
	mean, err := MeanDim(t, dim, true)
	if err != nil {
		return nil, fmt.Errorf("VarianceDim: %w", err)
	}

	rank := len(t.Shape())
	dim, _ = normalizeDim(dim, rank)
	n := float64(t.Shape()[dim])

	outShape := make(Shape, 0, rank)
	for i, d := range t.Shape() {
		switch {
		case i != dim:
			outShape = append(outShape, d)
		case keepDim:
			outShape = append(outShape, 1)
		}
	}
	out := Zeros(outShape, Float64)

	outIdx := make([]int, len(outShape))
	srcIdx := make([]int, rank)
	meanIdx := make([]int, rank)
	for i := 0; i < out.NumElements(); i++ {
		pos := 0
		for ax := 0; ax < rank; ax++ {
			if ax == dim {
				if keepDim {
					pos++
				}
				continue
			}
			srcIdx[ax] = outIdx[pos]
			meanIdx[ax] = outIdx[pos]
			pos++
		}
		meanIdx[dim] = 0

		m := mean.FloatAt(meanIdx...)
		var acc float64
		for k := 0; k < t.Shape()[dim]; k++ {
			srcIdx[dim] = k
			d := t.FloatAt(srcIdx...) - m
			acc += d * d
		}
		out.SetFloat(acc/n, outIdx...)
		incrementIndex(outIdx, outShape)
	}
	return out, nil
}

// Sum returns the sum of all elements as a float64.
func Sum(t *RawTensor) float64 {
	idx := make([]int, len(t.Shape()))
	var acc float64
	for i := 0; i < t.NumElements(); i++ {
		acc += t.FloatAt(idx...)
		incrementIndex(idx, t.Shape())
	}
	return acc
}
