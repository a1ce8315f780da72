// Copyright 2025 The sumex Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package einsum provides the public API for the sumex
// Einstein-summation engine and the matrix-chain order optimizer.
//
// The engine evaluates contraction specifications written in subscript
// notation:
//
//	c, _ := einsum.Einsum("ij,jk->ik", a, b)   // matrix product
//	d, _ := einsum.Einsum("ii->i", m)          // diagonal
//	s, _ := einsum.Einsum("ij->", m)           // full reduction
//
// Specs known at build time compile once:
//
//	var inner = einsum.MustCompile("i,i->")
//
// and matrix chains are reordered for minimal scalar multiplications:
//
//	p, _ := einsum.MatMulChain(a, b, c, d)
package einsum

import (
	"github.com/sumex-ml/sumex/internal/einsum"
	"github.com/sumex-ml/sumex/tensor"
)

// Error sentinels, matched with errors.Is.
var (
	ErrMalformedSpec     = einsum.ErrMalformedSpec
	ErrConsistency       = einsum.ErrConsistency
	ErrDimensionMismatch = einsum.ErrDimensionMismatch
	ErrShapeMismatch     = einsum.ErrShapeMismatch
	ErrTypeMismatch      = einsum.ErrTypeMismatch
	ErrNonMultipliable   = einsum.ErrNonMultipliable
	ErrArgumentCount     = einsum.ErrArgumentCount
)

// Spec is a normalized contraction specification.
type Spec = einsum.Spec

// RawSpec is a contraction specification before normalization, for
// callers that build operand specs as explicit label lists instead of
// subscript strings.
type RawSpec = einsum.RawSpec

// Kernel is a compiled, reusable realization of one normalized
// specification and one loop-order plan.
type Kernel = einsum.Kernel

// ChainPlan is a minimal-cost binary parenthesization of a matrix
// chain.
type ChainPlan = einsum.ChainPlan

// Transform is a compiled per-output elementwise transform expression.
type Transform = einsum.Transform

// Parse parses a subscript string such as "ij,jk->ik" into a normalized
// specification.
func Parse(subscripts string) (*Spec, error) {
	return einsum.Parse(subscripts)
}

// Compile parses, normalizes and compiles a subscript string into a
// reusable kernel, memoized per normalized spec.
func Compile(subscripts string) (*Kernel, error) {
	return einsum.Compile(subscripts)
}

// MustCompile is like Compile but panics on error. Intended for
// package-level kernel variables with literal specs.
func MustCompile(subscripts string) *Kernel {
	return einsum.MustCompile(subscripts)
}

// Einsum evaluates a single-output contraction specification. Operands
// beyond the declared input count are taken positionally as
// pre-allocated outputs to accumulate into.
func Einsum(subscripts string, operands ...*tensor.RawTensor) (*tensor.RawTensor, error) {
	return einsum.Einsum(subscripts, operands...)
}

// EinsumMulti evaluates a contraction specification and returns all
// declared outputs in spec order.
func EinsumMulti(subscripts string, operands ...*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	return einsum.EinsumMulti(subscripts, operands...)
}

// MatMul multiplies two matrices ("ij,jk->ik"). An optional
// pre-allocated output may be supplied to accumulate into.
func MatMul(a, b *tensor.RawTensor, out ...*tensor.RawTensor) (*tensor.RawTensor, error) {
	return einsum.MatMul(a, b, out...)
}

// MatMulChain multiplies N matrices using the cheapest
// parenthesization, found by dynamic programming over contiguous
// sub-chains.
func MatMulChain(operands ...*tensor.RawTensor) (*tensor.RawTensor, error) {
	return einsum.MatMulChain(operands...)
}

// MatMulChainNaive multiplies N matrices as an unplanned left fold.
// Same values as MatMulChain, different intermediate sizes; provided
// for parity testing and benchmarking.
func MatMulChainNaive(operands ...*tensor.RawTensor) (*tensor.RawTensor, error) {
	return einsum.MatMulChainNaive(operands...)
}

// PlanChain returns the minimal-cost parenthesization for the given
// matrix shapes without executing it.
func PlanChain(shapes []tensor.Shape) (*ChainPlan, error) {
	return einsum.PlanChain(shapes)
}
