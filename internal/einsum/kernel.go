package einsum

import (
	"github.com/pkg/errors"

	"github.com/sumex-ml/sumex/internal/tensor"
)

// Kernel is a compiled realization of one normalized specification and
// one loop-order plan. A kernel is pure: it derives everything else
// (dimension bindings, output shapes, element type promotion) from the
// operands of each Execute call, so one kernel is safe to reuse for any
// operands whose shapes satisfy the spec's consistency constraints.
type Kernel struct {
	spec *Spec
	plan []int
}

// newKernel plans the loop order for a normalized spec.
func newKernel(spec *Spec) *Kernel {
	return &Kernel{spec: spec, plan: PlanLoops(spec)}
}

// Spec returns the kernel's normalized specification.
func (k *Kernel) Spec() *Spec {
	return k.spec
}

// Plan returns the kernel's loop nesting order, outermost first.
func (k *Kernel) Plan() []int {
	return k.plan
}

// Execute runs the kernel. inputs must match the spec's input count;
// outputs may supply pre-allocated tensors by position (nil entries and
// missing trailing entries are allocated, zero-initialized, with the
// promoted element type). Supplied outputs are validated before any
// loop runs and are accumulated into, not cleared.
func (k *Kernel) Execute(inputs, outputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	spec := k.spec
	if len(inputs) != len(spec.Inputs) {
		return nil, errors.Wrapf(ErrArgumentCount, "spec %s declares %d inputs, got %d operands", spec, len(spec.Inputs), len(inputs))
	}
	if len(outputs) > len(spec.Outputs) {
		return nil, errors.Wrapf(ErrArgumentCount, "spec %s declares %d outputs, got %d output operands", spec, len(spec.Outputs), len(outputs))
	}

	dims, err := k.bindDims(inputs)
	if err != nil {
		return nil, err
	}

	dtype := inputs[0].DType()
	for _, in := range inputs[1:] {
		dtype = tensor.Promote(dtype, in.DType())
	}

	// Validate every supplied output before allocating or writing
	// anything.
	outs := make([]*tensor.RawTensor, len(spec.Outputs))
	copy(outs, outputs)
	for kth, out := range outs {
		if out == nil {
			continue
		}
		want := k.outputShape(kth, dims)
		if !out.Shape().Equal(want) {
			return nil, errors.Wrapf(ErrShapeMismatch, "output %d has shape %v, spec %s requires %v", kth, out.Shape(), spec, want)
		}
		if out.DType() != dtype {
			return nil, errors.Wrapf(ErrTypeMismatch, "output %d has element type %s, inputs promote to %s", kth, out.DType(), dtype)
		}
	}
	for kth := range outs {
		if outs[kth] == nil {
			outs[kth] = tensor.Zeros(k.outputShape(kth, dims), dtype)
		}
	}

	k.run(inputs, outs, dims, dtype)
	return outs, nil
}

// bindDims associates every index id with its dimension size, taken
// from the first input axis carrying the id, and verifies that every
// other occurrence agrees. By the normalization invariant every id used
// by an output also occurs in some input, so all ids end up bound.
func (k *Kernel) bindDims(inputs []*tensor.RawTensor) ([]int, error) {
	spec := k.spec
	dims := make([]int, spec.NumIDs())
	for i := range dims {
		dims[i] = -1
	}
	for i, sp := range spec.Inputs {
		shape := inputs[i].Shape()
		if len(shape) != len(sp) {
			return nil, errors.Wrapf(ErrShapeMismatch, "input %d has rank %d, spec %s requires rank %d", i, len(shape), spec, len(sp))
		}
		for axis, id := range sp {
			if dims[id] == -1 {
				dims[id] = shape[axis]
			} else if dims[id] != shape[axis] {
				return nil, errors.Wrapf(ErrDimensionMismatch, "label %q bound to size %d, but input %d axis %d has size %d",
					spec.Labels[id], dims[id], i, axis, shape[axis])
			}
		}
	}
	return dims, nil
}

// outputShape derives the shape of output kth from the dimension
// bindings, in spec order (not loop order).
func (k *Kernel) outputShape(kth int, dims []int) tensor.Shape {
	sp := k.spec.Outputs[kth]
	shape := make(tensor.Shape, len(sp))
	for axis, id := range sp {
		shape[axis] = dims[id]
	}
	return shape
}

// run drives the loop nest as an odometer over the plan: one counter
// per planned id, the last plan entry spinning fastest (innermost).
// Rather than generating literal nested loops per spec, a single loop
// advances the counters.
func (k *Kernel) run(inputs, outs []*tensor.RawTensor, dims []int, dtype tensor.DataType) {
	spec := k.spec

	total := 1
	for _, id := range k.plan {
		total *= dims[id]
	}

	idVal := make([]int, spec.NumIDs())
	inIdx := make([][]int, len(inputs))
	for i, sp := range spec.Inputs {
		inIdx[i] = make([]int, len(sp))
	}
	outIdx := make([][]int, len(outs))
	for kth, sp := range spec.Outputs {
		outIdx[kth] = make([]int, len(sp))
	}

	// Integer-kind accumulation stays in int64 when every output uses
	// the default sum-of-products rule; custom transforms always
	// evaluate in float64.
	hasCustom := false
	for _, tf := range spec.Transforms {
		if tf != nil {
			hasCustom = true
		}
	}
	useInt := !dtype.IsFloat() && !hasCustom

	inVals := make([]float64, len(inputs))
	inInts := make([]int64, len(inputs))
	outVals := make([]float64, len(outs))

	for iter := 0; iter < total; iter++ {
		for i, sp := range spec.Inputs {
			buf := inIdx[i]
			for axis, id := range sp {
				buf[axis] = idVal[id]
			}
		}
		for kth, sp := range spec.Outputs {
			buf := outIdx[kth]
			for axis, id := range sp {
				buf[axis] = idVal[id]
			}
		}

		if useInt {
			for i := range inputs {
				inInts[i] = inputs[i].IntAt(inIdx[i]...)
			}
			for kth, out := range outs {
				prod := int64(1)
				for _, v := range inInts {
					prod *= v
				}
				out.SetInt(out.IntAt(outIdx[kth]...)+prod, outIdx[kth]...)
			}
		} else {
			for i := range inputs {
				inVals[i] = inputs[i].FloatAt(inIdx[i]...)
			}
			if hasCustom {
				for kth, out := range outs {
					outVals[kth] = out.FloatAt(outIdx[kth]...)
				}
			}
			for kth, out := range outs {
				if tf := spec.Transforms[kth]; tf != nil {
					out.SetFloat(tf.Eval(inVals, outVals), outIdx[kth]...)
					continue
				}
				prod := 1.0
				for _, v := range inVals {
					prod *= v
				}
				out.SetFloat(out.FloatAt(outIdx[kth]...)+prod, outIdx[kth]...)
			}
		}

		// Advance the odometer, innermost planned id first.
		for p := len(k.plan) - 1; p >= 0; p-- {
			id := k.plan[p]
			idVal[id]++
			if idVal[id] < dims[id] {
				break
			}
			idVal[id] = 0
		}
	}
}
