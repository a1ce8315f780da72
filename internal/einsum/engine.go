package einsum

import (
	"github.com/pkg/errors"

	"github.com/sumex-ml/sumex/internal/tensor"
)

// EinsumMulti evaluates a contraction specification against its
// operands and returns all declared outputs in spec order.
//
// The first n operands, where n is the number of declared input specs,
// are the inputs; any remaining operands are taken positionally as
// pre-allocated outputs to accumulate into. Compiled kernels are cached
// per normalized spec, so repeated calls with the same structure (even
// under different label spellings) skip normalization of the loop
// order.
func EinsumMulti(subscripts string, operands ...*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	spec, err := Parse(subscripts)
	if err != nil {
		return nil, err
	}
	if len(operands) < len(spec.Inputs) {
		return nil, errors.Wrapf(ErrArgumentCount, "spec %s declares %d inputs, got %d operands", spec, len(spec.Inputs), len(operands))
	}
	k := kernelFor(spec)
	return k.Execute(operands[:len(spec.Inputs)], operands[len(spec.Inputs):])
}

// Einsum is EinsumMulti for the common single-output case.
func Einsum(subscripts string, operands ...*tensor.RawTensor) (*tensor.RawTensor, error) {
	outs, err := EinsumMulti(subscripts, operands...)
	if err != nil {
		return nil, err
	}
	if len(outs) != 1 {
		return nil, errors.Wrapf(ErrArgumentCount, "spec %q declares %d outputs; use EinsumMulti", subscripts, len(outs))
	}
	return outs[0], nil
}
