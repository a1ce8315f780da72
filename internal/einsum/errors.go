package einsum

import "github.com/pkg/errors"

// Sentinel errors for the contraction engine. Call sites wrap these
// with the offending labels and shapes; callers match with errors.Is.
var (
	// ErrMalformedSpec reports a subscript string that cannot be parsed:
	// a non-alphabetic label character, or more than two "->" separators.
	ErrMalformedSpec = errors.New("malformed spec")

	// ErrConsistency reports an output spec referencing a label that is
	// absent from every input spec.
	ErrConsistency = errors.New("inconsistent spec")

	// ErrDimensionMismatch reports a label whose axis positions disagree
	// on dimension size.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrShapeMismatch reports an operand or caller-supplied output whose
	// shape disagrees with the spec-derived expectation.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrTypeMismatch reports a caller-supplied output whose element type
	// disagrees with the promoted input element type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrNonMultipliable reports adjacent matrices in a chain with
	// incompatible inner dimensions.
	ErrNonMultipliable = errors.New("non-multipliable shapes")

	// ErrArgumentCount reports an operand count that does not match the
	// number of declared input specs.
	ErrArgumentCount = errors.New("argument count mismatch")
)
