package einsum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumex-ml/sumex/internal/tensor"
)

func fromFloat32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	return raw
}

func TestEinsumMatmulAgainstTripleLoop(t *testing.T) {
	a := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := fromFloat32(t, []float32{7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18}, tensor.Shape{3, 4})

	got, err := Einsum("ij,jk->ik", a, b)
	require.NoError(t, err)
	assert.True(t, got.Shape().Equal(tensor.Shape{2, 4}))

	for i := 0; i < 2; i++ {
		for k := 0; k < 4; k++ {
			var want float64
			for j := 0; j < 3; j++ {
				want += a.FloatAt(i, j) * b.FloatAt(j, k)
			}
			assert.InDelta(t, want, got.FloatAt(i, k), 1e-6, "mismatch at (%d,%d)", i, k)
		}
	}
}

func TestEinsumDiagonal(t *testing.T) {
	a := fromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})

	d, err := Einsum("ii->i", a)
	require.NoError(t, err)
	assert.True(t, d.Shape().Equal(tensor.Shape{2}))
	assert.InDelta(t, 1, d.FloatAt(0), 1e-6)
	assert.InDelta(t, 4, d.FloatAt(1), 1e-6)
}

func TestEinsumTrace(t *testing.T) {
	a := fromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})

	tr, err := Einsum("ii->", a)
	require.NoError(t, err)
	assert.Empty(t, tr.Shape())
	assert.InDelta(t, 5, tr.FloatAt(), 1e-6)
}

func TestEinsumFullReduction(t *testing.T) {
	a := fromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})

	s, err := Einsum("ij->", a)
	require.NoError(t, err)
	assert.InDelta(t, 10, s.FloatAt(), 1e-6)
}

// The zero-separator default produces the sorted-union output, so the
// outer product of two vectors equals its explicit spelling.
func TestEinsumOuterMergeDefault(t *testing.T) {
	v := fromFloat32(t, []float32{1, 2}, tensor.Shape{2})
	w := fromFloat32(t, []float32{3, 4, 5}, tensor.Shape{3})

	implicit, err := Einsum("i,j", v, w)
	require.NoError(t, err)
	explicit, err := Einsum("i,j->ij", v, w)
	require.NoError(t, err)

	assert.True(t, implicit.Shape().Equal(tensor.Shape{2, 3}))
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			want := v.FloatAt(i) * w.FloatAt(j)
			assert.InDelta(t, want, implicit.FloatAt(i, j), 1e-6)
			assert.InDelta(t, want, explicit.FloatAt(i, j), 1e-6)
		}
	}
}

func TestEinsumTransposeSpec(t *testing.T) {
	a := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	tr, err := Einsum("ij->ji", a)
	require.NoError(t, err)
	assert.True(t, tr.Shape().Equal(tensor.Shape{3, 2}))
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, a.FloatAt(i, j), tr.FloatAt(j, i), 1e-6)
		}
	}
}

func TestEinsumDimensionMismatch(t *testing.T) {
	a := fromFloat32(t, make([]float32, 6), tensor.Shape{2, 3})
	b := fromFloat32(t, make([]float32, 20), tensor.Shape{4, 5})

	_, err := Einsum("ij,jk->ik", a, b)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Contains(t, err.Error(), `"j"`, "error names the offending label")
}

func TestEinsumDiagonalDimensionMismatch(t *testing.T) {
	a := fromFloat32(t, make([]float32, 6), tensor.Shape{2, 3})
	_, err := Einsum("ii->i", a)
	assert.ErrorIs(t, err, ErrDimensionMismatch, "repeated label within one operand must agree in size")
}

func TestEinsumRankMismatch(t *testing.T) {
	a := fromFloat32(t, make([]float32, 4), tensor.Shape{4})
	_, err := Einsum("ij->i", a)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestEinsumArgumentCount(t *testing.T) {
	a := fromFloat32(t, make([]float32, 4), tensor.Shape{2, 2})
	_, err := Einsum("ij,jk->ik", a)
	assert.ErrorIs(t, err, ErrArgumentCount)
}

func TestEinsumSuppliedOutput(t *testing.T) {
	a := fromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromFloat32(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})

	out := tensor.Zeros(tensor.Shape{2, 2}, tensor.Float32)
	got, err := Einsum("ij,jk->ik", a, b, out)
	require.NoError(t, err)
	assert.Same(t, out, got, "supplied output is returned")
	assert.InDelta(t, 19, out.FloatAt(0, 0), 1e-6)

	// Supplied outputs accumulate: a second run doubles the values.
	_, err = Einsum("ij,jk->ik", a, b, out)
	require.NoError(t, err)
	assert.InDelta(t, 38, out.FloatAt(0, 0), 1e-6)
}

func TestEinsumSuppliedOutputShapeMismatch(t *testing.T) {
	a := fromFloat32(t, make([]float32, 4), tensor.Shape{2, 2})
	b := fromFloat32(t, make([]float32, 4), tensor.Shape{2, 2})
	bad := tensor.Zeros(tensor.Shape{3, 3}, tensor.Float32)

	_, err := Einsum("ij,jk->ik", a, b, bad)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestEinsumSuppliedOutputTypeMismatch(t *testing.T) {
	a := fromFloat32(t, make([]float32, 4), tensor.Shape{2, 2})
	b := fromFloat32(t, make([]float32, 4), tensor.Shape{2, 2})
	bad := tensor.Zeros(tensor.Shape{2, 2}, tensor.Float64)

	_, err := Einsum("ij,jk->ik", a, b, bad)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

// Validation failures must not touch a caller-supplied output.
func TestEinsumFailFastNoPartialWrites(t *testing.T) {
	a := fromFloat32(t, make([]float32, 6), tensor.Shape{2, 3})
	b := fromFloat32(t, make([]float32, 20), tensor.Shape{4, 5})
	out := tensor.Full(tensor.Shape{2, 5}, tensor.Float32, 7)

	_, err := Einsum("ij,jk->ik", a, b, out)
	require.Error(t, err)
	for i := 0; i < 2; i++ {
		for j := 0; j < 5; j++ {
			assert.InDelta(t, 7, out.FloatAt(i, j), 1e-6, "output mutated despite validation failure")
		}
	}
}

func TestEinsumTypePromotion(t *testing.T) {
	ints, err := tensor.FromSlice([]int32{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)
	floats := fromFloat32(t, []float32{0.5, 0.5, 0.5, 0.5}, tensor.Shape{2, 2})

	got, err := Einsum("ij,jk->ik", ints, floats)
	require.NoError(t, err)
	assert.Equal(t, tensor.Float32, got.DType(), "int32+float32 promotes to float32")
	assert.InDelta(t, 1.5, got.FloatAt(0, 0), 1e-6)
}

func TestEinsumIntegerAccumulation(t *testing.T) {
	a, err := tensor.FromSlice([]int64{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)
	b, err := tensor.FromSlice([]int64{5, 6, 7, 8}, tensor.Shape{2, 2})
	require.NoError(t, err)

	got, err := Einsum("ij,jk->ik", a, b)
	require.NoError(t, err)
	assert.Equal(t, tensor.Int64, got.DType())
	assert.Equal(t, int64(19), got.IntAt(0, 0))
	assert.Equal(t, int64(22), got.IntAt(0, 1))
	assert.Equal(t, int64(43), got.IntAt(1, 0))
	assert.Equal(t, int64(50), got.IntAt(1, 1))
}

func TestEinsumCustomTransform(t *testing.T) {
	a := fromFloat32(t, []float32{1, 5, 3, 2}, tensor.Shape{2, 2})

	// Row maximum instead of row sum: start from the accumulator and
	// take the max of it and each element.
	got, err := Einsum("ij->(max @1 $1)->i", a)
	require.NoError(t, err)
	assert.InDelta(t, 5, got.FloatAt(0), 1e-6)
	assert.InDelta(t, 3, got.FloatAt(1), 1e-6)
}

func TestEinsumMultiOutput(t *testing.T) {
	a := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	outs, err := EinsumMulti("ij->i,j", a)
	require.NoError(t, err)
	require.Len(t, outs, 2)

	// Output 1: row sums; output 2: column sums.
	assert.InDelta(t, 6, outs[0].FloatAt(0), 1e-6)
	assert.InDelta(t, 15, outs[0].FloatAt(1), 1e-6)
	assert.InDelta(t, 5, outs[1].FloatAt(0), 1e-6)
	assert.InDelta(t, 7, outs[1].FloatAt(1), 1e-6)
	assert.InDelta(t, 9, outs[1].FloatAt(2), 1e-6)
}

func TestEinsumMultiOutputViaEinsumFails(t *testing.T) {
	a := fromFloat32(t, make([]float32, 4), tensor.Shape{2, 2})
	_, err := Einsum("ij->i,j", a)
	assert.Error(t, err, "Einsum requires a single declared output")
}

func TestEinsumOnTransposedView(t *testing.T) {
	a := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	at, err := tensor.Transpose(a)
	require.NoError(t, err)

	// Contracting the view equals contracting the explicit transpose.
	got, err := Einsum("ij,jk->ik", at, a)
	require.NoError(t, err)
	assert.True(t, got.Shape().Equal(tensor.Shape{3, 3}))
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			var want float64
			for j := 0; j < 2; j++ {
				want += a.FloatAt(j, i) * a.FloatAt(j, k)
			}
			assert.InDelta(t, want, got.FloatAt(i, k), 1e-6)
		}
	}
}

func TestCompileReuse(t *testing.T) {
	k1, err := Compile("ij,jk->ik")
	require.NoError(t, err)
	k2, err := Compile("ab,bc->ac")
	require.NoError(t, err)
	assert.Same(t, k1, k2, "spelling-equivalent specs share one compiled kernel")

	a := fromFloat32(t, []float32{1, 0, 0, 1}, tensor.Shape{2, 2})
	b := fromFloat32(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})
	outs, err := k1.Execute([]*tensor.RawTensor{a, b}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 5, outs[0].FloatAt(0, 0), 1e-6)
}

func TestKernelPlanDeterministic(t *testing.T) {
	k, err := Compile("ij,jk->ik")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, k.Plan())
}

func TestExecuteLargeOuterAxis(t *testing.T) {
	// Odometer carry logic over a wide leading axis.
	const rows, cols = 200, 3
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = float64(i % 7)
	}
	a, err := tensor.FromSlice(data, tensor.Shape{rows, cols})
	require.NoError(t, err)

	got, err := Einsum("ij->i", a)
	require.NoError(t, err)
	require.True(t, got.Shape().Equal(tensor.Shape{rows}))
	for i := 0; i < rows; i++ {
		var want float64
		for j := 0; j < cols; j++ {
			want += a.FloatAt(i, j)
		}
		assert.InDelta(t, want, got.FloatAt(i), 1e-9)
	}
}
