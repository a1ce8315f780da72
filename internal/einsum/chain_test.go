package einsum

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumex-ml/sumex/internal/tensor"
)

func TestMatMulIdentity(t *testing.T) {
	eye := tensor.Eye(2, tensor.Float32)
	b := fromFloat32(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})

	got, err := MatMul(eye, b)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, b.FloatAt(i, j), got.FloatAt(i, j), 1e-6)
		}
	}
}

func TestPlanChainTextbookSplit(t *testing.T) {
	// (10×100)(100×5)(5×50): splitting after the second matrix costs
	// 10·100·5 + 10·5·50 = 7500, the left-fold-shaped alternative costs
	// 100·5·50 + 10·100·50 = 75000.
	plan, err := PlanChain([]tensor.Shape{{10, 100}, {100, 5}, {5, 50}})
	require.NoError(t, err)
	assert.Equal(t, int64(7500), plan.Cost())
	assert.Equal(t, "((A1 A2) A3)", plan.String())
}

func TestPlanChainBeatsNaiveLeftFold(t *testing.T) {
	plan, err := PlanChain([]tensor.Shape{{1000, 1}, {1, 1000}, {1000, 1000}})
	require.NoError(t, err)
	assert.Less(t, plan.Cost(), plan.NaiveCost(),
		"planned cost must beat the naive left fold")
	// (A2 A3) first costs 1000·1000 + 1000·1·1000; the left fold
	// materializes a 1000×1000 intermediate and pays 10⁹.
	assert.Equal(t, int64(2_000_000), plan.Cost())
	assert.Equal(t, int64(1_001_000_000), plan.NaiveCost())
	assert.Equal(t, "(A1 (A2 A3))", plan.String())
}

func TestPlanChainDeterministic(t *testing.T) {
	shapes := []tensor.Shape{{4, 4}, {4, 4}, {4, 4}, {4, 4}}
	first, err := PlanChain(shapes)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := PlanChain(shapes)
		require.NoError(t, err)
		assert.Equal(t, first.String(), again.String(), "equal-cost ties must break to the smallest split")
	}
	// All costs equal: the smallest split index wins at every level.
	assert.Equal(t, "(((A1 A2) A3) A4)", first.String())
}

func TestPlanChainSingleMatrix(t *testing.T) {
	plan, err := PlanChain([]tensor.Shape{{3, 4}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), plan.Cost())
	assert.Equal(t, "A1", plan.String())
}

func TestPlanChainNonMultipliable(t *testing.T) {
	_, err := PlanChain([]tensor.Shape{{2, 3}, {4, 5}})
	assert.ErrorIs(t, err, ErrNonMultipliable)
}

func TestPlanChainRejectsNonMatrix(t *testing.T) {
	_, err := PlanChain([]tensor.Shape{{2, 3, 4}, {4, 5}})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func randomMatrix(t *testing.T, rng *rand.Rand, rows, cols int) *tensor.RawTensor {
	t.Helper()
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.Float64()
	}
	raw, err := tensor.FromSlice(data, tensor.Shape{rows, cols})
	require.NoError(t, err)
	return raw
}

// The planner changes intermediate sizes, never values: planned and
// naive execution agree elementwise.
func TestMatMulChainMatchesNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	dims := []int{30, 1, 30, 5, 12}
	operands := make([]*tensor.RawTensor, len(dims)-1)
	for i := range operands {
		operands[i] = randomMatrix(t, rng, dims[i], dims[i+1])
	}

	planned, err := MatMulChain(operands...)
	require.NoError(t, err)
	naive, err := MatMulChainNaive(operands...)
	require.NoError(t, err)

	require.True(t, planned.Shape().Equal(naive.Shape()))
	for i := 0; i < planned.Shape()[0]; i++ {
		for j := 0; j < planned.Shape()[1]; j++ {
			assert.InDelta(t, naive.FloatAt(i, j), planned.FloatAt(i, j), 1e-9)
		}
	}
}

func TestMatMulChainTwoOperandBypass(t *testing.T) {
	a := fromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromFloat32(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})

	chain, err := MatMulChain(a, b)
	require.NoError(t, err)
	direct, err := MatMul(a, b)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, direct.FloatAt(i, j), chain.FloatAt(i, j), 1e-6)
		}
	}
}

func TestMatMulChainSingleOperand(t *testing.T) {
	a := fromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	got, err := MatMulChain(a)
	require.NoError(t, err)
	assert.Same(t, a, got)
}

func TestMatMulChainNoOperands(t *testing.T) {
	_, err := MatMulChain()
	assert.ErrorIs(t, err, ErrArgumentCount)
	_, err = MatMulChainNaive()
	assert.ErrorIs(t, err, ErrArgumentCount)
}

func TestChainPlanExecuteWrongOperandCount(t *testing.T) {
	plan, err := PlanChain([]tensor.Shape{{2, 2}, {2, 2}, {2, 2}})
	require.NoError(t, err)
	_, err = plan.Execute([]*tensor.RawTensor{tensor.Eye(2, tensor.Float32)})
	assert.ErrorIs(t, err, ErrArgumentCount)
}

func BenchmarkMatMulChainPlanned(b *testing.B) {
	rng := rand.New(rand.NewSource(7))
	dims := []int{40, 2, 40, 3, 20}
	operands := make([]*tensor.RawTensor, len(dims)-1)
	for i := range operands {
		data := make([]float64, dims[i]*dims[i+1])
		for j := range data {
			data[j] = rng.Float64()
		}
		raw, err := tensor.FromSlice(data, tensor.Shape{dims[i], dims[i+1]})
		if err != nil {
			b.Fatal(err)
		}
		operands[i] = raw
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := MatMulChain(operands...); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMatMulChainNaive(b *testing.B) {
	rng := rand.New(rand.NewSource(7))
	dims := []int{40, 2, 40, 3, 20}
	operands := make([]*tensor.RawTensor, len(dims)-1)
	for i := range operands {
		data := make([]float64, dims[i]*dims[i+1])
		for j := range data {
			data[j] = rng.Float64()
		}
		raw, err := tensor.FromSlice(data, tensor.Shape{dims[i], dims[i+1]})
		if err != nil {
			b.Fatal(err)
		}
		operands[i] = raw
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := MatMulChainNaive(operands...); err != nil {
			b.Fatal(err)
		}
	}
}
