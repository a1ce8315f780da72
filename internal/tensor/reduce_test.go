package tensor

import "testing"

func TestSum(t *testing.T) {
	raw, err := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	assertEqualFloat(t, 10, Sum(raw), "total sum")
}

func TestSumDim(t *testing.T) {
	raw, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	rows, err := SumDim(raw, 1, false)
	if err != nil {
		t.Fatalf("SumDim failed: %v", err)
	}
	assertEqualShape(t, Shape{2}, rows.Shape(), "row sums shape")
	assertEqualFloat(t, 6, rows.FloatAt(0), "row 0 sum")
	assertEqualFloat(t, 15, rows.FloatAt(1), "row 1 sum")

	cols, err := SumDim(raw, 0, true)
	if err != nil {
		t.Fatalf("SumDim failed: %v", err)
	}
	assertEqualShape(t, Shape{1, 3}, cols.Shape(), "keepDim shape")
	assertEqualFloat(t, 5, cols.FloatAt(0, 0), "col 0 sum")

	// Negative dim resolves to the last axis.
	neg, err := SumDim(raw, -1, false)
	if err != nil {
		t.Fatalf("SumDim failed: %v", err)
	}
	assertEqualFloat(t, 6, neg.FloatAt(0), "negative dim row sum")
}

func TestSumDimIntWidening(t *testing.T) {
	raw, err := FromSlice([]int32{1, 2, 3, 4}, Shape{2, 2})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	out, err := SumDim(raw, 0, false)
	if err != nil {
		t.Fatalf("SumDim failed: %v", err)
	}
	if out.DType() != Int64 {
		t.Errorf("integer sum dtype = %s, want int64", out.DType())
	}
}

func TestMeanDim(t *testing.T) {
	raw, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	m, err := MeanDim(raw, 1, false)
	if err != nil {
		t.Fatalf("MeanDim failed: %v", err)
	}
	assertEqualFloat(t, 2, m.FloatAt(0), "row 0 mean")
	assertEqualFloat(t, 5, m.FloatAt(1), "row 1 mean")
}

func TestVarianceDim(t *testing.T) {
	raw, err := FromSlice([]float64{1, 2, 3, 4}, Shape{2, 2})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	v, err := VarianceDim(raw, 1, false)
	if err != nil {
		t.Fatalf("VarianceDim failed: %v", err)
	}
	// Population variance of {1,2} and {3,4} is 0.25.
	assertEqualFloat(t, 0.25, v.FloatAt(0), "row 0 variance")
	assertEqualFloat(t, 0.25, v.FloatAt(1), "row 1 variance")
}

func TestSumDimBadDim(t *testing.T) {
	raw := Zeros(Shape{2, 2}, Float32)
	if _, err := SumDim(raw, 2, false); err == nil {
		t.Error("SumDim with out-of-range dim should fail")
	}
}
