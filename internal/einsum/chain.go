package einsum

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/sumex-ml/sumex/internal/tensor"
)

// matmulKernel is the fixed row/column-contraction kernel behind MatMul
// and the chain executors, compiled once at package init.
var matmulKernel = MustCompile("ij,jk->ik")

// MatMul multiplies two matrices. An optional pre-allocated output may
// be supplied to accumulate into.
func MatMul(a, b *tensor.RawTensor, out ...*tensor.RawTensor) (*tensor.RawTensor, error) {
	outs, err := matmulKernel.Execute([]*tensor.RawTensor{a, b}, out)
	if err != nil {
		return nil, err
	}
	return outs[0], nil
}

// ChainPlan is a binary parenthesization of a matrix chain, minimizing
// total scalar multiplications. It is produced by PlanChain from shapes
// alone and can then be executed against any operands with those
// shapes.
type ChainPlan struct {
	root *chainNode
	cost int64
	rows []int
	cols []int
}

// chainNode is one node of the parenthesization tree. Leaves carry the
// operand index; internal nodes carry the split.
type chainNode struct {
	left  *chainNode
	right *chainNode
	index int
}

// PlanChain chooses the cheapest parenthesization for multiplying the
// given matrix shapes left to right, by dynamic programming over
// contiguous sub-chains: O(N³) time, O(N²) table space. Ties pick the
// smallest split index, so the plan is deterministic.
func PlanChain(shapes []tensor.Shape) (*ChainPlan, error) {
	n := len(shapes)
	if n == 0 {
		return nil, errors.Wrap(ErrArgumentCount, "matmul chain needs at least one operand")
	}

	rows := make([]int, n)
	cols := make([]int, n)
	for i, s := range shapes {
		if len(s) != 2 {
			return nil, errors.Wrapf(ErrShapeMismatch, "chain operand %d has shape %v, expected a matrix", i, s)
		}
		rows[i], cols[i] = s[0], s[1]
	}
	for i := 0; i+1 < n; i++ {
		if cols[i] != rows[i+1] {
			return nil, errors.Wrapf(ErrNonMultipliable, "chain operands %d and %d: %dx%d times %dx%d",
				i, i+1, rows[i], cols[i], rows[i+1], cols[i+1])
		}
	}

	// cost[i][j]: cheapest scalar-multiplication count for the
	// sub-chain i..j; split[i][j]: the split index achieving it. The
	// sub-chain i..s result is rows[i]×cols[s], so joining at s costs
	// rows[i]*cols[s]*cols[j] extra.
	cost := make([][]int64, n)
	split := make([][]int, n)
	for i := range cost {
		cost[i] = make([]int64, n)
		split[i] = make([]int, n)
	}
	for length := 2; length <= n; length++ {
		for i := 0; i+length-1 < n; i++ {
			j := i + length - 1
			best := int64(-1)
			for s := i; s < j; s++ {
				c := cost[i][s] + cost[s+1][j] + int64(rows[i])*int64(cols[s])*int64(cols[j])
				if best < 0 || c < best {
					best = c
					split[i][j] = s
				}
			}
			cost[i][j] = best
		}
	}

	var build func(i, j int) *chainNode
	build = func(i, j int) *chainNode {
		if i == j {
			return &chainNode{index: i}
		}
		s := split[i][j]
		return &chainNode{left: build(i, s), right: build(s+1, j)}
	}

	plan := &ChainPlan{
		root: build(0, n-1),
		cost: cost[0][n-1],
		rows: rows,
		cols: cols,
	}
	if klog.V(1).Enabled() {
		klog.Infof("einsum: chain plan %s costs %d scalar multiplications (naive left fold: %d)",
			plan, plan.cost, plan.NaiveCost())
	}
	return plan, nil
}

// Cost returns the planned total scalar-multiplication count.
func (p *ChainPlan) Cost() int64 {
	return p.cost
}

// NaiveCost returns the scalar-multiplication count of the unplanned
// left fold over the same shapes.
func (p *ChainPlan) NaiveCost() int64 {
	var total int64
	for k := 1; k < len(p.rows); k++ {
		total += int64(p.rows[0]) * int64(p.cols[k-1]) * int64(p.cols[k])
	}
	return total
}

// String renders the parenthesization, e.g. "((A1 A2) A3)".
func (p *ChainPlan) String() string {
	var b strings.Builder
	p.root.render(&b)
	return b.String()
}

func (n *chainNode) render(b *strings.Builder) {
	if n.left == nil {
		fmt.Fprintf(b, "A%d", n.index+1)
		return
	}
	b.WriteByte('(')
	n.left.render(b)
	b.WriteByte(' ')
	n.right.render(b)
	b.WriteByte(')')
}

// Execute walks the parenthesization tree post-order, issuing one
// binary matrix product per internal node.
func (p *ChainPlan) Execute(operands []*tensor.RawTensor) (*tensor.RawTensor, error) {
	if len(operands) != len(p.rows) {
		return nil, errors.Wrapf(ErrArgumentCount, "chain plan covers %d operands, got %d", len(p.rows), len(operands))
	}
	return p.root.eval(operands)
}

func (n *chainNode) eval(operands []*tensor.RawTensor) (*tensor.RawTensor, error) {
	if n.left == nil {
		return operands[n.index], nil
	}
	left, err := n.left.eval(operands)
	if err != nil {
		return nil, err
	}
	right, err := n.right.eval(operands)
	if err != nil {
		return nil, err
	}
	return MatMul(left, right)
}

// MatMulChain multiplies N matrices using the cheapest
// parenthesization. The 2-operand case bypasses planning and multiplies
// directly.
func MatMulChain(operands ...*tensor.RawTensor) (*tensor.RawTensor, error) {
	switch len(operands) {
	case 0:
		return nil, errors.Wrap(ErrArgumentCount, "matmul chain needs at least one operand")
	case 1:
		return operands[0], nil
	case 2:
		return MatMul(operands[0], operands[1])
	}

	shapes := make([]tensor.Shape, len(operands))
	for i, op := range operands {
		shapes[i] = op.Shape()
	}
	plan, err := PlanChain(shapes)
	if err != nil {
		return nil, err
	}
	return plan.Execute(operands)
}

// MatMulChainNaive multiplies N matrices as an unplanned left fold. It
// produces the same values as MatMulChain through differently sized
// intermediates; it exists for parity testing and benchmarking.
func MatMulChainNaive(operands ...*tensor.RawTensor) (*tensor.RawTensor, error) {
	if len(operands) == 0 {
		return nil, errors.Wrap(ErrArgumentCount, "matmul chain needs at least one operand")
	}
	acc := operands[0]
	for _, op := range operands[1:] {
		next, err := MatMul(acc, op)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return acc, nil
}
