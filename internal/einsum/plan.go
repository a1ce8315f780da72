package einsum

import (
	"sort"

	"k8s.io/klog/v2"
)

// PlanLoops orders the spec's index ids into a loop nesting order,
// outermost first, chosen to keep the innermost loop on the axis that
// sits contiguous-last across the operand specs. No stride information
// is consulted; axis positions within the specs approximate row-major
// locality.
//
// For each ordered pair of distinct ids (a, b), the violation score of
// placing a before b is the number of operand specs (inputs and
// outputs) in which b occupies an earlier axis position than a. The ids
// are sorted with a "fewer violations first" comparator; ties keep the
// original id order. The result is deterministic for a fixed spec.
func PlanLoops(spec *Spec) []int {
	specs := make([][]int, 0, len(spec.Inputs)+len(spec.Outputs))
	specs = append(specs, spec.Inputs...)
	specs = append(specs, spec.Outputs...)

	// positions[s][id] is the first axis position of id in spec s, -1
	// when absent.
	positions := make([][]int, len(specs))
	for si, sp := range specs {
		pos := make([]int, spec.NumIDs())
		for i := range pos {
			pos[i] = -1
		}
		for axis, id := range sp {
			if pos[id] == -1 {
				pos[id] = axis
			}
		}
		positions[si] = pos
	}

	// score(a, b): specs in which b appears at an earlier axis position
	// than a.
	score := func(a, b int) int {
		n := 0
		for _, pos := range positions {
			if pos[a] >= 0 && pos[b] >= 0 && pos[b] < pos[a] {
				n++
			}
		}
		return n
	}

	order := make([]int, spec.NumIDs())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		return score(a, b) < score(b, a)
	})

	if klog.V(2).Enabled() {
		klog.Infof("einsum: planned loop order %v for spec %s", order, spec)
	}
	return order
}
