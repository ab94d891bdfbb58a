package planner

import (
	"fmt"

	"github.com/chicogong/ffgraph/pkg/graph"
	"github.com/chicogong/ffgraph/pkg/schemas"
)

// orderOperations sorts operations so each comes after the operations it
// references, and groups them into stages: an operation's stage is one
// past the deepest stage it depends on.
func orderOperations(ops []schemas.Operation, refs [][]reference) (order []int, stages [][]int, err error) {
	keys := make([]int, len(ops))
	for i := range keys {
		keys[i] = i
	}
	deps := func(i int) []int {
		var out []int
		for _, r := range refs[i] {
			if !r.isInput() {
				out = append(out, r.op)
			}
		}
		return out
	}

	order, cyclic := graph.Toposort(keys, deps)
	if len(cyclic) > 0 {
		names := make([]string, len(cyclic))
		for i, k := range cyclic {
			names[i] = fmt.Sprintf("operation %d (%s)", k, ops[k].Op)
		}
		return nil, nil, &graph.CyclicGraphError{Nodes: names}
	}

	level := make([]int, len(ops))
	for _, i := range order {
		for _, d := range deps(i) {
			if level[d]+1 > level[i] {
				level[i] = level[d] + 1
			}
		}
		for len(stages) <= level[i] {
			stages = append(stages, nil)
		}
		stages[level[i]] = append(stages[level[i]], i)
	}
	return order, stages, nil
}
