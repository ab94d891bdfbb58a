package graph

// Toposort orders keys so every key comes after its dependencies, using
// Kahn's algorithm. Dependencies outside keys are ignored and repeated
// dependencies count once per occurrence. Keys whose in-degree never drops
// to zero sit on or behind a cycle and are returned as cyclic, in input
// order. The result is deterministic: ready keys are released in the order
// they appear in keys.
func Toposort[K comparable](keys []K, deps func(K) []K) (order, cyclic []K) {
	member := make(map[K]bool, len(keys))
	for _, k := range keys {
		member[k] = true
	}

	// Count incoming edges for each key
	inDegree := make(map[K]int, len(keys))
	dependents := make(map[K][]K, len(keys))
	for _, k := range keys {
		if _, seen := inDegree[k]; seen {
			continue
		}
		inDegree[k] = 0
		for _, d := range deps(k) {
			if !member[d] {
				continue
			}
			inDegree[k]++
			dependents[d] = append(dependents[d], k)
		}
	}

	// Queue of keys with no incoming edges
	queue := make([]K, 0, len(keys))
	queued := make(map[K]bool, len(keys))
	for _, k := range keys {
		if inDegree[k] == 0 && !queued[k] {
			queued[k] = true
			queue = append(queue, k)
		}
	}

	order = make([]K, 0, len(inDegree))
	for head := 0; head < len(queue); head++ {
		k := queue[head]
		order = append(order, k)

		for _, succ := range dependents[k] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if len(order) == len(inDegree) {
		return order, nil
	}

	done := make(map[K]bool, len(order))
	for _, k := range order {
		done[k] = true
	}
	for _, k := range keys {
		if !done[k] {
			done[k] = true
			cyclic = append(cyclic, k)
		}
	}
	return order, cyclic
}
