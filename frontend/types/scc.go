package types

import (
	"github.com/cottand/tyre/util"
	"github.com/hashicorp/go-set/v3"
)

type tarjanFrame[N comparable] struct {
	node  N
	succ  []N
	index int
}

// stronglyConnected returns the strongly connected components of the graph made of
// nodes and succ, in reverse topological order. It uses Tarjan's algorithm with
// explicit stacks so that deep graphs do not exhaust the goroutine stack.
func stronglyConnected[N comparable](nodes []N, succ func(N) []N) [][]N {
	index := make(map[N]int, len(nodes))
	lowLink := make(map[N]int, len(nodes))
	onStack := set.New[N](len(nodes))
	var components [][]N
	var stack util.Stack[N]
	var work util.Stack[tarjanFrame[N]]
	counter := 0

	visit := func(n N) {
		index[n] = counter
		lowLink[n] = counter
		counter++
		stack.Push(n)
		onStack.Insert(n)
		work.Push(tarjanFrame[N]{node: n, succ: succ(n)})
	}

	for _, root := range nodes {
		if _, seen := index[root]; seen {
			continue
		}
		visit(root)
		for work.Len() > 0 {
			frame, _ := work.Peek()
			if frame.index < len(frame.succ) {
				next := frame.succ[frame.index]
				frame.index++
				work.SetTop(frame)
				if _, seen := index[next]; !seen {
					visit(next)
				} else if onStack.Contains(next) {
					lowLink[frame.node] = min(lowLink[frame.node], index[next])
				}
				continue
			}
			work.Pop()
			if parent, ok := work.Peek(); ok {
				lowLink[parent.node] = min(lowLink[parent.node], lowLink[frame.node])
			}
			if lowLink[frame.node] != index[frame.node] {
				continue
			}
			var component []N
			for {
				member, _ := stack.Pop()
				onStack.Remove(member)
				component = append(component, member)
				if member == frame.node {
					break
				}
			}
			components = append(components, component)
		}
	}
	return components
}

// isCyclic reports whether component contains a cycle: it has several members,
// or its single member points to itself
func isCyclic[N comparable](component []N, succ func(N) []N) bool {
	if len(component) > 1 {
		return true
	}
	for _, next := range succ(component[0]) {
		if next == component[0] {
			return true
		}
	}
	return false
}
