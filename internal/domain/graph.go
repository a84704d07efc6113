package domain

import (
	"sort"

	m "github.com/mouse-blink/archdna/internal/model"
)

// nsGraph is the namespace dependency digraph in index/adjacency form.
// Nodes are namespace names sorted ascending, so traversal order and
// therefore output order is deterministic.
type nsGraph struct {
	nodes []string
	index map[string]int
	adj   [][]int
}

func buildNSGraph(namespaces []string, edges []m.DependencyEdge) *nsGraph {
	g := &nsGraph{
		nodes: append([]string(nil), namespaces...),
		index: make(map[string]int, len(namespaces)),
	}
	sort.Strings(g.nodes)
	for i, ns := range g.nodes {
		g.index[ns] = i
	}
	g.adj = make([][]int, len(g.nodes))
	for _, e := range edges {
		from, okFrom := g.index[e.From]
		to, okTo := g.index[e.To]
		if okFrom && okTo {
			g.adj[from] = append(g.adj[from], to)
		}
	}
	return g
}

// cycles returns the strongly connected components of size greater than one,
// each as a sorted list of namespace names. Tarjan's algorithm: single DFS,
// lowlink tracking, stack membership flags.
func (g *nsGraph) cycles() [][]string {
	n := len(g.nodes)
	const unvisited = -1

	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = unvisited
	}

	var stack []int
	counter := 0
	var components [][]int

	var strongConnect func(v int)
	strongConnect = func(v int) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.adj[v] {
			if index[w] == unvisited {
				strongConnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] && index[w] < lowlink[v] {
				lowlink[v] = index[w]
			}
		}

		if lowlink[v] == index[v] {
			var comp []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			if len(comp) > 1 {
				components = append(components, comp)
			}
		}
	}

	for v := 0; v < n; v++ {
		if index[v] == unvisited {
			strongConnect(v)
		}
	}

	var named [][]string
	for _, comp := range components {
		names := make([]string, 0, len(comp))
		for _, v := range comp {
			names = append(names, g.nodes[v])
		}
		sort.Strings(names)
		named = append(named, names)
	}
	sort.Slice(named, func(i, j int) bool { return named[i][0] < named[j][0] })
	return named
}

// degrees returns per-namespace outgoing and incoming edge counts.
func (g *nsGraph) degrees() (out, in []int) {
	out = make([]int, len(g.nodes))
	in = make([]int, len(g.nodes))
	for v, targets := range g.adj {
		out[v] = len(targets)
		for _, w := range targets {
			in[w]++
		}
	}
	return out, in
}
