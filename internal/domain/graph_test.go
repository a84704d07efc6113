package domain

import (
	"testing"

	m "github.com/mouse-blink/archdna/internal/model"
)

func edges(pairs ...[2]string) []m.DependencyEdge {
	out := make([]m.DependencyEdge, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, m.DependencyEdge{From: p[0], To: p[1]})
	}
	return out
}

func TestCycles_ThreeNodeCycle(t *testing.T) {
	g := buildNSGraph([]string{"A", "B", "C"}, edges([2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"C", "A"}))

	cycles := g.cycles()
	if len(cycles) != 1 {
		t.Fatalf("expected one cycle, got %v", cycles)
	}
	if len(cycles[0]) != 3 {
		t.Fatalf("all three namespaces belong to the cycle: %v", cycles[0])
	}
}

func TestCycles_BrokenCycleReportsNothing(t *testing.T) {
	g := buildNSGraph([]string{"A", "B", "C"}, edges([2]string{"A", "B"}, [2]string{"B", "C"}))

	if cycles := g.cycles(); len(cycles) != 0 {
		t.Fatalf("acyclic graph must report no cycles, got %v", cycles)
	}
}

func TestCycles_SelfLoopExcluded(t *testing.T) {
	// A single-node SCC is not a cycle for this analysis, even with a
	// self-edge present in the input.
	g := buildNSGraph([]string{"A", "B"}, edges([2]string{"A", "A"}, [2]string{"A", "B"}))

	if cycles := g.cycles(); len(cycles) != 0 {
		t.Fatalf("single-node components must be excluded, got %v", cycles)
	}
}

func TestCycles_TwoIndependentCycles(t *testing.T) {
	g := buildNSGraph(
		[]string{"A", "B", "X", "Y"},
		edges([2]string{"A", "B"}, [2]string{"B", "A"}, [2]string{"X", "Y"}, [2]string{"Y", "X"}),
	)

	cycles := g.cycles()
	if len(cycles) != 2 {
		t.Fatalf("expected two cycles, got %v", cycles)
	}
	if cycles[0][0] != "A" || cycles[1][0] != "X" {
		t.Fatalf("cycles must be reported in deterministic order: %v", cycles)
	}
}

func TestDegrees(t *testing.T) {
	g := buildNSGraph([]string{"A", "B", "C"}, edges([2]string{"A", "B"}, [2]string{"A", "C"}, [2]string{"B", "C"}))

	out, in := g.degrees()
	if out[g.index["A"]] != 2 || in[g.index["A"]] != 0 {
		t.Fatalf("A: out=%d in=%d", out[g.index["A"]], in[g.index["A"]])
	}
	if out[g.index["C"]] != 0 || in[g.index["C"]] != 2 {
		t.Fatalf("C: out=%d in=%d", out[g.index["C"]], in[g.index["C"]])
	}
}

func TestBuildNSGraph_IgnoresUnknownEndpoints(t *testing.T) {
	g := buildNSGraph([]string{"A"}, edges([2]string{"A", "External"}))

	out, _ := g.degrees()
	if out[0] != 0 {
		t.Fatalf("edges to undeclared namespaces must be dropped, got out=%d", out[0])
	}
}
