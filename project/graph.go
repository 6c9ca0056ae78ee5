package project

import (
	"fmt"

	"github.com/Masterminds/semver"
)

// NodeID indexes a package in a Graph.
type NodeID int

// Node is a resolved package.
type Node struct {
	Name    string
	Version string
	Source  string
}

// Graph is the dependency graph of a lockfile, stored as an arena of nodes and an adjacency list.
type Graph struct {
	nodes  []Node
	edges  [][]NodeID
	byName map[string][]NodeID
}

// BuildGraph resolves every dependency entry of the lockfile to a node.
func BuildGraph(lock *Lockfile) (*Graph, error) {
	g := &Graph{
		nodes:  make([]Node, 0, len(lock.Packages)),
		edges:  make([][]NodeID, len(lock.Packages)),
		byName: make(map[string][]NodeID),
	}

	for i, pkg := range lock.Packages {
		g.nodes = append(g.nodes, Node{Name: pkg.Name, Version: pkg.Version, Source: pkg.Source})
		g.byName[pkg.Name] = append(g.byName[pkg.Name], NodeID(i))
	}

	for i, pkg := range lock.Packages {
		for _, entry := range pkg.Dependencies {
			ref, err := ParseDependencyRef(entry)
			if err != nil {
				return nil, fmt.Errorf("package %s %s: %w", pkg.Name, pkg.Version, err)
			}
			dep, err := g.resolve(ref)
			if err != nil {
				return nil, fmt.Errorf("package %s %s: %w", pkg.Name, pkg.Version, err)
			}
			g.edges[i] = append(g.edges[i], dep)
		}
	}
	return g, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node returns the package stored at id.
func (g *Graph) Node(id NodeID) Node {
	return g.nodes[id]
}

// Dependencies returns the direct dependencies of id.
func (g *Graph) Dependencies(id NodeID) []NodeID {
	return g.edges[id]
}

// Find returns the node with the given name and version. The version may be omitted when only one version of the
// package is locked.
func (g *Graph) Find(name string, version string) (NodeID, error) {
	return g.resolve(DependencyRef{Name: name, Version: version})
}

// Reachable returns root and every package reachable from it, each exactly once, in depth-first pre-order. The walk
// keeps an explicit stack, so the depth of the graph is not bounded by the call stack.
func (g *Graph) Reachable(root NodeID) []NodeID {
	visited := make([]bool, len(g.nodes))
	order := make([]NodeID, 0, len(g.nodes))
	stack := []NodeID{root}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		order = append(order, id)

		// Push in reverse so dependencies are visited in declaration order
		deps := g.edges[id]
		for i := len(deps) - 1; i >= 0; i-- {
			if !visited[deps[i]] {
				stack = append(stack, deps[i])
			}
		}
	}
	return order
}

// resolve finds the node a dependency reference points at. A version that parses as a semantic version must match
// exactly, anything else is treated as a constraint and the highest matching version wins.
func (g *Graph) resolve(ref DependencyRef) (NodeID, error) {
	candidates := g.byName[ref.Name]
	if ref.Source != "" {
		filtered := candidates[:0:0]
		for _, id := range candidates {
			if g.nodes[id].Source == ref.Source {
				filtered = append(filtered, id)
			}
		}
		candidates = filtered
	}

	switch {
	case len(candidates) == 0:
		return 0, fmt.Errorf("dependency '%s' is not in the lockfile", ref.Name)
	case ref.Version == "" && len(candidates) == 1:
		return candidates[0], nil
	case ref.Version == "":
		return 0, fmt.Errorf("dependency '%s' is ambiguous: %d versions are locked", ref.Name, len(candidates))
	}

	if wanted, err := semver.NewVersion(ref.Version); err == nil {
		for _, id := range candidates {
			if g.nodes[id].Version == ref.Version {
				return id, nil
			}
			if locked, err := semver.NewVersion(g.nodes[id].Version); err == nil && locked.Equal(wanted) {
				return id, nil
			}
		}
		return 0, fmt.Errorf("dependency '%s %s' is not in the lockfile", ref.Name, ref.Version)
	}

	constraint, err := semver.NewConstraint(ref.Version)
	if err != nil {
		return 0, fmt.Errorf("dependency '%s' has an invalid version '%s': %w", ref.Name, ref.Version, err)
	}
	var best *semver.Version
	bestID := NodeID(-1)
	for _, id := range candidates {
		locked, err := semver.NewVersion(g.nodes[id].Version)
		if err != nil || !constraint.Check(locked) {
			continue
		}
		if best == nil || locked.GreaterThan(best) {
			best, bestID = locked, id
		}
	}
	if bestID < 0 {
		return 0, fmt.Errorf("no locked version of '%s' satisfies '%s'", ref.Name, ref.Version)
	}
	return bestID, nil
}
