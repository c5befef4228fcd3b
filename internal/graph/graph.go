// Package graph implements the installed-package-version graph: a
// synthetic root representing "the user" with an edge to every
// explicitly installed (non-external) package version, replacing the
// original's Digraph/Node object graph with an arena of integer IDs and
// (from, to) adjacency pairs.
//
// The catalog's data model never carries dependency metadata between
// package versions (PackageVersion.Content is opaque, re-parsed on
// demand, never expanded into structured dependency edges), so this
// graph cannot express transitive package-to-package dependencies; it
// models exactly what the installation oracle can observe — which
// versions are installed, and whether the user installed them directly.
package graph

import (
	"sort"

	"github.com/npackd/npackd/internal/oracle"
	"github.com/npackd/npackd/internal/version"
)

// PackageVersionID is an arena index. Root is reserved for the
// synthetic "user" node and is never a real package version.
type PackageVersionID int

// Root is the synthetic node representing the user, who "depends on"
// every package version they installed directly.
const Root PackageVersionID = 0

// Node describes one arena entry. The Root node has an empty Package.
type Node struct {
	Package  string
	Version  version.Version
	Path     string
	External bool
}

// Graph is an arena of Nodes plus a (from, to) adjacency list, built
// fresh from an installation snapshot rather than mutated in place.
type Graph struct {
	nodes []Node
	edges map[PackageVersionID][]PackageVersionID
	index map[string]PackageVersionID // "<package> <version>" -> id
}

// Build constructs a Graph from the installation oracle's snapshot: one
// node per installed version, plus a Root -> node edge for every
// version that was not externally detected (i.e. the user asked for it,
// directly or through npackd, rather than it being discovered already
// present on the system).
func Build(installed []oracle.InstalledPackageVersion) *Graph {
	g := &Graph{
		nodes: []Node{{}}, // index 0 is Root
		edges: make(map[PackageVersionID][]PackageVersionID),
		index: make(map[string]PackageVersionID),
	}

	sorted := make([]oracle.InstalledPackageVersion, len(installed))
	copy(sorted, installed)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Package != sorted[j].Package {
			return sorted[i].Package < sorted[j].Package
		}
		return sorted[i].Version.Compare(sorted[j].Version) < 0
	})

	for _, ipv := range sorted {
		id := PackageVersionID(len(g.nodes))
		g.nodes = append(g.nodes, Node{
			Package:  ipv.Package,
			Version:  ipv.Version,
			Path:     ipv.Path,
			External: ipv.External,
		})
		g.index[key(ipv.Package, ipv.Version)] = id
		if !ipv.External {
			g.edges[Root] = append(g.edges[Root], id)
		}
	}

	return g
}

// Node returns the arena entry for id.
func (g *Graph) Node(id PackageVersionID) Node {
	return g.nodes[id]
}

// Len returns the number of nodes, including Root.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Find returns the ID for a (package, version) pair, or false if it is
// not in the graph.
func (g *Graph) Find(pkg string, v version.Version) (PackageVersionID, bool) {
	id, ok := g.index[key(pkg, v)]
	return id, ok
}

// Dependents returns the IDs with an edge from id, in insertion order.
// Dependents(Root) is every directly-installed (non-external) version.
func (g *Graph) Dependents(id PackageVersionID) []PackageVersionID {
	return g.edges[id]
}

func key(pkg string, v version.Version) string {
	return pkg + " " + v.String()
}
