// Package depgraph builds a directed graph of file-level imports and
// answers bounded reachability queries, used as a blast-radius proxy.
package depgraph

// ImportEdge is a single import relationship between two files.
type ImportEdge struct {
	SourceFile    string
	TargetFile    string
	ImportedNames []string
}

// Graph is a directed file-level import graph. The edge list is the
// source of truth; forward and reverse adjacency are derived indexes
// updated on insertion. Nodes are file-path keys, never pointers.
type Graph struct {
	edges   []ImportEdge
	forward map[string]map[string]bool // file -> files it imports
	reverse map[string]map[string]bool // file -> files importing it
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		forward: make(map[string]map[string]bool),
		reverse: make(map[string]map[string]bool),
	}
}

// AddEdge records an import edge and updates both adjacency indexes.
func (g *Graph) AddEdge(edge ImportEdge) {
	g.edges = append(g.edges, edge)
	if g.forward[edge.SourceFile] == nil {
		g.forward[edge.SourceFile] = make(map[string]bool)
	}
	g.forward[edge.SourceFile][edge.TargetFile] = true
	if g.reverse[edge.TargetFile] == nil {
		g.reverse[edge.TargetFile] = make(map[string]bool)
	}
	g.reverse[edge.TargetFile][edge.SourceFile] = true
}

// Edges returns the authoritative edge list.
func (g *Graph) Edges() []ImportEdge {
	return g.edges
}

// Dependents returns all files that transitively import filePath, up to
// maxDepth hops, excluding filePath itself.
func (g *Graph) Dependents(filePath string, maxDepth int) map[string]bool {
	return g.traverse(filePath, maxDepth, g.reverse)
}

// Dependencies returns all files filePath transitively imports, up to
// maxDepth hops, excluding filePath itself.
func (g *Graph) Dependencies(filePath string, maxDepth int) map[string]bool {
	return g.traverse(filePath, maxDepth, g.forward)
}

// DependencyDepth is the size of the full dependents set: how many files
// would need awareness of a change to filePath. Not a hop-count metric.
func (g *Graph) DependencyDepth(filePath string) int {
	return len(g.Dependents(filePath, defaultMaxDepth))
}

const defaultMaxDepth = 5

type queueItem struct {
	file  string
	depth int
}

func (g *Graph) traverse(start string, maxDepth int, adjacency map[string]map[string]bool) map[string]bool {
	visited := make(map[string]bool)
	queue := []queueItem{{file: start, depth: 0}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if visited[item.file] || item.depth > maxDepth {
			continue
		}
		visited[item.file] = true
		for next := range adjacency[item.file] {
			queue = append(queue, queueItem{file: next, depth: item.depth + 1})
		}
	}

	delete(visited, start)
	return visited
}
