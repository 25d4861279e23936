package symbol

import (
	"slices"

	"github.com/figtreehq/figtree/pkg/guid"
	"github.com/figtreehq/figtree/pkg/scene"
)

// TopologyEntry records where one node sits inside a source component's
// subtree: its name, type, and the sequence of child-array indices
// leading to it from the component root (the root's path is empty).
type TopologyEntry struct {
	Name string
	Type string
	Path []int
}

// IndexComponent walks a source component's subtree depth-first and
// returns a topology entry per internal GUID. Children are resolved
// through the shared node map; a child key that does not resolve is
// skipped without disturbing the positional indices of its siblings:
// paths index into the original children array, not into the resolved
// subset, so they stay stable relative to the structural layout.
func IndexComponent(root *scene.Node, g *scene.Graph) map[guid.Key]TopologyEntry {
	out := make(map[guid.Key]TopologyEntry)
	if root == nil {
		return out
	}
	visited := make(map[guid.Key]bool)
	indexSubtree(root, g, nil, out, visited)
	return out
}

func indexSubtree(n *scene.Node, g *scene.Graph, path []int, out map[guid.Key]TopologyEntry, visited map[guid.Key]bool) {
	if visited[n.GUID] {
		return // malformed self-referential subtree
	}
	visited[n.GUID] = true

	out[n.GUID] = TopologyEntry{Name: n.Name, Type: n.Type, Path: path}

	for i, key := range n.Children {
		child, ok := g.Node(key)
		if !ok {
			continue
		}
		indexSubtree(child, g, append(slices.Clone(path), i), out, visited)
	}
}
