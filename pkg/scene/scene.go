package scene

import (
	"fmt"
	"slices"

	"github.com/figtreehq/figtree/pkg/document"
	"github.com/figtreehq/figtree/pkg/guid"
)

// Graph is the reconstructed scene graph of one snapshot: an
// addressable node map, parent→children adjacency, the page list, and
// the positional blob index.
//
// A Graph is built once per loaded document and is read-only afterwards
// except for the explicit SetPosition/SetSize edits, which replace the
// edited node with a copy instead of mutating it in place. Graph is not
// safe for concurrent mutation without external synchronization.
type Graph struct {
	// Nodes maps canonical keys to node records. Keys are unique;
	// insertion order carries no meaning.
	Nodes map[guid.Key]*Node

	// Pages lists the top-level CANVAS nodes in input-array order.
	Pages []*Node

	// Document is the single DOCUMENT node, or nil if the snapshot
	// carries none.
	Document *Node

	// Blobs maps positional blob keys ("blob_<i>") to raw payloads.
	Blobs map[string][]byte
}

// BlobKey returns the positional key for the i-th blob of a snapshot.
// The index matches the value referenced as commandsBlob by vector
// geometry records, so the mapping must stay exactly positional.
func BlobKey(i int) string { return fmt.Sprintf("blob_%d", i) }

// Build reconstructs a scene graph from a decoded snapshot message.
//
// The first pass inserts every record that carries a guid into the node
// map; records without one are dropped. DOCUMENT records become the
// document node and CANVAS records become pages, in input order. The
// second pass links each record with a resolvable parentIndex into its
// parent's children list, appending in input order and at most once.
// A child whose parent is absent from the map stays in the node map as
// an orphan; that is a degraded result, not an error.
func Build(msg *document.Message) *Graph {
	if msg == nil {
		msg = &document.Message{}
	}
	g := &Graph{
		Nodes: make(map[guid.Key]*Node, len(msg.NodeChanges)),
		Blobs: make(map[string][]byte, len(msg.Blobs)),
	}

	for i := range msg.NodeChanges {
		nc := &msg.NodeChanges[i]
		if nc.GUID == nil {
			continue // malformed identity: drop the record
		}
		n := fromChange(nc)

		_, seen := g.Nodes[n.GUID]
		g.Nodes[n.GUID] = n

		switch n.Type {
		case TypeDocument:
			g.Document = n
		case TypeCanvas:
			if seen {
				// A re-stated page replaces its earlier record in place,
				// keeping the original page order.
				for pi, p := range g.Pages {
					if p.GUID == n.GUID {
						g.Pages[pi] = n
						break
					}
				}
			} else {
				g.Pages = append(g.Pages, n)
			}
		}
	}

	// Link children in input order. Iterating the original list (rather
	// than the map) is what fixes sibling order, since the format has no
	// explicit ordering field.
	for i := range msg.NodeChanges {
		nc := &msg.NodeChanges[i]
		if nc.GUID == nil || nc.ParentIndex == nil || nc.ParentIndex.GUID == nil {
			continue
		}
		parent, ok := g.Nodes[nc.ParentIndex.GUID.Key()]
		if !ok {
			continue // dangling parent: the child stays orphaned
		}
		child := nc.GUID.Key()
		if !slices.Contains(parent.Children, child) {
			parent.Children = append(parent.Children, child)
		}
	}

	for i := range msg.Blobs {
		g.Blobs[BlobKey(i)] = msg.Blobs[i].Bytes
	}

	return g
}

// Node returns the node with the given canonical key.
func (g *Graph) Node(key guid.Key) (*Node, bool) {
	n, ok := g.Nodes[key]
	return n, ok
}

// NodeCount returns the number of nodes in the map.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// ChildNodes resolves a node's children against the node map. Keys that
// do not resolve are skipped, so the result may be shorter than the
// children list; positional indices into the original list are the
// topology indexer's concern, not this accessor's.
func (g *Graph) ChildNodes(n *Node) []*Node {
	if n == nil || len(n.Children) == 0 {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, key := range n.Children {
		if c, ok := g.Nodes[key]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Walk traverses the subtree rooted at n depth-first in child order,
// calling fn for each resolvable node including the root. Traversal
// stops early when fn returns false. Self-referential children lists
// (malformed input) are visited once, not looped.
func (g *Graph) Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	g.walk(n, fn, make(map[guid.Key]bool))
}

func (g *Graph) walk(n *Node, fn func(*Node) bool, visited map[guid.Key]bool) bool {
	if visited[n.GUID] {
		return true
	}
	visited[n.GUID] = true
	if !fn(n) {
		return false
	}
	for _, key := range n.Children {
		if c, ok := g.Nodes[key]; ok {
			if !g.walk(c, fn, visited) {
				return false
			}
		}
	}
	return true
}

// Orphans returns nodes that are neither the document node, a page, nor
// reachable from any parent's children list. Orphans are valid nodes;
// this accessor exists for diagnostics.
func (g *Graph) Orphans() []*Node {
	reachable := make(map[guid.Key]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		for _, c := range n.Children {
			reachable[c] = true
		}
	}
	var out []*Node
	for _, n := range g.Nodes {
		if reachable[n.GUID] {
			continue
		}
		if n == g.Document || n.Type == TypeCanvas {
			continue
		}
		out = append(out, n)
	}
	return out
}

// SetPosition replaces the node's record with a copy carrying the new
// position. Copy-on-write keeps previously resolved override maps and
// effective views valid: they continue to reference the old record.
// Returns false when the key does not resolve.
func (g *Graph) SetPosition(key guid.Key, pos document.Vector) bool {
	n, ok := g.Nodes[key]
	if !ok {
		return false
	}
	c := n.Clone()
	c.Position = &document.Vector{X: pos.X, Y: pos.Y}
	g.Nodes[key] = c
	g.replaceRef(n, c)
	return true
}

// SetSize replaces the node's record with a copy carrying the new size,
// under the same copy-on-write contract as SetPosition.
func (g *Graph) SetSize(key guid.Key, size document.Vector) bool {
	n, ok := g.Nodes[key]
	if !ok {
		return false
	}
	c := n.Clone()
	c.Size = &document.Vector{X: size.X, Y: size.Y}
	g.Nodes[key] = c
	g.replaceRef(n, c)
	return true
}

// replaceRef swaps a replaced record in the page list and document slot.
func (g *Graph) replaceRef(old, repl *Node) {
	for i, p := range g.Pages {
		if p == old {
			g.Pages[i] = repl
		}
	}
	if g.Document == old {
		g.Document = repl
	}
}
