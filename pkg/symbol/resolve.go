package symbol

import (
	"github.com/figtreehq/figtree/pkg/guid"
	"github.com/figtreehq/figtree/pkg/scene"
)

// ResolvedOverrides binds override field sets to one specific
// instance's own node keys. It is scoped to a single render pass over
// that instance: recompute it per invocation or memoize it by the
// instance's key, both are valid since resolution is deterministic.
type ResolvedOverrides map[guid.Key]map[string]any

// ResolveInstanceOverrides computes the override binding for one
// instance node. For each recorded override it:
//
//  1. Looks up the source topology entry for the override's target;
//     overrides whose target is unknown to the source component are
//     dropped.
//  2. Replays the entry's index path over the instance's own children
//     arrays; the landing node is accepted when its name and type match
//     the source entry's.
//  3. Falls back to a depth-first search of the instance subtree for
//     the first node matching the source entry's name and type.
//  4. As a last resort, binds a lone text-content override to a lone
//     top-level TEXT child (see resolveBySoleTextHeuristic).
//
// When several overrides resolve to the same instance node, the
// last-processed entry wins wholesale; distinct overrides are never
// merged with each other.
//
// An instance without a resolvable source component yields an empty
// map. An instance without locally-stored children is keyed by the
// source component's own node keys: its renderer materializes the
// source subtree directly, so the source GUIDs are the "original" keys
// that OverrideFieldsFor falls back to.
func ResolveInstanceOverrides(inst *scene.Node, g *scene.Graph) ResolvedOverrides {
	out := make(ResolvedOverrides)
	src := ResolveSymbol(inst, g)
	if src == nil {
		return out
	}

	topo := IndexComponent(src, g)
	overrides := ExtractOverrides(inst)
	hasLocalTree := len(inst.Children) > 0

	var unmatched []Override
	for _, ov := range overrides {
		entry, ok := topo[ov.Target()]
		if !ok {
			continue // nothing to resolve against
		}

		if !hasLocalTree {
			out[ov.Target()] = ov.Fields
			continue
		}

		if n := walkPath(inst, g, entry.Path); n != nil && n.Name == entry.Name && n.Type == entry.Type {
			out[n.GUID] = ov.Fields
			continue
		}

		if n := searchByNameType(inst, g, entry.Name, entry.Type); n != nil {
			out[n.GUID] = ov.Fields
			continue
		}

		unmatched = append(unmatched, ov)
	}

	if key, fields, ok := resolveBySoleTextHeuristic(inst, g, unmatched); ok {
		out[key] = fields
	}

	return out
}

// walkPath replays a source index path over the instance subtree,
// returning the landing node or nil when the walk runs off the
// structure (index out of range, or a child key that does not resolve).
func walkPath(inst *scene.Node, g *scene.Graph, path []int) *scene.Node {
	n := inst
	for _, idx := range path {
		if idx < 0 || idx >= len(n.Children) {
			return nil
		}
		child, ok := g.Node(n.Children[idx])
		if !ok {
			return nil
		}
		n = child
	}
	return n
}

// searchByNameType finds the first node in the instance subtree whose
// name and type both match, in depth-first child order. First match
// wins; there is no further ambiguity resolution.
func searchByNameType(inst *scene.Node, g *scene.Graph, name, typ string) *scene.Node {
	var found *scene.Node
	g.Walk(inst, func(n *scene.Node) bool {
		if n.Name == name && n.Type == typ {
			found = n
			return false
		}
		return true
	})
	return found
}

// resolveBySoleTextHeuristic pairs a lone unmatched text-content
// override with a lone TEXT node among the instance's top-level
// children, regardless of structural or name mismatch.
//
// This is a deliberate, isolated escape hatch: it recovers the common
// "single relabeled text" case after both structural and name/type
// matching have failed, but it can mis-bind in documents where the
// pairing is ambiguous. It fires only when both sides are unique.
func resolveBySoleTextHeuristic(inst *scene.Node, g *scene.Graph, unmatched []Override) (guid.Key, map[string]any, bool) {
	var textOverride *Override
	for i := range unmatched {
		if _, ok := unmatched[i].Fields["textData"]; !ok {
			continue
		}
		if textOverride != nil {
			return "", nil, false // more than one candidate override
		}
		textOverride = &unmatched[i]
	}
	if textOverride == nil {
		return "", nil, false
	}

	var textChild *scene.Node
	for _, c := range g.ChildNodes(inst) {
		if !c.IsText() {
			continue
		}
		if textChild != nil {
			return "", nil, false // more than one candidate node
		}
		textChild = c
	}
	if textChild == nil {
		return "", nil, false
	}

	return textChild.GUID, textOverride.Fields, true
}
