package symbol

import (
	"github.com/figtreehq/figtree/pkg/document"
	"github.com/figtreehq/figtree/pkg/guid"
	"github.com/figtreehq/figtree/pkg/scene"
)

// guidPathField is the override-entry field addressing the target node.
// It is stripped from the entry's remaining fields during extraction.
const guidPathField = "guidPath"

// Override is one normalized instance override: the GUID path it was
// recorded against inside the source component, plus the partial field
// set to apply. Only the path's last element addresses the target;
// earlier elements encode ancestry and are not consulted.
type Override struct {
	TargetPath []guid.Key
	Fields     map[string]any
}

// Target returns the final (addressed) element of the target path.
func (o Override) Target() guid.Key {
	return o.TargetPath[len(o.TargetPath)-1]
}

// ExtractOverrides normalizes an instance's raw override list. Entries
// without a resolvable guidPath are dropped; extraction itself never
// fails. The returned slice preserves input order, which matters for
// last-wins conflict resolution downstream.
func ExtractOverrides(inst *scene.Node) []Override {
	if inst == nil || len(inst.SymbolOverrides) == 0 {
		return nil
	}
	out := make([]Override, 0, len(inst.SymbolOverrides))
	for _, raw := range inst.SymbolOverrides {
		path, ok := guid.PathFromValue(raw[guidPathField])
		if !ok {
			continue
		}
		fields := make(map[string]any, len(raw)-1)
		for k, v := range raw {
			if k == guidPathField {
				continue
			}
			fields[k] = v
		}
		out = append(out, Override{TargetPath: path, Fields: fields})
	}
	return out
}

// ExtractPropValues flattens an instance's component property
// assignments into a value map keyed by the property definition's
// canonical key. Nodes inside the component subtree pick their value
// through their own propRefs. Assignments without a definition key or
// value are dropped.
func ExtractPropValues(inst *scene.Node) map[guid.Key]document.PropValue {
	if inst == nil || len(inst.PropAssignments) == 0 {
		return nil
	}
	out := make(map[guid.Key]document.PropValue, len(inst.PropAssignments))
	for _, a := range inst.PropAssignments {
		if a.DefID == nil || a.Value == nil {
			continue
		}
		out[a.DefID.Key()] = *a.Value
	}
	return out
}

// ResolveSymbol locates the source component record an instance
// references. Returns nil when the instance carries no symbol reference
// or the reference dangles; the instance then renders from its own
// locally-stored children and override resolution is skipped.
func ResolveSymbol(inst *scene.Node, g *scene.Graph) *scene.Node {
	if inst == nil || inst.SymbolID == "" {
		return nil
	}
	src, ok := g.Node(inst.SymbolID)
	if !ok {
		return nil
	}
	return src
}
