package symbol

import (
	"maps"

	"github.com/figtreehq/figtree/pkg/document"
	"github.com/figtreehq/figtree/pkg/guid"
	"github.com/figtreehq/figtree/pkg/scene"
)

// Node fields targeted by component property references.
const (
	PropFieldTextData = "TEXT_DATA"
	PropFieldVisible  = "VISIBLE"
)

// OverrideFieldsFor looks up the override fields for a node during a
// render pass: first by the node's instance-local key, then by its
// original GUID (the source component's key, used when the instance
// renders the source subtree directly).
func OverrideFieldsFor(m ResolvedOverrides, localKey, originalKey guid.Key) (map[string]any, bool) {
	if fields, ok := m[localKey]; ok {
		return fields, true
	}
	fields, ok := m[originalKey]
	return fields, ok
}

// ApplyOverride merges resolved override fields into a node's effective
// view. The input node is never mutated: with a non-empty override a
// fresh copy is returned, otherwise the original pointer comes back
// unchanged.
//
// Every override field replaces the corresponding base field wholesale,
// except textData: when both sides carry a textData bag, it is merged
// sub-field by sub-field, the override's non-null entries winning and
// everything else surviving from the base. A field whose value has the
// wrong shape is treated as "no override" for that field.
func ApplyOverride(n *scene.Node, fields map[string]any) *scene.Node {
	if n == nil || len(fields) == 0 {
		return n
	}
	c := n.Clone()
	for k, v := range fields {
		switch k {
		case "name":
			if s, ok := v.(string); ok {
				c.Name = s
			}
		case "visible":
			if b, ok := v.(bool); ok {
				c.Visible = &b
			}
		case "textData":
			if m, ok := v.(map[string]any); ok {
				c.TextData = mergeTextData(n.TextData, m)
			}
		case "fillPaints":
			if l, ok := v.([]any); ok {
				c.FillPaints = l
			}
		case "size":
			if vec, ok := vectorFromValue(v); ok {
				c.Size = vec
			}
		case "position":
			if vec, ok := vectorFromValue(v); ok {
				c.Position = vec
			}
		default:
			if c.Extra == nil {
				c.Extra = make(map[string]any, 1)
			}
			c.Extra[k] = v
		}
	}
	return c
}

// ApplyPropValues merges component property values into the node fields
// named by its propRefs. Text values follow the textData merge rule:
// the referenced value's characters (and lines, when present) are
// merged into the node's textData, preserving unrelated sub-fields.
// A node without applicable refs is returned unchanged by reference.
func ApplyPropValues(n *scene.Node, values map[guid.Key]document.PropValue) *scene.Node {
	if n == nil || len(n.PropRefs) == 0 || len(values) == 0 {
		return n
	}
	out := n
	for _, ref := range n.PropRefs {
		if ref.DefID == nil {
			continue
		}
		v, ok := values[ref.DefID.Key()]
		if !ok {
			continue
		}
		switch ref.Field {
		case PropFieldTextData:
			if v.TextValue == nil {
				continue
			}
			patch := make(map[string]any, 2)
			if chars, ok := v.TextValue["characters"]; ok {
				patch["characters"] = chars
			}
			if lines, ok := v.TextValue["lines"]; ok {
				patch["lines"] = lines
			}
			if len(patch) == 0 {
				continue
			}
			if out == n {
				out = n.Clone()
			}
			out.TextData = mergeTextData(out.TextData, patch)
		case PropFieldVisible:
			if v.BoolValue == nil {
				continue
			}
			if out == n {
				out = n.Clone()
			}
			visible := *v.BoolValue
			out.Visible = &visible
		}
	}
	return out
}

// mergeTextData merges an override textData bag over a base bag.
// Null override sub-fields are ignored so a base sub-field can only be
// replaced, never dropped.
func mergeTextData(base, override map[string]any) map[string]any {
	var out map[string]any
	if base != nil {
		out = maps.Clone(base)
	} else {
		out = make(map[string]any, len(override))
	}
	for k, v := range override {
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}

// vectorFromValue decodes a {x, y} bag; malformed shapes report false.
func vectorFromValue(v any) (*document.Vector, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	x, okX := m["x"].(float64)
	y, okY := m["y"].(float64)
	if !okX || !okY {
		return nil, false
	}
	return &document.Vector{X: x, Y: y}, true
}
