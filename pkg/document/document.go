// Package document decodes raw design-document snapshot messages.
//
// A snapshot is a flat, denormalized JSON message with two arrays: an
// ordered list of node-change records and an optional list of binary
// blobs. The decoder is deliberately tolerant: known fields are decoded
// into typed structs, unknown type-specific fields are retained verbatim
// in an Extra map, and nothing in this package rejects a record for
// missing data. Structural interpretation (node maps, adjacency, pages)
// happens later in [github.com/figtreehq/figtree/pkg/scene].
package document

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/figtreehq/figtree/pkg/guid"
)

// Message is a decoded snapshot: the raw material for a scene graph.
type Message struct {
	NodeChanges []NodeChange `json:"nodeChanges"`
	Blobs       []Blob       `json:"blobs,omitempty"`
}

// Blob is an opaque binary payload (typically image bytes). Blobs are
// addressed positionally: vector geometry records reference them by
// their index in the message's blobs array.
type Blob struct {
	Bytes []byte `json:"bytes"`
}

// ParentIndex points a record at its parent node. Position is an opaque
// ordering hint carried by some producers; the snapshot format defines
// no authoritative sibling order, so it is preserved but not
// interpreted.
type ParentIndex struct {
	GUID     *guid.GUID `json:"guid"`
	Position string     `json:"position,omitempty"`
}

// SymbolData is carried by INSTANCE records: the source component
// reference plus the raw override list. Each override entry is a
// partial property bag addressed by a "guidPath" field; extraction into
// normalized records happens in the symbol package.
type SymbolData struct {
	SymbolID        *guid.GUID       `json:"symbolID"`
	SymbolOverrides []map[string]any `json:"symbolOverrides,omitempty"`
}

// PropValue is the tagged value of a component property assignment.
// Exactly one of the fields is normally set.
type PropValue struct {
	TextValue    map[string]any `json:"textValue,omitempty"`
	BoolValue    *bool          `json:"boolValue,omitempty"`
	FloatValue   *float64       `json:"floatValue,omitempty"`
	VariantValue string         `json:"variantValue,omitempty"`
}

// PropAssignment binds a component property definition to a value on a
// specific instance.
type PropAssignment struct {
	DefID *guid.GUID `json:"defID"`
	Value *PropValue `json:"value,omitempty"`
}

// PropRef is carried by nodes inside a component subtree: it names the
// property definition whose assigned value feeds the given node field
// (e.g. "TEXT_DATA").
type PropRef struct {
	DefID *guid.GUID `json:"defID"`
	Field string     `json:"componentPropNodeField"`
}

// Vector is a 2D size or position.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeChange is one record of the flat snapshot list. Known fields are
// typed; any other field survives in Extra so that unrecognized
// type-specific data is never silently discarded.
type NodeChange struct {
	GUID        *guid.GUID
	Type        string
	Name        string
	Visible     *bool
	ParentIndex *ParentIndex
	Children    []guid.GUID
	Size        *Vector
	Position    *Vector

	TextData   map[string]any
	FillPaints []any
	SymbolData *SymbolData

	ComponentPropAssignments []PropAssignment
	ComponentPropRefs        []PropRef

	Extra map[string]any
}

// knownFields is the set of NodeChange fields decoded into typed form.
// Everything else lands in Extra.
var knownFields = map[string]bool{
	"guid":                     true,
	"type":                     true,
	"name":                     true,
	"visible":                  true,
	"parentIndex":              true,
	"children":                 true,
	"size":                     true,
	"position":                 true,
	"textData":                 true,
	"fillPaints":               true,
	"symbolData":               true,
	"componentPropAssignments": true,
	"componentPropRefs":        true,
}

// UnmarshalJSON decodes known fields into their typed form and collects
// everything else into Extra. A field that fails typed decoding is
// demoted to Extra rather than failing the record.
func (n *NodeChange) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for key, value := range raw {
		var err error
		switch key {
		case "guid":
			err = json.Unmarshal(value, &n.GUID)
		case "type":
			err = json.Unmarshal(value, &n.Type)
		case "name":
			err = json.Unmarshal(value, &n.Name)
		case "visible":
			err = json.Unmarshal(value, &n.Visible)
		case "parentIndex":
			err = json.Unmarshal(value, &n.ParentIndex)
		case "children":
			err = json.Unmarshal(value, &n.Children)
		case "size":
			err = json.Unmarshal(value, &n.Size)
		case "position":
			err = json.Unmarshal(value, &n.Position)
		case "textData":
			err = json.Unmarshal(value, &n.TextData)
		case "fillPaints":
			err = json.Unmarshal(value, &n.FillPaints)
		case "symbolData":
			err = json.Unmarshal(value, &n.SymbolData)
		case "componentPropAssignments":
			err = json.Unmarshal(value, &n.ComponentPropAssignments)
		case "componentPropRefs":
			err = json.Unmarshal(value, &n.ComponentPropRefs)
		default:
			n.setExtra(key, value)
			continue
		}
		if err != nil {
			// Keep the raw value instead of rejecting the record.
			n.setExtra(key, value)
		}
	}
	return nil
}

func (n *NodeChange) setExtra(key string, value json.RawMessage) {
	var v any
	if err := json.Unmarshal(value, &v); err != nil {
		return
	}
	if n.Extra == nil {
		n.Extra = make(map[string]any)
	}
	n.Extra[key] = v
}

// MarshalJSON re-serializes the record, merging Extra back alongside
// the typed fields for round-trip fidelity.
func (n NodeChange) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(n.Extra)+8)
	for k, v := range n.Extra {
		if !knownFields[k] {
			out[k] = v
		}
	}
	if n.GUID != nil {
		out["guid"] = n.GUID
	}
	if n.Type != "" {
		out["type"] = n.Type
	}
	if n.Name != "" {
		out["name"] = n.Name
	}
	if n.Visible != nil {
		out["visible"] = n.Visible
	}
	if n.ParentIndex != nil {
		out["parentIndex"] = n.ParentIndex
	}
	if len(n.Children) > 0 {
		out["children"] = n.Children
	}
	if n.Size != nil {
		out["size"] = n.Size
	}
	if n.Position != nil {
		out["position"] = n.Position
	}
	if len(n.TextData) > 0 {
		out["textData"] = n.TextData
	}
	if len(n.FillPaints) > 0 {
		out["fillPaints"] = n.FillPaints
	}
	if n.SymbolData != nil {
		out["symbolData"] = n.SymbolData
	}
	if len(n.ComponentPropAssignments) > 0 {
		out["componentPropAssignments"] = n.ComponentPropAssignments
	}
	if len(n.ComponentPropRefs) > 0 {
		out["componentPropRefs"] = n.ComponentPropRefs
	}
	return json.Marshal(out)
}

// Decode reads a snapshot message from r.
func Decode(r io.Reader) (*Message, error) {
	var msg Message
	if err := json.NewDecoder(r).Decode(&msg); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &msg, nil
}

// DecodeBytes decodes a snapshot message from in-memory JSON.
func DecodeBytes(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &msg, nil
}

// DecodeFile decodes a snapshot message from a JSON file at path.
func DecodeFile(path string) (*Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}
