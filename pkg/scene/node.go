package scene

import (
	"maps"
	"slices"

	"github.com/figtreehq/figtree/pkg/document"
	"github.com/figtreehq/figtree/pkg/guid"
)

// Node type tags from the snapshot format. The set is open-ended;
// unrecognized tags pass through untouched.
const (
	TypeDocument     = "DOCUMENT"
	TypeCanvas       = "CANVAS"
	TypeFrame        = "FRAME"
	TypeGroup        = "GROUP"
	TypeComponent    = "COMPONENT"
	TypeComponentSet = "COMPONENT_SET"
	TypeInstance     = "INSTANCE"
	TypeText         = "TEXT"
	TypeRectangle    = "RECTANGLE"
	TypeVector       = "VECTOR"
)

// Node is one record of the reconstructed scene graph. A Node is
// uniquely owned by its Graph's node map; nothing outside the graph may
// retain one across a document reload. Effective (override-merged)
// views produced by the symbol package are always fresh copies.
type Node struct {
	GUID     guid.Key
	Type     string
	Name     string
	Visible  *bool
	Parent   guid.Key   // zero when orphaned or top-level
	Children []guid.Key // canonical keys, input-array order

	Size     *document.Vector
	Position *document.Vector

	TextData   map[string]any
	FillPaints []any

	// SymbolID references the source component of an INSTANCE node.
	SymbolID        guid.Key
	SymbolOverrides []map[string]any

	PropAssignments []document.PropAssignment
	PropRefs        []document.PropRef

	// Extra holds type-specific fields the decoder did not recognize.
	Extra map[string]any
}

// IsInstance reports whether the node instantiates a component.
func (n *Node) IsInstance() bool { return n.Type == TypeInstance }

// IsText reports whether the node carries text content.
func (n *Node) IsText() bool { return n.Type == TypeText }

// IsVisible reports the node's visibility, defaulting to true when the
// record carries no visible field.
func (n *Node) IsVisible() bool { return n.Visible == nil || *n.Visible }

// Clone returns a copy of the node with its mutable containers
// (children, textData, fillPaints, extra) duplicated one level deep.
// Nested values inside those containers are shared; callers replacing
// sub-values must install fresh maps rather than writing through.
func (n *Node) Clone() *Node {
	c := *n
	c.Children = slices.Clone(n.Children)
	c.FillPaints = slices.Clone(n.FillPaints)
	if n.TextData != nil {
		c.TextData = maps.Clone(n.TextData)
	}
	if n.Extra != nil {
		c.Extra = maps.Clone(n.Extra)
	}
	return &c
}

// fromChange converts a decoded record into a scene node, canonicalizing
// every identifier it carries. The caller guarantees nc.GUID is non-nil.
func fromChange(nc *document.NodeChange) *Node {
	n := &Node{
		GUID:            nc.GUID.Key(),
		Type:            nc.Type,
		Name:            nc.Name,
		Visible:         nc.Visible,
		Size:            nc.Size,
		Position:        nc.Position,
		TextData:        nc.TextData,
		FillPaints:      nc.FillPaints,
		PropAssignments: nc.ComponentPropAssignments,
		PropRefs:        nc.ComponentPropRefs,
		Extra:           nc.Extra,
	}

	if nc.ParentIndex != nil && nc.ParentIndex.GUID != nil {
		n.Parent = nc.ParentIndex.GUID.Key()
	}

	// Locally-stored children arrive in the flat-object encoding and are
	// canonicalized here so the node map has a single key form.
	if len(nc.Children) > 0 {
		n.Children = make([]guid.Key, len(nc.Children))
		for i, g := range nc.Children {
			n.Children[i] = g.Key()
		}
	}

	if nc.SymbolData != nil {
		if nc.SymbolData.SymbolID != nil {
			n.SymbolID = nc.SymbolData.SymbolID.Key()
		}
		n.SymbolOverrides = nc.SymbolData.SymbolOverrides
	}

	return n
}
