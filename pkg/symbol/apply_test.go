package symbol

import (
	"reflect"
	"testing"

	"github.com/figtreehq/figtree/pkg/document"
	"github.com/figtreehq/figtree/pkg/guid"
	"github.com/figtreehq/figtree/pkg/scene"
)

func TestApplyOverrideNoFields(t *testing.T) {
	n := &scene.Node{GUID: "0:1", Type: scene.TypeText}
	if got := ApplyOverride(n, nil); got != n {
		t.Error("absent override must return the original node by reference")
	}
	if got := ApplyOverride(n, map[string]any{}); got != n {
		t.Error("empty override must return the original node by reference")
	}
}

func TestApplyOverrideReplacesFields(t *testing.T) {
	n := &scene.Node{
		GUID:       "0:1",
		Type:       scene.TypeRectangle,
		Name:       "Old",
		FillPaints: []any{"red"},
	}
	eff := ApplyOverride(n, map[string]any{
		"name":       "New",
		"visible":    false,
		"fillPaints": []any{"blue"},
		"opacity":    0.5,
	})

	if eff == n {
		t.Fatal("override must produce a fresh node")
	}
	if eff.Name != "New" || eff.IsVisible() {
		t.Errorf("name/visible = %q/%v", eff.Name, eff.IsVisible())
	}
	if !reflect.DeepEqual(eff.FillPaints, []any{"blue"}) {
		t.Errorf("fillPaints = %v", eff.FillPaints)
	}
	if eff.Extra["opacity"] != 0.5 {
		t.Errorf("unrecognized field should land in Extra: %v", eff.Extra)
	}

	// Original untouched.
	if n.Name != "Old" || !reflect.DeepEqual(n.FillPaints, []any{"red"}) {
		t.Errorf("original mutated: %+v", n)
	}
}

func TestApplyOverrideTextDataMerge(t *testing.T) {
	n := &scene.Node{
		GUID: "0:1",
		Type: scene.TypeText,
		TextData: map[string]any{
			"characters": "old",
			"fontSize":   float64(12),
		},
	}
	fields := map[string]any{"textData": map[string]any{
		"characters": "new",
		"lineHeight": nil, // null sub-fields never clobber the base
	}}

	eff := ApplyOverride(n, fields)
	if eff.TextData["characters"] != "new" {
		t.Errorf("characters = %v", eff.TextData["characters"])
	}
	if eff.TextData["fontSize"] != float64(12) {
		t.Error("base sub-field not specified by the override must survive")
	}
	if _, ok := eff.TextData["lineHeight"]; ok {
		t.Error("null override sub-field must be ignored")
	}
}

func TestApplyOverrideIdempotent(t *testing.T) {
	n := &scene.Node{GUID: "0:1", Type: scene.TypeText, TextData: map[string]any{"fontSize": float64(12)}}
	fields := map[string]any{
		"name":     "X",
		"textData": map[string]any{"characters": "hi"},
	}

	once := ApplyOverride(n, fields)
	twice := ApplyOverride(once, fields)
	if !reflect.DeepEqual(once.TextData, twice.TextData) || once.Name != twice.Name {
		t.Errorf("apply must be idempotent: %+v vs %+v", once, twice)
	}
}

func TestApplyOverrideMalformedShapes(t *testing.T) {
	n := &scene.Node{GUID: "0:1", Type: scene.TypeText, Name: "Keep"}
	eff := ApplyOverride(n, map[string]any{
		"name":     42,                // wrong shape: no override
		"textData": "not a map",       // wrong shape: no override
		"size":     map[string]any{},  // missing x/y: no override
		"visible":  "yes",             // wrong shape: no override
	})
	if eff.Name != "Keep" || eff.TextData != nil || eff.Size != nil || eff.Visible != nil {
		t.Errorf("malformed values must be treated as no override: %+v", eff)
	}
}

func TestApplyOverrideVectors(t *testing.T) {
	n := &scene.Node{GUID: "0:1", Type: scene.TypeFrame}
	eff := ApplyOverride(n, map[string]any{
		"size":     map[string]any{"x": float64(100), "y": float64(40)},
		"position": map[string]any{"x": float64(8), "y": float64(16)},
	})
	if eff.Size == nil || eff.Size.X != 100 || eff.Size.Y != 40 {
		t.Errorf("size = %+v", eff.Size)
	}
	if eff.Position == nil || eff.Position.X != 8 || eff.Position.Y != 16 {
		t.Errorf("position = %+v", eff.Position)
	}
}

func TestApplyPropValues(t *testing.T) {
	def := &guid.GUID{LocalID: 99}
	n := &scene.Node{
		GUID:     "1:2",
		Type:     scene.TypeText,
		TextData: map[string]any{"fontSize": float64(12)},
		PropRefs: []document.PropRef{{DefID: def, Field: PropFieldTextData}},
	}
	values := map[guid.Key]document.PropValue{
		"0:99": {TextValue: map[string]any{"characters": "Hi", "lines": []any{"Hi"}}},
	}

	eff := ApplyPropValues(n, values)
	if eff == n {
		t.Fatal("applicable ref must produce a fresh node")
	}
	if eff.TextData["characters"] != "Hi" {
		t.Errorf("characters = %v", eff.TextData["characters"])
	}
	if eff.TextData["fontSize"] != float64(12) {
		t.Error("merge must preserve unrelated textData sub-fields")
	}
	if n.TextData["characters"] != nil {
		t.Error("original node must not be mutated")
	}
}

func TestApplyPropValuesNoMatch(t *testing.T) {
	n := &scene.Node{
		GUID:     "1:2",
		Type:     scene.TypeText,
		PropRefs: []document.PropRef{{DefID: &guid.GUID{LocalID: 1}, Field: PropFieldTextData}},
	}
	// No assignment for def 0:1.
	if eff := ApplyPropValues(n, map[guid.Key]document.PropValue{"0:2": {}}); eff != n {
		t.Error("node without an applicable value must come back by reference")
	}
}

func TestApplyPropValuesVisible(t *testing.T) {
	hidden := false
	n := &scene.Node{
		GUID:     "1:3",
		Type:     scene.TypeFrame,
		PropRefs: []document.PropRef{{DefID: &guid.GUID{LocalID: 7}, Field: PropFieldVisible}},
	}
	eff := ApplyPropValues(n, map[guid.Key]document.PropValue{"0:7": {BoolValue: &hidden}})
	if eff.IsVisible() {
		t.Error("bool value should toggle visibility")
	}
}

func TestExtractOverrides(t *testing.T) {
	inst := &scene.Node{GUID: "1:1", Type: scene.TypeInstance, SymbolOverrides: []map[string]any{
		{
			"guidPath": guidPathValue([2]uint64{0, 11}),
			"name":     "Replaced",
		},
		{"name": "no target"}, // dropped: no guidPath
		{
			"guidPath": "0:12", // string form is accepted too
			"visible":  false,
		},
	}}

	overrides := ExtractOverrides(inst)
	if len(overrides) != 2 {
		t.Fatalf("want 2 extracted overrides, got %d", len(overrides))
	}
	if overrides[0].Target() != "0:11" {
		t.Errorf("target = %v", overrides[0].Target())
	}
	if _, ok := overrides[0].Fields["guidPath"]; ok {
		t.Error("guidPath must be stripped from fields")
	}
	if overrides[0].Fields["name"] != "Replaced" {
		t.Errorf("fields = %v", overrides[0].Fields)
	}
}

func TestExtractPropValues(t *testing.T) {
	v := document.PropValue{VariantValue: "primary"}
	inst := &scene.Node{GUID: "1:1", Type: scene.TypeInstance, PropAssignments: []document.PropAssignment{
		{DefID: &guid.GUID{LocalID: 5}, Value: &v},
		{DefID: nil, Value: &v},                  // dropped
		{DefID: &guid.GUID{LocalID: 6}},          // dropped: no value
	}}

	values := ExtractPropValues(inst)
	if len(values) != 1 {
		t.Fatalf("want 1 value, got %d", len(values))
	}
	if values["0:5"].VariantValue != "primary" {
		t.Errorf("values = %v", values)
	}
}
