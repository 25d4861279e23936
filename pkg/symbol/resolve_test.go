package symbol

import (
	"testing"

	"github.com/figtreehq/figtree/pkg/guid"
	"github.com/figtreehq/figtree/pkg/scene"
)

// guidPathValue builds the nested path encoding used by override
// entries, mirroring the decoded JSON shapes (float64 numbers).
func guidPathValue(pairs ...[2]uint64) map[string]any {
	guids := make([]any, len(pairs))
	for i, p := range pairs {
		guids[i] = map[string]any{"sessionID": float64(p[0]), "localID": float64(p[1])}
	}
	return map[string]any{"guids": guids}
}

func node(g *scene.Graph, key guid.Key, typ, name string, children ...guid.Key) *scene.Node {
	n := &scene.Node{GUID: key, Type: typ, Name: name, Children: children}
	g.Nodes[key] = n
	return n
}

func newGraph() *scene.Graph {
	return &scene.Graph{Nodes: make(map[guid.Key]*scene.Node)}
}

// labelComponent installs a COMPONENT 0:10 with one TEXT child 0:11
// named "Label", the shared fixture for the instance scenarios.
func labelComponent(g *scene.Graph) {
	node(g, "0:10", scene.TypeComponent, "Button", "0:11")
	node(g, "0:11", scene.TypeText, "Label")
}

func textOverride(characters string, pairs ...[2]uint64) map[string]any {
	return map[string]any{
		"guidPath": guidPathValue(pairs...),
		"textData": map[string]any{"characters": characters},
	}
}

func TestResolveStructuralMatch(t *testing.T) {
	g := newGraph()
	labelComponent(g)

	inst := node(g, "1:1", scene.TypeInstance, "Button", "1:2")
	inst.SymbolID = "0:10"
	inst.SymbolOverrides = []map[string]any{textOverride("Hi", [2]uint64{0, 11})}
	node(g, "1:2", scene.TypeText, "Label")

	resolved := ResolveInstanceOverrides(inst, g)
	fields, ok := resolved["1:2"]
	if !ok {
		t.Fatalf("override should bind to the instance's own TEXT child, got %v", resolved)
	}

	effective := ApplyOverride(g.Nodes["1:2"], fields)
	if effective.TextData["characters"] != "Hi" {
		t.Errorf("effective characters = %v, want Hi", effective.TextData["characters"])
	}
	if g.Nodes["1:2"].TextData != nil {
		t.Error("original node must not be mutated")
	}
}

func TestResolveFallbackSearch(t *testing.T) {
	g := newGraph()
	labelComponent(g)

	// The instance tree has an extra wrapper frame, so the structural
	// index path from the source no longer lands on the text node.
	inst := node(g, "1:1", scene.TypeInstance, "Button", "1:5")
	inst.SymbolID = "0:10"
	inst.SymbolOverrides = []map[string]any{textOverride("Hi", [2]uint64{0, 11})}
	node(g, "1:5", scene.TypeFrame, "Wrap", "1:2")
	node(g, "1:2", scene.TypeText, "Label")

	resolved := ResolveInstanceOverrides(inst, g)
	if _, ok := resolved["1:2"]; !ok {
		t.Fatalf("fallback search should locate the Label TEXT node, got %v", resolved)
	}
	if _, ok := resolved["1:5"]; ok {
		t.Error("wrapper frame must not receive the override")
	}
}

func TestResolveSoleTextHeuristic(t *testing.T) {
	g := newGraph()
	labelComponent(g)

	// The instance's only text child was renamed, so both structural
	// verification and name/type search fail.
	inst := node(g, "1:1", scene.TypeInstance, "Button", "1:2")
	inst.SymbolID = "0:10"
	inst.SymbolOverrides = []map[string]any{textOverride("Hi", [2]uint64{0, 11})}
	node(g, "1:2", scene.TypeText, "Renamed")

	resolved := ResolveInstanceOverrides(inst, g)
	if _, ok := resolved["1:2"]; !ok {
		t.Fatalf("sole-text heuristic should bind the lone pair, got %v", resolved)
	}
}

func TestHeuristicRequiresUniqueness(t *testing.T) {
	g := newGraph()
	labelComponent(g)

	// Two text children: the heuristic must refuse to guess.
	inst := node(g, "1:1", scene.TypeInstance, "Button", "1:2", "1:3")
	inst.SymbolID = "0:10"
	inst.SymbolOverrides = []map[string]any{textOverride("Hi", [2]uint64{0, 11})}
	node(g, "1:2", scene.TypeText, "RenamedA")
	node(g, "1:3", scene.TypeText, "RenamedB")

	resolved := ResolveInstanceOverrides(inst, g)
	if len(resolved) != 0 {
		t.Errorf("ambiguous heuristic must not bind: %v", resolved)
	}

	// A non-text override must not trigger the heuristic either.
	inst.SymbolOverrides = []map[string]any{{
		"guidPath": guidPathValue([2]uint64{0, 11}),
		"name":     "Other",
	}}
	inst.Children = []guid.Key{"1:2"}
	resolved = ResolveInstanceOverrides(inst, g)
	if len(resolved) != 0 {
		t.Errorf("non-text override must not heuristic-bind: %v", resolved)
	}
}

func TestResolveMissingSymbol(t *testing.T) {
	g := newGraph()
	inst := node(g, "1:1", scene.TypeInstance, "Button", "1:2")
	inst.SymbolID = "9:9" // dangling
	inst.SymbolOverrides = []map[string]any{textOverride("Hi", [2]uint64{0, 11})}

	resolved := ResolveInstanceOverrides(inst, g)
	if len(resolved) != 0 {
		t.Errorf("dangling symbol reference must yield an empty map, got %v", resolved)
	}
}

func TestResolveUnknownTargetDropped(t *testing.T) {
	g := newGraph()
	labelComponent(g)

	inst := node(g, "1:1", scene.TypeInstance, "Button", "1:2")
	inst.SymbolID = "0:10"
	// 5:5 is not part of the source component's subtree.
	inst.SymbolOverrides = []map[string]any{textOverride("Hi", [2]uint64{5, 5})}
	node(g, "1:2", scene.TypeText, "Label")

	resolved := ResolveInstanceOverrides(inst, g)
	if len(resolved) != 0 {
		t.Errorf("override with unknown target must be dropped, got %v", resolved)
	}
}

func TestResolveLastWins(t *testing.T) {
	g := newGraph()
	labelComponent(g)

	inst := node(g, "1:1", scene.TypeInstance, "Button", "1:2")
	inst.SymbolID = "0:10"
	inst.SymbolOverrides = []map[string]any{
		textOverride("first", [2]uint64{0, 11}),
		textOverride("second", [2]uint64{0, 11}),
	}
	node(g, "1:2", scene.TypeText, "Label")

	resolved := ResolveInstanceOverrides(inst, g)
	td := resolved["1:2"]["textData"].(map[string]any)
	if td["characters"] != "second" {
		t.Errorf("last-processed override must win, got %v", td["characters"])
	}
}

func TestResolveWithoutLocalChildren(t *testing.T) {
	g := newGraph()
	labelComponent(g)

	// No locally-stored children: the renderer materializes the source
	// subtree, so the binding is keyed by the source node's own key.
	inst := node(g, "1:1", scene.TypeInstance, "Button")
	inst.SymbolID = "0:10"
	inst.SymbolOverrides = []map[string]any{textOverride("Hi", [2]uint64{0, 11})}

	resolved := ResolveInstanceOverrides(inst, g)
	if _, ok := resolved["0:11"]; !ok {
		t.Fatalf("binding should be keyed by the source GUID, got %v", resolved)
	}

	// The render-time lookup falls back from the (missing) local key to
	// the original GUID.
	fields, ok := OverrideFieldsFor(resolved, "1:2", "0:11")
	if !ok {
		t.Fatal("OverrideFieldsFor should fall back to the original key")
	}
	if fields["textData"] == nil {
		t.Errorf("fields = %v", fields)
	}
}

func TestResolveNestedPath(t *testing.T) {
	g := newGraph()
	// Component with a frame wrapping two texts: paths [0 0] and [0 1].
	node(g, "0:10", scene.TypeComponent, "Card", "0:12")
	node(g, "0:12", scene.TypeFrame, "Body", "0:13", "0:14")
	node(g, "0:13", scene.TypeText, "Title")
	node(g, "0:14", scene.TypeText, "Subtitle")

	inst := node(g, "1:1", scene.TypeInstance, "Card", "1:12")
	inst.SymbolID = "0:10"
	inst.SymbolOverrides = []map[string]any{
		// Ancestry elements in the path are ignored; the final GUID is
		// the target.
		textOverride("Hello", [2]uint64{0, 12}, [2]uint64{0, 14}),
	}
	node(g, "1:12", scene.TypeFrame, "Body", "1:13", "1:14")
	node(g, "1:13", scene.TypeText, "Title")
	node(g, "1:14", scene.TypeText, "Subtitle")

	resolved := ResolveInstanceOverrides(inst, g)
	if _, ok := resolved["1:14"]; !ok {
		t.Fatalf("path [0 1] should land on the subtitle, got %v", resolved)
	}
}
