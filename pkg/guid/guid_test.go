package guid

import (
	"encoding/json"
	"testing"
)

func TestKeyFormat(t *testing.T) {
	tests := []struct {
		g    GUID
		want Key
	}{
		{GUID{SessionID: 1, LocalID: 2}, "1:2"},
		{GUID{}, "0:0"},
		{GUID{LocalID: 42}, "0:42"},
		{GUID{SessionID: 7}, "7:0"},
	}

	for _, tt := range tests {
		if got := tt.g.Key(); got != tt.want {
			t.Errorf("GUID%+v.Key() = %q, want %q", tt.g, got, tt.want)
		}
	}
}

func TestUnmarshalEquivalence(t *testing.T) {
	// Object and string encodings of the same pair must normalize to
	// the same canonical key.
	inputs := []string{
		`{"sessionID": 3, "localID": 9}`,
		`"3:9"`,
	}

	for _, in := range inputs {
		var g GUID
		if err := json.Unmarshal([]byte(in), &g); err != nil {
			t.Fatalf("Unmarshal(%s): %v", in, err)
		}
		if g.Key() != "3:9" {
			t.Errorf("Unmarshal(%s).Key() = %q, want 3:9", in, g.Key())
		}
	}
}

func TestUnmarshalMissingFields(t *testing.T) {
	var g GUID
	if err := json.Unmarshal([]byte(`{"localID": 5}`), &g); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if g.Key() != "0:5" {
		t.Errorf("missing sessionID should default to 0, got %q", g.Key())
	}
}

func TestFromValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Key
		ok   bool
	}{
		{"flat map", map[string]any{"sessionID": float64(1), "localID": float64(2)}, "1:2", true},
		{"missing local", map[string]any{"sessionID": float64(4)}, "4:0", true},
		{"string key", "5:6", "5:6", true},
		{"guid value", GUID{SessionID: 8, LocalID: 9}, "8:9", true},
		{"path wrapper", map[string]any{"guids": []any{
			map[string]any{"sessionID": float64(1), "localID": float64(1)},
			map[string]any{"sessionID": float64(2), "localID": float64(7)},
		}}, "2:7", true},
		{"nil", nil, "", false},
		{"empty string", "", "", false},
		{"wrong type", 42, "", false},
		{"empty path", map[string]any{"guids": []any{}}, "", false},
	}

	for _, tt := range tests {
		got, ok := FromValue(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("%s: FromValue = (%q, %v), want (%q, %v)", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPathFromValue(t *testing.T) {
	path, ok := PathFromValue(map[string]any{"guids": []any{
		map[string]any{"sessionID": float64(0), "localID": float64(10)},
		map[string]any{"sessionID": float64(0), "localID": float64(11)},
	}})
	if !ok {
		t.Fatal("PathFromValue should decode a guids wrapper")
	}
	if len(path) != 2 || path[0] != "0:10" || path[1] != "0:11" {
		t.Errorf("unexpected path: %v", path)
	}

	// A flat value is a single-element path.
	path, ok = PathFromValue(map[string]any{"sessionID": float64(1), "localID": float64(3)})
	if !ok || len(path) != 1 || path[0] != "1:3" {
		t.Errorf("flat value path = %v, ok = %v", path, ok)
	}
}

func TestPathSkipsUndecodableElements(t *testing.T) {
	path, ok := PathFromValue(map[string]any{"guids": []any{
		42, // not an identifier shape
		map[string]any{"sessionID": float64(0), "localID": float64(3)},
	}})
	if !ok || len(path) != 1 || path[0] != "0:3" {
		t.Errorf("path = %v, ok = %v; want single decoded element", path, ok)
	}
}
