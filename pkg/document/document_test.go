package document

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestDecodeMinimal(t *testing.T) {
	msg, err := DecodeBytes([]byte(`{"nodeChanges": []}`))
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if len(msg.NodeChanges) != 0 || len(msg.Blobs) != 0 {
		t.Errorf("empty message should decode to empty slices: %+v", msg)
	}
}

func TestDecodeNodeChange(t *testing.T) {
	data := []byte(`{
		"nodeChanges": [
			{
				"guid": {"sessionID": 0, "localID": 1},
				"type": "FRAME",
				"name": "Header",
				"parentIndex": {"guid": {"sessionID": 0, "localID": 2}, "position": "!"},
				"size": {"x": 320, "y": 48},
				"cornerRadius": 8,
				"strokeWeight": 1.5
			}
		]
	}`)

	msg, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if len(msg.NodeChanges) != 1 {
		t.Fatalf("want 1 record, got %d", len(msg.NodeChanges))
	}

	nc := msg.NodeChanges[0]
	if nc.GUID == nil || nc.GUID.Key() != "0:1" {
		t.Errorf("guid = %v, want 0:1", nc.GUID)
	}
	if nc.Type != "FRAME" || nc.Name != "Header" {
		t.Errorf("type/name = %q/%q", nc.Type, nc.Name)
	}
	if nc.ParentIndex == nil || nc.ParentIndex.GUID.Key() != "0:2" {
		t.Errorf("parentIndex = %+v", nc.ParentIndex)
	}
	if nc.Size == nil || nc.Size.X != 320 || nc.Size.Y != 48 {
		t.Errorf("size = %+v", nc.Size)
	}

	// Unknown fields survive in Extra.
	if nc.Extra["cornerRadius"] != float64(8) {
		t.Errorf("cornerRadius should be retained in Extra: %v", nc.Extra)
	}
	if nc.Extra["strokeWeight"] != float64(1.5) {
		t.Errorf("strokeWeight should be retained in Extra: %v", nc.Extra)
	}
}

func TestDecodeMalformedFieldDemotedToExtra(t *testing.T) {
	// A children field of the wrong shape should not fail the record.
	data := []byte(`{"nodeChanges": [{"guid": "0:1", "type": "FRAME", "children": "bogus"}]}`)
	msg, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	nc := msg.NodeChanges[0]
	if nc.Children != nil {
		t.Errorf("malformed children should not decode: %v", nc.Children)
	}
	if nc.Extra["children"] != "bogus" {
		t.Errorf("malformed children should be retained in Extra: %v", nc.Extra)
	}
}

func TestDecodeSymbolData(t *testing.T) {
	data := []byte(`{
		"nodeChanges": [{
			"guid": "1:5",
			"type": "INSTANCE",
			"symbolData": {
				"symbolID": {"sessionID": 0, "localID": 10},
				"symbolOverrides": [
					{"guidPath": {"guids": [{"sessionID": 0, "localID": 11}]}, "name": "Replaced"}
				]
			},
			"componentPropAssignments": [
				{"defID": {"sessionID": 0, "localID": 99}, "value": {"textValue": {"characters": "Hi"}}}
			]
		}]
	}`)

	msg, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	nc := msg.NodeChanges[0]
	if nc.SymbolData == nil || nc.SymbolData.SymbolID.Key() != "0:10" {
		t.Fatalf("symbolData = %+v", nc.SymbolData)
	}
	if len(nc.SymbolData.SymbolOverrides) != 1 {
		t.Fatalf("want 1 override, got %d", len(nc.SymbolData.SymbolOverrides))
	}
	if nc.SymbolData.SymbolOverrides[0]["name"] != "Replaced" {
		t.Errorf("override fields = %v", nc.SymbolData.SymbolOverrides[0])
	}
	if len(nc.ComponentPropAssignments) != 1 || nc.ComponentPropAssignments[0].DefID.Key() != "0:99" {
		t.Errorf("assignments = %+v", nc.ComponentPropAssignments)
	}
	if nc.ComponentPropAssignments[0].Value.TextValue["characters"] != "Hi" {
		t.Errorf("textValue = %v", nc.ComponentPropAssignments[0].Value.TextValue)
	}
}

func TestDecodeBlobs(t *testing.T) {
	// "bytes" is standard base64 of []byte in JSON.
	raw, _ := json.Marshal(Message{Blobs: []Blob{{Bytes: []byte{1, 2, 3}}}})
	msg, err := DecodeBytes(raw)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if len(msg.Blobs) != 1 || !bytes.Equal(msg.Blobs[0].Bytes, []byte{1, 2, 3}) {
		t.Errorf("blobs = %+v", msg.Blobs)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	in := []byte(`{"nodeChanges": [{"guid": "0:1", "type": "TEXT", "opacity": 0.5}]}`)
	msg, err := DecodeBytes(in)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}

	out, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	again, err := DecodeBytes(out)
	if err != nil {
		t.Fatalf("re-decode: %v", err)
	}

	nc := again.NodeChanges[0]
	if nc.Type != "TEXT" || nc.GUID.Key() != "0:1" {
		t.Errorf("round trip lost typed fields: %+v", nc)
	}
	if nc.Extra["opacity"] != float64(0.5) {
		t.Errorf("round trip lost extra fields: %v", nc.Extra)
	}
}
