// Package guid canonicalizes the compound node identifiers used by
// design-document snapshots.
//
// Every node in a snapshot is identified by a (sessionID, localID) pair.
// The serialized form of that pair varies: some records carry a flat
// object, some carry an already-canonical string, and override records
// carry a nested {"guids": [...]} path whose last element is the actual
// target. This package decodes all of those encodings exactly once, at
// the boundary, into a single canonical Key ("<session>:<local>") so the
// rest of the system never sees the raw union.
//
// Decoding never fails: absent identifier components default to 0, and
// unrecognizable shapes report ok == false rather than an error.
package guid

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Key is the canonical string form of a compound node identifier,
// formatted as "<session>:<local>". Two encodings that normalize to the
// same Key identify the same node within one node map.
type Key string

// String returns the key as a plain string.
func (k Key) String() string { return string(k) }

// GUID is a compound (session, local) node identifier as it appears in
// snapshot records. The zero value is a valid identifier ("0:0"); absent
// JSON fields decode to 0.
type GUID struct {
	SessionID uint64 `json:"sessionID"`
	LocalID   uint64 `json:"localID"`
}

// Key returns the canonical string form of the identifier.
func (g GUID) Key() Key {
	return Key(fmt.Sprintf("%d:%d", g.SessionID, g.LocalID))
}

// IsZero reports whether both identifier components are zero.
func (g GUID) IsZero() bool { return g.SessionID == 0 && g.LocalID == 0 }

// UnmarshalJSON accepts either the flat object form or an
// already-canonical string ("<session>:<local>"). Missing fields
// default to 0.
func (g *GUID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*g = parseString(s)
		return nil
	}
	type flat GUID
	var f flat
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*g = GUID(f)
	return nil
}

// parseString decodes "<session>:<local>", defaulting malformed or
// missing components to 0.
func parseString(s string) GUID {
	var g GUID
	session, local, ok := strings.Cut(s, ":")
	if !ok {
		g.LocalID, _ = strconv.ParseUint(s, 10, 64)
		return g
	}
	g.SessionID, _ = strconv.ParseUint(session, 10, 64)
	g.LocalID, _ = strconv.ParseUint(local, 10, 64)
	return g
}

// FromValue canonicalizes a dynamically-typed identifier value as found
// in raw property bags. It accepts:
//
//   - a flat object (map with "sessionID"/"localID" fields)
//   - an already-canonical string key
//   - a path wrapper ({"guids": [...]}), in which case the last path
//     element is the canonical target
//   - a GUID value or pointer
//
// The second return value is false when v has none of these shapes.
func FromValue(v any) (Key, bool) {
	path, ok := PathFromValue(v)
	if !ok || len(path) == 0 {
		return "", false
	}
	return path[len(path)-1], true
}

// PathFromValue decodes an identifier value into its full ancestry path.
// Flat encodings yield a single-element path; the {"guids": [...]}
// wrapper yields one Key per element. Only the last element addresses
// the target node; callers that need the target alone should use
// FromValue.
func PathFromValue(v any) ([]Key, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case GUID:
		return []Key{t.Key()}, true
	case *GUID:
		if t == nil {
			return nil, false
		}
		return []Key{t.Key()}, true
	case Key:
		return []Key{parseString(string(t)).Key()}, true
	case string:
		if t == "" {
			return nil, false
		}
		return []Key{parseString(t).Key()}, true
	case map[string]any:
		if wrapped, ok := t["guids"]; ok {
			return pathFromList(wrapped)
		}
		return []Key{fromMap(t)}, true
	default:
		return nil, false
	}
}

// pathFromList flattens a {"guids": [...]} element list. Elements that
// cannot be decoded are skipped; an empty result reports ok == false.
func pathFromList(v any) ([]Key, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	path := make([]Key, 0, len(list))
	for _, el := range list {
		sub, ok := PathFromValue(el)
		if !ok {
			continue
		}
		path = append(path, sub...)
	}
	if len(path) == 0 {
		return nil, false
	}
	return path, true
}

// fromMap canonicalizes a flat identifier map. Components may be JSON
// numbers (float64), integers, or numeric strings; anything else
// defaults to 0.
func fromMap(m map[string]any) Key {
	return GUID{
		SessionID: numeric(m["sessionID"]),
		LocalID:   numeric(m["localID"]),
	}.Key()
}

func numeric(v any) uint64 {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return 0
		}
		return uint64(t)
	case int:
		if t < 0 {
			return 0
		}
		return uint64(t)
	case int64:
		if t < 0 {
			return 0
		}
		return uint64(t)
	case uint64:
		return t
	case json.Number:
		n, err := strconv.ParseUint(t.String(), 10, 64)
		if err != nil {
			return 0
		}
		return n
	case string:
		n, err := strconv.ParseUint(t, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
