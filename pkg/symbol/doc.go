// Package symbol resolves component-instance overrides against the
// source components they were recorded on.
//
// An INSTANCE node references a source component and carries overrides
// addressed by the component's internal node identities. Because a
// component is instantiated many times, and instances nest, the GUIDs
// an override targets usually do not exist inside the instance's own
// subtree. This package re-associates each override with the right node
// of one specific instantiation:
//
//  1. [IndexComponent] walks the source component once and records, per
//     internal GUID, its name, type, and index path from the root.
//  2. [ResolveInstanceOverrides] replays each override's index path
//     over the instance's own subtree, verifies the landing node by
//     name and type, falls back to a full depth-first search on
//     structural divergence, and finally to a narrow single-text
//     heuristic ([resolveBySoleTextHeuristic]).
//  3. [ApplyOverride] merges resolved fields into an effective node
//     view at consumption time, never mutating the originals.
//
// Resolution is a pure function of its inputs: the same snapshot always
// yields the same mapping, so callers may memoize results per instance
// key. Malformed entries are dropped at the smallest possible scope and
// never surface as errors.
package symbol
