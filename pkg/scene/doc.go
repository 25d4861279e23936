// Package scene reconstructs an addressable scene graph from a flat
// snapshot message.
//
// The snapshot format is a denormalized list of node-change records.
// [Build] turns that list into a node map keyed by canonical GUID keys,
// parent→children adjacency, the ordered page list, the document root,
// and a positional blob index. Construction is defensive throughout:
// records without an identity are dropped, dangling parent or child
// references degrade to orphans or skipped entries, and nothing in this
// package returns an error for malformed data.
//
// # Children order
//
// The snapshot format carries no explicit sibling-order field. Children
// order is therefore the order of encounter in the original flat list,
// and each child is linked into its parent at most once.
//
// # Ownership
//
// Nodes are uniquely owned by their Graph. Position and size edits go
// through [Graph.SetPosition] and [Graph.SetSize], which replace the
// record with a copy so that override resolutions keyed by structural
// identity stay valid while an edit is in flight.
package scene
