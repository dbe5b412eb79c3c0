// Package document defines the canonical in-memory representation of an
// edited document: an ordered sequence of blocks plus metadata.
//
// A Document is the unit of interchange with every external collaborator
// (storage, renderers, import/export endpoints) and the unit of undo/redo
// snapshotting. Block order is the sole source of positional truth; there is
// no separate index field.
//
// Blocks are value objects. A block's payload is owned by the renderer for
// its kind and is treated as an opaque associative container here - the
// engine never destructures it by field name. Mutation always replaces a
// payload wholesale, never patches it in place, so snapshots taken before and
// after a change are structurally distinct.
//
// # Serialization
//
// The JSON form is the sole interchange format:
//
//	{
//	  "createdAt": 1700000000000,
//	  "blocks": [{"identity": "...", "kind": "paragraph", "payload": {...}}],
//	  "formatVersion": "1.0"
//	}
//
// Round-tripping a Document through Marshal and Unmarshal yields a
// value-equal Document.
package document
