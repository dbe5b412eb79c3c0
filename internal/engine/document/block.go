package document

import (
	"encoding/json"

	"github.com/google/uuid"
)

// DefaultKind is the reserved block kind that is always accepted, even when
// no kind registry has been configured.
const DefaultKind = "paragraph"

// Block is a single addressable unit of document content.
// The payload shape is owned by the block kind's renderer; the engine treats
// it as opaque.
type Block struct {
	// ID is an opaque identity, stable across moves and payload replacement.
	ID string `json:"identity"`

	// Kind names the block type in the kind registry.
	Kind string `json:"kind"`

	// Payload is the kind-specific data. Never destructured by the engine.
	Payload map[string]any `json:"payload"`
}

// NewBlock creates a block of the given kind with a fresh identity.
// The payload is deep-copied so later caller mutations cannot leak in.
func NewBlock(kind string, payload map[string]any) Block {
	return Block{
		ID:      uuid.NewString(),
		Kind:    kind,
		Payload: clonePayload(payload),
	}
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	return Block{
		ID:      b.ID,
		Kind:    b.Kind,
		Payload: clonePayload(b.Payload),
	}
}

// Equal reports deep value equality with another block.
func (b Block) Equal(other Block) bool {
	if b.ID != other.ID || b.Kind != other.Kind {
		return false
	}
	return payloadEqual(b.Payload, other.Payload)
}

// clonePayload deep-copies JSON-native payload values. Unknown value types
// are copied by reference; payloads are expected to hold only values that
// survive JSON serialization.
func clonePayload(p map[string]any) map[string]any {
	if p == nil {
		return nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return clonePayload(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return val
	}
}

// payloadEqual compares payloads by their canonical JSON encoding.
// Canonicalizing tolerates numeric type drift (int vs float64) between a
// live payload and one reloaded from serialized form.
func payloadEqual(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(aj) == string(bj)
}
