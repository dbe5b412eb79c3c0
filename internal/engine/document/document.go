package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DefaultFormatVersion tags documents produced by this engine version.
const DefaultFormatVersion = "1.0"

// Errors returned by document operations.
var (
	ErrEmptyDocument   = errors.New("document data is empty")
	ErrMissingIdentity = errors.New("block has no identity")
	ErrMissingKind     = errors.New("block has no kind")
)

// Document is the root snapshot: an ordered block sequence plus metadata.
type Document struct {
	CreatedAt     int64   `json:"createdAt"`
	Blocks        []Block `json:"blocks"`
	FormatVersion string  `json:"formatVersion"`
}

// New creates an empty document stamped with the current time.
func New(formatVersion string) Document {
	if formatVersion == "" {
		formatVersion = DefaultFormatVersion
	}
	return Document{
		CreatedAt:     time.Now().UnixMilli(),
		FormatVersion: formatVersion,
	}
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := Document{
		CreatedAt:     d.CreatedAt,
		FormatVersion: d.FormatVersion,
	}
	if d.Blocks != nil {
		out.Blocks = make([]Block, len(d.Blocks))
		for i, b := range d.Blocks {
			out.Blocks[i] = b.Clone()
		}
	}
	return out
}

// Equal reports deep value equality with another document.
func (d Document) Equal(other Document) bool {
	if d.CreatedAt != other.CreatedAt || d.FormatVersion != other.FormatVersion {
		return false
	}
	if len(d.Blocks) != len(other.Blocks) {
		return false
	}
	for i := range d.Blocks {
		if !d.Blocks[i].Equal(other.Blocks[i]) {
			return false
		}
	}
	return true
}

// Len returns the number of blocks.
func (d Document) Len() int {
	return len(d.Blocks)
}

// IsEmpty returns true if the document has no blocks.
func (d Document) IsEmpty() bool {
	return len(d.Blocks) == 0
}

// Marshal serializes the document to its JSON interchange form.
func (d Document) Marshal() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}
	return data, nil
}

// Unmarshal parses a document from its JSON interchange form and validates
// the minimal structural invariants.
func Unmarshal(data []byte) (Document, error) {
	if len(data) == 0 {
		return Document{}, ErrEmptyDocument
	}

	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("unmarshaling document: %w", err)
	}

	for i, b := range d.Blocks {
		if b.ID == "" {
			return Document{}, fmt.Errorf("block %d: %w", i, ErrMissingIdentity)
		}
		if b.Kind == "" {
			return Document{}, fmt.Errorf("block %d: %w", i, ErrMissingKind)
		}
	}

	if d.FormatVersion == "" {
		d.FormatVersion = DefaultFormatVersion
	}

	return d, nil
}
