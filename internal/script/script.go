// Package script parses and runs YAML operation scripts against the
// editor engine. Scripts are the batch counterpart to interactive editing:
//
//	ops:
//	  - op: insert
//	    kind: heading
//	    payload: { text: "Title", level: 1 }
//	  - op: paste
//	    text: "https://youtube.com/watch?v=abc123"
//	  - op: move
//	    from: 1
//	    to: 0
//	  - op: undo
package script

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/blockpress/blockpress/internal/editor"
	"github.com/blockpress/blockpress/internal/engine/blocks"
)

// Errors returned by Parse and Run.
var (
	ErrUnknownOp = errors.New("unknown operation")
	ErrEmptyOp   = errors.New("operation missing op field")
)

// Op is one scripted operation. Which fields apply depends on Op.
type Op struct {
	Op string `yaml:"op"`

	// insert, convert
	Kind    string         `yaml:"kind,omitempty"`
	Payload map[string]any `yaml:"payload,omitempty"`

	// insert, insertMany, paste; nil means append at the end.
	Position *int `yaml:"position,omitempty"`

	// insert
	Focus   bool `yaml:"focus,omitempty"`
	Replace bool `yaml:"replace,omitempty"`

	// insertMany
	Blocks []BlockSpec `yaml:"blocks,omitempty"`

	// delete, convert, focus
	Index int `yaml:"index,omitempty"`

	// move
	From int `yaml:"from,omitempty"`
	To   int `yaml:"to,omitempty"`

	// swap
	A int `yaml:"a,omitempty"`
	B int `yaml:"b,omitempty"`

	// paste
	Text string `yaml:"text,omitempty"`
}

// BlockSpec is one block of an insertMany operation.
type BlockSpec struct {
	Kind    string         `yaml:"kind"`
	Payload map[string]any `yaml:"payload,omitempty"`
}

// Script is a parsed operation script.
type Script struct {
	Ops []Op `yaml:"ops"`
}

// Parse decodes a YAML operation script.
func Parse(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("parsing script: %w", err)
	}
	for i, op := range s.Ops {
		if op.Op == "" {
			return Script{}, fmt.Errorf("op %d: %w", i, ErrEmptyOp)
		}
	}
	return s, nil
}

// Run executes the script's operations in order against the engine. The
// first failing operation stops the run; earlier operations stay applied,
// matching how the engine itself treats partial failures.
func Run(ctx context.Context, e *editor.Engine, s Script) error {
	for i, op := range s.Ops {
		if err := runOp(ctx, e, op); err != nil {
			return fmt.Errorf("op %d (%s): %w", i, op.Op, err)
		}
	}
	return nil
}

func runOp(ctx context.Context, e *editor.Engine, op Op) error {
	pos := blocks.End
	if op.Position != nil {
		pos = *op.Position
	}

	switch op.Op {
	case "insert":
		_, err := e.Insert(op.Kind, op.Payload, pos, op.Focus, op.Replace)
		return err
	case "insertMany":
		specs := make([]blocks.Spec, len(op.Blocks))
		for i, b := range op.Blocks {
			specs[i] = blocks.Spec{Kind: b.Kind, Payload: b.Payload}
		}
		_, err := e.InsertMany(specs, pos)
		return err
	case "delete":
		_, err := e.Delete(op.Index)
		return err
	case "clear":
		_, err := e.Clear()
		return err
	case "move":
		return e.Move(op.From, op.To)
	case "swap":
		return e.Swap(op.A, op.B)
	case "convert":
		_, err := e.Convert(op.Index, op.Kind, op.Payload)
		return err
	case "focus":
		return e.Focus(op.Index)
	case "paste":
		_, err := e.Paste(ctx, op.Text, pos)
		return err
	case "undo":
		// Batch runs move faster than the debounce window; capture any
		// pending change so the undo sees it.
		e.FlushHistory()
		return e.Undo()
	case "redo":
		return e.Redo()
	case "flush":
		e.FlushHistory()
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, op.Op)
	}
}
