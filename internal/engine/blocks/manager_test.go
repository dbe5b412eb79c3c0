package blocks

import (
	"errors"
	"testing"

	"github.com/blockpress/blockpress/internal/engine/document"
	"github.com/blockpress/blockpress/internal/engine/kind"
	"github.com/blockpress/blockpress/internal/event"
)

func newTestManager(t *testing.T, kinds ...string) (*Manager, *event.Bus) {
	t.Helper()
	bus := event.NewBus()
	return NewManager(kind.NewRegistry(kinds...), bus), bus
}

func collectEvents(t *testing.T, bus *event.Bus, names ...string) *[]event.Event {
	t.Helper()
	var got []event.Event
	for _, name := range names {
		if _, err := bus.On(name, func(e event.Event) error {
			got = append(got, e)
			return nil
		}); err != nil {
			t.Fatalf("subscribe %q failed: %v", name, err)
		}
	}
	return &got
}

func mustInsert(t *testing.T, m *Manager, kindName, text string) document.Block {
	t.Helper()
	b, err := m.Insert(kindName, map[string]any{"text": text}, End, false, false)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	return b
}

func TestInsertAppend(t *testing.T) {
	m, bus := newTestManager(t)
	events := collectEvents(t, bus, event.BlockInserted)

	b, err := m.Insert(document.DefaultKind, map[string]any{"text": "hello"}, End, true, false)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if b.ID == "" {
		t.Error("expected generated block identity")
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 block, got %d", m.Len())
	}
	if m.CurrentIndex() != 0 {
		t.Errorf("expected caret at 0, got %d", m.CurrentIndex())
	}

	if len(*events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(*events))
	}
	p := (*events)[0].Payload.(event.BlockInsertedPayload)
	if p.Index != 0 || !p.Focus || p.Replaced {
		t.Errorf("unexpected payload: %+v", p)
	}
}

func TestInsertAtPosition(t *testing.T) {
	m, _ := newTestManager(t)
	mustInsert(t, m, document.DefaultKind, "a")
	mustInsert(t, m, document.DefaultKind, "c")

	if _, err := m.Insert(document.DefaultKind, map[string]any{"text": "b"}, 1, false, false); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	want := []string{"a", "b", "c"}
	for i, text := range want {
		b, err := m.BlockAt(i)
		if err != nil {
			t.Fatalf("block at %d: %v", i, err)
		}
		if b.Payload["text"] != text {
			t.Errorf("expected block %d text %q, got %v", i, text, b.Payload["text"])
		}
	}
}

func TestInsertValidation(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		payload map[string]any
		pos     int
		wantErr error
	}{
		{"unknown kind", "video", map[string]any{}, End, ErrUnknownKind},
		{"nil payload", document.DefaultKind, nil, End, ErrInvalidPayload},
		{"negative position", document.DefaultKind, map[string]any{}, -2, ErrOutOfRange},
		{"position past end", document.DefaultKind, map[string]any{}, 5, ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, bus := newTestManager(t)
			errs := collectEvents(t, bus, event.Error)
			mustInsert(t, m, document.DefaultKind, "existing")

			_, err := m.Insert(tt.kind, tt.payload, tt.pos, false, false)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if m.Len() != 1 {
				t.Errorf("expected store unchanged, got %d blocks", m.Len())
			}
			if len(*errs) != 1 {
				t.Errorf("expected 1 error event, got %d", len(*errs))
			}
		})
	}
}

func TestInsertReplace(t *testing.T) {
	m, bus := newTestManager(t, "header")
	mustInsert(t, m, document.DefaultKind, "old")
	events := collectEvents(t, bus, event.BlockDeleted, event.BlockInserted)

	b, err := m.Insert("header", map[string]any{"text": "new"}, 0, false, true)
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	if m.Len() != 1 {
		t.Errorf("expected 1 block after replace, got %d", m.Len())
	}
	got, _ := m.BlockAt(0)
	if got.ID != b.ID || got.Kind != "header" {
		t.Errorf("expected replacement block at 0, got %+v", got)
	}

	if len(*events) != 2 {
		t.Fatalf("expected deleted+inserted events, got %d", len(*events))
	}
	if (*events)[0].Name != event.BlockDeleted || (*events)[1].Name != event.BlockInserted {
		t.Errorf("unexpected event order: %s, %s", (*events)[0].Name, (*events)[1].Name)
	}
	if !(*events)[1].Payload.(event.BlockInsertedPayload).Replaced {
		t.Error("expected inserted payload to record replacement")
	}
}

func TestInsertReplaceAtEnd(t *testing.T) {
	m, _ := newTestManager(t)
	mustInsert(t, m, document.DefaultKind, "a")

	if _, err := m.Insert(document.DefaultKind, map[string]any{}, 1, false, true); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange replacing past last block, got %v", err)
	}
	if _, err := m.Insert(document.DefaultKind, map[string]any{}, End, false, true); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange replacing at End, got %v", err)
	}
}

func TestInsertMany(t *testing.T) {
	m, _ := newTestManager(t, "header")
	mustInsert(t, m, document.DefaultKind, "z")

	specs := []Spec{
		{Kind: "header", Payload: map[string]any{"text": "one"}},
		{Kind: document.DefaultKind, Payload: map[string]any{"text": "two"}},
	}
	inserted, err := m.InsertMany(specs, 0)
	if err != nil {
		t.Fatalf("insertMany failed: %v", err)
	}

	if len(inserted) != 2 {
		t.Fatalf("expected 2 inserted, got %d", len(inserted))
	}
	got, _ := m.BlockAt(0)
	if got.Payload["text"] != "one" {
		t.Errorf("expected first inserted block at 0, got %v", got.Payload["text"])
	}
	if m.Len() != 3 {
		t.Errorf("expected 3 blocks, got %d", m.Len())
	}
}

func TestInsertManyPartialFailure(t *testing.T) {
	m, _ := newTestManager(t)

	specs := []Spec{
		{Kind: document.DefaultKind, Payload: map[string]any{"text": "ok"}},
		{Kind: "video", Payload: map[string]any{}},
		{Kind: document.DefaultKind, Payload: map[string]any{"text": "never"}},
	}
	inserted, err := m.InsertMany(specs, End)

	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if len(inserted) != 1 {
		t.Errorf("expected 1 inserted before failure, got %d", len(inserted))
	}
	if m.Len() != 1 {
		t.Errorf("expected inserted prefix to remain, got %d blocks", m.Len())
	}
}

func TestDelete(t *testing.T) {
	m, bus := newTestManager(t)
	mustInsert(t, m, document.DefaultKind, "a")
	b := mustInsert(t, m, document.DefaultKind, "b")
	events := collectEvents(t, bus, event.BlockDeleted)

	removed, err := m.Delete(1)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if removed.ID != b.ID {
		t.Errorf("expected removed block %s, got %s", b.ID, removed.ID)
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 block, got %d", m.Len())
	}
	if len(*events) != 1 {
		t.Errorf("expected 1 deleted event, got %d", len(*events))
	}
}

func TestDeleteOutOfRange(t *testing.T) {
	m, bus := newTestManager(t)
	errs := collectEvents(t, bus, event.Error)
	mustInsert(t, m, document.DefaultKind, "a")

	for _, i := range []int{-1, 1, 99} {
		if _, err := m.Delete(i); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("delete(%d): expected ErrOutOfRange, got %v", i, err)
		}
	}
	if m.Len() != 1 {
		t.Errorf("expected store unchanged, got %d blocks", m.Len())
	}
	if len(*errs) != 3 {
		t.Errorf("expected 3 error events, got %d", len(*errs))
	}
}

func TestBlockAtOutOfRange(t *testing.T) {
	m, _ := newTestManager(t)
	mustInsert(t, m, document.DefaultKind, "a")

	for _, i := range []int{-1, 1} {
		if _, err := m.BlockAt(i); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("blockAt(%d): expected ErrOutOfRange, got %v", i, err)
		}
	}
}

func TestClear(t *testing.T) {
	m, bus := newTestManager(t)
	mustInsert(t, m, document.DefaultKind, "a")
	mustInsert(t, m, document.DefaultKind, "b")
	events := collectEvents(t, bus, event.BlocksCleared)

	if count := m.Clear(); count != 2 {
		t.Errorf("expected 2 cleared, got %d", count)
	}
	if m.Len() != 0 {
		t.Errorf("expected empty store, got %d blocks", m.Len())
	}
	if m.CurrentIndex() != -1 {
		t.Errorf("expected caret reset, got %d", m.CurrentIndex())
	}
	if len(*events) != 1 {
		t.Errorf("expected 1 cleared event, got %d", len(*events))
	}
}

func TestMove(t *testing.T) {
	m, bus := newTestManager(t)
	mustInsert(t, m, document.DefaultKind, "a")
	mustInsert(t, m, document.DefaultKind, "b")
	mustInsert(t, m, document.DefaultKind, "c")
	events := collectEvents(t, bus, event.BlockMoved)

	if err := m.Move(0, 2); err != nil {
		t.Fatalf("move failed: %v", err)
	}

	want := []string{"b", "c", "a"}
	for i, text := range want {
		b, _ := m.BlockAt(i)
		if b.Payload["text"] != text {
			t.Errorf("expected block %d text %q, got %v", i, text, b.Payload["text"])
		}
	}
	if len(*events) != 1 {
		t.Errorf("expected 1 moved event, got %d", len(*events))
	}
}

func TestMoveNoOpAndBounds(t *testing.T) {
	m, bus := newTestManager(t)
	errs := collectEvents(t, bus, event.Error)
	mustInsert(t, m, document.DefaultKind, "a")
	mustInsert(t, m, document.DefaultKind, "b")

	if err := m.Move(1, 1); err != nil {
		t.Errorf("expected same-index move to be a no-op, got %v", err)
	}
	if err := m.Move(0, 3); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if err := m.Move(-1, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if len(*errs) != 2 {
		t.Errorf("expected 2 error events, got %d", len(*errs))
	}
}

func TestMoveToLength(t *testing.T) {
	m, bus := newTestManager(t)
	mustInsert(t, m, document.DefaultKind, "a")
	mustInsert(t, m, document.DefaultKind, "b")
	moves := collectEvents(t, bus, event.BlockMoved)

	// A destination equal to the block count places the block last.
	if err := m.Move(0, 2); err != nil {
		t.Fatalf("move to end failed: %v", err)
	}

	want := []string{"b", "a"}
	for i, text := range want {
		b, _ := m.BlockAt(i)
		if b.Payload["text"] != text {
			t.Errorf("expected block %d text %q, got %v", i, text, b.Payload["text"])
		}
	}
	if len(*moves) != 1 {
		t.Fatalf("expected 1 moved event, got %d", len(*moves))
	}
	payload := (*moves)[0].Payload.(event.BlockMovedPayload)
	if payload.From != 0 || payload.To != 1 {
		t.Errorf("expected move 0 to 1, got %d to %d", payload.From, payload.To)
	}

	// Moving the last block "after the end" changes nothing and stays silent.
	if err := m.Move(1, 2); err != nil {
		t.Errorf("expected end-to-end move to be a no-op, got %v", err)
	}
	if len(*moves) != 1 {
		t.Errorf("expected no event for no-op move, got %d", len(*moves))
	}
}

func TestSwap(t *testing.T) {
	m, bus := newTestManager(t)
	mustInsert(t, m, document.DefaultKind, "a")
	mustInsert(t, m, document.DefaultKind, "b")
	events := collectEvents(t, bus, event.BlocksSwapped)

	if err := m.Swap(0, 1); err != nil {
		t.Fatalf("swap failed: %v", err)
	}

	first, _ := m.BlockAt(0)
	if first.Payload["text"] != "b" {
		t.Errorf("expected %q first after swap, got %v", "b", first.Payload["text"])
	}
	if len(*events) != 1 {
		t.Errorf("expected 1 swapped event, got %d", len(*events))
	}

	if err := m.Swap(0, 0); err != nil {
		t.Errorf("expected same-index swap to be a no-op, got %v", err)
	}
	if err := m.Swap(0, 2); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestConvertCarriesPayload(t *testing.T) {
	m, bus := newTestManager(t, "header")
	old := mustInsert(t, m, document.DefaultKind, "title text")
	events := collectEvents(t, bus, event.BlockConverted)

	converted, err := m.Convert(0, "header", nil)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	if converted.Kind != "header" {
		t.Errorf("expected kind header, got %q", converted.Kind)
	}
	if converted.Payload["text"] != "title text" {
		t.Errorf("expected payload carried over, got %v", converted.Payload)
	}
	if converted.ID == old.ID {
		t.Error("expected convert to assign a new identity")
	}

	if len(*events) != 1 {
		t.Fatalf("expected 1 converted event, got %d", len(*events))
	}
	p := (*events)[0].Payload.(event.BlockConvertedPayload)
	if p.OldKind != document.DefaultKind || p.NewKind != "header" {
		t.Errorf("expected kinds recorded, got %+v", p)
	}
}

func TestConvertExplicitPayload(t *testing.T) {
	m, _ := newTestManager(t, "code")
	mustInsert(t, m, document.DefaultKind, "x")

	converted, err := m.Convert(0, "code", map[string]any{"code": "y"})
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if converted.Payload["code"] != "y" {
		t.Errorf("expected explicit payload, got %v", converted.Payload)
	}
}

func TestConvertValidation(t *testing.T) {
	m, _ := newTestManager(t)
	mustInsert(t, m, document.DefaultKind, "a")

	if _, err := m.Convert(5, document.DefaultKind, nil); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := m.Convert(0, "video", nil); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
	b, _ := m.BlockAt(0)
	if b.Kind != document.DefaultKind {
		t.Errorf("expected block unchanged after failed convert, got %q", b.Kind)
	}
}

func TestRenderReplacesSequence(t *testing.T) {
	m, bus := newTestManager(t, "header")
	mustInsert(t, m, document.DefaultKind, "stale")
	events := collectEvents(t, bus, event.BlocksRendered)

	doc := document.Document{
		CreatedAt:     42,
		FormatVersion: "1.0",
		Blocks: []document.Block{
			document.NewBlock("header", map[string]any{"text": "t"}),
			document.NewBlock(document.DefaultKind, map[string]any{"text": "b"}),
		},
	}
	if err := m.Render(doc); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	if m.Len() != 2 {
		t.Errorf("expected 2 blocks, got %d", m.Len())
	}
	snap := m.Snapshot()
	if snap.CreatedAt != 42 {
		t.Errorf("expected createdAt adopted, got %d", snap.CreatedAt)
	}
	if len(*events) != 1 {
		t.Errorf("expected 1 rendered event, got %d", len(*events))
	}
}

func TestRenderBlocksKeepsMetadata(t *testing.T) {
	m, _ := newTestManager(t)
	mustInsert(t, m, document.DefaultKind, "stale")
	createdAt := m.Snapshot().CreatedAt

	err := m.RenderBlocks([]document.Block{
		document.NewBlock(document.DefaultKind, map[string]any{"text": "fresh"}),
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	snap := m.Snapshot()
	if snap.CreatedAt != createdAt {
		t.Errorf("expected createdAt kept at %d, got %d", createdAt, snap.CreatedAt)
	}
	if snap.Len() != 1 || snap.Blocks[0].Payload["text"] != "fresh" {
		t.Errorf("expected replaced sequence, got %+v", snap.Blocks)
	}
}

func TestRenderRejectsUnknownKind(t *testing.T) {
	m, _ := newTestManager(t)
	mustInsert(t, m, document.DefaultKind, "keep")

	doc := document.Document{Blocks: []document.Block{
		document.NewBlock("video", map[string]any{}),
	}}
	if err := m.Render(doc); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}

	b, _ := m.BlockAt(0)
	if b.Payload["text"] != "keep" {
		t.Error("expected store unchanged after failed render")
	}
}

func TestRenderSerializedRoundTrip(t *testing.T) {
	m, _ := newTestManager(t, "header")
	mustInsert(t, m, "header", "h")
	mustInsert(t, m, document.DefaultKind, "p")

	snap := m.Snapshot()
	data, err := snap.Marshal()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	other, _ := newTestManager(t, "header")
	if err := other.RenderSerialized(data); err != nil {
		t.Fatalf("renderSerialized failed: %v", err)
	}

	if !snap.Equal(other.Snapshot()) {
		t.Error("expected rendered document to be value-equal to source snapshot")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	m, _ := newTestManager(t)
	mustInsert(t, m, document.DefaultKind, "a")

	snap := m.Snapshot()
	snap.Blocks[0].Payload["text"] = "mutated"

	b, _ := m.BlockAt(0)
	if b.Payload["text"] != "a" {
		t.Error("snapshot shares payload with live store")
	}
}

func TestBlockByID(t *testing.T) {
	m, _ := newTestManager(t)
	b := mustInsert(t, m, document.DefaultKind, "a")

	got, err := m.BlockByID(b.ID)
	if err != nil {
		t.Fatalf("blockByID failed: %v", err)
	}
	if got.ID != b.ID {
		t.Errorf("expected block %s, got %s", b.ID, got.ID)
	}

	if _, err := m.BlockByID("missing"); !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("expected ErrBlockNotFound, got %v", err)
	}
	if idx := m.IndexOfID(b.ID); idx != 0 {
		t.Errorf("expected index 0, got %d", idx)
	}
	if idx := m.IndexOfID("missing"); idx != -1 {
		t.Errorf("expected -1, got %d", idx)
	}
}
