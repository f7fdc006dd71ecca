package protocol

import (
	"errors"
	"testing"
)

func TestPatchesRoundTrip(t *testing.T) {
	pf := &PatchesFrame{
		Seq: 7,
		Patches: []Patch{
			{Op: PatchSetText, NodeID: "n3", Value: "hello"},
			{Op: PatchSetAttr, NodeID: "n4", Key: "href", Value: "/home"},
			{Op: PatchRemoveAttr, NodeID: "n4", Key: "title"},
			{Op: PatchSetValue, NodeID: "n5", Value: ""},
			{Op: PatchAddClass, NodeID: "n6", Value: "active"},
			{Op: PatchSetStyle, NodeID: "n6", Key: "color", Value: "red"},
			{Op: PatchRemoveStyle, NodeID: "n6", Key: "display"},
			{Op: PatchMoveNode, NodeID: "n8", ParentID: "n1", Index: 2},
			{Op: PatchRemoveNode, NodeID: "n9"},
			{
				Op: PatchInsertNode, NodeID: "n10", ParentID: "n1", Index: 0,
				Node: &NodeWire{
					Kind: WireElement, ID: "n10", Tag: "li",
					Attrs:   []KV{{Key: "data-id", Value: "42"}},
					Classes: []string{"row"},
					Children: []*NodeWire{
						{Kind: WireText, ID: "n11", Text: "item"},
					},
				},
			},
		},
	}

	decoded, err := DecodePatches(EncodePatches(pf))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if decoded.Seq != 7 {
		t.Errorf("expected seq 7, got %d", decoded.Seq)
	}
	if len(decoded.Patches) != len(pf.Patches) {
		t.Fatalf("expected %d patches, got %d", len(pf.Patches), len(decoded.Patches))
	}

	for i, want := range pf.Patches {
		got := decoded.Patches[i]
		if got.Op != want.Op || got.NodeID != want.NodeID ||
			got.Key != want.Key || got.Value != want.Value ||
			got.ParentID != want.ParentID || got.Index != want.Index {
			t.Errorf("patch %d mismatch: got %+v, want %+v", i, got, want)
		}
	}

	ins := decoded.Patches[9].Node
	if ins == nil || ins.Tag != "li" || len(ins.Children) != 1 {
		t.Fatalf("insert node not preserved: %+v", ins)
	}
	if ins.Children[0].Kind != WireText || ins.Children[0].Text != "item" {
		t.Errorf("child text node not preserved: %+v", ins.Children[0])
	}
}

func TestEventRoundTrip(t *testing.T) {
	ev := &Event{Seq: 3, Target: "n12", Type: "input", Value: "abc"}

	decoded, err := DecodeEvent(EncodeEvent(ev))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if *decoded != *ev {
		t.Errorf("got %+v, want %+v", decoded, ev)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	f := NewFrame(FramePatches, []byte{0x01, 0x02, 0x03})

	data, err := f.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Type != FramePatches {
		t.Errorf("expected FramePatches, got %v", decoded.Type)
	}
	if len(decoded.Payload) != 3 || decoded.Payload[2] != 0x03 {
		t.Errorf("payload not preserved: %v", decoded.Payload)
	}
}

func TestFrameLargePayloadRoundTrip(t *testing.T) {
	// Larger than 64KB: the length field must not wrap.
	payload := make([]byte, 70_000)
	payload[len(payload)-1] = 0xAB
	f := NewFrame(FramePatches, payload)

	data, err := f.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(decoded.Payload) != len(payload) {
		t.Fatalf("payload truncated: sent %d bytes, decoded %d bytes",
			len(payload), len(decoded.Payload))
	}
	if decoded.Payload[len(payload)-1] != 0xAB {
		t.Error("payload tail not preserved")
	}
}

func TestFrameOversizedPayload(t *testing.T) {
	f := NewFrame(FramePatches, make([]byte, MaxPayloadSize+1))
	if _, err := f.Encode(); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}

	// Forged header declaring a length over the limit.
	hdr := []byte{byte(FramePatches), 0xFF, 0xFF, 0xFF}
	if _, err := DecodeFrame(hdr); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestDecodeFrameInvalidType(t *testing.T) {
	if _, err := DecodeFrame([]byte{0x7F, 0x00, 0x00, 0x00}); !errors.Is(err, ErrInvalidFrameType) {
		t.Errorf("expected ErrInvalidFrameType, got %v", err)
	}
}

func TestDecodeTruncatedFrame(t *testing.T) {
	if _, err := DecodeFrame([]byte{0x01, 0x00}); err == nil {
		t.Error("expected error for truncated header")
	}
	// Header claims 10 bytes, none present.
	if _, err := DecodeFrame([]byte{0x01, 0x00, 0x00, 0x0A}); err == nil {
		t.Error("expected error for truncated payload")
	}
}

func TestDecoderForgedLengthPrefix(t *testing.T) {
	// A string length far exceeding the buffer must not allocate.
	e := NewEncoder()
	e.WriteUvarint(uint64(MaxAllocation) + 1)

	d := NewDecoder(e.Bytes())
	if _, err := d.ReadString(); err == nil {
		t.Error("expected error for forged length prefix")
	}
}

func TestDecoderCollectionLimit(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(MaxCollectionCount + 1)

	d := NewDecoder(e.Bytes())
	_, err := d.ReadCollectionCount()
	if !errors.Is(err, ErrCollectionTooLarge) {
		t.Errorf("expected ErrCollectionTooLarge, got %v", err)
	}
}
