package live

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lumen-dev/lumen/pkg/dom"
	"github.com/lumen-dev/lumen/pkg/protocol"
	"github.com/lumen-dev/lumen/pkg/reactive"
	"github.com/lumen-dev/lumen/pkg/render"
)

var errConnClosed = errors.New("fake conn closed")

type wsWrite struct {
	messageType int
	data        []byte
}

// fakeConn is an in-memory wsConn for session tests.
type fakeConn struct {
	reads  chan []byte
	writes chan wsWrite
	done   chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		reads:  make(chan []byte, 16),
		writes: make(chan wsWrite, 16),
		done:   make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case msg := <-c.reads:
		return websocket.BinaryMessage, msg, nil
	case <-c.done:
		return 0, nil, errConnClosed
	}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	select {
	case c.writes <- wsWrite{messageType: messageType, data: data}:
		return nil
	case <-c.done:
		return errConnClosed
	}
}

func (c *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) SetPongHandler(func(string) error) {}

func (c *fakeConn) Close() error {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	return nil
}

// nextPatches waits for the next patches frame written to the conn,
// skipping keepalive pings.
func (c *fakeConn) nextPatches(t *testing.T) *protocol.PatchesFrame {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case w := <-c.writes:
			if w.messageType == websocket.PingMessage {
				continue
			}
			frame, err := protocol.DecodeFrame(w.data)
			if err != nil {
				t.Fatalf("frame decode failed: %v", err)
			}
			if frame.Type != protocol.FramePatches {
				t.Fatalf("expected patches frame, got %v", frame.Type)
			}
			pf, err := protocol.DecodePatches(frame.Payload)
			if err != nil {
				t.Fatalf("patches decode failed: %v", err)
			}
			return pf
		case <-deadline:
			t.Fatal("timed out waiting for patches frame")
			return nil
		}
	}
}

// eventFrame encodes a client event frame.
func eventFrame(t *testing.T, ev *protocol.Event) []byte {
	t.Helper()
	frame := protocol.NewFrame(protocol.FrameEvent, protocol.EncodeEvent(ev))
	data, err := frame.Encode()
	if err != nil {
		t.Fatalf("event frame encode failed: %v", err)
	}
	return data
}

// counterRoot renders a reactive counter with a click target, reporting the
// clickable node's ID and text node's ID through the returned pointers.
func counterRoot(btnID, txtID *string) Root {
	return func(doc *dom.Document) (*render.Instruction, error) {
		count := reactive.NewCell(0)

		txt := doc.CreateText("")
		*txtID = txt.ID()
		btn := doc.CreateElement("button")
		*btnID = btn.ID()

		return render.Dynamic(doc.CreateElement("div"), nil,
			render.Dynamic(txt, []render.Binding{
				render.TextBinding{Value: func() string {
					return strconv.Itoa(count.Get())
				}},
			}),
			render.Dynamic(btn, []render.Binding{
				render.EventBinding{Event: "click", Handler: func(dom.Event) {
					count.Update(func(v int) int { return v + 1 })
				}},
			}),
		), nil
	}
}

func TestSessionInitialFlushAndEventRoundTrip(t *testing.T) {
	var btnID, txtID string
	srv, err := NewServer(counterRoot(&btnID, &txtID), Config{})
	if err != nil {
		t.Fatal(err)
	}

	conn := newFakeConn()
	sess, err := srv.newSession(conn)
	if err != nil {
		t.Fatalf("session setup failed: %v", err)
	}
	go sess.Run()
	defer conn.Close()

	// The mount's deferred writes arrive as the first patches frame.
	first := conn.nextPatches(t)
	if first.Seq != 1 {
		t.Errorf("expected seq 1, got %d", first.Seq)
	}
	foundInitial := false
	for _, p := range first.Patches {
		if p.Op == protocol.PatchSetText && p.NodeID == txtID && p.Value == "0" {
			foundInitial = true
		}
	}
	if !foundInitial {
		t.Errorf("initial text write missing: %+v", first.Patches)
	}

	// A click event flows: dispatch, reactive update, flush, patch out.
	conn.reads <- eventFrame(t, &protocol.Event{Target: btnID, Type: "click"})

	second := conn.nextPatches(t)
	if second.Seq != 2 {
		t.Errorf("expected seq 2, got %d", second.Seq)
	}
	if len(second.Patches) != 1 ||
		second.Patches[0].Op != protocol.PatchSetText ||
		second.Patches[0].Value != "1" {
		t.Errorf("expected single SetText to %q, got %+v", "1", second.Patches)
	}
}

func TestSessionStaticRootFlushesMountPatches(t *testing.T) {
	srv, err := NewServer(staticRoot, Config{})
	if err != nil {
		t.Fatal(err)
	}

	conn := newFakeConn()
	sess, err := srv.newSession(conn)
	if err != nil {
		t.Fatal(err)
	}
	go sess.Run()
	defer conn.Close()

	// A fully static root schedules no tasks; the mount patches must still
	// go out as the first frame.
	first := conn.nextPatches(t)
	if first.Seq != 1 {
		t.Errorf("expected seq 1, got %d", first.Seq)
	}
	foundInsert := false
	for _, p := range first.Patches {
		if p.Op == protocol.PatchInsertNode && p.Node != nil && p.Node.Tag == "div" {
			foundInsert = true
		}
	}
	if !foundInsert {
		t.Errorf("mount insert missing from first frame: %+v", first.Patches)
	}
}

func TestSessionIgnoresEventForUnknownTarget(t *testing.T) {
	var btnID, txtID string
	srv, err := NewServer(counterRoot(&btnID, &txtID), Config{})
	if err != nil {
		t.Fatal(err)
	}

	conn := newFakeConn()
	sess, err := srv.newSession(conn)
	if err != nil {
		t.Fatal(err)
	}
	go sess.Run()
	defer conn.Close()

	conn.nextPatches(t) // initial frame

	conn.reads <- eventFrame(t, &protocol.Event{Target: "n9999", Type: "click"})

	// No patches frame follows; after a quiet period the conn is idle.
	select {
	case w := <-conn.writes:
		t.Errorf("unexpected frame after unknown-target event: %d bytes", len(w.data))
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSessionSendsKeepalivePings(t *testing.T) {
	var btnID, txtID string
	srv, err := NewServer(counterRoot(&btnID, &txtID), Config{
		ReadTimeout: 40 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	conn := newFakeConn()
	sess, err := srv.newSession(conn)
	if err != nil {
		t.Fatal(err)
	}
	go sess.Run()
	defer conn.Close()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case w := <-conn.writes:
			if w.messageType == websocket.PingMessage {
				return
			}
		case <-deadline:
			t.Fatal("no keepalive ping within the read timeout window")
		}
	}
}

func TestSessionSplitsOversizedFlush(t *testing.T) {
	var btnID, txtID string
	srv, err := NewServer(counterRoot(&btnID, &txtID), Config{})
	if err != nil {
		t.Fatal(err)
	}

	conn := newFakeConn()
	sess, err := srv.newSession(conn)
	if err != nil {
		t.Fatal(err)
	}
	// No Run: drive the send path directly on this goroutine.

	big := make([]protocol.Patch, 3)
	for i := range big {
		big[i] = protocol.Patch{
			Op:     protocol.PatchSetText,
			NodeID: txtID,
			Value:  string(rune('a'+i)) + strings.Repeat("x", 2<<20),
		}
	}
	sess.sendPatches(big)

	// Three patches of ~2MB each exceed the frame payload limit together;
	// they must arrive as multiple ordered frames, not one wrapped frame.
	var got []protocol.Patch
	var lastSeq uint64
	for len(got) < len(big) {
		pf := conn.nextPatches(t)
		if pf.Seq != lastSeq+1 {
			t.Fatalf("expected seq %d, got %d", lastSeq+1, pf.Seq)
		}
		lastSeq = pf.Seq
		got = append(got, pf.Patches...)
	}

	if lastSeq < 2 {
		t.Errorf("oversized batch was not split: %d frame(s)", lastSeq)
	}
	for i, p := range got {
		if p.Value[0] != byte('a'+i) {
			t.Errorf("patch %d out of order: leading byte %q", i, p.Value[0])
		}
	}
}
