package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumen-dev/lumen/pkg/dom"
	"github.com/lumen-dev/lumen/pkg/protocol"
	"github.com/lumen-dev/lumen/pkg/reactive"
	"github.com/lumen-dev/lumen/pkg/render"
	"github.com/lumen-dev/lumen/pkg/scheduler"
)

// wsConn is the subset of *websocket.Conn a session uses; tests substitute
// an in-memory implementation.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Session is one live document surface. The document, scheduler, renderer,
// and patch buffer are owned by the event loop goroutine; the read pump only
// decodes frames and hands events over a channel.
type Session struct {
	id     string
	srv    *Server
	conn   wsConn
	logger *slog.Logger

	doc      *dom.Document
	watcher  *reactive.Watcher
	sched    *scheduler.Scheduler
	renderer *render.Renderer
	dispose  render.Disposer

	// patches collect during a flush via the document's sink.
	patches []protocol.Patch
	sendSeq uint64

	events   chan *protocol.Event
	renderCh chan struct{}
	done     chan struct{}

	closeOnce sync.Once
}

// newSession builds the per-session document surface and mounts the root.
func (s *Server) newSession(conn wsConn) (*Session, error) {
	id := fmt.Sprintf("s%d", s.sessionSeq.Add(1))
	logger := s.logger.With("session_id", id)

	sess := &Session{
		id:       id,
		srv:      s,
		conn:     conn,
		logger:   logger,
		doc:      dom.NewDocument(),
		watcher:  reactive.NewWatcher(),
		events:   make(chan *protocol.Event, s.cfg.MaxEventQueue),
		renderCh: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	sess.doc.PatchSink = func(p protocol.Patch) {
		sess.patches = append(sess.patches, p)
	}
	sess.sched = scheduler.New(
		scheduler.WithWake(sess.wakeRender),
		scheduler.WithLogger(logger),
	)
	sess.renderer = render.New(sess.doc, sess.watcher, sess.sched,
		render.WithLogger(logger))

	// Pongs push the read deadline out so idle-but-alive clients survive.
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	})

	in, err := s.root(sess.doc)
	if err != nil {
		return nil, fmt.Errorf("live: root failed: %w", err)
	}
	dispose, err := sess.renderer.Mount(in, sess.doc.Root())
	if err != nil {
		return nil, fmt.Errorf("live: mount failed: %w", err)
	}
	sess.dispose = dispose

	// Mounting writes insert patches inline and may schedule nothing (a
	// fully static root), so the first flush cannot rely on the scheduler's
	// wake hook.
	sess.wakeRender()

	return sess, nil
}

// wakeRender is the scheduler's wake hook: post one token to the loop's
// coalescing channel.
func (s *Session) wakeRender() {
	select {
	case s.renderCh <- struct{}{}:
	default:
	}
}

// Run starts the read pump and runs the event loop until the session ends.
func (s *Session) Run() {
	s.srv.metrics.activeSessions.Inc()
	defer s.srv.metrics.activeSessions.Dec()

	s.logger.Info("session started")
	go s.readLoop()
	s.eventLoop()
	s.logger.Info("session closed")
}

// readLoop decodes incoming frames and queues events for the loop.
func (s *Session) readLoop() {
	defer s.close()

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.srv.cfg.ReadTimeout))

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.srv.metrics.wsErrors.WithLabelValues("read").Inc()
				s.logger.Error("read error", "error", err)
			}
			return
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.srv.metrics.wsErrors.WithLabelValues("decode").Inc()
			s.logger.Error("frame decode error", "error", err)
			continue
		}

		switch frame.Type {
		case protocol.FrameEvent:
			ev, err := protocol.DecodeEvent(frame.Payload)
			if err != nil {
				s.srv.metrics.wsErrors.WithLabelValues("decode").Inc()
				s.logger.Error("event decode error", "error", err)
				continue
			}
			select {
			case s.events <- ev:
			default:
				s.srv.metrics.eventsDropped.Inc()
				s.logger.Warn("event queue full, dropping",
					"type", ev.Type,
					"target", ev.Target)
			}

		default:
			s.logger.Warn("unknown frame type", "type", frame.Type)
		}
	}
}

// eventLoop owns the document: it dispatches events, flushes updates, and
// sends keepalive pings. The mount is disposed here, on the owning
// goroutine, when the loop exits.
func (s *Session) eventLoop() {
	defer func() {
		if s.dispose != nil {
			s.dispose()
		}
	}()

	// Ping well inside the read deadline so idle clients are not dropped.
	pinger := time.NewTicker(s.srv.cfg.ReadTimeout * 9 / 10)
	defer pinger.Stop()

	for {
		select {
		case ev := <-s.events:
			s.handleEvent(ev)

		case <-s.renderCh:
			s.flush()

		case <-pinger.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.srv.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.srv.metrics.wsErrors.WithLabelValues("write").Inc()
				s.logger.Error("ping write error", "error", err)
				s.close()
			}

		case <-s.done:
			return
		}
	}
}

// handleEvent dispatches one client event to its target node's handlers.
func (s *Session) handleEvent(ev *protocol.Event) {
	_, span := s.srv.tracer.Start(context.Background(), "live.event",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("lumen.session_id", s.id),
			attribute.String("lumen.event_type", ev.Type),
			attribute.String("lumen.event_target", ev.Target),
		))
	defer span.End()

	node := s.doc.ByID(ev.Target)
	if node == nil {
		span.SetStatus(codes.Error, "unknown target")
		s.srv.metrics.eventsTotal.WithLabelValues(ev.Type, "unknown_target").Inc()
		s.logger.Warn("event for unknown node", "target", ev.Target)
		return
	}

	node.Dispatch(dom.Event{Type: ev.Type, Value: ev.Value})
	span.SetStatus(codes.Ok, "")
	s.srv.metrics.eventsTotal.WithLabelValues(ev.Type, "ok").Inc()
}

// flush applies all pending updates and streams the resulting patches.
func (s *Session) flush() {
	start := time.Now()
	s.sched.Flush()
	s.srv.metrics.flushDuration.Observe(time.Since(start).Seconds())

	if len(s.patches) == 0 {
		return
	}

	patches := s.patches
	s.patches = nil
	s.sendPatches(patches)
}

// sendPatches streams one ordered batch of patches. A batch whose encoded
// frame exceeds the protocol payload limit is split and sent as several
// sequence-numbered frames; order is preserved, so the client applies the
// same mutation stream.
func (s *Session) sendPatches(patches []protocol.Patch) {
	if len(patches) == 0 {
		return
	}

	pf := &protocol.PatchesFrame{Seq: s.sendSeq + 1, Patches: patches}
	frame := protocol.NewFrame(protocol.FramePatches, protocol.EncodePatches(pf))

	data, err := frame.Encode()
	if errors.Is(err, protocol.ErrFrameTooLarge) && len(patches) > 1 {
		mid := len(patches) / 2
		s.sendPatches(patches[:mid])
		s.sendPatches(patches[mid:])
		return
	}
	if err != nil {
		s.srv.metrics.wsErrors.WithLabelValues("encode").Inc()
		s.logger.Error("patch frame encode error", "error", err,
			"patches", len(patches))
		s.close()
		return
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.srv.cfg.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		s.srv.metrics.wsErrors.WithLabelValues("write").Inc()
		s.logger.Error("write error", "error", err)
		s.close()
		return
	}

	s.sendSeq++
	s.srv.metrics.patchesSent.Add(float64(len(patches)))
}

// close ends the session once: the loop is told to stop and the connection
// closes. Mount teardown happens on the loop goroutine.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}
