package live

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumen-dev/lumen/pkg/dom"
	"github.com/lumen-dev/lumen/pkg/reactive"
	"github.com/lumen-dev/lumen/pkg/render"
	"github.com/lumen-dev/lumen/pkg/scheduler"
)

// Root builds the application's root instruction for one document. It runs
// once per session and once per snapshot export.
type Root func(doc *dom.Document) (*render.Instruction, error)

// Server hosts live sessions and the surrounding HTTP surface.
type Server struct {
	cfg     Config
	root    Root
	logger  *slog.Logger
	metrics *metrics
	tracer  trace.Tracer

	router   chi.Router
	upgrader websocket.Upgrader

	sessionSeq atomic.Uint64
}

// NewServer creates a server rendering the given root instruction.
func NewServer(root Root, cfg Config) (*Server, error) {
	if root == nil {
		return nil, fmt.Errorf("live: nil root")
	}
	cfg = cfg.withDefaults()

	s := &Server{
		cfg:     cfg,
		root:    root,
		logger:  cfg.Logger,
		metrics: newMetrics(cfg),
		tracer:  otel.Tracer(cfg.TracerName),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	r.Get("/live", s.handleLive)
	r.Get("/snapshot", s.handleSnapshot)
	s.router = r

	return s, nil
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.router,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("live server listening", "addr", s.cfg.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// handleHealthz reports liveness.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleLive upgrades the connection and starts a session.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.metrics.wsErrors.WithLabelValues("upgrade").Inc()
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	sess, err := s.newSession(conn)
	if err != nil {
		s.logger.Error("session setup failed", "error", err)
		conn.Close()
		return
	}
	go sess.Run()
}

// handleSnapshot renders a fresh document and returns its HTML, publishing
// a copy to the snapshot store when one is configured.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	doc := dom.NewDocument()
	watcher := reactive.NewWatcher()
	sched := scheduler.New(scheduler.WithLogger(s.logger))
	renderer := render.New(doc, watcher, sched, render.WithLogger(s.logger))

	in, err := s.root(doc)
	if err != nil {
		http.Error(w, "snapshot render failed", http.StatusInternalServerError)
		s.logger.Error("snapshot root failed", "error", err)
		return
	}

	dispose, err := renderer.Mount(in, doc.Root())
	if err != nil {
		http.Error(w, "snapshot render failed", http.StatusInternalServerError)
		s.logger.Error("snapshot mount failed", "error", err)
		return
	}
	defer dispose()
	sched.Flush()

	html := []byte(doc.Root().HTML())

	if s.cfg.Snapshots != nil {
		name := fmt.Sprintf("snapshot-%d.html", time.Now().UnixMilli())
		loc, err := s.cfg.Snapshots.Put(r.Context(), name, html)
		if err != nil {
			s.logger.Error("snapshot publish failed", "error", err)
		} else {
			w.Header().Set("X-Snapshot-Location", loc)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}
