package render

import (
	"fmt"
	"log/slog"

	"github.com/lumen-dev/lumen/pkg/dom"
	"github.com/lumen-dev/lumen/pkg/reactive"
	"github.com/lumen-dev/lumen/pkg/scheduler"
)

// Disposer tears down a mount: it runs the accumulated cleanups, detaches
// the produced nodes, and evicts the mount's materialization cache entries.
// Calling it more than once is a no-op.
type Disposer func()

// arenaEntry is the memoized materialization of one dynamic instruction.
type arenaEntry struct {
	nodes    []*dom.Node
	cleanups []Cleanup
}

// Renderer materializes instruction trees into live nodes on one document.
// Dynamic materialization is memoized in an arena table keyed by instruction
// handle; entries are evicted explicitly when their subtree is torn down,
// so a later request for the same instruction rebuilds from scratch.
type Renderer struct {
	doc     *dom.Document
	watcher *reactive.Watcher
	sched   *scheduler.Scheduler
	logger  *slog.Logger

	cache map[uint64]*arenaEntry
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used to report recoverable rendering problems.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// New creates a renderer bound to one document, watcher, and scheduler.
func New(doc *dom.Document, w *reactive.Watcher, s *scheduler.Scheduler, opts ...Option) *Renderer {
	r := &Renderer{
		doc:     doc,
		watcher: w,
		sched:   s,
		logger:  slog.Default(),
		cache:   make(map[uint64]*arenaEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CacheSize returns the number of live arena entries. Diagnostics only.
func (r *Renderer) CacheSize() int {
	return len(r.cache)
}

// Mount materializes the instruction and appends its nodes to container.
// Initial document writes are scheduled, not applied inline; flush the
// scheduler to observe them.
func (r *Renderer) Mount(in *Instruction, container *dom.Node) (Disposer, error) {
	if in == nil {
		return nil, fmt.Errorf("render: mount: nil instruction")
	}
	if container == nil {
		return nil, fmt.Errorf("render: mount: nil container")
	}

	nodes, cleanups, err := r.materialize(in)
	if err != nil {
		return nil, err
	}

	for _, n := range nodes {
		container.AppendChild(n)
	}

	disposed := false
	return func() {
		if disposed {
			return
		}
		disposed = true
		runCleanups(cleanups)
		for _, n := range nodes {
			n.Detach()
		}
	}, nil
}

// materialize produces the nodes and teardown list for one instruction.
func (r *Renderer) materialize(in *Instruction) ([]*dom.Node, []Cleanup, error) {
	if in == nil {
		return nil, nil, fmt.Errorf("render: nil instruction")
	}

	switch in.kind {
	case KindStatic:
		if in.root == nil {
			return nil, nil, fmt.Errorf("render: static instruction with nil root")
		}
		// Clone per placement so the same static instruction can be
		// mounted in several locations without node-identity collisions.
		return []*dom.Node{in.root.CloneTree()}, nil, nil

	case KindDynamic:
		return r.materializeDynamic(in)

	default:
		return nil, nil, fmt.Errorf("render: unknown instruction kind %d", in.kind)
	}
}

// materializeDynamic builds a dynamic instruction, memoized by handle.
func (r *Renderer) materializeDynamic(in *Instruction) ([]*dom.Node, []Cleanup, error) {
	if entry, ok := r.cache[in.handle]; ok {
		return entry.nodes, entry.cleanups, nil
	}

	var nodes []*dom.Node
	var cleanups []Cleanup

	if in.target != nil {
		nodes = append(nodes, in.target)
	}

	for _, b := range in.bindings {
		switch b := b.(type) {
		case ForBinding:
			anchor := r.doc.CreateComment("for")
			nodes = r.placeAnchor(in.target, anchor, nodes)
			cleanups = append(cleanups, r.bindFor(anchor, b))

		case IfBinding:
			anchor := r.doc.CreateComment("if")
			nodes = r.placeAnchor(in.target, anchor, nodes)
			cleanups = append(cleanups, r.bindIf(anchor, b))

		default:
			if in.target == nil {
				return nil, nil, fmt.Errorf("render: %T requires a target node", b)
			}
			cleanup, err := r.bindNode(in.target, b)
			if err != nil {
				return nil, nil, err
			}
			cleanups = append(cleanups, cleanup)
		}
	}

	for _, child := range in.children {
		childNodes, childCleanups, err := r.materialize(child)
		if err != nil {
			runCleanups(append(cleanups, childCleanups...))
			return nil, nil, err
		}
		cleanups = append(cleanups, childCleanups...)
		if in.target != nil {
			for _, cn := range childNodes {
				in.target.AppendChild(cn)
			}
		} else {
			nodes = append(nodes, childNodes...)
		}
	}

	cleanups = append(cleanups, func() {
		delete(r.cache, in.handle)
	})

	entry := &arenaEntry{nodes: nodes, cleanups: cleanups}
	r.cache[in.handle] = entry
	return entry.nodes, entry.cleanups, nil
}

// placeAnchor puts a region anchor inside the target element when one
// exists, otherwise the anchor itself becomes a produced node. No wrapper
// element is ever introduced for a region.
func (r *Renderer) placeAnchor(target, anchor *dom.Node, nodes []*dom.Node) []*dom.Node {
	if target != nil {
		target.AppendChild(anchor)
		return nodes
	}
	return append(nodes, anchor)
}

// materializeList materializes a slice of instructions, concatenating nodes
// and cleanups.
func (r *Renderer) materializeList(insts []*Instruction) ([]*dom.Node, []Cleanup, error) {
	var nodes []*dom.Node
	var cleanups []Cleanup
	for _, in := range insts {
		n, c, err := r.materialize(in)
		if err != nil {
			runCleanups(cleanups)
			return nil, nil, err
		}
		nodes = append(nodes, n...)
		cleanups = append(cleanups, c...)
	}
	return nodes, cleanups, nil
}

// bindNode wires one non-region binding to its target node.
func (r *Renderer) bindNode(target *dom.Node, b Binding) (Cleanup, error) {
	switch b := b.(type) {
	case TextBinding:
		return r.bindText(target, b), nil
	case AttrBinding:
		return r.bindAttr(target, b), nil
	case ClassBinding:
		return r.bindClass(target, b), nil
	case StyleBinding:
		return r.bindStyle(target, b), nil
	case EventBinding:
		remove := target.On(b.Event, b.Handler)
		return Cleanup(remove), nil
	default:
		return nil, fmt.Errorf("render: unknown binding %T", b)
	}
}

// bindText keeps the target text node's content in sync.
func (r *Renderer) bindText(target *dom.Node, b TextBinding) Cleanup {
	var latest string
	task := scheduler.NewTask(func() {
		target.SetText(latest)
	})
	eff := NewEffect(r.watcher, r.sched, func() Cleanup {
		latest = b.Value()
		r.sched.Schedule(task)
		return nil
	})
	return func() {
		task.Cancel()
		eff.Dispose()
	}
}

// formTags are the elements whose "value" attribute binds the live value
// property instead of an attribute.
var formTags = map[string]bool{"input": true, "textarea": true, "select": true}

// bindAttr keeps one attribute in sync. nil removes the attribute, except
// for the value property of form controls where nil clears to "".
func (r *Renderer) bindAttr(target *dom.Node, b AttrBinding) Cleanup {
	isValue := b.Name == "value" && formTags[target.Tag()]

	var latest *string
	task := scheduler.NewTask(func() {
		switch {
		case isValue && latest == nil:
			target.SetValue("")
		case isValue:
			target.SetValue(*latest)
		case latest == nil:
			target.RemoveAttr(b.Name)
		default:
			target.SetAttr(b.Name, *latest)
		}
	})
	eff := NewEffect(r.watcher, r.sched, func() Cleanup {
		latest = b.Value()
		r.sched.Schedule(task)
		return nil
	})
	return func() {
		task.Cancel()
		eff.Dispose()
	}
}

// bindClass toggles one CSS class.
func (r *Renderer) bindClass(target *dom.Node, b ClassBinding) Cleanup {
	var latest bool
	task := scheduler.NewTask(func() {
		if latest {
			target.AddClass(b.Name)
		} else {
			target.RemoveClass(b.Name)
		}
	})
	eff := NewEffect(r.watcher, r.sched, func() Cleanup {
		latest = b.Active()
		r.sched.Schedule(task)
		return nil
	})
	return func() {
		task.Cancel()
		eff.Dispose()
	}
}

// bindStyle keeps one style property in sync. nil removes it.
func (r *Renderer) bindStyle(target *dom.Node, b StyleBinding) Cleanup {
	var latest *string
	task := scheduler.NewTask(func() {
		if latest == nil {
			target.RemoveStyle(b.Prop)
		} else {
			target.SetStyle(b.Prop, *latest)
		}
	})
	eff := NewEffect(r.watcher, r.sched, func() Cleanup {
		latest = b.Value()
		r.sched.Schedule(task)
		return nil
	})
	return func() {
		task.Cancel()
		eff.Dispose()
	}
}

// runCleanups runs a teardown list in reverse registration order.
func runCleanups(cleanups []Cleanup) {
	for i := len(cleanups) - 1; i >= 0; i-- {
		if cleanups[i] != nil {
			cleanups[i]()
		}
	}
}
