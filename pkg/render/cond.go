package render

import (
	"github.com/lumen-dev/lumen/pkg/dom"
	"github.com/lumen-dev/lumen/pkg/scheduler"
)

// condBinding renders one of two branches before its anchor. Every flip is a
// full replace: the active branch's cleanups run, its nodes leave the
// document, and the selected branch is materialized fresh. No branch state
// survives a toggle, even toggling back to a branch shown before.
type condBinding struct {
	r      *Renderer
	anchor *dom.Node
	spec   IfBinding

	evaluated bool
	active    bool

	nodes    []*dom.Node
	cleanups []Cleanup

	// removals accumulate across coalesced flips until the task runs.
	removals []*dom.Node

	task *scheduler.Task
	eff  *Effect
}

// bindIf wires an if-binding to its region anchor.
func (r *Renderer) bindIf(anchor *dom.Node, b IfBinding) Cleanup {
	cb := &condBinding{r: r, anchor: anchor, spec: b}
	cb.task = scheduler.NewTask(cb.apply)
	cb.eff = NewEffect(r.watcher, r.sched, cb.run)
	return cb.teardown
}

// run is the binding's effect body: on a condition change, tear down the
// active branch and materialize the newly selected one.
func (cb *condBinding) run() Cleanup {
	cond := cb.spec.Cond()
	if cb.evaluated && cond == cb.active {
		return nil
	}
	cb.evaluated = true
	cb.active = cond

	runCleanups(cb.cleanups)
	cb.cleanups = nil
	cb.removals = append(cb.removals, cb.nodes...)
	cb.nodes = nil

	tmpl := cb.spec.Then
	if !cond {
		tmpl = cb.spec.Else
	}
	if tmpl != nil {
		insts := tmpl()
		nodes, cleanups, err := cb.r.materializeList(insts)
		if err != nil {
			cb.r.logger.Error("conditional branch materialization failed",
				"cond", cond,
				"error", err)
		} else {
			cb.nodes = nodes
			cb.cleanups = cleanups
		}
	}

	cb.r.sched.Schedule(cb.task)
	return nil
}

// apply is the binding's structural task: detach the replaced nodes, then
// insert the active branch immediately before the anchor.
func (cb *condBinding) apply() {
	removals := cb.removals
	cb.removals = nil
	for _, n := range removals {
		n.Detach()
	}

	parent := cb.anchor.Parent()
	if parent == nil {
		return
	}

	for _, n := range cb.nodes {
		if n.Parent() == parent {
			continue
		}
		if n.Parent() != nil {
			// Bookkeeping disagrees with the document; skip.
			continue
		}
		parent.InsertBefore(n, cb.anchor)
	}
}

// teardown disposes the binding and removes the active branch.
func (cb *condBinding) teardown() {
	cb.eff.Dispose()
	cb.task.Cancel()

	runCleanups(cb.cleanups)
	cb.cleanups = nil

	for _, n := range cb.nodes {
		n.Detach()
	}
	cb.nodes = nil

	for _, n := range cb.removals {
		n.Detach()
	}
	cb.removals = nil
}
