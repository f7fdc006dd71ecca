package render

import (
	"github.com/lumen-dev/lumen/pkg/dom"
	"github.com/lumen-dev/lumen/pkg/scheduler"
)

// listEntry is the cached state for one key of a for-binding: the nodes the
// item produced, their teardown list, and the last-seen item value used for
// equality short-circuiting.
type listEntry struct {
	item     any
	nodes    []*dom.Node
	cleanups []Cleanup
}

// listBinding reconciles a keyed, ordered collection against the document.
// One effect re-runs whenever the source sequence changes; each run computes
// the desired node order plus the removals, and all structural mutations of
// a run are bundled into one scheduled task so they apply atomically within
// a single flush.
type listBinding struct {
	r      *Renderer
	anchor *dom.Node
	spec   ForBinding

	entries map[string]*listEntry

	// removals accumulate across coalesced runs; the task consumes them
	// before positioning. desired is the latest full target order of the
	// managed region.
	removals []*dom.Node
	desired  []*dom.Node

	task *scheduler.Task
	eff  *Effect
}

// bindFor wires a for-binding to its region anchor.
func (r *Renderer) bindFor(anchor *dom.Node, b ForBinding) Cleanup {
	lb := &listBinding{
		r:       r,
		anchor:  anchor,
		spec:    b,
		entries: make(map[string]*listEntry),
	}
	lb.task = scheduler.NewTask(lb.apply)
	lb.eff = NewEffect(r.watcher, r.sched, lb.run)
	return lb.teardown
}

// run is the binding's effect body: reconcile the entry cache against the
// current sequence and schedule the structural task if anything changed.
func (lb *listBinding) run() Cleanup {
	items := lb.spec.Items()

	seen := make(map[string]struct{}, len(items))
	var desired []*dom.Node
	structural := false

	for _, item := range items {
		insts := lb.spec.Template(item)
		if len(insts) == 0 {
			// Filtered out: the item occupies no slot in this view.
			continue
		}

		key := lb.spec.Key(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		entry, ok := lb.entries[key]
		if !ok || !shallowEqual(entry.item, item) {
			if ok {
				runCleanups(entry.cleanups)
				lb.removals = append(lb.removals, entry.nodes...)
			}
			nodes, cleanups, err := lb.r.materializeList(insts)
			if err != nil {
				lb.r.logger.Error("list item materialization failed",
					"key", key,
					"error", err)
				delete(lb.entries, key)
				structural = ok || structural
				continue
			}
			entry = &listEntry{item: item, nodes: nodes, cleanups: cleanups}
			lb.entries[key] = entry
			structural = true
		} else {
			entry.item = item
		}

		desired = append(desired, entry.nodes...)
	}

	// Keys absent from the new sequence are torn down and dropped.
	for key, entry := range lb.entries {
		if _, ok := seen[key]; ok {
			continue
		}
		runCleanups(entry.cleanups)
		lb.removals = append(lb.removals, entry.nodes...)
		delete(lb.entries, key)
		structural = true
	}

	// Unchanged items in unchanged positions schedule nothing.
	if !structural && nodesEqual(desired, lb.desired) {
		return nil
	}

	lb.desired = desired
	lb.r.sched.Schedule(lb.task)
	return nil
}

// apply is the binding's structural task: removals first, then insert/moves
// in ascending target-index order. The anchor is never moved or removed.
func (lb *listBinding) apply() {
	removals := lb.removals
	lb.removals = nil
	for _, n := range removals {
		n.Detach()
	}

	parent := lb.anchor.Parent()
	if parent == nil {
		// Anchor no longer in the document; nothing to position.
		return
	}

	managed := make(map[*dom.Node]bool, len(lb.desired))
	for _, n := range lb.desired {
		managed[n] = true
	}

	ref := lb.nextManaged(parent, -1, managed)
	for _, n := range lb.desired {
		if n == ref {
			ref = lb.nextManaged(parent, ref.Index(), managed)
			continue
		}
		if n.Parent() != nil && n.Parent() != parent {
			// Bookkeeping disagrees with the document; skip, not an error.
			continue
		}
		parent.InsertBefore(n, ref)
	}
}

// nextManaged returns the first managed sibling after index `after`, or the
// anchor when the rest of the region is exhausted.
func (lb *listBinding) nextManaged(parent *dom.Node, after int, managed map[*dom.Node]bool) *dom.Node {
	children := parent.Children()
	for i := after + 1; i < len(children); i++ {
		if managed[children[i]] {
			return children[i]
		}
	}
	return lb.anchor
}

// teardown disposes the binding: the effect and task stop, every entry's
// cleanups run, and all managed nodes leave the document.
func (lb *listBinding) teardown() {
	lb.eff.Dispose()
	lb.task.Cancel()

	for _, entry := range lb.entries {
		runCleanups(entry.cleanups)
		for _, n := range entry.nodes {
			n.Detach()
		}
	}
	lb.entries = nil

	for _, n := range lb.removals {
		n.Detach()
	}
	lb.removals = nil
	lb.desired = nil
}

// nodesEqual reports whether two node sequences are identical.
func nodesEqual(a, b []*dom.Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
