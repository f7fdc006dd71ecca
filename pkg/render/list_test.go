package render

import (
	"strconv"
	"testing"

	"github.com/lumen-dev/lumen/pkg/dom"
	"github.com/lumen-dev/lumen/pkg/protocol"
	"github.com/lumen-dev/lumen/pkg/reactive"
)

type todo struct {
	ID     int
	Status string
}

func todoKey(it todo) string { return strconv.Itoa(it.ID) }

// todoTemplate renders one <li>todo-N</li> per item, optionally filtered by
// status. A filtered item yields zero instructions and occupies no slot.
func todoTemplate(env *testEnv, status string) func(todo) []*Instruction {
	return func(it todo) []*Instruction {
		if status != "" && it.Status != status {
			return nil
		}
		li := env.doc.CreateElement("li")
		li.AppendChild(env.doc.CreateText("todo-" + strconv.Itoa(it.ID)))
		return []*Instruction{Static(li)}
	}
}

// mountTodos mounts a for-binding over the cell into a fresh <ul> and
// returns the list element.
func mountTodos(t *testing.T, env *testEnv, cell *reactive.Cell[[]todo], status string) (*dom.Node, Disposer) {
	t.Helper()
	ul := env.doc.CreateElement("ul")
	d := env.mount(t, Dynamic(ul, []Binding{
		ForEach(cell.Get, todoKey, todoTemplate(env, status)),
	}))
	return ul, d
}

// listItems returns the non-anchor children of the list element.
func listItems(ul *dom.Node) []*dom.Node {
	var items []*dom.Node
	for _, c := range ul.Children() {
		if c.Kind() == dom.NodeElement {
			items = append(items, c)
		}
	}
	return items
}

func itemText(n *dom.Node) string {
	if len(n.Children()) == 0 {
		return ""
	}
	return n.Children()[0].Text()
}

func countStructural(patches *[]protocol.Patch) int {
	n := 0
	for _, p := range *patches {
		switch p.Op {
		case protocol.PatchInsertNode, protocol.PatchRemoveNode, protocol.PatchMoveNode:
			n++
		}
	}
	return n
}

func TestListRendersItemsInOrder(t *testing.T) {
	env := newTestEnv()
	cell := reactive.NewCell([]todo{{ID: 1}, {ID: 2}, {ID: 3}})

	ul, _ := mountTodos(t, env, cell, "")
	env.s.Flush()

	items := listItems(ul)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, want := range []string{"todo-1", "todo-2", "todo-3"} {
		if itemText(items[i]) != want {
			t.Errorf("item %d: expected %q, got %q", i, want, itemText(items[i]))
		}
	}

	// Anchor stays as the last child of the region.
	last := ul.Children()[len(ul.Children())-1]
	if last.Kind() != dom.NodeComment {
		t.Error("anchor comment missing or displaced")
	}
}

func TestListUnchangedItemsScheduleNothing(t *testing.T) {
	env := newTestEnv()
	// Force notification even for deep-equal slices so the reconciliation
	// run itself proves it emits nothing.
	cell := reactive.NewCell([]todo{{ID: 1}, {ID: 2}}).
		WithEquals(func(a, b []todo) bool { return false })

	ul, _ := mountTodos(t, env, cell, "")
	env.s.Flush()
	before := listItems(ul)

	var patches []protocol.Patch
	env.doc.PatchSink = func(p protocol.Patch) { patches = append(patches, p) }

	cell.Set([]todo{{ID: 1}, {ID: 2}})
	env.s.Flush()

	if n := countStructural(&patches); n != 0 {
		t.Errorf("unchanged items emitted %d structural patches: %+v", n, patches)
	}
	after := listItems(ul)
	for i := range before {
		if before[i] != after[i] {
			t.Error("unchanged item was rebuilt")
		}
	}
}

func TestListChangedFieldRebuildsItem(t *testing.T) {
	env := newTestEnv()
	cell := reactive.NewCell([]todo{{ID: 1, Status: "open"}, {ID: 2, Status: "open"}})

	ul, _ := mountTodos(t, env, cell, "")
	env.s.Flush()
	before := listItems(ul)

	cell.Set([]todo{{ID: 1, Status: "done"}, {ID: 2, Status: "open"}})
	env.s.Flush()
	after := listItems(ul)

	if len(after) != 2 {
		t.Fatalf("expected 2 items, got %d", len(after))
	}
	if after[0] == before[0] || after[0].ID() == before[0].ID() {
		t.Error("changed item must be fully rebuilt")
	}
	if after[1] != before[1] {
		t.Error("unchanged item must keep its node")
	}
	if before[0].Parent() != nil {
		t.Error("replaced node still attached")
	}
}

func TestListRemovalTearsDownExactlyThatKey(t *testing.T) {
	env := newTestEnv()
	cell := reactive.NewCell([]todo{{ID: 1}, {ID: 2}, {ID: 3}})

	ul, _ := mountTodos(t, env, cell, "")
	env.s.Flush()
	before := listItems(ul)

	cell.Set([]todo{{ID: 1}, {ID: 3}})
	env.s.Flush()
	after := listItems(ul)

	if len(after) != 2 {
		t.Fatalf("expected 2 items, got %d", len(after))
	}
	if after[0] != before[0] || after[1] != before[2] {
		t.Error("surviving keys must keep their nodes and relative order")
	}
	if before[1].Parent() != nil {
		t.Error("removed key's node still attached")
	}
}

func TestListReorderMovesWithoutRebuild(t *testing.T) {
	env := newTestEnv()
	cell := reactive.NewCell([]todo{{ID: 1}, {ID: 2}, {ID: 3}})

	ul, _ := mountTodos(t, env, cell, "")
	env.s.Flush()
	before := listItems(ul)

	var patches []protocol.Patch
	env.doc.PatchSink = func(p protocol.Patch) { patches = append(patches, p) }

	cell.Set([]todo{{ID: 3}, {ID: 1}, {ID: 2}})
	env.s.Flush()
	after := listItems(ul)

	want := []*dom.Node{before[2], before[0], before[1]}
	for i := range want {
		if after[i] != want[i] {
			t.Fatalf("reorder mismatch at %d", i)
		}
	}

	for _, p := range patches {
		if p.Op == protocol.PatchInsertNode || p.Op == protocol.PatchRemoveNode {
			t.Errorf("reorder must move, not rebuild: %v", p.Op)
		}
	}
}

func TestListCoalescedRunsApplyOnce(t *testing.T) {
	env := newTestEnv()
	cell := reactive.NewCell([]todo{{ID: 1}})

	ul, _ := mountTodos(t, env, cell, "")
	env.s.Flush()

	// Two writes before one flush: reconciliation runs coalesce and the
	// final document state reflects only the last sequence.
	cell.Set([]todo{{ID: 1}, {ID: 2}})
	cell.Set([]todo{{ID: 2}})
	env.s.Flush()

	items := listItems(ul)
	if len(items) != 1 || itemText(items[0]) != "todo-2" {
		t.Fatalf("expected only todo-2, got %d items", len(items))
	}
}

func TestListTeardownDetachesAllItems(t *testing.T) {
	env := newTestEnv()
	cell := reactive.NewCell([]todo{{ID: 1}, {ID: 2}})

	ul, d := mountTodos(t, env, cell, "")
	env.s.Flush()

	d()
	if len(listItems(ul)) != 0 {
		t.Error("teardown must detach all managed nodes")
	}

	// The binding no longer reacts.
	cell.Set([]todo{{ID: 9}})
	env.s.Flush()
	if len(listItems(ul)) != 0 {
		t.Error("disposed binding still reconciling")
	}
}

func TestListPartitionAcrossTwoViews(t *testing.T) {
	env := newTestEnv()
	cell := reactive.NewCell([]todo{
		{ID: 1, Status: "a"},
		{ID: 2, Status: "a"},
	})

	ulA, _ := mountTodos(t, env, cell, "a")
	ulB, _ := mountTodos(t, env, cell, "b")
	env.s.Flush()

	if got := len(listItems(ulA)); got != 2 {
		t.Fatalf("view a: expected 2 items, got %d", got)
	}
	if got := len(listItems(ulB)); got != 0 {
		t.Fatalf("view b: expected 0 items, got %d", got)
	}
	oldNode := listItems(ulA)[0]

	cell.Set([]todo{
		{ID: 1, Status: "b"},
		{ID: 2, Status: "a"},
	})
	env.s.Flush()

	itemsA := listItems(ulA)
	if len(itemsA) != 1 || itemText(itemsA[0]) != "todo-2" {
		t.Fatalf("view a: expected only todo-2, got %d items", len(itemsA))
	}
	if oldNode.Parent() != nil {
		t.Error("item 1's old node must be detached from view a")
	}

	itemsB := listItems(ulB)
	if len(itemsB) != 1 || itemText(itemsB[0]) != "todo-1" {
		t.Fatalf("view b: expected only todo-1, got %d items", len(itemsB))
	}
	if itemsB[0] == oldNode || itemsB[0].ID() == oldNode.ID() {
		t.Error("view b must create a fresh node, not adopt view a's")
	}
}

func TestListAnchorSurvivesEmptySequence(t *testing.T) {
	env := newTestEnv()
	cell := reactive.NewCell([]todo{{ID: 1}})

	ul, _ := mountTodos(t, env, cell, "")
	env.s.Flush()

	cell.Set(nil)
	env.s.Flush()

	if len(listItems(ul)) != 0 {
		t.Error("expected no items")
	}
	if len(ul.Children()) != 1 || ul.Children()[0].Kind() != dom.NodeComment {
		t.Error("anchor must remain after all items are removed")
	}
}

func TestListChurnReleasesReplacedNodes(t *testing.T) {
	env := newTestEnv()
	cell := reactive.NewCell([]todo{{ID: 1, Status: "v0"}})

	ul, _ := mountTodos(t, env, cell, "")
	env.s.Flush()

	var stale []string
	for i := 1; i <= 50; i++ {
		item := listItems(ul)[0]
		stale = append(stale, item.ID(), item.Children()[0].ID())
		cell.Set([]todo{{ID: 1, Status: "v" + strconv.Itoa(i)}})
		env.s.Flush()
	}

	for _, id := range stale {
		if env.doc.ByID(id) != nil {
			t.Fatalf("torn-down node %s still held by the document", id)
		}
	}

	// The live row stays reachable for event dispatch.
	live := listItems(ul)[0]
	if env.doc.ByID(live.ID()) != live {
		t.Error("current row missing from the document table")
	}
}
