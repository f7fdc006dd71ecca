package dom

import (
	"strconv"

	"github.com/lumen-dev/lumen/pkg/protocol"
)

// Document owns a tree of nodes with stable IDs. The ID table tracks
// attached nodes only: a node enters on insertion and leaves on detach, so
// torn-down subtrees and discarded template prototypes never accumulate.
type Document struct {
	root   *Node
	nodes  map[string]*Node
	nextID uint64

	// PatchSink, when non-nil, receives one patch per applied mutation.
	PatchSink func(protocol.Patch)
}

// NewDocument creates a document with an empty root element.
func NewDocument() *Document {
	d := &Document{nodes: make(map[string]*Node)}
	d.root = d.CreateElement("body")
	d.nodes[d.root.id] = d.root
	return d
}

// Root returns the document's root element.
func (d *Document) Root() *Node {
	return d.root
}

// ByID returns the attached node with the given ID, or nil. Detached nodes
// are not reachable; events for them are dropped.
func (d *Document) ByID(id string) *Node {
	return d.nodes[id]
}

// CreateElement creates a detached element node.
func (d *Document) CreateElement(tag string) *Node {
	return &Node{doc: d, kind: NodeElement, id: d.allocID(), tag: tag}
}

// CreateText creates a detached text node.
func (d *Document) CreateText(text string) *Node {
	return &Node{doc: d, kind: NodeText, id: d.allocID(), text: text}
}

// CreateComment creates a detached comment node. The renderer uses comments
// as region anchors for conditional and list content.
func (d *Document) CreateComment(text string) *Node {
	return &Node{doc: d, kind: NodeComment, id: d.allocID(), text: text}
}

func (d *Document) allocID() string {
	d.nextID++
	return "n" + strconv.FormatUint(d.nextID, 10)
}

// adoptTree (re)registers a subtree in the ID table.
func (d *Document) adoptTree(n *Node) {
	d.nodes[n.id] = n
	for _, c := range n.children {
		d.adoptTree(c)
	}
}

// forgetTree evicts a subtree from the ID table, so removed nodes neither
// accumulate nor stay reachable by event dispatch.
func (d *Document) forgetTree(n *Node) {
	delete(d.nodes, n.id)
	for _, c := range n.children {
		d.forgetTree(c)
	}
}

func (d *Document) emit(p protocol.Patch) {
	if d.PatchSink != nil {
		d.PatchSink(p)
	}
}
