package dom

import (
	"github.com/lumen-dev/lumen/pkg/protocol"
)

// NodeKind is the node type discriminator.
type NodeKind uint8

const (
	NodeElement NodeKind = iota // <div>, <button>, etc.
	NodeText                    // Plain text node
	NodeComment                 // Region anchor / marker
)

// String returns the string representation of the NodeKind.
func (k NodeKind) String() string {
	switch k {
	case NodeElement:
		return "Element"
	case NodeText:
		return "Text"
	case NodeComment:
		return "Comment"
	default:
		return "Unknown"
	}
}

// Event is a user interaction delivered to a node's handlers.
type Event struct {
	Type   string // "click", "input", ...
	Value  string // input value for form events
	Target *Node
}

type handlerEntry struct {
	id uint64
	fn func(Event)
}

// Node is one live document node. All mutation methods emit a patch on the
// owning document's sink when one is set.
type Node struct {
	doc  *Document
	kind NodeKind
	id   string
	tag  string // elements only
	text string // text and comment nodes

	attrs    map[string]string
	classes  []string
	styles   []styleEntry
	value    string // live form value property, distinct from attributes
	hasValue bool

	parent   *Node
	children []*Node

	handlers  map[string][]handlerEntry
	handlerID uint64
}

type styleEntry struct {
	prop  string
	value string
}

// ID returns the node's stable document-unique ID.
func (n *Node) ID() string { return n.id }

// Document returns the owning document.
func (n *Node) Document() *Document { return n.doc }

// Kind returns the node kind.
func (n *Node) Kind() NodeKind { return n.kind }

// Tag returns the element tag, or "" for non-elements.
func (n *Node) Tag() string { return n.tag }

// Text returns the text content of a text or comment node.
func (n *Node) Text() string { return n.text }

// Parent returns the node's parent, or nil if detached.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's children. The slice is owned by the node.
func (n *Node) Children() []*Node { return n.children }

// Index returns the node's position within its parent, or -1 if detached.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// Attr returns the attribute value and whether it is set.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// HasClass reports whether the class is present.
func (n *Node) HasClass(name string) bool {
	for _, c := range n.classes {
		if c == name {
			return true
		}
	}
	return false
}

// Style returns the style property value and whether it is set.
func (n *Node) Style(prop string) (string, bool) {
	for _, s := range n.styles {
		if s.prop == prop {
			return s.value, true
		}
	}
	return "", false
}

// Value returns the live form value property.
func (n *Node) Value() string { return n.value }

// SetText updates the content of a text or comment node. No-op if unchanged.
func (n *Node) SetText(text string) {
	if n.kind == NodeElement || n.text == text {
		return
	}
	n.text = text
	n.doc.emit(protocol.Patch{Op: protocol.PatchSetText, NodeID: n.id, Value: text})
}

// SetAttr sets an attribute. No-op if already set to the same value.
func (n *Node) SetAttr(name, value string) {
	if cur, ok := n.attrs[name]; ok && cur == value {
		return
	}
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[name] = value
	n.doc.emit(protocol.Patch{Op: protocol.PatchSetAttr, NodeID: n.id, Key: name, Value: value})
}

// RemoveAttr removes an attribute. No-op if absent.
func (n *Node) RemoveAttr(name string) {
	if _, ok := n.attrs[name]; !ok {
		return
	}
	delete(n.attrs, name)
	n.doc.emit(protocol.Patch{Op: protocol.PatchRemoveAttr, NodeID: n.id, Key: name})
}

// AddClass adds a CSS class. No-op if present.
func (n *Node) AddClass(name string) {
	if name == "" || n.HasClass(name) {
		return
	}
	n.classes = append(n.classes, name)
	n.doc.emit(protocol.Patch{Op: protocol.PatchAddClass, NodeID: n.id, Value: name})
}

// RemoveClass removes a CSS class. No-op if absent.
func (n *Node) RemoveClass(name string) {
	for i, c := range n.classes {
		if c == name {
			n.classes = append(n.classes[:i], n.classes[i+1:]...)
			n.doc.emit(protocol.Patch{Op: protocol.PatchRemoveClass, NodeID: n.id, Value: name})
			return
		}
	}
}

// SetStyle sets an inline style property. No-op if unchanged.
func (n *Node) SetStyle(prop, value string) {
	for i, s := range n.styles {
		if s.prop == prop {
			if s.value == value {
				return
			}
			n.styles[i].value = value
			n.doc.emit(protocol.Patch{Op: protocol.PatchSetStyle, NodeID: n.id, Key: prop, Value: value})
			return
		}
	}
	n.styles = append(n.styles, styleEntry{prop: prop, value: value})
	n.doc.emit(protocol.Patch{Op: protocol.PatchSetStyle, NodeID: n.id, Key: prop, Value: value})
}

// RemoveStyle removes an inline style property. No-op if absent.
func (n *Node) RemoveStyle(prop string) {
	for i, s := range n.styles {
		if s.prop == prop {
			n.styles = append(n.styles[:i], n.styles[i+1:]...)
			n.doc.emit(protocol.Patch{Op: protocol.PatchRemoveStyle, NodeID: n.id, Key: prop})
			return
		}
	}
}

// SetValue sets the live form value property. Unlike SetAttr("value", ...)
// this survives user edits on the client side. No-op if unchanged.
func (n *Node) SetValue(value string) {
	if n.hasValue && n.value == value {
		return
	}
	n.hasValue = true
	n.value = value
	n.doc.emit(protocol.Patch{Op: protocol.PatchSetValue, NodeID: n.id, Value: value})
}

// AppendChild inserts child as the last child of n.
func (n *Node) AppendChild(child *Node) {
	n.InsertBefore(child, nil)
}

// InsertBefore inserts child before ref, or at the end when ref is nil.
// A child that already has a parent in the same document is moved, emitting
// a move rather than a remove/insert pair.
func (n *Node) InsertBefore(child, ref *Node) {
	if child == nil || child == n {
		return
	}

	moving := child.parent != nil
	if moving {
		child.parent.unlink(child)
	}

	idx := len(n.children)
	if ref != nil {
		for i, c := range n.children {
			if c == ref {
				idx = i
				break
			}
		}
	}

	n.children = append(n.children, nil)
	copy(n.children[idx+1:], n.children[idx:])
	n.children[idx] = child
	child.parent = n

	// Registration is idempotent; a move out of a detached (evicted)
	// subtree re-registers here too.
	n.doc.adoptTree(child)

	if moving {
		n.doc.emit(protocol.Patch{Op: protocol.PatchMoveNode, NodeID: child.id, ParentID: n.id, Index: idx})
		return
	}
	n.doc.emit(protocol.Patch{
		Op: protocol.PatchInsertNode, NodeID: child.id,
		ParentID: n.id, Index: idx, Node: child.wire(),
	})
}

// Detach removes the node from its parent and evicts the subtree from the
// document's ID table; reattaching re-registers it. Moves go through
// InsertBefore and never pass here. No-op if already detached.
func (n *Node) Detach() {
	if n.parent == nil {
		return
	}
	n.parent.unlink(n)
	n.doc.forgetTree(n)
	n.doc.emit(protocol.Patch{Op: protocol.PatchRemoveNode, NodeID: n.id})
}

// unlink removes child from n's child list without emitting a patch.
func (n *Node) unlink(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// On registers an event handler and returns its removal function.
func (n *Node) On(event string, fn func(Event)) func() {
	if n.handlers == nil {
		n.handlers = make(map[string][]handlerEntry)
	}
	n.handlerID++
	id := n.handlerID
	n.handlers[event] = append(n.handlers[event], handlerEntry{id: id, fn: fn})

	return func() {
		entries := n.handlers[event]
		for i, e := range entries {
			if e.id == id {
				n.handlers[event] = append(entries[:i], entries[i+1:]...)
				return
			}
		}
	}
}

// Dispatch delivers an event to the node's handlers for ev.Type.
func (n *Node) Dispatch(ev Event) {
	ev.Target = n
	// Snapshot so a handler may deregister itself.
	entries := append([]handlerEntry(nil), n.handlers[ev.Type]...)
	for _, e := range entries {
		e.fn(ev)
	}
}

// CloneTree deep-clones the subtree rooted at n with fresh IDs. The clone is
// detached and belongs to the same document; it enters the ID table when
// attached. Event handlers are not cloned.
func (n *Node) CloneTree() *Node {
	c := &Node{doc: n.doc, kind: n.kind, id: n.doc.allocID(), tag: n.tag, text: n.text}

	if len(n.attrs) > 0 {
		c.attrs = make(map[string]string, len(n.attrs))
		for k, v := range n.attrs {
			c.attrs[k] = v
		}
	}
	c.classes = append([]string(nil), n.classes...)
	c.styles = append([]styleEntry(nil), n.styles...)
	c.value = n.value
	c.hasValue = n.hasValue

	for _, child := range n.children {
		cc := child.CloneTree()
		cc.parent = c
		c.children = append(c.children, cc)
	}
	return c
}

// wire builds the protocol representation of the subtree for insert patches.
func (n *Node) wire() *protocol.NodeWire {
	w := &protocol.NodeWire{ID: n.id}

	switch n.kind {
	case NodeText:
		w.Kind = protocol.WireText
		w.Text = n.text
		return w
	case NodeComment:
		w.Kind = protocol.WireComment
		w.Text = n.text
		return w
	}

	w.Kind = protocol.WireElement
	w.Tag = n.tag
	for _, k := range sortedKeys(n.attrs) {
		w.Attrs = append(w.Attrs, protocol.KV{Key: k, Value: n.attrs[k]})
	}
	w.Classes = append([]string(nil), n.classes...)
	for _, s := range n.styles {
		w.Styles = append(w.Styles, protocol.KV{Key: s.prop, Value: s.value})
	}
	w.HasValue = n.hasValue
	w.Value = n.value
	for _, child := range n.children {
		w.Children = append(w.Children, child.wire())
	}
	return w
}
