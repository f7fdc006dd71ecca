package protocol

// NodeWireKind discriminates wire node variants.
type NodeWireKind uint8

const (
	WireElement NodeWireKind = 0x01
	WireText    NodeWireKind = 0x02
	WireComment NodeWireKind = 0x03
)

// KV is one attribute or style entry.
type KV struct {
	Key   string
	Value string
}

// NodeWire is the wire representation of a document subtree, carried by
// InsertNode patches so the client can build the inserted nodes.
type NodeWire struct {
	Kind     NodeWireKind
	ID       string
	Tag      string // elements only
	Text     string // text and comment nodes
	Attrs    []KV
	Classes  []string
	Styles   []KV
	Value    string // live form value, elements only
	HasValue bool
	Children []*NodeWire
}

// EncodeNodeWire encodes a wire node tree.
func EncodeNodeWire(e *Encoder, n *NodeWire) {
	if n == nil {
		e.WriteByte(0x00)
		return
	}

	e.WriteByte(byte(n.Kind))
	e.WriteString(n.ID)

	switch n.Kind {
	case WireText, WireComment:
		e.WriteString(n.Text)
		return
	}

	e.WriteString(n.Tag)

	e.WriteUvarint(uint64(len(n.Attrs)))
	for _, kv := range n.Attrs {
		e.WriteString(kv.Key)
		e.WriteString(kv.Value)
	}

	e.WriteUvarint(uint64(len(n.Classes)))
	for _, c := range n.Classes {
		e.WriteString(c)
	}

	e.WriteUvarint(uint64(len(n.Styles)))
	for _, kv := range n.Styles {
		e.WriteString(kv.Key)
		e.WriteString(kv.Value)
	}

	e.WriteBool(n.HasValue)
	if n.HasValue {
		e.WriteString(n.Value)
	}

	e.WriteUvarint(uint64(len(n.Children)))
	for _, child := range n.Children {
		EncodeNodeWire(e, child)
	}
}

// DecodeNodeWire decodes a wire node tree.
func DecodeNodeWire(d *Decoder) (*NodeWire, error) {
	kindByte, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	if kindByte == 0x00 {
		return nil, nil
	}

	n := &NodeWire{Kind: NodeWireKind(kindByte)}

	n.ID, err = d.ReadString()
	if err != nil {
		return nil, err
	}

	switch n.Kind {
	case WireText, WireComment:
		n.Text, err = d.ReadString()
		return n, err
	}

	n.Tag, err = d.ReadString()
	if err != nil {
		return nil, err
	}

	attrCount, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	for i := 0; i < attrCount; i++ {
		var kv KV
		if kv.Key, err = d.ReadString(); err != nil {
			return nil, err
		}
		if kv.Value, err = d.ReadString(); err != nil {
			return nil, err
		}
		n.Attrs = append(n.Attrs, kv)
	}

	classCount, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	for i := 0; i < classCount; i++ {
		var c string
		if c, err = d.ReadString(); err != nil {
			return nil, err
		}
		n.Classes = append(n.Classes, c)
	}

	styleCount, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	for i := 0; i < styleCount; i++ {
		var kv KV
		if kv.Key, err = d.ReadString(); err != nil {
			return nil, err
		}
		if kv.Value, err = d.ReadString(); err != nil {
			return nil, err
		}
		n.Styles = append(n.Styles, kv)
	}

	hasValue, err := d.ReadBool()
	if err != nil {
		return nil, err
	}
	if hasValue {
		n.HasValue = true
		if n.Value, err = d.ReadString(); err != nil {
			return nil, err
		}
	}

	childCount, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	for i := 0; i < childCount; i++ {
		child, err := DecodeNodeWire(d)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}

	return n, nil
}
