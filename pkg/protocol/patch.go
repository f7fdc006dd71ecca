package protocol

// PatchOp is the type of document patch operation.
type PatchOp uint8

const (
	PatchSetText     PatchOp = 0x01 // Update text content
	PatchSetAttr     PatchOp = 0x02 // Set/update attribute
	PatchRemoveAttr  PatchOp = 0x03 // Remove attribute
	PatchInsertNode  PatchOp = 0x04 // Insert new node
	PatchRemoveNode  PatchOp = 0x05 // Remove node
	PatchMoveNode    PatchOp = 0x06 // Move node to new position
	PatchSetValue    PatchOp = 0x07 // Set live form value property
	PatchAddClass    PatchOp = 0x08 // Add CSS class
	PatchRemoveClass PatchOp = 0x09 // Remove CSS class
	PatchSetStyle    PatchOp = 0x0A // Set style property
	PatchRemoveStyle PatchOp = 0x0B // Remove style property
)

// String returns the string representation of the patch operation.
func (op PatchOp) String() string {
	switch op {
	case PatchSetText:
		return "SetText"
	case PatchSetAttr:
		return "SetAttr"
	case PatchRemoveAttr:
		return "RemoveAttr"
	case PatchInsertNode:
		return "InsertNode"
	case PatchRemoveNode:
		return "RemoveNode"
	case PatchMoveNode:
		return "MoveNode"
	case PatchSetValue:
		return "SetValue"
	case PatchAddClass:
		return "AddClass"
	case PatchRemoveClass:
		return "RemoveClass"
	case PatchSetStyle:
		return "SetStyle"
	case PatchRemoveStyle:
		return "RemoveStyle"
	default:
		return "Unknown"
	}
}

// Patch represents a single document operation.
type Patch struct {
	Op       PatchOp
	NodeID   string    // Target node ID
	Key      string    // Attribute/style key, class name
	Value    string    // Value for text/attr/style/value
	ParentID string    // Parent node ID for InsertNode/MoveNode
	Index    int       // Insert/move position within the parent
	Node     *NodeWire // For InsertNode
}

// PatchesFrame is a batch of patches with a flush sequence number.
type PatchesFrame struct {
	Seq     uint64
	Patches []Patch
}

// EncodePatches encodes a patches frame payload to bytes.
func EncodePatches(pf *PatchesFrame) []byte {
	e := NewEncoder()
	e.WriteUvarint(pf.Seq)
	e.WriteUvarint(uint64(len(pf.Patches)))

	for i := range pf.Patches {
		encodePatch(e, &pf.Patches[i])
	}
	return e.Bytes()
}

// encodePatch encodes a single patch.
func encodePatch(e *Encoder, p *Patch) {
	e.WriteByte(byte(p.Op))
	e.WriteString(p.NodeID)

	switch p.Op {
	case PatchSetText, PatchSetValue:
		e.WriteString(p.Value)

	case PatchSetAttr, PatchSetStyle:
		e.WriteString(p.Key)
		e.WriteString(p.Value)

	case PatchRemoveAttr, PatchRemoveStyle:
		e.WriteString(p.Key)

	case PatchAddClass, PatchRemoveClass:
		e.WriteString(p.Value)

	case PatchInsertNode:
		e.WriteString(p.ParentID)
		e.WriteUvarint(uint64(p.Index))
		EncodeNodeWire(e, p.Node)

	case PatchRemoveNode:
		// NodeID is sufficient.

	case PatchMoveNode:
		e.WriteString(p.ParentID)
		e.WriteUvarint(uint64(p.Index))
	}
}

// DecodePatches decodes a patches frame payload.
func DecodePatches(data []byte) (*PatchesFrame, error) {
	d := NewDecoder(data)

	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}

	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}

	patches := make([]Patch, count)
	for i := 0; i < count; i++ {
		if err := decodePatch(d, &patches[i]); err != nil {
			return nil, err
		}
	}

	return &PatchesFrame{Seq: seq, Patches: patches}, nil
}

// decodePatch decodes a single patch.
func decodePatch(d *Decoder, p *Patch) error {
	opByte, err := d.ReadByte()
	if err != nil {
		return err
	}
	p.Op = PatchOp(opByte)

	p.NodeID, err = d.ReadString()
	if err != nil {
		return err
	}

	switch p.Op {
	case PatchSetText, PatchSetValue:
		p.Value, err = d.ReadString()

	case PatchSetAttr, PatchSetStyle:
		p.Key, err = d.ReadString()
		if err != nil {
			return err
		}
		p.Value, err = d.ReadString()

	case PatchRemoveAttr, PatchRemoveStyle:
		p.Key, err = d.ReadString()

	case PatchAddClass, PatchRemoveClass:
		p.Value, err = d.ReadString()

	case PatchInsertNode:
		p.ParentID, err = d.ReadString()
		if err != nil {
			return err
		}
		var idx uint64
		idx, err = d.ReadUvarint()
		if err != nil {
			return err
		}
		p.Index = int(idx)
		p.Node, err = DecodeNodeWire(d)

	case PatchRemoveNode:
		// No additional data.

	case PatchMoveNode:
		p.ParentID, err = d.ReadString()
		if err != nil {
			return err
		}
		var idx uint64
		idx, err = d.ReadUvarint()
		p.Index = int(idx)

	default:
		// Unknown patch op: skip for forward compatibility.
	}

	return err
}
