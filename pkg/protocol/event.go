package protocol

// Event is a user interaction reported by the thin client: the target node,
// the event type ("click", "input", ...), and an optional string payload
// (the input value for form events).
type Event struct {
	Seq    uint64
	Target string
	Type   string
	Value  string
}

// EncodeEvent encodes an event frame payload.
func EncodeEvent(ev *Event) []byte {
	e := NewEncoder()
	e.WriteUvarint(ev.Seq)
	e.WriteString(ev.Target)
	e.WriteString(ev.Type)
	e.WriteString(ev.Value)
	return e.Bytes()
}

// DecodeEvent decodes an event frame payload.
func DecodeEvent(data []byte) (*Event, error) {
	d := NewDecoder(data)

	ev := &Event{}
	var err error

	if ev.Seq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if ev.Target, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ev.Type, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ev.Value, err = d.ReadString(); err != nil {
		return nil, err
	}

	return ev, nil
}
