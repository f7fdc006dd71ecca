package render

import "github.com/lumen-dev/lumen/pkg/dom"

// Binding is one reactive coupling on a dynamic instruction. The variant set
// is closed: binding kinds are explicit constructor calls, never inferred
// from key names.
type Binding interface {
	binding()
}

// TextBinding keeps a text node's content in sync with a reactive value.
// Value is evaluated inside the binding's effect, so cell reads are tracked.
type TextBinding struct {
	Value func() string
}

// AttrBinding keeps a named attribute in sync with a reactive value. A nil
// result removes the attribute. The "value" attribute on a form control
// writes the live value property instead, and nil clears it to the empty
// string rather than removing anything.
type AttrBinding struct {
	Name  string
	Value func() *string
}

// ClassBinding toggles membership of one CSS class.
type ClassBinding struct {
	Name   string
	Active func() bool
}

// StyleBinding keeps one inline style property in sync. A nil result
// removes the property.
type StyleBinding struct {
	Prop  string
	Value func() *string
}

// EventBinding attaches a listener at materialization time. It is not
// reactive; teardown removes the listener.
type EventBinding struct {
	Event   string
	Handler func(dom.Event)
}

// ForBinding renders a keyed, ordered collection. Items is evaluated inside
// the binding's effect; Key yields the reconciliation key for an item;
// Template yields the instructions for one item. A template returning zero
// instructions filters the item out of this binding's view, which is how one
// source collection can be partitioned across several independent bindings.
type ForBinding struct {
	Items    func() []any
	Key      func(item any) string
	Template func(item any) []*Instruction
}

// IfBinding renders one of two branches selected by a reactive condition.
// Branch templates are re-invoked on every flip; nothing is reused across
// toggles. Else may be nil for an empty alternative.
type IfBinding struct {
	Cond func() bool
	Then func() []*Instruction
	Else func() []*Instruction
}

func (TextBinding) binding()  {}
func (AttrBinding) binding()  {}
func (ClassBinding) binding() {}
func (StyleBinding) binding() {}
func (EventBinding) binding() {}
func (ForBinding) binding()   {}
func (IfBinding) binding()    {}

// ForEach adapts a typed collection to a ForBinding.
func ForEach[T any](items func() []T, key func(T) string, template func(T) []*Instruction) ForBinding {
	return ForBinding{
		Items: func() []any {
			typed := items()
			out := make([]any, len(typed))
			for i, v := range typed {
				out[i] = v
			}
			return out
		},
		Key:      func(item any) string { return key(item.(T)) },
		Template: func(item any) []*Instruction { return template(item.(T)) },
	}
}
