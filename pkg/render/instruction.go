package render

import (
	"github.com/lumen-dev/lumen/pkg/dom"
	"github.com/lumen-dev/lumen/pkg/reactive"
)

// InstructionKind discriminates instruction variants.
type InstructionKind uint8

const (
	// KindStatic wraps an immutable subtree; every placement clones it.
	KindStatic InstructionKind = iota
	// KindDynamic carries bindings and children around a target node.
	KindDynamic
)

// String returns the string representation of the InstructionKind.
func (k InstructionKind) String() string {
	switch k {
	case KindStatic:
		return "Static"
	case KindDynamic:
		return "Dynamic"
	default:
		return "Unknown"
	}
}

// Instruction describes what to render. It is pure data: static instructions
// wrap a finished subtree, dynamic ones pair a target node with bindings and
// child instructions.
//
// Every dynamic instruction gets a process-unique handle at construction.
// Handles are never reused; the renderer's materialization arena is keyed by
// them and evicted explicitly on teardown.
type Instruction struct {
	kind   InstructionKind
	handle uint64

	root *dom.Node // static subtree

	target   *dom.Node // dynamic target
	bindings []Binding
	children []*Instruction
}

// Static creates an instruction wrapping an immutable subtree.
func Static(root *dom.Node) *Instruction {
	return &Instruction{kind: KindStatic, root: root}
}

// Dynamic creates an instruction with a stable handle, a target node, the
// bindings coupling it to reactive state, and child instructions appended
// under the target.
func Dynamic(target *dom.Node, bindings []Binding, children ...*Instruction) *Instruction {
	return &Instruction{
		kind:     KindDynamic,
		handle:   reactive.NextID(),
		target:   target,
		bindings: bindings,
		children: children,
	}
}

// Kind returns the instruction variant.
func (in *Instruction) Kind() InstructionKind { return in.kind }

// Handle returns the dynamic instruction's arena handle, 0 for static.
func (in *Instruction) Handle() uint64 { return in.handle }

// Target returns the dynamic instruction's target node, nil for static.
func (in *Instruction) Target() *dom.Node { return in.target }
