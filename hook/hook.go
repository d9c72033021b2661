// Package hook implements per-component persistent state with lifecycle
// callbacks driven by the render scheduler: the hook arena, the reactive
// state cell, and the terminal-event subscription hook.
//
// Hooks are registered during render via the Use* functions, which key hook
// state by call order. The same hooks must therefore be called
// unconditionally, in the same order, on every render of a component.
package hook

import (
	"fmt"

	"github.com/frnsys/iocraft/terminal"
)

// Poll is the result of polling a hook for observable change.
type Poll uint8

const (
	// Pending reports no observable state change; the scheduler should
	// suspend until woken.
	Pending Poll = iota
	// Changed reports that hook-owned state changed since the last poll.
	Changed
)

func (p Poll) String() string {
	switch p {
	case Pending:
		return `pending`
	case Changed:
		return `changed`
	default:
		return `invalid`
	}
}

// Updater is the slice of the component runtime exposed to hooks during the
// post-commit phase.
type Updater interface {
	// TerminalEvents returns the terminal event stream for the owning
	// component instance, or nil. The underlying factory yields a stream at
	// most once per instance; later calls return nil.
	TerminalEvents() *terminal.EventStream
}

// Hook is one slot of persistent per-component state with lifecycle
// callbacks.
type Hook interface {
	// PollChange is invoked by the scheduler every tick, and reports whether
	// hook-owned observable state has changed since the last poll.
	PollChange() Poll

	// PostComponentUpdate is invoked exactly once after each commit of the
	// owning component, starting from the first commit.
	PostComponentUpdate(u Updater)
}

// Unmounter is implemented by hooks that hold resources requiring teardown
// when the owning component instance is removed from the tree.
type Unmounter interface {
	Unmount()
}

// Hooks is the per-component-instance hook arena. Slots persist across
// renders; within a render, Use* calls claim slots in call order.
//
// Hooks is not safe for concurrent use; all access happens on the scheduler
// task.
type Hooks struct {
	slots     []Hook
	next      int
	mark      func()
	rendering bool
	unmounted bool
}

// New constructs an arena. mark is invoked whenever hook-owned reactive
// state is mutated (e.g. State.Set), so the scheduler can be woken to
// re-poll; it may be nil.
func New(mark func()) *Hooks {
	return &Hooks{mark: mark}
}

// BeginRender resets the slot cursor. The runtime calls it immediately
// before each render of the owning component.
func (h *Hooks) BeginRender() {
	if h.unmounted {
		panic(`hook: render after unmount`)
	}
	h.next = 0
	h.rendering = true
}

// EndRender completes the render pass, verifying that every existing slot
// was claimed.
func (h *Hooks) EndRender() {
	if !h.rendering {
		panic(`hook: EndRender without BeginRender`)
	}
	h.rendering = false
	if h.next != len(h.slots) {
		panic(fmt.Sprintf(`hook: %d hook(s) registered on a previous render were not called this render`, len(h.slots)-h.next))
	}
}

// Use returns the hook state for the current call site, constructing it via
// factory on the first render only. Subsequent renders return the stored
// value; the factory is not invoked again.
func Use[H Hook](h *Hooks, factory func() H) H {
	if !h.rendering {
		panic(`hook: Use outside render`)
	}
	if h.next < len(h.slots) {
		slot := h.slots[h.next]
		got, ok := slot.(H)
		if !ok {
			panic(fmt.Sprintf(`hook: slot %d holds %T; hooks must be called unconditionally and in a stable order`, h.next, slot))
		}
		h.next++
		return got
	}
	got := factory()
	h.slots = append(h.slots, got)
	h.next++
	return got
}

// PollChange polls every slot, reporting Changed if any slot changed. All
// slots are polled each tick regardless of earlier results, so hooks that
// drain external sources always get their turn.
func (h *Hooks) PollChange() Poll {
	result := Pending
	for _, slot := range h.slots {
		if slot.PollChange() == Changed {
			result = Changed
		}
	}
	return result
}

// PostComponentUpdate runs the post-commit lifecycle callback of every slot.
func (h *Hooks) PostComponentUpdate(u Updater) {
	for _, slot := range h.slots {
		slot.PostComponentUpdate(u)
	}
}

// Unmount tears down every slot implementing Unmounter and marks the arena
// dead. Idempotent.
func (h *Hooks) Unmount() {
	if h.unmounted {
		return
	}
	h.unmounted = true
	for _, slot := range h.slots {
		if u, ok := slot.(Unmounter); ok {
			u.Unmount()
		}
	}
}

func (h *Hooks) wake() {
	if h.mark != nil {
		h.mark()
	}
}
