package hook

// State is a handle on one reactive value stored in the hook arena. Copies
// of a State share the underlying cell. Mutating it via Set is what
// ultimately triggers a re-render: the cell reports Changed on its next
// poll. Hooks that merely consume input (such as UseTerminalEvents) rely on
// this rather than signalling change themselves.
type State[T any] struct {
	cell *stateCell[T]
}

type stateCell[T any] struct {
	owner   *Hooks
	value   T
	changed bool
}

func (c *stateCell[T]) PollChange() Poll {
	if c.changed {
		c.changed = false
		return Changed
	}
	return Pending
}

func (c *stateCell[T]) PostComponentUpdate(Updater) {}

// UseState returns the state for the current hook slot, initialising it with
// init on the first render. init must not be nil.
func UseState[T any](h *Hooks, init func() T) State[T] {
	if init == nil {
		panic(`hook: nil state initializer`)
	}
	cell := Use(h, func() *stateCell[T] {
		return &stateCell[T]{owner: h, value: init()}
	})
	return State[T]{cell: cell}
}

// Get returns the current value.
func (s State[T]) Get() T {
	return s.cell.value
}

// Set replaces the value, flags the cell as changed for the next poll, and
// wakes the scheduler so that poll happens promptly.
func (s State[T]) Set(v T) {
	s.cell.value = v
	s.cell.changed = true
	s.cell.owner.wake()
}
