package hook

import "github.com/frnsys/iocraft/terminal"

// UseTerminalEvents installs a subscription to the runtime's terminal event
// stream for the current component instance, invoking fn once per event.
//
// The callback is fixed for the lifetime of the instance, as installed on the
// first render; it is expected to be cheap and non-blocking, and to take
// effect by mutating reactive state (see State) rather than by returning
// anything. All invocations happen serially on the scheduler task, in event
// arrival order.
//
// The stream handle is acquired lazily, on the first post-commit cycle after
// the hook is created; every buffered event is drained within the tick it is
// polled, so a burst of input arriving between two ticks is applied
// atomically. The hook itself never reports a change: it owns no observable
// state.
//
// If terminal events are unavailable in the current runtime mode, or once
// the stream is permanently exhausted, the hook silently never fires again.
func UseTerminalEvents(h *Hooks, fn func(terminal.Event)) {
	if fn == nil {
		panic(`hook: nil terminal event callback`)
	}
	Use(h, func() *terminalEventsHook {
		return &terminalEventsHook{fn: fn}
	})
}

// terminalEventsHook is the subscription state machine: unattached until a
// stream is acquired, attached while draining, and permanently detached once
// the stream is exhausted.
type terminalEventsHook struct {
	events    *terminal.EventStream // nil while unattached
	fn        func(terminal.Event)
	exhausted bool
}

func (x *terminalEventsHook) PollChange() Poll {
	if x.events == nil {
		return Pending
	}
	for {
		ev, status := x.events.TryNext()
		switch status {
		case terminal.Ready:
			x.fn(ev)
		case terminal.NotReady:
			return Pending
		case terminal.Exhausted:
			// never re-poll a dead stream
			x.events = nil
			x.exhausted = true
			return Pending
		default:
			panic(`hook: invalid stream status`)
		}
	}
}

func (x *terminalEventsHook) PostComponentUpdate(u Updater) {
	if x.events != nil || x.exhausted {
		return
	}
	// idempotent: the factory yields a stream at most once per instance, and
	// absence (terminal events unsupported) is permanent and silent
	x.events = u.TerminalEvents()
}

func (x *terminalEventsHook) Unmount() {
	if x.events != nil {
		x.events.Close()
		x.events = nil
	}
}
