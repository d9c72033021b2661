package runtime

import (
	"fmt"
	"io"
	"time"

	"github.com/frnsys/iocraft/hook"
	"github.com/frnsys/iocraft/terminal"
	"github.com/joeycumines/logiface"
	"github.com/mattn/go-colorable"
)

// Option is a functional option for configuring an App.
type Option func(a *App) error

// WithEventSource supplies an externally-owned event source. The caller
// remains responsible for feeding and closing it; Run will not open a
// terminal driver.
func WithEventSource(src *terminal.EventSource) Option {
	return func(a *App) error {
		if src == nil {
			return fmt.Errorf(`runtime: nil event source`)
		}
		a.source = src
		a.externalSource = true
		return nil
	}
}

// WithStreamBuffer sets the per-subscriber event queue capacity used when
// the app constructs its own event source. Must be at least 1.
func WithStreamBuffer(n int) Option {
	return func(a *App) error {
		if n < 1 {
			return fmt.Errorf(`runtime: stream buffer must be at least 1`)
		}
		a.streamBuffer = n
		return nil
	}
}

// WithFrameRate sets the target re-poll rate for the render loop. Default is
// 60 fps. Valid range is 1-240.
func WithFrameRate(fps int) Option {
	return func(a *App) error {
		if fps < 1 || fps > 240 {
			return fmt.Errorf(`runtime: frame rate must be in 1..240, got %d`, fps)
		}
		a.frame = time.Second / time.Duration(fps)
		return nil
	}
}

// WithOutput sets the writer committed frames are rendered to. Defaults to a
// colorable stdout.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		if w == nil {
			return fmt.Errorf(`runtime: nil output`)
		}
		a.out = w
		return nil
	}
}

// WithLogger sets the structured logger. A nil logger (the default) disables
// logging.
func WithLogger(log *logiface.Logger[logiface.Event]) Option {
	return func(a *App) error {
		a.log = log
		return nil
	}
}

// App is the cooperative scheduler. All component renders, hook polls and
// hook callbacks run on the goroutine that drives the loop; Mount and
// Unmount must be called from that same goroutine (or before the loop
// starts).
type App struct {
	source         *terminal.EventSource
	externalSource bool
	instances      []*Instance
	nextID         terminal.InstanceID
	wakeCh         chan struct{}
	frame          time.Duration
	streamBuffer   int
	out            io.Writer
	log            *logiface.Logger[logiface.Event]
	exiting        bool
}

// New constructs an App.
func New(options ...Option) (*App, error) {
	a := &App{
		wakeCh: make(chan struct{}, 1),
		frame:  time.Second / 60,
		out:    colorable.NewColorableStdout(),
	}
	for _, o := range options {
		if err := o(a); err != nil {
			return nil, err
		}
	}
	if a.source == nil {
		a.source = terminal.NewEventSource(a.streamBuffer)
	}
	a.source.SetWaker(a.wake)
	return a, nil
}

// Source returns the app's event source.
func (a *App) Source() *terminal.EventSource {
	return a.source
}

// Mount adds a component to the tree. The instance renders (and first
// commits) on the next tick; its hooks acquire their event streams on the
// post-update cycle that follows that commit.
func (a *App) Mount(c Component) *Instance {
	if c == nil {
		panic(`runtime: nil component`)
	}
	a.nextID++
	inst := &Instance{
		id:    a.nextID,
		comp:  c,
		app:   a,
		dirty: true,
	}
	inst.hooks = hook.New(a.wake)
	a.instances = append(a.instances, inst)
	a.log.Debug().Uint64(`instance`, uint64(inst.id)).Log(`component mounted`)
	a.wake()
	return inst
}

// Unmount removes an instance from the tree, tearing down its hooks and
// dropping its event subscription. Events produced afterwards are not
// delivered to it. Unmounting an instance that is not mounted is a no-op.
func (a *App) Unmount(inst *Instance) {
	for i, candidate := range a.instances {
		if candidate == inst {
			a.instances = append(a.instances[:i], a.instances[i+1:]...)
			inst.hooks.Unmount()
			a.log.Debug().Uint64(`instance`, uint64(inst.id)).Log(`component unmounted`)
			return
		}
	}
}

// requestExit flags the loop to stop after the current commit.
func (a *App) requestExit() {
	a.exiting = true
	a.wake()
}

// wake nudges the loop; redundant wakes coalesce.
func (a *App) wake() {
	select {
	case a.wakeCh <- struct{}{}:
	default:
	}
}

// pollPhase polls every instance's hooks, repeating until a full pass
// reports no change. Reactive state mutated by hook callbacks mid-pass (e.g.
// while a subscription hook drains its event backlog) is therefore observed
// within this same tick, so a burst of input is reflected by a single
// render.
func (a *App) pollPhase() bool {
	dirty := false
	for {
		again := false
		// a pending wake means state was mutated after its cell was polled
		// (hook callbacks run mid-pass); re-poll so the change is seen now
		select {
		case <-a.wakeCh:
			again = true
		default:
		}
		for _, inst := range a.instances {
			if inst.hooks.PollChange() == hook.Changed {
				inst.dirty = true
				again = true
			}
			if inst.dirty {
				dirty = true
			}
		}
		if !again {
			return dirty
		}
	}
}

// renderPhase renders and commits every dirty instance, then runs the
// post-update lifecycle for each committed instance. Returns whether any
// instance committed.
func (a *App) renderPhase() bool {
	var committed []*Instance
	for _, inst := range a.instances {
		if inst.dirty {
			inst.render()
			committed = append(committed, inst)
		}
	}
	for _, inst := range committed {
		inst.hooks.PostComponentUpdate(inst)
	}
	return len(committed) > 0
}

// frameString joins the committed canvases of all instances, in mount order.
func (a *App) frameString() string {
	var s string
	for _, inst := range a.instances {
		if inst.canvas != nil {
			s += inst.canvas.String()
		}
	}
	return s
}
