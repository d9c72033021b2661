// Package runtime drives the cooperative render loop: it owns the terminal
// event source, mounts component instances, polls their hooks each tick,
// renders and commits dirty instances, and runs the post-commit lifecycle
// that wires hooks to the event stream.
package runtime

import (
	"github.com/frnsys/iocraft/canvas"
	"github.com/frnsys/iocraft/hook"
	"github.com/frnsys/iocraft/terminal"
)

// Component renders to a canvas using per-instance hook state. Render is
// called by the scheduler whenever the instance is dirty; it must register
// the same hooks in the same order on every call.
type Component interface {
	Render(ctx *Context) *canvas.Canvas
}

// ComponentFunc adapts a function to the Component interface.
type ComponentFunc func(ctx *Context) *canvas.Canvas

func (f ComponentFunc) Render(ctx *Context) *canvas.Canvas { return f(ctx) }

// Context is passed to a component's Render. It is only valid for the
// duration of that call.
type Context struct {
	inst *Instance
}

// Hooks returns the instance's hook arena, for use with hook.Use,
// hook.UseState, hook.UseTerminalEvents and friends.
func (c *Context) Hooks() *hook.Hooks {
	return c.inst.hooks
}

// Exit requests shutdown of the whole app. The render completes normally;
// the scheduler stops after committing it.
func (c *Context) Exit() {
	c.inst.app.requestExit()
}

// Instance is one mounted component: a stable identity, its hook arena, and
// its most recently committed canvas.
type Instance struct {
	id     terminal.InstanceID
	comp   Component
	hooks  *hook.Hooks
	app    *App
	canvas *canvas.Canvas
	dirty  bool
}

// ID returns the instance's identity, which is stable for its lifetime and
// never reused within an App.
func (i *Instance) ID() terminal.InstanceID {
	return i.id
}

// Canvas returns the most recently committed canvas, or nil before the first
// commit.
func (i *Instance) Canvas() *canvas.Canvas {
	return i.canvas
}

// TerminalEvents implements hook.Updater. The underlying source yields a
// stream at most once per instance; later calls return nil.
func (i *Instance) TerminalEvents() *terminal.EventStream {
	stream := i.app.source.Acquire(i.id)
	if stream != nil {
		i.app.log.Debug().Uint64(`instance`, uint64(i.id)).Log(`terminal event stream acquired`)
	}
	return stream
}

// render runs one render pass and commits the result.
func (i *Instance) render() {
	i.dirty = false
	i.hooks.BeginRender()
	c := i.comp.Render(&Context{inst: i})
	i.hooks.EndRender()
	if c == nil {
		c = canvas.New(0)
	}
	i.canvas = c
}
