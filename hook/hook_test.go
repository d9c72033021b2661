package hook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopHook struct{}

func (nopHook) PollChange() Poll            { return Pending }
func (nopHook) PostComponentUpdate(Updater) {}

func TestUseReturnsSameSlotAcrossRenders(t *testing.T) {
	h := New(nil)
	var built int
	factory := func() *stateCell[int] {
		built++
		return &stateCell[int]{owner: h, value: 42}
	}

	h.BeginRender()
	first := Use(h, factory)
	h.EndRender()

	for i := 0; i < 3; i++ {
		h.BeginRender()
		got := Use(h, factory)
		h.EndRender()
		assert.Same(t, first, got)
	}
	assert.Equal(t, 1, built, "factory must run on the first render only")
}

func TestUseOutsideRenderPanics(t *testing.T) {
	h := New(nil)
	require.Panics(t, func() {
		Use(h, func() nopHook { return nopHook{} })
	})
}

func TestUseSlotTypeMismatchPanics(t *testing.T) {
	h := New(nil)
	h.BeginRender()
	Use(h, func() nopHook { return nopHook{} })
	h.EndRender()

	h.BeginRender()
	require.Panics(t, func() {
		Use(h, func() *stateCell[int] { return &stateCell[int]{owner: h} })
	})
}

func TestEndRenderDetectsSkippedHooks(t *testing.T) {
	h := New(nil)
	h.BeginRender()
	Use(h, func() nopHook { return nopHook{} })
	Use(h, func() nopHook { return nopHook{} })
	h.EndRender()

	h.BeginRender()
	Use(h, func() nopHook { return nopHook{} })
	require.Panics(t, h.EndRender)
}

func TestUseStateChangeNotification(t *testing.T) {
	var marks int
	h := New(func() { marks++ })

	h.BeginRender()
	s := UseState(h, func() int { return 1 })
	h.EndRender()

	assert.Equal(t, 1, s.Get())
	assert.Equal(t, Pending, h.PollChange(), "unchanged state polls pending")

	s.Set(2)
	assert.Equal(t, 2, s.Get())
	assert.Equal(t, 1, marks, "Set marks the owner dirty")
	assert.Equal(t, Changed, h.PollChange())
	assert.Equal(t, Pending, h.PollChange(), "change flag is consumed by the poll")
}

func TestUseStateSharedAcrossRenders(t *testing.T) {
	h := New(nil)
	render := func() State[string] {
		h.BeginRender()
		defer h.EndRender()
		return UseState(h, func() string { return `initial` })
	}
	s := render()
	s.Set(`updated`)
	assert.Equal(t, `updated`, render().Get())
}

func TestUnmountIdempotent(t *testing.T) {
	h := New(nil)
	h.BeginRender()
	UseState(h, func() int { return 0 })
	h.EndRender()
	h.Unmount()
	h.Unmount()
	require.Panics(t, h.BeginRender, "render after unmount is a programmer error")
}
