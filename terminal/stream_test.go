package terminal

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, s *EventStream) (events []Event, status Status) {
	t.Helper()
	for {
		ev, st := s.TryNext()
		if st != Ready {
			return events, st
		}
		events = append(events, ev)
	}
}

func TestEventSourceAcquireAtMostOnce(t *testing.T) {
	src := NewEventSource(0)
	stream := src.Acquire(1)
	require.NotNil(t, stream)
	for i := 0; i < 3; i++ {
		assert.Nil(t, src.Acquire(1), "acquire %d should be absent", i+2)
	}
	// a different instance still gets its own stream
	require.NotNil(t, src.Acquire(2))
}

func TestEventSourceAcquireAfterUnsubscribe(t *testing.T) {
	src := NewEventSource(0)
	stream := src.Acquire(1)
	require.NotNil(t, stream)
	stream.Close()
	// acquisition is once per instance lifetime, not once per subscription
	assert.Nil(t, src.Acquire(1))
}

func TestEventStreamFIFO(t *testing.T) {
	src := NewEventSource(0)
	stream := src.Acquire(1)
	want := []Event{
		KeyEvent{Code: KeyRune, Rune: 'a'},
		KeyEvent{Code: KeyRune, Rune: 'b'},
		ResizeEvent{Width: 80, Height: 24},
	}
	for _, ev := range want {
		src.Emit(ev)
	}
	got, status := drain(t, stream)
	assert.Equal(t, NotReady, status)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestEventStreamTryNextEmpty(t *testing.T) {
	src := NewEventSource(0)
	stream := src.Acquire(1)
	ev, status := stream.TryNext()
	assert.Nil(t, ev)
	assert.Equal(t, NotReady, status)
}

func TestEventStreamExhaustion(t *testing.T) {
	src := NewEventSource(0)
	stream := src.Acquire(1)
	src.Emit(KeyEvent{Code: KeyRune, Rune: 'x'})
	src.Close()

	// queued events drain first, then exhaustion is permanent
	ev, status := stream.TryNext()
	require.Equal(t, Ready, status)
	assert.Equal(t, KeyEvent{Code: KeyRune, Rune: 'x'}, ev)
	for i := 0; i < 3; i++ {
		_, status = stream.TryNext()
		assert.Equal(t, Exhausted, status)
	}

	// and anything emitted after close goes nowhere
	src.Emit(KeyEvent{Code: KeyRune, Rune: 'y'})
	_, status = stream.TryNext()
	assert.Equal(t, Exhausted, status)
}

func TestEventSourcePreAcquisitionSilence(t *testing.T) {
	src := NewEventSource(0)
	src.Emit(KeyEvent{Code: KeyRune, Rune: 'a'})
	stream := src.Acquire(1)
	require.NotNil(t, stream)
	_, status := stream.TryNext()
	assert.Equal(t, NotReady, status, "events before acquisition must be lost to the subscriber")
}

func TestEventStreamCloseStopsDelivery(t *testing.T) {
	src := NewEventSource(0)
	a := src.Acquire(1)
	b := src.Acquire(2)
	a.Close()
	src.Emit(KeyEvent{Code: KeyRune, Rune: 'z'})

	_, status := a.TryNext()
	assert.Equal(t, Exhausted, status)

	got, _ := drain(t, b)
	assert.Len(t, got, 1, "remaining subscriber still receives")
}

func TestEventSourceIndependentSubscribers(t *testing.T) {
	src := NewEventSource(0)
	a := src.Acquire(1)
	b := src.Acquire(2)
	src.Emit(KeyEvent{Code: KeyRune, Rune: 'q'})

	gotA, _ := drain(t, a)
	gotB, _ := drain(t, b)
	assert.Len(t, gotA, 1)
	assert.Len(t, gotB, 1, "broadcast reaches every subscriber independently")
}

func TestEventSourceEmitTo(t *testing.T) {
	src := NewEventSource(0)
	a := src.Acquire(1)
	b := src.Acquire(2)

	src.EmitTo(1, KeyEvent{Code: KeyRune, Rune: 'a'})
	src.EmitTo(3, KeyEvent{Code: KeyRune, Rune: 'x'}) // no such subscriber

	gotA, _ := drain(t, a)
	assert.Len(t, gotA, 1)
	_, status := b.TryNext()
	assert.Equal(t, NotReady, status, "targeted event must not reach other subscribers")
}

func TestEventSourceOverflowDropsAndCounts(t *testing.T) {
	src := NewEventSource(2)
	stream := src.Acquire(1)
	for i := 0; i < 5; i++ {
		src.Emit(KeyEvent{Code: KeyRune, Rune: rune('a' + i)})
	}
	got, status := drain(t, stream)
	assert.Equal(t, NotReady, status)
	require.Len(t, got, 2)
	// oldest events are kept; newest are dropped
	assert.Equal(t, KeyEvent{Code: KeyRune, Rune: 'a'}, got[0])
	assert.Equal(t, KeyEvent{Code: KeyRune, Rune: 'b'}, got[1])
	assert.Equal(t, uint64(3), src.Dropped())
}

func TestEventSourceWaker(t *testing.T) {
	src := NewEventSource(0)
	var wakes int
	src.SetWaker(func() { wakes++ })
	src.Emit(KeyEvent{Code: KeyRune, Rune: 'a'})
	src.Emit(KeyEvent{Code: KeyRune, Rune: 'b'})
	assert.Equal(t, 2, wakes)

	src.SetWaker(nil)
	src.Emit(KeyEvent{Code: KeyRune, Rune: 'c'})
	assert.Equal(t, 2, wakes)
}

func TestEventSourceCloseIdempotent(t *testing.T) {
	src := NewEventSource(0)
	stream := src.Acquire(1)
	src.Close()
	src.Close()
	_, status := stream.TryNext()
	assert.Equal(t, Exhausted, status)
	assert.Nil(t, src.Acquire(9), "acquire on a closed source is absent")
}
