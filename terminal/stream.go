package terminal

import "sync"

// Status is the result of a non-blocking EventStream.TryNext.
type Status uint8

const (
	// Ready indicates an event was available and has been returned.
	Ready Status = iota
	// NotReady indicates no event is available right now. The caller should
	// try again on a later tick; more events may yet arrive.
	NotReady
	// Exhausted indicates the producer has shut down and no further events
	// will ever arrive on this stream.
	Exhausted
)

func (s Status) String() string {
	switch s {
	case Ready:
		return `ready`
	case NotReady:
		return `not ready`
	case Exhausted:
		return `exhausted`
	default:
		return `invalid`
	}
}

// InstanceID identifies a component instance for the purpose of stream
// acquisition. The zero value is never a valid instance.
type InstanceID uint64

// DefaultStreamBuffer is the per-subscriber queue capacity used when an
// EventSource is constructed without an explicit buffer size.
const DefaultStreamBuffer = 256

// EventSource fans terminal events out to per-subscriber streams. It is the
// shared broadcast facility: one source per running terminal, any number of
// subscribing component instances, each holding an exclusively-owned
// EventStream.
//
// Acquisition is at-most-once per InstanceID: the first Acquire for an id
// returns a live stream, every later Acquire for the same id returns nil.
// Events emitted before a stream is acquired are not buffered for it.
//
// Emit, Acquire and Close are safe for concurrent use; the streams themselves
// are single-reader.
type EventSource struct {
	mu       sync.Mutex
	subs     map[InstanceID]*EventStream
	acquired map[InstanceID]struct{}
	waker    func()
	buffer   int
	closed   bool
	dropped  uint64
}

// NewEventSource constructs an EventSource. A buffer size <= 0 selects
// DefaultStreamBuffer.
func NewEventSource(buffer int) *EventSource {
	if buffer <= 0 {
		buffer = DefaultStreamBuffer
	}
	return &EventSource{
		subs:     make(map[InstanceID]*EventStream),
		acquired: make(map[InstanceID]struct{}),
		buffer:   buffer,
	}
}

// SetWaker installs fn to be called after every Emit, so the scheduler knows
// to re-poll its hooks. A nil fn clears the waker. The waker itself must be
// cheap and non-blocking; it may be invoked from a driver goroutine.
func (s *EventSource) SetWaker(fn func()) {
	s.mu.Lock()
	s.waker = fn
	s.mu.Unlock()
}

// Acquire returns the event stream for the given instance, or nil if the
// instance has already acquired one, or if the source is closed. The returned
// stream is owned by the caller until Close is called on it or on the source.
func (s *EventSource) Acquire(id InstanceID) *EventStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if _, ok := s.acquired[id]; ok {
		return nil
	}
	s.acquired[id] = struct{}{}
	stream := &EventStream{
		src: s,
		id:  id,
		ch:  make(chan Event, s.buffer),
	}
	s.subs[id] = stream
	return stream
}

// Emit delivers ev to every currently subscribed stream, in subscription
// order per stream (each stream's queue is FIFO). If a subscriber's queue is
// full the event is dropped for that subscriber and counted; Emit never
// blocks. Emitting on a closed source is a no-op.
func (s *EventSource) Emit(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	for _, stream := range s.subs {
		select {
		case stream.ch <- ev:
		default:
			s.dropped++
		}
	}
	waker := s.waker
	s.mu.Unlock()
	if waker != nil {
		waker()
	}
}

// EmitTo delivers ev to the stream acquired by the given instance only.
// Like Emit it never blocks, dropping and counting on a full queue. It is a
// no-op if the instance has no live subscription or the source is closed.
func (s *EventSource) EmitTo(id InstanceID, ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if stream, ok := s.subs[id]; ok {
		select {
		case stream.ch <- ev:
		default:
			s.dropped++
		}
	}
	waker := s.waker
	s.mu.Unlock()
	if waker != nil {
		waker()
	}
}

// Dropped reports how many events have been discarded due to full subscriber
// queues since the source was created.
func (s *EventSource) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close permanently exhausts the source. Subscribers drain whatever is still
// queued, then observe Exhausted. Close is idempotent.
func (s *EventSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, stream := range s.subs {
		close(stream.ch)
		delete(s.subs, id)
	}
}

func (s *EventSource) unsubscribe(id InstanceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stream, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(stream.ch)
	}
	// N.B. the id stays in s.acquired - acquisition is once per instance
	// lifetime, and ids are never reused.
}

// EventStream is an exclusively-owned handle on the ordered sequence of
// events for one subscriber. It supports exactly one reader and no peeking
// or rewinding.
type EventStream struct {
	src    *EventSource
	id     InstanceID
	ch     chan Event
	closed bool
}

// TryNext attempts to produce the next event without blocking.
//
// It returns (ev, Ready) when an event was queued, (nil, NotReady) when the
// queue is momentarily empty, and (nil, Exhausted) once the producer has shut
// down and the queue is fully drained. After Exhausted, every future call
// returns Exhausted.
func (s *EventStream) TryNext() (Event, Status) {
	select {
	case ev, ok := <-s.ch:
		if !ok {
			return nil, Exhausted
		}
		return ev, Ready
	default:
		return nil, NotReady
	}
}

// Close deregisters the stream from its source, discarding anything still
// queued. Events emitted after Close are not delivered. Close is idempotent.
func (s *EventStream) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.src.unsubscribe(s.id)
}
