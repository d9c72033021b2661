package terminal

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/joeycumines/logiface"
	"github.com/mattn/go-tty"
)

// TTYDriver reads the controlling terminal in raw mode and emits structured
// events to an EventSource: parsed key input, plus resize events sourced from
// the terminal's window-change notifications (with an initial resize emitted
// on startup so subscribers learn the starting dimensions).
type TTYDriver struct {
	src     *EventSource
	log     *logiface.Logger[logiface.Event]
	tty     *tty.TTY
	mu      sync.Mutex
	closed  bool
	cleanup func() error
}

// OpenTTYDriver opens the controlling terminal in raw mode. The logger may be
// nil. Close must be called to restore the terminal.
func OpenTTYDriver(src *EventSource, log *logiface.Logger[logiface.Event]) (*TTYDriver, error) {
	if src == nil {
		panic(`terminal: nil event source`)
	}
	t, err := tty.Open()
	if err != nil {
		return nil, err
	}
	cleanup, err := t.Raw()
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	return &TTYDriver{src: src, log: log, tty: t, cleanup: cleanup}, nil
}

// Run pumps terminal input until the driver is closed or ctx is cancelled.
// When the loop exits the source is closed, exhausting all subscriber
// streams.
func (d *TTYDriver) Run(ctx context.Context) error {
	defer d.src.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = d.Close()
		case <-stop:
		}
	}()

	d.emitSize()
	go d.watchResize(stop)

	var (
		parser  Parser
		scratch [utf8.UTFMax]byte
	)
	for {
		r, err := d.tty.ReadRune()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.mu.Lock()
			closed := d.closed
			d.mu.Unlock()
			if closed {
				return nil
			}
			d.log.Debug().Err(err).Log(`tty read failed`)
			return err
		}
		if r == utf8.RuneError {
			continue
		}
		n := utf8.EncodeRune(scratch[:], r)
		for _, ev := range parser.Feed(scratch[:n]) {
			d.log.Trace().Stringer(`event`, ev).Log(`tty event`)
			d.src.Emit(ev)
		}
		if !d.tty.Buffered() {
			for _, ev := range parser.Idle() {
				d.src.Emit(ev)
			}
		}
	}
}

// emitSize emits the current terminal dimensions as a ResizeEvent. Falls back
// to a direct ioctl on the output fd when the tty cannot report its size.
func (d *TTYDriver) emitSize() {
	w, h, err := d.tty.Size()
	if err != nil {
		var ok bool
		w, h, ok = winsize(d.tty.Output())
		if !ok {
			d.log.Debug().Err(err).Log(`terminal size unavailable`)
			return
		}
	}
	d.src.Emit(ResizeEvent{Width: w, Height: h})
}

func (d *TTYDriver) watchResize(stop <-chan struct{}) {
	ch := d.tty.SIGWINCH()
	for {
		select {
		case <-stop:
			return
		case ws, ok := <-ch:
			if !ok {
				return
			}
			d.src.Emit(ResizeEvent{Width: ws.W, Height: ws.H})
		}
	}
}

// Close restores the terminal and stops the read loop. Idempotent.
func (d *TTYDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	err := d.cleanup()
	if cerr := d.tty.Close(); err == nil {
		err = cerr
	}
	return err
}
