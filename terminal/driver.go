package terminal

import (
	"context"
	"errors"
	"io"

	"github.com/joeycumines/logiface"
)

// ReaderDriver pumps raw bytes from an arbitrary reader through a Parser and
// into an EventSource. It is the driver used for pipes and tests; interactive
// terminals use TTYDriver.
type ReaderDriver struct {
	r   io.Reader
	src *EventSource
	log *logiface.Logger[logiface.Event]
}

// NewReaderDriver constructs a ReaderDriver emitting to src. The logger may
// be nil.
func NewReaderDriver(r io.Reader, src *EventSource, log *logiface.Logger[logiface.Event]) *ReaderDriver {
	if r == nil {
		panic(`terminal: nil reader`)
	}
	if src == nil {
		panic(`terminal: nil event source`)
	}
	return &ReaderDriver{r: r, src: src, log: log}
}

// Run reads until EOF or ctx cancellation, emitting parsed events as they
// complete. On EOF any pending ambiguous input is resolved (a buffered lone
// ESC becomes an escape key), then the source is closed, exhausting all
// subscriber streams. The reader itself is not closed.
//
// Run returns nil on EOF, or the read error otherwise. Cancelling ctx only
// stops the loop between reads; callers that need prompt cancellation should
// close the underlying reader.
func (d *ReaderDriver) Run(ctx context.Context) error {
	defer d.src.Close()
	var parser Parser
	buf := make([]byte, 1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := d.r.Read(buf)
		if n > 0 {
			for _, ev := range parser.Feed(buf[:n]) {
				d.log.Trace().Stringer(`event`, ev).Log(`reader driver event`)
				d.src.Emit(ev)
			}
		}
		if err != nil {
			for _, ev := range parser.Idle() {
				d.src.Emit(ev)
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			d.log.Debug().Err(err).Log(`reader driver stopped`)
			return err
		}
	}
}
