package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/frnsys/iocraft/terminal"
)

// MockConfig scripts a headless render loop for tests.
type MockConfig struct {
	// Events are emitted to the source after the first commit, so that
	// instances mounted before RunMock observe all of them.
	Events []terminal.Event

	// CloseSource closes the event source after the scripted events have
	// been emitted, so subscribers observe exhaustion once drained.
	CloseSource bool
}

// RunMock drives the loop without a terminal: an initial render pass, then
// the scripted events, then ticks until a component requests exit or the
// tree goes quiescent (no hook reports change and nothing is dirty). It
// returns the frame rendered by each commit pass, in order.
//
// The first frame reflects the pre-event state of the tree; this mirrors the
// real loop, where event streams are only acquired after the first commit
// and events raced before that are lost by design.
func (a *App) RunMock(ctx context.Context, cfg MockConfig) ([]string, error) {
	defer a.logShutdown()
	var frames []string
	if a.renderPhase() {
		frames = append(frames, a.frameString())
	}
	if a.exiting {
		return frames, nil
	}

	for _, ev := range cfg.Events {
		a.source.Emit(ev)
	}
	if cfg.CloseSource {
		a.source.Close()
	}

	for {
		if err := ctx.Err(); err != nil {
			return frames, err
		}
		if !a.pollPhase() {
			return frames, nil
		}
		if a.renderPhase() {
			frames = append(frames, a.frameString())
		}
		if a.exiting {
			return frames, nil
		}
	}
}

// Run drives the loop against a live terminal until a component requests
// exit or ctx is cancelled. Unless an external source was supplied, a tty
// driver is opened for the duration and the terminal is restored on the way
// out, including when a hook callback or render panics.
func (a *App) Run(ctx context.Context) error {
	defer a.logShutdown()
	var driverErr chan error
	if !a.externalSource {
		driver, err := terminal.OpenTTYDriver(a.source, a.log)
		if err != nil {
			return fmt.Errorf(`runtime: opening terminal: %w`, err)
		}
		defer func() {
			_ = driver.Close()
		}()
		driverErr = make(chan error, 1)
		go func() {
			driverErr <- driver.Run(ctx)
		}()
	}

	ticker := time.NewTicker(a.frame)
	defer ticker.Stop()

	if a.renderPhase() {
		a.writeFrame()
	}

	for {
		if a.exiting {
			a.log.Debug().Log(`exit requested`)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-driverErr:
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf(`runtime: terminal driver: %w`, err)
			}
			// driver finished; streams are exhausted, keep ticking so
			// reactive state can still drive renders
			driverErr = nil
		case <-a.wakeCh:
		case <-ticker.C:
		}
		if a.pollPhase() && a.renderPhase() {
			a.writeFrame()
		}
	}
}

// logShutdown records end-of-loop accounting, notably how many events were
// dropped on full subscriber queues.
func (a *App) logShutdown() {
	a.log.Debug().Uint64(`dropped`, a.source.Dropped()).Log(`render loop stopped`)
}

// writeFrame repaints the terminal with the current committed frame.
func (a *App) writeFrame() {
	_, err := fmt.Fprint(a.out, "\x1b[2J\x1b[H"+a.frameString())
	if err != nil {
		a.log.Warning().Err(err).Log(`frame write failed`)
	}
}
