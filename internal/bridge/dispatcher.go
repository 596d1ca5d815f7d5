// Package bridge forwards niri focus changes to the System76 scheduler.
//
// The Dispatcher is the only long-lived control path of the program. It pulls
// events one at a time, keeps the latest window snapshot, and hands the pid of
// each newly focused window to the scheduler. Per-event failures are logged
// and never stop the loop; only the end of the event stream does.
package bridge

import (
	"errors"
	"fmt"
	"io"

	"github.com/bryanchriswhite/focusbridge/internal/logger"
	"github.com/bryanchriswhite/focusbridge/internal/niri"
	"github.com/bryanchriswhite/focusbridge/internal/scheduler"
	"github.com/bryanchriswhite/focusbridge/internal/window"
	"github.com/rs/zerolog"
)

// EventSource is the compositor side of the bridge
type EventSource interface {
	// Subscribe requests the event stream. niri.ErrNotHandled and
	// *niri.ReplyError are tolerated; any other error is fatal.
	Subscribe() error

	// Next blocks for the next event. Any error ends the stream.
	Next() (niri.Event, error)
}

// Observer is told about every outcome of the loop
type Observer interface {
	SnapshotReplaced(windows int)
	ForegroundSet(w window.Record, pid uint32)
	ForegroundFailed(w window.Record, pid uint32, err error)
}

type nopObserver struct{}

func (nopObserver) SnapshotReplaced(int)                          {}
func (nopObserver) ForegroundSet(window.Record, uint32)           {}
func (nopObserver) ForegroundFailed(window.Record, uint32, error) {}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithObserver reports loop outcomes to o
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

// WithLogger replaces the default "bridge" component logger
func WithLogger(l *zerolog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// Dispatcher owns the window cache and drives the event loop
type Dispatcher struct {
	source   EventSource
	notifier scheduler.Notifier
	observer Observer
	log      *zerolog.Logger
	cache    *window.Cache
}

// New creates a dispatcher with an empty window cache
func New(source EventSource, notifier scheduler.Notifier, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		source:   source,
		notifier: notifier,
		observer: nopObserver{},
		log:      logger.WithComponent("bridge"),
		cache:    window.NewCache(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run requests the event stream and processes events until it ends.
//
// It returns nil when the stream ends, whether niri closed the connection or
// a read failed. A non-nil error means the stream request could not be sent
// at all.
func (d *Dispatcher) Run() error {
	if err := d.source.Subscribe(); err != nil {
		var replyErr *niri.ReplyError
		if !errors.Is(err, niri.ErrNotHandled) && !errors.As(err, &replyErr) {
			return fmt.Errorf("failed to request event stream: %w", err)
		}
		d.log.Error().Err(err).Msg("niri didn't handle the event stream request")
	}

	d.log.Info().Msg("Listening for window focus changes")

	for {
		ev, err := d.source.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.log.Info().Msg("Event stream closed")
			} else {
				d.log.Warn().Err(err).Msg("Event stream ended")
			}
			return nil
		}
		d.dispatch(ev)
	}
}

// dispatch processes one event to completion
func (d *Dispatcher) dispatch(ev niri.Event) {
	switch e := ev.(type) {
	case *niri.WindowsChanged:
		d.cache.Replace(e.Windows)
		d.observer.SnapshotReplaced(d.cache.Len())
		d.log.Debug().Int("windows", d.cache.Len()).Msg("Window snapshot replaced")

	case *niri.WindowFocusChanged:
		if e.ID == nil {
			// The scheduler keeps the last foreground process until another
			// window takes focus.
			d.log.Debug().Msg("Focus cleared")
			return
		}
		d.focusChanged(*e.ID)

	default:
		if ev != nil {
			d.log.Debug().Str("event", ev.Kind()).Msg("Ignoring event")
		}
	}
}

func (d *Dispatcher) focusChanged(id uint64) {
	w, ok := d.cache.Lookup(id)
	if !ok {
		d.log.Debug().Uint64("window_id", id).Msg("Focused window is not in the current snapshot")
		return
	}

	pid, ok := w.ForegroundPID()
	if !ok {
		d.log.Debug().Uint64("window_id", id).Msg("Focused window has no pid")
		return
	}

	if err := d.notifier.SetForegroundProcess(pid); err != nil {
		d.log.Error().Err(err).
			Uint64("window_id", id).
			Uint32("pid", pid).
			Msg("Failed to set foreground process PID")
		d.observer.ForegroundFailed(w, pid, err)
		return
	}

	d.log.Info().
		Uint64("window_id", id).
		Str("title", w.TitleOrEmpty()).
		Str("app_id", w.AppIDOrEmpty()).
		Uint32("pid", pid).
		Msg("Set foreground process")
	d.observer.ForegroundSet(w, pid)
}
