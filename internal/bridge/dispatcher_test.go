package bridge

import (
	"errors"
	"io"
	"testing"

	"github.com/bryanchriswhite/focusbridge/internal/niri"
	"github.com/bryanchriswhite/focusbridge/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource replays events, then ends the stream with end (io.EOF if nil)
type scriptedSource struct {
	subscribeErr error
	subscribed   int
	events       []niri.Event
	end          error
}

func (s *scriptedSource) Subscribe() error {
	s.subscribed++
	return s.subscribeErr
}

func (s *scriptedSource) Next() (niri.Event, error) {
	if len(s.events) == 0 {
		if s.end != nil {
			return nil, s.end
		}
		return nil, io.EOF
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

// recordingNotifier records every pid; failOn makes the n-th call (1-based) fail
type recordingNotifier struct {
	pids   []uint32
	failOn map[int]bool
}

func (n *recordingNotifier) SetForegroundProcess(pid uint32) error {
	n.pids = append(n.pids, pid)
	if n.failOn[len(n.pids)] {
		return errors.New("org.freedesktop.DBus.Error.ServiceUnknown")
	}
	return nil
}

type recordingObserver struct {
	snapshots []int
	set       []uint32
	failed    []uint32
}

func (o *recordingObserver) SnapshotReplaced(n int) { o.snapshots = append(o.snapshots, n) }

func (o *recordingObserver) ForegroundSet(_ window.Record, pid uint32) {
	o.set = append(o.set, pid)
}

func (o *recordingObserver) ForegroundFailed(_ window.Record, pid uint32, _ error) {
	o.failed = append(o.failed, pid)
}

func win(id uint64, pid *int32) window.Record {
	return window.Record{ID: id, PID: pid}
}

func pid(v int32) *int32 { return &v }

func snapshot(windows ...window.Record) niri.Event {
	return &niri.WindowsChanged{Windows: windows}
}

func focus(id uint64) niri.Event {
	return &niri.WindowFocusChanged{ID: &id}
}

func focusCleared() niri.Event {
	return &niri.WindowFocusChanged{}
}

func run(t *testing.T, events ...niri.Event) *recordingNotifier {
	t.Helper()
	notifier := &recordingNotifier{}
	require.NoError(t, New(&scriptedSource{events: events}, notifier).Run())
	return notifier
}

func TestFocusOnKnownWindowNotifiesOnce(t *testing.T) {
	notifier := run(t,
		snapshot(win(7, pid(1234))),
		focus(7),
	)
	assert.Equal(t, []uint32{1234}, notifier.pids)
}

func TestFocusOnUnknownWindowIsIgnored(t *testing.T) {
	notifier := run(t,
		snapshot(win(1, pid(100))),
		focus(2),
	)
	assert.Empty(t, notifier.pids)
}

func TestFocusBeforeAnySnapshotIsIgnored(t *testing.T) {
	notifier := run(t, focus(1))
	assert.Empty(t, notifier.pids)
}

func TestFocusOnWindowWithoutPidIsIgnored(t *testing.T) {
	notifier := run(t,
		snapshot(win(1, nil)),
		focus(1),
	)
	assert.Empty(t, notifier.pids)
}

func TestSnapshotReplacementIsTotal(t *testing.T) {
	notifier := run(t,
		snapshot(win(1, pid(100)), win(2, pid(200))),
		focus(1),
		focus(2),
		snapshot(win(3, pid(300))),
		focus(3),
	)
	assert.Equal(t, []uint32{100, 200, 300}, notifier.pids)
}

func TestStaleWindowAfterReplacementIsIgnored(t *testing.T) {
	notifier := run(t,
		snapshot(win(1, pid(100))),
		snapshot(win(2, pid(200))),
		focus(1),
	)
	assert.Empty(t, notifier.pids)
}

func TestNotifierFailureDoesNotStopLoop(t *testing.T) {
	notifier := &recordingNotifier{failOn: map[int]bool{1: true}}
	observer := &recordingObserver{}
	source := &scriptedSource{events: []niri.Event{
		snapshot(win(1, pid(100)), win(2, pid(200))),
		focus(1),
		focus(2),
	}}

	require.NoError(t, New(source, notifier, WithObserver(observer)).Run())

	assert.Equal(t, []uint32{100, 200}, notifier.pids, "second focus change must still be attempted")
	assert.Equal(t, []uint32{100}, observer.failed)
	assert.Equal(t, []uint32{200}, observer.set)
}

func TestNotifierFailureIsNotRetried(t *testing.T) {
	notifier := &recordingNotifier{failOn: map[int]bool{1: true}}
	source := &scriptedSource{events: []niri.Event{
		snapshot(win(1, pid(100))),
		focus(1),
	}}

	require.NoError(t, New(source, notifier).Run())
	assert.Equal(t, []uint32{100}, notifier.pids)
}

// Clearing focus deliberately leaves the last foreground process in place:
// the scheduler is not told that nothing has focus.
func TestFocusClearedTakesNoAction(t *testing.T) {
	notifier := run(t,
		snapshot(win(1, pid(100))),
		focus(1),
		focusCleared(),
	)
	assert.Equal(t, []uint32{100}, notifier.pids)
}

func TestOtherEventsAreIgnored(t *testing.T) {
	notifier := run(t,
		&niri.OtherEvent{Name: "WorkspacesChanged"},
		snapshot(win(1, pid(100))),
		&niri.OtherEvent{Name: "WindowClosed"},
		focus(1),
	)
	assert.Equal(t, []uint32{100}, notifier.pids)
}

func TestStreamEndIsCleanExit(t *testing.T) {
	for name, end := range map[string]error{
		"eof":        io.EOF,
		"read error": errors.New("connection reset by peer"),
	} {
		t.Run(name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			source := &scriptedSource{
				events: []niri.Event{snapshot(win(1, pid(100))), focus(1)},
				end:    end,
			}
			require.NoError(t, New(source, notifier).Run())
			assert.Equal(t, []uint32{100}, notifier.pids)
		})
	}
}

func TestEmptyStreamIsCleanExit(t *testing.T) {
	notifier := run(t)
	assert.Empty(t, notifier.pids)
}

func TestSubscribeNotHandledIsTolerated(t *testing.T) {
	for name, err := range map[string]error{
		"not handled": niri.ErrNotHandled,
		"reply error": &niri.ReplyError{Message: "busy"},
	} {
		t.Run(name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			source := &scriptedSource{
				subscribeErr: err,
				events:       []niri.Event{snapshot(win(1, pid(100))), focus(1)},
			}
			require.NoError(t, New(source, notifier).Run())
			assert.Equal(t, 1, source.subscribed)
			assert.Equal(t, []uint32{100}, notifier.pids)
		})
	}
}

func TestSubscribeTransportErrorIsFatal(t *testing.T) {
	notifier := &recordingNotifier{}
	cause := errors.New("broken pipe")
	source := &scriptedSource{
		subscribeErr: cause,
		events:       []niri.Event{snapshot(win(1, pid(100))), focus(1)},
	}

	err := New(source, notifier).Run()
	require.ErrorIs(t, err, cause)
	assert.Empty(t, notifier.pids)
	assert.Len(t, source.events, 2, "no event may be read after a failed stream request")
}

func TestObserverSeesSnapshotSizes(t *testing.T) {
	observer := &recordingObserver{}
	source := &scriptedSource{events: []niri.Event{
		snapshot(win(1, nil), win(2, nil)),
		snapshot(),
	}}

	require.NoError(t, New(source, &recordingNotifier{}, WithObserver(observer)).Run())
	assert.Equal(t, []int{2, 0}, observer.snapshots)
}

func TestDispatchSingleEvents(t *testing.T) {
	notifier := &recordingNotifier{}
	d := New(&scriptedSource{}, notifier, WithObserver(nil), WithLogger(nil))

	d.dispatch(nil)
	d.dispatch(snapshot(win(5, pid(500))))
	d.dispatch(focus(5))
	d.dispatch(focus(5))

	assert.Equal(t, []uint32{500, 500}, notifier.pids, "repeated focus is forwarded each time")
}
