package niri

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bryanchriswhite/focusbridge/internal/window"
)

// Request is a niri IPC request. Requests without arguments are encoded as a
// bare JSON string.
type Request string

const (
	RequestEventStream   Request = "EventStream"
	RequestWindows       Request = "Windows"
	RequestFocusedWindow Request = "FocusedWindow"
)

// responseHandled is the Ok payload for requests that carry no data
const responseHandled = `"Handled"`

var (
	// ErrSocketNotSet is returned when no socket path could be discovered
	ErrSocketNotSet = errors.New("niri socket path not set (is $NIRI_SOCKET exported?)")

	// ErrNotHandled is returned when niri answered a request with something
	// other than "Handled"
	ErrNotHandled = errors.New("request was not handled")
)

// ReplyError carries the message of an {"Err": ...} reply
type ReplyError struct {
	Message string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("niri replied with error: %s", e.Message)
}

// reply is the envelope of every response line
type reply struct {
	Ok  json.RawMessage `json:"Ok"`
	Err *string         `json:"Err"`
}

func decodeReply(line []byte) (json.RawMessage, error) {
	var r reply
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, fmt.Errorf("failed to decode reply: %w", err)
	}
	if r.Err != nil {
		return nil, &ReplyError{Message: *r.Err}
	}
	if r.Ok == nil {
		return nil, fmt.Errorf("reply has neither Ok nor Err: %s", line)
	}
	return r.Ok, nil
}

// Event is one item of the event stream
type Event interface {
	Kind() string
}

// WindowsChanged carries the full list of windows
type WindowsChanged struct {
	Windows window.Snapshot `json:"windows"`
}

// Kind implements Event
func (*WindowsChanged) Kind() string { return "WindowsChanged" }

// WindowFocusChanged reports the newly focused window. ID is nil when no
// window has focus.
type WindowFocusChanged struct {
	ID *uint64 `json:"id"`
}

// Kind implements Event
func (*WindowFocusChanged) Kind() string { return "WindowFocusChanged" }

// OtherEvent is any event kind the bridge does not consume
type OtherEvent struct {
	Name    string
	Payload json.RawMessage
}

// Kind implements Event
func (e *OtherEvent) Kind() string { return e.Name }

// decodeEvent parses one externally tagged event object, e.g.
// {"WindowFocusChanged":{"id":12}}
func decodeEvent(line []byte) (Event, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(line, &tagged); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("event must have exactly one tag, got %d", len(tagged))
	}

	var name string
	var payload json.RawMessage
	for name, payload = range tagged {
	}

	var ev Event
	switch name {
	case "WindowsChanged":
		ev = &WindowsChanged{}
	case "WindowFocusChanged":
		ev = &WindowFocusChanged{}
	default:
		return &OtherEvent{Name: name, Payload: payload}, nil
	}
	if err := json.Unmarshal(payload, ev); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return ev, nil
}
