package niri

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"

	"github.com/bryanchriswhite/focusbridge/internal/window"
)

// Socket is a connection to the niri IPC socket.
//
// Requests and replies are one JSON document per line. After a successful
// EventStream request the connection carries events only, so Subscribe should
// be the last request sent on a Socket.
type Socket struct {
	conn   net.Conn
	reader *bufio.Reader
}

// Dial connects to the niri IPC socket at path
func Dial(path string) (*Socket, error) {
	if path == "" {
		return nil, ErrSocketNotSet
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to niri socket %s: %w", path, err)
	}

	return NewSocket(conn), nil
}

// NewSocket wraps an established connection
func NewSocket(conn net.Conn) *Socket {
	return &Socket{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

// Close closes the connection
func (s *Socket) Close() error {
	return s.conn.Close()
}

// Send writes one request and returns the Ok payload of its reply
func (s *Socket) Send(req Request) (json.RawMessage, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request %s: %w", req, err)
	}
	data = append(data, '\n')

	if _, err := s.conn.Write(data); err != nil {
		return nil, fmt.Errorf("failed to send request %s: %w", req, err)
	}

	line, err := s.readLine()
	if err != nil {
		return nil, fmt.Errorf("failed to read reply to %s: %w", req, err)
	}

	return decodeReply(line)
}

// Subscribe asks niri to start streaming events on this connection.
//
// Transport failures are returned as is. A reply other than "Handled" is
// reported as ErrNotHandled or *ReplyError; the stream may still work in that
// case, so callers may choose to keep reading.
func (s *Socket) Subscribe() error {
	ok, err := s.Send(RequestEventStream)
	if err != nil {
		return err
	}
	if string(ok) != responseHandled {
		return fmt.Errorf("%w: %s: %s", ErrNotHandled, RequestEventStream, ok)
	}
	return nil
}

// Next blocks until the next event arrives. It returns io.EOF once niri
// closes the connection; any other error also ends the stream.
func (s *Socket) Next() (Event, error) {
	line, err := s.readLine()
	if err != nil {
		return nil, err
	}
	return decodeEvent(line)
}

// Windows returns the compositor's current window list
func (s *Socket) Windows() (window.Snapshot, error) {
	ok, err := s.Send(RequestWindows)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Windows window.Snapshot `json:"Windows"`
	}
	if err := json.Unmarshal(ok, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", RequestWindows, err)
	}
	return resp.Windows, nil
}

// FocusedWindow returns the focused window, or nil when nothing has focus
func (s *Socket) FocusedWindow() (*window.Record, error) {
	ok, err := s.Send(RequestFocusedWindow)
	if err != nil {
		return nil, err
	}

	var resp struct {
		FocusedWindow *window.Record `json:"FocusedWindow"`
	}
	if err := json.Unmarshal(ok, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", RequestFocusedWindow, err)
	}
	return resp.FocusedWindow, nil
}

// readLine returns the next newline-terminated document without the newline.
// A final unterminated line is still returned; io.EOF only comes back once
// nothing is left.
func (s *Socket) readLine() ([]byte, error) {
	line, err := s.reader.ReadBytes('\n')
	if err == io.EOF && len(line) > 0 {
		return line, nil
	}
	if err != nil {
		return nil, err
	}
	return line[:len(line)-1], nil
}
