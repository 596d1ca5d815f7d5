package scheduler

import (
	"fmt"

	"github.com/bryanchriswhite/focusbridge/internal/config"
	"github.com/bryanchriswhite/focusbridge/internal/logger"
	"github.com/godbus/dbus/v5"
)

// System76 scheduler D-Bus constants
const (
	ServiceName         = "com.system76.Scheduler"
	ObjectPath          = "/com/system76/Scheduler"
	InterfaceName       = "com.system76.Scheduler"
	methodSetForeground = "SetForegroundProcess"
)

// Notifier tells the scheduler which process owns the user's attention
type Notifier interface {
	SetForegroundProcess(pid uint32) error
}

// caller is the part of dbus.BusObject the notifier needs
type caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// DBusNotifier calls SetForegroundProcess on the scheduler service
type DBusNotifier struct {
	conn   *dbus.Conn
	obj    caller
	method string
}

// Connect opens the configured message bus and builds the scheduler proxy.
// Errors here are fatal for the bridge.
func Connect(cfg config.SchedulerConfig) (*DBusNotifier, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	switch cfg.Bus {
	case config.BusSession:
		conn, err = dbus.ConnectSessionBus()
	default:
		conn, err = dbus.ConnectSystemBus()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s bus: %w", cfg.Bus, err)
	}

	path := dbus.ObjectPath(cfg.Path)
	if !path.IsValid() {
		conn.Close()
		return nil, fmt.Errorf("invalid scheduler object path %q", cfg.Path)
	}

	logger.WithComponent("scheduler").Info().
		Str("bus", cfg.Bus).
		Str("service", cfg.Service).
		Str("path", cfg.Path).
		Msg("Connected to scheduler D-Bus service")

	n := newNotifier(conn.Object(cfg.Service, path), cfg.Interface)
	n.conn = conn
	return n, nil
}

func newNotifier(obj caller, iface string) *DBusNotifier {
	if iface == "" {
		iface = InterfaceName
	}
	return &DBusNotifier{
		obj:    obj,
		method: iface + "." + methodSetForeground,
	}
}

// SetForegroundProcess marks pid as the foreground process
func (n *DBusNotifier) SetForegroundProcess(pid uint32) error {
	call := n.obj.Call(n.method, 0, pid)
	if call.Err != nil {
		return fmt.Errorf("%s(%d) failed: %w", n.method, pid, call.Err)
	}
	return nil
}

// Close closes the bus connection
func (n *DBusNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}
