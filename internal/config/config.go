package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bryanchriswhite/focusbridge/internal/logger"
	"github.com/godbus/dbus/v5"
	"gopkg.in/yaml.v3"
)

// Bus names accepted by SchedulerConfig.Bus
const (
	BusSystem  = "system"
	BusSession = "session"
)

// NiriSocketEnv is where niri publishes its IPC socket path
const NiriSocketEnv = "NIRI_SOCKET"

// Config represents the application configuration
type Config struct {
	LogLevel  string          `json:"log_level" yaml:"log_level"`
	LogPretty bool            `json:"log_pretty" yaml:"log_pretty"`
	Niri      NiriConfig      `json:"niri" yaml:"niri"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Status    StatusConfig    `json:"status" yaml:"status"`
}

// NiriConfig locates the compositor IPC socket
type NiriConfig struct {
	// Socket overrides $NIRI_SOCKET when set
	Socket string `json:"socket,omitempty" yaml:"socket,omitempty"`
}

// SchedulerConfig addresses the scheduler hint service
type SchedulerConfig struct {
	Bus       string `json:"bus" yaml:"bus"`
	Service   string `json:"service" yaml:"service"`
	Path      string `json:"path" yaml:"path"`
	Interface string `json:"interface" yaml:"interface"`
}

// StatusConfig controls the optional read-only status API
type StatusConfig struct {
	// Addr is a listen address like "127.0.0.1:7676"; empty disables the API
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// Manager handles configuration
type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// DefaultPath returns ~/.config/focusbridge/config.yaml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "focusbridge", "config.yaml"), nil
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		LogLevel: "info",
		Scheduler: SchedulerConfig{
			Bus:       BusSystem,
			Service:   "com.system76.Scheduler",
			Path:      "/com/system76/Scheduler",
			Interface: "com.system76.Scheduler",
		},
	}
}

// NewManager loads configFile, or the default path when configFile is empty.
// A missing file is not an error: the defaults are used and nothing is written.
func NewManager(configFile string) (*Manager, error) {
	path := configFile
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	m := &Manager{configPath: path}

	if err := m.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logger.WithComponent("config").Debug().
			Str("path", m.configPath).
			Msg("Config file not found, using defaults")
		m.config = Defaults()
	}

	if err := m.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", m.configPath, err)
	}

	return m, nil
}

// load reads the configuration from disk on top of the defaults
func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Msg("Config loaded")
	return nil
}

// Validate checks the scheduler address and bus selection
func (c *Config) Validate() error {
	switch c.Scheduler.Bus {
	case BusSystem, BusSession:
	default:
		return fmt.Errorf("scheduler.bus must be %q or %q, got %q", BusSystem, BusSession, c.Scheduler.Bus)
	}
	if c.Scheduler.Service == "" {
		return fmt.Errorf("scheduler.service is empty")
	}
	if c.Scheduler.Interface == "" {
		return fmt.Errorf("scheduler.interface is empty")
	}
	if !dbus.ObjectPath(c.Scheduler.Path).IsValid() {
		return fmt.Errorf("scheduler.path %q is not a valid object path", c.Scheduler.Path)
	}
	return nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg := *m.config
	return &cfg
}

// GetConfigPath returns the path the configuration was loaded from
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// SetLogLevel overrides the log level for this process
func (m *Manager) SetLogLevel(level string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.LogLevel = strings.ToLower(level)
}

// SetLogPretty overrides console log formatting for this process
func (m *Manager) SetLogPretty(pretty bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.LogPretty = pretty
}

// SetNiriSocket overrides the compositor socket path for this process
func (m *Manager) SetNiriSocket(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.Niri.Socket = path
}

// SetStatusAddr overrides the status API listen address for this process
func (m *Manager) SetStatusAddr(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.Status.Addr = addr
}

// SocketPath resolves the niri socket: explicit config first, then $NIRI_SOCKET.
// An empty result means no socket could be discovered.
func (c *Config) SocketPath() string {
	if c.Niri.Socket != "" {
		return c.Niri.Socket
	}
	return os.Getenv(NiriSocketEnv)
}
