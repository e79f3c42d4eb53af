package microspec

import (
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/ansel1/merry"
	"gopkg.in/yaml.v3"
)

// Config holds the connection settings used by Open. It may be loaded
// from a YAML file:
//
//	port: /dev/ttyUSB0
//	baud_rate: 115200
//	timeout: 2s
//	log_level: info
type Config struct {
	Port     string        `yaml:"port"`
	BaudRate int           `yaml:"baud_rate"`
	Timeout  time.Duration `yaml:"timeout"`
	LogLevel string        `yaml:"log_level"`
}

// DefaultConfig returns the settings of a dev-kit on its usual port.
func DefaultConfig() *Config {
	return &Config{
		Port:     defaultPort(),
		BaudRate: 115200,
		Timeout:  2 * time.Second,
		LogLevel: "info",
	}
}

func defaultPort() string {
	switch runtime.GOOS {
	case "windows":
		return "COM3"
	case "darwin":
		return "/dev/tty.usbserial"
	}
	return "/dev/ttyUSB0"
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Port == "" {
		return merry.Wrap(ErrInvalidConfig).Appendf("port is empty")
	}
	if c.BaudRate <= 0 {
		return merry.Wrap(ErrInvalidConfig).Appendf("baud_rate %d", c.BaudRate)
	}
	if c.Timeout < 0 {
		return merry.Wrap(ErrInvalidConfig).Appendf("timeout %v", c.Timeout)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// LoadConfig reads a YAML config file. Fields missing from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, merry.Wrap(err).Appendf("read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, merry.Wrap(ErrInvalidConfig).Appendf("%s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, merry.Wrap(ErrInvalidConfig).Appendf("log_level %q", s)
}

// logger returns a text logger on stderr at the configured level.
func (c *Config) logger() *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
