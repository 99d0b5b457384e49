// Package config provides the CLI flag surface and device-list import/
// export used by cmd/atvremote-ctl.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the parsed command-line flags for the CLI.
type Config struct {
	Device   string
	Host     string
	Port     int
	StateDir string
	LogLevel string
	LogFile  string
}

// Parse parses args (typically os.Args[1:]) into a Config.
//
//	-device string     paired device id to act on
//	-host string        TV hostname or IP, for the pair command
//	-port int           TV control port (default 6466)
//	-state-dir string    directory holding the paired-device list and identity
//	-log-level string   debug, info, warn, or error (default "info")
//	-log-file string    also persist every protocol event as CBOR to this
//	                     file, for offline replay via the "replay" command
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("atvremote-ctl", flag.ContinueOnError)

	cfg := &Config{}
	fs.StringVar(&cfg.Device, "device", "", "paired device id to act on")
	fs.StringVar(&cfg.Host, "host", "", "TV hostname or IP address")
	fs.IntVar(&cfg.Port, "port", 6466, "TV control port")
	fs.StringVar(&cfg.StateDir, "state-dir", defaultStateDir(), "directory for persisted identity and device list")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFile, "log-file", "", "also record protocol events as CBOR to this file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SlogLevel translates LogLevel into a log/slog.Level, defaulting to
// Info for an unrecognized value.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// defaultStateDir returns $HOME/.atvremote, falling back to the current
// directory if the home directory can't be determined.
func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".atvremote"
	}
	return filepath.Join(home, ".atvremote")
}

// ValidateLogLevel reports an error for a LogLevel value that isn't one
// of debug/info/warn/error.
func (c *Config) ValidateLogLevel() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("config: unknown log level %q (use debug, info, warn, error)", c.LogLevel)
	}
}
