// Command atvremote-ctl is an interactive client for the Android TV
// Remote Control v2 protocol: discover TVs on the network, pair with
// one using its on-screen PIN, and drive it as a virtual remote.
//
// Usage:
//
//	atvremote-ctl [flags]
//
// Flags:
//
//	-device string     paired device id to connect to on startup
//	-host string        TV hostname or IP, used by the pair command
//	-port int           TV control port (default 6466)
//	-state-dir string    directory for the identity and paired-device list
//	-log-level string   debug, info, warn, or error (default "info")
//	-log-file string    also record every protocol event as CBOR here
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/atvremote/atvremote-go/pkg/config"
	"github.com/atvremote/atvremote-go/pkg/controller"
	"github.com/atvremote/atvremote-go/pkg/identity"
	"github.com/atvremote/atvremote-go/pkg/log"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if err := cfg.ValidateLogLevel(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	if err := os.MkdirAll(cfg.StateDir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "atvremote-ctl: create state dir: %v\n", err)
		os.Exit(1)
	}

	store := identity.NewFileStore(cfg.StateDir, devicePassphrase())
	id, err := identity.GetOrCreateIdentity(store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "atvremote-ctl: load identity: %v\n", err)
		os.Exit(1)
	}

	devicesPath := filepath.Join(cfg.StateDir, "devices.json")
	ctl, err := controller.New(id, devicesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "atvremote-ctl: load controller: %v\n", err)
		os.Exit(1)
	}

	protocolLogger, closeLog, err := buildProtocolLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "atvremote-ctl: open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	ctl.SetLogger(protocolLogger)

	cli, err := newCLI(ctl, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "atvremote-ctl: %v\n", err)
		os.Exit(1)
	}
	defer cli.Close()

	if cfg.Device != "" {
		cli.cmdConnect([]string{cfg.Device})
	}
	cli.Run()
}

// buildProtocolLogger assembles the Logger the controller reports every
// pairing and remote-session event to: always the slog adapter for
// console visibility, plus a FileLogger persisting the same events as
// CBOR when -log-file is set, for offline replay via the "replay"
// command. The returned close func is a no-op when no file was opened.
func buildProtocolLogger(cfg *config.Config) (log.Logger, func(), error) {
	slogLogger := log.NewSlogAdapter(slog.Default())
	if cfg.LogFile == "" {
		return slogLogger, func() {}, nil
	}

	fileLogger, err := log.NewFileLogger(cfg.LogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("create file logger: %w", err)
	}
	return log.NewMultiLogger(slogLogger, fileLogger), func() {
		if err := fileLogger.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "atvremote-ctl: close log file: %v\n", err)
		}
	}, nil
}

// devicePassphrase derives a file-store encryption passphrase from this
// machine's hostname. It is not a secret in the security sense — only a
// deterrent against casual inspection of the state directory, per
// pkg/identity.FileStore's own design notes.
func devicePassphrase() []byte {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "atvremote-ctl"
	}
	return []byte(host)
}
