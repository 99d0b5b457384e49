package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/atvremote/atvremote-go/pkg/config"
	"github.com/atvremote/atvremote-go/pkg/controller"
	"github.com/atvremote/atvremote-go/pkg/devicemodel"
	"github.com/atvremote/atvremote-go/pkg/discovery"
	"github.com/atvremote/atvremote-go/pkg/event"
	"github.com/atvremote/atvremote-go/pkg/log"
	"github.com/atvremote/atvremote-go/pkg/remote"
)

// discoverTimeout bounds the "discover" command's mDNS browse.
const discoverTimeout = 5 * time.Second

// cli drives the controller from a readline prompt.
type cli struct {
	ctl *controller.Controller
	cfg *config.Config
	rl  *readline.Instance
}

func newCLI(ctl *controller.Controller, cfg *config.Config) (*cli, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "atvremote> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("create readline: %w", err)
	}

	c := &cli{ctl: ctl, cfg: cfg, rl: rl}
	ctl.OnEvent(c.handleEvent)
	return c, nil
}

func (c *cli) Close() error {
	return c.rl.Close()
}

// Run starts the interactive command loop; it returns when the user
// quits or the input stream ends.
func (c *cli) Run() {
	c.printHelp()

	for {
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()
		case "discover":
			c.cmdDiscover()
		case "pair":
			c.cmdPair(args)
		case "code":
			c.cmdCode(args)
		case "cancel":
			c.ctl.CancelPairing()
		case "connect":
			c.cmdConnect(args)
		case "disconnect":
			c.ctl.Disconnect()
		case "key":
			c.cmdKey(args)
		case "devices", "ls":
			c.cmdDevices()
		case "forget":
			c.cmdForget(args)
		case "replay":
			c.cmdReplay(args)
		case "export-devices":
			c.cmdExportDevices(args)
		case "import-devices":
			c.cmdImportDevices(args)
		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Goodbye!")
			return
		default:
			fmt.Fprintf(c.rl.Stdout(), "unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *cli) printHelp() {
	fmt.Fprint(c.rl.Stdout(), `
atvremote-ctl commands:
  discover               browse for TVs advertising the remote service
  pair <host[:port]>     start pairing with a TV
  code <pin>             submit the on-screen pairing PIN
  cancel                 cancel an in-progress pairing
  connect <device-id>    open the remote session to a paired device
  disconnect             close the active remote session
  key <name>             send a key press (up/down/left/right/center/back/home/power/volup/voldown/mute/chanup/chandown)
  devices                list paired devices
  forget <device-id>     remove a paired device
  replay <path> [device-id]
                         print events recorded with -log-file, optionally
                         filtered to one device
  export-devices <path> write the paired-device list as YAML
  import-devices <path> add every device from a YAML device list
  quit                   exit
`)
}

func (c *cli) cmdDiscover() {
	browser := discovery.NewMDNSBrowser(discovery.BrowserConfig{})
	ctx, cancel := context.WithTimeout(context.Background(), discoverTimeout)
	defer cancel()

	devices, err := browser.Browse(ctx)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "discover: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "searching...")
	for d := range devices {
		fmt.Fprintf(c.rl.Stdout(), "  %s  %s:%d\n", d.ID, d.Host, d.Port)
	}
}

func (c *cli) cmdPair(args []string) {
	if len(args) == 0 && c.cfg.Host != "" {
		args = []string{net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))}
	}
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "usage: pair <host[:port]>")
		return
	}
	host, port := splitHostPort(args[0])
	id := net.JoinHostPort(host, strconv.Itoa(port))

	device := devicemodel.Device{ID: id, Name: host, Host: host, Port: port}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.ctl.StartPairing(ctx, device); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "pair: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "enter the PIN shown on the TV with: code <pin>")
}

func (c *cli) cmdCode(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "usage: code <pin>")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.ctl.SubmitCode(ctx, args[0]); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "code: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "paired")
}

func (c *cli) cmdConnect(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "usage: connect <device-id>")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := c.ctl.Connect(ctx, args[0]); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "connect: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "connected to %s\n", args[0])
}

func (c *cli) cmdKey(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "usage: key <name>")
		return
	}
	code, ok := remote.ByName[strings.ToLower(args[0])]
	if !ok {
		fmt.Fprintf(c.rl.Stdout(), "key: unknown key %q\n", args[0])
		return
	}
	if err := c.ctl.SendCommand(code); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "key: %v\n", err)
	}
}

func (c *cli) cmdDevices() {
	devices := c.ctl.Devices()
	if len(devices) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "no paired devices")
		return
	}
	active := c.ctl.ActiveDeviceID()
	for _, d := range devices {
		marker := " "
		if d.ID == active {
			marker = "*"
		}
		fmt.Fprintf(c.rl.Stdout(), "%s %s  %s:%d\n", marker, d.ID, d.Host, d.Port)
	}
}

// cmdExportDevices writes the paired-device list to a YAML file, for
// interoperability with external tooling that doesn't parse the
// controller's native JSON store.
func (c *cli) cmdExportDevices(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "usage: export-devices <path>")
		return
	}
	if err := config.ExportDevicesYAML(args[0], c.ctl.Devices()); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "export-devices: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "wrote %s\n", args[0])
}

// cmdImportDevices adds every device from a YAML device list to the
// controller's paired-device list.
func (c *cli) cmdImportDevices(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "usage: import-devices <path>")
		return
	}
	devices, err := config.ImportDevicesYAML(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "import-devices: %v\n", err)
		return
	}
	for _, d := range devices {
		if err := c.ctl.AddPaired(d); err != nil {
			fmt.Fprintf(c.rl.Stdout(), "import-devices: %s: %v\n", d.ID, err)
			continue
		}
		fmt.Fprintf(c.rl.Stdout(), "added %s\n", d.ID)
	}
}

func (c *cli) cmdForget(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "usage: forget <device-id>")
		return
	}
	if err := c.ctl.RemovePaired(args[0]); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "forget: %v\n", err)
	}
}

// cmdReplay prints the CBOR event log written by a prior run's
// -log-file, for offline protocol debugging.
func (c *cli) cmdReplay(args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(c.rl.Stdout(), "usage: replay <path> [device-id]")
		return
	}
	filter := log.Filter{}
	if len(args) == 2 {
		filter.DeviceID = args[1]
	}

	reader, err := log.NewFilteredReader(args[0], filter)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "replay: %v\n", err)
		return
	}
	defer reader.Close()

	count := 0
	for {
		ev, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "replay: %v\n", err)
			return
		}
		fmt.Fprintf(c.rl.Stdout(), "%s %-7s %-8s %s\n",
			ev.Timestamp.Format(time.RFC3339Nano), ev.Layer, ev.Category, describeEvent(ev))
		count++
	}
	fmt.Fprintf(c.rl.Stdout(), "%d events\n", count)
}

// describeEvent renders an event's type-specific payload as a single
// line for the replay command.
func describeEvent(ev log.Event) string {
	switch {
	case ev.StateChange != nil:
		sc := ev.StateChange
		return fmt.Sprintf("%s: %s -> %s", sc.Entity, sc.OldState, sc.NewState)
	case ev.ControlMsg != nil:
		return fmt.Sprintf("%s value=%d", ev.ControlMsg.Type, ev.ControlMsg.Value)
	case ev.Message != nil:
		return fmt.Sprintf("%s field=%d", ev.Message.Type, ev.Message.Field)
	case ev.Error != nil:
		return ev.Error.Message
	case ev.Frame != nil:
		return fmt.Sprintf("frame size=%d", ev.Frame.Size)
	default:
		return ""
	}
}

func (c *cli) handleEvent(ev event.Event) {
	switch ev.Type {
	case event.TypePairingStateChanged:
		fmt.Fprintf(c.rl.Stdout(), "[pairing] %s -> %s\n", ev.DeviceID, ev.State)
	case event.TypeConnected:
		fmt.Fprintf(c.rl.Stdout(), "[session] %s connected\n", ev.DeviceID)
	case event.TypeDisconnected:
		fmt.Fprintf(c.rl.Stdout(), "[session] %s disconnected\n", ev.DeviceID)
	case event.TypeDeviceAdded:
		fmt.Fprintf(c.rl.Stdout(), "[devices] %s added\n", ev.DeviceID)
	case event.TypeDeviceRemoved:
		fmt.Fprintf(c.rl.Stdout(), "[devices] %s removed\n", ev.DeviceID)
	case event.TypeError:
		fmt.Fprintf(c.rl.Stdout(), "[error] %s: %v\n", ev.DeviceID, ev.Err)
	}
}

// splitHostPort splits "host:port" into host and an int port, falling
// back to the protocol's default control port when no port is given or
// the port fails to parse.
func splitHostPort(hostport string) (string, int) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport, devicemodel.DefaultControlPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, devicemodel.DefaultControlPort
	}
	return host, port
}
