package controller

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/atvremote/atvremote-go/pkg/devicemodel"
	"github.com/atvremote/atvremote-go/pkg/event"
	"github.com/atvremote/atvremote-go/pkg/identity"
	"github.com/atvremote/atvremote-go/pkg/log"
	"github.com/atvremote/atvremote-go/pkg/pairing"
	"github.com/atvremote/atvremote-go/pkg/protocolerr"
	"github.com/atvremote/atvremote-go/pkg/remote"
)

// Controller is the single owner of the paired-device list and the one
// active control-channel session. Not safe for concurrent calls from
// multiple goroutines other than the background event handlers it
// registers on its own sessions.
type Controller struct {
	mu        sync.Mutex
	identity  *identity.Identity
	storePath string
	devices   map[string]devicemodel.Device

	activeSession  *remote.Session
	activeDeviceID string

	pairingSession *pairing.Session
	pairingDevice  devicemodel.Device

	events event.Emitter
	logger log.Logger
}

// New returns a Controller authenticating with id, loading its paired-
// device list from storePath if the file exists.
func New(id *identity.Identity, storePath string) (*Controller, error) {
	c := &Controller{
		identity:  id,
		storePath: storePath,
		devices:   make(map[string]devicemodel.Device),
		logger:    log.NoopLogger{},
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

// SetLogger attaches a structured event logger that every session the
// controller creates will report to; by default nothing is logged.
func (c *Controller) SetLogger(l log.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
}

// OnEvent registers a handler for every pairing, connection, and device-
// list event this controller or its sessions emit.
func (c *Controller) OnEvent(h event.Handler) {
	c.events.On(h)
}

// Devices returns the paired-device list, sorted by ID.
func (c *Controller) Devices() []devicemodel.Device {
	c.mu.Lock()
	defer c.mu.Unlock()

	devices := make([]devicemodel.Device, 0, len(c.devices))
	for _, d := range c.devices {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices
}

// IsPaired reports whether deviceID is in the paired-device list.
func (c *Controller) IsPaired(deviceID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.devices[deviceID]
	return ok
}

// ActiveDeviceID returns the device ID of the currently connected
// session, or "" if none is active.
func (c *Controller) ActiveDeviceID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeDeviceID
}

// AddPaired records device as paired and persists the updated list.
func (c *Controller) AddPaired(device devicemodel.Device) error {
	c.mu.Lock()
	device.IsPaired = true
	c.devices[device.ID] = device
	err := c.saveLocked()
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.events.Emit(event.Event{Type: event.TypeDeviceAdded, DeviceID: device.ID})
	return nil
}

// RemovePaired drops deviceID from the paired-device list, disconnecting
// the active session first if it belongs to that device.
func (c *Controller) RemovePaired(deviceID string) error {
	c.mu.Lock()
	if c.activeDeviceID == deviceID {
		c.disconnectLocked()
	}
	delete(c.devices, deviceID)
	err := c.saveLocked()
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.events.Emit(event.Event{Type: event.TypeDeviceRemoved, DeviceID: deviceID})
	return nil
}

// Connect opens a remote-control session to the given paired device,
// tearing down any existing active session first (at most one active
// session per the controller's concurrency model).
func (c *Controller) Connect(ctx context.Context, deviceID string) error {
	c.mu.Lock()
	device, ok := c.devices[deviceID]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("controller: device %q is not paired", deviceID)
	}
	c.disconnectLocked()

	session := remote.NewSession(c.identity, device)
	session.OnEvent(c.events.Emit)
	session.SetLogger(c.logger)
	c.mu.Unlock()

	if err := session.Connect(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.activeSession = session
	c.activeDeviceID = deviceID
	c.mu.Unlock()
	return nil
}

// Disconnect tears down the active session, if any.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectLocked()
}

func (c *Controller) disconnectLocked() {
	if c.activeSession != nil {
		c.activeSession.Disconnect()
		c.activeSession = nil
		c.activeDeviceID = ""
	}
}

// SendCommand forwards a key press to the active session. Returns
// protocolerr.ErrNotConnected if no session is active.
func (c *Controller) SendCommand(key remote.KeyCode) error {
	c.mu.Lock()
	session := c.activeSession
	c.mu.Unlock()

	if session == nil {
		return protocolerr.ErrNotConnected
	}
	return session.SendCommand(key)
}

// StartPairing opens a pairing session against device and drives it
// through PairingRequest/PairingOption, returning once the TV is ready
// for the on-screen code (or failing with the pairing taxonomy error).
func (c *Controller) StartPairing(ctx context.Context, device devicemodel.Device) error {
	c.mu.Lock()
	if c.pairingSession != nil {
		c.pairingSession.Cancel()
	}
	session := pairing.NewSession(c.identity, device)
	session.OnEvent(c.events.Emit)
	session.SetLogger(c.logger)
	c.pairingSession = session
	c.pairingDevice = device
	c.mu.Unlock()

	return session.Start(ctx)
}

// SubmitCode completes an in-progress pairing with the user-entered PIN.
// On success the device is added to the paired list.
func (c *Controller) SubmitCode(ctx context.Context, code string) error {
	c.mu.Lock()
	session := c.pairingSession
	device := c.pairingDevice
	c.mu.Unlock()

	if session == nil {
		return fmt.Errorf("controller: no pairing in progress")
	}

	if err := session.SubmitCode(ctx, code); err != nil {
		return err
	}

	c.mu.Lock()
	c.pairingSession = nil
	c.mu.Unlock()

	return c.AddPaired(device)
}

// CancelPairing cancels an in-progress pairing attempt, if any.
func (c *Controller) CancelPairing() {
	c.mu.Lock()
	session := c.pairingSession
	c.pairingSession = nil
	c.mu.Unlock()

	if session != nil {
		session.Cancel()
	}
}
