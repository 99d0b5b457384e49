// Package event provides the single-writer, many-subscriber observability
// hook shared by the pairing engine, remote session, and controller
// façade: callers register a handler once and receive every subsequent
// state transition without polling.
package event

import "sync"

// Type identifies the kind of event that occurred.
type Type uint8

const (
	// TypePairingStateChanged fires whenever the pairing engine's state
	// machine transitions.
	TypePairingStateChanged Type = iota

	// TypeConnected fires when a remote session finishes connecting.
	TypeConnected

	// TypeDisconnected fires when a remote session's connection ends.
	TypeDisconnected

	// TypeDeviceAdded fires when a device is added to the paired list.
	TypeDeviceAdded

	// TypeDeviceRemoved fires when a device is removed from the paired
	// list.
	TypeDeviceRemoved

	// TypeError fires when an operation fails; Err carries the cause.
	TypeError
)

// String returns the event type name.
func (t Type) String() string {
	switch t {
	case TypePairingStateChanged:
		return "PAIRING_STATE_CHANGED"
	case TypeConnected:
		return "CONNECTED"
	case TypeDisconnected:
		return "DISCONNECTED"
	case TypeDeviceAdded:
		return "DEVICE_ADDED"
	case TypeDeviceRemoved:
		return "DEVICE_REMOVED"
	case TypeError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is a single observable occurrence. Fields irrelevant to Type are
// left zero.
type Event struct {
	Type     Type
	DeviceID string
	State    string
	Err      error
}

// Handler receives events. Handlers run on their own goroutine and must
// not block the emitter.
type Handler func(Event)

// Emitter fans an event out to every registered handler.
type Emitter struct {
	mu       sync.RWMutex
	handlers []Handler
}

// On registers a handler. Handlers are never unregistered; callers that
// need to stop listening should check a cancellation signal inside the
// handler itself.
func (e *Emitter) On(h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
}

// Emit delivers ev to every registered handler, each on its own
// goroutine so a slow subscriber cannot stall the emitting component.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, h := range e.handlers {
		go h(ev)
	}
}
