// Package devicemodel defines the TV device record shared by discovery,
// pairing, the remote session, and the controller façade's persisted
// paired-device list.
package devicemodel

// Default TCP ports for the two TLS services a TV exposes.
const (
	DefaultPairingPort = 6467
	DefaultControlPort = 6466
)

// Device identifies a single Android TV on the network.
type Device struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	IsPaired bool   `json:"isPaired"`
}

// PairingPort returns the port used for the PIN-pairing handshake.
// Devices discovered via mDNS carry a single advertised port (the
// control port); pairing always happens on the protocol-fixed pairing
// port regardless of what was advertised.
func (d Device) PairingPort() int {
	return DefaultPairingPort
}

// ControlPort returns the port used for the post-pairing remote control
// channel: the device's stored port if set, else the protocol default.
func (d Device) ControlPort() int {
	if d.Port != 0 {
		return d.Port
	}
	return DefaultControlPort
}
