// Package discovery finds Android TVs on the LAN that advertise the
// remote-control service over mDNS. Discovery is a supplemental
// collaborator: nothing else in this module requires it, and a caller
// that already has a device's host and port never needs to import this
// package.
//
// Service type: _androidtvremote2._tcp, domain "local". Each instance
// resolves to a host/port pair suitable for constructing a
// devicemodel.Device directly.
package discovery
