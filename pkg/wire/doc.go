// Package wire implements the Android TV Remote Control v2 wire format.
//
// # Overview
//
// Every message exchanged with a TV, in both the pairing and remote-control
// phases, is a varint length prefix followed by that many bytes of a
// protobuf-serialized message. There is no compiled protobuf schema: this
// package implements the tag/length/varint mechanics directly, the same way
// a hand-rolled BLE or IoT wire codec would, because the protocol's
// message set is small and fixed.
//
// # Varint
//
// Values are encoded as little-endian base-128 varints (protobuf's
// standard integer encoding): each byte carries 7 bits of the value plus a
// continuation bit in the MSB. Up to 10 bytes are needed for a full
// 64-bit value.
//
// # Tags
//
// A tag is (field_number << 3) | wire_type, itself varint-encoded.
// wire_type 0 is varint, wire_type 2 is length-delimited. Wire types 1
// and 5 (fixed64/fixed32) are skipped on decode and never emitted by this
// package; any other wire type stops decoding with ErrUnsupportedWireType.
//
// # Framing
//
// On the wire, a message is [varint length][payload bytes]. Extract
// loops over a growing receive buffer, pulling out complete messages and
// leaving partial ones for the next read.
package wire
