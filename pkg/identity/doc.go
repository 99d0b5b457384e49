// Package identity manages the client's long-lived RSA key pair and
// self-signed certificate: the credentials presented during TLS pairing
// and control-channel handshakes.
//
// Identities are generated once and then persisted behind a Store so
// that re-pairing is never required after a restart. A certificate
// format version travels alongside the stored artifacts; bumping it
// invalidates every previously stored identity, which is how a bug in
// the certificate builder gets fixed without stranding already-paired
// devices on a broken certificate shape.
package identity
