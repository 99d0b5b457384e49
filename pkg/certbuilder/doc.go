// Package certbuilder constructs the self-signed RSA-2048 v3 certificate
// the remote client presents during the TLS handshake.
//
// The protocol's trust root is the pairing PIN, not a certificate
// authority, so the certificate only needs to be well-formed DER that a
// generic X.509 parser accepts; there is no CA to ask. That requirement
// is met here with a small hand-rolled ASN.1/DER builder rather than
// crypto/x509.CreateCertificate, which does not give callers control over
// the exact TBS byte layout some Android TV Remote firmware checks for.
package certbuilder
