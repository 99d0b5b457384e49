// Package remote drives the post-pairing control channel: the
// RemoteConfigure/RemoteSetActive handshake, key injection, and the
// ping/pong liveness protocol that keeps the TV from dropping an idle
// connection.
package remote
