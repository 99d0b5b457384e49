// Package remote's Session type is the control-channel counterpart to
// pkg/pairing's Session: it opens once pairing has already succeeded,
// speaks the configure/set-active handshake, and then stays open for
// key injection and ping/pong liveness until Disconnect or a transport
// error ends it.
package remote

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atvremote/atvremote-go/pkg/devicemodel"
	"github.com/atvremote/atvremote-go/pkg/event"
	"github.com/atvremote/atvremote-go/pkg/identity"
	"github.com/atvremote/atvremote-go/pkg/log"
	"github.com/atvremote/atvremote-go/pkg/protocolerr"
	"github.com/atvremote/atvremote-go/pkg/wire"
)

// HandshakeTimeout is the ceiling for the TLS handshake on connect.
const HandshakeTimeout = 10 * time.Second

// ConfigureDelay is the pause between RemoteConfigure and
// RemoteSetActive. Some firmware discards SetActive if it arrives
// before Configure has been processed.
const ConfigureDelay = 500 * time.Millisecond

// Client identity reported in RemoteConfigure's DeviceInfo.
const (
	DeviceModel     = "atvremote-go"
	DeviceVendor    = "atvremote-go"
	DeviceVersion   = "1.0.0"
	DevicePackageID = "dev.atvremote.go"
)

// Session is a single control-channel connection to one device. Not
// safe for concurrent Connect/Disconnect calls; SendCommand may be
// called concurrently with the background receive loop.
type Session struct {
	mu        sync.Mutex
	connected bool
	events    event.Emitter

	identity *identity.Identity
	device   devicemodel.Device

	conn   *tls.Conn
	reader *frameReader
	writer *frameWriter

	cancelFunc context.CancelFunc
	done       chan struct{}

	// controlPortOverride lets tests point Connect at an arbitrary
	// listener instead of the device's control port.
	controlPortOverride int

	// configureDelay overrides ConfigureDelay in tests so they need not
	// wait in real time.
	configureDelay time.Duration

	connID string
	logger log.Logger
}

// NewSession creates a control session for device, authenticating with
// id's client certificate.
func NewSession(id *identity.Identity, device devicemodel.Device) *Session {
	return &Session{
		identity:       id,
		device:         device,
		configureDelay: ConfigureDelay,
		connID:         uuid.NewString(),
		logger:         log.NoopLogger{},
	}
}

// SetLogger attaches a structured event logger; by default a Session
// logs nothing.
func (s *Session) SetLogger(l log.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
}

func (s *Session) logStateChange(oldState, newState string) {
	s.mu.Lock()
	logger := s.logger
	connID := s.connID
	s.mu.Unlock()
	logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Layer:        log.LayerSession,
		Category:     log.CategoryState,
		DeviceID:     s.device.ID,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityRemoteSession,
			OldState: oldState,
			NewState: newState,
		},
	})
}

// OnEvent registers a handler for connect/disconnect/error events.
func (s *Session) OnEvent(h event.Handler) {
	s.events.On(h)
}

// Connected reports whether the session currently believes it has a
// live control connection.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Connect opens the TLS control connection, runs the
// RemoteConfigure/RemoteSetActive handshake, and starts the background
// receive loop that answers ping with pong.
func (s *Session) Connect(ctx context.Context) error {
	if s.identity == nil {
		return protocolerr.ErrNoIdentity
	}

	port := s.device.ControlPort()
	if s.controlPortOverride != 0 {
		port = s.controlPortOverride
	}
	addr := net.JoinHostPort(s.device.Host, fmt.Sprintf("%d", port))

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{{
			Certificate: [][]byte{s.identity.CertificateDER},
			PrivateKey:  s.identity.PrivateKey,
		}},
		InsecureSkipVerify: true, // authentication is the prior pairing, not the chain
	}

	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return protocolerr.ConnectionFailed(err.Error())
	}

	tlsConn := tls.Client(rawConn, tlsConfig)
	handshakeCtx, cancelHandshake := context.WithTimeout(ctx, HandshakeTimeout)
	defer cancelHandshake()
	if err := tlsConn.HandshakeContext(handshakeCtx); err != nil {
		_ = rawConn.Close()
		return protocolerr.ConnectionFailed(err.Error())
	}

	loopCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.conn = tlsConn
	s.reader = newFrameReader(tlsConn)
	s.writer = &frameWriter{conn: tlsConn}
	s.cancelFunc = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	if err := s.sendConfigure(); err != nil {
		s.teardown()
		return err
	}

	select {
	case <-time.After(s.configureDelay):
	case <-ctx.Done():
		s.teardown()
		return protocolerr.ConnectionFailed(protocolerr.Cancelled)
	}

	if err := s.sendSetActive(); err != nil {
		s.teardown()
		return err
	}

	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()

	go s.receiveLoop(loopCtx)

	s.events.Emit(event.Event{Type: event.TypeConnected, DeviceID: s.device.ID})
	s.logStateChange("disconnected", "connected")
	return nil
}

// Disconnect tears down the control connection. Idempotent.
func (s *Session) Disconnect() {
	wasConnected := s.teardown()
	if wasConnected {
		s.events.Emit(event.Event{Type: event.TypeDisconnected, DeviceID: s.device.ID})
		s.logStateChange("connected", "disconnected")
	}
}

// teardown closes the connection and stops the receive loop, returning
// whether the session had been connected.
func (s *Session) teardown() bool {
	s.mu.Lock()
	wasConnected := s.connected
	conn := s.conn
	cancel := s.cancelFunc
	s.connected = false
	s.conn = nil
	s.cancelFunc = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	return wasConnected
}

// SendCommand injects a single short key press. A command issued on a
// dead session sends nothing and returns ErrNotConnected, so the
// controller façade can choose to surface it; no teardown or retry
// happens here.
func (s *Session) SendCommand(key KeyCode) error {
	s.mu.Lock()
	connected := s.connected
	writer := s.writer
	s.mu.Unlock()

	if !connected || writer == nil {
		return protocolerr.ErrNotConnected
	}

	payload := wire.RemoteKeyInject{KeyCode: uint64(key), Direction: wire.DirectionShort}.Encode()
	envelope := wire.EncodeRemoteEnvelope(wire.FieldRemoteKeyInject, payload)
	if err := writer.write(envelope); err != nil {
		return protocolerr.ConnectionFailed(err.Error())
	}
	return nil
}

func (s *Session) sendConfigure() error {
	info := wire.DeviceInfo{
		Model:     DeviceModel,
		Vendor:    DeviceVendor,
		Unknown:   1,
		Version:   DeviceVersion,
		PackageID: DevicePackageID,
	}
	payload := wire.RemoteConfigure{Code1: wire.RemoteConfigureCode, DeviceInfo: info}.Encode()
	envelope := wire.EncodeRemoteEnvelope(wire.FieldRemoteConfigure, payload)
	if err := s.writer.write(envelope); err != nil {
		return protocolerr.ConnectionFailed(err.Error())
	}
	return nil
}

func (s *Session) sendSetActive() error {
	payload := wire.RemoteSetActive{Active: wire.RemoteActiveCode}.Encode()
	envelope := wire.EncodeRemoteEnvelope(wire.FieldRemoteSetActive, payload)
	if err := s.writer.write(envelope); err != nil {
		return protocolerr.ConnectionFailed(err.Error())
	}
	return nil
}

// receiveLoop reads frames until the connection closes or ctx is
// cancelled, dispatching each top-level field per the receive table:
// only Ping demands a reply, everything else is acknowledged by being
// skipped.
func (s *Session) receiveLoop(ctx context.Context) {
	defer close(s.done)
	for {
		if ctx.Err() != nil {
			return
		}
		payload, err := s.reader.readOne()
		if err != nil {
			wasConnected := s.teardown()
			if wasConnected {
				s.events.Emit(event.Event{Type: event.TypeDisconnected, DeviceID: s.device.ID})
				s.logStateChange("connected", "disconnected")
			}
			return
		}
		_ = wire.DecodeRemoteEnvelopeFields(payload, func(field int, fieldPayload []byte) error {
			if field != wire.FieldRemotePing {
				return nil
			}
			ping, err := wire.DecodePing(fieldPayload)
			if err != nil {
				return nil
			}
			pong := wire.Pong{Value: ping.Value}.Encode()
			envelope := wire.EncodeRemoteEnvelope(wire.FieldRemotePong, pong)
			_ = s.writer.write(envelope)

			s.mu.Lock()
			logger := s.logger
			connID := s.connID
			s.mu.Unlock()
			logger.Log(log.Event{
				Timestamp:    time.Now(),
				ConnectionID: connID,
				Layer:        log.LayerSession,
				Category:     log.CategoryControl,
				DeviceID:     s.device.ID,
				ControlMsg:   &log.ControlMsgEvent{Type: log.ControlMsgPong, Value: ping.Value},
			})
			return nil
		})
	}
}
