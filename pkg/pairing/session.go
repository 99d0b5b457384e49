// Package pairing drives the PIN-based pairing handshake described in
// the protocol's commissioning flow: a short-lived TLS connection to the
// TV's pairing port, a PairingRequest/PairingOption/PairingConfiguration
// exchange, and a PairingSecret proving both sides observed the same
// on-screen PIN.
package pairing

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

// WaitTimeout is the ceiling for every wait_for_message call during
// pairing.
const WaitTimeout = 10 * time.Second

// ClientName is the client_name field sent in PairingRequest.
const ClientName = "atvremote-go"

// serviceName is the fixed service_name field sent in PairingRequest.
const serviceName = "atvremote"

// Session drives a single pairing attempt against one device. A Session
// is single-use: once it reaches StateSuccess or StateFailed, start a
// new Session for another attempt.
type Session struct {
	mu     sync.Mutex
	state  State
	err    error
	events event.Emitter

	identity *identity.Identity
	device   devicemodel.Device

	conn          *tls.Conn
	reader        *frameReader
	serverCertDER []byte

	cancelFunc context.CancelFunc
	cancelled  bool

	connID string
	logger log.Logger

	// pairingPortOverride lets tests point Start at an arbitrary
	// listener instead of the protocol-fixed pairing port.
	pairingPortOverride int
}

// NewSession creates a pairing session for device, authenticating with
// id's client certificate.
func NewSession(id *identity.Identity, device devicemodel.Device) *Session {
	return &Session{
		state:    StateIdle,
		identity: id,
		device:   device,
		connID:   uuid.NewString(),
		logger:   log.NoopLogger{},
	}
}

// SetLogger attaches a structured event logger; by default a Session
// logs nothing.
func (s *Session) SetLogger(l log.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
}

// OnEvent registers a handler for every state transition and error this
// session emits.
func (s *Session) OnEvent(h event.Handler) {
	s.events.On(h)
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that moved the session to StateFailed, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	old := s.state
	s.state = st
	logger := s.logger
	connID := s.connID
	s.mu.Unlock()
	s.events.Emit(event.Event{Type: event.TypePairingStateChanged, DeviceID: s.device.ID, State: st.String()})
	logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Layer:        log.LayerSession,
		Category:     log.CategoryState,
		DeviceID:     s.device.ID,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityPairing,
			OldState: old.String(),
			NewState: st.String(),
		},
	})
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	if s.cancelled {
		// Cancel() already moved the session to Idle and torn down the
		// connection; an outstanding wait unblocking afterward reports
		// its error to the caller without re-entering Failed, per the
		// "cancel() always lands in Idle" contract.
		logger := s.logger
		connID := s.connID
		s.mu.Unlock()
		logger.Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: connID,
			Layer:        log.LayerSession,
			Category:     log.CategoryError,
			DeviceID:     s.device.ID,
			Error:        &log.ErrorEventData{Layer: log.LayerSession, Message: err.Error()},
		})
		return err
	}
	s.state = StateFailed
	s.err = err
	logger := s.logger
	connID := s.connID
	s.mu.Unlock()
	s.teardown()
	s.events.Emit(event.Event{Type: event.TypeError, DeviceID: s.device.ID, State: StateFailed.String(), Err: err})
	logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Layer:        log.LayerSession,
		Category:     log.CategoryError,
		DeviceID:     s.device.ID,
		Error:        &log.ErrorEventData{Layer: log.LayerSession, Message: err.Error()},
	})
	return err
}

func (s *Session) teardown() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// Cancel tears down the connection and moves the session to Idle from
// any state, failing any outstanding wait with
// ConnectionFailed("Cancelled").
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.cancelled = true
	s.state = StateIdle
	s.err = nil
	s.mu.Unlock()
	s.teardown()
	s.events.Emit(event.Event{Type: event.TypePairingStateChanged, DeviceID: s.device.ID, State: StateIdle.String()})
}

// Start opens the TLS pairing connection, captures the server's leaf
// certificate, and drives the handshake through PairingRequest and
// PairingOption, stopping at StateWaitingForCode once the server has
// sent PairingConfiguration.
func (s *Session) Start(ctx context.Context) error {
	if s.identity == nil {
		return s.fail(protocolerr.ErrNoIdentity)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancelFunc = cancel
	s.cancelled = false
	s.mu.Unlock()

	s.setState(StateConnecting)

	port := s.device.PairingPort()
	if s.pairingPortOverride != 0 {
		port = s.pairingPortOverride
	}
	addr := net.JoinHostPort(s.device.Host, fmt.Sprintf("%d", port))
	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{{
			Certificate: [][]byte{s.identity.CertificateDER},
			PrivateKey:  s.identity.PrivateKey,
		}},
		InsecureSkipVerify: true, // trust root is the PIN, not a CA
		// VerifyConnection runs during the handshake, before
		// HandshakeContext returns, which is early enough to capture
		// the server's leaf certificate before SubmitCode can run.
		VerifyConnection: func(cs tls.ConnectionState) error {
			if len(cs.PeerCertificates) > 0 {
				s.mu.Lock()
				s.serverCertDER = cs.PeerCertificates[0].Raw
				s.mu.Unlock()
			}
			return nil
		},
	}

	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return s.fail(protocolerr.ConnectionFailed(err.Error()))
	}

	tlsConn := tls.Client(rawConn, tlsConfig)
	handshakeCtx, cancelHandshake := context.WithTimeout(ctx, WaitTimeout)
	defer cancelHandshake()
	if err := tlsConn.HandshakeContext(handshakeCtx); err != nil {
		_ = rawConn.Close()
		return s.fail(protocolerr.ConnectionFailed(err.Error()))
	}

	s.mu.Lock()
	s.conn = tlsConn
	s.reader = newFrameReader(tlsConn)
	s.mu.Unlock()

	if err := s.sendPairingRequest(); err != nil {
		return err
	}
	if err := s.awaitAck(ctx); err != nil {
		return err
	}

	if err := s.sendPairingOption(); err != nil {
		return err
	}
	env, err := s.awaitEnvelope(ctx)
	if err != nil {
		return err
	}
	if env.Status != wire.StatusOK {
		return s.fail(protocolerr.ErrPairingRejected)
	}
	// A reply that echoes a PairingOption must name only the encoding
	// this client offered (HEXADECIMAL, 6 symbols).
	if env.Which == wire.FieldPairingOption {
		opt, err := wire.DecodePairingOption(env.Payload)
		if err != nil {
			return s.fail(protocolerr.ErrInvalidResponse)
		}
		want := wire.DefaultPairingOption().InputEncoding
		for _, enc := range []wire.Encoding{opt.InputEncoding, opt.OutputEncoding} {
			if enc != (wire.Encoding{}) && enc != want {
				return s.fail(protocolerr.ErrInvalidResponse)
			}
		}
	}
	// Presence of a PairingConfiguration payload (or its absence with a
	// 200 status — some firmware omits the payload) is the signal to
	// prompt for the on-screen code.
	s.setState(StateWaitingForCode)
	return nil
}

// SubmitCode computes the pairing secret from the user-entered code and
// both peers' certificates, performs the local check-byte pre-flight,
// and — if it passes — sends PairingSecret and awaits the final
// acknowledgement.
func (s *Session) SubmitCode(ctx context.Context, code string) error {
	s.mu.Lock()
	if s.state != StateWaitingForCode {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("pairing: SubmitCode called in state %s, want %s", state, StateWaitingForCode)
	}
	serverCert := s.serverCertDER
	s.mu.Unlock()

	if serverCert == nil {
		return s.fail(protocolerr.ErrServerCertNotAvailable)
	}

	s.setState(StateVerifying)

	codeBytes, err := normalizePIN(code)
	if err != nil {
		return s.fail(protocolerr.ErrInvalidResponse)
	}

	secret, err := computeSecret(s.identity.CertificateDER, serverCert, codeBytes)
	if err != nil {
		return s.fail(fmt.Errorf("pairing: compute secret: %w", err))
	}

	if codeBytes[0] != secret[0] {
		return s.fail(protocolerr.ErrSecretMismatch)
	}

	if err := s.sendPairingSecret(secret); err != nil {
		return err
	}
	env, err := s.awaitEnvelope(ctx)
	if err != nil {
		return err
	}
	if env.Status != wire.StatusOK {
		return s.fail(protocolerr.ErrPairingRejected)
	}

	s.teardown()
	s.setState(StateSuccess)
	return nil
}

func (s *Session) sendPairingRequest() error {
	payload := wire.PairingRequest{ServiceName: serviceName, ClientName: ClientName}.Encode()
	raw := wire.EncodePairingEnvelope(wire.ProtocolVersion, wire.StatusOK, wire.FieldPairingRequest, payload)
	if err := writeFrame(s.conn, raw); err != nil {
		return s.fail(protocolerr.ConnectionFailed(err.Error()))
	}
	return nil
}

func (s *Session) sendPairingOption() error {
	payload := wire.DefaultPairingOption().Encode()
	raw := wire.EncodePairingEnvelope(wire.ProtocolVersion, wire.StatusOK, wire.FieldPairingOption, payload)
	if err := writeFrame(s.conn, raw); err != nil {
		return s.fail(protocolerr.ConnectionFailed(err.Error()))
	}
	return nil
}

func (s *Session) sendPairingSecret(secret []byte) error {
	payload := wire.PairingSecret{Secret: secret}.Encode()
	raw := wire.EncodePairingEnvelope(wire.ProtocolVersion, wire.StatusOK, wire.FieldPairingSecret, payload)
	if err := writeFrame(s.conn, raw); err != nil {
		return s.fail(protocolerr.ConnectionFailed(err.Error()))
	}
	return nil
}

// awaitEnvelope waits up to WaitTimeout for the next framed
// PairingMessage and decodes its envelope.
func (s *Session) awaitEnvelope(ctx context.Context) (wire.PairingEnvelope, error) {
	waitCtx, cancel := context.WithTimeout(ctx, WaitTimeout)
	defer cancel()

	payload, err := s.reader.readOneWithContext(waitCtx)
	if err != nil {
		switch waitCtx.Err() {
		case context.DeadlineExceeded:
			return wire.PairingEnvelope{}, s.fail(protocolerr.ErrTimeout)
		case context.Canceled:
			return wire.PairingEnvelope{}, s.fail(protocolerr.ConnectionFailed(protocolerr.Cancelled))
		default:
			return wire.PairingEnvelope{}, s.fail(protocolerr.ConnectionFailed(err.Error()))
		}
	}

	env, err := wire.DecodePairingEnvelope(payload)
	if err != nil {
		return wire.PairingEnvelope{}, s.fail(protocolerr.ErrInvalidResponse)
	}
	return env, nil
}

// awaitAck waits for an envelope and treats status 200 as success,
// anything else as PairingRejected.
func (s *Session) awaitAck(ctx context.Context) error {
	env, err := s.awaitEnvelope(ctx)
	if err != nil {
		return err
	}
	if env.Status != wire.StatusOK {
		return s.fail(protocolerr.ErrPairingRejected)
	}
	return nil
}
