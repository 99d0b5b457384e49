package wire

// RemoteMessage envelope payload field numbers.
const (
	FieldRemoteKeyInject  = 2
	FieldRemoteConfigure  = 7
	FieldRemoteSetActive  = 8
	FieldRemotePing       = 10
	FieldRemotePong       = 11
	FieldRemoteStart      = 40
)

// KeyDirection values for RemoteKeyInject.
const (
	DirectionShort = 3
)

// RemoteConfigureCode is the fixed code1 value the client sends in
// RemoteConfigure.
const RemoteConfigureCode = 622

// RemoteActiveCode is the fixed active value the client sends in
// RemoteSetActive.
const RemoteActiveCode = 622

// DeviceInfo describes the client in a RemoteConfigure message.
type DeviceInfo struct {
	Model     string
	Vendor    string
	Unknown   uint64
	Version   string
	PackageID string
}

// Encode serializes a DeviceInfo sub-message.
func (d DeviceInfo) Encode() *Encoder {
	return NewEncoder().
		AddString(1, d.Model).
		AddString(2, d.Vendor).
		AddVarint(3, d.Unknown).
		AddString(4, d.Version).
		AddString(5, d.PackageID)
}

// RemoteConfigure is the client's initial control-channel handshake
// message.
type RemoteConfigure struct {
	Code1      uint64
	DeviceInfo DeviceInfo
}

// Encode serializes the RemoteConfigure payload.
func (c RemoteConfigure) Encode() []byte {
	return NewEncoder().
		AddVarint(1, c.Code1).
		AddMessage(2, c.DeviceInfo.Encode()).
		Bytes()
}

// RemoteSetActive marks the session active after configuration.
type RemoteSetActive struct {
	Active uint64
}

// Encode serializes the RemoteSetActive payload.
func (a RemoteSetActive) Encode() []byte {
	return NewEncoder().AddVarint(1, a.Active).Bytes()
}

// RemoteKeyInject injects a single key press.
type RemoteKeyInject struct {
	KeyCode   uint64
	Direction uint64
}

// Encode serializes the RemoteKeyInject payload.
func (k RemoteKeyInject) Encode() []byte {
	return NewEncoder().
		AddVarint(1, k.KeyCode).
		AddVarint(2, k.Direction).
		Bytes()
}

// DecodeRemoteKeyInject parses a RemoteKeyInject payload.
func DecodeRemoteKeyInject(data []byte) (RemoteKeyInject, error) {
	var k RemoteKeyInject
	d := NewDecoder(data)
	for {
		field, wt, ok, err := d.ReadTag()
		if err != nil {
			return k, err
		}
		if !ok {
			break
		}
		if wt != WireVarint {
			if err := d.Skip(wt); err != nil {
				return k, err
			}
			continue
		}
		v, err := d.ReadVarint()
		if err != nil {
			return k, err
		}
		switch field {
		case 1:
			k.KeyCode = v
		case 2:
			k.Direction = v
		}
	}
	return k, nil
}

// Ping carries a liveness nonce from the TV.
type Ping struct {
	Value uint64
}

// DecodePing parses a Ping payload.
func DecodePing(data []byte) (Ping, error) {
	var p Ping
	d := NewDecoder(data)
	for {
		field, wt, ok, err := d.ReadTag()
		if err != nil {
			return p, err
		}
		if !ok {
			break
		}
		if field == 1 && wt == WireVarint {
			v, err := d.ReadVarint()
			if err != nil {
				return p, err
			}
			p.Value = v
			continue
		}
		if err := d.Skip(wt); err != nil {
			return p, err
		}
	}
	return p, nil
}

// Pong echoes a Ping's value back to the TV.
type Pong struct {
	Value uint64
}

// Encode serializes the Pong payload.
func (p Pong) Encode() []byte {
	return NewEncoder().AddVarint(1, p.Value).Bytes()
}

// EncodeRemoteEnvelope wraps a payload in the outer RemoteMessage under
// the given field number.
func EncodeRemoteEnvelope(field int, payload []byte) []byte {
	return NewEncoder().AddBytes(field, payload).Bytes()
}

// RemoteEnvelope is the decoded top-level RemoteMessage: Which identifies
// the single populated field.
type RemoteEnvelope struct {
	Which   int
	Payload []byte
}

// DecodeRemoteEnvelopeFields walks every top-level field in a
// RemoteMessage, invoking handle for every length-delimited field,
// whatever its field number. Non-length-delimited fields are skipped.
// Callers switch on the field number themselves.
func DecodeRemoteEnvelopeFields(data []byte, handle func(field int, payload []byte) error) error {
	d := NewDecoder(data)
	for {
		field, wt, ok, err := d.ReadTag()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if wt != WireLengthDelimited {
			if err := d.Skip(wt); err != nil {
				return err
			}
			continue
		}
		payload, err := d.ReadBytes()
		if err != nil {
			return err
		}
		if err := handle(field, payload); err != nil {
			return err
		}
	}
}
