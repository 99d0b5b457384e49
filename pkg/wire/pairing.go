package wire

// PairingMessage field numbers, per the Android TV Remote v2 pairing
// protocol. Exactly one of the payload fields (10/20/30/40) is present on
// any given message.
const (
	FieldProtocolVersion = 1
	FieldStatus          = 2

	FieldPairingRequest       = 10
	FieldPairingOption        = 20
	FieldPairingConfiguration = 30
	FieldPairingSecret        = 40
)

// ProtocolVersion is the pairing protocol version this client speaks.
const ProtocolVersion = 2

// StatusOK is the envelope status value indicating success.
const StatusOK = 200

// Encoding type values for PairingOption.
const (
	EncodingHexadecimal = 3
)

// DefaultSymbolLength is the number of hex digits the client offers/expects.
const DefaultSymbolLength = 6

// PreferredRoleInput marks the client as the code input role.
const PreferredRoleInput = 1

// PairingRequest is the client's opening pairing message.
type PairingRequest struct {
	ServiceName string
	ClientName  string
}

// Encode serializes the PairingRequest payload (field 1: service_name,
// field 2: client_name).
func (r PairingRequest) Encode() []byte {
	return NewEncoder().
		AddString(1, r.ServiceName).
		AddString(2, r.ClientName).
		Bytes()
}

// DecodePairingRequest parses a PairingRequest payload.
func DecodePairingRequest(data []byte) (PairingRequest, error) {
	var r PairingRequest
	d := NewDecoder(data)
	for {
		field, wt, ok, err := d.ReadTag()
		if err != nil {
			return r, err
		}
		if !ok {
			break
		}
		if wt != WireLengthDelimited {
			if err := d.Skip(wt); err != nil {
				return r, err
			}
			continue
		}
		s, err := d.ReadString()
		if err != nil {
			return r, err
		}
		switch field {
		case 1:
			r.ServiceName = s
		case 2:
			r.ClientName = s
		}
	}
	return r, nil
}

// Encoding describes a code input/output encoding offer.
type Encoding struct {
	Type         uint64
	SymbolLength uint64
}

// Encode serializes an Encoding sub-message.
func (e Encoding) Encode() *Encoder {
	return NewEncoder().
		AddVarint(1, e.Type).
		AddVarint(2, e.SymbolLength)
}

// DecodeEncoding parses an Encoding sub-message.
func DecodeEncoding(data []byte) (Encoding, error) {
	var e Encoding
	d := NewDecoder(data)
	for {
		field, wt, ok, err := d.ReadTag()
		if err != nil {
			return e, err
		}
		if !ok {
			break
		}
		if wt != WireVarint {
			if err := d.Skip(wt); err != nil {
				return e, err
			}
			continue
		}
		v, err := d.ReadVarint()
		if err != nil {
			return e, err
		}
		switch field {
		case 1:
			e.Type = v
		case 2:
			e.SymbolLength = v
		}
	}
	return e, nil
}

// PairingOption is the client's offered/preferred pairing encodings.
type PairingOption struct {
	InputEncoding  Encoding
	OutputEncoding Encoding
	PreferredRole  uint64
}

// DefaultPairingOption is the only option set this client ever sends:
// 6-digit hexadecimal, input role.
func DefaultPairingOption() PairingOption {
	enc := Encoding{Type: EncodingHexadecimal, SymbolLength: DefaultSymbolLength}
	return PairingOption{
		InputEncoding:  enc,
		OutputEncoding: enc,
		PreferredRole:  PreferredRoleInput,
	}
}

// Encode serializes the PairingOption payload.
func (o PairingOption) Encode() []byte {
	return NewEncoder().
		AddMessage(1, o.InputEncoding.Encode()).
		AddMessage(2, o.OutputEncoding.Encode()).
		AddVarint(3, o.PreferredRole).
		Bytes()
}

// DecodePairingOption parses a PairingOption payload.
func DecodePairingOption(data []byte) (PairingOption, error) {
	var o PairingOption
	d := NewDecoder(data)
	for {
		field, wt, ok, err := d.ReadTag()
		if err != nil {
			return o, err
		}
		if !ok {
			break
		}
		switch {
		case field == 1 && wt == WireLengthDelimited:
			b, err := d.ReadBytes()
			if err != nil {
				return o, err
			}
			o.InputEncoding, err = DecodeEncoding(b)
			if err != nil {
				return o, err
			}
		case field == 2 && wt == WireLengthDelimited:
			b, err := d.ReadBytes()
			if err != nil {
				return o, err
			}
			o.OutputEncoding, err = DecodeEncoding(b)
			if err != nil {
				return o, err
			}
		case field == 3 && wt == WireVarint:
			v, err := d.ReadVarint()
			if err != nil {
				return o, err
			}
			o.PreferredRole = v
		default:
			if err := d.Skip(wt); err != nil {
				return o, err
			}
		}
	}
	return o, nil
}

// PairingSecret carries the computed pairing secret.
type PairingSecret struct {
	Secret []byte
}

// Encode serializes the PairingSecret payload.
func (s PairingSecret) Encode() []byte {
	return NewEncoder().AddBytes(1, s.Secret).Bytes()
}

// DecodePairingSecret parses a PairingSecret payload.
func DecodePairingSecret(data []byte) (PairingSecret, error) {
	var s PairingSecret
	d := NewDecoder(data)
	for {
		field, wt, ok, err := d.ReadTag()
		if err != nil {
			return s, err
		}
		if !ok {
			break
		}
		if field == 1 && wt == WireLengthDelimited {
			b, err := d.ReadBytes()
			if err != nil {
				return s, err
			}
			s.Secret = b
			continue
		}
		if err := d.Skip(wt); err != nil {
			return s, err
		}
	}
	return s, nil
}

// PairingEnvelope is the outer message wrapping every pairing exchange.
// Exactly one of the payload fields is populated; Which indicates which.
type PairingEnvelope struct {
	ProtocolVersion uint64
	Status          uint64
	Which           int // 0 if no payload field present, else one of the Field* constants
	Payload         []byte
}

// EncodePairingEnvelope wraps a payload under the given field number.
func EncodePairingEnvelope(protocolVersion, status uint64, payloadField int, payload []byte) []byte {
	e := NewEncoder().
		AddVarint(FieldProtocolVersion, protocolVersion).
		AddVarint(FieldStatus, status)
	if payloadField != 0 {
		e.AddBytes(payloadField, payload)
	}
	return e.Bytes()
}

// DecodePairingEnvelope parses the outer PairingMessage envelope without
// interpreting the payload; callers dispatch further decoding based on
// Which.
func DecodePairingEnvelope(data []byte) (PairingEnvelope, error) {
	var env PairingEnvelope
	d := NewDecoder(data)
	for {
		field, wt, ok, err := d.ReadTag()
		if err != nil {
			return env, err
		}
		if !ok {
			break
		}
		switch {
		case field == FieldProtocolVersion && wt == WireVarint:
			v, err := d.ReadVarint()
			if err != nil {
				return env, err
			}
			env.ProtocolVersion = v
		case field == FieldStatus && wt == WireVarint:
			v, err := d.ReadVarint()
			if err != nil {
				return env, err
			}
			env.Status = v
		case wt == WireLengthDelimited &&
			(field == FieldPairingRequest || field == FieldPairingOption ||
				field == FieldPairingConfiguration || field == FieldPairingSecret):
			b, err := d.ReadBytes()
			if err != nil {
				return env, err
			}
			env.Which = field
			env.Payload = b
		default:
			if err := d.Skip(wt); err != nil {
				return env, err
			}
		}
	}
	return env, nil
}
