package wire

// Encoder builds a single protobuf-wire-format message by appending
// fields in caller-chosen order. Decoders never depend on field order.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// AddVarint appends a varint-wire-type field.
func (e *Encoder) AddVarint(field int, v uint64) *Encoder {
	e.buf = AppendVarint(e.buf, makeTag(field, WireVarint))
	e.buf = AppendVarint(e.buf, v)
	return e
}

// AddBool appends a varint field encoding a boolean as 0 or 1.
func (e *Encoder) AddBool(field int, v bool) *Encoder {
	var n uint64
	if v {
		n = 1
	}
	return e.AddVarint(field, n)
}

// AddBytes appends a length-delimited field.
func (e *Encoder) AddBytes(field int, data []byte) *Encoder {
	e.buf = AppendVarint(e.buf, makeTag(field, WireLengthDelimited))
	e.buf = AppendVarint(e.buf, uint64(len(data)))
	e.buf = append(e.buf, data...)
	return e
}

// AddString appends a length-delimited field containing UTF-8 text.
func (e *Encoder) AddString(field int, s string) *Encoder {
	return e.AddBytes(field, []byte(s))
}

// AddMessage appends a length-delimited field whose payload is the
// already-encoded bytes of a sub-message.
func (e *Encoder) AddMessage(field int, sub *Encoder) *Encoder {
	return e.AddBytes(field, sub.Bytes())
}

// Bytes returns the concatenation of every field appended so far, in call
// order.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Decoder walks a single protobuf-wire-format message field by field.
// Fields may be read in any order relative to how they were written;
// callers loop calling ReadTag until it returns false.
type Decoder struct {
	buf []byte
}

// NewDecoder wraps data for field-by-field decoding.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{buf: data}
}

// Len returns the number of bytes not yet consumed.
func (d *Decoder) Len() int {
	return len(d.buf)
}

// ReadTag reads the next field's tag. It returns ok=false once the buffer
// is exhausted.
func (d *Decoder) ReadTag() (field int, wireType WireType, ok bool, err error) {
	if len(d.buf) == 0 {
		return 0, 0, false, nil
	}
	tag, n, err := ReadVarint(d.buf)
	if err != nil {
		return 0, 0, false, err
	}
	d.buf = d.buf[n:]
	f, wt := splitTag(tag)
	return f, wt, true, nil
}

// ReadVarint reads a varint-wire-type field's payload.
func (d *Decoder) ReadVarint() (uint64, error) {
	v, n, err := ReadVarint(d.buf)
	if err != nil {
		return 0, err
	}
	d.buf = d.buf[n:]
	return v, nil
}

// ReadBytes reads a length-delimited field's payload.
func (d *Decoder) ReadBytes() ([]byte, error) {
	length, n, err := ReadVarint(d.buf)
	if err != nil {
		return nil, err
	}
	rest := d.buf[n:]
	if uint64(len(rest)) < length {
		return nil, ErrTruncated
	}
	out := rest[:length]
	d.buf = rest[length:]
	return out, nil
}

// ReadString reads a length-delimited field's payload as a UTF-8 string.
func (d *Decoder) ReadString() (string, error) {
	b, err := d.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Skip consumes exactly one field's payload of the given wire type
// without interpreting it. Unsupported wire types return
// ErrUnsupportedWireType and leave the buffer untouched; callers should
// stop parsing the current message when that happens.
func (d *Decoder) Skip(wireType WireType) error {
	switch wireType {
	case WireVarint:
		_, n, err := ReadVarint(d.buf)
		if err != nil {
			return err
		}
		d.buf = d.buf[n:]
		return nil
	case WireFixed64:
		if len(d.buf) < 8 {
			return ErrTruncated
		}
		d.buf = d.buf[8:]
		return nil
	case WireLengthDelimited:
		_, err := d.ReadBytes()
		return err
	case WireFixed32:
		if len(d.buf) < 4 {
			return ErrTruncated
		}
		d.buf = d.buf[4:]
		return nil
	default:
		return ErrUnsupportedWireType
	}
}

// Frame prepends a varint length prefix to payload, producing a complete
// on-wire frame ready to write to a connection.
func Frame(payload []byte) []byte {
	out := AppendVarint(nil, uint64(len(payload)))
	return append(out, payload...)
}

// MaxMessageLength bounds a single framed message's declared length.
// Pairing and remote-session messages are all small fixed-shape
// envelopes; a peer-declared length beyond this is never legitimate and
// must be rejected before it's used for arithmetic or slicing.
const MaxMessageLength = 1 << 20

// ExtractMessage attempts to pull one complete length-prefixed message
// off the front of buf. It returns the message payload, the number of
// bytes consumed from buf (header + payload), and whether a complete
// message was found. When ok is false, buf is returned untouched by the
// caller's perspective — callers should wait for more bytes and retry.
func ExtractMessage(buf []byte) (payload []byte, consumed int, ok bool) {
	if len(buf) == 0 {
		return nil, 0, false
	}
	length, headerLen, err := ReadVarint(buf)
	if err != nil {
		return nil, 0, false
	}
	if length > MaxMessageLength {
		return nil, 0, false
	}
	total := headerLen + int(length)
	if len(buf) < total {
		return nil, 0, false
	}
	return buf[headerLen:total], total, true
}
