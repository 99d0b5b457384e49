package certbuilder

import "fmt"

// DER tag bytes used by the certificate builder.
const (
	tagInteger     = 0x02
	tagBitString   = 0x03
	tagNull        = 0x05
	tagOID         = 0x06
	tagUTF8String  = 0x0C
	tagUTCTime     = 0x17
	tagSequence    = 0x30
	tagSet         = 0x31
	tagContext0    = 0xA0
	tagContext3    = 0xA3
)

// encodeLength produces the DER length octets for n. Short-form is used
// for n < 128; long-form for n up to 65535. Certificate fields never
// reach 65536 bytes, so larger lengths are not supported.
func encodeLength(n int) ([]byte, error) {
	switch {
	case n < 0:
		return nil, fmt.Errorf("certbuilder: negative length %d", n)
	case n < 0x80:
		return []byte{byte(n)}, nil
	case n < 0x100:
		return []byte{0x81, byte(n)}, nil
	case n < 0x10000:
		return []byte{0x82, byte(n >> 8), byte(n)}, nil
	default:
		return nil, fmt.Errorf("certbuilder: length %d exceeds 65535", n)
	}
}

// decodeLength parses DER length octets starting at buf[0]. It returns the
// decoded length and the number of octets consumed.
func decodeLength(buf []byte) (n int, consumed int, err error) {
	if len(buf) == 0 {
		return 0, 0, fmt.Errorf("certbuilder: empty length")
	}
	first := buf[0]
	if first&0x80 == 0 {
		return int(first), 1, nil
	}
	numBytes := int(first & 0x7f)
	if numBytes == 0 || numBytes > 2 || len(buf) < 1+numBytes {
		return 0, 0, fmt.Errorf("certbuilder: unsupported long-form length")
	}
	n = 0
	for i := 0; i < numBytes; i++ {
		n = n<<8 | int(buf[1+i])
	}
	return n, 1 + numBytes, nil
}

// tlv wraps content in a tag-length-value envelope.
func tlv(tag byte, content []byte) []byte {
	length, err := encodeLength(len(content))
	if err != nil {
		// Certificate fields are bounded well under 65536 bytes by
		// construction; a failure here indicates a caller bug.
		panic(err)
	}
	out := make([]byte, 0, 1+len(length)+len(content))
	out = append(out, tag)
	out = append(out, length...)
	out = append(out, content...)
	return out
}

// Integer DER-encodes an INTEGER, prepending a 0x00 sign-padding byte
// when the leading bit of the value would otherwise be interpreted as
// negative.
func Integer(value []byte) []byte {
	content := value
	if len(content) == 0 {
		content = []byte{0x00}
	}
	if content[0]&0x80 != 0 {
		padded := make([]byte, len(content)+1)
		copy(padded[1:], content)
		content = padded
	}
	return tlv(tagInteger, content)
}

// IntegerFromUint64 DER-encodes a non-negative integer given as a uint64.
func IntegerFromUint64(v uint64) []byte {
	if v == 0 {
		return Integer([]byte{0x00})
	}
	var buf [8]byte
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	i := 0
	for i < 7 && buf[i] == 0 {
		i++
	}
	return Integer(buf[i:])
}

// BitString DER-encodes a BIT STRING whose content is an integral number
// of bytes (unused-bits count is always 0 for this builder's purposes).
func BitString(data []byte) []byte {
	content := make([]byte, 0, len(data)+1)
	content = append(content, 0x00)
	content = append(content, data...)
	return tlv(tagBitString, content)
}

// Null DER-encodes a NULL value.
func Null() []byte {
	return []byte{tagNull, 0x00}
}

// OID DER-encodes an object identifier given as its dotted-decimal arc
// values, e.g. OID(1, 2, 840, 113549, 1, 1, 11).
func OID(arcs ...uint64) []byte {
	if len(arcs) < 2 {
		panic("certbuilder: OID requires at least two arcs")
	}
	content := []byte{byte(arcs[0]*40 + arcs[1])}
	for _, arc := range arcs[2:] {
		content = append(content, encodeBase128(arc)...)
	}
	return tlv(tagOID, content)
}

// encodeBase128 encodes a single OID arc value in base-128 with the
// continuation bit set on every octet but the last.
func encodeBase128(v uint64) []byte {
	if v == 0 {
		return []byte{0x00}
	}
	var rev []byte
	for v > 0 {
		rev = append(rev, byte(v&0x7f))
		v >>= 7
	}
	out := make([]byte, len(rev))
	for i, b := range rev {
		last := i == 0
		pos := len(rev) - 1 - i
		if !last {
			b |= 0x80
		}
		out[pos] = b
	}
	return out
}

// UTF8String DER-encodes a UTF8String.
func UTF8String(s string) []byte {
	return tlv(tagUTF8String, []byte(s))
}

// UTCTime DER-encodes a time in YYMMDDHHMMSSZ form. Callers pass an
// already-formatted string; see (time.Time).Format with layout
// "060102150405Z".
func UTCTime(formatted string) []byte {
	return tlv(tagUTCTime, []byte(formatted))
}

// Sequence DER-encodes a SEQUENCE wrapping the concatenation of already
// encoded child elements.
func Sequence(children ...[]byte) []byte {
	var content []byte
	for _, c := range children {
		content = append(content, c...)
	}
	return tlv(tagSequence, content)
}

// Set DER-encodes a SET wrapping the concatenation of already encoded
// child elements.
func Set(children ...[]byte) []byte {
	var content []byte
	for _, c := range children {
		content = append(content, c...)
	}
	return tlv(tagSet, content)
}

// ContextTag wraps content in an explicit [n] context tag, constructed
// form (0xA0 | n).
func ContextTag(n int, content []byte) []byte {
	if n < 0 || n > 30 {
		panic("certbuilder: context tag out of range")
	}
	return tlv(byte(tagContext0|n), content)
}

// OctetString DER-encodes an OCTET STRING.
func OctetString(content []byte) []byte {
	return tlv(0x04, content)
}

// Boolean DER-encodes a BOOLEAN.
func Boolean(v bool) []byte {
	b := byte(0x00)
	if v {
		b = 0xff
	}
	return tlv(0x01, []byte{b})
}
