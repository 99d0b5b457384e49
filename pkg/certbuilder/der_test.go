package certbuilder

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeLengthRoundTrip(t *testing.T) {
	for n := 0; n <= 65535; n += 37 {
		enc, err := encodeLength(n)
		if err != nil {
			t.Fatalf("encodeLength(%d): %v", n, err)
		}
		got, consumed, err := decodeLength(enc)
		if err != nil {
			t.Fatalf("decodeLength(%d): %v", n, err)
		}
		if got != n || consumed != len(enc) {
			t.Fatalf("round trip(%d) = (%d, %d), want (%d, %d)", n, got, consumed, n, len(enc))
		}
	}
	// Boundaries explicitly, since the stride above may skip them.
	for _, n := range []int{0, 1, 127, 128, 255, 256, 65535} {
		enc, err := encodeLength(n)
		if err != nil {
			t.Fatalf("encodeLength(%d): %v", n, err)
		}
		got, _, err := decodeLength(enc)
		if err != nil || got != n {
			t.Fatalf("boundary round trip(%d) = (%d, %v)", n, got, err)
		}
	}
}

func TestEncodeLengthFormSelection(t *testing.T) {
	tests := []struct {
		n       int
		wantLen int
	}{
		{0, 1},
		{127, 1},
		{128, 2},
		{255, 2},
		{256, 3},
		{65535, 3},
	}
	for _, tt := range tests {
		enc, err := encodeLength(tt.n)
		if err != nil {
			t.Fatalf("encodeLength(%d): %v", tt.n, err)
		}
		if len(enc) != tt.wantLen {
			t.Fatalf("encodeLength(%d) produced %d bytes, want %d", tt.n, len(enc), tt.wantLen)
		}
	}
}

func TestIntegerSignPadding(t *testing.T) {
	// Top bit set requires a 0x00 pad byte.
	got := Integer([]byte{0x80})
	want := []byte{tagInteger, 0x02, 0x00, 0x80}
	if !bytes.Equal(got, want) {
		t.Fatalf("Integer(0x80) = % x, want % x", got, want)
	}

	// Top bit clear needs no padding.
	got = Integer([]byte{0x7f})
	want = []byte{tagInteger, 0x01, 0x7f}
	if !bytes.Equal(got, want) {
		t.Fatalf("Integer(0x7f) = % x, want % x", got, want)
	}
}

func TestOIDEncoding(t *testing.T) {
	// 1.2.840.113549.1.1.11 (sha256WithRSAEncryption)
	got := OID(1, 2, 840, 113549, 1, 1, 11)
	want := []byte{tagOID, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x01, 0x0b}
	if !bytes.Equal(got, want) {
		t.Fatalf("OID = % x, want % x", got, want)
	}
}

func TestBitStringUnusedBitsByte(t *testing.T) {
	got := BitString([]byte{0xAB})
	want := []byte{tagBitString, 0x02, 0x00, 0xAB}
	if !bytes.Equal(got, want) {
		t.Fatalf("BitString = % x, want % x", got, want)
	}
}

func TestNull(t *testing.T) {
	if !bytes.Equal(Null(), []byte{tagNull, 0x00}) {
		t.Fatalf("Null() = % x", Null())
	}
}
