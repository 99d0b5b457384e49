package rsaparse

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/atvremote/atvremote-go/pkg/certbuilder"
)

func TestParseFreshKeyNoLeadingZero(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	der := certbuilder.Sequence(
		certbuilder.Integer(key.N.Bytes()),
		certbuilder.IntegerFromUint64(uint64(key.E)),
	)

	pub, err := Parse(der)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(pub.Modulus) > 0 && pub.Modulus[0] == 0x00 {
		t.Fatalf("Modulus has leading zero byte: % x", pub.Modulus[:4])
	}
	if !bytes.Equal(pub.Modulus, key.N.Bytes()) {
		t.Fatal("Modulus does not match key.N.Bytes()")
	}
	wantExp := []byte{0x01, 0x00, 0x01}
	if !bytes.Equal(pub.Exponent, wantExp) {
		t.Fatalf("Exponent = % x, want % x", pub.Exponent, wantExp)
	}
}

func TestParseStripsModulusPaddingOnly(t *testing.T) {
	// Modulus with sign-padding: top bit set forces a 0x00 byte.
	modulus := []byte{0x00, 0x80, 0x01}
	exponent := []byte{0x00, 0x01, 0x00, 0x01} // pretend exponent also has a leading zero; must NOT be stripped

	der := certbuilder.Sequence(
		certbuilder.Integer(modulus),
		rawInteger(exponent),
	)

	pub, err := Parse(der)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !bytes.Equal(pub.Modulus, []byte{0x80, 0x01}) {
		t.Fatalf("Modulus = % x, want [0x80 0x01]", pub.Modulus)
	}
	if !bytes.Equal(pub.Exponent, exponent) {
		t.Fatalf("Exponent = % x, want unmodified % x", pub.Exponent, exponent)
	}
}

func TestParseMalformedInputs(t *testing.T) {
	cases := [][]byte{
		nil,
		{0x31, 0x00},       // wrong outer tag
		{0x30, 0x02, 0x02}, // truncated length/content
		{0x30, 0x00},       // empty sequence, missing modulus integer
	}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Fatalf("Parse(% x) succeeded, want error", c)
		}
	}
}

// rawInteger encodes an INTEGER without the sign-padding normalization
// certbuilder.Integer applies, so tests can construct inputs with a
// deliberately redundant leading zero on the exponent.
func rawInteger(content []byte) []byte {
	length := byte(len(content))
	out := []byte{0x02, length}
	return append(out, content...)
}
