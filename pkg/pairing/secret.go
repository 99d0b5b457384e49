package pairing

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"strings"

	"github.com/atvremote/atvremote-go/pkg/rsaparse"
)

// normalizePIN uppercases and strips ASCII spaces from a user-entered
// PIN, then validates it is a non-empty, even-length hex string.
func normalizePIN(pin string) ([]byte, error) {
	cleaned := strings.ToUpper(strings.ReplaceAll(pin, " ", ""))
	if len(cleaned) < 2 || len(cleaned)%2 != 0 {
		return nil, fmt.Errorf("pairing: PIN %q is not a valid even-length hex string", pin)
	}
	for _, r := range cleaned {
		if (r < '0' || r > '9') && (r < 'A' || r > 'F') {
			return nil, fmt.Errorf("pairing: PIN %q contains non-hex characters", pin)
		}
	}
	codeBytes := make([]byte, len(cleaned)/2)
	for i := range codeBytes {
		var b byte
		if _, err := fmt.Sscanf(cleaned[2*i:2*i+2], "%02X", &b); err != nil {
			return nil, fmt.Errorf("pairing: decode PIN byte pair: %w", err)
		}
		codeBytes[i] = b
	}
	return codeBytes, nil
}

// rsaPublicKeyComponents extracts the (modulus, exponent) byte pair from
// a DER-encoded X.509 certificate's embedded public key, routed through
// rsaparse so the same byte-exact extraction rules drive both peers'
// keys.
func rsaPublicKeyComponents(certDER []byte) (rsaparse.PublicKey, error) {
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return rsaparse.PublicKey{}, fmt.Errorf("pairing: parse certificate: %w", err)
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return rsaparse.PublicKey{}, fmt.Errorf("pairing: certificate public key is not RSA")
	}
	pkcs1 := x509.MarshalPKCS1PublicKey(pub)
	return rsaparse.Parse(pkcs1)
}

// computeSecret implements the pairing secret algorithm: SHA-256 over
// the concatenation of both peers' RSA public-key components and the
// normalized PIN bytes.
func computeSecret(clientCertDER, serverCertDER, codeBytes []byte) ([]byte, error) {
	clientPub, err := rsaPublicKeyComponents(clientCertDER)
	if err != nil {
		return nil, fmt.Errorf("pairing: client public key: %w", err)
	}
	serverPub, err := rsaPublicKeyComponents(serverCertDER)
	if err != nil {
		return nil, fmt.Errorf("pairing: server public key: %w", err)
	}
	return secretFromComponents(clientPub.Modulus, clientPub.Exponent, serverPub.Modulus, serverPub.Exponent, codeBytes), nil
}

// secretFromComponents computes the pairing secret directly from both
// peers' raw modulus/exponent bytes, without touching a certificate.
// Split out from computeSecret so the hashing step itself can be tested
// against fixed vectors independent of certificate parsing.
func secretFromComponents(clientMod, clientExp, serverMod, serverExp, codeBytes []byte) []byte {
	var hashInput []byte
	hashInput = append(hashInput, clientMod...)
	hashInput = append(hashInput, clientExp...)
	hashInput = append(hashInput, serverMod...)
	hashInput = append(hashInput, serverExp...)
	hashInput = append(hashInput, codeBytes...)

	digest := sha256.Sum256(hashInput)
	return digest[:]
}
