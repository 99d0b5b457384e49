package certbuilder

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"time"
)

// CertificateValidity is the lifetime of the generated self-signed
// certificate: ten years from generation, matching the long-lived,
// rarely-regenerated nature of a paired-device identity.
const CertificateValidity = 10 * 365 * 24 * time.Hour

// CommonName is the fixed subject/issuer CN this client always presents.
const CommonName = "atvremote"

// oidSHA256WithRSAEncryption and oidRSAEncryption are the two algorithm
// identifiers this certificate ever uses.
var (
	oidSHA256WithRSAEncryption = []uint64{1, 2, 840, 113549, 1, 1, 11}
	oidRSAEncryption           = []uint64{1, 2, 840, 113549, 1, 1, 1}
	oidBasicConstraints        = []uint64{2, 5, 29, 19}
	oidCommonName              = []uint64{2, 5, 4, 3}
)

// Result is a built self-signed certificate and the key pair it attests
// to.
type Result struct {
	// CertificateDER is the complete DER-encoded X.509 certificate.
	CertificateDER []byte

	// PrivateKey is the RSA-2048 key pair the certificate was issued for.
	PrivateKey *rsa.PrivateKey
}

// algorithmIdentifier DER-encodes AlgorithmIdentifier ::= SEQUENCE { OID,
// NULL } — every algorithm this builder uses takes a NULL parameter.
func algorithmIdentifier(oid []uint64) []byte {
	return Sequence(OID(oid...), Null())
}

// rdnCommonName DER-encodes Name ::= RDNSequence containing a single
// CN=value RelativeDistinguishedName.
func rdnCommonName(value string) []byte {
	attr := Sequence(OID(oidCommonName...), UTF8String(value))
	rdn := Set(attr)
	return Sequence(rdn)
}

// rsaPublicKeyPKCS1 DER-encodes RSAPublicKey ::= SEQUENCE { modulus
// INTEGER, publicExponent INTEGER }.
func rsaPublicKeyPKCS1(pub *rsa.PublicKey) []byte {
	return Sequence(
		Integer(pub.N.Bytes()),
		IntegerFromUint64(uint64(pub.E)),
	)
}

// subjectPublicKeyInfo DER-encodes SubjectPublicKeyInfo ::= SEQUENCE {
// algorithm AlgorithmIdentifier, subjectPublicKey BIT STRING }.
func subjectPublicKeyInfo(pub *rsa.PublicKey) []byte {
	return Sequence(
		algorithmIdentifier(oidRSAEncryption),
		BitString(rsaPublicKeyPKCS1(pub)),
	)
}

// basicConstraintsExtension DER-encodes the required critical Basic
// Constraints extension (cA=TRUE).
func basicConstraintsExtension() []byte {
	extnValue := Sequence(Boolean(true))
	return Sequence(
		OID(oidBasicConstraints...),
		Boolean(true), // critical
		OctetString(extnValue),
	)
}

// serialNumber generates an 8-byte random positive serial number (top
// bit cleared so the DER INTEGER encoding needs no sign-padding byte,
// though Integer would add one correctly regardless).
func serialNumber() ([]byte, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("certbuilder: generate serial: %w", err)
	}
	buf[0] &^= 0x80
	return buf, nil
}

// Generate creates a fresh RSA-2048 key pair and a self-signed v3
// certificate for it, per the Android TV Remote pairing client's
// certificate shape: CN=atvremote issuer/subject, 10-year validity,
// sha256WithRSAEncryption, and a critical Basic Constraints cA=TRUE
// extension.
func Generate() (*Result, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("certbuilder: generate key: %w", err)
	}
	der, err := BuildSelfSigned(key)
	if err != nil {
		return nil, err
	}
	return &Result{CertificateDER: der, PrivateKey: key}, nil
}

// BuildSelfSigned builds a self-signed certificate DER for an existing
// RSA key pair, without generating a new key. Used by the identity store
// to rebuild a certificate for an imported key.
func BuildSelfSigned(key *rsa.PrivateKey) ([]byte, error) {
	serial, err := serialNumber()
	if err != nil {
		return nil, err
	}

	notBefore := time.Now().UTC()
	notAfter := notBefore.Add(CertificateValidity)

	tbs := Sequence(
		ContextTag(0, IntegerFromUint64(2)), // version = v3 (encoded value 2)
		Integer(serial),
		algorithmIdentifier(oidSHA256WithRSAEncryption),
		rdnCommonName(CommonName), // issuer
		Sequence(
			UTCTime(notBefore.Format("060102150405Z")),
			UTCTime(notAfter.Format("060102150405Z")),
		),
		rdnCommonName(CommonName), // subject
		subjectPublicKeyInfo(&key.PublicKey),
		ContextTag(3, Sequence(basicConstraintsExtension())),
	)

	signature, err := sign(key, tbs)
	if err != nil {
		return nil, err
	}

	cert := Sequence(
		tbs,
		algorithmIdentifier(oidSHA256WithRSAEncryption),
		BitString(signature),
	)
	return cert, nil
}

// sign computes RSASSA-PKCS1-v1.5 SHA-256 over the TBS bytes.
func sign(key *rsa.PrivateKey, tbs []byte) ([]byte, error) {
	digest := sha256.Sum256(tbs)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("certbuilder: sign TBS: %w", err)
	}
	return sig, nil
}
