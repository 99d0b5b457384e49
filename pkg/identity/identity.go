package identity

import (
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/atvremote/atvremote-go/pkg/certbuilder"
)

// CurrentCertFormatVersion is bumped whenever the certificate builder's
// output shape changes in a way that would make previously stored
// certificates invalid. Stores holding an older version are wiped on
// GetOrCreate so a conforming identity regenerates automatically.
const CurrentCertFormatVersion = 3

// ErrNoIdentity indicates the credential store could not materialize a
// usable identity.
var ErrNoIdentity = errors.New("identity: no identity available")

// KeychainError wraps a backend-specific failure status from the
// credential store.
type KeychainError struct {
	Status string
}

func (e *KeychainError) Error() string {
	return fmt.Sprintf("identity: keychain error: %s", e.Status)
}

// Identity is the client's RSA key pair and its self-signed certificate.
type Identity struct {
	PrivateKey     *rsa.PrivateKey
	CertificateDER []byte
}

// Store persists an Identity and the certificate format version it was
// built with. Implementations must be safe for the single-writer access
// pattern described in the concurrency model: at most one goroutine
// calls GetOrCreate/Import at a time.
type Store interface {
	// LoadVersion returns the persisted certificate format version, or
	// ok=false if nothing has been stored yet.
	LoadVersion() (version int, ok bool, err error)

	// Load returns the persisted identity, or ok=false if none exists.
	Load() (id *Identity, ok bool, err error)

	// Save persists the identity and the current format version.
	Save(id *Identity, version int) error

	// Delete removes any persisted identity and version marker.
	Delete() error
}

// GetOrCreateIdentity returns the stored identity, generating and
// persisting one on first use. If the store's persisted format version
// is older than CurrentCertFormatVersion, all existing artifacts are
// deleted first so a conforming identity regenerates — this is the
// upgrade path for certificate-builder bugs and must run before Load.
func GetOrCreateIdentity(store Store) (*Identity, error) {
	version, ok, err := store.LoadVersion()
	if err != nil {
		return nil, fmt.Errorf("identity: load version: %w", err)
	}
	if ok && version < CurrentCertFormatVersion {
		if err := store.Delete(); err != nil {
			return nil, fmt.Errorf("identity: delete stale identity: %w", err)
		}
		ok = false
	}

	if ok {
		id, found, err := store.Load()
		if err != nil {
			return nil, fmt.Errorf("identity: load: %w", err)
		}
		if found {
			return id, nil
		}
	}

	result, err := certbuilder.Generate()
	if err != nil {
		return nil, fmt.Errorf("identity: generate: %w", err)
	}
	id := &Identity{PrivateKey: result.PrivateKey, CertificateDER: result.CertificateDER}
	if err := store.Save(id, CurrentCertFormatVersion); err != nil {
		return nil, fmt.Errorf("identity: save: %w", err)
	}
	return id, nil
}

// ImportIdentity reconstructs a private key from its PKCS#1 DER bytes,
// validates it pairs with the supplied certificate, and persists both as
// the current identity.
func ImportIdentity(store Store, keyDER, certDER []byte) (*Identity, error) {
	key, err := x509.ParsePKCS1PrivateKey(keyDER)
	if err != nil {
		return nil, fmt.Errorf("identity: parse private key: %w", err)
	}
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("identity: parse certificate: %w", err)
	}
	certPub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("identity: certificate public key is not RSA")
	}
	if certPub.N.Cmp(key.PublicKey.N) != 0 || certPub.E != key.PublicKey.E {
		return nil, fmt.Errorf("identity: certificate does not match imported key")
	}

	id := &Identity{PrivateKey: key, CertificateDER: certDER}
	if err := store.Save(id, CurrentCertFormatVersion); err != nil {
		return nil, fmt.Errorf("identity: save imported identity: %w", err)
	}
	return id, nil
}

// GetClientCertificateDER returns the identity's DER-encoded certificate,
// for secret computation and peer transfer.
func (id *Identity) GetClientCertificateDER() []byte {
	if id == nil {
		return nil
	}
	return id.CertificateDER
}

// GetPrivateKeyRaw returns the identity's private key in PKCS#1 DER form,
// for peer transfer during import/export.
func (id *Identity) GetPrivateKeyRaw() []byte {
	if id == nil || id.PrivateKey == nil {
		return nil
	}
	return x509.MarshalPKCS1PrivateKey(id.PrivateKey)
}
