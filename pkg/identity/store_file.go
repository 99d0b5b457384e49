package identity

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	identityMetaFile = "identity.json"
	identityCertFile = "identity.pem"
	identityKeyFile  = "identity.key.enc"

	pbkdf2Iterations = 100_000
	pbkdf2KeyLength  = 32
)

// FileStore is a file-backed Store, used on platforms with no OS
// keychain. The certificate is stored as plain PEM (it is not secret);
// the private key is encrypted at rest with a key derived from a
// device-specific passphrase via PBKDF2-HMAC-SHA256, matching the design
// notes' allowance for "encrypted with a device-derived key" where no
// keychain exists.
type FileStore struct {
	mu         sync.Mutex
	baseDir    string
	passphrase []byte
}

// NewFileStore returns a FileStore rooted at baseDir, encrypting the
// private key with the given device-derived passphrase (e.g. a
// machine ID or installation-specific secret).
func NewFileStore(baseDir string, passphrase []byte) *FileStore {
	return &FileStore{baseDir: baseDir, passphrase: passphrase}
}

type fileStoreMeta struct {
	Version int    `json:"version"`
	Salt    []byte `json:"salt"`
}

func (s *FileStore) metaPath() string { return filepath.Join(s.baseDir, identityMetaFile) }
func (s *FileStore) certPath() string { return filepath.Join(s.baseDir, identityCertFile) }
func (s *FileStore) keyPath() string  { return filepath.Join(s.baseDir, identityKeyFile) }

// LoadVersion implements Store.
func (s *FileStore) LoadVersion() (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, ok, err := s.readMeta()
	if err != nil || !ok {
		return 0, ok, err
	}
	return meta.Version, true, nil
}

// Load implements Store.
func (s *FileStore) Load() (*Identity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, ok, err := s.readMeta()
	if err != nil || !ok {
		return nil, ok, err
	}

	certPEM, err := os.ReadFile(s.certPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("identity: read cert: %w", err)
	}
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, false, fmt.Errorf("identity: invalid certificate PEM")
	}

	encryptedKey, err := os.ReadFile(s.keyPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("identity: read key: %w", err)
	}
	keyDER, err := s.decrypt(meta.Salt, encryptedKey)
	if err != nil {
		return nil, false, fmt.Errorf("identity: decrypt key: %w", err)
	}
	key, err := x509.ParsePKCS1PrivateKey(keyDER)
	if err != nil {
		return nil, false, fmt.Errorf("identity: parse stored key: %w", err)
	}

	return &Identity{PrivateKey: key, CertificateDER: block.Bytes}, true, nil
}

// Save implements Store.
func (s *FileStore) Save(id *Identity, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return fmt.Errorf("identity: mkdir: %w", err)
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("identity: generate salt: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: id.CertificateDER})
	if err := os.WriteFile(s.certPath(), certPEM, 0644); err != nil {
		return fmt.Errorf("identity: write cert: %w", err)
	}

	keyDER := x509.MarshalPKCS1PrivateKey(id.PrivateKey)
	encryptedKey, err := s.encrypt(salt, keyDER)
	if err != nil {
		return fmt.Errorf("identity: encrypt key: %w", err)
	}
	if err := os.WriteFile(s.keyPath(), encryptedKey, 0600); err != nil {
		return fmt.Errorf("identity: write key: %w", err)
	}

	meta := fileStoreMeta{Version: version, Salt: salt}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("identity: marshal meta: %w", err)
	}
	if err := os.WriteFile(s.metaPath(), data, 0644); err != nil {
		return fmt.Errorf("identity: write meta: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *FileStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range []string{s.metaPath(), s.certPath(), s.keyPath()} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("identity: delete %s: %w", p, err)
		}
	}
	return nil
}

func (s *FileStore) readMeta() (fileStoreMeta, bool, error) {
	data, err := os.ReadFile(s.metaPath())
	if err != nil {
		if os.IsNotExist(err) {
			return fileStoreMeta{}, false, nil
		}
		return fileStoreMeta{}, false, fmt.Errorf("identity: read meta: %w", err)
	}
	var meta fileStoreMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return fileStoreMeta{}, false, fmt.Errorf("identity: unmarshal meta: %w", err)
	}
	return meta, true, nil
}

func (s *FileStore) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(s.passphrase, salt, pbkdf2Iterations, pbkdf2KeyLength, sha256.New)
}

func (s *FileStore) encrypt(salt, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.deriveKey(salt))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *FileStore) decrypt(salt, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.deriveKey(salt))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("identity: ciphertext too short")
	}
	nonce, data := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, data, nil)
}

var _ Store = (*FileStore)(nil)
