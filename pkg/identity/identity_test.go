package identity

import (
	"path/filepath"
	"testing"
)

func TestGetOrCreateIdentityGeneratesOnce(t *testing.T) {
	store := NewMemoryStore()

	first, err := GetOrCreateIdentity(store)
	if err != nil {
		t.Fatalf("GetOrCreateIdentity: %v", err)
	}
	if first.PrivateKey == nil || len(first.CertificateDER) == 0 {
		t.Fatal("generated identity is incomplete")
	}

	second, err := GetOrCreateIdentity(store)
	if err != nil {
		t.Fatalf("GetOrCreateIdentity (second call): %v", err)
	}
	if second.PrivateKey.N.Cmp(first.PrivateKey.N) != 0 {
		t.Fatal("second call generated a new identity instead of reusing the stored one")
	}
}

func TestGetOrCreateIdentityUpgradesStaleVersion(t *testing.T) {
	store := NewMemoryStore()

	original, err := GetOrCreateIdentity(store)
	if err != nil {
		t.Fatalf("GetOrCreateIdentity: %v", err)
	}

	// Simulate a store left over from an older certificate format.
	store.version = CurrentCertFormatVersion - 1

	upgraded, err := GetOrCreateIdentity(store)
	if err != nil {
		t.Fatalf("GetOrCreateIdentity (upgrade): %v", err)
	}
	if upgraded.PrivateKey.N.Cmp(original.PrivateKey.N) == 0 {
		t.Fatal("expected a freshly generated identity after a stale version was detected")
	}

	version, ok, err := store.LoadVersion()
	if err != nil || !ok || version != CurrentCertFormatVersion {
		t.Fatalf("LoadVersion = (%d, %v, %v), want (%d, true, nil)", version, ok, err, CurrentCertFormatVersion)
	}
}

func TestImportIdentityRejectsMismatchedCertificate(t *testing.T) {
	store := NewMemoryStore()

	a, err := GetOrCreateIdentity(store)
	if err != nil {
		t.Fatalf("GetOrCreateIdentity: %v", err)
	}

	other := NewMemoryStore()
	b, err := GetOrCreateIdentity(other)
	if err != nil {
		t.Fatalf("GetOrCreateIdentity (other): %v", err)
	}

	importStore := NewMemoryStore()
	_, err = ImportIdentity(importStore, a.GetPrivateKeyRaw(), b.CertificateDER)
	if err == nil {
		t.Fatal("expected mismatch error importing key with a foreign certificate")
	}
}

func TestImportIdentityRoundTrip(t *testing.T) {
	source := NewMemoryStore()
	original, err := GetOrCreateIdentity(source)
	if err != nil {
		t.Fatalf("GetOrCreateIdentity: %v", err)
	}

	dest := NewMemoryStore()
	imported, err := ImportIdentity(dest, original.GetPrivateKeyRaw(), original.CertificateDER)
	if err != nil {
		t.Fatalf("ImportIdentity: %v", err)
	}
	if imported.PrivateKey.N.Cmp(original.PrivateKey.N) != 0 {
		t.Fatal("imported key does not match original")
	}

	loaded, ok, err := dest.Load()
	if err != nil || !ok {
		t.Fatalf("Load after import = (%v, %v)", ok, err)
	}
	if loaded.PrivateKey.N.Cmp(original.PrivateKey.N) != 0 {
		t.Fatal("persisted imported identity does not match original")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "identity"), []byte("device-passphrase"))

	id, err := GetOrCreateIdentity(store)
	if err != nil {
		t.Fatalf("GetOrCreateIdentity: %v", err)
	}

	reopened := NewFileStore(filepath.Join(dir, "identity"), []byte("device-passphrase"))
	loaded, err := GetOrCreateIdentity(reopened)
	if err != nil {
		t.Fatalf("GetOrCreateIdentity (reopened): %v", err)
	}
	if loaded.PrivateKey.N.Cmp(id.PrivateKey.N) != 0 {
		t.Fatal("reopened store produced a different identity")
	}
}

func TestFileStoreWrongPassphraseFailsToDecrypt(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "identity"), []byte("correct-passphrase"))
	if _, err := GetOrCreateIdentity(store); err != nil {
		t.Fatalf("GetOrCreateIdentity: %v", err)
	}

	wrong := NewFileStore(filepath.Join(dir, "identity"), []byte("wrong-passphrase"))
	if _, err := GetOrCreateIdentity(wrong); err == nil {
		t.Fatal("expected decryption failure with wrong passphrase")
	}
}
