// Package session stores the backend session credential. The Steam login
// flow needs a browser, so the CLI receives the resulting session cookie
// from the user and keeps it age-encrypted at rest: the cookie file is
// encrypted to an X25519 identity generated at config init.
package session

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
)

// FileStore persists the session cookie next to the identity that
// encrypts it.
type FileStore struct {
	identityPath   string
	credentialPath string
}

// NewFileStore creates a store rooted at the given paths.
func NewFileStore(identityPath, credentialPath string) *FileStore {
	return &FileStore{
		identityPath:   identityPath,
		credentialPath: credentialPath,
	}
}

// Init generates the X25519 identity if it does not exist yet. The
// identity file is created with mode 0600.
func (s *FileStore) Init() error {
	if _, err := os.Stat(s.identityPath); err == nil {
		return nil
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating identity: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.identityPath), 0700); err != nil {
		return fmt.Errorf("creating identity directory: %w", err)
	}
	if err := os.WriteFile(s.identityPath, []byte(identity.String()+"\n"), 0600); err != nil {
		return fmt.Errorf("writing identity: %w", err)
	}
	return nil
}

// IsConfigured reports whether the identity exists.
func (s *FileStore) IsConfigured() bool {
	_, err := os.Stat(s.identityPath)
	return err == nil
}

// Save encrypts the session cookie to the identity and writes it.
func (s *FileStore) Save(cookie string) error {
	identity, err := s.loadIdentity()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.credentialPath), 0700); err != nil {
		return fmt.Errorf("creating credential directory: %w", err)
	}

	f, err := os.OpenFile(s.credentialPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating credential file: %w", err)
	}
	defer f.Close()

	w, err := age.Encrypt(f, identity.Recipient())
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, cookie); err != nil {
		return fmt.Errorf("writing credential: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing credential: %w", err)
	}
	return nil
}

// Load decrypts and returns the stored session cookie. ok is false when
// no credential is stored.
func (s *FileStore) Load() (cookie string, ok bool, err error) {
	data, err := os.ReadFile(s.credentialPath)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading credential file: %w", err)
	}

	identity, err := s.loadIdentity()
	if err != nil {
		return "", false, err
	}

	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return "", false, fmt.Errorf("decrypting credential: %w", err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return "", false, fmt.Errorf("reading credential: %w", err)
	}
	return strings.TrimSpace(string(plain)), true, nil
}

// Delete removes the stored credential. Deleting a credential that does
// not exist is not an error.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.credentialPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credential: %w", err)
	}
	return nil
}

func (s *FileStore) loadIdentity() (*age.X25519Identity, error) {
	data, err := os.ReadFile(s.identityPath)
	if err != nil {
		return nil, fmt.Errorf("reading identity (run \"sndctl config init\" first): %w", err)
	}

	identity, err := age.ParseX25519Identity(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parsing identity: %w", err)
	}
	return identity, nil
}
