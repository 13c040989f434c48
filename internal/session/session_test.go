package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	dir := t.TempDir()
	return NewFileStore(
		filepath.Join(dir, "keys", "sndctl.key"),
		filepath.Join(dir, "session.age"),
	)
}

func TestFileStore_Init(t *testing.T) {
	t.Run("generates identity with restricted mode", func(t *testing.T) {
		s := newTestStore(t)

		if s.IsConfigured() {
			t.Fatal("IsConfigured() = true before Init")
		}
		if err := s.Init(); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if !s.IsConfigured() {
			t.Fatal("IsConfigured() = false after Init")
		}

		info, err := os.Stat(s.identityPath)
		if err != nil {
			t.Fatalf("stat identity: %v", err)
		}
		if got := info.Mode().Perm(); got != 0600 {
			t.Errorf("identity mode = %o, want 0600", got)
		}
	})

	t.Run("second init keeps the existing identity", func(t *testing.T) {
		s := newTestStore(t)

		if err := s.Init(); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		first, err := os.ReadFile(s.identityPath)
		if err != nil {
			t.Fatalf("reading identity: %v", err)
		}

		if err := s.Init(); err != nil {
			t.Fatalf("second Init() error = %v", err)
		}
		second, err := os.ReadFile(s.identityPath)
		if err != nil {
			t.Fatalf("reading identity: %v", err)
		}
		if string(first) != string(second) {
			t.Error("Init() replaced an existing identity")
		}
	})
}

func TestFileStore_SaveLoad(t *testing.T) {
	s := newTestStore(t)
	if err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	const cookie = "s%3Aabc123.signature"
	if err := s.Save(cookie); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// The credential must not be readable as plaintext.
	raw, err := os.ReadFile(s.credentialPath)
	if err != nil {
		t.Fatalf("reading credential file: %v", err)
	}
	if strings.Contains(string(raw), "abc123") {
		t.Error("credential stored in plaintext")
	}

	got, ok, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !ok {
		t.Fatal("Load() ok = false")
	}
	if got != cookie {
		t.Errorf("Load() = %q, want %q", got, cookie)
	}
}

func TestFileStore_Load_NoCredential(t *testing.T) {
	s := newTestStore(t)
	if err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	_, ok, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ok {
		t.Error("Load() ok = true with no stored credential")
	}
}

func TestFileStore_Save_WithoutIdentity(t *testing.T) {
	s := newTestStore(t)

	err := s.Save("cookie")
	if err == nil {
		t.Fatal("Save() expected error without identity")
	}
	if !strings.Contains(err.Error(), "config init") {
		t.Errorf("error = %v, want hint to run config init", err)
	}
}

func TestFileStore_Delete(t *testing.T) {
	s := newTestStore(t)
	if err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if err := s.Delete(); err != nil {
		t.Errorf("Delete() with nothing stored error = %v", err)
	}

	if err := s.Save("cookie"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, ok, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ok {
		t.Error("Load() ok = true after Delete")
	}
}
