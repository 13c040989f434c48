package upload

import (
	"strings"
	"testing"
)

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  bool
	}{
		{"mp3 under limit", "horn.mp3", 1024, false},
		{"wav under limit", "horn.wav", 1024, false},
		{"ogg under limit", "horn.ogg", 1024, false},
		{"uppercase extension", "HORN.MP3", 1024, false},
		{"exactly at limit", "horn.mp3", MaxFileSize, false},
		{"one byte over limit", "horn.mp3", MaxFileSize + 1, true},
		{"disallowed extension", "horn.flac", 1024, true},
		{"no extension", "horn", 1024, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFile(tt.filename, tt.size)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFile(%q, %d) error = %v, wantErr %v", tt.filename, tt.size, err, tt.wantErr)
			}
			if err != nil {
				if _, ok := err.(*ValidationError); !ok {
					t.Errorf("error type = %T, want *ValidationError", err)
				}
			}
		})
	}
}

func TestDefaultName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"airhorn.mp3", "airhorn"},
		{"My Great Sound.wav", "My Great Sound"},
		{"/tmp/clips/horn.ogg", "horn"},
		{"noext", "noext"},
		{strings.Repeat("a", 40) + ".mp3", strings.Repeat("a", 32)},
	}

	for _, tt := range tests {
		if got := DefaultName(tt.filename); got != tt.want {
			t.Errorf("DefaultName(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestClampName(t *testing.T) {
	t.Run("short name unchanged", func(t *testing.T) {
		if got := ClampName("short"); got != "short" {
			t.Errorf("ClampName = %q, want %q", got, "short")
		}
	})

	t.Run("long name truncated to 32", func(t *testing.T) {
		got := ClampName(strings.Repeat("x", 50))
		if len(got) != NameMaxLength {
			t.Errorf("len = %d, want %d", len(got), NameMaxLength)
		}
	})

	t.Run("multibyte runes counted as one", func(t *testing.T) {
		name := strings.Repeat("ü", 33)
		got := ClampName(name)
		if got != strings.Repeat("ü", 32) {
			t.Errorf("ClampName = %q, want 32 runes", got)
		}
	})
}
