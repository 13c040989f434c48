package upload

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// MaxFileSize is the client-side size ceiling. The server remains
	// authoritative on the exact limit; this pre-filter only avoids
	// uploads that are certain to be rejected.
	MaxFileSize = 1 * 1024 * 1024

	// NameMaxLength is the display-name limit, enforced at the point of
	// entry independent of server-side validation.
	NameMaxLength = 32
)

// AllowedExtensions is the client-side extension allow-list. Duration and
// real MIME checks stay server-side.
var AllowedExtensions = []string{".mp3", ".wav", ".ogg"}

// ValidationError is a client-side rejection that never reaches the
// server and consumes no cooldown budget.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// validateFile checks the cheap local constraints: byte size and file
// extension.
func validateFile(filename string, size int64) error {
	if size > MaxFileSize {
		return &ValidationError{Reason: fmt.Sprintf("file exceeds the maximum size of %d bytes", int64(MaxFileSize))}
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return &ValidationError{Reason: fmt.Sprintf("unsupported extension %q, accepted: %s", ext, strings.Join(AllowedExtensions, ", "))}
}

// DefaultName derives a display name from a filename: the stem with case
// preserved, truncated to NameMaxLength.
func DefaultName(filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return ClampName(stem)
}

// ClampName truncates a name to NameMaxLength characters.
func ClampName(name string) string {
	runes := []rune(name)
	if len(runes) > NameMaxLength {
		return string(runes[:NameMaxLength])
	}
	return name
}
