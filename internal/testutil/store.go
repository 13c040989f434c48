package testutil

import (
	"testing"

	"sndctl/internal/state"
)

// NewTestStore creates an in-memory state store, closed when the test
// ends.
func NewTestStore(t *testing.T) *state.SQLiteStore {
	t.Helper()
	s, err := state.Open(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory state store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
