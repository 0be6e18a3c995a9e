package store

import (
	"path/filepath"
	"testing"
	"time"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fixedTime returns a deterministic UTC timestamp offset by n seconds.
func fixedTime(n int) time.Time {
	return time.Date(2026, 3, 14, 9, 0, n, 0, time.UTC)
}
