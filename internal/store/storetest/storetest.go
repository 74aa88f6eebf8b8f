// Package storetest opens throwaway ledger databases for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gledger-dev/gledger/internal/store"
)

// New opens a migrated database in a temporary directory that is closed
// when the test ends.
func New(t testing.TB) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}
