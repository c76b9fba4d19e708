package testsupport

import (
	"testing"

	"montage/internal/config"
	"montage/internal/renderjob"
)

// MustOpenStore opens a renderjob.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *renderjob.Store {
	t.Helper()

	store, err := renderjob.Open(cfg.QueueDBPath())
	if err != nil {
		t.Fatalf("renderjob.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
