package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	creds, err := store.Load()
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if !creds.Empty() {
		t.Fatalf("fresh store not empty: %+v", creds)
	}
	want := Credentials{AccessToken: "at", RefreshToken: "rt"}
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("load = %+v, want %+v", got, want)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ = store.Load()
	if !got.Empty() {
		t.Fatalf("cleared store not empty: %+v", got)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store, err := NewFileStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	want := Credentials{AccessToken: "at", RefreshToken: "rt"}
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("token file mode = %o, want 600", perm)
	}

	reopened, err := NewFileStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("load = %+v, want %+v", got, want)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("clear should remove the backing file")
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear on missing file: %v", err)
	}
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "tokens.json"), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	creds, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !creds.Empty() {
		t.Fatalf("missing file should load empty, got %+v", creds)
	}
}

func TestFileStoreDropsPartialPair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	if err := os.WriteFile(path, []byte(`{"access_token":"only-half"}`), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	store, err := NewFileStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	creds, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !creds.Empty() {
		t.Fatalf("partial pair should be dropped, got %+v", creds)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("partial pair file should be removed")
	}
}

func TestFileStoreRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	store, err := NewFileStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFileStoreWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store, err := NewFileStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	changes := make(chan Credentials, 4)
	stop, err := store.Watch(func(creds Credentials) { changes <- creds })
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer stop()

	// A second store on the same path stands in for another process.
	other, err := NewFileStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("second store: %v", err)
	}
	want := Credentials{AccessToken: "at-ext", RefreshToken: "rt-ext"}
	if err := other.Save(want); err != nil {
		t.Fatalf("external save: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case got := <-changes:
			if got == want {
				stop()
				stop() // stop is idempotent
				return
			}
		case <-deadline:
			t.Fatal("watcher never reported the external write")
		}
	}
}
