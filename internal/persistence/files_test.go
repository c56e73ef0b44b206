// internal/persistence/files_test.go

package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"querykv/internal/store"
)

// snapshotOf builds a store with one seeded collection and returns its
// encoded payload.
func snapshotOf(t *testing.T, name string, entries ...store.Entry) []byte {
	t.Helper()
	s := store.NewStore()
	if err := s.CreateCollection(name); err != nil {
		t.Fatal(err)
	}
	for _, ent := range entries {
		if err := s.Put(name, ent.Key, ent.Value); err != nil {
			t.Fatal(err)
		}
	}
	payload, ok := s.Snapshot()[name]
	if !ok {
		t.Fatalf("no snapshot payload for %s", name)
	}
	return payload
}

func TestSaveAndLoadCollection(t *testing.T) {
	dir := t.TempDir()
	payload := snapshotOf(t, "ages",
		store.Entry{Key: store.IntValue(1), Value: store.IntValue(20)},
		store.Entry{Key: store.IntValue(2), Value: store.IntValue(25)},
	)

	if err := SaveCollection(dir, "ages", payload); err != nil {
		t.Fatal(err)
	}

	got, found, err := LoadCollection(dir, "ages")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected file to exist")
	}
	if string(got) != string(payload) {
		t.Fatal("payload does not round trip")
	}

	// No temp file may survive a successful save.
	if _, err := os.Stat(filepath.Join(dir, "ages.tmp")); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestLoadCollectionMissing(t *testing.T) {
	payload, found, err := LoadCollection(t.TempDir(), "ages")
	if err != nil {
		t.Fatal(err)
	}
	if found || payload != nil {
		t.Fatalf("expected not found, got found=%v payload=%v", found, payload)
	}
}

func TestSaveCollectionCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	if err := SaveCollection(dir, "ages", []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ages")); err != nil {
		t.Fatal(err)
	}
}

func TestSaveCollectionFailure(t *testing.T) {
	// A regular file where the data directory should be makes MkdirAll fail.
	blocked := filepath.Join(t.TempDir(), "plug")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := SaveCollection(blocked, "ages", []byte{1})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestDiscoverCollections(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ages", "cars", "bad.tmp", "num1"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	names, err := DiscoverCollections(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Fatalf("expected [ages cars], got %v", names)
	}
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["ages"] || !found["cars"] {
		t.Fatalf("expected ages and cars, got %v", names)
	}
}

func TestDiscoverCollectionsMissingDir(t *testing.T) {
	names, err := DiscoverCollections(filepath.Join(t.TempDir(), "nowhere"))
	if err != nil {
		t.Fatal(err)
	}
	if names != nil {
		t.Fatalf("expected nil, got %v", names)
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()

	carsPayload := snapshotOf(t, "cars",
		store.Entry{Key: store.TextValue("1000"), Value: store.TextValue("bmw")},
	)
	if err := SaveCollection(dir, "cars", carsPayload); err != nil {
		t.Fatal(err)
	}
	usersPayload := snapshotOf(t, "users",
		store.Entry{Key: store.IntValue(7), Value: store.TextValue("ada")},
	)
	if err := SaveCollection(dir, "users", usersPayload); err != nil {
		t.Fatal(err)
	}
	// A file that does not decode must still yield an empty collection.
	if err := os.WriteFile(filepath.Join(dir, "junk"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := store.NewStore()
	LoadAll(s, dir, []string{"ages", "cars", "ages"})

	t.Run("configured without file starts empty", func(t *testing.T) {
		ents, err := s.Entries("ages")
		if err != nil {
			t.Fatal(err)
		}
		if len(ents) != 0 {
			t.Fatalf("expected empty collection, got %v", ents)
		}
	})

	t.Run("configured with file is loaded", func(t *testing.T) {
		ent, err := s.Get("cars", store.TextValue("1000"))
		if err != nil {
			t.Fatal(err)
		}
		if ent.Value != store.TextValue("bmw") {
			t.Fatalf("unexpected value %#v", ent.Value)
		}
	})

	t.Run("discovered file is loaded", func(t *testing.T) {
		ent, err := s.Get("users", store.IntValue(7))
		if err != nil {
			t.Fatal(err)
		}
		if ent.Value != store.TextValue("ada") {
			t.Fatalf("unexpected value %#v", ent.Value)
		}
	})

	t.Run("undecodable file starts empty", func(t *testing.T) {
		ents, err := s.Entries("junk")
		if err != nil {
			t.Fatal(err)
		}
		if len(ents) != 0 {
			t.Fatalf("expected empty collection, got %v", ents)
		}
	})
}
