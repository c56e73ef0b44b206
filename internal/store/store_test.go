// internal/store/store_test.go

package store

import (
	"errors"
	"sync"
	"testing"
)

func TestValidCollectionName(t *testing.T) {
	valid := []string{"ages", "Cars", "niños", "Ωmega"}
	for _, name := range valid {
		if !ValidCollectionName(name) {
			t.Errorf("expected %q to be valid", name)
		}
	}
	invalid := []string{"", "abc123", "with space", "dash-ed", "dot.ted", "under_score"}
	for _, name := range invalid {
		if ValidCollectionName(name) {
			t.Errorf("expected %q to be invalid", name)
		}
	}
}

func TestCreateCollection(t *testing.T) {
	s := NewStore()

	if err := s.CreateCollection("ages"); err != nil {
		t.Fatal(err)
	}
	if !s.Exists("ages") {
		t.Fatal("expected collection to exist")
	}

	err := s.CreateCollection("ages")
	if !errors.Is(err, ErrCollectionExists) {
		t.Fatalf("expected ErrCollectionExists, got %v", err)
	}

	err = s.CreateCollection("ages2")
	if !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestDeleteCollection(t *testing.T) {
	s := NewStore()

	err := s.DeleteCollection("ghosts")
	if !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}

	if err := s.CreateCollection("ages"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteCollection("ages"); err != nil {
		t.Fatal(err)
	}
	if s.Exists("ages") {
		t.Fatal("expected collection to be gone")
	}
}

func TestPutGetRemove(t *testing.T) {
	s := NewStore()
	if err := s.CreateCollection("ages"); err != nil {
		t.Fatal(err)
	}

	t.Run("missing collection", func(t *testing.T) {
		if err := s.Put("ghosts", IntValue(1), IntValue(2)); !errors.Is(err, ErrCollectionNotFound) {
			t.Fatalf("expected ErrCollectionNotFound, got %v", err)
		}
		if _, err := s.Get("ghosts", IntValue(1)); !errors.Is(err, ErrCollectionNotFound) {
			t.Fatalf("expected ErrCollectionNotFound, got %v", err)
		}
		if err := s.Remove("ghosts", IntValue(1)); !errors.Is(err, ErrCollectionNotFound) {
			t.Fatalf("expected ErrCollectionNotFound, got %v", err)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		if _, err := s.Get("ages", IntValue(1)); !errors.Is(err, ErrEntryNotFound) {
			t.Fatalf("expected ErrEntryNotFound, got %v", err)
		}
		if err := s.Remove("ages", IntValue(1)); !errors.Is(err, ErrEntryNotFound) {
			t.Fatalf("expected ErrEntryNotFound, got %v", err)
		}
	})

	t.Run("put and get", func(t *testing.T) {
		if err := s.Put("ages", IntValue(1), IntValue(20)); err != nil {
			t.Fatal(err)
		}
		ent, err := s.Get("ages", IntValue(1))
		if err != nil {
			t.Fatal(err)
		}
		if ent.Value != IntValue(20) {
			t.Fatalf("expected 20, got %#v", ent.Value)
		}
	})

	t.Run("keys are exact by kind", func(t *testing.T) {
		if err := s.Put("ages", IntValue(2), TextValue("int two")); err != nil {
			t.Fatal(err)
		}
		if err := s.Put("ages", FloatValue(2), TextValue("float two")); err != nil {
			t.Fatal(err)
		}

		ent, err := s.Get("ages", IntValue(2))
		if err != nil {
			t.Fatal(err)
		}
		if ent.Value != TextValue("int two") {
			t.Fatalf("expected int key entry, got %#v", ent.Value)
		}

		ent, err = s.Get("ages", FloatValue(2))
		if err != nil {
			t.Fatal(err)
		}
		if ent.Value != TextValue("float two") {
			t.Fatalf("expected float key entry, got %#v", ent.Value)
		}

		if _, err := s.Get("ages", TextValue("2")); !errors.Is(err, ErrEntryNotFound) {
			t.Fatalf("expected ErrEntryNotFound for text key, got %v", err)
		}
	})

	t.Run("remove", func(t *testing.T) {
		if err := s.Remove("ages", IntValue(1)); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Get("ages", IntValue(1)); !errors.Is(err, ErrEntryNotFound) {
			t.Fatalf("expected ErrEntryNotFound after remove, got %v", err)
		}
		if err := s.Remove("ages", IntValue(1)); !errors.Is(err, ErrEntryNotFound) {
			t.Fatalf("expected ErrEntryNotFound on second remove, got %v", err)
		}
	})
}

func TestInsertionOrder(t *testing.T) {
	s := NewStore()
	if err := s.CreateCollection("letters"); err != nil {
		t.Fatal(err)
	}

	put := func(k, v string) {
		t.Helper()
		if err := s.Put("letters", TextValue(k), TextValue(v)); err != nil {
			t.Fatal(err)
		}
	}
	order := func() []string {
		t.Helper()
		ents, err := s.Entries("letters")
		if err != nil {
			t.Fatal(err)
		}
		keys := make([]string, len(ents))
		for i, ent := range ents {
			keys[i] = ent.Key.Str
		}
		return keys
	}
	assertOrder := func(want ...string) {
		t.Helper()
		got := order()
		if len(got) != len(want) {
			t.Fatalf("expected order %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected order %v, got %v", want, got)
			}
		}
	}

	put("c", "1")
	put("a", "2")
	put("b", "3")
	assertOrder("c", "a", "b")

	// Overwriting keeps the original position.
	put("a", "22")
	assertOrder("c", "a", "b")
	ent, err := s.Get("letters", TextValue("a"))
	if err != nil {
		t.Fatal(err)
	}
	if ent.Value != TextValue("22") {
		t.Fatalf("expected overwritten value, got %#v", ent.Value)
	}

	// Removing and re-adding moves the key to the end.
	if err := s.Remove("letters", TextValue("a")); err != nil {
		t.Fatal(err)
	}
	put("a", "2")
	assertOrder("c", "b", "a")
}

func TestKeysInRange(t *testing.T) {
	s := NewStore()
	if err := s.CreateCollection("mixed"); err != nil {
		t.Fatal(err)
	}
	keys := []Value{
		IntValue(1), IntValue(3), IntValue(5),
		FloatValue(3), // same point as int 3, distinct key
		TextValue("apple"), TextValue("pear"),
		ComplexValue(complex(1, 1)),
	}
	for _, k := range keys {
		if err := s.Put("mixed", k, TextValue("v")); err != nil {
			t.Fatal(err)
		}
	}

	assertKeys := func(t *testing.T, got map[Value]struct{}, want ...Value) {
		t.Helper()
		if len(got) != len(want) {
			t.Fatalf("expected %d keys, got %v", len(want), got)
		}
		for _, k := range want {
			if _, ok := got[k]; !ok {
				t.Fatalf("expected %#v in range result", k)
			}
		}
	}

	t.Run("numeric range", func(t *testing.T) {
		min, max := IntValue(3), IntValue(5)
		got, err := s.KeysInRange("mixed", &min, &max)
		if err != nil {
			t.Fatal(err)
		}
		assertKeys(t, got, IntValue(3), FloatValue(3), IntValue(5))
	})

	t.Run("bounds are closed on both ends", func(t *testing.T) {
		// Boundary points always come back; callers with an exclusive
		// operator re-check every candidate exactly.
		min := IntValue(3)
		got, err := s.KeysInRange("mixed", &min, nil)
		if err != nil {
			t.Fatal(err)
		}
		assertKeys(t, got, IntValue(3), FloatValue(3), IntValue(5))

		max := IntValue(3)
		got, err = s.KeysInRange("mixed", nil, &max)
		if err != nil {
			t.Fatal(err)
		}
		assertKeys(t, got, IntValue(1), IntValue(3), FloatValue(3))
	})

	t.Run("text range", func(t *testing.T) {
		min := TextValue("b")
		got, err := s.KeysInRange("mixed", &min, nil)
		if err != nil {
			t.Fatal(err)
		}
		assertKeys(t, got, TextValue("pear"))
	})

	t.Run("no bounds", func(t *testing.T) {
		got, err := s.KeysInRange("mixed", nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		assertKeys(t, got)
	})

	t.Run("big int keys sharing one float point", func(t *testing.T) {
		if err := s.CreateCollection("stamps"); err != nil {
			t.Fatal(err)
		}
		// 9007199254740992 and 9007199254740993 are distinct int64 keys on
		// the same float64 point, as is a bound of either magnitude.
		for _, k := range []Value{IntValue(9007199254740992), IntValue(9007199254740993)} {
			if err := s.Put("stamps", k, TextValue("v")); err != nil {
				t.Fatal(err)
			}
		}
		min := IntValue(9007199254740993)
		got, err := s.KeysInRange("stamps", &min, nil)
		if err != nil {
			t.Fatal(err)
		}
		assertKeys(t, got, IntValue(9007199254740992), IntValue(9007199254740993))
	})

	t.Run("removed keys leave the index", func(t *testing.T) {
		if err := s.Remove("mixed", IntValue(5)); err != nil {
			t.Fatal(err)
		}
		min := IntValue(4)
		got, err := s.KeysInRange("mixed", &min, nil)
		if err != nil {
			t.Fatal(err)
		}
		assertKeys(t, got)
	})

	t.Run("missing collection", func(t *testing.T) {
		min := IntValue(1)
		if _, err := s.KeysInRange("ghosts", &min, nil); !errors.Is(err, ErrCollectionNotFound) {
			t.Fatalf("expected ErrCollectionNotFound, got %v", err)
		}
	})
}

func TestSnapshotRestore(t *testing.T) {
	s := NewStore()
	if err := s.CreateCollection("ages"); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateCollection("cars"); err != nil {
		t.Fatal(err)
	}
	if err := s.Put("ages", IntValue(2), IntValue(25)); err != nil {
		t.Fatal(err)
	}
	if err := s.Put("ages", IntValue(1), IntValue(20)); err != nil {
		t.Fatal(err)
	}
	if err := s.Put("cars", TextValue("1000"), TextValue("bmw")); err != nil {
		t.Fatal(err)
	}

	image := s.Snapshot()
	if len(image) != 2 {
		t.Fatalf("expected 2 collections in snapshot, got %d", len(image))
	}

	restored := NewStore()
	for name, payload := range image {
		if err := restored.Restore(name, payload); err != nil {
			t.Fatal(err)
		}
	}

	for _, name := range []string{"ages", "cars"} {
		want, err := s.Entries(name)
		if err != nil {
			t.Fatal(err)
		}
		got, err := restored.Entries(name)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != len(want) {
			t.Fatalf("%s: expected %d entries, got %d", name, len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: entry %d = %#v, want %#v", name, i, got[i], want[i])
			}
		}
	}
}

func TestRestoreRejectsGarbage(t *testing.T) {
	s := NewStore()
	if err := s.Restore("junk", []byte("not a snapshot")); err == nil {
		t.Fatal("expected decode error")
	}
	if s.Exists("junk") {
		t.Fatal("failed restore must not install a collection")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()
	if err := s.CreateCollection("counters"); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				key := IntValue(int64(g*50 + i))
				if err := s.Put("counters", key, IntValue(int64(i))); err != nil {
					t.Errorf("put: %v", err)
					return
				}
				if _, err := s.Get("counters", key); err != nil {
					t.Errorf("get: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	ents, err := s.Entries("counters")
	if err != nil {
		t.Fatal(err)
	}
	if len(ents) != 8*50 {
		t.Fatalf("expected %d entries, got %d", 8*50, len(ents))
	}
}
