// internal/store/store.go

package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"unicode"
)

var (
	ErrInvalidName        = errors.New("invalid collection name")
	ErrCollectionExists   = errors.New("collection already exists")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrEntryNotFound      = errors.New("entry not found")
)

// ValidCollectionName reports whether a name can name a collection:
// non-empty and letters only, in the Unicode sense.
func ValidCollectionName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Store is the root of all collections. A single RWMutex serializes access,
// held for one operation at a time; writers exclude everything, readers
// share. Nothing here touches the disk.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*Collection
}

func NewStore() *Store {
	return &Store{collections: make(map[string]*Collection)}
}

// CreateCollection adds a new empty collection under the given name.
func (s *Store) CreateCollection(name string) error {
	if !ValidCollectionName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.collections[name]; exists {
		return fmt.Errorf("%w: %q", ErrCollectionExists, name)
	}
	s.collections[name] = newCollection()
	return nil
}

// DeleteCollection drops a collection from memory. Snapshot files on disk
// are left alone; a later snapshot pass simply stops refreshing the file.
func (s *Store) DeleteCollection(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.collections[name]; !exists {
		return fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
	}
	delete(s.collections, name)
	return nil
}

// Exists reports whether a collection is present.
func (s *Store) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.collections[name]
	return exists
}

// Put inserts or overwrites an entry. Overwriting keeps the key's original
// insertion position.
func (s *Store) Put(name string, key, value Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, exists := s.collections[name]
	if !exists {
		return fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
	}
	col.put(key, value)
	return nil
}

// Get returns the entry stored under the exact key, kind included: an int
// key never answers for a float key of the same magnitude.
func (s *Store) Get(name string, key Value) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, exists := s.collections[name]
	if !exists {
		return Entry{}, fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
	}
	value, ok := col.get(key)
	if !ok {
		return Entry{}, fmt.Errorf("%w: key %s", ErrEntryNotFound, key)
	}
	return Entry{Key: key, Value: value}, nil
}

// Remove deletes the entry under the exact key.
func (s *Store) Remove(name string, key Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, exists := s.collections[name]
	if !exists {
		return fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
	}
	if !col.remove(key) {
		return fmt.Errorf("%w: key %s", ErrEntryNotFound, key)
	}
	return nil
}

// Entries copies a collection out in insertion order.
func (s *Store) Entries(name string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, exists := s.collections[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
	}
	return col.entries(), nil
}

// KeysInRange returns every key sitting on an index point inside the closed
// [min, max] interval, answered from the collection's key index. A nil bound
// is open. Numeric points quantize big int keys, so the set is a candidate
// superset: callers re-check each key with the exact comparison.
func (s *Store) KeysInRange(name string, min, max *Value) (map[Value]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, exists := s.collections[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
	}
	return col.keysInRange(min, max), nil
}

// Names returns all collection names, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot encodes every collection under one read lock, giving a
// point-in-time image of the whole store keyed by collection name.
func (s *Store) Snapshot() map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(s.collections))
	for name, col := range s.collections {
		payload, err := encodeCollection(col)
		if err != nil {
			slog.Error("Failed to encode collection for snapshot", "collection", name, "error", err)
			continue
		}
		out[name] = payload
	}
	return out
}

// Restore decodes a snapshot payload and installs it under the given name,
// replacing any collection already there.
func (s *Store) Restore(name string, payload []byte) error {
	col, err := decodeCollection(payload)
	if err != nil {
		return fmt.Errorf("failed to decode collection %q: %w", name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[name] = col
	return nil
}
