// internal/store/collection.go

package store

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Entry is one key/value pair of a collection.
type Entry struct {
	Key   Value `json:"key"`
	Value Value `json:"value"`
}

// Collection holds the entries of one named collection in insertion order,
// plus the range index over its keys. Access is synchronized by the owning
// Store; a Collection on its own is not safe for concurrent use.
type Collection struct {
	items *linkedhashmap.Map
	index *keyIndex
}

func newCollection() *Collection {
	return &Collection{
		items: linkedhashmap.New(),
		index: newKeyIndex(),
	}
}

// put inserts or overwrites. Overwriting keeps the key's original position.
func (c *Collection) put(key, value Value) {
	if _, exists := c.items.Get(key); !exists {
		c.index.add(key)
	}
	c.items.Put(key, value)
}

func (c *Collection) get(key Value) (Value, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		return Value{}, false
	}
	return v.(Value), true
}

// remove deletes a key and reports whether it was present.
func (c *Collection) remove(key Value) bool {
	if _, exists := c.items.Get(key); !exists {
		return false
	}
	c.items.Remove(key)
	c.index.remove(key)
	return true
}

// entries copies the collection out in insertion order.
func (c *Collection) entries() []Entry {
	out := make([]Entry, 0, c.items.Size())
	c.items.Each(func(key, value any) {
		out = append(out, Entry{Key: key.(Value), Value: value.(Value)})
	})
	return out
}

func (c *Collection) keysInRange(min, max *Value) map[Value]struct{} {
	return c.index.rangeKeys(min, max)
}
