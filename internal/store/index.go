// internal/store/index.go

package store

import "github.com/google/btree"

const btreeDegree = 32

// numericKey is the item type of the numeric key tree. It holds one numeric
// point and the set of collection keys sitting on it; an int key and a float
// key of the same magnitude share a point but stay distinct keys, and int
// keys past float64 precision land on the nearest representable point.
type numericKey struct {
	Point float64
	Keys  map[Value]struct{}
}

// textKey is the item type of the text key tree.
type textKey struct {
	Point string
	Keys  map[Value]struct{}
}

func numericLess(a, b numericKey) bool { return a.Point < b.Point }

func textLess(a, b textKey) bool { return a.Point < b.Point }

// keyIndex keeps the keys of one collection ordered for range scans, one
// B-Tree per ordered kind. Complex keys have no ordering and are not
// indexed; range scans can never produce them.
type keyIndex struct {
	numericTree *btree.BTreeG[numericKey]
	textTree    *btree.BTreeG[textKey]
}

func newKeyIndex() *keyIndex {
	return &keyIndex{
		numericTree: btree.NewG[numericKey](btreeDegree, numericLess),
		textTree:    btree.NewG[textKey](btreeDegree, textLess),
	}
}

// add registers a key with the tree matching its kind.
func (idx *keyIndex) add(key Value) {
	if point, ok := key.numeric(); ok {
		item, found := idx.numericTree.Get(numericKey{Point: point})
		if !found {
			item = numericKey{Point: point, Keys: make(map[Value]struct{})}
		}
		item.Keys[key] = struct{}{}
		idx.numericTree.ReplaceOrInsert(item)
		return
	}
	if key.Kind == KindText {
		item, found := idx.textTree.Get(textKey{Point: key.Str})
		if !found {
			item = textKey{Point: key.Str, Keys: make(map[Value]struct{})}
		}
		item.Keys[key] = struct{}{}
		idx.textTree.ReplaceOrInsert(item)
	}
}

// remove drops a key, deleting its tree item once no keys sit on the point.
func (idx *keyIndex) remove(key Value) {
	if point, ok := key.numeric(); ok {
		if item, found := idx.numericTree.Get(numericKey{Point: point}); found {
			delete(item.Keys, key)
			if len(item.Keys) == 0 {
				idx.numericTree.Delete(item)
			} else {
				idx.numericTree.ReplaceOrInsert(item)
			}
		}
		return
	}
	if key.Kind == KindText {
		if item, found := idx.textTree.Get(textKey{Point: key.Str}); found {
			delete(item.Keys, key)
			if len(item.Keys) == 0 {
				idx.textTree.Delete(item)
			} else {
				idx.textTree.ReplaceOrInsert(item)
			}
		}
	}
}

// rangeKeys collects every indexed key sitting on a point inside the closed
// [min, max] interval. A nil bound is open; both nil yields nothing. The
// tree walked is picked from the bound kinds, so numeric bounds only ever
// surface numeric keys and text bounds only text keys. Numeric points
// quantize big int keys and bounds, so a boundary point can hold keys on
// either side of the exact bound: the result is a candidate superset and
// callers re-check every key with the exact comparison.
func (idx *keyIndex) rangeKeys(min, max *Value) map[Value]struct{} {
	found := make(map[Value]struct{})

	bound := min
	if bound == nil {
		bound = max
	}
	if bound == nil {
		return found
	}

	if _, ok := bound.numeric(); ok {
		var lowPoint, highPoint float64
		hasLowBound, hasHighBound := min != nil, max != nil
		if hasLowBound {
			lowPoint, _ = min.numeric()
		}
		if hasHighBound {
			highPoint, _ = max.numeric()
		}

		iterator := func(item numericKey) bool {
			if hasHighBound && item.Point > highPoint {
				return false
			}
			for k := range item.Keys {
				found[k] = struct{}{}
			}
			return true
		}

		startKey := numericKey{Point: lowPoint}
		if !hasLowBound {
			minItem, ok := idx.numericTree.Min()
			if !ok {
				return found
			}
			startKey = minItem
		}
		idx.numericTree.AscendGreaterOrEqual(startKey, iterator)
		return found
	}

	if bound.Kind == KindText {
		var lowPoint, highPoint string
		hasLowBound, hasHighBound := min != nil, max != nil
		if hasLowBound {
			lowPoint = min.Str
		}
		if hasHighBound {
			highPoint = max.Str
		}

		iterator := func(item textKey) bool {
			if hasHighBound && item.Point > highPoint {
				return false
			}
			for k := range item.Keys {
				found[k] = struct{}{}
			}
			return true
		}

		startKey := textKey{Point: lowPoint}
		if !hasLowBound {
			minItem, ok := idx.textTree.Min()
			if !ok {
				return found
			}
			startKey = minItem
		}
		idx.textTree.AscendGreaterOrEqual(startKey, iterator)
	}

	return found
}
