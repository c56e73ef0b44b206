// internal/query/executor.go

package query

import (
	"errors"
	"fmt"
	"log/slog"

	"querykv/internal/store"
)

// UnknownCollectionError reports a query aimed at a collection that does not
// exist. Its message is exactly what goes back to the client.
type UnknownCollectionError struct {
	Name string
}

func (e *UnknownCollectionError) Error() string {
	return fmt.Sprintf("%s does not exist.", e.Name)
}

// Executor runs parsed queries against a store.
type Executor struct {
	store *store.Store
}

func NewExecutor(s *store.Store) *Executor {
	return &Executor{store: s}
}

// Result is the outcome of one query. Filters fill Entries, joins fill
// Groups; Collections lists the collections involved, named one first.
type Result struct {
	Collections []string
	Entries     []store.Entry
	Groups      []JoinGroup
}

// JoinGroup is one key of a join with every value found for it across both
// collections, first collection's values first.
type JoinGroup struct {
	Key    store.Value   `json:"key"`
	Values []store.Value `json:"values"`
}

// Execute runs a query. The only error it returns is UnknownCollectionError;
// entries an operator cannot compare are skipped, never reported.
func (e *Executor) Execute(q Query) (*Result, error) {
	if q.Action == ActionJoin {
		return e.join(q)
	}
	return e.filter(q)
}

func (e *Executor) filter(q Query) (*Result, error) {
	res := &Result{
		Collections: []string{q.Collection},
		Entries:     make([]store.Entry, 0),
	}

	// Key equality never scans: it is a direct lookup in the named
	// collection, and a missing key is an empty result, not an error.
	if q.Element == ElementKey && q.Operator == OpEqual {
		ent, err := e.store.Get(q.Collection, q.Operand)
		switch {
		case errors.Is(err, store.ErrCollectionNotFound):
			return nil, &UnknownCollectionError{Name: q.Collection}
		case errors.Is(err, store.ErrEntryNotFound):
			return res, nil
		case err != nil:
			return nil, err
		}
		if q.Action == ActionDelete && !e.deleteMatched(q.Collection, ent.Key) {
			return res, nil
		}
		res.Entries = append(res.Entries, ent)
		return res, nil
	}

	entries, err := e.store.Entries(q.Collection)
	if err != nil {
		return nil, &UnknownCollectionError{Name: q.Collection}
	}

	// Ordered key filters narrow through the key index first. The index
	// hands back a candidate superset (numeric points quantize big ints),
	// so the operator below decides for candidates too; the walk over the
	// insertion-order snapshot keeps result order stable either way.
	var candidates map[store.Value]struct{}
	if q.Element == ElementKey {
		if min, max, ok := rangeBounds(q.Operator, q.Operand); ok {
			candidates, err = e.store.KeysInRange(q.Collection, min, max)
			if err != nil {
				return nil, &UnknownCollectionError{Name: q.Collection}
			}
		}
	}

	for _, ent := range entries {
		if candidates != nil {
			if _, ok := candidates[ent.Key]; !ok {
				continue
			}
		}
		element := ent.Value
		if q.Element == ElementKey {
			element = ent.Key
		}
		if !q.Operator.Matches(element, q.Operand) {
			continue
		}
		if q.Action == ActionDelete && !e.deleteMatched(q.Collection, ent.Key) {
			continue
		}
		res.Entries = append(res.Entries, ent)
	}
	return res, nil
}

// deleteMatched removes a matched entry and reports whether the delete can
// be acknowledged in the result. An entry already gone counts as deleted
// (the scan walks a copy); any other remove failure keeps the entry out.
func (e *Executor) deleteMatched(collection string, key store.Value) bool {
	err := e.store.Remove(collection, key)
	if err == nil || errors.Is(err, store.ErrEntryNotFound) {
		return true
	}
	slog.Warn("Failed to delete matched entry", "collection", collection, "key", key, "error", err)
	return false
}

// rangeBounds translates an ordering operator into closed key index bounds.
// Equality, containment, and complex operands have no usable range.
func rangeBounds(op Operator, operand store.Value) (min, max *store.Value, ok bool) {
	if operand.Kind == store.KindComplex {
		return nil, nil, false
	}
	switch op {
	case OpLess, OpLessOrEqual:
		return nil, &operand, true
	case OpGreater, OpGreaterOrEqual:
		return &operand, nil, true
	}
	return nil, nil, false
}

// join unions two collections grouped by key. Groups appear in first-seen
// entry order, the named collection walked first, and each group's values
// keep that same order. Neither collection is modified.
func (e *Executor) join(q Query) (*Result, error) {
	left, err := e.store.Entries(q.Collection)
	if err != nil {
		return nil, &UnknownCollectionError{Name: q.Collection}
	}
	right, err := e.store.Entries(q.JoinWith)
	if err != nil {
		return nil, &UnknownCollectionError{Name: q.JoinWith}
	}

	res := &Result{
		Collections: []string{q.Collection, q.JoinWith},
		Groups:      make([]JoinGroup, 0),
	}
	position := make(map[store.Value]int)
	gather := func(ents []store.Entry) {
		for _, ent := range ents {
			if i, seen := position[ent.Key]; seen {
				res.Groups[i].Values = append(res.Groups[i].Values, ent.Value)
				continue
			}
			position[ent.Key] = len(res.Groups)
			res.Groups = append(res.Groups, JoinGroup{Key: ent.Key, Values: []store.Value{ent.Value}})
		}
	}
	gather(left)
	gather(right)
	return res, nil
}
