// internal/query/query.go

// Package query parses and executes the textual query language: single
// collection filters in the form
//
//	<action> <element> <operator> <value-spec> from <collection>
//
// and two-collection joins in the form
//
//	join <collection> with <collection>
package query

import "querykv/internal/store"

// Structural keywords and punctuation of the grammar.
const (
	KeywordFrom = "from"
	KeywordWith = "with"
	openParen   = "("
	closeParen  = ")"
)

// Action selects what a query does with its matches.
type Action string

const (
	ActionRead   Action = "read"
	ActionDelete Action = "delete"
	ActionJoin   Action = "join"
)

// Element selects which side of an entry a filter inspects.
type Element string

const (
	ElementKey   Element = "key"
	ElementValue Element = "value"
)

// Operator is a filter comparison.
type Operator string

const (
	OpLess           Operator = "<"
	OpGreater        Operator = ">"
	OpEqual          Operator = "="
	OpLessOrEqual    Operator = "<="
	OpGreaterOrEqual Operator = ">="
	OpContains       Operator = "contains"
)

// Matches applies the operator to an element of an entry and the query
// operand. Pairings the operator cannot compare are plain non-matches.
func (op Operator) Matches(element, operand store.Value) bool {
	switch op {
	case OpEqual:
		return element.Equal(operand)
	case OpContains:
		return element.Contains(operand)
	case OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
		cmp, ordered := element.Compare(operand)
		if !ordered {
			return false
		}
		switch op {
		case OpLess:
			return cmp < 0
		case OpLessOrEqual:
			return cmp <= 0
		case OpGreater:
			return cmp > 0
		case OpGreaterOrEqual:
			return cmp >= 0
		}
	}
	return false
}

// Query is one parsed statement. Filters fill Action, Element, Operator,
// Operand, and Collection; joins fill Action, Collection, and JoinWith.
type Query struct {
	Action     Action
	Element    Element
	Operator   Operator
	Operand    store.Value
	Collection string
	JoinWith   string
}
