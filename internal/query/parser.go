// internal/query/parser.go

package query

import (
	"errors"
	"fmt"
	"strings"

	"querykv/internal/store"
)

// ErrQuerySyntax covers every way a query can fail to parse. Clients learn
// nothing more specific; the wrapped detail is for server logs only.
var ErrQuerySyntax = errors.New("invalid query syntax")

// Parse turns one query line into a Query. Tokens are split on whitespace,
// so every operator, parenthesis, and keyword needs space around it. The
// join form is only considered when the first token is exactly "join".
func Parse(text string) (Query, error) {
	tokens := strings.Fields(text)
	if len(tokens) > 0 && tokens[0] == string(ActionJoin) {
		return parseJoin(tokens)
	}
	return parseFilter(tokens)
}

func parseJoin(tokens []string) (Query, error) {
	if len(tokens) != 4 {
		return Query{}, fmt.Errorf("%w: join takes exactly two collections", ErrQuerySyntax)
	}
	if tokens[2] != KeywordWith {
		return Query{}, fmt.Errorf("%w: expected %q, got %q", ErrQuerySyntax, KeywordWith, tokens[2])
	}
	if !store.ValidCollectionName(tokens[1]) || !store.ValidCollectionName(tokens[3]) {
		return Query{}, fmt.Errorf("%w: collection names must be letters only", ErrQuerySyntax)
	}
	return Query{
		Action:     ActionJoin,
		Collection: tokens[1],
		JoinWith:   tokens[3],
	}, nil
}

// parseFilter handles both filter shapes: 6 tokens with a bare text literal,
// 9 tokens with a cast operand. Anything else is rejected outright.
func parseFilter(tokens []string) (Query, error) {
	if len(tokens) != 6 && len(tokens) != 9 {
		return Query{}, fmt.Errorf("%w: expected 6 or 9 tokens, got %d", ErrQuerySyntax, len(tokens))
	}

	var q Query
	switch Action(tokens[0]) {
	case ActionRead, ActionDelete:
		q.Action = Action(tokens[0])
	default:
		return Query{}, fmt.Errorf("%w: unknown action %q", ErrQuerySyntax, tokens[0])
	}

	switch Element(tokens[1]) {
	case ElementKey, ElementValue:
		q.Element = Element(tokens[1])
	default:
		return Query{}, fmt.Errorf("%w: unknown element %q", ErrQuerySyntax, tokens[1])
	}

	switch Operator(tokens[2]) {
	case OpLess, OpGreater, OpEqual, OpLessOrEqual, OpGreaterOrEqual, OpContains:
		q.Operator = Operator(tokens[2])
	default:
		return Query{}, fmt.Errorf("%w: unknown operator %q", ErrQuerySyntax, tokens[2])
	}

	rest := tokens[3:]
	var from, collection string
	if len(rest) == 6 {
		// Cast form: <type> ( <literal> ).
		if rest[1] != openParen || rest[3] != closeParen {
			return Query{}, fmt.Errorf("%w: malformed cast", ErrQuerySyntax)
		}
		operand, err := store.Coerce(rest[2], rest[0])
		if err != nil {
			return Query{}, fmt.Errorf("%w: %v", ErrQuerySyntax, err)
		}
		q.Operand = operand
		from, collection = rest[4], rest[5]
	} else {
		// A bare literal is always text, whatever it looks like.
		q.Operand = store.TextValue(rest[0])
		from, collection = rest[1], rest[2]
	}

	if from != KeywordFrom {
		return Query{}, fmt.Errorf("%w: expected %q, got %q", ErrQuerySyntax, KeywordFrom, from)
	}
	if !store.ValidCollectionName(collection) {
		return Query{}, fmt.Errorf("%w: collection names must be letters only", ErrQuerySyntax)
	}
	q.Collection = collection
	return q, nil
}
