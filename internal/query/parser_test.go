// internal/query/parser_test.go

package query

import (
	"errors"
	"testing"

	"querykv/internal/store"
)

func TestParseFilterBareLiteral(t *testing.T) {
	q, err := Parse("read key > 1234 from cars")
	if err != nil {
		t.Fatal(err)
	}
	if q.Action != ActionRead || q.Element != ElementKey || q.Operator != OpGreater {
		t.Fatalf("unexpected query %#v", q)
	}
	// A bare literal is text even when it looks numeric.
	if q.Operand != store.TextValue("1234") {
		t.Fatalf("expected text operand, got %#v", q.Operand)
	}
	if q.Collection != "cars" {
		t.Fatalf("expected collection cars, got %q", q.Collection)
	}
}

func TestParseFilterCasts(t *testing.T) {
	cases := []struct {
		text string
		want store.Value
	}{
		{"read value >= int ( 20 ) from ages", store.IntValue(20)},
		{"delete value < float ( 1.5 ) from prices", store.FloatValue(1.5)},
		{"read key = complex ( 3+4j ) from grid", store.ComplexValue(complex(3, 4))},
		{"read value contains str ( bmw ) from cars", store.TextValue("bmw")},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			q, err := Parse(tc.text)
			if err != nil {
				t.Fatal(err)
			}
			if q.Operand != tc.want {
				t.Fatalf("operand = %#v, want %#v", q.Operand, tc.want)
			}
		})
	}
}

func TestParseFilterActionsAndElements(t *testing.T) {
	q, err := Parse("delete key <= nine from names")
	if err != nil {
		t.Fatal(err)
	}
	if q.Action != ActionDelete {
		t.Fatalf("expected delete, got %q", q.Action)
	}
	if q.Element != ElementKey {
		t.Fatalf("expected key, got %q", q.Element)
	}
	if q.Operator != OpLessOrEqual {
		t.Fatalf("expected <=, got %q", q.Operator)
	}
}

func TestParseJoin(t *testing.T) {
	q, err := Parse("join ages with heights")
	if err != nil {
		t.Fatal(err)
	}
	if q.Action != ActionJoin {
		t.Fatalf("expected join, got %q", q.Action)
	}
	if q.Collection != "ages" || q.JoinWith != "heights" {
		t.Fatalf("unexpected collections %q, %q", q.Collection, q.JoinWith)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"too few tokens", "read key > from cars"},
		{"seven tokens", "read key > int ( 5 from"},
		{"eight tokens", "read key > int ( 5 ) from"},
		{"unknown action", "scan key > 5 from cars"},
		{"unknown element", "read field > 5 from cars"},
		{"unknown operator", "read key != 5 from cars"},
		{"missing from keyword", "read key > 5 at cars"},
		{"bad collection name", "read key > 5 from cars2"},
		{"cast missing open paren", "read key > int 5 5 ) from cars"},
		{"cast missing close paren", "read key > int ( 5 ( from cars"},
		{"cast bad literal", "read key > int ( five ) from cars"},
		{"cast unknown tag", "read key > bool ( 1 ) from cars"},
		{"join too few", "join ages with"},
		{"join too many", "join ages with heights extra"},
		{"join wrong keyword", "join ages and heights"},
		{"join bad name", "join ages with heights2"},
		{"join not first token", "read join with heights"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.text)
			if !errors.Is(err, ErrQuerySyntax) {
				t.Fatalf("Parse(%q) error = %v, want ErrQuerySyntax", tc.text, err)
			}
		})
	}
}

func TestOperatorMatches(t *testing.T) {
	cases := []struct {
		name    string
		op      Operator
		element store.Value
		operand store.Value
		want    bool
	}{
		{"less numeric", OpLess, store.IntValue(1), store.FloatValue(1.5), true},
		{"less equal boundary", OpLessOrEqual, store.IntValue(2), store.IntValue(2), true},
		{"greater text", OpGreater, store.TextValue("2000"), store.TextValue("1234"), true},
		{"ordering across kinds fails", OpLess, store.TextValue("1"), store.IntValue(2), false},
		{"ordering with complex fails", OpGreater, store.ComplexValue(5), store.IntValue(1), false},
		{"equal loose numeric", OpEqual, store.FloatValue(2), store.IntValue(2), true},
		{"equal complex to int", OpEqual, store.ComplexValue(complex(2, 0)), store.IntValue(2), true},
		{"contains substring", OpContains, store.TextValue("bmw m3"), store.TextValue("bmw"), true},
		{"contains non-text", OpContains, store.IntValue(123), store.TextValue("2"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.op.Matches(tc.element, tc.operand); got != tc.want {
				t.Fatalf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}
