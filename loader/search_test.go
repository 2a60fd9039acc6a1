package loader

import (
	"errors"
	"testing"

	"github.com/agiletiger/graphql-query-loader/types"
)

func TestCompileSearchDefault(t *testing.T) {
	l := New(testSchemas())

	cond, err := l.compileSearch("User", []SearchExpression{
		{Fields: []string{"name", "email"}, Term: "jo"},
		{Fields: []string{"name"}, Term: "smith"},
	})
	if err != nil {
		t.Fatalf("compileSearch failed: %v", err)
	}

	and, ok := cond.(*types.AndCondition)
	if !ok || len(and.Conditions) != 2 {
		t.Fatalf("expected AND of two expressions, got %#v", cond)
	}

	or, ok := and.Conditions[0].(*types.OrCondition)
	if !ok || len(or.Conditions) != 2 {
		t.Fatalf("expected OR across fields of one expression, got %#v", and.Conditions[0])
	}
	for _, c := range or.Conditions {
		leaf := c.(*types.FieldCondition)
		if leaf.Operator != types.OpContains || leaf.Value != "jo" {
			t.Errorf("unexpected search leaf: %#v", leaf)
		}
	}

	second, ok := and.Conditions[1].(*types.FieldCondition)
	if !ok || second.Field != "name" || second.Value != "smith" {
		t.Errorf("single-field expression should compile to a leaf, got %#v", and.Conditions[1])
	}
}

func TestCompileSearchSkipsEmptyExpressions(t *testing.T) {
	l := New(testSchemas())

	cond, err := l.compileSearch("User", []SearchExpression{
		{Fields: []string{"name"}, Term: ""},
		{Fields: nil, Term: "jo"},
	})
	if err != nil {
		t.Fatalf("compileSearch failed: %v", err)
	}
	if cond != nil {
		t.Errorf("expected nil condition, got %#v", cond)
	}
}

func TestCompileSearchUnknownField(t *testing.T) {
	l := New(testSchemas())

	_, err := l.compileSearch("User", []SearchExpression{
		{Fields: []string{"ghost"}, Term: "x"},
	})
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
}

func TestCompileSearchCustomHandler(t *testing.T) {
	called := false
	l := New(testSchemas(), WithSearchHandlers(map[string]SearchFunc{
		"User": func(model string, expressions []SearchExpression) (types.Condition, error) {
			called = true
			return types.NewFieldCondition("email", types.OpEquals, expressions[0].Term), nil
		},
	}))

	cond, err := l.compileSearch("User", []SearchExpression{
		{Fields: []string{"name"}, Term: "jo"},
	})
	if err != nil {
		t.Fatalf("compileSearch failed: %v", err)
	}
	if !called {
		t.Fatal("custom handler was not invoked")
	}
	leaf, ok := cond.(*types.FieldCondition)
	if !ok || leaf.Field != "email" {
		t.Errorf("custom handler result not used: %#v", cond)
	}
}
