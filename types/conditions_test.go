package types

import (
	"reflect"
	"testing"
)

func TestConditionCombinators(t *testing.T) {
	a := NewFieldCondition("name", OpEquals, "Jo")
	b := NewFieldCondition("age", OpGreaterThan, 18)

	and, ok := a.And(b).(*AndCondition)
	if !ok || len(and.Conditions) != 2 {
		t.Fatalf("expected AndCondition with 2 children, got %#v", and)
	}

	or, ok := a.Or(b).(*OrCondition)
	if !ok || len(or.Conditions) != 2 {
		t.Fatalf("expected OrCondition with 2 children, got %#v", or)
	}

	not, ok := a.Not().(*NotCondition)
	if !ok {
		t.Fatalf("expected NotCondition, got %#v", a.Not())
	}
	if not.Not() != a {
		t.Error("double negation should return the inner condition")
	}
}

func TestAndDoesNotMutateReceiver(t *testing.T) {
	a := NewFieldCondition("a", OpEquals, 1)
	b := NewFieldCondition("b", OpEquals, 2)
	c := NewFieldCondition("c", OpEquals, 3)

	base := NewAndCondition(a, b)
	combined := base.And(c)

	if len(base.Conditions) != 2 {
		t.Errorf("receiver was mutated: %d children", len(base.Conditions))
	}
	if len(combined.(*AndCondition).Conditions) != 3 {
		t.Errorf("expected 3 children in combined condition")
	}
}

func TestMergeConditions(t *testing.T) {
	a := NewFieldCondition("a", OpEquals, 1)
	b := NewFieldCondition("b", OpEquals, 2)

	if MergeConditions(nil, nil) != nil {
		t.Error("merging two nils should be nil")
	}
	if MergeConditions(a, nil) != Condition(a) {
		t.Error("nil should be the identity element on the right")
	}
	if MergeConditions(nil, b) != Condition(b) {
		t.Error("nil should be the identity element on the left")
	}

	merged, ok := MergeConditions(a, b).(*AndCondition)
	if !ok || len(merged.Conditions) != 2 {
		t.Fatalf("expected AND of both inputs, got %#v", merged)
	}
	if merged.Conditions[0] != Condition(a) || merged.Conditions[1] != Condition(b) {
		t.Error("merge must preserve both inputs unchanged")
	}
}

func TestConditionFields(t *testing.T) {
	cond := NewAndCondition(
		NewFieldCondition("name", OpContains, "x"),
		NewOrCondition(
			NewFieldCondition("age", OpGreaterThan, 1),
			NewNotCondition(NewFieldCondition("email", OpIsNull, true)),
		),
	)

	got := cond.Fields()
	want := []string{"name", "age", "email"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}
}

func TestConditionToMap(t *testing.T) {
	cond := NewOrCondition(
		NewFieldCondition("name", OpEquals, "Jo"),
		NewNotCondition(NewFieldCondition("age", OpLessThan, 18)),
	)

	got := ConditionToMap(cond)
	want := map[string]any{
		"OR": []map[string]any{
			{"name": map[string]any{"equals": "Jo"}},
			{"NOT": map[string]any{"age": map[string]any{"lt": 18}}},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ConditionToMap() = %#v, want %#v", got, want)
	}
}
