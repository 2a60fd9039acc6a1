package types

// Operator identifies a leaf comparison.
type Operator string

const (
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "not"
	OpGreaterThan        Operator = "gt"
	OpGreaterThanOrEqual Operator = "gte"
	OpLessThan           Operator = "lt"
	OpLessThanOrEqual    Operator = "lte"
	OpIn                 Operator = "in"
	OpNotIn              Operator = "notIn"
	OpContains           Operator = "contains"
	OpStartsWith         Operator = "startsWith"
	OpEndsWith           Operator = "endsWith"
	OpBetween            Operator = "between"
	OpIsNull             Operator = "isNull"
)

// Condition is a node in a predicate tree. Trees are immutable: the
// combinators return new nodes and never modify their receivers, so a
// compiled tree can be shared and merged safely.
type Condition interface {
	And(condition Condition) Condition
	Or(condition Condition) Condition
	Not() Condition

	// Fields returns the names of all fields referenced by leaves of
	// this subtree.
	Fields() []string
}

// FieldCondition is a leaf comparison on a single field.
type FieldCondition struct {
	Field    string
	Operator Operator
	Value    any
}

func NewFieldCondition(field string, op Operator, value any) *FieldCondition {
	return &FieldCondition{Field: field, Operator: op, Value: value}
}

func (c *FieldCondition) And(condition Condition) Condition {
	return NewAndCondition(c, condition)
}

func (c *FieldCondition) Or(condition Condition) Condition {
	return NewOrCondition(c, condition)
}

func (c *FieldCondition) Not() Condition {
	return NewNotCondition(c)
}

func (c *FieldCondition) Fields() []string {
	return []string{c.Field}
}

// AndCondition represents AND logic.
type AndCondition struct {
	Conditions []Condition
}

func NewAndCondition(conditions ...Condition) *AndCondition {
	return &AndCondition{Conditions: conditions}
}

func (c *AndCondition) And(condition Condition) Condition {
	combined := make([]Condition, 0, len(c.Conditions)+1)
	combined = append(combined, c.Conditions...)
	combined = append(combined, condition)
	return NewAndCondition(combined...)
}

func (c *AndCondition) Or(condition Condition) Condition {
	return NewOrCondition(c, condition)
}

func (c *AndCondition) Not() Condition {
	return NewNotCondition(c)
}

func (c *AndCondition) Fields() []string {
	return childFields(c.Conditions)
}

// OrCondition represents OR logic.
type OrCondition struct {
	Conditions []Condition
}

func NewOrCondition(conditions ...Condition) *OrCondition {
	return &OrCondition{Conditions: conditions}
}

func (c *OrCondition) And(condition Condition) Condition {
	return NewAndCondition(c, condition)
}

func (c *OrCondition) Or(condition Condition) Condition {
	combined := make([]Condition, 0, len(c.Conditions)+1)
	combined = append(combined, c.Conditions...)
	combined = append(combined, condition)
	return NewOrCondition(combined...)
}

func (c *OrCondition) Not() Condition {
	return NewNotCondition(c)
}

func (c *OrCondition) Fields() []string {
	return childFields(c.Conditions)
}

// NotCondition represents NOT logic.
type NotCondition struct {
	Condition Condition
}

func NewNotCondition(condition Condition) *NotCondition {
	return &NotCondition{Condition: condition}
}

func (c *NotCondition) And(condition Condition) Condition {
	return NewAndCondition(c, condition)
}

func (c *NotCondition) Or(condition Condition) Condition {
	return NewOrCondition(c, condition)
}

func (c *NotCondition) Not() Condition {
	return c.Condition // double negative
}

func (c *NotCondition) Fields() []string {
	return c.Condition.Fields()
}

func childFields(conditions []Condition) []string {
	var fields []string
	for _, c := range conditions {
		fields = append(fields, c.Fields()...)
	}
	return fields
}

// MergeConditions combines two predicate trees into a single conjunction
// without re-interpreting or mutating either input. Nil is the identity
// element.
func MergeConditions(a, b Condition) Condition {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return NewAndCondition(a, b)
}

// ConditionToMap renders a predicate tree into a nested map, the shape
// filter mappings arrive in. Used for serialization and debugging.
func ConditionToMap(c Condition) map[string]any {
	switch cond := c.(type) {
	case nil:
		return nil
	case *FieldCondition:
		return map[string]any{cond.Field: map[string]any{string(cond.Operator): cond.Value}}
	case *AndCondition:
		return map[string]any{"AND": mapChildren(cond.Conditions)}
	case *OrCondition:
		return map[string]any{"OR": mapChildren(cond.Conditions)}
	case *NotCondition:
		return map[string]any{"NOT": ConditionToMap(cond.Condition)}
	default:
		return nil
	}
}

func mapChildren(conditions []Condition) []map[string]any {
	out := make([]map[string]any, 0, len(conditions))
	for _, c := range conditions {
		out = append(out, ConditionToMap(c))
	}
	return out
}
