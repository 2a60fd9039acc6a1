package loader

import (
	"fmt"
	"sort"

	"github.com/agiletiger/graphql-query-loader/types"
)

// filterOperators maps the operator keys accepted in filter mappings to
// predicate-tree operators.
var filterOperators = map[string]types.Operator{
	"equals":     types.OpEquals,
	"not":        types.OpNotEquals,
	"gt":         types.OpGreaterThan,
	"gte":        types.OpGreaterThanOrEqual,
	"lt":         types.OpLessThan,
	"lte":        types.OpLessThanOrEqual,
	"in":         types.OpIn,
	"notIn":      types.OpNotIn,
	"contains":   types.OpContains,
	"startsWith": types.OpStartsWith,
	"endsWith":   types.OpEndsWith,
	"between":    types.OpBetween,
	"isNull":     types.OpIsNull,
}

// compileFilter converts a filter mapping into a predicate tree over the
// model's fields. Keys are compiled in sorted order so the same mapping
// always yields a structurally identical tree.
func (l *Loader) compileFilter(model string, filter map[string]any) (types.Condition, error) {
	if len(filter) == 0 {
		return nil, nil
	}
	if _, ok := l.schemas[model]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}

	conditions := make([]types.Condition, 0, len(filter))
	for _, key := range sortedKeys(filter) {
		value := filter[key]
		switch key {
		case "AND", "OR":
			items, err := filterMappingList(key, value)
			if err != nil {
				return nil, err
			}
			children := make([]types.Condition, 0, len(items))
			for _, item := range items {
				child, err := l.compileFilter(model, item)
				if err != nil {
					return nil, err
				}
				if child != nil {
					children = append(children, child)
				}
			}
			if len(children) == 0 {
				continue
			}
			if key == "AND" {
				conditions = append(conditions, types.NewAndCondition(children...))
			} else {
				conditions = append(conditions, types.NewOrCondition(children...))
			}
		case "NOT":
			inner, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("NOT combinator expects a filter mapping, got %T", value)
			}
			child, err := l.compileFilter(model, inner)
			if err != nil {
				return nil, err
			}
			if child != nil {
				conditions = append(conditions, types.NewNotCondition(child))
			}
		default:
			cond, err := l.compileFieldFilter(model, key, value)
			if err != nil {
				return nil, err
			}
			conditions = append(conditions, cond)
		}
	}

	switch len(conditions) {
	case 0:
		return nil, nil
	case 1:
		return conditions[0], nil
	default:
		return types.NewAndCondition(conditions...), nil
	}
}

// compileFieldFilter compiles one field entry of a filter mapping. A
// registered custom filter for the (model, field) pair overrides default
// leaf compilation entirely.
func (l *Loader) compileFieldFilter(model, field string, value any) (types.Condition, error) {
	if custom, ok := l.fieldFilters[model][field]; ok {
		return custom(value)
	}

	s := l.schemas[model]
	if !s.HasField(field) {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, model, field)
	}

	operators, ok := value.(map[string]any)
	if !ok {
		// A bare scalar is shorthand for equality.
		return types.NewFieldCondition(field, types.OpEquals, value), nil
	}

	conditions := make([]types.Condition, 0, len(operators))
	for _, op := range sortedKeys(operators) {
		operator, known := filterOperators[op]
		if !known {
			return nil, fmt.Errorf("unknown operator %q for %s.%s", op, model, field)
		}
		conditions = append(conditions, types.NewFieldCondition(field, operator, operators[op]))
	}
	if len(conditions) == 1 {
		return conditions[0], nil
	}
	return types.NewAndCondition(conditions...), nil
}

func filterMappingList(combinator string, value any) ([]map[string]any, error) {
	switch list := value.(type) {
	case []map[string]any:
		return list, nil
	case []any:
		items := make([]map[string]any, 0, len(list))
		for _, entry := range list {
			item, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s combinator expects filter mappings, got %T", combinator, entry)
			}
			items = append(items, item)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%s combinator expects a list, got %T", combinator, value)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// copyFilter deep-copies a filter mapping so extraction can consume
// entries without mutating the caller's argument.
func copyFilter(filter map[string]any) map[string]any {
	if filter == nil {
		return nil
	}
	copied := make(map[string]any, len(filter))
	for k, v := range filter {
		copied[k] = copyFilterValue(v)
	}
	return copied
}

func copyFilterValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return copyFilter(v)
	case []any:
		list := make([]any, len(v))
		for i, item := range v {
			list[i] = copyFilterValue(item)
		}
		return list
	case []map[string]any:
		list := make([]map[string]any, len(v))
		for i, item := range v {
			list[i] = copyFilter(item)
		}
		return list
	default:
		return v
	}
}
