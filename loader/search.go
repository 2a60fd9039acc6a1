package loader

import (
	"fmt"

	"github.com/agiletiger/graphql-query-loader/types"
)

// SearchExpression names a set of candidate fields and a term to search
// them for.
type SearchExpression struct {
	Fields []string
	Term   string
}

// SearchFunc replaces default search compilation for one model.
type SearchFunc func(model string, expressions []SearchExpression) (types.Condition, error)

// compileSearch converts search expressions into a predicate tree: the
// fields of one expression are OR'd together, multiple expressions are
// AND'd. A registered custom handler fully replaces this for its model.
func (l *Loader) compileSearch(model string, expressions []SearchExpression) (types.Condition, error) {
	if len(expressions) == 0 {
		return nil, nil
	}
	if handler, ok := l.searchHandlers[model]; ok {
		return handler(model, expressions)
	}

	s := l.schemas[model]
	conditions := make([]types.Condition, 0, len(expressions))
	for _, expr := range expressions {
		if expr.Term == "" || len(expr.Fields) == 0 {
			continue
		}
		leaves := make([]types.Condition, 0, len(expr.Fields))
		for _, field := range expr.Fields {
			if !s.HasField(field) {
				return nil, fmt.Errorf("%w: search field %s.%s", ErrUnknownField, model, field)
			}
			leaves = append(leaves, types.NewFieldCondition(field, types.OpContains, expr.Term))
		}
		if len(leaves) == 1 {
			conditions = append(conditions, leaves[0])
		} else {
			conditions = append(conditions, types.NewOrCondition(leaves...))
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
