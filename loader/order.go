package loader

import (
	"fmt"
	"strings"

	"github.com/agiletiger/graphql-query-loader/types"
)

// Sorter is a caller-supplied sort specification: a field (optionally a
// dotted relation path, or the name of a custom sorter preset) and a
// direction.
type Sorter struct {
	Field string
	Order types.Order
}

// compileOrder turns sort specifications into concrete order terms.
// Output order matches declaration order; a spec naming a custom preset
// is substituted by the preset's terms in place.
func (l *Loader) compileOrder(model string, sorters []Sorter, custom map[string][]types.OrderTerm) ([]types.OrderTerm, error) {
	if len(sorters) == 0 {
		return nil, nil
	}

	order := make([]types.OrderTerm, 0, len(sorters))
	for _, sorter := range sorters {
		if preset, ok := custom[sorter.Field]; ok {
			order = append(order, preset...)
			continue
		}

		direction := sorter.Order
		if direction == "" {
			direction = types.ASC
		}

		if strings.Contains(sorter.Field, ".") {
			term, err := l.compileQualifiedSort(model, sorter.Field, direction)
			if err != nil {
				return nil, err
			}
			order = append(order, term)
			continue
		}

		if !l.schemas[model].HasField(sorter.Field) {
			return nil, fmt.Errorf("%w: sorter %s.%s", ErrUnknownField, model, sorter.Field)
		}
		order = append(order, types.OrderTerm{Field: sorter.Field, Direction: direction})
	}
	return order, nil
}

// compileQualifiedSort resolves a dotted path like "author.name" into an
// order term tagged with the relation chain, validating every segment
// against the relation index.
func (l *Loader) compileQualifiedSort(model, path string, direction types.Order) (types.OrderTerm, error) {
	parts := strings.Split(path, ".")
	current := model
	for _, segment := range parts[:len(parts)-1] {
		target, ok := l.relations[current][segment]
		if !ok {
			return types.OrderTerm{}, fmt.Errorf("%w: sorter path %s (segment %s on model %s)", ErrUnknownRelation, path, segment, current)
		}
		current = target
	}

	field := parts[len(parts)-1]
	if !l.schemas[current].HasField(field) {
		return types.OrderTerm{}, fmt.Errorf("%w: sorter path %s (%s.%s)", ErrUnknownField, path, current, field)
	}
	return types.OrderTerm{Field: field, Direction: direction, Path: parts[:len(parts)-1]}, nil
}
