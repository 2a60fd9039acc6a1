// Package selection converts graphql-go field ASTs into the plain
// selection tree the loader consumes. Fragment spreads and inline
// fragments are flattened into the field list; argument values are
// resolved against the request's variables. Protocol validation is
// graphql-go's job, not this package's.
package selection

import (
	"strconv"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// Field is one node of a selection tree: a requested field or relation,
// its bound arguments, and the nested selections under it.
type Field struct {
	Name      string
	Arguments map[string]any
	Children  []*Field
}

// Child returns the named child selection, or nil.
func (f *Field) Child(name string) *Field {
	for _, c := range f.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// FromResolveParams extracts the selection tree under the field being
// resolved.
func FromResolveParams(p graphql.ResolveParams) []*Field {
	var fields []*Field
	for _, fieldAST := range p.Info.FieldASTs {
		if fieldAST.SelectionSet == nil {
			continue
		}
		fields = append(fields, FromSelectionSet(fieldAST.SelectionSet, p.Info.Fragments, p.Info.VariableValues)...)
	}
	return fields
}

// FromSelectionSet converts a selection set into a flat list of fields,
// expanding fragment spreads and inline fragments in place.
func FromSelectionSet(set *ast.SelectionSet, fragments map[string]ast.Definition, variables map[string]any) []*Field {
	if set == nil {
		return nil
	}
	var fields []*Field
	for _, sel := range set.Selections {
		switch node := sel.(type) {
		case *ast.Field:
			fields = append(fields, fromFieldAST(node, fragments, variables))
		case *ast.FragmentSpread:
			def, ok := fragments[node.Name.Value]
			if !ok {
				continue
			}
			if frag, ok := def.(*ast.FragmentDefinition); ok {
				fields = append(fields, FromSelectionSet(frag.SelectionSet, fragments, variables)...)
			}
		case *ast.InlineFragment:
			fields = append(fields, FromSelectionSet(node.SelectionSet, fragments, variables)...)
		}
	}
	return fields
}

func fromFieldAST(node *ast.Field, fragments map[string]ast.Definition, variables map[string]any) *Field {
	field := &Field{Name: node.Name.Value}
	if len(node.Arguments) > 0 {
		field.Arguments = make(map[string]any, len(node.Arguments))
		for _, arg := range node.Arguments {
			field.Arguments[arg.Name.Value] = valueFromAST(arg.Value, variables)
		}
	}
	field.Children = FromSelectionSet(node.SelectionSet, fragments, variables)
	return field
}

func valueFromAST(value ast.Value, variables map[string]any) any {
	switch v := value.(type) {
	case *ast.Variable:
		return variables[v.Name.Value]
	case *ast.IntValue:
		if n, err := strconv.Atoi(v.Value); err == nil {
			return n
		}
		return v.Value
	case *ast.FloatValue:
		if f, err := strconv.ParseFloat(v.Value, 64); err == nil {
			return f
		}
		return v.Value
	case *ast.StringValue:
		return v.Value
	case *ast.BooleanValue:
		return v.Value
	case *ast.EnumValue:
		return v.Value
	case *ast.ListValue:
		list := make([]any, 0, len(v.Values))
		for _, item := range v.Values {
			list = append(list, valueFromAST(item, variables))
		}
		return list
	case *ast.ObjectValue:
		obj := make(map[string]any, len(v.Fields))
		for _, f := range v.Fields {
			obj[f.Name.Value] = valueFromAST(f.Value, variables)
		}
		return obj
	default:
		return nil
	}
}
