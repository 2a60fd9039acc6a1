// Package sqlgen renders a compiled query options bundle into a SQL
// SELECT statement. It is a convenience for executors that speak SQL
// directly; it builds statements but never runs them.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/agiletiger/graphql-query-loader/schema"
	"github.com/agiletiger/graphql-query-loader/types"
)

const (
	rootAlias        = "main"
	softDeleteColumn = "deleted_at"
)

// Builder renders bundles against a fixed set of schemas.
type Builder struct {
	schemas map[string]*schema.Schema
}

func New(schemas map[string]*schema.Schema) *Builder {
	return &Builder{schemas: schemas}
}

// Build assembles a SELECT for the model from the bundle: projection
// columns, joins for every include, the where tree, soft-delete
// filtering and ordering.
func (b *Builder) Build(model string, opts *types.QueryOptions) (squirrel.SelectBuilder, error) {
	sb := squirrel.Select().PlaceholderFormat(squirrel.Dollar)

	s, ok := b.schemas[model]
	if !ok {
		return sb, fmt.Errorf("unknown model %s", model)
	}
	sb = sb.From(fmt.Sprintf("%s AS %s", s.TableName, rootAlias))

	columns, err := b.projectionColumns(s, rootAlias, opts.Attributes)
	if err != nil {
		return sb, err
	}

	for _, include := range opts.Include {
		var joinColumns []string
		sb, joinColumns, err = b.applyInclude(sb, s, rootAlias, include.As, include)
		if err != nil {
			return sb, err
		}
		columns = append(columns, joinColumns...)
	}
	sb = sb.Columns(columns...)

	if opts.Where != nil {
		where, err := b.conditionToSqlizer(s, rootAlias, opts.Where)
		if err != nil {
			return sb, err
		}
		sb = sb.Where(where)
	}
	if opts.Paranoid && s.SoftDelete {
		sb = sb.Where(squirrel.Eq{rootAlias + "." + softDeleteColumn: nil})
	}

	for _, term := range opts.Order {
		clause, err := b.orderClause(model, term)
		if err != nil {
			return sb, err
		}
		sb = sb.OrderBy(clause)
	}

	return sb, nil
}

func (b *Builder) projectionColumns(s *schema.Schema, alias string, attributes []string) ([]string, error) {
	columns := make([]string, 0, len(attributes))
	for _, attr := range attributes {
		field, err := s.GetField(attr)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", s.Name, err)
		}
		if field.Computed {
			// Computed attributes have no column; the executor attaches
			// their expression itself.
			continue
		}
		columns = append(columns, fmt.Sprintf("%s.%s AS %q", alias, field.GetColumnName(), attr))
	}
	return columns, nil
}

func (b *Builder) applyInclude(sb squirrel.SelectBuilder, parent *schema.Schema, parentAlias, alias string, include types.Include) (squirrel.SelectBuilder, []string, error) {
	target, ok := b.schemas[include.Model]
	if !ok {
		return sb, nil, fmt.Errorf("include %s: unknown model %s", include.As, include.Model)
	}
	relation, err := parent.GetRelation(include.As)
	if err != nil {
		return sb, nil, fmt.Errorf("model %s: %w", parent.Name, err)
	}

	on, err := joinCondition(relation, parent, target, parentAlias, alias)
	if err != nil {
		return sb, nil, fmt.Errorf("include %s: %w", include.As, err)
	}

	var args []any
	if include.Paranoid && target.SoftDelete {
		on += fmt.Sprintf(" AND %s.%s IS NULL", alias, softDeleteColumn)
	}
	if include.Where != nil {
		where, err := b.conditionToSqlizer(target, alias, include.Where)
		if err != nil {
			return sb, nil, err
		}
		sql, whereArgs, err := where.ToSql()
		if err != nil {
			return sb, nil, err
		}
		on += " AND (" + sql + ")"
		args = whereArgs
	}

	join := fmt.Sprintf("%s AS %s ON %s", target.TableName, alias, on)
	if include.Required {
		sb = sb.Join(join, args...)
	} else {
		sb = sb.LeftJoin(join, args...)
	}

	columns, err := b.projectionColumns(target, alias, include.Attributes)
	if err != nil {
		return sb, nil, err
	}

	for _, nested := range include.Include {
		var nestedColumns []string
		sb, nestedColumns, err = b.applyInclude(sb, target, alias, alias+"_"+nested.As, nested)
		if err != nil {
			return sb, nil, err
		}
		columns = append(columns, nestedColumns...)
	}
	return sb, columns, nil
}

func joinCondition(relation schema.Relation, parent, target *schema.Schema, parentAlias, alias string) (string, error) {
	references := relation.References
	if references == "" {
		references = "id"
	}

	switch relation.Type {
	case schema.RelationManyToOne:
		fk, err := parent.GetField(relation.ForeignKey)
		if err != nil {
			return "", err
		}
		ref, err := target.GetField(references)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s.%s = %s.%s", parentAlias, fk.GetColumnName(), alias, ref.GetColumnName()), nil

	case schema.RelationOneToMany:
		fk, err := target.GetField(relation.ForeignKey)
		if err != nil {
			return "", err
		}
		ref, err := parent.GetField(references)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s.%s = %s.%s", alias, fk.GetColumnName(), parentAlias, ref.GetColumnName()), nil

	case schema.RelationOneToOne:
		if parent.HasField(relation.ForeignKey) {
			fk, _ := parent.GetField(relation.ForeignKey)
			ref, err := target.GetField(references)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s.%s = %s.%s", parentAlias, fk.GetColumnName(), alias, ref.GetColumnName()), nil
		}
		fk, err := target.GetField(relation.ForeignKey)
		if err != nil {
			return "", err
		}
		ref, err := parent.GetField(references)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s.%s = %s.%s", alias, fk.GetColumnName(), parentAlias, ref.GetColumnName()), nil

	case schema.RelationManyToMany:
		return "", fmt.Errorf("many-to-many relations need a junction table and are not rendered")

	default:
		return "", fmt.Errorf("unknown relation type %s", relation.Type)
	}
}

func (b *Builder) conditionToSqlizer(s *schema.Schema, alias string, cond types.Condition) (squirrel.Sqlizer, error) {
	switch c := cond.(type) {
	case *types.FieldCondition:
		return leafSqlizer(s, alias, c)
	case *types.AndCondition:
		and := make(squirrel.And, 0, len(c.Conditions))
		for _, child := range c.Conditions {
			sq, err := b.conditionToSqlizer(s, alias, child)
			if err != nil {
				return nil, err
			}
			and = append(and, sq)
		}
		return and, nil
	case *types.OrCondition:
		or := make(squirrel.Or, 0, len(c.Conditions))
		for _, child := range c.Conditions {
			sq, err := b.conditionToSqlizer(s, alias, child)
			if err != nil {
				return nil, err
			}
			or = append(or, sq)
		}
		return or, nil
	case *types.NotCondition:
		inner, err := b.conditionToSqlizer(s, alias, c.Condition)
		if err != nil {
			return nil, err
		}
		sql, args, err := inner.ToSql()
		if err != nil {
			return nil, err
		}
		return squirrel.Expr("NOT ("+sql+")", args...), nil
	default:
		return nil, fmt.Errorf("unsupported condition type %T", cond)
	}
}

func leafSqlizer(s *schema.Schema, alias string, c *types.FieldCondition) (squirrel.Sqlizer, error) {
	column := c.Field
	if field, err := s.GetField(c.Field); err == nil {
		column = field.GetColumnName()
	}
	expr := alias + "." + column

	switch c.Operator {
	case types.OpEquals, types.OpIn:
		return squirrel.Eq{expr: c.Value}, nil
	case types.OpNotEquals, types.OpNotIn:
		return squirrel.NotEq{expr: c.Value}, nil
	case types.OpGreaterThan:
		return squirrel.Gt{expr: c.Value}, nil
	case types.OpGreaterThanOrEqual:
		return squirrel.GtOrEq{expr: c.Value}, nil
	case types.OpLessThan:
		return squirrel.Lt{expr: c.Value}, nil
	case types.OpLessThanOrEqual:
		return squirrel.LtOrEq{expr: c.Value}, nil
	case types.OpContains:
		return squirrel.Like{expr: fmt.Sprintf("%%%v%%", c.Value)}, nil
	case types.OpStartsWith:
		return squirrel.Like{expr: fmt.Sprintf("%v%%", c.Value)}, nil
	case types.OpEndsWith:
		return squirrel.Like{expr: fmt.Sprintf("%%%v", c.Value)}, nil
	case types.OpBetween:
		bounds, ok := c.Value.([]any)
		if !ok || len(bounds) != 2 {
			return nil, fmt.Errorf("between on %s expects [low, high], got %#v", c.Field, c.Value)
		}
		return squirrel.Expr(expr+" BETWEEN ? AND ?", bounds[0], bounds[1]), nil
	case types.OpIsNull:
		if c.Value == false {
			return squirrel.NotEq{expr: nil}, nil
		}
		return squirrel.Eq{expr: nil}, nil
	default:
		return nil, fmt.Errorf("unsupported operator %s", c.Operator)
	}
}

func (b *Builder) orderClause(model string, term types.OrderTerm) (string, error) {
	current := model
	alias := rootAlias
	for i, segment := range term.Path {
		s := b.schemas[current]
		relation, err := s.GetRelation(segment)
		if err != nil {
			return "", fmt.Errorf("order path %s: %w", strings.Join(term.Path, "."), err)
		}
		if i == 0 {
			alias = segment
		} else {
			alias += "_" + segment
		}
		current = relation.Model
	}

	field, err := b.schemas[current].GetField(term.Field)
	if err != nil {
		return "", fmt.Errorf("order by: %w", err)
	}
	direction := term.Direction
	if direction == "" {
		direction = types.ASC
	}
	return fmt.Sprintf("%s.%s %s", alias, field.GetColumnName(), direction), nil
}
