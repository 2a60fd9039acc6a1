package loader

import (
	"fmt"
	"strings"

	"github.com/agiletiger/graphql-query-loader/schema"
	"github.com/agiletiger/graphql-query-loader/selection"
	"github.com/agiletiger/graphql-query-loader/types"
)

// walkResult is the per-subtree bundle produced by the selection walk.
type walkResult struct {
	attrs    []string
	includes []types.Include
	where    types.Condition
	paranoid bool
}

func (r *walkResult) addAttr(name string) {
	for _, a := range r.attrs {
		if a == name {
			return
		}
	}
	r.attrs = append(r.attrs, name)
}

func (r *walkResult) findInclude(alias string) *types.Include {
	for i := range r.includes {
		if r.includes[i].As == alias {
			return &r.includes[i]
		}
	}
	return nil
}

// walk recursively resolves one selection subtree against a model:
// scalar fields feed the projection, relation fields recurse into the
// target model, and dependency declarations force their relations into
// the include list. Root-only concerns (explicit filter, search,
// sorters) are deliberately absent here; Load applies them once after
// the walk.
func (l *Loader) walk(model string, fields []*selection.Field, computed map[string]ComputedQuery) (*walkResult, error) {
	s, ok := l.schemas[model]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}

	res := &walkResult{paranoid: true}
	for _, f := range fields {
		if strings.HasPrefix(f.Name, "__") {
			continue // introspection meta fields
		}

		if target, ok := l.relations[model][f.Name]; ok {
			child, err := l.walk(target, f.Children, computed)
			if err != nil {
				return nil, err
			}
			include := types.Include{
				As:         f.Name,
				Model:      target,
				Paranoid:   child.paranoid,
				Where:      child.where,
				Attributes: child.attrs,
				Include:    child.includes,
			}
			if whereArg, ok := f.Arguments["where"].(map[string]any); ok {
				cond, err := l.compileFilter(target, whereArg)
				if err != nil {
					return nil, err
				}
				include.Where = types.MergeConditions(include.Where, cond)
			}
			res.mergeInclude(include)
			continue
		}

		if s.HasField(f.Name) {
			res.addAttr(f.Name)
			for _, dep := range l.dependencies[model][f.Name] {
				if err := l.applyDependency(model, dep, res); err != nil {
					return nil, fmt.Errorf("field %s.%s: %w", model, f.Name, err)
				}
			}
			if cq, ok := computed[f.Name]; ok {
				if err := l.applyComputedQuery(model, f.Name, cq, res); err != nil {
					return nil, err
				}
			}
			if filterArg, ok := f.Arguments["filter"]; ok {
				cond, err := l.compileFieldFilter(model, f.Name, filterArg)
				if err != nil {
					return nil, err
				}
				res.where = types.MergeConditions(res.where, cond)
			}
			continue
		}

		if cq, ok := computed[f.Name]; ok {
			if err := l.applyComputedQuery(model, f.Name, cq, res); err != nil {
				return nil, err
			}
			continue
		}

		if len(f.Children) > 0 {
			return nil, fmt.Errorf("%w: %s on model %s", ErrUnknownRelation, f.Name, model)
		}
		// Scalar with no metadata: resolved outside the query, nothing
		// to project.
	}
	return res, nil
}

// applyDependency ensures the dependency's relation is present in the
// include list and merges the join and visibility flags. Required wins
// over optional; excluding soft-deleted rows wins over including them.
func (l *Loader) applyDependency(model string, dep schema.Dependency, res *walkResult) error {
	target, ok := l.relations[model][dep.Relation]
	if !ok {
		return fmt.Errorf("%w: dependency on %s", ErrUnknownRelation, dep.Relation)
	}

	if include := res.findInclude(dep.Relation); include != nil {
		include.Required = include.Required || dep.Required
		include.Paranoid = include.Paranoid || !dep.IncludeDeleted
	} else {
		res.includes = append(res.includes, types.Include{
			As:       dep.Relation,
			Model:    target,
			Required: dep.Required,
			Paranoid: !dep.IncludeDeleted,
		})
	}

	// A dependency that must survive soft deletion of its relation turns
	// off paranoid filtering for the whole node. Most restrictive wins is
	// applied per include above; this node-level combination follows the
	// dependency declarations only.
	if dep.IncludeDeleted {
		res.paranoid = false
	}
	return nil
}

func (l *Loader) applyComputedQuery(model, field string, cq ComputedQuery, res *walkResult) error {
	s := l.schemas[model]
	res.addAttr(field)
	for _, attr := range cq.Attributes {
		if !s.HasField(attr) {
			return fmt.Errorf("computed query %s: %w: %s.%s", field, ErrUnknownField, model, attr)
		}
		res.addAttr(attr)
	}
	for _, dep := range cq.Dependencies {
		if err := l.applyDependency(model, dep, res); err != nil {
			return fmt.Errorf("computed query %s: %w", field, err)
		}
	}
	return nil
}

// mergeInclude deduplicates includes by alias, keeping a single entry
// with the union of attributes and the stricter of the flags.
func (r *walkResult) mergeInclude(include types.Include) {
	existing := r.findInclude(include.As)
	if existing == nil {
		r.includes = append(r.includes, include)
		return
	}

	existing.Required = existing.Required || include.Required
	existing.Paranoid = existing.Paranoid || include.Paranoid
	existing.Where = types.MergeConditions(existing.Where, include.Where)
	for _, attr := range include.Attributes {
		found := false
		for _, a := range existing.Attributes {
			if a == attr {
				found = true
				break
			}
		}
		if !found {
			existing.Attributes = append(existing.Attributes, attr)
		}
	}
	for _, nested := range include.Include {
		mergeIncludeInto(&existing.Include, nested)
	}
}

func mergeIncludeInto(includes *[]types.Include, include types.Include) {
	for i := range *includes {
		if (*includes)[i].As == include.As {
			(*includes)[i].Required = (*includes)[i].Required || include.Required
			(*includes)[i].Paranoid = (*includes)[i].Paranoid || include.Paranoid
			(*includes)[i].Where = types.MergeConditions((*includes)[i].Where, include.Where)
			for _, nested := range include.Include {
				mergeIncludeInto(&(*includes)[i].Include, nested)
			}
			return
		}
	}
	*includes = append(*includes, include)
}
