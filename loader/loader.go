// Package loader compiles a GraphQL selection tree, plus the caller's
// filter, search and sort arguments, into the query options bundle a
// relational executor needs: projection, includes, predicate tree,
// ordering and soft-delete visibility.
package loader

import (
	"errors"
	"fmt"

	"github.com/agiletiger/graphql-query-loader/schema"
	"github.com/agiletiger/graphql-query-loader/selection"
	"github.com/agiletiger/graphql-query-loader/types"
)

var (
	ErrUnknownModel    = errors.New("unknown model")
	ErrUnknownRelation = errors.New("unknown relation")
	ErrUnknownField    = errors.New("unknown field")
)

// FieldFilterFunc overrides default leaf-filter compilation for one
// (model, field) pair.
type FieldFilterFunc func(value any) (types.Condition, error)

// ComputedQuery declares what a resolver-computed field needs from the
// query: backing columns added to the projection and relations that must
// be joined.
type ComputedQuery struct {
	Attributes   []string
	Dependencies []schema.Dependency
}

// Loader compiles selection trees against a fixed set of schemas. The
// relation and dependency indices are built once here; a Loader is safe
// for concurrent use after construction.
type Loader struct {
	schemas        map[string]*schema.Schema
	relations      relationIndex
	dependencies   dependencyIndex
	defaultSorters []Sorter
	fieldFilters   map[string]map[string]FieldFilterFunc
	searchHandlers map[string]SearchFunc
}

type Option func(*Loader)

// WithDefaultSorters sets the sort list applied when a query supplies no
// sorters of its own.
func WithDefaultSorters(sorters ...Sorter) Option {
	return func(l *Loader) {
		l.defaultSorters = sorters
	}
}

// WithFieldFilters registers custom filter compilation functions, keyed
// by model then field name.
func WithFieldFilters(filters map[string]map[string]FieldFilterFunc) Option {
	return func(l *Loader) {
		l.fieldFilters = filters
	}
}

// WithSearchHandlers registers per-model custom search compilation.
func WithSearchHandlers(handlers map[string]SearchFunc) Option {
	return func(l *Loader) {
		l.searchHandlers = handlers
	}
}

func New(schemas map[string]*schema.Schema, opts ...Option) *Loader {
	l := &Loader{
		schemas:        schemas,
		relations:      buildRelationIndex(schemas),
		dependencies:   buildDependencyIndex(schemas),
		fieldFilters:   map[string]map[string]FieldFilterFunc{},
		searchHandlers: map[string]SearchFunc{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Params carries one compilation request. Filter is deep-copied before
// extraction, so the caller's mapping is never modified.
type Params struct {
	Model  string
	Fields []*selection.Field

	// Root-only inputs, applied once after the walk.
	Filter           map[string]any
	Sorters          []Sorter
	CustomSorters    map[string][]types.OrderTerm
	Search           []SearchExpression
	RequiredIncludes []types.Include
	ComputedQueries  map[string]ComputedQuery
}

// Load is the single public operation: it walks the selection tree and
// then applies the root-only concerns in a fixed order. Any failure
// aborts the whole call; a partial bundle is never returned.
func (l *Loader) Load(params Params) (*types.QueryOptions, error) {
	s, ok := l.schemas[params.Model]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, params.Model)
	}

	res, err := l.walk(params.Model, params.Fields, params.ComputedQueries)
	if err != nil {
		return nil, err
	}

	if err := l.injectRequiredIncludes(params.Model, params.RequiredIncludes, res); err != nil {
		return nil, err
	}

	// Partition the explicit filter: entries keyed by an include alias
	// are relation filters and belong on that include, never in the root
	// predicate.
	filter := copyFilter(params.Filter)
	for _, key := range sortedKeys(filter) {
		include := res.findInclude(key)
		if include == nil {
			continue
		}
		relationFilter, ok := filter[key].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("filter for relation %s must be a mapping, got %T", key, filter[key])
		}
		cond, err := l.compileFilter(include.Model, relationFilter)
		if err != nil {
			return nil, err
		}
		include.Where = types.MergeConditions(include.Where, cond)
		delete(filter, key)
	}

	rootCond, err := l.compileFilter(params.Model, filter)
	if err != nil {
		return nil, err
	}
	where := types.MergeConditions(rootCond, res.where)

	searchCond, err := l.compileSearch(params.Model, params.Search)
	if err != nil {
		return nil, err
	}
	where = types.MergeConditions(where, searchCond)

	sorters := params.Sorters
	if len(sorters) == 0 {
		sorters = l.defaultSorters
	}
	order, err := l.compileOrder(params.Model, sorters, params.CustomSorters)
	if err != nil {
		return nil, err
	}

	// Sorting must never require the caller to have selected the sort
	// field: pull missing root columns into the projection.
	for _, term := range order {
		if len(term.Path) > 0 {
			continue
		}
		if s.HasField(term.Field) {
			res.addAttr(term.Field)
		}
	}

	return &types.QueryOptions{
		Attributes: res.attrs,
		Include:    res.includes,
		Where:      where,
		Order:      order,
		Paranoid:   res.paranoid,
	}, nil
}

func (l *Loader) injectRequiredIncludes(model string, required []types.Include, res *walkResult) error {
	for _, include := range required {
		if res.findInclude(include.As) != nil {
			continue
		}
		target, ok := l.relations[model][include.As]
		if !ok {
			return fmt.Errorf("%w: required include %s on model %s", ErrUnknownRelation, include.As, model)
		}
		if include.Model == "" {
			include.Model = target
		}
		res.includes = append(res.includes, include)
	}
	return nil
}
