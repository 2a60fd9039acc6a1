package graphql

import (
	"fmt"
	"sort"

	"github.com/graphql-go/graphql"

	"github.com/agiletiger/graphql-query-loader/loader"
	"github.com/agiletiger/graphql-query-loader/schema"
	"github.com/agiletiger/graphql-query-loader/selection"
	"github.com/agiletiger/graphql-query-loader/types"
)

// SchemaGenerator generates a GraphQL schema whose read resolvers
// compile the request's selection tree into query options and hand them
// to an Executor.
type SchemaGenerator struct {
	schemas       map[string]*schema.Schema
	loader        *loader.Loader
	executor      Executor
	objectTypes   map[string]*graphql.Object
	whereInputs   map[string]*graphql.InputObject
	orderByInputs map[string]*graphql.InputObject
}

// NewSchemaGenerator creates a new schema generator
func NewSchemaGenerator(schemas map[string]*schema.Schema, ldr *loader.Loader, executor Executor) *SchemaGenerator {
	return &SchemaGenerator{
		schemas:       schemas,
		loader:        ldr,
		executor:      executor,
		objectTypes:   make(map[string]*graphql.Object),
		whereInputs:   make(map[string]*graphql.InputObject),
		orderByInputs: make(map[string]*graphql.InputObject),
	}
}

// Generate creates the complete GraphQL schema
func (g *SchemaGenerator) Generate() (*graphql.Schema, error) {
	// First pass: create basic object types (without relations)
	for modelName := range g.schemas {
		if err := g.createBasicObjectType(modelName); err != nil {
			return nil, fmt.Errorf("failed to create basic object type for %s: %w", modelName, err)
		}
	}

	// Where and orderBy inputs next; relation fields reference the
	// target model's where input for their filter argument.
	for modelName := range g.schemas {
		if err := g.createInputTypes(modelName); err != nil {
			return nil, fmt.Errorf("failed to create input types for %s: %w", modelName, err)
		}
	}

	// Final pass: add relation fields using AddFieldConfig
	for modelName := range g.schemas {
		if err := g.addRelationFields(modelName); err != nil {
			return nil, fmt.Errorf("failed to add relation fields to %s: %w", modelName, err)
		}
	}

	queryType := g.createQueryType()

	gqlSchema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
	if err != nil {
		return nil, err
	}

	return &gqlSchema, nil
}

// createBasicObjectType creates a GraphQL object type with scalar fields only
func (g *SchemaGenerator) createBasicObjectType(modelName string) error {
	modelSchema, ok := g.schemas[modelName]
	if !ok {
		return fmt.Errorf("schema not found for model %s", modelName)
	}

	fields := graphql.Fields{}
	for _, field := range modelSchema.Fields {
		fieldType := MapFieldTypeToGraphQL(field.Type)
		if !field.Nullable && !field.Computed {
			fieldType = graphql.NewNonNull(fieldType)
		}

		fields[field.Name] = &graphql.Field{
			Type: fieldType,
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if source, ok := p.Source.(map[string]any); ok {
					return source[p.Info.FieldName], nil
				}
				return nil, nil
			},
		}
	}

	g.objectTypes[modelName] = graphql.NewObject(graphql.ObjectConfig{
		Name:        modelName,
		Description: fmt.Sprintf("%s model", modelName),
		Fields:      fields,
	})

	return nil
}

// addRelationFields adds relation fields to existing object types. The
// field resolver only reads the already-loaded value from the row; the
// join itself is compiled by the loader at the root resolver.
func (g *SchemaGenerator) addRelationFields(modelName string) error {
	modelSchema := g.schemas[modelName]
	if len(modelSchema.Relations) == 0 {
		return nil
	}

	objectType := g.objectTypes[modelName]
	for relationName, relation := range modelSchema.Relations {
		relatedType, ok := g.objectTypes[relation.Model]
		if !ok {
			return fmt.Errorf("relation %s.%s points at unknown model %s", modelName, relationName, relation.Model)
		}

		var fieldType graphql.Type
		if relation.Type == schema.RelationOneToMany || relation.Type == schema.RelationManyToMany {
			fieldType = graphql.NewList(relatedType)
		} else {
			fieldType = relatedType
		}

		objectType.AddFieldConfig(relationName, &graphql.Field{
			Type: fieldType,
			Args: graphql.FieldConfigArgument{
				"where": &graphql.ArgumentConfig{
					Type: g.whereInputs[relation.Model],
				},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if source, ok := p.Source.(map[string]any); ok {
					return source[p.Info.FieldName], nil
				}
				return nil, nil
			},
		})
	}

	return nil
}

// createInputTypes creates the where and orderBy inputs for one model
func (g *SchemaGenerator) createInputTypes(modelName string) error {
	modelSchema := g.schemas[modelName]

	whereFields := graphql.InputObjectConfigFieldMap{}
	orderByFields := graphql.InputObjectConfigFieldMap{}

	for _, field := range modelSchema.Fields {
		if field.Computed {
			continue
		}
		whereFields[field.Name] = WhereInputField(field.Type)
		orderByFields[field.Name] = &graphql.InputObjectFieldConfig{
			Type: OrderByEnum,
		}
	}

	whereInputName := fmt.Sprintf("%sWhereInput", modelName)
	whereInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:   whereInputName,
		Fields: whereFields,
	})

	// Self-referencing combinators have to be added after creation
	whereFields["AND"] = &graphql.InputObjectFieldConfig{
		Type: graphql.NewList(whereInput),
	}
	whereFields["OR"] = &graphql.InputObjectFieldConfig{
		Type: graphql.NewList(whereInput),
	}
	whereFields["NOT"] = &graphql.InputObjectFieldConfig{
		Type: whereInput,
	}

	g.whereInputs[modelName] = whereInput

	g.orderByInputs[modelName] = graphql.NewInputObject(graphql.InputObjectConfig{
		Name:   fmt.Sprintf("%sOrderByInput", modelName),
		Fields: orderByFields,
	})

	return nil
}

// createQueryType creates the root Query type
func (g *SchemaGenerator) createQueryType() *graphql.Object {
	queryFields := graphql.Fields{}

	for modelName, objectType := range g.objectTypes {
		queryFields[fmt.Sprintf("findMany%s", modelName)] = &graphql.Field{
			Type: graphql.NewList(objectType),
			Args: graphql.FieldConfigArgument{
				"where": &graphql.ArgumentConfig{
					Type: g.whereInputs[modelName],
				},
				"orderBy": &graphql.ArgumentConfig{
					Type: graphql.NewList(g.orderByInputs[modelName]),
				},
				"search": &graphql.ArgumentConfig{
					Type: graphql.String,
				},
			},
			Resolve: g.createFindManyResolver(modelName),
		}

		queryFields[fmt.Sprintf("findUnique%s", modelName)] = &graphql.Field{
			Type: objectType,
			Args: graphql.FieldConfigArgument{
				"where": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(g.whereInputs[modelName]),
				},
			},
			Resolve: g.createFindUniqueResolver(modelName),
		}
	}

	return graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: queryFields,
	})
}

func (g *SchemaGenerator) createFindManyResolver(modelName string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		opts, err := g.compileOptions(modelName, p)
		if err != nil {
			return nil, err
		}
		return g.executor.FindMany(p.Context, modelName, opts)
	}
}

func (g *SchemaGenerator) createFindUniqueResolver(modelName string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		opts, err := g.compileOptions(modelName, p)
		if err != nil {
			return nil, err
		}
		rows, err := g.executor.FindMany(p.Context, modelName, opts)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil
		}
		return rows[0], nil
	}
}

// compileOptions turns one resolved request into a query-options bundle
func (g *SchemaGenerator) compileOptions(modelName string, p graphql.ResolveParams) (*types.QueryOptions, error) {
	params := loader.Params{
		Model:  modelName,
		Fields: selection.FromResolveParams(p),
	}

	if where, ok := p.Args["where"].(map[string]any); ok {
		params.Filter = where
	}
	if orderBy, ok := p.Args["orderBy"].([]any); ok {
		params.Sorters = sortersFromArg(orderBy)
	}
	if search, ok := p.Args["search"].(string); ok && search != "" {
		params.Search = []loader.SearchExpression{{
			Fields: searchableFields(g.schemas[modelName]),
			Term:   search,
		}}
	}

	return g.loader.Load(params)
}

// sortersFromArg flattens a list of {field: direction} objects into the
// loader's sorter list. Keys inside one object are sorted so a request
// always compiles the same way.
func sortersFromArg(orderBy []any) []loader.Sorter {
	var sorters []loader.Sorter
	for _, entry := range orderBy {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, field := range keys {
			direction := types.ASC
			if d, ok := m[field].(string); ok && d == "DESC" {
				direction = types.DESC
			}
			sorters = append(sorters, loader.Sorter{Field: field, Order: direction})
		}
	}
	return sorters
}

// searchableFields returns the model's string fields, the default
// target set for free-text search.
func searchableFields(s *schema.Schema) []string {
	var fields []string
	for _, f := range s.Fields {
		if f.Type == schema.FieldTypeString && !f.Computed {
			fields = append(fields, f.Name)
		}
	}
	return fields
}
