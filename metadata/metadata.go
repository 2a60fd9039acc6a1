// Package metadata loads entity definitions from YAML files so the CLI
// and server can run against schemas described outside of Go code.
package metadata

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/agiletiger/graphql-query-loader/schema"
)

type fileSpec struct {
	Models map[string]modelSpec `yaml:"models"`
}

type modelSpec struct {
	Table      string                  `yaml:"table"`
	SoftDelete bool                    `yaml:"softDelete"`
	Fields     []fieldSpec             `yaml:"fields"`
	Relations  map[string]relationSpec `yaml:"relations"`
}

type fieldSpec struct {
	Name         string           `yaml:"name"`
	Type         string           `yaml:"type"`
	PrimaryKey   bool             `yaml:"primaryKey"`
	Nullable     bool             `yaml:"nullable"`
	Unique       bool             `yaml:"unique"`
	Default      any              `yaml:"default"`
	Column       string           `yaml:"column"`
	Computed     bool             `yaml:"computed"`
	Dependencies []dependencySpec `yaml:"dependencies"`
}

type dependencySpec struct {
	Relation       string `yaml:"relation"`
	Required       bool   `yaml:"required"`
	IncludeDeleted bool   `yaml:"includeDeleted"`
}

type relationSpec struct {
	Type       string `yaml:"type"`
	Model      string `yaml:"model"`
	ForeignKey string `yaml:"foreignKey"`
	References string `yaml:"references"`
}

var fieldTypes = map[string]schema.FieldType{
	"string":   schema.FieldTypeString,
	"int":      schema.FieldTypeInt,
	"int64":    schema.FieldTypeInt64,
	"float":    schema.FieldTypeFloat,
	"bool":     schema.FieldTypeBool,
	"datetime": schema.FieldTypeDateTime,
	"json":     schema.FieldTypeJSON,
	"decimal":  schema.FieldTypeDecimal,
}

var relationTypes = map[string]schema.RelationType{
	"oneToOne":   schema.RelationOneToOne,
	"oneToMany":  schema.RelationOneToMany,
	"manyToOne":  schema.RelationManyToOne,
	"manyToMany": schema.RelationManyToMany,
}

// Load reads a YAML metadata file and returns the validated schemas.
func Load(path string) (map[string]*schema.Schema, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(content)
}

// Parse builds schemas from YAML content.
func Parse(content []byte) (map[string]*schema.Schema, error) {
	var spec fileSpec
	if err := yaml.Unmarshal(content, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if len(spec.Models) == 0 {
		return nil, fmt.Errorf("metadata defines no models")
	}

	schemas := make(map[string]*schema.Schema, len(spec.Models))
	for name, model := range spec.Models {
		s, err := buildSchema(name, model)
		if err != nil {
			return nil, err
		}
		schemas[name] = s
	}

	for name, s := range schemas {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("model %s: %w", name, err)
		}
		if err := s.ValidateRelations(schemas); err != nil {
			return nil, fmt.Errorf("model %s: %w", name, err)
		}
	}

	return schemas, nil
}

func buildSchema(name string, model modelSpec) (*schema.Schema, error) {
	s := schema.New(name)
	if model.Table != "" {
		s = s.WithTableName(model.Table)
	}
	if model.SoftDelete {
		s = s.WithSoftDelete()
	}

	for _, field := range model.Fields {
		fieldType, ok := fieldTypes[field.Type]
		if !ok {
			return nil, fmt.Errorf("model %s field %s: unknown type %q", name, field.Name, field.Type)
		}

		deps := make([]schema.Dependency, 0, len(field.Dependencies))
		for _, dep := range field.Dependencies {
			if dep.Relation == "" {
				return nil, fmt.Errorf("model %s field %s: dependency missing relation", name, field.Name)
			}
			deps = append(deps, schema.Dependency{
				Relation:       dep.Relation,
				Required:       dep.Required,
				IncludeDeleted: dep.IncludeDeleted,
			})
		}

		s = s.AddField(schema.Field{
			Name:         field.Name,
			Type:         fieldType,
			PrimaryKey:   field.PrimaryKey,
			Nullable:     field.Nullable,
			Unique:       field.Unique,
			Default:      field.Default,
			Map:          field.Column,
			Computed:     field.Computed,
			Dependencies: deps,
		})
	}

	for relationName, relation := range model.Relations {
		relationType, ok := relationTypes[relation.Type]
		if !ok {
			return nil, fmt.Errorf("model %s relation %s: unknown type %q", name, relationName, relation.Type)
		}
		s = s.AddRelation(relationName, schema.Relation{
			Type:       relationType,
			Model:      relation.Model,
			ForeignKey: relation.ForeignKey,
			References: relation.References,
		})
	}

	return s, nil
}
