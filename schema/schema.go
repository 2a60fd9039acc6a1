package schema

import (
	"fmt"
	"strings"
	"unicode"
)

type FieldType string

const (
	FieldTypeString   FieldType = "string"
	FieldTypeInt      FieldType = "int"
	FieldTypeInt64    FieldType = "int64"
	FieldTypeFloat    FieldType = "float"
	FieldTypeBool     FieldType = "bool"
	FieldTypeDateTime FieldType = "datetime"
	FieldTypeJSON     FieldType = "json"
	FieldTypeDecimal  FieldType = "decimal"
)

// Dependency declares that exposing a field obligates the query to join
// a relation. Required selects inner-join semantics; IncludeDeleted keeps
// the dependency satisfiable by soft-deleted relation rows.
type Dependency struct {
	Relation       string
	Required       bool
	IncludeDeleted bool
}

type Field struct {
	Name         string
	Type         FieldType
	PrimaryKey   bool
	Nullable     bool
	Unique       bool
	Default      interface{}
	Map          string // column name mapping
	Computed     bool   // not backed by a column of its own
	Dependencies []Dependency
}

// GetColumnName returns the database column name for this field.
func (f Field) GetColumnName() string {
	if f.Map != "" {
		return f.Map
	}
	return toSnakeCase(f.Name)
}

type RelationType string

const (
	RelationOneToOne   RelationType = "oneToOne"
	RelationOneToMany  RelationType = "oneToMany"
	RelationManyToOne  RelationType = "manyToOne"
	RelationManyToMany RelationType = "manyToMany"
)

type Relation struct {
	Type       RelationType
	Model      string
	ForeignKey string
	References string
}

// Schema describes one entity: its attributes, relations and soft-delete
// behavior. Instances are built once at startup and treated as immutable
// afterwards.
type Schema struct {
	Name       string
	TableName  string
	Fields     []Field
	Relations  map[string]Relation
	SoftDelete bool
}

func New(name string) *Schema {
	return &Schema{
		Name:      name,
		TableName: toSnakeCase(name) + "s",
		Fields:    []Field{},
		Relations: make(map[string]Relation),
	}
}

func (s *Schema) WithTableName(name string) *Schema {
	s.TableName = name
	return s
}

func (s *Schema) WithSoftDelete() *Schema {
	s.SoftDelete = true
	return s
}

func (s *Schema) AddField(field Field) *Schema {
	s.Fields = append(s.Fields, field)
	return s
}

func (s *Schema) AddRelation(name string, relation Relation) *Schema {
	s.Relations[name] = relation
	return s
}

func (s *Schema) GetField(name string) (*Field, error) {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i], nil
		}
	}
	return nil, fmt.Errorf("field %s not found", name)
}

func (s *Schema) HasField(name string) bool {
	_, err := s.GetField(name)
	return err == nil
}

func (s *Schema) HasRelation(name string) bool {
	_, exists := s.Relations[name]
	return exists
}

func (s *Schema) GetRelation(name string) (Relation, error) {
	relation, exists := s.Relations[name]
	if !exists {
		return Relation{}, fmt.Errorf("relation %s not found", name)
	}
	return relation, nil
}

func (s *Schema) GetPrimaryKey() (*Field, error) {
	for i := range s.Fields {
		if s.Fields[i].PrimaryKey {
			return &s.Fields[i], nil
		}
	}
	return nil, fmt.Errorf("no primary key found")
}

// AttributeNames returns the names of all non-computed fields, in
// declaration order.
func (s *Schema) AttributeNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		if !f.Computed {
			names = append(names, f.Name)
		}
	}
	return names
}

func (s *Schema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("schema name cannot be empty")
	}
	if s.TableName == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema must have at least one field")
	}

	hasPrimaryKey := false
	seen := make(map[string]bool, len(s.Fields))
	for _, field := range s.Fields {
		if seen[field.Name] {
			return fmt.Errorf("duplicate field %s", field.Name)
		}
		seen[field.Name] = true
		if field.PrimaryKey {
			if hasPrimaryKey {
				return fmt.Errorf("schema can only have one primary key")
			}
			hasPrimaryKey = true
		}
		if field.Computed && field.PrimaryKey {
			return fmt.Errorf("computed field %s cannot be a primary key", field.Name)
		}
		for _, dep := range field.Dependencies {
			if !s.HasRelation(dep.Relation) {
				return fmt.Errorf("field %s depends on unknown relation %s", field.Name, dep.Relation)
			}
		}
	}

	if !hasPrimaryKey {
		return fmt.Errorf("schema must have a primary key")
	}

	return nil
}

// ValidateRelations checks every relation target against the full set of
// known schemas.
func (s *Schema) ValidateRelations(schemas map[string]*Schema) error {
	for name, relation := range s.Relations {
		related, exists := schemas[relation.Model]
		if !exists {
			return fmt.Errorf("relation %s references unknown model %s", name, relation.Model)
		}
		if err := validateRelation(name, relation, s, related); err != nil {
			return err
		}
	}
	return nil
}

func validateRelation(name string, relation Relation, current, related *Schema) error {
	switch relation.Type {
	case RelationManyToOne, RelationOneToOne:
		if relation.ForeignKey != "" && !current.HasField(relation.ForeignKey) && !related.HasField(relation.ForeignKey) {
			return fmt.Errorf("relation %s: foreign key %s not found on %s or %s", name, relation.ForeignKey, current.Name, related.Name)
		}
	case RelationOneToMany, RelationManyToMany:
		if relation.ForeignKey != "" && !related.HasField(relation.ForeignKey) {
			return fmt.Errorf("relation %s: foreign key %s not found on %s", name, relation.ForeignKey, related.Name)
		}
	default:
		return fmt.Errorf("relation %s: unknown relation type %s", name, relation.Type)
	}
	if relation.References != "" && !related.HasField(relation.References) {
		return fmt.Errorf("relation %s: references field %s not found on %s", name, relation.References, related.Name)
	}
	return nil
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
