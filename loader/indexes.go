package loader

import "github.com/agiletiger/graphql-query-loader/schema"

// relationIndex maps model name -> relation alias -> target model name.
// Built once at construction, read-only afterwards.
type relationIndex map[string]map[string]string

// dependencyIndex maps model name -> field name -> dependency list for
// fields that declare dependencies. Built once at construction,
// read-only afterwards.
type dependencyIndex map[string]map[string][]schema.Dependency

func buildRelationIndex(schemas map[string]*schema.Schema) relationIndex {
	index := make(relationIndex, len(schemas))
	for name, s := range schemas {
		relations := make(map[string]string, len(s.Relations))
		for alias, relation := range s.Relations {
			relations[alias] = relation.Model
		}
		index[name] = relations
	}
	return index
}

func buildDependencyIndex(schemas map[string]*schema.Schema) dependencyIndex {
	index := make(dependencyIndex, len(schemas))
	for name, s := range schemas {
		fields := make(map[string][]schema.Dependency)
		for _, field := range s.Fields {
			if len(field.Dependencies) > 0 {
				fields[field.Name] = field.Dependencies
			}
		}
		index[name] = fields
	}
	return index
}
