package loader

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/agiletiger/graphql-query-loader/schema"
	"github.com/agiletiger/graphql-query-loader/selection"
	"github.com/agiletiger/graphql-query-loader/types"
)

func testSchemas() map[string]*schema.Schema {
	user := schema.New("User").
		WithSoftDelete().
		AddField(schema.Field{Name: "id", Type: schema.FieldTypeInt, PrimaryKey: true}).
		AddField(schema.Field{Name: "name", Type: schema.FieldTypeString}).
		AddField(schema.Field{Name: "email", Type: schema.FieldTypeString}).
		AddField(schema.Field{Name: "createdAt", Type: schema.FieldTypeDateTime}).
		AddField(schema.Field{
			Name:     "commentCount",
			Type:     schema.FieldTypeInt,
			Computed: true,
			Dependencies: []schema.Dependency{
				{Relation: "comments", Required: false},
			},
		}).
		AddField(schema.Field{
			Name:     "tagSummary",
			Type:     schema.FieldTypeString,
			Computed: true,
			Dependencies: []schema.Dependency{
				{Relation: "tags", Required: true},
			},
		}).
		AddField(schema.Field{
			Name:     "tagCount",
			Type:     schema.FieldTypeInt,
			Computed: true,
			Dependencies: []schema.Dependency{
				{Relation: "tags", Required: false},
			},
		}).
		AddRelation("posts", schema.Relation{Type: schema.RelationOneToMany, Model: "Post", ForeignKey: "authorId", References: "id"}).
		AddRelation("comments", schema.Relation{Type: schema.RelationOneToMany, Model: "Comment", ForeignKey: "userId", References: "id"}).
		AddRelation("tags", schema.Relation{Type: schema.RelationManyToMany, Model: "Tag", ForeignKey: "userId", References: "id"})

	post := schema.New("Post").
		AddField(schema.Field{Name: "id", Type: schema.FieldTypeInt, PrimaryKey: true}).
		AddField(schema.Field{Name: "title", Type: schema.FieldTypeString}).
		AddField(schema.Field{Name: "authorId", Type: schema.FieldTypeInt}).
		AddRelation("author", schema.Relation{Type: schema.RelationManyToOne, Model: "User", ForeignKey: "authorId", References: "id"})

	comment := schema.New("Comment").
		AddField(schema.Field{Name: "id", Type: schema.FieldTypeInt, PrimaryKey: true}).
		AddField(schema.Field{Name: "body", Type: schema.FieldTypeString}).
		AddField(schema.Field{Name: "userId", Type: schema.FieldTypeInt})

	tag := schema.New("Tag").
		AddField(schema.Field{Name: "id", Type: schema.FieldTypeInt, PrimaryKey: true}).
		AddField(schema.Field{Name: "label", Type: schema.FieldTypeString})

	return map[string]*schema.Schema{
		"User":    user,
		"Post":    post,
		"Comment": comment,
		"Tag":     tag,
	}
}

func sel(name string, children ...*selection.Field) *selection.Field {
	return &selection.Field{Name: name, Children: children}
}

func TestLoadScalarSelection(t *testing.T) {
	l := New(testSchemas())

	opts, err := l.Load(Params{
		Model:  "User",
		Fields: []*selection.Field{sel("id"), sel("name")},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if diff := cmp.Diff([]string{"id", "name"}, opts.Attributes); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}
	if len(opts.Include) != 0 {
		t.Errorf("expected no includes, got %v", opts.Include)
	}
	if opts.Where != nil {
		t.Errorf("expected empty where, got %#v", opts.Where)
	}
	if len(opts.Order) != 0 {
		t.Errorf("expected no order, got %v", opts.Order)
	}
	if !opts.Paranoid {
		t.Error("expected paranoid default true")
	}
}

func TestLoadRelationFilterExtraction(t *testing.T) {
	l := New(testSchemas())

	opts, err := l.Load(Params{
		Model:  "Post",
		Fields: []*selection.Field{sel("id"), sel("author", sel("name"))},
		Filter: map[string]any{"author": map[string]any{"name": "Jo"}},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	author := opts.FindInclude("author")
	if author == nil {
		t.Fatal("author include missing")
	}
	leaf, ok := author.Where.(*types.FieldCondition)
	if !ok {
		t.Fatalf("expected leaf condition on author include, got %#v", author.Where)
	}
	if leaf.Field != "name" || leaf.Operator != types.OpEquals || leaf.Value != "Jo" {
		t.Errorf("unexpected author filter: %#v", leaf)
	}

	// Extraction invariant: the alias must not survive in the root
	// predicate.
	if opts.Where != nil {
		for _, f := range opts.Where.Fields() {
			if f == "author" {
				t.Error("relation alias leaked into root predicate")
			}
		}
		t.Errorf("expected empty root where, got %#v", opts.Where)
	}
}

func TestLoadFilterDoesNotMutateCallerArgument(t *testing.T) {
	l := New(testSchemas())

	filter := map[string]any{
		"author": map[string]any{"name": "Jo"},
		"title":  map[string]any{"contains": "go"},
	}
	_, err := l.Load(Params{
		Model:  "Post",
		Fields: []*selection.Field{sel("id"), sel("author", sel("name"))},
		Filter: filter,
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if _, ok := filter["author"]; !ok {
		t.Error("caller's filter mapping was mutated during extraction")
	}
	if len(filter) != 2 {
		t.Errorf("caller's filter mapping changed size: %v", filter)
	}
}

func TestLoadComputedFieldDependency(t *testing.T) {
	l := New(testSchemas())

	opts, err := l.Load(Params{
		Model:  "User",
		Fields: []*selection.Field{sel("commentCount")},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if diff := cmp.Diff([]string{"commentCount"}, opts.Attributes); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}
	comments := opts.FindInclude("comments")
	if comments == nil {
		t.Fatal("comments include missing")
	}
	if comments.Required {
		t.Error("expected optional join for commentCount dependency")
	}
	if comments.Model != "Comment" {
		t.Errorf("expected target model Comment, got %s", comments.Model)
	}
}

func TestLoadRequiredWinsOverOptional(t *testing.T) {
	l := New(testSchemas())

	// tagSummary depends on tags with required=true, tagCount with
	// required=false. A single include must come out required.
	opts, err := l.Load(Params{
		Model:  "User",
		Fields: []*selection.Field{sel("tagCount"), sel("tagSummary")},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	var tagIncludes []types.Include
	for _, inc := range opts.Include {
		if inc.As == "tags" {
			tagIncludes = append(tagIncludes, inc)
		}
	}
	if len(tagIncludes) != 1 {
		t.Fatalf("expected single deduplicated tags include, got %d", len(tagIncludes))
	}
	if !tagIncludes[0].Required {
		t.Error("required dependency must win over optional")
	}

	// Same outcome regardless of declaration order.
	opts2, err := l.Load(Params{
		Model:  "User",
		Fields: []*selection.Field{sel("tagSummary"), sel("tagCount")},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if inc := opts2.FindInclude("tags"); inc == nil || !inc.Required {
		t.Error("required dependency must win regardless of order")
	}
}

func TestLoadExplicitAndImplicitRelationDeduplicated(t *testing.T) {
	l := New(testSchemas())

	opts, err := l.Load(Params{
		Model: "User",
		Fields: []*selection.Field{
			sel("commentCount"),
			sel("comments", sel("id"), sel("body")),
		},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	count := 0
	for _, inc := range opts.Include {
		if inc.As == "comments" {
			count++
			if diff := cmp.Diff([]string{"id", "body"}, inc.Attributes); diff != "" {
				t.Errorf("include attributes mismatch (-want +got):\n%s", diff)
			}
		}
	}
	if count != 1 {
		t.Errorf("expected one comments include, got %d", count)
	}
}

func TestLoadSortProjectionAugmentation(t *testing.T) {
	l := New(testSchemas())

	opts, err := l.Load(Params{
		Model:   "User",
		Fields:  []*selection.Field{sel("id")},
		Sorters: []Sorter{{Field: "createdAt", Order: types.DESC}},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if diff := cmp.Diff([]string{"id", "createdAt"}, opts.Attributes); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}
	wantOrder := []types.OrderTerm{{Field: "createdAt", Direction: types.DESC}}
	if diff := cmp.Diff(wantOrder, opts.Order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	// Already-selected sort columns must not be duplicated.
	opts2, err := l.Load(Params{
		Model:   "User",
		Fields:  []*selection.Field{sel("id"), sel("createdAt")},
		Sorters: []Sorter{{Field: "createdAt", Order: types.DESC}},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff([]string{"id", "createdAt"}, opts2.Attributes); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDefaultSorters(t *testing.T) {
	l := New(testSchemas(), WithDefaultSorters(Sorter{Field: "id", Order: types.ASC}))

	opts, err := l.Load(Params{
		Model:  "User",
		Fields: []*selection.Field{sel("name")},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	wantOrder := []types.OrderTerm{{Field: "id", Direction: types.ASC}}
	if diff := cmp.Diff(wantOrder, opts.Order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"name", "id"}, opts.Attributes); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}

	// Caller sorters take precedence over the default list.
	opts2, err := l.Load(Params{
		Model:   "User",
		Fields:  []*selection.Field{sel("name")},
		Sorters: []Sorter{{Field: "name", Order: types.DESC}},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(opts2.Order) != 1 || opts2.Order[0].Field != "name" {
		t.Errorf("expected caller sorters to win, got %v", opts2.Order)
	}
}

func TestLoadIdempotence(t *testing.T) {
	l := New(testSchemas())

	params := Params{
		Model: "User",
		Fields: []*selection.Field{
			sel("id"),
			sel("commentCount"),
			sel("posts", sel("title")),
		},
		Filter: map[string]any{
			"name":  map[string]any{"contains": "a"},
			"email": map[string]any{"endsWith": "@example.com"},
			"posts": map[string]any{"title": map[string]any{"startsWith": "go"}},
		},
		Sorters: []Sorter{{Field: "createdAt", Order: types.DESC}},
		Search:  []SearchExpression{{Fields: []string{"name", "email"}, Term: "jo"}},
	}

	first, err := l.Load(params)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	second, err := l.Load(params)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same inputs produced different bundles (-first +second):\n%s", diff)
	}
}

func TestLoadRequiredIncludesInjection(t *testing.T) {
	l := New(testSchemas())

	opts, err := l.Load(Params{
		Model:            "User",
		Fields:           []*selection.Field{sel("id")},
		RequiredIncludes: []types.Include{{As: "posts", Required: true, Paranoid: true}},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	posts := opts.FindInclude("posts")
	if posts == nil {
		t.Fatal("required include was not injected")
	}
	if posts.Model != "Post" {
		t.Errorf("expected injected include to resolve model Post, got %s", posts.Model)
	}

	// Already-present aliases are not duplicated.
	opts2, err := l.Load(Params{
		Model:            "User",
		Fields:           []*selection.Field{sel("id"), sel("posts", sel("title"))},
		RequiredIncludes: []types.Include{{As: "posts"}},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	count := 0
	for _, inc := range opts2.Include {
		if inc.As == "posts" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected single posts include, got %d", count)
	}

	_, err = l.Load(Params{
		Model:            "User",
		Fields:           []*selection.Field{sel("id")},
		RequiredIncludes: []types.Include{{As: "bogus"}},
	})
	if !errors.Is(err, ErrUnknownRelation) {
		t.Errorf("expected ErrUnknownRelation for bogus required include, got %v", err)
	}
}

func TestLoadDependencyIncludeDeleted(t *testing.T) {
	schemas := testSchemas()
	schemas["User"].AddField(schema.Field{
		Name:     "lifetimeCommentCount",
		Type:     schema.FieldTypeInt,
		Computed: true,
		Dependencies: []schema.Dependency{
			{Relation: "comments", Required: false, IncludeDeleted: true},
		},
	})
	l := New(schemas)

	opts, err := l.Load(Params{
		Model:  "User",
		Fields: []*selection.Field{sel("lifetimeCommentCount")},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if opts.Paranoid {
		t.Error("dependency with IncludeDeleted must disable paranoid filtering")
	}
	comments := opts.FindInclude("comments")
	if comments == nil {
		t.Fatal("comments include missing")
	}
	if comments.Paranoid {
		t.Error("include should allow soft-deleted rows")
	}

	// Most restrictive wins: a second dependency demanding exclusion
	// forces the include back to paranoid.
	opts2, err := l.Load(Params{
		Model:  "User",
		Fields: []*selection.Field{sel("lifetimeCommentCount"), sel("commentCount")},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if inc := opts2.FindInclude("comments"); inc == nil || !inc.Paranoid {
		t.Error("excluding soft-deleted rows must win over including them")
	}
}

func TestLoadErrors(t *testing.T) {
	l := New(testSchemas())

	_, err := l.Load(Params{Model: "Nope"})
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}

	_, err = l.Load(Params{
		Model:  "User",
		Fields: []*selection.Field{sel("ghost", sel("id"))},
	})
	if !errors.Is(err, ErrUnknownRelation) {
		t.Errorf("expected ErrUnknownRelation for nested unknown field, got %v", err)
	}

	_, err = l.Load(Params{
		Model:  "User",
		Fields: []*selection.Field{sel("id")},
		Filter: map[string]any{"ghost": 1},
	})
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField for unknown filter key, got %v", err)
	}
}

func TestLoadComputedQueries(t *testing.T) {
	l := New(testSchemas())

	opts, err := l.Load(Params{
		Model:  "Post",
		Fields: []*selection.Field{sel("excerpt")},
		ComputedQueries: map[string]ComputedQuery{
			"excerpt": {Attributes: []string{"title"}},
		},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff([]string{"excerpt", "title"}, opts.Attributes); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}

	_, err = l.Load(Params{
		Model:  "Post",
		Fields: []*selection.Field{sel("excerpt")},
		ComputedQueries: map[string]ComputedQuery{
			"excerpt": {Attributes: []string{"ghost"}},
		},
	})
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField for bad backing column, got %v", err)
	}
}
