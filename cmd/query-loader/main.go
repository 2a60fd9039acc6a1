package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"

	gql "github.com/agiletiger/graphql-query-loader/graphql"
	"github.com/agiletiger/graphql-query-loader/loader"
	"github.com/agiletiger/graphql-query-loader/logger"
	"github.com/agiletiger/graphql-query-loader/metadata"
	"github.com/agiletiger/graphql-query-loader/selection"
	"github.com/agiletiger/graphql-query-loader/sqlgen"
	"github.com/agiletiger/graphql-query-loader/types"
)

const (
	version = "0.1.0"
	usage   = `query-loader - GraphQL selection to query options compiler

Usage:
  query-loader <command> [flags]

Commands:
  compile   Compile a GraphQL query into query options
  serve     Start a GraphQL server for the given metadata
  version   Show version information

Flags:
  --schema  Path to YAML metadata file (default: ./schema.yaml)

  --model   Model name to compile against (compile)

  --query   GraphQL document; the first root field's selection is
            compiled (compile)

  --filter  JSON filter mapping applied at the root (compile)

  --sql     Print the generated SQL instead of the options bundle
            (compile)

  --port    HTTP port (default: 8080) (serve)

  --log-level  Log level: debug|info|warn|error|none (default: info)

  --help    Show help message

Examples:
  # Compile a selection into query options
  query-loader compile --schema=./schema.yaml --model=User \
    --query='query { user { id posts { title } } }'

  # Same, but render SQL
  query-loader compile --schema=./schema.yaml --model=User \
    --query='query { user { id } }' --sql

  # Serve a playground-enabled GraphQL endpoint
  query-loader serve --schema=./schema.yaml --port=8080
`
)

func main() {
	var (
		schemaPath string
		model      string
		query      string
		filterJSON string
		sql        bool
		port       int
		logLevel   string
		help       bool
	)

	flag.StringVar(&schemaPath, "schema", "./schema.yaml", "Path to YAML metadata file")
	flag.StringVar(&model, "model", "", "Model name")
	flag.StringVar(&query, "query", "", "GraphQL document")
	flag.StringVar(&filterJSON, "filter", "", "JSON filter mapping")
	flag.BoolVar(&sql, "sql", false, "Print generated SQL")
	flag.IntVar(&port, "port", 8080, "HTTP port")
	flag.StringVar(&logLevel, "log-level", "info", "Log level")
	flag.BoolVar(&help, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(0)
	}

	command := os.Args[1]

	if command == "version" {
		fmt.Printf("query-loader v%s\n", version)
		os.Exit(0)
	}

	if command == "help" || command == "--help" || command == "-h" {
		flag.Usage()
		os.Exit(0)
	}

	flag.CommandLine.Parse(os.Args[2:])

	switch command {
	case "compile":
		runCompile(schemaPath, model, query, filterJSON, sql)
	case "serve":
		runServe(schemaPath, port, logLevel)
	default:
		log.Fatalf("Unknown command: %s\n\nRun 'query-loader --help' for usage", command)
	}
}

func runCompile(schemaPath, model, query, filterJSON string, renderSQL bool) {
	if model == "" {
		log.Fatal("Error: --model flag is required")
	}
	if query == "" {
		log.Fatal("Error: --query flag is required")
	}

	schemas, err := metadata.Load(schemaPath)
	if err != nil {
		log.Fatalf("Failed to load metadata: %v", err)
	}

	fields, err := parseSelection(query)
	if err != nil {
		log.Fatalf("Failed to parse query: %v", err)
	}

	params := loader.Params{Model: model, Fields: fields}
	if filterJSON != "" {
		var filter map[string]any
		if err := json.Unmarshal([]byte(filterJSON), &filter); err != nil {
			log.Fatalf("Failed to parse filter: %v", err)
		}
		params.Filter = filter
	}

	opts, err := loader.New(schemas).Load(params)
	if err != nil {
		log.Fatalf("Failed to compile query: %v", err)
	}

	if renderSQL {
		sb, err := sqlgen.New(schemas).Build(model, opts)
		if err != nil {
			log.Fatalf("Failed to build SQL: %v", err)
		}
		sql, args, err := sb.ToSql()
		if err != nil {
			log.Fatalf("Failed to render SQL: %v", err)
		}
		fmt.Println(sql)
		if len(args) > 0 {
			argsJSON, _ := json.Marshal(args)
			fmt.Printf("-- args: %s\n", argsJSON)
		}
		return
	}

	output, err := json.MarshalIndent(optionsToMap(opts), "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode options: %v", err)
	}
	fmt.Println(string(output))
}

func runServe(schemaPath string, port int, logLevel string) {
	server, err := gql.NewServer(gql.ServerConfig{
		SchemaPath: schemaPath,
		Port:       port,
		Playground: true,
		CORS:       true,
		LogLevel:   logLevel,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	cliLogger := logger.NewDefaultLogger("query-loader")
	cliLogger.SetLevel(logger.ParseLevel(logLevel))
	logger.SetGlobalLogger(cliLogger)

	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// parseSelection parses a GraphQL document and returns the children of
// the first root field. The root field itself stands for the model, so
// only what is selected beneath it is compiled.
func parseSelection(query string) ([]*selection.Field, error) {
	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{Body: []byte(query), Name: "query"}),
	})
	if err != nil {
		return nil, err
	}

	fragments := map[string]ast.Definition{}
	var operation *ast.OperationDefinition
	for _, def := range doc.Definitions {
		switch node := def.(type) {
		case *ast.OperationDefinition:
			if operation == nil {
				operation = node
			}
		case *ast.FragmentDefinition:
			fragments[node.Name.Value] = node
		}
	}
	if operation == nil || operation.SelectionSet == nil {
		return nil, fmt.Errorf("document contains no operation")
	}

	roots := selection.FromSelectionSet(operation.SelectionSet, fragments, nil)
	if len(roots) == 0 {
		return nil, fmt.Errorf("operation selects no fields")
	}
	return roots[0].Children, nil
}

// optionsToMap flattens a bundle into plain maps for JSON output.
func optionsToMap(opts *types.QueryOptions) map[string]any {
	includes := make([]map[string]any, 0, len(opts.Include))
	for _, include := range opts.Include {
		includes = append(includes, includeToMap(include))
	}

	orders := make([]map[string]any, 0, len(opts.Order))
	for _, term := range opts.Order {
		entry := map[string]any{
			"field":     term.Field,
			"direction": string(term.Direction),
		}
		if len(term.Path) > 0 {
			entry["path"] = term.Path
		}
		orders = append(orders, entry)
	}

	return map[string]any{
		"attributes": opts.Attributes,
		"include":    includes,
		"where":      types.ConditionToMap(opts.Where),
		"order":      orders,
		"paranoid":   opts.Paranoid,
	}
}

func includeToMap(include types.Include) map[string]any {
	nested := make([]map[string]any, 0, len(include.Include))
	for _, child := range include.Include {
		nested = append(nested, includeToMap(child))
	}

	return map[string]any{
		"as":         include.As,
		"model":      include.Model,
		"required":   include.Required,
		"paranoid":   include.Paranoid,
		"attributes": include.Attributes,
		"where":      types.ConditionToMap(include.Where),
		"include":    nested,
	}
}
