package graphql

import (
	"fmt"
	"net/http"

	"github.com/agiletiger/graphql-query-loader/loader"
	"github.com/agiletiger/graphql-query-loader/logger"
	"github.com/agiletiger/graphql-query-loader/metadata"
	"github.com/agiletiger/graphql-query-loader/schema"
	"github.com/agiletiger/graphql-query-loader/sqlgen"
)

// Server represents a GraphQL server
type Server struct {
	schemas map[string]*schema.Schema
	handler *Handler
	port    int
	cors    bool
	log     logger.Logger
}

// ServerConfig contains configuration for the GraphQL server
type ServerConfig struct {
	SchemaPath string
	Port       int
	// Executor runs the compiled queries. When nil the server falls
	// back to an ExplainExecutor, which answers every query with the
	// SQL it would have run.
	Executor   Executor
	Playground bool
	CORS       bool
	LogLevel   string
}

// NewServer creates a new GraphQL server
func NewServer(config ServerConfig) (*Server, error) {
	schemas, err := metadata.Load(config.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema file: %w", err)
	}

	log := logger.NewDefaultLogger("GraphQL")
	log.SetLevel(logger.ParseLevel(config.LogLevel))

	executor := config.Executor
	if executor == nil {
		executor = NewExplainExecutor(sqlgen.New(schemas))
		log.Warn("no executor configured, serving generated SQL instead of rows")
	}

	ldr := loader.New(schemas)
	generator := NewSchemaGenerator(schemas, ldr, executor)
	graphqlSchema, err := generator.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate GraphQL schema: %w", err)
	}

	h := NewHandler(graphqlSchema).SetLogger(log)
	if config.Playground {
		h.EnablePlayground()
	}

	return &Server{
		schemas: schemas,
		handler: h,
		port:    config.Port,
		cors:    config.CORS,
		log:     log,
	}, nil
}

// Start starts the GraphQL server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.Handle("/graphql", s.corsMiddleware(s.handler))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			fmt.Fprintf(w, "GraphQL Query Loader Server\n\nEndpoints:\n- /graphql - GraphQL API and Playground\n- /health - Health check\n")
			return
		}
		http.NotFound(w, r)
	})

	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info("GraphQL server listening at http://localhost%s/graphql", addr)

	return http.ListenAndServe(addr, mux)
}

// Handler returns the GraphQL handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// corsMiddleware adds CORS headers if enabled
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cors {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
