package graphql

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"

	"github.com/agiletiger/graphql-query-loader/logger"
)

// Handler provides a generic HTTP handler for GraphQL requests
type Handler struct {
	schema            *graphql.Schema
	pretty            bool
	graphiQLEnabled   bool
	playgroundEnabled bool
	log               logger.Logger
}

// NewHandler creates a new GraphQL HTTP handler
func NewHandler(schema *graphql.Schema) *Handler {
	return &Handler{
		schema:            schema,
		pretty:            true,
		graphiQLEnabled:   false,
		playgroundEnabled: true,
		log:               logger.NewNullLogger(),
	}
}

// SetPretty enables or disables pretty printing of JSON responses
func (h *Handler) SetPretty(pretty bool) *Handler {
	h.pretty = pretty
	return h
}

// EnableGraphiQL enables the GraphiQL interface
func (h *Handler) EnableGraphiQL() *Handler {
	h.graphiQLEnabled = true
	h.playgroundEnabled = false
	return h
}

// EnablePlayground enables the GraphQL Playground interface
func (h *Handler) EnablePlayground() *Handler {
	h.playgroundEnabled = true
	h.graphiQLEnabled = false
	return h
}

// SetLogger sets the logger used for request logging
func (h *Handler) SetLogger(log logger.Logger) *Handler {
	h.log = log
	return h
}

// ServeHTTP implements the http.Handler interface
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == "POST" || (r.Method == "GET" && r.URL.Query().Get("query") != "") {
		h.ServeGraphQL(w, r)
		return
	}

	if r.Method == "GET" && h.acceptsHTML(r) {
		if h.playgroundEnabled {
			h.ServePlayground(w, r)
		} else if h.graphiQLEnabled {
			h.ServeGraphiQL(w, r)
		} else {
			http.Error(w, "GraphQL IDE not enabled", http.StatusNotFound)
		}
		return
	}

	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// ServeGraphQL handles GraphQL query execution
func (h *Handler) ServeGraphQL(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	var params graphQLParams

	if r.Method == "GET" {
		query := r.URL.Query()
		params.Query = query.Get("query")
		params.OperationName = query.Get("operationName")

		if variables := query.Get("variables"); variables != "" {
			if err := json.Unmarshal([]byte(variables), &params.Variables); err != nil {
				h.writeError(w, "Invalid variables", http.StatusBadRequest)
				return
			}
		}
	} else {
		contentType := r.Header.Get("Content-Type")

		switch {
		case strings.Contains(contentType, "application/json"):
			body, err := io.ReadAll(r.Body)
			if err != nil {
				h.log.Error("failed to read request body: %v", err)
				h.writeError(w, "Failed to read request body", http.StatusBadRequest)
				return
			}
			defer r.Body.Close()

			if err := json.Unmarshal(body, &params); err != nil {
				h.log.Error("JSON parse error: %v", err)
				h.writeError(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
				return
			}
		case strings.Contains(contentType, "application/graphql"):
			body, err := io.ReadAll(r.Body)
			if err != nil {
				h.log.Error("failed to read request body: %v", err)
				h.writeError(w, "Failed to read request body", http.StatusBadRequest)
				return
			}
			defer r.Body.Close()

			params.Query = string(body)
		default:
			h.log.Warn("unsupported content type: %s", contentType)
			h.writeError(w, "Unsupported content type", http.StatusBadRequest)
			return
		}
	}

	operationName := params.OperationName
	if operationName == "" {
		if strings.Contains(params.Query, "{") {
			parts := strings.Fields(strings.Split(params.Query, "{")[0])
			if len(parts) >= 2 {
				operationName = parts[1]
			}
		}
	}

	if operationName != "" {
		h.log.Info("query %s", operationName)
	} else {
		h.log.Info("query request")
	}
	h.log.Debug("query: %s", truncateString(params.Query, 200))

	result := graphql.Do(graphql.Params{
		Schema:         *h.schema,
		RequestString:  params.Query,
		VariableValues: params.Variables,
		OperationName:  params.OperationName,
		Context:        r.Context(),
	})

	duration := time.Since(startTime)
	if len(result.Errors) > 0 {
		h.log.Error("failed in %v with %d error(s)", duration, len(result.Errors))
		for i, err := range result.Errors {
			h.log.Error("  %d: %s", i+1, err.Message)
		}
	} else {
		h.log.Info("success in %v", duration)
	}

	w.Header().Set("Content-Type", "application/json")

	if h.pretty {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.Encode(result)
	} else {
		json.NewEncoder(w).Encode(result)
	}
}

// ServePlayground serves the GraphQL Playground interface
func (h *Handler) ServePlayground(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(playgroundHTML))
}

// ServeGraphiQL serves the GraphiQL interface
func (h *Handler) ServeGraphiQL(w http.ResponseWriter, r *http.Request) {
	graphiQLHandler := handler.New(&handler.Config{
		Schema:   h.schema,
		Pretty:   h.pretty,
		GraphiQL: true,
	})
	graphiQLHandler.ServeHTTP(w, r)
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.log.Error("HTTP %d: %s", code, message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	response := map[string]any{
		"errors": []map[string]any{
			{"message": message},
		},
	}

	json.NewEncoder(w).Encode(response)
}

// acceptsHTML checks if the client accepts HTML responses
func (h *Handler) acceptsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}

// graphQLParams represents the parameters of a GraphQL request
type graphQLParams struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

// playgroundHTML is the HTML for GraphQL Playground
const playgroundHTML = `
<!DOCTYPE html>
<html>
<head>
    <meta charset=utf-8/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>GraphQL Playground</title>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/graphql-playground-react@1.7.26/build/static/css/index.css"/>
    <link rel="shortcut icon" href="https://cdn.jsdelivr.net/npm/graphql-playground-react@1.7.26/build/favicon.png"/>
    <script src="https://cdn.jsdelivr.net/npm/graphql-playground-react@1.7.26/build/static/js/middleware.js"></script>
</head>
<body>
    <div id="root"></div>
    <script>
        window.addEventListener('load', function (event) {
            GraphQLPlayground.init(document.getElementById('root'), {
                endpoint: window.location.href,
                settings: {
                    'request.credentials': 'same-origin',
                    'editor.theme': 'light',
                    'editor.fontSize': 14,
                    'editor.fontFamily': '"Fira Code", "Monaco", monospace',
                    'prettier.useTabs': false,
                    'prettier.tabWidth': 2,
                }
            })
        })
    </script>
</body>
</html>
`
