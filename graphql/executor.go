package graphql

import (
	"context"

	"github.com/agiletiger/graphql-query-loader/sqlgen"
	"github.com/agiletiger/graphql-query-loader/types"
)

// Executor runs a compiled query-options bundle against a data source
// and returns the matching rows.
type Executor interface {
	FindMany(ctx context.Context, model string, opts *types.QueryOptions) ([]map[string]any, error)
}

// ExplainExecutor renders the SQL that would run instead of executing
// it. Useful for development servers and the CLI, where no database is
// wired up.
type ExplainExecutor struct {
	builder *sqlgen.Builder
}

func NewExplainExecutor(builder *sqlgen.Builder) *ExplainExecutor {
	return &ExplainExecutor{builder: builder}
}

func (e *ExplainExecutor) FindMany(ctx context.Context, model string, opts *types.QueryOptions) ([]map[string]any, error) {
	sb, err := e.builder.Build(model, opts)
	if err != nil {
		return nil, err
	}
	sql, args, err := sb.ToSql()
	if err != nil {
		return nil, err
	}
	return []map[string]any{{"sql": sql, "args": args}}, nil
}
