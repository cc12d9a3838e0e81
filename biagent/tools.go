package biagent

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-agent-go/log"
	"trpc.group/trpc-go/trpc-agent-go/tool"
	"trpc.group/trpc-go/trpc-agent-go/tool/function"
)

// executeSQLInput is the tool argument schema the model fills in.
type executeSQLInput struct {
	Query string `json:"query"`
}

// executeSQLOutput mirrors the {success, data, error} record the
// result interpreter's JSON strategy consumes.
type executeSQLOutput struct {
	Success bool             `json:"success"`
	Data    []map[string]any `json:"data"`
	Error   string           `json:"error,omitempty"`
}

// NewExecuteSQLTool wraps the demo database in a read-only query tool.
// Execution failures are reported inside the structured result so the
// model and the interpreter both see them; the tool itself only errors
// on malformed arguments.
func NewExecuteSQLTool(db *sql.DB) tool.CallableTool {
	executor := &sqlExecutor{db: db}
	return function.NewFunctionTool(
		executor.run,
		function.WithName("execute_sql"),
		function.WithDescription("Execute a read-only SQL SELECT statement against the "+
			"product database and return rows as JSON objects."),
	)
}

type sqlExecutor struct {
	db *sql.DB
}

func (e *sqlExecutor) run(ctx context.Context, in executeSQLInput) (executeSQLOutput, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return executeSQLOutput{Error: "empty query"}, nil
	}
	if !isReadOnlyQuery(query) {
		return executeSQLOutput{Error: "only SELECT statements are allowed"}, nil
	}

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		log.Warnf("execute_sql: query failed: %v", err)
		return executeSQLOutput{Error: err.Error()}, nil
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return executeSQLOutput{Error: err.Error()}, nil
	}

	data := make([]map[string]any, 0, 16)
	for rows.Next() {
		values := make([]any, len(columns))
		scans := make([]any, len(columns))
		for i := range values {
			scans[i] = &values[i]
		}
		if err := rows.Scan(scans...); err != nil {
			return executeSQLOutput{Error: err.Error()}, nil
		}
		record := make(map[string]any, len(columns))
		for i, col := range columns {
			record[col] = normalizeCell(values[i])
		}
		data = append(data, record)
	}
	if err := rows.Err(); err != nil {
		return executeSQLOutput{Error: err.Error()}, nil
	}

	log.Debugf("execute_sql: %d rows", len(data))
	return executeSQLOutput{Success: true, Data: data}, nil
}

// isReadOnlyQuery accepts SELECT and WITH ... SELECT only. The demo
// database is disposable, but the pipeline has no business writing.
func isReadOnlyQuery(query string) bool {
	head := strings.ToUpper(query)
	if idx := strings.IndexAny(head, " \t\n("); idx > 0 {
		head = head[:idx]
	}
	return head == "SELECT" || head == "WITH"
}

// normalizeCell maps driver values onto the float64/string cells the
// interpreter works with.
func normalizeCell(v any) any {
	switch c := v.(type) {
	case nil:
		return nil
	case int64:
		return float64(c)
	case float64:
		return c
	case bool:
		return c
	case []byte:
		return string(c)
	case string:
		return c
	default:
		return fmt.Sprint(c)
	}
}
