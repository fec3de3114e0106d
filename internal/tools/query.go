package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/silverland/nova/internal/secure"
)

// maxRowsInResult caps how many rows are serialized back to the model.
const maxRowsInResult = 25

type queryArgs struct {
	Query string `json:"query"`
}

func newReadTool(gw *secure.Gateway) Tool {
	return Tool{
		Name:        "read_query",
		Description: "Execute a read-only SELECT query on the allowed tables (projects, leads, bookings). The history table is not accessible. Use literal values, a single statement, no comments.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "A single SELECT statement. Example: SELECT DISTINCT city, country FROM projects",
				},
			},
			"required": []string{"query"},
		},
		SideEffect: SideEffectNone,
		run: func(ctx context.Context, args json.RawMessage) string {
			var a queryArgs
			if err := decodeArgs(args, &a); err != nil {
				return "Error: " + err.Error()
			}
			if strings.TrimSpace(a.Query) == "" {
				return "Error: invalid arguments: query is required"
			}

			res, err := gw.Execute(ctx, secure.Request{Kind: secure.KindRead, SQL: a.Query})
			if err != nil {
				return queryFailure(err)
			}

			rows := res.Rows
			truncated := false
			if len(rows) > maxRowsInResult {
				rows = rows[:maxRowsInResult]
				truncated = true
			}
			payload, err := json.Marshal(rows)
			if err != nil {
				return fmt.Sprintf("Success: retrieved %d row(s), but the result could not be serialized", len(res.Rows))
			}
			msg := fmt.Sprintf("Success: retrieved %d row(s) from %s", len(res.Rows), strings.Join(res.Tables, ", "))
			if truncated {
				msg += fmt.Sprintf(" (showing first %d)", maxRowsInResult)
			}
			return msg + "\n" + string(payload)
		},
	}
}

func newWriteTool(gw *secure.Gateway, events Events) Tool {
	return Tool{
		Name:        "write_query",
		Description: "Execute an INSERT or UPDATE on the leads or bookings tables. Writes to projects and history are forbidden. Use literal values directly (single quotes for strings, none for numbers), never ? placeholders.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "A single INSERT or UPDATE statement with literal values. Example: INSERT INTO leads (first_name, email, preferred_city, preferred_budget) VALUES ('John', 'john@example.com', 'Dubai', 500000)",
				},
			},
			"required": []string{"query"},
		},
		SideEffect: SideEffectMutating,
		run: func(ctx context.Context, args json.RawMessage) string {
			var a queryArgs
			if err := decodeArgs(args, &a); err != nil {
				return "Error: " + err.Error()
			}
			if strings.TrimSpace(a.Query) == "" {
				return "Error: invalid arguments: query is required"
			}

			res, err := gw.Execute(ctx, secure.Request{Kind: secure.KindWrite, SQL: a.Query})
			if err != nil {
				return queryFailure(err)
			}

			table := ""
			if len(res.Tables) > 0 {
				table = res.Tables[0]
			}
			switch {
			case res.Verb == "INSERT" && res.RowsAffected > 0:
				notifyWrite(events, table, res.LastInsertID)
				return fmt.Sprintf("Success: new %s record created with id %d", table, res.LastInsertID)
			case res.Verb == "UPDATE" && res.RowsAffected > 0:
				return fmt.Sprintf("Success: updated %d %s record(s)", res.RowsAffected, table)
			default:
				return "Warning: query executed but no rows were affected"
			}
		},
	}
}

// notifyWrite fires the sales notification for a successful insert.
// Best-effort and asynchronous; the turn never waits on delivery.
func notifyWrite(events Events, table string, id int64) {
	if events == nil || id == 0 {
		return
	}
	switch table {
	case "leads":
		go events.LeadCaptured(id)
	case "bookings":
		go events.BookingCreated(id)
	}
}

// queryFailure renders gateway errors as correctable tool-result text.
// Denial reasons pass through verbatim; execution failures surface only
// the machine-readable category.
func queryFailure(err error) string {
	var denial *secure.DenialError
	if errors.As(err, &denial) {
		return "Error: " + denial.Reason
	}
	var execErr *secure.ExecError
	if errors.As(err, &execErr) {
		return fmt.Sprintf("Error: %s; try a different query", execErr.Error())
	}
	return "Error: query failed; try a different query"
}
