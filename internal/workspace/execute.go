// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/pgsqlls/pgsqlls/internal/document"
	"github.com/pgsqlls/pgsqlls/internal/sqltext"
)

// CodeAction is one action offered over a range (§6: `code_actions(uri,
// range) -> list<CodeAction>`).
type CodeAction struct {
	Title   string
	Command string
	// Args is the payload for ExecuteCommand: (uri, statement_id) for
	// the built-in "execute_statement" command.
	Args []any
}

// ExecuteStatementCommand is the single built-in command named by §6.
const ExecuteStatementCommand = "execute_statement"

// CodeActions implements `code_actions(uri, range)` (§6). It offers
// "execute_statement" for every statement whose range intersects the
// requested range.
func (w *Workspace) CodeActions(uri string, r sqltext.Range) ([]CodeAction, error) {
	doc, err := w.lookup(uri)
	if err != nil {
		return nil, err
	}

	text := doc.Text()
	start, ok := sqltext.OffsetAt(text, r.Start)
	if !ok {
		start = 0
	}
	end, ok := sqltext.OffsetAt(text, r.End)
	if !ok {
		end = len(text)
	}

	var out []CodeAction
	for _, stmt := range doc.Statements() {
		if stmt.Range.End <= start || stmt.Range.Start >= end {
			if !(start == end && stmt.Range.Start <= start && start <= stmt.Range.End) {
				continue
			}
		}
		out = append(out, CodeAction{
			Title:   "Execute statement",
			Command: ExecuteStatementCommand,
			Args:    []any{uri, string(stmt.ID)},
		})
	}
	return out, nil
}

// ExecuteResult is the success payload of executing a statement,
// supplementing §6's "success or an error string" with the richer shape
// the original system reports (SPEC_FULL §11.7): row count and duration
// for DML, column names for queries that return rows.
type ExecuteResult struct {
	RowsAffected int64
	Columns      []string
	Duration     time.Duration
}

// String renders the result as the formatted summary string §6's
// coarse "success ... string" contract expects from execute_command.
func (r ExecuteResult) String() string {
	if len(r.Columns) > 0 {
		return fmt.Sprintf("ok: %d column(s) in %s", len(r.Columns), r.Duration)
	}
	return fmt.Sprintf("ok: %d row(s) affected in %s", r.RowsAffected, r.Duration)
}

// ExecuteCommand implements `execute_command(name, args)` (§6). The only
// built-in command is "execute_statement", whose args are (uri,
// statement_id).
func (w *Workspace) ExecuteCommand(ctx context.Context, name string, args []any) (ExecuteResult, error) {
	if name != ExecuteStatementCommand {
		err := UnknownCommandError{Name: name}
		w.logger.LogExecuteCommand(name, err)
		return ExecuteResult{}, err
	}

	uri, id, err := parseExecuteArgs(args)
	if err != nil {
		w.logger.LogExecuteCommand(name, err)
		return ExecuteResult{}, err
	}

	doc, err := w.lookup(uri)
	if err != nil {
		w.logger.LogExecuteCommand(name, err)
		return ExecuteResult{}, err
	}

	var stmt document.Statement
	found := false
	for _, s := range doc.Statements() {
		if s.ID == document.ID(id) {
			stmt = s
			found = true
			break
		}
	}
	if !found {
		err := UnknownStatementError{URI: uri, StatementID: id}
		w.logger.LogExecuteCommand(name, err)
		return ExecuteResult{}, err
	}

	w.dbMu.Lock()
	db := w.db
	w.dbMu.Unlock()
	if db == nil {
		err := fmt.Errorf("execute_statement: no database configured")
		w.logger.LogExecuteCommand(name, err)
		return ExecuteResult{}, err
	}

	start := time.Now()
	rows, err := db.QueryContext(ctx, stmt.Text)
	if err != nil {
		w.logger.LogExecuteCommand(name, err)
		return ExecuteResult{}, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		w.logger.LogExecuteCommand(name, err)
		return ExecuteResult{}, err
	}

	var rowCount int64
	for rows.Next() {
		rowCount++
	}
	if err := rows.Err(); err != nil {
		w.logger.LogExecuteCommand(name, err)
		return ExecuteResult{}, err
	}

	result := ExecuteResult{RowsAffected: rowCount, Columns: cols, Duration: time.Since(start)}
	w.logger.LogExecuteCommand(name, nil)
	return result, nil
}

func parseExecuteArgs(args []any) (uri, id string, err error) {
	if len(args) != 2 {
		return "", "", fmt.Errorf("execute_statement: expected (uri, statement_id), got %d args", len(args))
	}
	uri, ok := args[0].(string)
	if !ok {
		return "", "", fmt.Errorf("execute_statement: arg 0 (uri) must be a string")
	}
	id, ok = args[1].(string)
	if !ok {
		return "", "", fmt.Errorf("execute_statement: arg 1 (statement_id) must be a string")
	}
	return uri, id, nil
}
