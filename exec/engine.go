package exec

import (
	"time"

	"github.com/quilldb/quilldb/db"
	"github.com/quilldb/quilldb/internal/errs"
	"github.com/quilldb/quilldb/internal/logger"
	"github.com/quilldb/quilldb/internal/metrics"
	"github.com/quilldb/quilldb/row"
	"github.com/quilldb/quilldb/sql"
)

// Engine is the Go-level surface spec.md §6 describes as an external
// RPC boundary ("execute_command"/"execute_query"): this repo stops at
// the Go method pair, with no gRPC service wrapped around it.
//
// Grounded on concurrent-reader-writer/main.go and transaction/main.go,
// which both drive the orchestrator (Begin/Commit, BeginRead/EndRead)
// directly from a demo main() with no RPC layer of their own either.
type Engine struct {
	db  *db.DB
	log *logger.Logger
	met *metrics.Metrics
}

// New builds an Engine over an already-open database handle.
func New(d *db.DB, log *logger.Logger, met *metrics.Metrics) *Engine {
	if log == nil {
		log = logger.Global()
	}
	return &Engine{db: d, log: log, met: met}
}

// ColumnInfo describes one output column of a query result.
type ColumnInfo struct {
	Name string
	Type row.Type
}

// QueryResult is execute_query's return shape.
type QueryResult struct {
	TableName string
	Columns   []ColumnInfo
	Rows      [][]byte
}

// CommandResult is execute_command's return shape: the number of rows
// touched, summed across every statement in the batch that committed
// before any failure stopped it.
type CommandResult struct {
	AffectedRows int64
}

// ExecuteQuery parses and runs exactly one SELECT statement inside a
// fresh reader snapshot, never touching the writer lock.
func (e *Engine) ExecuteQuery(sqlText string) (QueryResult, error) {
	start := time.Now()
	stmt, err := sql.Parse([]byte(sqlText))
	if err != nil {
		return QueryResult{}, err
	}
	sel, ok := stmt.(*sql.Select)
	if !ok {
		return QueryResult{}, errs.New(errs.ParseError, "execute_query requires a single SELECT statement")
	}

	reader := e.db.BeginRead()
	defer e.db.EndRead(reader)

	recs, err := runSelect(reader, sel)
	e.logStatement("select", sel.Table, len(recs), start, err)
	if err != nil {
		return QueryResult{}, err
	}

	tdef, err := lookupTable(reader, sel.Table)
	if err != nil {
		return QueryResult{}, err
	}
	cols := make([]ColumnInfo, len(sel.Output))
	for i, node := range sel.Output {
		name := sel.Names[i]
		if name == "" {
			name = exprLabel(node)
		}
		typ, err := staticType(node, tdef)
		if err != nil {
			return QueryResult{}, err
		}
		cols[i] = ColumnInfo{Name: name, Type: typ}
	}

	rows := make([][]byte, len(recs))
	for i, rec := range recs {
		rows[i] = row.EncodeValues(nil, rec.Vals)
	}

	return QueryResult{TableName: sel.Table, Columns: cols, Rows: rows}, nil
}

// ExecuteCommand parses one or more ';'-separated non-query statements
// and runs each inside its own writer transaction, stopping at the
// first failure (spec.md §7): earlier statements in the same call that
// already committed stay committed.
func (e *Engine) ExecuteCommand(sqlText string) (CommandResult, error) {
	stmts, perr := sql.ParseScript([]byte(sqlText))
	result := CommandResult{}
	if perr != nil && len(stmts) == 0 {
		return result, perr
	}

	for _, stmt := range stmts {
		affected, _, _, err := e.runOne(stmt)
		if err != nil {
			return result, err
		}
		result.AffectedRows += int64(affected)
	}
	if perr != nil {
		return result, perr
	}
	return result, nil
}

func (e *Engine) runOne(stmt interface{}) (affected int, kind, table string, err error) {
	start := time.Now()
	tx := e.db.Begin()
	defer func() {
		e.logStatement(kind, table, affected, start, err)
	}()

	switch s := stmt.(type) {
	case *sql.CreateTable:
		kind, table = "create_table", s.Def.Name
		err = runCreateTable(tx, s)
	case *sql.Insert:
		kind, table = "insert", s.Table
		var tdef *row.TableDef
		if tdef, err = lookupTable(tx, s.Table); err == nil {
			affected, err = runInsert(tx, tdef, s)
		}
	case *sql.Update:
		kind, table = "update", s.Table
		affected, err = runUpdate(tx, s)
	case *sql.Delete:
		kind, table = "delete", s.Table
		affected, err = runDelete(tx, s)
	case *sql.Select:
		e.db.Abort(tx)
		return 0, "select", "", errs.New(errs.OperationNotSupported, "execute_command does not run SELECT; use execute_query")
	default:
		e.db.Abort(tx)
		return 0, "unknown", "", errs.New(errs.ParseError, "unrecognized statement")
	}

	if err != nil {
		e.db.Abort(tx)
		return affected, kind, table, err
	}
	if err = e.db.Commit(tx); err != nil {
		return affected, kind, table, err
	}
	return affected, kind, table, nil
}

func (e *Engine) logStatement(kind, table string, affected int, start time.Time, err error) {
	e.log.LogStatement(kind, table, affected, time.Since(start), err)
	if e.met != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		e.met.RecordStatement(kind, status, time.Since(start))
	}
}
