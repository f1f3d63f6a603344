package sql

import (
	"fmt"

	"github.com/quilldb/quilldb/internal/errs"
	"github.com/quilldb/quilldb/row"
)

// Parse compiles one statement from input, erroring on anything left
// over afterward besides a trailing semicolon.
func Parse(input []byte) (interface{}, error) {
	p := &Parser{input: input}
	stmt := pStmt(p)
	if p.err != nil {
		return nil, errs.Wrap(errs.ParseError, p.err, "parsing statement")
	}
	p.skipSpace()
	pKeyword(p, ";")
	p.skipSpace()
	if p.idx != len(p.input) {
		return nil, errs.Newf(errs.ParseError, "unexpected input at byte %d", p.idx)
	}
	return stmt, nil
}

// ParseScript splits input into one or more ';'-separated statements
// and parses each in turn, stopping at the first parse error (spec.md
// §7's batch semantics: a malformed later statement must not prevent
// earlier ones from having already parsed and, by the time exec runs
// them, committed).
func ParseScript(input []byte) ([]interface{}, error) {
	p := &Parser{input: input}
	var stmts []interface{}
	for {
		p.skipSpace()
		if p.idx >= len(p.input) {
			break
		}
		stmt := pStmt(p)
		if p.err != nil {
			return stmts, errs.Wrap(errs.ParseError, p.err, "parsing statement")
		}
		stmts = append(stmts, stmt)
		p.skipSpace()
		if !pKeyword(p, ";") {
			break
		}
	}
	p.skipSpace()
	if p.idx != len(p.input) {
		return stmts, errs.Newf(errs.ParseError, "unexpected input at byte %d", p.idx)
	}
	return stmts, nil
}

func pStmt(p *Parser) interface{} {
	switch {
	case pKeyword(p, "create", "table"):
		return pCreateTable(p)
	case pKeyword(p, "select"):
		return pSelect(p)
	case pKeyword(p, "insert", "into"):
		return pInsert(p, ModeInsertOnly)
	case pKeyword(p, "replace", "into"):
		return pInsert(p, ModeUpdateOnly)
	case pKeyword(p, "upsert", "into"):
		return pInsert(p, ModeUpsert)
	case pKeyword(p, "delete", "from"):
		return pDelete(p)
	case pKeyword(p, "update"):
		return pUpdate(p)
	default:
		pErr(p, "unknown statement at byte %d", p.idx)
		return nil
	}
}

// pCreateTable parses:
//
//	CREATE TABLE name (
//	    col1 TYPE1,
//	    col2 TYPE2 [, ...]
//	    [, PRIMARY KEY (col, ...)]
//	    [, INDEX (col, ...)]*
//	)
//
// A column's declared order is its TableDef.Cols order; PRIMARY KEY
// reorders the named columns to the front and sets PKeys. With no
// PRIMARY KEY clause, the first declared column is the primary key.
func pCreateTable(p *Parser) *CreateTable {
	stmt := &CreateTable{}
	stmt.Def.Name = pMustSym(p)
	if !pKeyword(p, "(") {
		pErr(p, "expected '(' after table name at byte %d", p.idx)
		return nil
	}

	var pk []string
	for {
		switch {
		case pKeyword(p, "primary", "key"):
			if !pKeyword(p, "(") {
				pErr(p, "expected '(' after PRIMARY KEY")
				return nil
			}
			pk = pSymList(p)
			if !pKeyword(p, ")") {
				pErr(p, "expected ')' closing PRIMARY KEY")
				return nil
			}
		case pKeyword(p, "index"):
			if !pKeyword(p, "(") {
				pErr(p, "expected '(' after INDEX")
				return nil
			}
			cols := pSymList(p)
			if !pKeyword(p, ")") {
				pErr(p, "expected ')' closing INDEX")
				return nil
			}
			stmt.Def.Indexes = append(stmt.Def.Indexes, cols)
		default:
			col := pMustSym(p)
			typ, ok := pColumnType(p)
			if !ok {
				pErr(p, "expected a column type for %q", col)
				return nil
			}
			stmt.Def.Cols = append(stmt.Def.Cols, col)
			stmt.Def.Types = append(stmt.Def.Types, typ)
		}
		if p.err != nil {
			return nil
		}
		if !pKeyword(p, ",") {
			break
		}
	}
	if !pKeyword(p, ")") {
		pErr(p, "expected ')' closing table definition")
		return nil
	}

	if len(pk) == 0 {
		if len(stmt.Def.Cols) == 0 {
			pErr(p, "table %q declares no columns", stmt.Def.Name)
			return nil
		}
		stmt.Def.PKeys = 1
	} else if err := reorderPrimaryKey(&stmt.Def, pk); err != nil {
		pErr(p, "%s", err)
		return nil
	}
	return stmt
}

func pColumnType(p *Parser) (row.Type, bool) {
	switch {
	case pKeyword(p, "int8"):
		return row.TypeInt8, true
	case pKeyword(p, "int16"):
		return row.TypeInt16, true
	case pKeyword(p, "int32"):
		return row.TypeInt32, true
	case pKeyword(p, "int64"):
		return row.TypeInt64, true
	case pKeyword(p, "bytes"), pKeyword(p, "vchar"), pKeyword(p, "varchar"), pKeyword(p, "text"):
		return row.TypeBytes, true
	case pKeyword(p, "bool"):
		return row.TypeBool, true
	case pKeyword(p, "id"):
		return row.TypeID, true
	default:
		return 0, false
	}
}

// reorderPrimaryKey moves pk's named columns to the front of def.Cols/
// Types, in the order pk names them, and sets def.PKeys.
func reorderPrimaryKey(def *row.TableDef, pk []string) error {
	pos := make(map[string]int, len(def.Cols))
	for i, c := range def.Cols {
		pos[c] = i
	}
	newCols := make([]string, 0, len(def.Cols))
	newTypes := make([]row.Type, 0, len(def.Types))
	used := make(map[string]bool, len(pk))
	for _, c := range pk {
		i, ok := pos[c]
		if !ok {
			return fmt.Errorf("PRIMARY KEY column %q not declared", c)
		}
		newCols = append(newCols, def.Cols[i])
		newTypes = append(newTypes, def.Types[i])
		used[c] = true
	}
	for i, c := range def.Cols {
		if !used[c] {
			newCols = append(newCols, c)
			newTypes = append(newTypes, def.Types[i])
		}
	}
	def.Cols = newCols
	def.Types = newTypes
	def.PKeys = len(pk)
	return nil
}

func pSelect(p *Parser) *Select {
	stmt := &Select{}
	pSelectExprList(p, stmt)
	if !pKeyword(p, "from") {
		pErr(p, "expected FROM")
		return nil
	}
	stmt.Table = pMustSym(p)
	pScanClause(p, &stmt.ScanClause)
	if p.err != nil {
		return nil
	}
	return stmt
}

func pSelectExprList(p *Parser, stmt *Select) {
	pSelectExpr(p, stmt)
	for pKeyword(p, ",") {
		pSelectExpr(p, stmt)
	}
}

func pSelectExpr(p *Parser, stmt *Select) {
	expr := Node{}
	pExprOr(p, &expr)
	name := ""
	if pKeyword(p, "as") {
		name = pMustSym(p)
	}
	stmt.Names = append(stmt.Names, name)
	stmt.Output = append(stmt.Output, expr)
}

// pScanClause parses the shared INDEX BY / FILTER / LIMIT tail.
func pScanClause(p *Parser, scan *ScanClause) {
	scan.Limit = NoLimit

	if pKeyword(p, "index", "by") {
		pExprOr(p, &scan.IndexBy)
	}
	if pKeyword(p, "filter") {
		pExprOr(p, &scan.Filter)
	}
	if pKeyword(p, "limit") {
		limitNode := Node{}
		if !pNum(p, &limitNode) {
			pErr(p, "expected a number after LIMIT")
			return
		}
		scan.Limit = limitNode.Value.I64
		if pKeyword(p, ",") {
			offsetNode := Node{}
			if !pNum(p, &offsetNode) {
				pErr(p, "expected a number after LIMIT's comma")
				return
			}
			scan.Offset = offsetNode.Value.I64
		}
	}
	if pKeyword(p, "offset") {
		offsetNode := Node{}
		if !pNum(p, &offsetNode) {
			pErr(p, "expected a number after OFFSET")
			return
		}
		scan.Offset = offsetNode.Value.I64
	}
}

func pInsert(p *Parser, mode InsertMode) *Insert {
	stmt := &Insert{Mode: mode}
	stmt.Table = pMustSym(p)

	if pKeyword(p, "(") {
		stmt.Names = pSymList(p)
		if !pKeyword(p, ")") {
			pErr(p, "expected ')' closing column list")
			return nil
		}
	}

	if !pKeyword(p, "values") {
		pErr(p, "expected VALUES")
		return nil
	}
	for {
		if !pKeyword(p, "(") {
			pErr(p, "expected '(' starting a VALUES tuple")
			return nil
		}
		var tuple []Node
		for {
			expr := Node{}
			pExprOr(p, &expr)
			tuple = append(tuple, expr)
			if !pKeyword(p, ",") {
				break
			}
		}
		if !pKeyword(p, ")") {
			pErr(p, "expected ')' closing a VALUES tuple")
			return nil
		}
		stmt.Values = append(stmt.Values, tuple)
		if !pKeyword(p, ",") {
			break
		}
	}
	return stmt
}

func pDelete(p *Parser) *Delete {
	stmt := &Delete{}
	stmt.Table = pMustSym(p)
	pScanClause(p, &stmt.ScanClause)
	if p.err != nil {
		return nil
	}
	return stmt
}

func pUpdate(p *Parser) *Update {
	stmt := &Update{}
	stmt.Table = pMustSym(p)
	if !pKeyword(p, "set") {
		pErr(p, "expected SET")
		return nil
	}
	for {
		col := pMustSym(p)
		if !pKeyword(p, "=") {
			pErr(p, "expected '=' after column %q", col)
			return nil
		}
		expr := Node{}
		pExprOr(p, &expr)
		stmt.Names = append(stmt.Names, col)
		stmt.Values = append(stmt.Values, expr)
		if !pKeyword(p, ",") {
			break
		}
	}
	pScanClause(p, &stmt.ScanClause)
	if p.err != nil {
		return nil
	}
	return stmt
}
