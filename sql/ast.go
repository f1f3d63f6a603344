// Package sql implements quilldb's embedded SQL-like dialect: a
// combinator parser producing an AST the exec package walks directly
// (no intermediate bytecode, matching the teacher's own approach).
//
// Grounded on query-parser/parsing_expression.go and
// parsing_statements.go, which reference QLNode/Value/Parser/QLSelect/
// etc. without ever declaring them in this file set — those types are
// authored fresh here, and CREATE TABLE (left as an empty stub in the
// teacher) is implemented in full.
package sql

import "github.com/quilldb/quilldb/row"

// NodeType tags an expression AST node.
type NodeType uint32

const (
	NTUninit NodeType = iota
	NTSym
	NTI64
	NTStr
	NTBool
	NTTup
	NTErr

	NTNot
	NTNeg

	NTOr
	NTAnd

	NTEq
	NTNe
	NTLt
	NTGt
	NTLe
	NTGe

	NTAdd
	NTSub
	NTMul
	NTDiv
	NTMod
)

// NodeValue is a literal or the tag on an operator node.
type NodeValue struct {
	Type NodeType
	I64  int64
	Bool bool
	Str  []byte
}

// Node is one AST node: either a leaf (symbol or literal, no Kids) or
// an operator with its operands as Kids.
type Node struct {
	Value NodeValue
	Kids  []Node
}

// ScanClause is the shared INDEX BY / FILTER / LIMIT tail of SELECT,
// DELETE, and UPDATE. Limit defaults to NoLimit when no LIMIT clause
// was parsed.
//
// IndexBy holds the raw "index by" expression verbatim: a conjunction
// of one or two comparisons between a column identifier and a
// constant (e.g. "id >= '1' and id <= '2'", or "id = '1'"), per
// spec.md's grammar. exec derives the scan's (cmp1, cmp2, key1, key2)
// from its shape rather than the parser, since that derivation needs
// the target TableDef to validate column names and types.
type ScanClause struct {
	Table   string
	IndexBy Node // zero-value Node (Type == NTUninit) if no INDEX BY clause
	Filter  Node
	Limit   int64
	Offset  int64
}

// NoLimit is the Limit value a ScanClause with no LIMIT clause carries.
const NoLimit = int64(1<<63 - 1)

// CreateTable is a parsed CREATE TABLE statement. Def is filled in
// directly as parsing proceeds and handed to row.TableNew verbatim.
type CreateTable struct {
	Def row.TableDef
}

// Select is a parsed SELECT statement.
type Select struct {
	ScanClause
	Names  []string // output column/alias names, one per Output expr ("" if no AS)
	Output []Node
}

// Insert is a parsed INSERT/REPLACE/UPSERT INTO statement.
type Insert struct {
	Table  string
	Mode   InsertMode
	Names  []string // explicit column list, empty means "all columns in declared order"
	Values [][]Node // one row per VALUES(...) tuple
}

// InsertMode mirrors btree.InsertMode without importing btree from the
// parser — exec maps it onto the tree's own mode constants.
type InsertMode int

const (
	ModeInsertOnly InsertMode = iota
	ModeUpdateOnly
	ModeUpsert
)

// Delete is a parsed DELETE FROM statement.
type Delete struct {
	ScanClause
}

// Update is a parsed UPDATE ... SET statement.
type Update struct {
	ScanClause
	Names  []string
	Values []Node
}
