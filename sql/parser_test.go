package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quilldb/quilldb/row"
)

func TestParseCreateTable(t *testing.T) {
	stmt, err := Parse([]byte(`create table person (
		id vchar,
		name vchar,
		age int16,
		primary key (id),
		index (name)
	)`))
	require.NoError(t, err)
	ct, ok := stmt.(*CreateTable)
	require.True(t, ok)

	assert.Equal(t, "person", ct.Def.Name)
	assert.Equal(t, []string{"id", "name", "age"}, ct.Def.Cols)
	assert.Equal(t, []row.Type{row.TypeBytes, row.TypeBytes, row.TypeInt16}, ct.Def.Types)
	assert.Equal(t, 1, ct.Def.PKeys)
	require.Len(t, ct.Def.Indexes, 1)
	assert.Equal(t, []string{"name"}, ct.Def.Indexes[0])
}

func TestParseCreateTableDefaultPrimaryKey(t *testing.T) {
	stmt, err := Parse([]byte(`create table t (a int64, b bool)`))
	require.NoError(t, err)
	ct := stmt.(*CreateTable)
	assert.Equal(t, 1, ct.Def.PKeys)
	assert.Equal(t, []string{"a", "b"}, ct.Def.Cols)
}

func TestParseCreateTableReordersPrimaryKey(t *testing.T) {
	stmt, err := Parse([]byte(`create table t (a int64, b vchar, primary key (b))`))
	require.NoError(t, err)
	ct := stmt.(*CreateTable)
	assert.Equal(t, []string{"b", "a"}, ct.Def.Cols)
	assert.Equal(t, 1, ct.Def.PKeys)
}

func TestParseInsertValues(t *testing.T) {
	stmt, err := Parse([]byte(`insert into person (id, name, age) values ('1', 'alice', 30), ('2', 'bob', 25)`))
	require.NoError(t, err)
	ins, ok := stmt.(*Insert)
	require.True(t, ok)

	assert.Equal(t, "person", ins.Table)
	assert.Equal(t, ModeInsertOnly, ins.Mode)
	assert.Equal(t, []string{"id", "name", "age"}, ins.Names)
	require.Len(t, ins.Values, 2)
	assert.Equal(t, []byte("1"), ins.Values[0][0].Value.Str)
	assert.Equal(t, int64(30), ins.Values[0][2].Value.I64)
}

func TestParseReplaceAndUpsertModes(t *testing.T) {
	stmt, err := Parse([]byte(`replace into t values ('1')`))
	require.NoError(t, err)
	assert.Equal(t, ModeUpdateOnly, stmt.(*Insert).Mode)

	stmt, err = Parse([]byte(`upsert into t values ('1')`))
	require.NoError(t, err)
	assert.Equal(t, ModeUpsert, stmt.(*Insert).Mode)
}

func TestParseSelectWithIndexByAndFilterAndLimit(t *testing.T) {
	stmt, err := Parse([]byte(`select id, name as n from person index by id >= '1' and id <= '3' filter age > 20 limit 10, 5`))
	require.NoError(t, err)
	sel, ok := stmt.(*Select)
	require.True(t, ok)

	assert.Equal(t, "person", sel.Table)
	assert.Equal(t, []string{"", "n"}, sel.Names)
	require.Len(t, sel.Output, 2)
	assert.Equal(t, NTSym, sel.Output[0].Value.Type)
	assert.Equal(t, "id", string(sel.Output[0].Value.Str))

	require.Equal(t, NTAnd, sel.IndexBy.Value.Type)
	assert.Equal(t, NTGe, sel.IndexBy.Kids[0].Value.Type)
	assert.Equal(t, NTLe, sel.IndexBy.Kids[1].Value.Type)

	require.Equal(t, NTGt, sel.Filter.Value.Type)

	assert.Equal(t, int64(10), sel.Limit)
	assert.Equal(t, int64(5), sel.Offset)
}

func TestParseSelectWithStandaloneOffsetKeyword(t *testing.T) {
	stmt, err := Parse([]byte(`select id from person limit 10 offset 5`))
	require.NoError(t, err)
	sel, ok := stmt.(*Select)
	require.True(t, ok)
	assert.Equal(t, int64(10), sel.Limit)
	assert.Equal(t, int64(5), sel.Offset)
}

func TestParseRejectsOffsetAsColumnName(t *testing.T) {
	_, err := Parse([]byte(`select offset from person`))
	assert.Error(t, err)
}

func TestParseSelectNoScanClauseDefaultsLimit(t *testing.T) {
	stmt, err := Parse([]byte(`select id from person`))
	require.NoError(t, err)
	sel := stmt.(*Select)
	assert.Equal(t, NoLimit, sel.Limit)
	assert.Equal(t, NTUninit, sel.IndexBy.Value.Type)
	assert.Equal(t, NTUninit, sel.Filter.Value.Type)
}

func TestParseUpdateSet(t *testing.T) {
	stmt, err := Parse([]byte(`update person set age = 21 index by id = '1'`))
	require.NoError(t, err)
	upd, ok := stmt.(*Update)
	require.True(t, ok)

	assert.Equal(t, "person", upd.Table)
	assert.Equal(t, []string{"age"}, upd.Names)
	require.Len(t, upd.Values, 1)
	assert.Equal(t, int64(21), upd.Values[0].Value.I64)
	assert.Equal(t, NTEq, upd.IndexBy.Value.Type)
}

func TestParseDelete(t *testing.T) {
	stmt, err := Parse([]byte(`delete from person index by id = '2'`))
	require.NoError(t, err)
	del, ok := stmt.(*Delete)
	require.True(t, ok)
	assert.Equal(t, "person", del.Table)
	assert.Equal(t, NTEq, del.IndexBy.Value.Type)
}

func TestParseScriptStopsAtFirstError(t *testing.T) {
	stmts, err := ParseScript([]byte(`insert into t values ('1'); garbage statement; insert into t values ('2')`))
	assert.Error(t, err)
	// the first, well-formed statement must still have parsed
	require.Len(t, stmts, 1)
	assert.Equal(t, "t", stmts[0].(*Insert).Table)
}

func TestParseScriptMultipleStatements(t *testing.T) {
	stmts, err := ParseScript([]byte(`insert into t values ('1'); insert into t values ('2');`))
	require.NoError(t, err)
	require.Len(t, stmts, 2)
}

func TestParseRejectsKeywordAsColumnName(t *testing.T) {
	_, err := Parse([]byte(`create table t (select vchar)`))
	assert.Error(t, err)
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	_, err := Parse([]byte(`select id from person garbage`))
	assert.Error(t, err)
}
