package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quilldb/quilldb/db"
	"github.com/quilldb/quilldb/pagestore"
	"github.com/quilldb/quilldb/row"
)

func newTestEngine(t *testing.T) *Engine {
	d, err := db.OpenWith(pagestore.NewMem())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return New(d, nil, nil)
}

// TestWorkedScenario drives the engine through the five end-to-end
// scenarios: create the person table, insert two rows, scan it by
// primary key range and by its secondary index, update one row by
// primary key, and delete the other.
func TestWorkedScenario(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.ExecuteCommand(`create table person (
		id vchar,
		name vchar,
		age int16,
		primary key (id),
		index (name)
	)`)
	require.NoError(t, err)

	res, err := e.ExecuteCommand(`insert into person (id, name, age) values ('1', 'alice', 30), ('2', 'bob', 25)`)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.AffectedRows)

	// scenario 3: select by primary-key range
	q, err := e.ExecuteQuery(`select id, name, age from person index by id >= '1' and id <= '2'`)
	require.NoError(t, err)
	assert.Equal(t, "person", q.TableName)
	require.Len(t, q.Columns, 3)
	assert.Equal(t, "id", q.Columns[0].Name)
	assert.Equal(t, row.TypeBytes, q.Columns[0].Type)
	assert.Equal(t, "age", q.Columns[2].Name)
	assert.Equal(t, row.TypeInt16, q.Columns[2].Type)
	require.Len(t, q.Rows, 2)

	// scenario 4: update one row's age by primary key
	upd, err := e.ExecuteCommand(`update person set age = 21 index by id = '1'`)
	require.NoError(t, err)
	assert.EqualValues(t, 1, upd.AffectedRows)

	q, err = e.ExecuteQuery(`select age from person index by id = '1'`)
	require.NoError(t, err)
	require.Len(t, q.Rows, 1)
	ages := []row.Value{{Type: row.TypeInt16}}
	row.DecodeValues(q.Rows[0], ages)
	assert.EqualValues(t, 21, ages[0].I64)

	// delete the other row by primary key
	del, err := e.ExecuteCommand(`delete from person index by id = '2'`)
	require.NoError(t, err)
	assert.EqualValues(t, 1, del.AffectedRows)

	q, err = e.ExecuteQuery(`select id from person index by id = '2'`)
	require.NoError(t, err)
	assert.Empty(t, q.Rows)

	// scenario: select by secondary index range turns up only the
	// surviving row
	q, err = e.ExecuteQuery(`select id, name from person index by name >= 'a' and name <= 'z'`)
	require.NoError(t, err)
	require.Len(t, q.Rows, 1)
}

func TestExecuteCommandStopsAtFirstFailure(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.ExecuteCommand(`create table t (id vchar, primary key (id))`)
	require.NoError(t, err)

	_, err = e.ExecuteCommand(`insert into t values ('1'); insert into t values ('1'); insert into t values ('2')`)
	assert.Error(t, err, "second insert collides on primary key '1'")

	q, err := e.ExecuteQuery(`select id from t`)
	require.NoError(t, err)
	assert.Len(t, q.Rows, 1, "the first statement must have stayed committed despite the later failure")

	q, err = e.ExecuteQuery(`select id from t index by id = '2'`)
	require.NoError(t, err)
	assert.Empty(t, q.Rows, "a statement after the failure must never have run")
}

func TestExecuteQueryRejectsNonSelect(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.ExecuteCommand(`create table t (id vchar, primary key (id))`)
	require.NoError(t, err)

	_, err = e.ExecuteQuery(`delete from t`)
	assert.Error(t, err)
}

func TestExecuteCommandRejectsSelect(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.ExecuteCommand(`create table t (id vchar, primary key (id))`)
	require.NoError(t, err)

	_, err = e.ExecuteCommand(`select id from t`)
	assert.Error(t, err)
}

func TestUpdateRejectsSetOnPrimaryKey(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.ExecuteCommand(`create table t (id vchar, age int16, primary key (id))`)
	require.NoError(t, err)
	_, err = e.ExecuteCommand(`insert into t values ('1', 1)`)
	require.NoError(t, err)

	_, err = e.ExecuteCommand(`update t set id = '2' index by id = '1'`)
	assert.Error(t, err)
}

func TestInsertOnlyRejectsDuplicateKey(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.ExecuteCommand(`create table t (id vchar, primary key (id))`)
	require.NoError(t, err)
	_, err = e.ExecuteCommand(`insert into t values ('1')`)
	require.NoError(t, err)
	_, err = e.ExecuteCommand(`insert into t values ('1')`)
	assert.Error(t, err)
}

func TestUpsertOverwritesExistingRow(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.ExecuteCommand(`create table t (id vchar, age int16, primary key (id))`)
	require.NoError(t, err)
	_, err = e.ExecuteCommand(`upsert into t values ('1', 1)`)
	require.NoError(t, err)
	_, err = e.ExecuteCommand(`upsert into t values ('1', 2)`)
	require.NoError(t, err)

	q, err := e.ExecuteQuery(`select age from t index by id = '1'`)
	require.NoError(t, err)
	require.Len(t, q.Rows, 1)
}

func TestSelectFilterAndLimit(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.ExecuteCommand(`create table t (id vchar, age int16, primary key (id))`)
	require.NoError(t, err)
	_, err = e.ExecuteCommand(`insert into t values ('1', 10), ('2', 20), ('3', 30), ('4', 40)`)
	require.NoError(t, err)

	q, err := e.ExecuteQuery(`select id from t filter age > 15 limit 1`)
	require.NoError(t, err)
	require.Len(t, q.Rows, 1)

	q, err = e.ExecuteQuery(`select id from t filter age > 15`)
	require.NoError(t, err)
	assert.Len(t, q.Rows, 3)
}
