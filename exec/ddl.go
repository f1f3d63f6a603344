package exec

import (
	"github.com/quilldb/quilldb/row"
	"github.com/quilldb/quilldb/sql"
)

// runCreateTable registers stmt.Def, grounded on
// query-parser/execution.go's qlCreateTable stub — filled in here since
// the teacher left it unimplemented.
func runCreateTable(store row.Store, stmt *sql.CreateTable) error {
	def := stmt.Def
	return row.TableNew(store, &def)
}
