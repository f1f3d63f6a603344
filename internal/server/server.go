// Package server is the boundary spec.md §6 names as "out of scope,
// interfaces only": the Go method pair a gRPC (or any other transport)
// wrapper would call into. No transport is implemented here — the
// Non-goal excludes it — but the boundary type itself is, matching
// NayanaChandrika99-DocReasoner/tree_db/internal/server's role as the
// thing its own cmd/treestore/main.go wraps with grpc.NewServer.
package server

import "github.com/quilldb/quilldb/exec"

// Server is the method surface spec.md §6 describes:
// execute_command/execute_query. It holds no state of its own beyond
// the engine; a future transport wrapper owns connection handling,
// request decoding, and everything else transport-specific.
type Server struct {
	engine *exec.Engine
}

// New wraps an already-built Engine.
func New(engine *exec.Engine) *Server {
	return &Server{engine: engine}
}

// ExecuteCommand runs one or more ';'-separated non-query statements.
func (s *Server) ExecuteCommand(sqlText string) (exec.CommandResult, error) {
	return s.engine.ExecuteCommand(sqlText)
}

// ExecuteQuery runs a single SELECT statement.
func (s *Server) ExecuteQuery(sqlText string) (exec.QueryResult, error) {
	return s.engine.ExecuteQuery(sqlText)
}
