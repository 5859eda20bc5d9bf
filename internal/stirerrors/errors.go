// Package stirerrors provides the structured error taxonomy for the stirc
// pipeline. Fatal conditions raised by internal/ast, internal/simple,
// internal/stir and internal/reuse are reported through an *Error carrying
// a stable code, so that tooling (and this repo's own tests) can assert on
// the code rather than on message text. internal/borrow, internal/rc,
// internal/lower and internal/interp panic instead, so the RUNTIME codes
// below are defined but not raised.
package stirerrors

import "fmt"

// Code families, one per pipeline stage (see spec.md §7).
const (
	// AST001 indicates a reference to an identifier, function, or
	// constructor that is not present in the front-end's scope chain.
	AST001 = "AST001"

	// SIMPLE001 indicates a function or constructor call whose argument
	// count does not match its declared signature.
	SIMPLE001 = "SIMPLE001"

	// SIMPLE002 indicates a match with no case covering some reachable
	// tag (integer or constructor) and no wildcard to catch the rest.
	SIMPLE002 = "SIMPLE002"

	// ANF001 indicates an integer match translated to an ANF equality
	// cascade ran off the end of its branches without reaching a
	// wildcard — every reachable scrutinee value fell through uncaught.
	ANF001 = "ANF001"

	// ANF002 indicates more than one wildcard case in a single match.
	ANF002 = "ANF002"

	// ANF003 indicates a case following a wildcard case in the same match.
	ANF003 = "ANF003"

	// REUSE001 indicates a function declared fip whose reuse analysis
	// could not match every fresh allocation in its body to a reset
	// token, so the function cannot honor its net-zero-allocation
	// contract.
	REUSE001 = "REUSE001"

	// RUNTIME001 indicates an interpreter-level division by zero.
	RUNTIME001 = "RUNTIME001"

	// RUNTIME002 indicates an interpreter heap access outside the bounds
	// of an allocated block — a pipeline bug, not a source program bug.
	RUNTIME002 = "RUNTIME002"
)

// Error is the common shape of every fatal condition raised by the
// pipeline. Phase names the component that raised it ("ast", "simple",
// "stir", "reuse", "borrow", "rc", "lower", "interp"); NodeID, when
// non-zero, names the offending node for diagnostics.
type Error struct {
	Code    string
	Phase   string
	Message string
	NodeID  uint64
}

func (e *Error) Error() string {
	if e.NodeID != 0 {
		return fmt.Sprintf("%s[%s] node %d: %s", e.Phase, e.Code, e.NodeID, e.Message)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Phase, e.Code, e.Message)
}

// New constructs an *Error. Use NewAt when a node id is available.
func New(phase, code, message string) *Error {
	return &Error{Phase: phase, Code: code, Message: message}
}

// NewAt constructs an *Error decorated with the originating node id.
func NewAt(phase, code string, nodeID uint64, message string) *Error {
	return &Error{Phase: phase, Code: code, Message: message, NodeID: nodeID}
}
