package sema

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// TypeError and ResolveError are the two diagnostic kinds the analyzer
// raises (spec §7): a value used at a step that does not accept its
// static type, or a name/type the Schema Registry does not know about.
type TypeError struct {
	Pos     lexer.Position
	Message string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: type error: %s", e.Pos, e.Message)
}

type ResolveError struct {
	Pos     lexer.Position
	Message string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Diagnostics aggregates every error found while analyzing a query,
// instead of aborting at the first one.
type Diagnostics []error

func (d Diagnostics) Error() string {
	if len(d) == 0 {
		return ""
	}
	msg := d[0].Error()
	if len(d) > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, len(d)-1)
	}
	return msg
}

func (d Diagnostics) HasErrors() bool { return len(d) > 0 }
