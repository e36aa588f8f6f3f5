package lang

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
)

// ParseError reports a lexing or parsing failure with source position.
type ParseError struct {
	Kind    string
	Message string
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Kind, e.Line, e.Column, e.Message)
}

func wrapParseError(err error) error {
	if uerr, ok := err.(participle.Error); ok {
		pos := uerr.Position()
		return &ParseError{
			Kind:    "SyntaxError",
			Message: uerr.Message(),
			Line:    pos.Line,
			Column:  pos.Column,
		}
	}
	return &ParseError{Kind: "SyntaxError", Message: err.Error()}
}
