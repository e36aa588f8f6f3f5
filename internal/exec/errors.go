package exec

import "fmt"

// RuntimeError is raised when a value reaching an operator at run time
// does not match what that operator expects — the dynamic counterpart of
// sema's TypeError, for the cases static analysis cannot rule out ahead
// of time (e.g. an AddE endpoint argument turning out not to be a
// NodeRef).
type RuntimeError struct {
	Kind    string
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error (%s): %s", e.Kind, e.Message)
}

func typeMismatch(want, got string) error {
	return &RuntimeError{Kind: "TypeMismatch", Message: fmt.Sprintf("expected %s, got %s", want, got)}
}

func unbound(name string) error {
	return &RuntimeError{Kind: "Unbound", Message: fmt.Sprintf("unbound name %q", name)}
}

// RangeError is raised when a Range(a,b) operator's bounds are inverted
// (a > b): there is no way to drop more items than the window emits.
type RangeError struct {
	Lo int64
	Hi int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range error: lo %d > hi %d", e.Lo, e.Hi)
}
